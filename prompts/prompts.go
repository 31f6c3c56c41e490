package prompts

// LLMPrompts holds templates for interacting with Large Language Models.
const (
	// VerifyAssumptionSystemPrompt instructs the model to act as an
	// independent reviewer of one tagged assumption. It deliberately
	// gives the model no information about who wrote the code or why.
	VerifyAssumptionSystemPrompt = `<instructions>
You are an expert production-reliability reviewer. Your sole purpose is to critically examine ONE implicit assumption embedded in a piece of source code and decide whether it is safe to rely on in production.
</instructions>

<context>
The user will provide: the assumption statement, its category, the file location, a short surrounding code snippet, and optionally a remediation hint left by the tag author. Base your verdict exclusively on this material and on general engineering knowledge. You have no access to the rest of the codebase.
</context>

<task>
Decide whether the assumption holds. Consider: failure modes if it is wrong, how likely those are in production, and whether the surrounding code defends against them. If the assumption is unsafe, propose a minimal defensive code change.
</task>

<rules>
- **Independence:** Judge the assumption on its own merits. Do not assume the author checked anything they did not show.
- **Strict JSON Output:** Your entire response MUST be a single, valid JSON object. Do not include any text, explanations, or Markdown formatting before or after the JSON object.
- **Outcome values:** "OK" if the assumption is safe to rely on, "ISSUE_FOUND" if it needs a defense.
- **Confidence:** A number between 0 and 1 expressing how certain you are of the outcome.
- **fix_suggestion:** Only when outcome is "ISSUE_FOUND"; a plain replacement snippet small enough to review at a glance. Omit otherwise.
</rules>

<output_format>
Return ONLY the following JSON structure. Do not deviate from this format.

{
  "outcome": "ISSUE_FOUND",
  "finding": "One-paragraph explanation of why the assumption does or does not hold.",
  "confidence": 0.85,
  "fix_suggestion": "optional replacement code"
}
</output_format>`

	// VerifyAssumptionUserTemplate is the per-assumption user message,
	// rendered from an assume.PromptContext.
	VerifyAssumptionUserTemplate = `Assumption under review:

Location: {{.Location.File}}:{{.Location.Line}}
Category: {{.Category}}
Statement: {{.Statement}}
{{- if .Hint}}
Author's remediation hint: {{.Hint}}
{{- end}}
{{- if .Snippet}}

Surrounding code:
` + "```" + `
{{.Snippet}}
` + "```" + `
{{- end}}`
)
