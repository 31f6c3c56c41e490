package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/prompts"
)

// verdictJSON is the wire shape a backend must answer with.
type verdictJSON struct {
	Outcome       string  `json:"outcome"`
	Finding       string  `json:"finding,omitempty"`
	FixSuggestion string  `json:"fix_suggestion,omitempty"`
	Confidence    float64 `json:"confidence"`
}

// ChatBackend wraps an Eino chat model in the Backend contract.
type ChatBackend struct {
	desc     Descriptor
	chat     model.BaseChatModel
	userTmpl *template.Template
	debug    bool
}

// NewChatBackend builds a backend around an already-constructed chat model.
func NewChatBackend(desc Descriptor, chat model.BaseChatModel, debug bool) (*ChatBackend, error) {
	tmpl, err := template.New(desc.ID).Parse(prompts.VerifyAssumptionUserTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &ChatBackend{desc: desc, chat: chat, userTmpl: tmpl, debug: debug}, nil
}

// Descriptor returns the capability descriptor for this backend.
func (b *ChatBackend) Descriptor() Descriptor { return b.desc }

// Call sends one assumption to the model and parses its verdict. The
// prompt carries the tag content (location, statement, category, the
// author's VERIFY hint) plus the surrounding snippet, nothing else.
func (b *ChatBackend) Call(ctx context.Context, pc assume.PromptContext) (Verdict, error) {
	var buf bytes.Buffer
	if err := b.userTmpl.Execute(&buf, pc); err != nil {
		return Verdict{}, fmt.Errorf("render prompt: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(prompts.VerifyAssumptionSystemPrompt),
		schema.UserMessage(buf.String()),
	}

	resp, err := b.chat.Generate(ctx, messages)
	if err != nil {
		return Verdict{}, fmt.Errorf("backend %s: %w", b.desc.ID, err)
	}
	if b.debug {
		slog.Debug("backend response", "backend", b.desc.ID, "content", resp.Content)
	}

	raw, err := ExtractJSON[verdictJSON](resp.Content)
	if err != nil {
		return Verdict{}, fmt.Errorf("backend %s: %w", b.desc.ID, err)
	}
	return b.toVerdict(raw)
}

func (b *ChatBackend) toVerdict(raw verdictJSON) (Verdict, error) {
	v := Verdict{
		Finding:       raw.Finding,
		FixSuggestion: raw.FixSuggestion,
		Confidence:    clamp01(raw.Confidence),
		CostUnits:     CostForCall(b.desc),
	}
	switch strings.ToUpper(strings.TrimSpace(raw.Outcome)) {
	case "OK", "VERIFIED", "HOLDS":
		v.Outcome = assume.OutcomeOK
	case "ISSUE_FOUND", "ISSUE", "VIOLATED":
		v.Outcome = assume.OutcomeIssueFound
	default:
		return Verdict{}, fmt.Errorf("backend %s: unrecognized outcome %q", b.desc.ID, raw.Outcome)
	}
	return v, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
