package backend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the first JSON object out of an LLM response and
// unmarshals it. Models wrap JSON in prose or markdown fences often
// enough that bare json.Unmarshal is not reliable.
func ExtractJSON[T any](response string) (T, error) {
	var out T

	cleaned := strings.TrimSpace(response)
	if idx := strings.Index(cleaned, "```json"); idx >= 0 {
		cleaned = cleaned[idx+len("```json"):]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	} else if idx := strings.Index(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[idx+3:]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return out, fmt.Errorf("no JSON object in response")
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("parse response JSON: %w", err)
	}
	return out, nil
}
