package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPrompt_Default(t *testing.T) {
	prompt, err := GetPrompt(KeyVerifyAssumption, "")
	if err != nil {
		t.Fatalf("GetPrompt() error = %v", err)
	}
	lower := strings.ToLower(prompt)
	for _, expected := range []string{"assumption", "json", "outcome"} {
		if !strings.Contains(lower, expected) {
			t.Errorf("default prompt missing %q", expected)
		}
	}
}

func TestGetPrompt_UnknownKey(t *testing.T) {
	if _, err := GetPrompt(PromptKey("Nope"), ""); err == nil {
		t.Error("expected error for unrecognized prompt key")
	}
}

func TestGetPrompt_CustomOverride(t *testing.T) {
	templatesDir := t.TempDir()
	custom := "You are a custom verifier."
	path := filepath.Join(templatesDir, "verify_assumption_prompt.txt")
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	prompt, err := GetPrompt(KeyVerifyAssumption, templatesDir)
	if err != nil {
		t.Fatalf("GetPrompt() error = %v", err)
	}
	if prompt != custom {
		t.Errorf("expected custom prompt, got %q", prompt)
	}
}

func TestGetPrompt_MissingOverrideFallsBack(t *testing.T) {
	prompt, err := GetPrompt(KeyVerifyAssumption, t.TempDir())
	if err != nil {
		t.Fatalf("GetPrompt() error = %v", err)
	}
	if prompt != VerifyAssumptionSystemPrompt {
		t.Error("expected the built-in prompt when no override file exists")
	}
}
