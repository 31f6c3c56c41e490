package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/VeriWing/internal/assume"
)

// scriptedModel returns a fixed response and captures the messages sent.
type scriptedModel struct {
	response string
	err      error
	messages []*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.messages = in
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.response, nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func paidDesc() Descriptor {
	return Descriptor{
		ID: "claude-haiku", Provider: "anthropic", Model: "claude-haiku-4.5",
		CostClass: CostPaid, MaxConcurrency: 4,
	}
}

func promptCtx() assume.PromptContext {
	return assume.PromptContext{
		Location:  assume.Location{File: "pay/refund.go", Line: 42},
		Statement: "refund never exceeds the charge",
		Category:  "payment",
		Hint:      "check the clamp",
		Snippet:   "func computeRefund() {}",
	}
}

func TestChatBackend_Call(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantOutcome assume.Outcome
		wantErr     bool
	}{
		{
			name:        "plain JSON issue",
			response:    `{"outcome": "ISSUE_FOUND", "finding": "no clamp", "confidence": 0.9}`,
			wantOutcome: assume.OutcomeIssueFound,
		},
		{
			name:        "fenced JSON ok",
			response:    "Here is my verdict:\n```json\n{\"outcome\": \"OK\", \"confidence\": 0.8}\n```",
			wantOutcome: assume.OutcomeOK,
		},
		{
			name:        "alias VERIFIED maps to OK",
			response:    `{"outcome": "verified", "confidence": 0.7}`,
			wantOutcome: assume.OutcomeOK,
		},
		{
			name:        "alias VIOLATED maps to issue",
			response:    `{"outcome": "VIOLATED", "finding": "bad", "confidence": 0.6}`,
			wantOutcome: assume.OutcomeIssueFound,
		},
		{
			name:     "unrecognized outcome",
			response: `{"outcome": "MAYBE", "confidence": 0.5}`,
			wantErr:  true,
		},
		{
			name:     "no JSON at all",
			response: "I cannot answer that.",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &scriptedModel{response: tt.response}
			b, err := NewChatBackend(paidDesc(), chat, false)
			require.NoError(t, err)

			v, err := b.Call(context.Background(), promptCtx())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, v.Outcome)
		})
	}
}

func TestChatBackend_PromptContents(t *testing.T) {
	chat := &scriptedModel{response: `{"outcome": "OK", "confidence": 1}`}
	b, err := NewChatBackend(paidDesc(), chat, false)
	require.NoError(t, err)

	_, err = b.Call(context.Background(), promptCtx())
	require.NoError(t, err)

	require.Len(t, chat.messages, 2)
	assert.Equal(t, schema.System, chat.messages[0].Role)
	user := chat.messages[1].Content
	assert.Contains(t, user, "pay/refund.go:42")
	assert.Contains(t, user, "refund never exceeds the charge")
	assert.Contains(t, user, "payment")
	assert.Contains(t, user, "check the clamp")
	assert.Contains(t, user, "func computeRefund() {}")
}

func TestChatBackend_ConfidenceClamped(t *testing.T) {
	chat := &scriptedModel{response: `{"outcome": "OK", "confidence": 3.5}`}
	b, err := NewChatBackend(paidDesc(), chat, false)
	require.NoError(t, err)

	v, err := b.Call(context.Background(), promptCtx())
	require.NoError(t, err)
	assert.Equal(t, 1.0, v.Confidence)
}

func TestChatBackend_CostUnits(t *testing.T) {
	chat := &scriptedModel{response: `{"outcome": "OK", "confidence": 0.9}`}

	paid, err := NewChatBackend(paidDesc(), chat, false)
	require.NoError(t, err)
	v, err := paid.Call(context.Background(), promptCtx())
	require.NoError(t, err)
	assert.Equal(t, ModelCost["claude-haiku-4.5"], v.CostUnits)

	freeDesc := Descriptor{ID: "local", Provider: "ollama", Model: "llama3.2", CostClass: CostFree}
	free, err := NewChatBackend(freeDesc, chat, false)
	require.NoError(t, err)
	v, err = free.Call(context.Background(), promptCtx())
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.CostUnits)
}

func TestChatBackend_ModelError(t *testing.T) {
	chat := &scriptedModel{err: errors.New("connection refused")}
	b, err := NewChatBackend(paidDesc(), chat, false)
	require.NoError(t, err)

	_, err = b.Call(context.Background(), promptCtx())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claude-haiku")
}

func TestExtractJSON(t *testing.T) {
	type payload struct {
		Outcome string `json:"outcome"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare object", `{"outcome": "OK"}`, "OK", false},
		{"prose around", `Sure! {"outcome": "OK"} hope that helps`, "OK", false},
		{"json fence", "```json\n{\"outcome\": \"OK\"}\n```", "OK", false},
		{"plain fence", "```\n{\"outcome\": \"OK\"}\n```", "OK", false},
		{"no object", "nothing here", "", true},
		{"broken json", `{"outcome": }`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON[payload](tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Outcome)
		})
	}
}

func TestCostForCall(t *testing.T) {
	assert.Equal(t, 0.0, CostForCall(Descriptor{Model: "llama3.2", CostClass: CostFree}))
	assert.Equal(t, ModelCost["gemini-2.5-flash"], CostForCall(Descriptor{Model: "gemini-2.5-flash", CostClass: CostPaid}))
	assert.Equal(t, 1.0, CostForCall(Descriptor{Model: "mystery-model", CostClass: CostPaid}))
}
