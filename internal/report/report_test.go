package report

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/VeriWing/internal/aggregate"
	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/types"
)

func sampleParams() Params {
	index := map[string]assume.Assumption{
		"asm-11111111": {
			ID:        "asm-11111111",
			Location:  assume.Location{File: "pay/refund.go", Line: 42},
			Tier:      assume.TierCritical,
			Category:  "payment",
			Statement: "refund amount never exceeds the original charge",
			Hint:      "check the clamp in computeRefund",
		},
		"asm-22222222": {
			ID:        "asm-22222222",
			Location:  assume.Location{File: "io/read.go", Line: 7},
			Tier:      assume.TierStandard,
			Category:  "io",
			Statement: "reads are buffered",
		},
	}
	results := []assume.Result{
		{
			AssumptionID: "asm-11111111", BackendID: "claude-haiku", Tier: assume.TierCritical,
			Outcome: assume.OutcomeIssueFound, Confidence: 0.92,
			Finding:       "computeRefund never clamps against the charge total",
			FixSuggestion: "if amount > charge.Total {\n\tamount = charge.Total\n}",
		},
		{
			AssumptionID: "asm-22222222", BackendID: "ollama-local", Tier: assume.TierStandard,
			Outcome: assume.OutcomeOK, Confidence: 0.8, FreeBackend: true,
		},
	}
	return Params{
		Strategy:  "tiered",
		Budget:    "balanced",
		Scope:     "all-files",
		Aggregate: aggregate.Build(results, index),
		Index:     index,
	}
}

func TestRender_Deterministic(t *testing.T) {
	p := sampleParams()
	first := Render(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Render(p))
	}
}

func TestRender_Sections(t *testing.T) {
	doc := Render(sampleParams())

	assert.Contains(t, doc, "# Assumption Verification Report")
	assert.Contains(t, doc, "## Summary")
	assert.Contains(t, doc, "## Blocking")
	assert.Contains(t, doc, "## Review")
	assert.Contains(t, doc, "## Notes")

	// The blocking entry carries its provenance and the fenced fix.
	assert.Contains(t, doc, "pay/refund.go:42")
	assert.Contains(t, doc, "`asm-11111111`")
	assert.Contains(t, doc, "Author hint: check the clamp in computeRefund")
	assert.Contains(t, doc, "computeRefund never clamps")
	assert.Contains(t, doc, "```\nif amount > charge.Total")

	// Empty tier sections still render with a placeholder.
	assert.Contains(t, doc, "_Nothing in this section._")
	assert.NotContains(t, doc, "INCOMPLETE RUN")
}

func TestRender_BlockingLineMachineParsable(t *testing.T) {
	doc := Render(sampleParams())

	n, ok := ParseBlockingCount(doc)
	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestParseBlockingCount(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		want   int
		wantOK bool
	}{
		{"plain line", "header\nBlocking issues: 3\nfooter", 3, true},
		{"zero", "Blocking issues: 0\n", 0, true},
		{"absent", "no gate line here", 0, false},
		{"mid-line mention does not count", "we saw Blocking issues: 9 inline", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := ParseBlockingCount(tt.doc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestRender_ZeroAssumptions(t *testing.T) {
	doc := Render(Params{
		Strategy:  "tiered",
		Budget:    "free-only",
		Scope:     "changed-files",
		Aggregate: aggregate.Build(nil, nil),
	})

	assert.Contains(t, doc, "Assumptions found: 0")
	n, ok := ParseBlockingCount(doc)
	require.True(t, ok)
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, strings.Count(doc, "_Nothing in this section._"))
}

func TestRender_IncompleteRun(t *testing.T) {
	p := sampleParams()
	p.Incomplete = true
	p.SkippedIDs = []string{"asm-22222222"}

	doc := Render(p)
	assert.Contains(t, doc, "INCOMPLETE RUN")
	assert.Contains(t, doc, "## Not dispatched")
	assert.Contains(t, doc, "`asm-22222222`")
}

func TestRender_SkippedSorted(t *testing.T) {
	p := sampleParams()
	p.SkippedIDs = []string{"asm-22222222", "asm-11111111"}

	doc := Render(p)
	first := strings.Index(doc, "- `asm-11111111`")
	second := strings.Index(doc, "- `asm-22222222`")
	require.Positive(t, first)
	assert.Greater(t, second, first)
}

func TestRender_ScanWarnings(t *testing.T) {
	p := sampleParams()
	p.Warnings = []types.ScanWarning{
		{File: "main.go", Line: 12, Reason: "malformed tag"},
	}

	doc := Render(p)
	assert.Contains(t, doc, "## Scan warnings")
	assert.Contains(t, doc, "main.go:12")
}

func TestRender_ExplainDecisions(t *testing.T) {
	p := sampleParams()
	p.Decisions = map[string]string{
		"asm-11111111": "strength match on \"payment\"",
	}

	doc := Render(p)
	assert.Contains(t, doc, "- Routing: strength match")
}

func TestWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := sampleParams()

	require.NoError(t, WriteFile(fs, ".veriwing/reports/run.md", p))

	data, err := afero.ReadFile(fs, ".veriwing/reports/run.md")
	require.NoError(t, err)
	assert.Equal(t, Render(p), string(data))
}
