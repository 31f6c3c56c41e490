package fix

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/VeriWing/internal/assume"
)

const targetSource = `package pay

func computeRefund(amount, total int) int {
	return amount
}
`

const reviewedBlock = `func computeRefund(amount, total int) int {
	return amount
}`

const suggestedFix = `func computeRefund(amount, total int) int {
	if amount > total {
		amount = total
	}
	return amount
}`

func fixture(t *testing.T, tier assume.Tier, confidence float64) (afero.Fs, *Applier, []assume.Result, map[string]assume.Assumption) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "pay/refund.go", []byte(targetSource), 0o644))

	index := map[string]assume.Assumption{
		"asm-11111111": {
			ID:        "asm-11111111",
			Location:  assume.Location{File: "pay/refund.go", Line: 3},
			Tier:      tier,
			Category:  "payment",
			Statement: "refund never exceeds the charge",
			Snippet:   reviewedBlock,
		},
	}
	results := []assume.Result{{
		AssumptionID:  "asm-11111111",
		BackendID:     "claude-haiku",
		Tier:          tier,
		Outcome:       assume.OutcomeIssueFound,
		Confidence:    confidence,
		FixSuggestion: suggestedFix,
	}}
	ap := NewApplier(fs, ".veriwing/staging", ".veriwing/backups", 0.8, nil)
	return fs, ap, results, index
}

func TestValidateMode(t *testing.T) {
	for _, valid := range []string{"none", "review", "auto"} {
		_, err := ValidateMode(valid)
		assert.NoError(t, err)
	}
	_, err := ValidateMode("yolo")
	assert.Error(t, err)
}

func TestProcess_ModeNone(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierStandard, 0.95)

	actions, err := ap.Process(ModeNone, results, index)
	require.NoError(t, err)
	assert.Empty(t, actions)

	content, err := afero.ReadFile(fs, "pay/refund.go")
	require.NoError(t, err)
	assert.Equal(t, targetSource, string(content))
}

func TestProcess_ReviewStages(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierStandard, 0.95)

	actions, err := ap.Process(ModeReview, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionStaged, actions[0].Kind)

	patch, err := afero.ReadFile(fs, actions[0].PatchPath)
	require.NoError(t, err)
	assert.Contains(t, string(patch), "asm-11111111")
	assert.Contains(t, string(patch), suggestedFix)

	// Review mode never touches the target.
	content, err := afero.ReadFile(fs, "pay/refund.go")
	require.NoError(t, err)
	assert.Equal(t, targetSource, string(content))
}

func TestProcess_AutoApplies(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierStandard, 0.95)

	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionApplied, actions[0].Kind)
	assert.NotEmpty(t, actions[0].BackupPath)

	content, err := afero.ReadFile(fs, "pay/refund.go")
	require.NoError(t, err)
	assert.Contains(t, string(content), "amount = total")
	assert.NotContains(t, string(content), reviewedBlock)
}

func TestProcess_CriticalNeverAutoApplied(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierCritical, 0.99)

	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionStaged, actions[0].Kind)

	content, err := afero.ReadFile(fs, "pay/refund.go")
	require.NoError(t, err)
	assert.Equal(t, targetSource, string(content))
}

func TestProcess_LowConfidenceStaged(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierStandard, 0.5)

	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionStaged, actions[0].Kind)

	content, err := afero.ReadFile(fs, "pay/refund.go")
	require.NoError(t, err)
	assert.Equal(t, targetSource, string(content))
}

func TestProcess_BackupWrittenBeforeTarget(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierEdge, 0.9)

	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	backup, err := afero.ReadFile(fs, actions[0].BackupPath)
	require.NoError(t, err)
	assert.Equal(t, targetSource, string(backup))
}

func TestProcess_StaleSnippetFails(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierStandard, 0.95)
	// The file changed between verification and apply.
	require.NoError(t, afero.WriteFile(fs, "pay/refund.go", []byte("package pay\n"), 0o644))

	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionFailed, actions[0].Kind)
	assert.Contains(t, actions[0].Reason, "no longer matches")
}

func TestProcess_AmbiguousSnippetFails(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierStandard, 0.95)
	doubled := targetSource + "\n" + reviewedBlock + "\n"
	require.NoError(t, afero.WriteFile(fs, "pay/refund.go", []byte(doubled), 0o644))

	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionFailed, actions[0].Kind)

	content, err := afero.ReadFile(fs, "pay/refund.go")
	require.NoError(t, err)
	assert.Equal(t, doubled, string(content))
}

// failWriteFs fails the first write to one path, then behaves normally.
type failWriteFs struct {
	afero.Fs
	failPath string
	failed   bool
}

func (f *failWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == f.failPath && flag&os.O_WRONLY != 0 && !f.failed {
		f.failed = true
		return nil, errors.New("disk full")
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func TestProcess_MidApplyFailureRestores(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "pay/refund.go", []byte(targetSource), 0o644))

	// The apply write fails; the restore write afterwards succeeds.
	fs := &failWriteFs{Fs: mem, failPath: "pay/refund.go"}

	index := map[string]assume.Assumption{
		"asm-11111111": {
			ID:       "asm-11111111",
			Location: assume.Location{File: "pay/refund.go", Line: 3},
			Tier:     assume.TierStandard,
			Snippet:  reviewedBlock,
		},
	}
	results := []assume.Result{{
		AssumptionID:  "asm-11111111",
		Tier:          assume.TierStandard,
		Outcome:       assume.OutcomeIssueFound,
		Confidence:    0.95,
		FixSuggestion: suggestedFix,
	}}

	ap := NewApplier(fs, ".veriwing/staging", ".veriwing/backups", 0.8, nil)
	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionFailed, actions[0].Kind)
	assert.Contains(t, actions[0].Reason, "write target")

	// The backup exists and the target is back to its original content.
	content, err := afero.ReadFile(mem, "pay/refund.go")
	require.NoError(t, err)
	assert.Equal(t, targetSource, string(content))
}

func TestProcess_MultipleFixesOneFileSingleBackup(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := "alpha\nblock-one\nmiddle\nblock-two\nomega\n"
	require.NoError(t, afero.WriteFile(fs, "svc/handler.go", []byte(src), 0o644))

	index := map[string]assume.Assumption{
		"asm-000000aa": {ID: "asm-000000aa", Location: assume.Location{File: "svc/handler.go", Line: 2}, Tier: assume.TierStandard, Snippet: "block-one"},
		"asm-000000bb": {ID: "asm-000000bb", Location: assume.Location{File: "svc/handler.go", Line: 4}, Tier: assume.TierEdge, Snippet: "block-two"},
	}
	results := []assume.Result{
		{AssumptionID: "asm-000000aa", Tier: assume.TierStandard, Outcome: assume.OutcomeIssueFound, Confidence: 0.9, FixSuggestion: "fixed-one"},
		{AssumptionID: "asm-000000bb", Tier: assume.TierEdge, Outcome: assume.OutcomeIssueFound, Confidence: 0.85, FixSuggestion: "fixed-two"},
	}

	ap := NewApplier(fs, "stage", "backups", 0.8, nil)
	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	for _, act := range actions {
		assert.Equal(t, ActionApplied, act.Kind)
	}

	content, err := afero.ReadFile(fs, "svc/handler.go")
	require.NoError(t, err)
	assert.Equal(t, "alpha\nfixed-one\nmiddle\nfixed-two\nomega\n", string(content))

	// One backup, holding the pre-apply content.
	backup, err := afero.ReadFile(fs, actions[0].BackupPath)
	require.NoError(t, err)
	assert.Equal(t, src, string(backup))
	assert.Equal(t, actions[0].BackupPath, actions[1].BackupPath)
}

func TestRevert(t *testing.T) {
	fs, ap, results, index := fixture(t, assume.TierStandard, 0.95)

	actions, err := ap.Process(ModeAuto, results, index)
	require.NoError(t, err)
	require.Equal(t, ActionApplied, actions[0].Kind)

	require.NoError(t, ap.Revert("pay/refund.go"))

	content, err := afero.ReadFile(fs, "pay/refund.go")
	require.NoError(t, err)
	assert.Equal(t, targetSource, string(content))
}

func TestProcess_NoSuggestionsNoActions(t *testing.T) {
	fs := afero.NewMemMapFs()
	ap := NewApplier(fs, "stage", "backups", 0.8, nil)

	results := []assume.Result{{AssumptionID: "asm-00000001", Outcome: assume.OutcomeOK}}
	actions, err := ap.Process(ModeAuto, results, map[string]assume.Assumption{})
	require.NoError(t, err)
	assert.Empty(t, actions)

	// Staging dir is only created when something is staged.
	exists, err := afero.DirExists(fs, "stage")
	require.NoError(t, err)
	assert.False(t, exists)
}
