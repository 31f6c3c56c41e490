package assume

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeID(t *testing.T) {
	id := MakeID("pay/refund.go", 42, "// CRITICAL: payment: refund never exceeds the charge")

	assert.Len(t, id, IDLength)
	assert.Regexp(t, `^asm-[0-9a-f]{8}$`, id)

	// Stable for identical input.
	assert.Equal(t, id, MakeID("pay/refund.go", 42, "// CRITICAL: payment: refund never exceeds the charge"))

	// Any component change yields a different ID.
	assert.NotEqual(t, id, MakeID("pay/refund.go", 43, "// CRITICAL: payment: refund never exceeds the charge"))
	assert.NotEqual(t, id, MakeID("pay/other.go", 42, "// CRITICAL: payment: refund never exceeds the charge"))
	assert.NotEqual(t, id, MakeID("pay/refund.go", 42, "// CRITICAL: payment: refund never exceeds charges"))
}

func TestTierOrder(t *testing.T) {
	assert.Less(t, TierOrder(TierCritical), TierOrder(TierStandard))
	assert.Less(t, TierOrder(TierStandard), TierOrder(TierEdge))
}

func TestLocationString(t *testing.T) {
	loc := Location{File: "svc/handler.go", Line: 17}
	assert.Equal(t, "svc/handler.go:17", loc.String())
}

func TestStatusForOutcome(t *testing.T) {
	assert.Equal(t, StatusVerifiedOK, StatusForOutcome(OutcomeOK))
	assert.Equal(t, StatusVerifiedIssue, StatusForOutcome(OutcomeIssueFound))
	assert.Equal(t, StatusFailed, StatusForOutcome(OutcomeError))
	assert.Equal(t, StatusFailed, StatusForOutcome(OutcomeTimeout))
}
