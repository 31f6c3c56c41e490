package backend

// ModelCost holds the per-call cost estimate for a model, in abstract
// cost units (roughly USD cents per typical verification call).
// Prices last updated: 2025-12
var ModelCost = map[string]float64{
	// OpenAI
	"gpt-5.1":               0.90,
	"gpt-5-mini":            0.18,
	"gpt-5-mini-2025-08-07": 0.18,
	"gpt-5-nano":            0.04,
	"gpt-4.1-mini":          0.06,
	"gpt-4o":                1.00,
	"gpt-4o-mini":           0.06,

	// Anthropic
	"claude-opus-4.5":   2.50,
	"claude-sonnet-4.5": 1.50,
	"claude-haiku-4.5":  0.50,

	// Google
	"gemini-2.5-flash":     0.03,
	"gemini-3-pro-preview": 1.20,
	"gemini-1.5-pro":       0.60,
	"gemini-1.5-flash":     0.03,
}

// CostForCall returns the cost-unit estimate for one call against the
// given descriptor. Free backends always cost zero; unknown paid models
// get a conservative default so budgets never under-report.
func CostForCall(d Descriptor) float64 {
	if d.CostClass == CostFree {
		return 0
	}
	if c, ok := ModelCost[d.Model]; ok {
		return c
	}
	return 1.0
}
