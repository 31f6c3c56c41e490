// Package classify assigns routing tiers to assumptions.
//
// The tag keyword fixes the literal tier; classification only decides
// whether an ASSUME-tagged occurrence in a high-risk category should be
// escalated to CRITICAL for routing purposes. The assumption's own tier
// is never rewritten.
package classify

import "github.com/josephgoksu/VeriWing/internal/assume"

// DefaultHighRiskCategories escalate ASSUME tags when no list is configured.
var DefaultHighRiskCategories = []string{
	"payment", "security", "concurrency", "auth", "data-loss",
}

// Classifier decides routing tiers. The zero value performs no escalation.
type Classifier struct {
	highRisk map[string]bool
}

// New creates a classifier with the given high-risk category list.
func New(highRiskCategories []string) *Classifier {
	set := make(map[string]bool, len(highRiskCategories))
	for _, c := range highRiskCategories {
		set[c] = true
	}
	return &Classifier{highRisk: set}
}

// Classify returns the routing tier for a tagged occurrence. It is a pure
// function of (tier, category): CRITICAL and EDGE pass through untouched;
// STANDARD escalates to CRITICAL when the category is high risk.
func (c *Classifier) Classify(tier assume.Tier, category string) assume.Tier {
	if tier == assume.TierStandard && c.highRisk[category] {
		return assume.TierCritical
	}
	return tier
}

// Escalated reports whether Classify changed the tier for this input.
func (c *Classifier) Escalated(tier assume.Tier, category string) bool {
	return c.Classify(tier, category) != tier
}
