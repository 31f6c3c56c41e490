// Package backend defines the analysis backends that verify assumptions,
// the registry that describes them, and the latency history that informs
// routing tie-breaks.
package backend

import (
	"context"

	"github.com/josephgoksu/VeriWing/internal/assume"
)

// CostClass buckets a backend for budget policies.
type CostClass string

const (
	CostFree CostClass = "free"
	CostPaid CostClass = "paid"
)

// Descriptor describes one backend's capabilities.
type Descriptor struct {
	ID        string    `yaml:"id"`
	Provider  string    `yaml:"provider"`
	Model     string    `yaml:"model"`
	CostClass CostClass `yaml:"costClass"`
	// Strengths lists the assumption categories this backend handles well.
	Strengths []string `yaml:"strengths"`
	// MaxConcurrency caps in-flight calls against this backend.
	MaxConcurrency int `yaml:"maxConcurrency"`
	// GeneralPurpose marks fallback-eligible backends.
	GeneralPurpose bool `yaml:"generalPurpose"`
}

// HasStrength reports whether the descriptor lists the given category.
func (d Descriptor) HasStrength(category string) bool {
	for _, s := range d.Strengths {
		if s == category {
			return true
		}
	}
	return false
}

// Verdict is what a backend concludes about one assumption.
type Verdict struct {
	Outcome       assume.Outcome `json:"outcome"`
	Finding       string         `json:"finding,omitempty"`
	FixSuggestion string         `json:"fix_suggestion,omitempty"`
	Confidence    float64        `json:"confidence"`
	CostUnits     float64        `json:"cost_units"`
}

// Backend is the external analysis collaborator. Implementations are
// stateless per call; the dispatcher owns retries, deadlines, and result
// bookkeeping.
type Backend interface {
	Descriptor() Descriptor
	// Call verifies one assumption. The context carries the per-request
	// deadline; implementations must return promptly once it expires.
	Call(ctx context.Context, pc assume.PromptContext) (Verdict, error)
}
