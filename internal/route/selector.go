// Package route chooses exactly one backend for each assumption, under a
// budget policy. Selection is a pure function of (tier, category, budget,
// registry, latency snapshot) so every routing decision is reproducible.
package route

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/internal/backend"
	"github.com/josephgoksu/VeriWing/types"
)

// Budget constrains which backend cost classes may be selected.
type Budget string

const (
	BudgetPremium  Budget = "premium"
	BudgetBalanced Budget = "balanced"
	BudgetFreeOnly Budget = "free-only"
)

// ValidateBudget checks a budget policy string.
func ValidateBudget(s string) (Budget, error) {
	switch Budget(s) {
	case BudgetPremium, BudgetBalanced, BudgetFreeOnly:
		return Budget(s), nil
	default:
		return "", fmt.Errorf("unsupported budget policy: %s", s)
	}
}

// paidAllowed implements the budget policy table. free-only is absolute:
// no paid backend is ever selected under it, fallback included.
func paidAllowed(b Budget, tier assume.Tier) bool {
	switch b {
	case BudgetPremium:
		return true
	case BudgetBalanced:
		return tier == assume.TierCritical
	default:
		return false
	}
}

// Input is what a selector sees for one assumption. Tier is the routing
// tier (after any classifier escalation), not necessarily the literal tag.
type Input struct {
	AssumptionID string
	Tier         assume.Tier
	Category     string
}

// Decision records the selected backend and why it was chosen.
type Decision struct {
	Backend  backend.Descriptor
	Fallback bool
	Reason   string
}

// Selector is a swappable routing policy.
type Selector interface {
	Name() string
	// Include reports whether assumptions of this routing tier are
	// dispatched at all under this strategy.
	Include(tier assume.Tier) bool
	// Select returns exactly one backend for the input. It only errors
	// when the registry holds nothing the budget permits, which is a
	// run-level failure, not a per-assumption one.
	Select(in Input) (Decision, error)
}

// Factory builds a selector bound to a registry, budget, and latency
// snapshot.
type Factory func(reg *backend.Registry, budget Budget, latency map[string]time.Duration) Selector

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterStrategy makes a routing strategy available by name.
func RegisterStrategy(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// NewSelector builds the named strategy.
func NewSelector(strategy string, reg *backend.Registry, budget Budget, latency map[string]time.Duration) (Selector, error) {
	factoriesMu.RLock()
	f, ok := factories[strategy]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported routing strategy: %s", strategy)
	}
	return f(reg, budget, latency), nil
}

// Strategies returns the registered strategy names, sorted.
func Strategies() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// choose is the shared selection core. With preferStrengths it favors
// backends whose strength profile covers the category; ties break by cost
// class, then historical latency, then ID for determinism.
func choose(reg *backend.Registry, budget Budget, in Input, latency map[string]time.Duration, preferStrengths bool) (Decision, error) {
	allowPaid := paidAllowed(budget, in.Tier)

	var compatible []backend.Descriptor
	for _, d := range reg.All() {
		if d.CostClass == backend.CostPaid && !allowPaid {
			continue
		}
		compatible = append(compatible, d)
	}

	if len(compatible) == 0 {
		return fallback(reg, budget, in)
	}

	if preferStrengths {
		var strong []backend.Descriptor
		for _, d := range compatible {
			if d.HasStrength(in.Category) {
				strong = append(strong, d)
			}
		}
		if len(strong) > 0 {
			best := pickBest(strong, latency)
			return Decision{
				Backend: best,
				Reason: fmt.Sprintf("strength match on %q among %d compatible backends (budget %s, tier %s)",
					in.Category, len(compatible), budget, in.Tier),
			}, nil
		}
	}

	best := pickBest(compatible, latency)
	return Decision{
		Backend: best,
		Reason: fmt.Sprintf("cheapest compatible backend of %d (budget %s, tier %s, no strength match)",
			len(compatible), budget, in.Tier),
	}, nil
}

// fallback picks the cheapest general-purpose backend when nothing is
// compatible. free-only never relaxes to paid; a registry with no free
// backend under free-only cannot route at all.
func fallback(reg *backend.Registry, budget Budget, in Input) (Decision, error) {
	var general []backend.Descriptor
	for _, d := range reg.All() {
		if !d.GeneralPurpose {
			continue
		}
		if budget == BudgetFreeOnly && d.CostClass == backend.CostPaid {
			continue
		}
		general = append(general, d)
	}
	if len(general) == 0 {
		return Decision{}, fmt.Errorf("%w: budget %s permits none of %d backends", types.ErrNoBackends, budget, reg.Len())
	}
	best := pickBest(general, nil)
	return Decision{
		Backend:  best,
		Fallback: true,
		Reason:   fmt.Sprintf("no backend compatible with budget %s for tier %s; fell back to general-purpose %s", budget, in.Tier, best.ID),
	}, nil
}

// pickBest orders candidates by cost class (free first), then mean
// historical latency (unknown sorts last), then ID.
func pickBest(candidates []backend.Descriptor, latency map[string]time.Duration) backend.Descriptor {
	sorted := make([]backend.Descriptor, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CostClass != b.CostClass {
			return a.CostClass == backend.CostFree
		}
		la, aKnown := latency[a.ID]
		lb, bKnown := latency[b.ID]
		if aKnown != bKnown {
			return aKnown
		}
		if aKnown && la != lb {
			return la < lb
		}
		return a.ID < b.ID
	})
	return sorted[0]
}
