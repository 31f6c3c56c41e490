package route

import (
	"time"

	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/internal/backend"
)

// Strategy names accepted by --strategy.
const (
	StrategyTiered       = "tiered"
	StrategyUniform      = "uniform"
	StrategyCriticalOnly = "critical-only"
)

func init() {
	RegisterStrategy(StrategyTiered, func(reg *backend.Registry, budget Budget, latency map[string]time.Duration) Selector {
		return &tieredSelector{reg: reg, budget: budget, latency: latency}
	})
	RegisterStrategy(StrategyUniform, func(reg *backend.Registry, budget Budget, latency map[string]time.Duration) Selector {
		return &uniformSelector{reg: reg, budget: budget, latency: latency}
	})
	RegisterStrategy(StrategyCriticalOnly, func(reg *backend.Registry, budget Budget, latency map[string]time.Duration) Selector {
		return &criticalOnlySelector{reg: reg, budget: budget, latency: latency}
	})
}

// tieredSelector verifies every tier and routes by category strengths.
type tieredSelector struct {
	reg     *backend.Registry
	budget  Budget
	latency map[string]time.Duration
}

func (s *tieredSelector) Name() string             { return StrategyTiered }
func (s *tieredSelector) Include(assume.Tier) bool { return true }
func (s *tieredSelector) Select(in Input) (Decision, error) {
	return choose(s.reg, s.budget, in, s.latency, true)
}

// uniformSelector verifies every tier but ignores strength profiles, so
// every assumption takes the same cheapest-compatible path.
type uniformSelector struct {
	reg     *backend.Registry
	budget  Budget
	latency map[string]time.Duration
}

func (s *uniformSelector) Name() string             { return StrategyUniform }
func (s *uniformSelector) Include(assume.Tier) bool { return true }
func (s *uniformSelector) Select(in Input) (Decision, error) {
	return choose(s.reg, s.budget, in, s.latency, false)
}

// criticalOnlySelector dispatches CRITICAL routing-tier assumptions only.
type criticalOnlySelector struct {
	reg     *backend.Registry
	budget  Budget
	latency map[string]time.Duration
}

func (s *criticalOnlySelector) Name() string { return StrategyCriticalOnly }
func (s *criticalOnlySelector) Include(tier assume.Tier) bool {
	return tier == assume.TierCritical
}
func (s *criticalOnlySelector) Select(in Input) (Decision, error) {
	return choose(s.reg, s.budget, in, s.latency, true)
}
