// Package aggregate merges heterogeneous verification results into the
// ranked, deduplicated shape the report renders from.
package aggregate

import (
	"sort"

	"github.com/josephgoksu/VeriWing/internal/assume"
)

// TierSection holds the ranked results for one tier.
type TierSection struct {
	Tier    assume.Tier
	Results []assume.Result
}

// Summary holds run-level statistics.
type Summary struct {
	TotalAssumptions int
	TotalResults     int
	Counts           map[assume.Tier]map[assume.Outcome]int
	// FreeCallFraction is the share of dispatched calls served by free
	// backends, for budget reporting. Zero when nothing was dispatched.
	FreeCallFraction float64
	TotalCostUnits   float64
	BlockingCount    int
}

// Aggregate is the immutable input to the report generator.
type Aggregate struct {
	// Sections are tier-ordered: CRITICAL, STANDARD, EDGE.
	Sections [3]TierSection
	Summary  Summary
}

// outcomeRank orders results inside a tier: issues first, then clean
// verifications, then failures.
func outcomeRank(o assume.Outcome) int {
	switch o {
	case assume.OutcomeIssueFound:
		return 0
	case assume.OutcomeOK:
		return 1
	default:
		return 2
	}
}

// Build groups results by the literal tag tier of their assumption
// (routing escalation never changes report placement), ranks them, and
// computes the run summary. Duplicate results for one assumption — from
// re-verification — collapse to the highest-confidence non-error result.
func Build(results []assume.Result, index map[string]assume.Assumption) Aggregate {
	deduped := dedupe(results)

	agg := Aggregate{
		Sections: [3]TierSection{
			{Tier: assume.TierCritical},
			{Tier: assume.TierStandard},
			{Tier: assume.TierEdge},
		},
	}
	agg.Summary.Counts = map[assume.Tier]map[assume.Outcome]int{
		assume.TierCritical: {},
		assume.TierStandard: {},
		assume.TierEdge:     {},
	}
	agg.Summary.TotalAssumptions = len(index)

	var freeCalls int
	for _, r := range deduped {
		tier := r.Tier
		if a, ok := index[r.AssumptionID]; ok {
			tier = a.Tier
		}
		idx := assume.TierOrder(tier)
		agg.Sections[idx].Results = append(agg.Sections[idx].Results, r)
		agg.Summary.Counts[tier][r.Outcome]++
		agg.Summary.TotalCostUnits += r.CostUnits
		if r.FreeBackend {
			freeCalls++
		}
		if tier == assume.TierCritical && r.Outcome != assume.OutcomeOK {
			agg.Summary.BlockingCount++
		}
	}
	agg.Summary.TotalResults = len(deduped)
	if len(deduped) > 0 {
		agg.Summary.FreeCallFraction = float64(freeCalls) / float64(len(deduped))
	}

	for i := range agg.Sections {
		rank(agg.Sections[i].Results, index)
	}
	return agg
}

// dedupe keeps one result per assumption: the highest-confidence
// non-error result when any exists, otherwise the best-ranked failure.
func dedupe(results []assume.Result) []assume.Result {
	best := make(map[string]assume.Result)
	order := make([]string, 0, len(results))
	for _, r := range results {
		cur, seen := best[r.AssumptionID]
		if !seen {
			best[r.AssumptionID] = r
			order = append(order, r.AssumptionID)
			continue
		}
		if better(r, cur) {
			best[r.AssumptionID] = r
		}
	}
	out := make([]assume.Result, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

func better(a, b assume.Result) bool {
	aErr := a.Outcome == assume.OutcomeError || a.Outcome == assume.OutcomeTimeout
	bErr := b.Outcome == assume.OutcomeError || b.Outcome == assume.OutcomeTimeout
	if aErr != bErr {
		return !aErr
	}
	return a.Confidence > b.Confidence
}

// rank sorts deterministically: outcome class, then source location,
// then assumption ID.
func rank(results []assume.Result, index map[string]assume.Assumption) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if ra, rb := outcomeRank(a.Outcome), outcomeRank(b.Outcome); ra != rb {
			return ra < rb
		}
		la, lb := index[a.AssumptionID].Location, index[b.AssumptionID].Location
		if la.File != lb.File {
			return la.File < lb.File
		}
		if la.Line != lb.Line {
			return la.Line < lb.Line
		}
		return a.AssumptionID < b.AssumptionID
	})
}
