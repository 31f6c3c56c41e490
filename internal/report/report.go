// Package report renders the aggregated verification results into the
// Markdown run artifact. Rendering is deterministic: identical aggregated
// input produces byte-identical output, and no timestamps appear in the
// document, so CI can diff and parse it.
package report

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/josephgoksu/VeriWing/internal/aggregate"
	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/types"
)

// Params carries everything the generator needs for one run artifact.
type Params struct {
	Strategy string
	Budget   string
	Scope    string
	// Incomplete marks a run cut short by the global deadline.
	Incomplete bool
	Warnings   []types.ScanWarning
	// SkippedIDs are assumptions never dispatched before the deadline.
	SkippedIDs []string
	Aggregate  aggregate.Aggregate
	Index      map[string]assume.Assumption
	// Decisions holds per-assumption routing traces for --explain runs.
	Decisions map[string]string
}

// blockingLine is the machine-parsable CI gate line.
const blockingLinePrefix = "Blocking issues: "

var blockingLineRe = regexp.MustCompile(`(?m)^` + blockingLinePrefix + `(\d+)$`)

// ParseBlockingCount extracts the blocking count from a rendered report.
func ParseBlockingCount(doc string) (int, bool) {
	m := blockingLineRe.FindStringSubmatch(doc)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Render produces the full Markdown document.
func Render(p Params) string {
	var b strings.Builder

	b.WriteString("# Assumption Verification Report\n\n")
	if p.Incomplete {
		b.WriteString("> **INCOMPLETE RUN** — the global deadline expired before every request was dispatched. Results below cover only what completed.\n\n")
	}

	writeSummary(&b, p)
	writeSection(&b, "Blocking", assume.TierCritical, p,
		"CRITICAL assumptions with issues or unresolved failures. These justify failing a build gate.")
	writeSection(&b, "Review", assume.TierStandard, p,
		"STANDARD assumptions. Review before the next release.")
	writeSection(&b, "Notes", assume.TierEdge, p,
		"EDGE assumptions. Worth knowing about, rarely urgent.")
	writeWarnings(&b, p.Warnings)
	writeSkipped(&b, p)

	return b.String()
}

// WriteFile renders and writes the artifact in one step.
func WriteFile(fs afero.Fs, path string, p Params) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, []byte(Render(p)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeSummary(b *strings.Builder, p Params) {
	s := p.Aggregate.Summary

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- Strategy: `%s`, budget: `%s`, scope: `%s`\n", p.Strategy, p.Budget, p.Scope)
	fmt.Fprintf(b, "- Assumptions found: %d\n", s.TotalAssumptions)
	fmt.Fprintf(b, "- Requests completed: %d\n", s.TotalResults)
	fmt.Fprintf(b, "- Free-backend calls: %.0f%%\n", s.FreeCallFraction*100)
	fmt.Fprintf(b, "- Total cost: %.2f units\n", s.TotalCostUnits)
	fmt.Fprintf(b, "\n%s%d\n\n", blockingLinePrefix, s.BlockingCount)

	b.WriteString("| Tier | ISSUE_FOUND | OK | ERROR | TIMEOUT |\n")
	b.WriteString("|------|-------------|----|-------|---------|\n")
	for _, tier := range []assume.Tier{assume.TierCritical, assume.TierStandard, assume.TierEdge} {
		c := s.Counts[tier]
		fmt.Fprintf(b, "| %s | %d | %d | %d | %d |\n", tier,
			c[assume.OutcomeIssueFound], c[assume.OutcomeOK],
			c[assume.OutcomeError], c[assume.OutcomeTimeout])
	}
	b.WriteString("\n")
}

func writeSection(b *strings.Builder, title string, tier assume.Tier, p Params, blurb string) {
	fmt.Fprintf(b, "## %s\n\n", title)

	section := p.Aggregate.Sections[assume.TierOrder(tier)]
	if len(section.Results) == 0 {
		b.WriteString("_Nothing in this section._\n\n")
		return
	}
	fmt.Fprintf(b, "%s\n\n", blurb)

	for _, r := range section.Results {
		a := p.Index[r.AssumptionID]
		fmt.Fprintf(b, "### %s — `%s`\n\n", a.Location.String(), r.Outcome)
		fmt.Fprintf(b, "- ID: `%s`\n", r.AssumptionID)
		fmt.Fprintf(b, "- Category: %s\n", a.Category)
		fmt.Fprintf(b, "- Statement: %s\n", a.Statement)
		if a.Hint != "" {
			fmt.Fprintf(b, "- Author hint: %s\n", a.Hint)
		}
		fmt.Fprintf(b, "- Backend: `%s` (confidence %.2f)\n", r.BackendID, r.Confidence)
		if d, ok := p.Decisions[r.AssumptionID]; ok {
			fmt.Fprintf(b, "- Routing: %s\n", d)
		}
		if r.Err != "" {
			fmt.Fprintf(b, "- Failure: %s\n", r.Err)
		}
		if r.Finding != "" {
			fmt.Fprintf(b, "\n%s\n", r.Finding)
		}
		if r.FixSuggestion != "" {
			fmt.Fprintf(b, "\nSuggested fix:\n\n```\n%s\n```\n", r.FixSuggestion)
		}
		b.WriteString("\n")
	}
}

func writeWarnings(b *strings.Builder, warnings []types.ScanWarning) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("## Scan warnings\n\n")
	for _, w := range warnings {
		fmt.Fprintf(b, "- %s\n", w.String())
	}
	b.WriteString("\n")
}

func writeSkipped(b *strings.Builder, p Params) {
	if len(p.SkippedIDs) == 0 {
		return
	}
	ids := make([]string, len(p.SkippedIDs))
	copy(ids, p.SkippedIDs)
	sort.Strings(ids)

	b.WriteString("## Not dispatched\n\n")
	b.WriteString("The run deadline expired before these assumptions were verified:\n\n")
	for _, id := range ids {
		a := p.Index[id]
		fmt.Fprintf(b, "- `%s` %s — %s\n", id, a.Location.String(), a.Statement)
	}
	b.WriteString("\n")
}
