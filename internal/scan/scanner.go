// Package scan extracts tagged assumptions from source text.
//
// The tag grammar is a two-line unit embedded in comments:
//
//	<TIER>: <category>: <statement>
//	VERIFY: <hint>          (optional, next line)
//
// where TIER is CRITICAL, ASSUME, or EDGE. Scanning is side-effect-free
// and deterministic: identical input always yields identical assumption
// IDs, in file-then-line order.
package scan

import (
	"regexp"
	"sort"
	"strings"

	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/types"
)

// tagLine matches a well-formed tag after any comment leader.
var tagLine = regexp.MustCompile(`^\s*(?:(?://|#|--|;|\*|/\*)\s*)?(CRITICAL|ASSUME|EDGE):\s*([^:]+?)\s*:\s*(\S.*?)\s*(?:\*/)?\s*$`)

// verifyLine matches the optional remediation hint line.
var verifyLine = regexp.MustCompile(`^\s*(?:(?://|#|--|;|\*|/\*)\s*)?VERIFY:\s*(\S.*?)\s*(?:\*/)?\s*$`)

// candidateLine catches lines that look like tag attempts so malformed
// ones can be reported instead of silently ignored.
var candidateLine = regexp.MustCompile(`^\s*(?:(?://|#|--|;|\*|/\*)\s*)?([A-Z][A-Z_]{3,}):\s*(.*?)\s*(?:\*/)?\s*$`)

// Prefixes that are ordinary comment conventions, never tag attempts.
var knownNonTags = map[string]bool{
	"TODO": true, "FIXME": true, "NOTE": true, "HACK": true,
	"WARNING": true, "DEPRECATED": true, "IMPORTANT": true, "BUG": true,
}

// tierForKeyword is the fixed tag→tier mapping; the tier is declared in
// the tag syntax itself, never inferred.
var tierForKeyword = map[string]assume.Tier{
	"CRITICAL": assume.TierCritical,
	"ASSUME":   assume.TierStandard,
	"EDGE":     assume.TierEdge,
}

// snippetRadius is how many lines of surrounding context each assumption
// carries for the backend prompt.
const snippetRadius = 3

// Result holds everything one scan produced.
type Result struct {
	Assumptions []assume.Assumption
	Warnings    []types.ScanWarning
}

// Scan extracts assumptions from the given file contents. Files are
// processed in sorted path order so output order is stable regardless of
// map iteration order.
func Scan(contents map[string]string) Result {
	paths := make([]string, 0, len(contents))
	for p := range contents {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var res Result
	for _, p := range paths {
		fileRes := ScanFile(p, contents[p])
		res.Assumptions = append(res.Assumptions, fileRes.Assumptions...)
		res.Warnings = append(res.Warnings, fileRes.Warnings...)
	}
	return res
}

// ScanFile extracts assumptions from a single file, in line order.
func ScanFile(path, text string) Result {
	var res Result
	lines := strings.Split(text, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1

		if m := tagLine.FindStringSubmatch(line); m != nil {
			a := assume.Assumption{
				ID:        assume.MakeID(path, lineNo, strings.TrimSpace(line)),
				Location:  assume.Location{File: path, Line: lineNo},
				Tier:      tierForKeyword[m[1]],
				Category:  strings.ToLower(strings.TrimSpace(m[2])),
				Statement: m[3],
				Status:    assume.StatusUnverified,
				Snippet:   snippet(lines, i),
			}
			if i+1 < len(lines) {
				if vm := verifyLine.FindStringSubmatch(lines[i+1]); vm != nil {
					a.Hint = vm[1]
					i++
				}
			}
			res.Assumptions = append(res.Assumptions, a)
			continue
		}

		if vm := verifyLine.FindStringSubmatch(line); vm != nil {
			res.Warnings = append(res.Warnings, types.ScanWarning{
				File: path, Line: lineNo,
				Reason: "VERIFY hint without a preceding tag",
			})
			continue
		}

		if cm := candidateLine.FindStringSubmatch(line); cm != nil {
			keyword := cm[1]
			if knownNonTags[keyword] {
				continue
			}
			if _, known := tierForKeyword[keyword]; known {
				// Known tier keyword but the body failed the grammar:
				// missing the category/statement separator.
				res.Warnings = append(res.Warnings, types.ScanWarning{
					File: path, Line: lineNo,
					Reason: "malformed tag: expected '" + keyword + ": <category>: <statement>'",
				})
				continue
			}
			// Unknown all-caps keyword with a tag-shaped body.
			if strings.Contains(cm[2], ":") {
				res.Warnings = append(res.Warnings, types.ScanWarning{
					File: path, Line: lineNo,
					Reason: "unrecognized tier keyword " + keyword + " (want CRITICAL, ASSUME, or EDGE)",
				})
			}
		}
	}
	return res
}

func snippet(lines []string, idx int) string {
	lo := idx - snippetRadius
	if lo < 0 {
		lo = 0
	}
	hi := idx + snippetRadius + 1
	if hi > len(lines) {
		hi = len(lines)
	}
	return strings.Join(lines[lo:hi], "\n")
}
