// Package assume defines the data model shared by the verification pipeline:
// tagged assumptions, verification requests, and verification results.
package assume

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Tier is the production-risk tier declared by the tag keyword.
type Tier string

const (
	TierCritical Tier = "CRITICAL"
	TierStandard Tier = "STANDARD"
	TierEdge     Tier = "EDGE"
)

// TierOrder returns the scheduling rank of a tier (lower runs first).
func TierOrder(t Tier) int {
	switch t {
	case TierCritical:
		return 0
	case TierStandard:
		return 1
	default:
		return 2
	}
}

// Status tracks an assumption through the run lifecycle.
type Status string

const (
	StatusUnverified    Status = "UNVERIFIED"
	StatusVerifiedOK    Status = "VERIFIED_OK"
	StatusVerifiedIssue Status = "VERIFIED_ISSUE"
	StatusFixStaged     Status = "FIX_STAGED"
	StatusFixApplied    Status = "FIX_APPLIED"
	StatusFailed        Status = "FAILED"
)

// Location identifies where a tag occurrence was found.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Assumption is one tagged occurrence extracted from source text.
type Assumption struct {
	ID        string   `json:"id"`
	Location  Location `json:"location"`
	Tier      Tier     `json:"tier"`
	Category  string   `json:"category"`
	Statement string   `json:"statement"`
	Hint      string   `json:"hint,omitempty"`
	Status    Status   `json:"status"`

	// Snippet is the surrounding source context handed to backends.
	Snippet string `json:"-"`
}

// IDLength is the full length of an assumption ID (e.g., "asm-1a2b3c4d").
const IDLength = 12 // "asm-" (4) + 8 hex chars

// MakeID derives the stable identifier for one occurrence. It hashes the
// file path, line number, and raw tag text so that re-scanning unchanged
// input always yields the same ID.
func MakeID(file string, line int, rawTag string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", file, line, rawTag)))
	return "asm-" + hex.EncodeToString(sum[:4])
}
