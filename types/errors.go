/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import (
	"errors"
	"fmt"
)

// Run-level failures. Anything wrapped in one of these aborts the run and
// maps to exit code 2; per-assumption failures never do.
var (
	// ErrFatalScan means the source tree itself could not be read.
	ErrFatalScan = errors.New("source tree unreadable")
	// ErrNoBackends means the registry resolved to zero usable backends.
	ErrNoBackends = errors.New("no backends available")
	// ErrRunDeadline marks a run cut short by the global deadline. The
	// partial report is still valid and flagged INCOMPLETE.
	ErrRunDeadline = errors.New("run deadline exceeded")
)

// ScanWarning records a malformed tag that was skipped during scanning.
type ScanWarning struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (w ScanWarning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Reason)
}
