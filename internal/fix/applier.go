// Package fix stages or applies the defensive-code suggestions that
// verification produced. Applying is conservative: a suggestion replaces
// the exact source block the backend reviewed, and only when that block
// is still present verbatim. Every touched file is backed up first and
// restored on any mid-apply failure, so apply is all-or-nothing per file.
package fix

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/josephgoksu/VeriWing/internal/assume"
)

// Mode selects what happens to fix suggestions.
type Mode string

const (
	// ModeNone reports only; suggestions stay in the report.
	ModeNone Mode = "none"
	// ModeReview writes suggestions to the staging area without touching
	// tracked files.
	ModeReview Mode = "review"
	// ModeAuto applies STANDARD/EDGE suggestions above the confidence
	// threshold directly; CRITICAL suggestions are always staged.
	ModeAuto Mode = "auto"
)

// ValidateMode checks an --apply-fixes value.
func ValidateMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeReview, ModeAuto:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unsupported fix mode: %s", s)
	}
}

// ActionKind describes what happened to one suggestion.
type ActionKind string

const (
	ActionStaged  ActionKind = "staged"
	ActionApplied ActionKind = "applied"
	ActionSkipped ActionKind = "skipped"
	ActionFailed  ActionKind = "failed"
)

// Action records the outcome for one fix suggestion.
type Action struct {
	AssumptionID string
	File         string
	Kind         ActionKind
	PatchPath    string
	BackupPath   string
	Reason       string
}

// Applier stages and applies fixes on an afero filesystem.
type Applier struct {
	fs         afero.Fs
	stagingDir string
	backupsDir string
	threshold  float64
	logger     *slog.Logger
}

// NewApplier creates an applier. Threshold gates auto-apply confidence.
func NewApplier(fs afero.Fs, stagingDir, backupsDir string, threshold float64, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{fs: fs, stagingDir: stagingDir, backupsDir: backupsDir, threshold: threshold, logger: logger}
}

// Process handles every result that carries a fix suggestion. In auto
// mode, fixes for the same file are applied together so the file is
// written exactly once.
func (ap *Applier) Process(mode Mode, results []assume.Result, index map[string]assume.Assumption) ([]Action, error) {
	if mode == ModeNone {
		return nil, nil
	}

	var toStage []assume.Result
	byFile := make(map[string][]assume.Result)
	for _, r := range results {
		if r.FixSuggestion == "" {
			continue
		}
		a, ok := index[r.AssumptionID]
		if !ok {
			continue
		}
		switch {
		case mode == ModeReview:
			toStage = append(toStage, r)
		case a.Tier == assume.TierCritical:
			// Never auto-applied, always routed to review.
			toStage = append(toStage, r)
		case r.Confidence < ap.threshold:
			toStage = append(toStage, r)
		default:
			byFile[a.Location.File] = append(byFile[a.Location.File], r)
		}
	}

	var actions []Action
	for _, r := range toStage {
		actions = append(actions, ap.stage(r, index[r.AssumptionID]))
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		actions = append(actions, ap.applyFile(f, byFile[f], index)...)
	}
	return actions, nil
}

// stage writes one suggestion to the staging area.
func (ap *Applier) stage(r assume.Result, a assume.Assumption) Action {
	if err := ap.fs.MkdirAll(ap.stagingDir, 0o755); err != nil {
		return Action{AssumptionID: r.AssumptionID, File: a.Location.File, Kind: ActionFailed, Reason: err.Error()}
	}
	path := filepath.Join(ap.stagingDir, r.AssumptionID+".patch")

	var b strings.Builder
	fmt.Fprintf(&b, "# Suggested fix for %s\n", r.AssumptionID)
	fmt.Fprintf(&b, "# File: %s:%d\n", a.Location.File, a.Location.Line)
	fmt.Fprintf(&b, "# Statement: %s\n", a.Statement)
	fmt.Fprintf(&b, "# Backend: %s, confidence %.2f\n\n", r.BackendID, r.Confidence)
	b.WriteString(r.FixSuggestion)
	b.WriteString("\n")

	if err := afero.WriteFile(ap.fs, path, []byte(b.String()), 0o644); err != nil {
		return Action{AssumptionID: r.AssumptionID, File: a.Location.File, Kind: ActionFailed, Reason: err.Error()}
	}
	return Action{AssumptionID: r.AssumptionID, File: a.Location.File, Kind: ActionStaged, PatchPath: path}
}

// applyFile applies all fixes for one file, or none of them.
func (ap *Applier) applyFile(file string, fixes []assume.Result, index map[string]assume.Assumption) []Action {
	fail := func(reason string) []Action {
		out := make([]Action, 0, len(fixes))
		for _, r := range fixes {
			out = append(out, Action{AssumptionID: r.AssumptionID, File: file, Kind: ActionFailed, Reason: reason})
		}
		return out
	}

	original, err := afero.ReadFile(ap.fs, file)
	if err != nil {
		return fail(fmt.Sprintf("read target: %v", err))
	}

	// All replacements must match before anything is written.
	content := string(original)
	for _, r := range fixes {
		a := index[r.AssumptionID]
		if a.Snippet == "" || strings.Count(content, a.Snippet) != 1 {
			return fail("reviewed source block no longer matches the file")
		}
		content = strings.Replace(content, a.Snippet, r.FixSuggestion, 1)
	}

	backupPath, err := ap.backup(file, original)
	if err != nil {
		return fail(fmt.Sprintf("backup: %v", err))
	}

	if err := afero.WriteFile(ap.fs, file, []byte(content), 0o644); err != nil {
		// Mid-apply failure: put the original back from the backup.
		if restoreErr := ap.restore(file, backupPath); restoreErr != nil {
			ap.logger.Error("restore after failed apply", "file", file, "error", restoreErr)
		}
		return fail(fmt.Sprintf("write target: %v", err))
	}

	out := make([]Action, 0, len(fixes))
	for _, r := range fixes {
		out = append(out, Action{AssumptionID: r.AssumptionID, File: file, Kind: ActionApplied, BackupPath: backupPath})
	}
	return out
}

// backup copies the original content into the backups dir before any
// write. The backup name encodes the source path so Revert can find it.
func (ap *Applier) backup(file string, content []byte) (string, error) {
	if err := ap.fs.MkdirAll(ap.backupsDir, 0o755); err != nil {
		return "", err
	}
	name := strings.NewReplacer("/", "__", "\\", "__").Replace(file) + ".bak"
	path := filepath.Join(ap.backupsDir, name)
	if err := afero.WriteFile(ap.fs, path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// restore writes the backed-up content over the target file.
func (ap *Applier) restore(file, backupPath string) error {
	content, err := afero.ReadFile(ap.fs, backupPath)
	if err != nil {
		return err
	}
	return afero.WriteFile(ap.fs, file, content, 0o644)
}

// Revert restores a file from its backup, undoing an applied fix.
func (ap *Applier) Revert(file string) error {
	name := strings.NewReplacer("/", "__", "\\", "__").Replace(file) + ".bak"
	return ap.restore(file, filepath.Join(ap.backupsDir, name))
}
