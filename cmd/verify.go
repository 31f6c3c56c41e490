/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/VeriWing/internal/app"
	"github.com/josephgoksu/VeriWing/internal/backend"
	"github.com/josephgoksu/VeriWing/internal/fix"
	"github.com/josephgoksu/VeriWing/internal/git"
	"github.com/josephgoksu/VeriWing/internal/telemetry"
	"github.com/josephgoksu/VeriWing/internal/ui"
	"github.com/josephgoksu/VeriWing/types"
)

// Exit codes for CI gating.
const (
	exitOK       = 0
	exitBlocking = 1
	exitFailure  = 2
)

var (
	verifyStrategy string
	verifyBudget   string
	verifyScope    string
	verifyFile     string
	verifyFixes    string
	verifyOutput   string
	verifyExplain  bool
	verifyTimeout  int
	verifyWatch    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Scan for tagged assumptions and verify them with AI backends",
	Long: `Verify scans the selected scope for assumption tags, classifies each
by risk tier, routes it to an analysis backend under the budget policy,
dispatches verification concurrently, and writes a ranked Markdown report.

Exit codes: 0 = no blocking issues, 1 = blocking CRITICAL issues found,
2 = run-level failure (unreadable source tree, no backends available).`,
	Run: func(cmd *cobra.Command, args []string) {
		code := runVerify(cmd.Context())
		if verifyWatch && code != exitFailure {
			watchAndRerun(cmd.Context())
			return
		}
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyStrategy, "strategy", "", "routing strategy: tiered|uniform|critical-only")
	verifyCmd.Flags().StringVar(&verifyBudget, "budget", "", "budget policy: premium|balanced|free-only")
	verifyCmd.Flags().StringVar(&verifyScope, "scope", "", "scan scope: current-file|changed-files|all-files")
	verifyCmd.Flags().StringVar(&verifyFile, "file", "", "target file for current-file scope")
	verifyCmd.Flags().StringVar(&verifyFixes, "apply-fixes", "", "fix handling: auto|review|none")
	verifyCmd.Flags().StringVar(&verifyOutput, "output", "", "report artifact path (overrides config)")
	verifyCmd.Flags().BoolVar(&verifyExplain, "explain", false, "show routing reasoning per assumption")
	verifyCmd.Flags().IntVar(&verifyTimeout, "timeout", 0, "global run deadline in seconds (0 = none)")
	verifyCmd.Flags().BoolVar(&verifyWatch, "watch", false, "re-run verification when source files change")
}

// runVerify executes one run and returns the process exit code.
func runVerify(ctx context.Context) int {
	cfg := GetConfig()
	opts := mergeOptions(cfg)

	runID := uuid.NewString()
	tel := telemetry.NewClient(telemetry.Config{
		APIKey:      os.Getenv("VERIWING_POSTHOG_KEY"),
		Version:     version,
		AnonymousID: cfg.Telemetry.AnonymousID,
		Enabled:     cfg.Telemetry.Enabled,
	})
	defer func() { _ = tel.Close() }()

	if verifyTimeout > 0 {
		cfg.Dispatch.RunTimeoutSeconds = verifyTimeout
	}

	fs := afero.NewOsFs()
	baseDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.StyleError.Render("error:"), err)
		return exitFailure
	}

	var changed app.ChangedLister
	if gc := git.NewClient(baseDir); gc.IsRepository() {
		changed = gc
	}

	history := openHistory(cfg)
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	verifier := app.NewVerifier(cfg, fs, baseDir, app.LiveBackendFactory(cfg), changed, history, slog.Default())

	spin := ui.NewSpinner("scanning sources...")
	opts.Progress = spin.SetSuffix
	spin.Start()
	result, err := verifier.Run(ctx, opts)
	spin.Stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, ui.StyleError.Render("verification failed:"), err)
		tel.Track(telemetry.EventCommandError, telemetry.Properties{"command": "verify"})
		return exitFailure
	}

	printSummary(result, runID)
	tel.Track(telemetry.EventVerifyRun, telemetry.Properties{
		"run_id":      runID,
		"strategy":    opts.Strategy,
		"budget":      opts.Budget,
		"scope":       opts.Scope,
		"assumptions": result.Summary.TotalAssumptions,
		"blocking":    result.BlockingCount,
		"incomplete":  result.Incomplete,
	})

	if result.BlockingCount > 0 {
		tel.Track(telemetry.EventVerifyBlocking, telemetry.Properties{"run_id": runID, "count": result.BlockingCount})
		return exitBlocking
	}
	return exitOK
}

func mergeOptions(cfg *types.AppConfig) app.VerifyOptions {
	opts := app.VerifyOptions{
		Strategy:   cfg.Verify.Strategy,
		Budget:     cfg.Verify.Budget,
		Scope:      cfg.Verify.Scope,
		FixMode:    cfg.Fixes.Mode,
		File:       verifyFile,
		Explain:    verifyExplain,
		ReportPath: verifyOutput,
	}
	if verifyStrategy != "" {
		opts.Strategy = verifyStrategy
	}
	if verifyBudget != "" {
		opts.Budget = verifyBudget
	}
	if verifyScope != "" {
		opts.Scope = verifyScope
	}
	if verifyFixes != "" {
		opts.FixMode = verifyFixes
	}
	return opts
}

func openHistory(cfg *types.AppConfig) *backend.LatencyHistory {
	path := filepath.Join(cfg.Project.RootDir, cfg.Project.HistoryFile)
	if err := os.MkdirAll(cfg.Project.RootDir, 0o755); err != nil {
		slog.Debug("history dir unavailable", "error", err)
		return nil
	}
	h, err := backend.OpenLatencyHistory(path)
	if err != nil {
		slog.Debug("latency history unavailable", "error", err)
		return nil
	}
	return h
}

// printSummary writes the one-line result plus the report location.
func printSummary(result *app.VerifyResult, runID string) {
	status := ui.StyleSuccess.Render("no blocking issues")
	if result.BlockingCount > 0 {
		status = ui.StyleError.Render(fmt.Sprintf("%d blocking issue(s)", result.BlockingCount))
	}
	incomplete := ""
	if errors.Is(result.RunErr, types.ErrRunDeadline) {
		incomplete = ui.StyleWarning.Render(" [INCOMPLETE]")
	}
	fmt.Printf("%s %d assumption(s), %s%s — run %s\n",
		ui.StyleTitle.Render("veriwing:"),
		result.Summary.TotalAssumptions, status, incomplete, ui.TruncateID(runID))
	if len(result.Warnings) > 0 {
		fmt.Printf("%s %d malformed tag(s) skipped\n", ui.StyleWarning.Render("warnings:"), len(result.Warnings))
	}
	for _, act := range result.FixActions {
		switch act.Kind {
		case fix.ActionApplied:
			fmt.Printf("%s %s (backup: %s)\n", ui.StyleSuccess.Render("fix applied:"), act.File, act.BackupPath)
		case fix.ActionStaged:
			fmt.Printf("%s %s\n", ui.StyleText.Render("fix staged:"), act.PatchPath)
		}
	}
	fmt.Printf("report: %s\n", result.ReportPath)
}

// watchAndRerun re-executes verification whenever source files change.
func watchAndRerun(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.StyleError.Render("watch failed:"), err)
		os.Exit(exitFailure)
	}
	defer func() { _ = watcher.Close() }()

	baseDir, _ := os.Getwd()
	_ = filepath.WalkDir(baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == ".veriwing" || name == "node_modules" || name == "vendor" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})

	fmt.Println(ui.StyleSubtle.Render("watching for changes (ctrl-c to stop)..."))

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				fmt.Println(ui.StyleSubtle.Render("change detected: " + event.Name))
				runVerify(ctx)
			})
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "error", watchErr)
		}
	}
}
