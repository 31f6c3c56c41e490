/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/

// Package app wires the verification pipeline end to end: scan,
// classify, route, dispatch, aggregate, report, and optionally fix.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/josephgoksu/VeriWing/internal/aggregate"
	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/internal/backend"
	"github.com/josephgoksu/VeriWing/internal/classify"
	"github.com/josephgoksu/VeriWing/internal/config"
	"github.com/josephgoksu/VeriWing/internal/dispatch"
	"github.com/josephgoksu/VeriWing/internal/fix"
	"github.com/josephgoksu/VeriWing/internal/report"
	"github.com/josephgoksu/VeriWing/internal/route"
	"github.com/josephgoksu/VeriWing/internal/scan"
	"github.com/josephgoksu/VeriWing/types"
)

// Scope names accepted by --scope.
const (
	ScopeCurrentFile  = "current-file"
	ScopeChangedFiles = "changed-files"
	ScopeAllFiles     = "all-files"
)

// ChangedLister supplies paths for the changed-files scope.
type ChangedLister interface {
	ChangedFiles() ([]string, error)
}

// BackendFactory turns a descriptor into a callable backend.
type BackendFactory func(ctx context.Context, desc backend.Descriptor) (backend.Backend, error)

// VerifyOptions are the per-invocation knobs, already merged with config
// defaults by the CLI layer.
type VerifyOptions struct {
	Strategy string
	Budget   string
	Scope    string
	FixMode  string
	// File is the target for the current-file scope.
	File string
	// Explain attaches routing traces to results and the report.
	Explain bool
	// ReportPath overrides the configured artifact location when set.
	ReportPath string
	// Progress receives phase updates during the run; nil disables. The
	// CLI feeds these to its spinner.
	Progress func(msg string)
}

func (o VerifyOptions) progress(msg string) {
	if o.Progress != nil {
		o.Progress(msg)
	}
}

// VerifyResult is what one run produced.
type VerifyResult struct {
	ReportPath    string
	Report        string
	BlockingCount int
	Incomplete    bool
	// RunErr is types.ErrRunDeadline when the global deadline cut the
	// run short. The partial report and exit code are still valid.
	RunErr      error
	Summary     aggregate.Summary
	Warnings    []types.ScanWarning
	FixActions  []fix.Action
	Assumptions []assume.Assumption
}

// Verifier runs the pipeline. All collaborators are injectable so tests
// can run fully in memory with fake backends.
type Verifier struct {
	cfg     *types.AppConfig
	fs      afero.Fs
	baseDir string
	paths   config.ProjectPaths
	factory BackendFactory
	git     ChangedLister
	history *backend.LatencyHistory
	logger  *slog.Logger
}

// NewVerifier builds a verifier over the real or a test filesystem.
func NewVerifier(cfg *types.AppConfig, fs afero.Fs, baseDir string, factory BackendFactory, git ChangedLister, history *backend.LatencyHistory, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	paths := config.ResolveProjectPaths(cfg.Project.RootDir, cfg.Project.ReportPath,
		cfg.Project.StagingDir, cfg.Project.BackupsDir, cfg.Project.HistoryFile)
	return &Verifier{
		cfg: cfg, fs: fs, baseDir: baseDir, paths: paths,
		factory: factory, git: git, history: history, logger: logger,
	}
}

// Run executes one full verification run.
func (v *Verifier) Run(ctx context.Context, opts VerifyOptions) (*VerifyResult, error) {
	// 1. Scan.
	scanRes, err := v.scanScope(opts)
	if err != nil {
		return nil, err
	}
	index := make(map[string]assume.Assumption, len(scanRes.Assumptions))
	for _, a := range scanRes.Assumptions {
		index[a.ID] = a
	}
	v.logger.Info("scan complete",
		"assumptions", len(scanRes.Assumptions), "warnings", len(scanRes.Warnings))

	// 2. Classify + route + dispatch, unless nothing was found.
	var (
		out       dispatch.Output
		decisions map[string]string
	)
	if len(scanRes.Assumptions) > 0 {
		opts.progress(fmt.Sprintf("routing %d assumption(s)...", len(scanRes.Assumptions)))
		tasks, dec, routeErr := v.routeAll(ctx, scanRes.Assumptions, opts)
		if routeErr != nil {
			return nil, routeErr
		}
		decisions = dec

		opts.progress(fmt.Sprintf("dispatching %d request(s)...", len(tasks)))

		runCtx := ctx
		if v.cfg.Dispatch.RunTimeoutSeconds > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, time.Duration(v.cfg.Dispatch.RunTimeoutSeconds)*time.Second)
			defer cancel()
		}
		out = dispatch.Run(runCtx, tasks, dispatch.Options{
			GlobalConcurrency: v.cfg.Dispatch.GlobalConcurrency,
			RequestTimeout:    time.Duration(v.cfg.Dispatch.RequestTimeoutSeconds) * time.Second,
			RetryBaseDelay:    time.Duration(v.cfg.Dispatch.RetryBaseDelayMs) * time.Millisecond,
			RetryMaxDelay:     time.Duration(v.cfg.Dispatch.RetryMaxDelayMs) * time.Millisecond,
			Recorder:          v.recorder(),
			Logger:            v.logger,
		})
		for i := range scanRes.Assumptions {
			applyOutcome(&scanRes.Assumptions[i], out.Results)
			index[scanRes.Assumptions[i].ID] = scanRes.Assumptions[i]
		}
	}

	// 3. Aggregate.
	agg := aggregate.Build(out.Results, index)

	// 4. Fixes.
	mode, err := fix.ValidateMode(opts.FixMode)
	if err != nil {
		return nil, err
	}
	applier := fix.NewApplier(v.fs, v.paths.StagingDir, v.paths.BackupsDir,
		v.cfg.Fixes.AutoApplyThreshold, v.logger)
	actions, err := applier.Process(mode, out.Results, index)
	if err != nil {
		return nil, err
	}
	for _, act := range actions {
		if a, ok := index[act.AssumptionID]; ok {
			switch act.Kind {
			case fix.ActionStaged:
				a.Status = assume.StatusFixStaged
			case fix.ActionApplied:
				a.Status = assume.StatusFixApplied
			}
			index[act.AssumptionID] = a
		}
	}

	// 5. Report.
	reportPath := opts.ReportPath
	if reportPath == "" {
		reportPath = v.paths.ReportPath
	}
	params := report.Params{
		Strategy:   opts.Strategy,
		Budget:     opts.Budget,
		Scope:      opts.Scope,
		Incomplete: out.Incomplete,
		Warnings:   scanRes.Warnings,
		SkippedIDs: out.Skipped,
		Aggregate:  agg,
		Index:      index,
	}
	if opts.Explain {
		params.Decisions = decisions
	}
	if err := report.WriteFile(v.fs, reportPath, params); err != nil {
		return nil, err
	}

	assumptions := make([]assume.Assumption, 0, len(index))
	for _, a := range scanRes.Assumptions {
		assumptions = append(assumptions, index[a.ID])
	}

	var runErr error
	if out.Incomplete {
		runErr = types.ErrRunDeadline
		v.logger.Warn("run deadline expired before all requests started",
			"skipped", len(out.Skipped))
	}

	return &VerifyResult{
		ReportPath:    reportPath,
		Report:        report.Render(params),
		BlockingCount: agg.Summary.BlockingCount,
		Incomplete:    out.Incomplete,
		RunErr:        runErr,
		Summary:       agg.Summary,
		Warnings:      scanRes.Warnings,
		FixActions:    actions,
		Assumptions:   assumptions,
	}, nil
}

// scanScope resolves which files the scope covers and scans them.
func (v *Verifier) scanScope(opts VerifyOptions) (scan.Result, error) {
	tree := scan.NewSourceTree(v.fs, v.baseDir)

	var paths []string
	switch opts.Scope {
	case ScopeCurrentFile:
		if opts.File == "" {
			return scan.Result{}, fmt.Errorf("%w: current-file scope requires --file", types.ErrFatalScan)
		}
		paths = []string{opts.File}
	case ScopeChangedFiles:
		if v.git == nil {
			return scan.Result{}, fmt.Errorf("%w: changed-files scope requires a git repository", types.ErrFatalScan)
		}
		changed, err := v.git.ChangedFiles()
		if err != nil {
			return scan.Result{}, fmt.Errorf("%w: %v", types.ErrFatalScan, err)
		}
		paths = filterByPatterns(changed, v.filePatterns())
	case ScopeAllFiles:
		var err error
		paths, err = tree.Files(v.filePatterns())
		if err != nil {
			return scan.Result{}, err
		}
	default:
		return scan.Result{}, fmt.Errorf("unsupported scope: %s", opts.Scope)
	}

	if len(paths) == 0 {
		return scan.Result{}, nil
	}
	contents, err := tree.Read(paths)
	if err != nil {
		return scan.Result{}, err
	}
	return scan.Scan(contents), nil
}

// routeAll classifies every assumption and selects a backend for each
// one the strategy includes.
func (v *Verifier) routeAll(ctx context.Context, assumptions []assume.Assumption, opts VerifyOptions) ([]dispatch.Task, map[string]string, error) {
	budget, err := route.ValidateBudget(opts.Budget)
	if err != nil {
		return nil, nil, err
	}
	reg, err := backend.LoadRegistry(v.fs, v.backendsFilePath())
	if err != nil {
		return nil, nil, err
	}

	var latency map[string]time.Duration
	if v.history != nil {
		if snap, snapErr := v.history.Snapshot(); snapErr == nil {
			latency = snap
		} else {
			v.logger.Debug("latency snapshot unavailable", "error", snapErr)
		}
	}

	selector, err := route.NewSelector(opts.Strategy, reg, budget, latency)
	if err != nil {
		return nil, nil, err
	}

	classifier := classify.New(v.highRiskCategories())
	instances := make(map[string]backend.Backend)
	decisions := make(map[string]string, len(assumptions))
	var tasks []dispatch.Task

	for _, a := range assumptions {
		routingTier := classifier.Classify(a.Tier, a.Category)
		if !selector.Include(routingTier) {
			continue
		}

		decision, selErr := selector.Select(route.Input{
			AssumptionID: a.ID,
			Tier:         routingTier,
			Category:     a.Category,
		})
		if selErr != nil {
			return nil, nil, selErr
		}
		if decision.Fallback {
			v.logger.Warn("routing fallback", "assumption", a.ID, "backend", decision.Backend.ID)
		}
		decisions[a.ID] = decision.Reason
		if opts.Explain {
			v.logger.Info("routing decision", "assumption", a.ID,
				"backend", decision.Backend.ID, "reason", decision.Reason)
		}

		inst, ok := instances[decision.Backend.ID]
		if !ok {
			inst, err = v.factory(ctx, decision.Backend)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: backend %s: %v", types.ErrNoBackends, decision.Backend.ID, err)
			}
			instances[decision.Backend.ID] = inst
		}

		tasks = append(tasks, dispatch.Task{
			Request: assume.Request{
				AssumptionID: a.ID,
				BackendID:    decision.Backend.ID,
				Tier:         routingTier,
				Context: assume.PromptContext{
					Location:  a.Location,
					Statement: a.Statement,
					Category:  a.Category,
					Hint:      a.Hint,
					Snippet:   a.Snippet,
				},
				Decision: decision.Reason,
			},
			Backend: inst,
		})
	}
	return tasks, decisions, nil
}

func (v *Verifier) recorder() dispatch.LatencyRecorder {
	if v.history == nil {
		return nil
	}
	return v.history
}

func (v *Verifier) filePatterns() []string {
	if len(v.cfg.Verify.FilePatterns) > 0 {
		return v.cfg.Verify.FilePatterns
	}
	return config.DefaultFilePatterns
}

func (v *Verifier) highRiskCategories() []string {
	if len(v.cfg.Verify.HighRiskCategories) > 0 {
		return v.cfg.Verify.HighRiskCategories
	}
	return classify.DefaultHighRiskCategories
}

func (v *Verifier) backendsFilePath() string {
	if v.cfg.Project.BackendsFile == "" {
		return ""
	}
	if filepath.IsAbs(v.cfg.Project.BackendsFile) {
		return v.cfg.Project.BackendsFile
	}
	return filepath.Join(v.cfg.Project.RootDir, v.cfg.Project.BackendsFile)
}

func applyOutcome(a *assume.Assumption, results []assume.Result) {
	for _, r := range results {
		if r.AssumptionID == a.ID {
			a.Status = assume.StatusForOutcome(r.Outcome)
			return
		}
	}
}

func filterByPatterns(paths, patterns []string) []string {
	var out []string
	for _, p := range paths {
		if matchBase(p, patterns) {
			out = append(out, p)
		}
	}
	return out
}

func matchBase(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pat := range patterns {
		if ok, err := filepath.Match(pat, base); err == nil && ok {
			return true
		}
	}
	return false
}
