// Package dispatch executes verification requests against their selected
// backends with bounded concurrency, per-request deadlines, single
// retries, and strict failure isolation: one request's failure never
// blocks or cancels a sibling, and every started request ends in exactly
// one terminal result.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/josephgoksu/VeriWing/internal/assume"
	"github.com/josephgoksu/VeriWing/internal/backend"
)

// Task pairs one assumption-bound request with its selected backend.
type Task struct {
	Request assume.Request
	Backend backend.Backend
}

// LatencyRecorder receives observed call latencies. Implemented by
// backend.LatencyHistory; nil disables recording.
type LatencyRecorder interface {
	Record(backendID string, latency time.Duration) error
}

// Options configures one dispatcher run.
type Options struct {
	GlobalConcurrency int
	RequestTimeout    time.Duration
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	Recorder          LatencyRecorder
	Logger            *slog.Logger
}

func (o *Options) setDefaults() {
	if o.GlobalConcurrency <= 0 {
		o.GlobalConcurrency = 8
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 2 * time.Second
	}
	if o.RetryMaxDelay <= 0 {
		o.RetryMaxDelay = 8 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Output is everything one dispatcher run produced.
type Output struct {
	Results []assume.Result
	// Skipped lists assumption IDs never started because the global run
	// deadline expired first. They have no result and stay UNVERIFIED.
	Skipped []string
	// Incomplete is set when the run deadline cut the run short.
	Incomplete bool
}

// Run executes all tasks. Tasks are started strictly in tier order
// (CRITICAL first), so critical work is never starved by volume; once
// started, requests complete independently and may interleave. The
// context carries the global run deadline: after it expires no new
// request starts, but in-flight requests are allowed to finish or time
// out on their own per-request deadlines.
func Run(ctx context.Context, tasks []Task, opts Options) Output {
	opts.setDefaults()

	ordered := make([]Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return assume.TierOrder(ordered[i].Request.Tier) < assume.TierOrder(ordered[j].Request.Tier)
	})

	var (
		mu      sync.Mutex
		out     Output
		wg      sync.WaitGroup
		global  = semaphore.NewWeighted(int64(opts.GlobalConcurrency))
		perBack = make(map[string]chan struct{})
	)

	for _, t := range ordered {
		id := t.Backend.Descriptor().ID
		if _, ok := perBack[id]; !ok {
			perBack[id] = make(chan struct{}, t.Backend.Descriptor().MaxConcurrency)
		}
	}

	// In-flight work must survive run-deadline expiry, so request
	// contexts derive from a non-cancelable parent.
	detached := context.WithoutCancel(ctx)

	for _, t := range ordered {
		if ctx.Err() != nil {
			mu.Lock()
			out.Skipped = append(out.Skipped, t.Request.AssumptionID)
			out.Incomplete = true
			mu.Unlock()
			continue
		}

		// Acquiring under ctx keeps the start gate responsive to the
		// run deadline while preserving tier-ordered starts.
		if err := global.Acquire(ctx, 1); err != nil {
			mu.Lock()
			out.Skipped = append(out.Skipped, t.Request.AssumptionID)
			out.Incomplete = true
			mu.Unlock()
			continue
		}
		slot := perBack[t.Backend.Descriptor().ID]
		select {
		case slot <- struct{}{}:
		case <-ctx.Done():
			global.Release(1)
			mu.Lock()
			out.Skipped = append(out.Skipped, t.Request.AssumptionID)
			out.Incomplete = true
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			defer global.Release(1)
			defer func() { <-slot }()

			res := execute(detached, task, opts)
			mu.Lock()
			out.Results = append(out.Results, res)
			mu.Unlock()
		}(t)
	}

	wg.Wait()
	return out
}

// execute runs one request to a terminal result, retrying once.
func execute(ctx context.Context, task Task, opts Options) assume.Result {
	desc := task.Backend.Descriptor()
	res := assume.Result{
		AssumptionID: task.Request.AssumptionID,
		BackendID:    desc.ID,
		Tier:         task.Request.Tier,
		FreeBackend:  desc.CostClass == backend.CostFree,
	}

	timeout := task.Request.Deadline
	if timeout <= 0 {
		timeout = opts.RequestTimeout
	}

	var verdict backend.Verdict
	var err error
	var elapsed time.Duration

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff(opts.RetryBaseDelay, opts.RetryMaxDelay, attempt))
			opts.Logger.Debug("retrying verification request",
				"assumption", task.Request.AssumptionID, "backend", desc.ID)
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		verdict, err = task.Backend.Call(callCtx, task.Request.Context)
		elapsed = time.Since(start)
		cancel()

		if err == nil {
			break
		}
	}

	res.Latency = elapsed
	if opts.Recorder != nil && err == nil {
		if recErr := opts.Recorder.Record(desc.ID, elapsed); recErr != nil {
			opts.Logger.Debug("latency record failed", "backend", desc.ID, "error", recErr)
		}
	}

	if err != nil {
		res.Err = err.Error()
		if isTimeout(err) {
			res.Outcome = assume.OutcomeTimeout
		} else {
			res.Outcome = assume.OutcomeError
		}
		opts.Logger.Warn("verification request failed",
			"assumption", task.Request.AssumptionID, "backend", desc.ID,
			"outcome", res.Outcome, "error", err)
		return res
	}

	res.Outcome = verdict.Outcome
	res.Finding = verdict.Finding
	res.FixSuggestion = verdict.FixSuggestion
	res.Confidence = verdict.Confidence
	res.CostUnits = verdict.CostUnits
	return res
}

// backoff doubles the base delay per attempt, capped.
func backoff(base, limit time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > limit {
		return limit
	}
	return d
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
