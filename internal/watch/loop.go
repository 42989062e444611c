// Package watch drives the orchestrator forever: one iteration runs Stage 1,
// conditionally Stage 2, then waits out the configured delay (or a filesystem
// event on the incoming folder, whichever comes first).
package watch

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/docmatch/internal/match"
)

// Passes is the slice of the orchestrator the loop drives.
type Passes interface {
	RunExtractionPass(ctx context.Context) (int, error)
	RunMatchingPass(ctx context.Context) (int, error)
}

type Config struct {
	Interval    time.Duration // delay between iterations
	IncomingDir string        // watched for early wakeups
	MatchFile   string        // reference table; gates Stage 2
	AllowedExts map[string]struct{}
	Debounce    time.Duration // coalesce rapid event bursts
}

type Loop struct {
	cfg  Config
	orch Passes
	log  *zap.SugaredLogger
}

func NewLoop(cfg Config, orch Passes, log *zap.SugaredLogger) *Loop {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	return &Loop{cfg: cfg, orch: orch, log: log}
}

// Run iterates until ctx is cancelled. The in-flight iteration always
// completes; cancellation is honored only at the iteration boundary, so no
// per-file transition is left half-done on shutdown.
func (l *Loop) Run(ctx context.Context) error {
	wake := l.startWatcher(ctx)

	for {
		l.iterate(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
			l.log.Info("shutdown requested, loop stopping")
			return nil
		case <-time.After(l.cfg.Interval):
		case <-wake:
			l.log.Debug("woken early by incoming file event")
		}
	}
}

// RunOnce performs a single iteration and reports both pass counts. Used by
// the batch entry point.
func (l *Loop) RunOnce(ctx context.Context) (extracted, matched int, err error) {
	extracted, err = l.orch.RunExtractionPass(ctx)
	if err != nil {
		return 0, 0, err
	}
	if extracted == 0 || !l.matchFileExists() {
		return extracted, 0, nil
	}
	matched, err = l.orch.RunMatchingPass(ctx)
	return extracted, matched, err
}

// iterate contains a full loop cycle. Errors and panics are absorbed here so
// a transient failure never terminates the process.
func (l *Loop) iterate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorw("iteration panic recovered", "panic", r)
		}
	}()

	extracted, err := l.orch.RunExtractionPass(ctx)
	if err != nil {
		l.log.Errorw("extraction pass failed", "error", err)
		return
	}
	if extracted == 0 {
		return
	}
	if !l.matchFileExists() {
		l.log.Debugw("no reference table, skipping matching pass", "path", l.cfg.MatchFile)
		return
	}

	matched, err := l.orch.RunMatchingPass(ctx)
	switch {
	case err != nil && match.IsMalformedTable(err):
		l.log.Warnw("reference table malformed, matching skipped this iteration", "error", err)
	case err != nil:
		l.log.Errorw("matching pass failed", "error", err)
	default:
		l.log.Infow("iteration complete", "extracted", extracted, "matched", matched)
	}
}

func (l *Loop) matchFileExists() bool {
	st, err := os.Stat(l.cfg.MatchFile)
	return err == nil && !st.IsDir()
}
