// Package scheduler runs periodic device report collection. The watcher
// does NOT render anything itself; it invokes a callback with each report.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vitalis-app/deviceinfo"
	"github.com/vitalis-app/deviceinfo/internal/clock"
)

// DefaultTimeout bounds a single collection pass.
const DefaultTimeout = 10 * time.Second

// Source produces reports. *deviceinfo.SDK satisfies it.
type Source interface {
	CollectAll(ctx context.Context) *deviceinfo.Report
	ClearCache()
}

// Watcher collects a report every interval.
type Watcher struct {
	source   Source
	interval time.Duration
	clock    clock.Clock
	logger   *zap.Logger

	// Fresh clears the source's cache before every pass so each report
	// reflects the current device state.
	Fresh bool

	// Timeout bounds each pass. Zero means DefaultTimeout.
	Timeout time.Duration

	onReport func(*deviceinfo.Report)
}

// New creates a Watcher. A nil clock means the real clock.
func New(source Source, interval time.Duration, clk clock.Clock, logger *zap.Logger) *Watcher {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		source:   source,
		interval: interval,
		clock:    clk,
		logger:   logger,
	}
}

// OnReport sets the callback invoked after every pass.
func (w *Watcher) OnReport(fn func(*deviceinfo.Report)) {
	w.onReport = fn
}

// Start collects once immediately and then on every tick. It blocks until
// the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.collect(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Watcher stopped")
			return
		case <-ticker.C:
			w.collect(ctx)
		}
	}
}

// collect runs one pass with a timeout and hands the report to the callback.
func (w *Watcher) collect(ctx context.Context) {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	passCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if w.Fresh {
		w.source.ClearCache()
	}

	start := w.clock.Now()
	report := w.source.CollectAll(passCtx)
	w.logger.Debug("Collected report",
		zap.Time("generated_at", report.GeneratedAt()),
		zap.Int("categories", len(report.Categories())),
		zap.Duration("took", w.clock.Now().Sub(start)))

	if w.onReport != nil {
		w.onReport(report)
	}
}
