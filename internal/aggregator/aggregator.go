// Package aggregator fans a search out to the selected source adapters and
// joins their normalized postings.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobrake/internal/metrics"
	"github.com/amishk599/jobrake/internal/model"
	"github.com/amishk599/jobrake/internal/normalize"
)

// DefaultFetchTimeout bounds one adapter invocation.
const DefaultFetchTimeout = 20 * time.Second

// Skip records a card that was dropped during extraction.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SourceReport summarizes one adapter's contribution to a run.
type SourceReport struct {
	Source     model.Source  `json:"source"`
	Candidates int           `json:"candidates"`
	Normalized int           `json:"normalized"`
	Skipped    []Skip        `json:"skipped,omitempty"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"duration"`
}

// Unavailable reports whether the source contributed nothing because the
// search itself failed.
func (r SourceReport) Unavailable() bool {
	return r.Err != nil
}

// Result is the joined output of one run. Postings are grouped by source in
// selection order, with each source's site order preserved.
type Result struct {
	RunID    string
	Postings []model.Posting
	Reports  []SourceReport
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFetchTimeout bounds each adapter call.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.fetchTimeout = d
		}
	}
}

// WithSequential runs adapters one after another instead of concurrently.
func WithSequential(seq bool) Option {
	return func(a *Aggregator) { a.sequential = seq }
}

// WithMetrics records per-source outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// Aggregator owns the registered adapters and the normalizer.
type Aggregator struct {
	adapters     map[model.Source]model.SourceAdapter
	normalizer   *normalize.Normalizer
	fetchTimeout time.Duration
	sequential   bool
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// New registers adapters by their source label. A later adapter with the
// same label replaces an earlier one.
func New(adapters []model.SourceAdapter, n *normalize.Normalizer, logger *slog.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		adapters:     make(map[model.Source]model.SourceAdapter, len(adapters)),
		normalizer:   n,
		fetchTimeout: DefaultFetchTimeout,
		logger:       logger,
	}
	for _, ad := range adapters {
		a.adapters[ad.Source()] = ad
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate invokes each selected, registered adapter exactly once and
// concatenates the normalized postings. A failing source contributes nothing
// and never fails the run.
func (a *Aggregator) Aggregate(ctx context.Context, q model.Query, selected []model.Source) Result {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)

	sources := a.plan(selected)
	reports := make([]SourceReport, len(sources))
	batches := make([][]model.Posting, len(sources))

	logger.Info("scrape started", "title", q.Title, "location", q.Location, "sources", len(sources))

	run := func(i int) {
		batches[i], reports[i] = a.runSource(ctx, logger, sources[i], q)
	}

	if a.sequential {
		for i := range sources {
			run(i)
		}
	} else {
		var g errgroup.Group
		for i := range sources {
			g.Go(func() error {
				run(i)
				return nil // best-effort: a failing source never cancels its siblings
			})
		}
		_ = g.Wait()
	}

	var total int
	for _, b := range batches {
		total += len(b)
	}
	postings := make([]model.Posting, 0, total)
	for _, b := range batches {
		postings = append(postings, b...)
	}

	logger.Info("scrape finished", "postings", len(postings))
	return Result{RunID: runID, Postings: postings, Reports: reports}
}

// plan keeps the registered sources from selected, once each, in order.
func (a *Aggregator) plan(selected []model.Source) []model.Source {
	out := make([]model.Source, 0, len(selected))
	seen := make(map[model.Source]bool, len(selected))
	for _, s := range selected {
		if _, ok := a.adapters[s]; !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func (a *Aggregator) runSource(ctx context.Context, logger *slog.Logger, src model.Source, q model.Query) (postings []model.Posting, report SourceReport) {
	report.Source = src
	logger = logger.With("source", string(src))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			postings = nil
			report = SourceReport{Source: src, Err: fmt.Errorf("adapter panic: %v", r)}
		}
		report.Duration = time.Since(start)
		if report.Err != nil {
			logger.Warn("source unavailable", "error", report.Err, "duration", report.Duration)
			a.metrics.ObserveSourceFetch(src.Key(), metrics.OutcomeUnavailable, report.Duration)
			return
		}
		a.metrics.ObserveSourceFetch(src.Key(), metrics.OutcomeOK, report.Duration)
		a.metrics.ObserveSourceItems(src.Key(), report.Normalized, len(report.Skipped))
		logger.Info("source done",
			"candidates", report.Candidates,
			"normalized", report.Normalized,
			"skipped", len(report.Skipped),
			"duration", report.Duration,
		)
	}()

	fctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
	defer cancel()

	items, err := a.adapters[src].Search(fctx, q)
	if err != nil {
		report.Err = err
		return nil, report
	}

	report.Candidates = len(items)
	postings = make([]model.Posting, 0, len(items))
	for _, it := range items {
		if it.Err != nil {
			report.Skipped = append(report.Skipped, Skip{Index: it.Index, Reason: it.Err.Error()})
			logger.Debug("card skipped", "index", it.Index, "reason", it.Err)
			continue
		}
		postings = append(postings, a.normalizer.Normalize(it.Raw, src))
	}
	report.Normalized = len(postings)
	return postings, report
}
