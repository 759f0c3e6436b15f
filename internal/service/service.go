// Package service is the query façade: the only surface callers use to
// trigger scrapes and read stored postings.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobrake/internal/aggregator"
	"github.com/amishk599/jobrake/internal/metrics"
	"github.com/amishk599/jobrake/internal/model"
)

// persistTimeout bounds the append and the listing that follow a scrape.
const persistTimeout = 10 * time.Second

// ScrapeRequest asks for one scrape. A nil Sources selects the default
// sources; an empty non-nil slice selects none.
type ScrapeRequest struct {
	Title    string
	Location string
	Sources  []string
}

// Listing is the full store contents. Count always equals len(Jobs).
type Listing struct {
	Jobs  []model.Posting `json:"jobs"`
	Count int             `json:"count"`
}

func newListing(ps []model.Posting) Listing {
	if ps == nil {
		ps = []model.Posting{}
	}
	return Listing{Jobs: ps, Count: len(ps)}
}

// ScrapeResult is a listing plus the per-source outcome of the run that
// produced it.
type ScrapeResult struct {
	Listing
	RunID   string                    `json:"run_id"`
	Added   int                       `json:"added"`
	Reports []aggregator.SourceReport `json:"-"`
}

// JobService ties the aggregator to a store.
type JobService struct {
	agg            *aggregator.Aggregator
	store          model.PostingStore
	defaultSources []model.Source
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// New builds the façade. An empty defaultSources means every source.
func New(agg *aggregator.Aggregator, store model.PostingStore, defaultSources []model.Source, m *metrics.Metrics, logger *slog.Logger) *JobService {
	if len(defaultSources) == 0 {
		defaultSources = model.AllSources
	}
	return &JobService{
		agg:            agg,
		store:          store,
		defaultSources: defaultSources,
		metrics:        m,
		logger:         logger,
	}
}

// ScrapeAndList runs the selected adapters, appends what they found in one
// batch, and returns the whole store. Source failures are absorbed; a store
// failure fails the call.
func (s *JobService) ScrapeAndList(ctx context.Context, req ScrapeRequest) (ScrapeResult, error) {
	sources := s.defaultSources
	if req.Sources != nil {
		sources = model.ParseSources(req.Sources)
	}

	res := s.agg.Aggregate(ctx, model.Query{Title: req.Title, Location: req.Location}, sources)

	// Slow sources may have spent the caller's deadline; what the others
	// fetched is still written and listed within persistTimeout.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	stored, err := s.store.Append(wctx, res.Postings)
	s.metrics.ObserveAppend(len(stored), err)
	if err != nil {
		s.logger.Error("append failed", "run_id", res.RunID, "postings", len(res.Postings), "error", err)
		return ScrapeResult{}, fmt.Errorf("storing scraped postings: %w", err)
	}

	all, err := s.store.ListAll(wctx)
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("listing postings: %w", err)
	}

	s.logger.Info("scrape stored", "run_id", res.RunID, "added", len(stored), "total", len(all))
	return ScrapeResult{
		Listing: newListing(all),
		RunID:   res.RunID,
		Added:   len(stored),
		Reports: res.Reports,
	}, nil
}

// List returns the whole store without side effects.
func (s *JobService) List(ctx context.Context) (Listing, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("listing postings: %w", err)
	}
	return newListing(all), nil
}

// GetByID returns one posting; unknown ids yield model.ErrNotFound.
func (s *JobService) GetByID(ctx context.Context, id int64) (model.Posting, error) {
	return s.store.Get(ctx, id)
}
