// Package ai builds prompts from stored postings and sends them to a text
// generator. Nothing in the scrape pipeline depends on this package.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amishk599/jobrake/internal/model"
	"github.com/amishk599/jobrake/internal/service"
)

const (
	summaryBullets     = 5
	recommendPool      = 20
	recommendResults   = 5
	insightsSampleSize = 30
)

// NoDataMessage is returned instead of calling the model when the store is empty.
const NoDataMessage = "No job data available for analysis."

// Catalog is the read side of the query façade.
type Catalog interface {
	List(ctx context.Context) (service.Listing, error)
	GetByID(ctx context.Context, id int64) (model.Posting, error)
}

// Analyst answers analysis questions about stored postings.
type Analyst struct {
	gen     model.Generator
	catalog Catalog
	logger  *slog.Logger
}

// NewAnalyst creates an Analyst. Pass a NopGenerator when AI is disabled.
func NewAnalyst(gen model.Generator, catalog Catalog, logger *slog.Logger) *Analyst {
	return &Analyst{gen: gen, catalog: catalog, logger: logger}
}

// AnalyzeJob extracts skills, experience level, education, responsibilities
// and benefits from one posting. The model is asked for JSON.
func (a *Analyst) AnalyzeJob(ctx context.Context, id int64) (string, error) {
	p, err := a.catalog.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return a.run(ctx, "analyze", analyzePrompt, p)
}

// SummarizeJob condenses one posting into a few bullet points.
func (a *Analyst) SummarizeJob(ctx context.Context, id int64) (string, error) {
	p, err := a.catalog.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return a.run(ctx, "summarize", summarizePrompt, struct {
		model.Posting
		Bullets int
	}{p, summaryBullets})
}

// MarketInsights samples titles, companies and locations across the store
// and asks for a handful of market observations.
func (a *Analyst) MarketInsights(ctx context.Context) (string, error) {
	listing, err := a.catalog.List(ctx)
	if err != nil {
		return "", err
	}
	if listing.Count == 0 {
		return NoDataMessage, nil
	}

	titles := make([]string, 0, insightsSampleSize)
	for _, p := range listing.Jobs {
		if len(titles) == insightsSampleSize {
			break
		}
		titles = append(titles, p.Title)
	}

	return a.run(ctx, "insights", insightsPrompt, struct {
		Titles, Companies, Locations []string
		Total                        int
	}{
		Titles:    titles,
		Companies: distinct(listing.Jobs, func(p model.Posting) string { return p.Company }, insightsSampleSize),
		Locations: distinct(listing.Jobs, func(p model.Posting) string { return p.Location }, insightsSampleSize),
		Total:     listing.Count,
	})
}

// Recommend ranks the most recent postings against a candidate profile.
func (a *Analyst) Recommend(ctx context.Context, skills, experience string) (string, error) {
	listing, err := a.catalog.List(ctx)
	if err != nil {
		return "", err
	}
	if listing.Count == 0 {
		return NoDataMessage, nil
	}

	jobs := listing.Jobs
	if len(jobs) > recommendPool {
		jobs = jobs[:recommendPool]
	}
	return a.run(ctx, "recommend", recommendPrompt, struct {
		Skills, Experience string
		MaxResults         int
		Jobs               []model.Posting
	}{skills, experience, recommendResults, jobs})
}

func (a *Analyst) run(ctx context.Context, task, tmpl string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", task, err)
	}

	start := time.Now()
	out, err := a.gen.Generate(ctx, buf.String())
	if err != nil {
		a.logger.Warn("generation failed", "task", task, "error", err)
		return "", fmt.Errorf("%s: %w", task, err)
	}
	a.logger.Debug("generation done", "task", task, "prompt_bytes", buf.Len(), "duration", time.Since(start))
	return out, nil
}

// distinct returns up to limit unique values of field in first-seen order.
func distinct(ps []model.Posting, field func(model.Posting) string, limit int) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, limit)
	for _, p := range ps {
		v := field(p)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
