package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/jobrake/internal/model"
	"github.com/amishk599/jobrake/internal/service"
)

type mockGenerator struct {
	response string
	err      error
	prompts  []string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

type fakeCatalog struct {
	jobs []model.Posting
}

func (f fakeCatalog) List(context.Context) (service.Listing, error) {
	return service.Listing{Jobs: f.jobs, Count: len(f.jobs)}, nil
}

func (f fakeCatalog) GetByID(_ context.Context, id int64) (model.Posting, error) {
	for _, p := range f.jobs {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Posting{}, model.ErrNotFound
}

func newTestAnalyst(gen model.Generator, jobs ...model.Posting) *Analyst {
	return NewAnalyst(gen, fakeCatalog{jobs: jobs}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func job(id int64, title, company, location string) model.Posting {
	return model.Posting{
		ID: id, Title: title, Company: company, Location: location,
		Description: "Build pipelines in " + title, URL: "https://example.com", Source: model.SourceIndeed,
		DatePosted: "2026-05-01",
	}
}

func TestAnalyzeJob(t *testing.T) {
	gen := &mockGenerator{response: `{"skills":["sql"]}`}
	a := newTestAnalyst(gen, job(1, "Data Engineer", "Acme", "Remote"))

	got, err := a.AnalyzeJob(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"skills":["sql"]}` {
		t.Errorf("got %q", got)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(gen.prompts))
	}
	p := gen.prompts[0]
	for _, want := range []string{"Build pipelines in Data Engineer", "Experience level", "JSON format"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestAnalyzeJob_NotFoundSkipsModel(t *testing.T) {
	gen := &mockGenerator{}
	a := newTestAnalyst(gen)

	_, err := a.AnalyzeJob(context.Background(), 99)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Error("model should not be called for an unknown posting")
	}
}

func TestSummarizeJob(t *testing.T) {
	gen := &mockGenerator{response: "- one"}
	a := newTestAnalyst(gen, job(2, "Analyst", "Globex", "Austin"))

	if _, err := a.SummarizeJob(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.prompts[0], "in 5 bullet points") {
		t.Errorf("expected five bullets in prompt:\n%s", gen.prompts[0])
	}
}

func TestMarketInsights_SamplesDistinctValues(t *testing.T) {
	var jobs []model.Posting
	for i := range 40 {
		jobs = append(jobs, job(int64(i+1), fmt.Sprintf("Title %d", i), "Acme", fmt.Sprintf("City %d", i%3)))
	}
	gen := &mockGenerator{response: "- insight"}
	a := newTestAnalyst(gen, jobs...)

	if _, err := a.MarketInsights(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := gen.prompts[0]
	if !strings.Contains(p, "Title 29") || strings.Contains(p, "Title 30") {
		t.Errorf("expected first 30 titles only:\n%s", p)
	}
	if !strings.Contains(p, "Companies: Acme\n") {
		t.Errorf("expected companies deduplicated:\n%s", p)
	}
	if !strings.Contains(p, "Locations: City 0, City 1, City 2\n") {
		t.Errorf("expected locations deduplicated in first-seen order:\n%s", p)
	}
	if !strings.Contains(p, "Total Jobs: 40") {
		t.Errorf("expected total count:\n%s", p)
	}
}

func TestMarketInsights_EmptyStore(t *testing.T) {
	gen := &mockGenerator{}
	a := newTestAnalyst(gen)

	got, err := a.MarketInsights(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != NoDataMessage {
		t.Errorf("got %q", got)
	}
	if len(gen.prompts) != 0 {
		t.Error("model should not be called on an empty store")
	}
}

func TestRecommend_LimitsPool(t *testing.T) {
	var jobs []model.Posting
	for i := range 25 {
		jobs = append(jobs, job(int64(i+1), fmt.Sprintf("Role %d", i+1), "Acme", "Remote"))
	}
	gen := &mockGenerator{response: "[]"}
	a := newTestAnalyst(gen, jobs...)

	if _, err := a.Recommend(context.Background(), "Go, SQL", "3 years"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := gen.prompts[0]
	if !strings.Contains(p, "Job 20:") || strings.Contains(p, "Job 21:") {
		t.Errorf("expected the first 20 postings only:\n%s", p)
	}
	if !strings.Contains(p, "Skills: Go, SQL") || !strings.Contains(p, "top 5") {
		t.Errorf("expected profile and result count in prompt:\n%s", p)
	}
}

func TestRun_GeneratorErrorWrapped(t *testing.T) {
	gen := &mockGenerator{err: model.ErrAIDisabled}
	a := newTestAnalyst(gen, job(1, "x", "y", "z"))

	_, err := a.SummarizeJob(context.Background(), 1)
	if !errors.Is(err, model.ErrAIDisabled) {
		t.Errorf("expected ErrAIDisabled, got %v", err)
	}
}
