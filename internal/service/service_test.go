package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobrake/internal/adapter"
	"github.com/amishk599/jobrake/internal/aggregator"
	"github.com/amishk599/jobrake/internal/model"
	"github.com/amishk599/jobrake/internal/normalize"
	"github.com/amishk599/jobrake/internal/store"
)

const twoCardPage = `<html><body>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a class="jcs-JobTitle" href="/rc/clk?jk=1">Data Analyst</a></h2>
  <span class="companyName">Acme</span>
  <div class="companyLocation">Remote</div>
  <div class="job-snippet">Dashboards</div>
</div>
<div class="job_seen_beacon">
  <h2 class="jobTitle"><a class="jcs-JobTitle" href="/rc/clk?jk=2">Senior Data Analyst</a></h2>
  <div class="companyLocation">Remote</div>
</div>
</body></html>`

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type countingAdapter struct {
	source model.Source
	calls  atomic.Int32
	err    error
}

func (c *countingAdapter) Source() model.Source { return c.source }

func (c *countingAdapter) Search(context.Context, model.Query) ([]model.ItemResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []model.ItemResult{{Raw: model.RawItem{Title: string(c.source) + " job", Href: "https://example.com/" + c.source.Key()}}}, nil
}

// hangingAdapter blocks until its context is done.
type hangingAdapter struct {
	source model.Source
}

func (h hangingAdapter) Source() model.Source { return h.source }

func (h hangingAdapter) Search(ctx context.Context, _ model.Query) ([]model.ItemResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) Append(context.Context, []model.Posting) ([]model.Posting, error) {
	return nil, model.ErrPersistence
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clock(day int) func() time.Time {
	return func() time.Time { return time.Date(2026, 5, day, 10, 0, 0, 0, time.Local) }
}

func newService(t *testing.T, st model.PostingStore, now func() time.Time, adapters ...model.SourceAdapter) *JobService {
	t.Helper()
	agg := aggregator.New(adapters, normalize.New(now), discard())
	return New(agg, st, nil, nil, discard())
}

func TestScrapeAndList_IndeedScenario(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoCardPage))
	}))
	defer srv.Close()
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	_, err = st.Append(ctx, []model.Posting{{
		Title: "Old", Company: "Prior", Location: "Remote", Description: "N/A",
		URL: "https://example.com/old", Source: model.SourceLinkedIn, DatePosted: "2026-04-01",
	}})
	require.NoError(t, err)

	linkedin := &countingAdapter{source: model.SourceLinkedIn}
	svc := newService(t, st, clock(2), adapter.NewIndeedAdapter("", "", client), linkedin)

	res, err := svc.ScrapeAndList(ctx, ScrapeRequest{Title: "Data Analyst", Location: "Remote", Sources: []string{"indeed"}})
	require.NoError(t, err)

	assert.Equal(t, int32(0), linkedin.calls.Load())
	assert.Equal(t, 2, res.Added)
	require.Equal(t, 3, res.Count)
	require.Len(t, res.Jobs, res.Count)

	newest := res.Jobs[0]
	assert.Equal(t, "Senior Data Analyst", newest.Title)
	assert.Equal(t, model.Sentinel, newest.Company)
	assert.Equal(t, "https://www.indeed.com/rc/clk?jk=2", newest.URL)
	assert.Equal(t, "2026-05-02", newest.DatePosted)

	assert.Equal(t, "Data Analyst", res.Jobs[1].Title)
	assert.Equal(t, "Acme", res.Jobs[1].Company)
	assert.Equal(t, "Old", res.Jobs[2].Title)
}

func TestScrapeAndList_DefaultSourcesWhenUnspecified(t *testing.T) {
	adapters := []*countingAdapter{
		{source: model.SourceIndeed},
		{source: model.SourceLinkedIn},
		{source: model.SourceGlassdoor},
	}
	svc := newService(t, store.NewMemoryStore(), clock(1), adapters[0], adapters[1], adapters[2])

	res, err := svc.ScrapeAndList(context.Background(), ScrapeRequest{Title: "x", Location: "y"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	for _, a := range adapters {
		assert.Equal(t, int32(1), a.calls.Load(), "source %s", a.source)
	}
}

func TestScrapeAndList_EmptySelectionLeavesStoreUnchanged(t *testing.T) {
	st := store.NewMemoryStore()
	indeed := &countingAdapter{source: model.SourceIndeed}
	svc := newService(t, st, clock(1), indeed)
	ctx := context.Background()

	first, err := svc.ScrapeAndList(ctx, ScrapeRequest{Sources: []string{"indeed"}})
	require.NoError(t, err)

	second, err := svc.ScrapeAndList(ctx, ScrapeRequest{Sources: []string{}})
	require.NoError(t, err)
	assert.Equal(t, first.Count, second.Count)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, int32(1), indeed.calls.Load())
}

func TestScrapeAndList_UnknownLabelsIgnored(t *testing.T) {
	indeed := &countingAdapter{source: model.SourceIndeed}
	svc := newService(t, store.NewMemoryStore(), clock(1), indeed)

	res, err := svc.ScrapeAndList(context.Background(), ScrapeRequest{Sources: []string{"monster", "INDEED", "indeed"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, int32(1), indeed.calls.Load())
}

func TestScrapeAndList_OneSourceDown(t *testing.T) {
	indeed := &countingAdapter{source: model.SourceIndeed}
	linkedin := &countingAdapter{source: model.SourceLinkedIn, err: &model.HTTPError{StatusCode: http.StatusForbidden}}
	glassdoor := &countingAdapter{source: model.SourceGlassdoor}
	svc := newService(t, store.NewMemoryStore(), clock(1), indeed, linkedin, glassdoor)

	res, err := svc.ScrapeAndList(context.Background(), ScrapeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	for _, p := range res.Jobs {
		assert.NotEqual(t, model.SourceLinkedIn, p.Source)
	}
	require.Len(t, res.Reports, 3)
	assert.True(t, res.Reports[1].Unavailable())
}

func TestScrapeAndList_HungSourceDoesNotLoseOthers(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	indeed := &countingAdapter{source: model.SourceIndeed}
	linkedin := hangingAdapter{source: model.SourceLinkedIn}
	agg := aggregator.New([]model.SourceAdapter{indeed, linkedin}, normalize.New(clock(1)), discard(),
		aggregator.WithFetchTimeout(300*time.Millisecond))
	svc := New(agg, st, nil, nil, discard())

	// The caller's deadline is no longer than the per-source bound, so the
	// hung source uses all of it.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	res, err := svc.ScrapeAndList(ctx, ScrapeRequest{Sources: []string{"indeed", "linkedin"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, model.SourceIndeed, res.Jobs[0].Source)
	assert.Equal(t, int32(1), indeed.calls.Load())

	require.Len(t, res.Reports, 2)
	assert.False(t, res.Reports[0].Unavailable())
	assert.True(t, res.Reports[1].Unavailable())

	all, err := st.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestScrapeAndList_PersistenceFailureFailsCall(t *testing.T) {
	indeed := &countingAdapter{source: model.SourceIndeed}
	svc := newService(t, failingStore{store.NewMemoryStore()}, clock(1), indeed)

	_, err := svc.ScrapeAndList(context.Background(), ScrapeRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPersistence))
}

func TestList_IsIdempotent(t *testing.T) {
	indeed := &countingAdapter{source: model.SourceIndeed}
	svc := newService(t, store.NewMemoryStore(), clock(1), indeed)
	ctx := context.Background()

	_, err := svc.ScrapeAndList(ctx, ScrapeRequest{})
	require.NoError(t, err)

	a, err := svc.List(ctx)
	require.NoError(t, err)
	b, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, a.Count, len(a.Jobs))
}

func TestList_EmptyStore(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), clock(1))
	l, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, l.Jobs)
	assert.Equal(t, 0, l.Count)
}

func TestGetByID(t *testing.T) {
	indeed := &countingAdapter{source: model.SourceIndeed}
	svc := newService(t, store.NewMemoryStore(), clock(1), indeed)
	ctx := context.Background()

	res, err := svc.ScrapeAndList(ctx, ScrapeRequest{})
	require.NoError(t, err)

	p, err := svc.GetByID(ctx, res.Jobs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, res.Jobs[0], p)

	_, err = svc.GetByID(ctx, 12345)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
