package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/jobrake/internal/model"
)

const indeedBaseURL = "https://www.indeed.com"

var indeedSelectors = Selectors{
	Card:        "div.job_seen_beacon",
	Title:       "h2.jobTitle",
	Company:     "span.companyName",
	Location:    "div.companyLocation",
	Description: "div.job-snippet",
	Link:        "a.jcs-JobTitle",
}

// IndeedAdapter searches Indeed's public results page.
type IndeedAdapter struct {
	baseURL string
	fetcher pageFetcher
}

// NewIndeedAdapter creates an adapter for Indeed. An empty baseURL uses the
// public site.
func NewIndeedAdapter(baseURL, userAgent string, client *http.Client) *IndeedAdapter {
	if baseURL == "" {
		baseURL = indeedBaseURL
	}
	return &IndeedAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: newPageFetcher(client, userAgent),
	}
}

// Source returns the label stamped on every posting from Indeed.
func (a *IndeedAdapter) Source() model.Source {
	return model.SourceIndeed
}

// SearchURL builds the results URL, e.g. /jobs?q=Data+Analyst+in+Remote.
func (a *IndeedAdapter) SearchURL(q model.Query) string {
	return fmt.Sprintf("%s/jobs?q=%s+in+%s", a.baseURL, url.QueryEscape(q.Title), url.QueryEscape(q.Location))
}

// Search fetches the first results page and extracts one item per card.
func (a *IndeedAdapter) Search(ctx context.Context, q model.Query) ([]model.ItemResult, error) {
	doc, err := a.fetcher.fetch(ctx, a.SearchURL(q))
	if err != nil {
		return nil, fmt.Errorf("indeed search: %w", err)
	}
	return extractCards(doc, indeedSelectors, a.baseURL), nil
}
