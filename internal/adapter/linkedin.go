package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/amishk599/jobrake/internal/model"
)

const linkedInBaseURL = "https://www.linkedin.com"

// LinkedIn result cards carry no description.
var linkedInSelectors = Selectors{
	Card:     "div.base-card",
	Title:    "h3.base-search-card__title",
	Company:  "h4.base-search-card__subtitle",
	Location: "span.job-search-card__location",
	Link:     "a.base-card__full-link",
}

// LinkedInAdapter searches LinkedIn's guest job search page.
type LinkedInAdapter struct {
	baseURL string
	fetcher pageFetcher
}

// NewLinkedInAdapter creates an adapter for LinkedIn. An empty baseURL uses
// the public site.
func NewLinkedInAdapter(baseURL, userAgent string, client *http.Client) *LinkedInAdapter {
	if baseURL == "" {
		baseURL = linkedInBaseURL
	}
	return &LinkedInAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: newPageFetcher(client, userAgent),
	}
}

// Source returns the label stamped on every posting from LinkedIn.
func (a *LinkedInAdapter) Source() model.Source {
	return model.SourceLinkedIn
}

// SearchURL builds the results URL, e.g. /jobs/search/?keywords=Data%20Analyst%20Remote.
func (a *LinkedInAdapter) SearchURL(q model.Query) string {
	return fmt.Sprintf("%s/jobs/search/?keywords=%s%%20%s", a.baseURL, url.PathEscape(q.Title), url.PathEscape(q.Location))
}

// Search fetches the first results page and extracts one item per card.
func (a *LinkedInAdapter) Search(ctx context.Context, q model.Query) ([]model.ItemResult, error) {
	doc, err := a.fetcher.fetch(ctx, a.SearchURL(q))
	if err != nil {
		return nil, fmt.Errorf("linkedin search: %w", err)
	}
	return extractCards(doc, linkedInSelectors, a.baseURL), nil
}
