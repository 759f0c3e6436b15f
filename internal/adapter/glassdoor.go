package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/amishk599/jobrake/internal/model"
)

const glassdoorBaseURL = "https://www.glassdoor.com"

// The title anchor doubles as the posting link. No descriptions on cards.
var glassdoorSelectors = Selectors{
	Card:     "li.react-job-listing",
	Title:    "a.job-link",
	Company:  "div.job-search-results__company-name",
	Location: "span.location",
	Link:     "a.job-link",
}

// GlassdoorAdapter searches Glassdoor's job listing pages.
type GlassdoorAdapter struct {
	baseURL string
	fetcher pageFetcher
}

// NewGlassdoorAdapter creates an adapter for Glassdoor. An empty baseURL uses
// the public site.
func NewGlassdoorAdapter(baseURL, userAgent string, client *http.Client) *GlassdoorAdapter {
	if baseURL == "" {
		baseURL = glassdoorBaseURL
	}
	return &GlassdoorAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: newPageFetcher(client, userAgent),
	}
}

// Source returns the label stamped on every posting from Glassdoor.
func (a *GlassdoorAdapter) Source() model.Source {
	return model.SourceGlassdoor
}

// SearchURL builds the SEO-style results path Glassdoor routes on. The KO and
// IL segments encode the character lengths of the keyword and location.
func (a *GlassdoorAdapter) SearchURL(q model.Query) string {
	title := strings.TrimSpace(q.Title)
	location := strings.TrimSpace(q.Location)
	return fmt.Sprintf("%s/Job/%s-jobs-in-%s-SRCH_KO0,%d_IL.0,%d_IN1.htm",
		a.baseURL,
		url.PathEscape(hyphenate(title)),
		url.PathEscape(hyphenate(location)),
		utf8.RuneCountInString(title),
		utf8.RuneCountInString(location),
	)
}

// Search fetches the first results page and extracts one item per card.
func (a *GlassdoorAdapter) Search(ctx context.Context, q model.Query) ([]model.ItemResult, error) {
	doc, err := a.fetcher.fetch(ctx, a.SearchURL(q))
	if err != nil {
		return nil, fmt.Errorf("glassdoor search: %w", err)
	}
	return extractCards(doc, glassdoorSelectors, a.baseURL), nil
}
