// Package normalize maps raw result-card strings onto the Posting schema.
package normalize

import (
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/amishk599/jobrake/internal/model"
)

// Normalizer is total: every RawItem yields a Posting.
type Normalizer struct {
	now func() time.Time
}

// New returns a Normalizer stamping postings with the local date from now.
// A nil now uses time.Now.
func New(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

// Normalize builds a Posting from raw. The source label comes from the
// adapter, never from the card. The ID is left zero for the store to assign.
func (n *Normalizer) Normalize(raw model.RawItem, src model.Source) model.Posting {
	desc := model.DescriptionPlaceholder
	if !raw.DescriptionOmitted {
		desc = orSentinel(cleanText(raw.Description))
	}
	return model.Posting{
		Title:       orSentinel(cleanText(raw.Title)),
		Company:     orSentinel(cleanText(raw.Company)),
		Location:    orSentinel(cleanText(raw.Location)),
		Description: desc,
		URL:         resolveURL(raw.Href, raw.BaseURL),
		Source:      src,
		DatePosted:  n.now().Format(model.DateLayout),
	}
}

// cleanText unescapes entities and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

func orSentinel(s string) string {
	if s == "" {
		return model.Sentinel
	}
	return s
}

// resolveURL returns href as an absolute http(s) URL, resolving it against
// base when relative. Anything that cannot be made absolute becomes the sentinel.
func resolveURL(href, base string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return model.Sentinel
	}
	ref, err := url.Parse(href)
	if err != nil {
		return model.Sentinel
	}
	if ref.IsAbs() {
		if isHTTP(ref) {
			return ref.String()
		}
		return model.Sentinel
	}
	if base == "" {
		return model.Sentinel
	}
	b, err := url.Parse(base)
	if err != nil || !isHTTP(b) {
		return model.Sentinel
	}
	return b.ResolveReference(ref).String()
}

func isHTTP(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
