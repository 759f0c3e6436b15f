// Package filter narrows stored postings by keyword.
package filter

import (
	"strings"

	"github.com/amishk599/jobrake/internal/model"
)

// KeywordFilter matches postings whose title contains any of the title
// keywords and whose location contains any of the location keywords, unless
// an exclude keyword hits. Matching is case-insensitive. Empty include lists
// are treated as "match all".
type KeywordFilter struct {
	titleKeywords        []string
	titleExcludeKeywords []string
	locations            []string
	excludeLocations     []string
	sources              []model.Source
}

// Options lists the keywords for a KeywordFilter.
type Options struct {
	TitleKeywords        []string
	TitleExcludeKeywords []string
	Locations            []string
	ExcludeLocations     []string
	Sources              []model.Source // empty means every source
}

// New returns a KeywordFilter for opts.
func New(opts Options) *KeywordFilter {
	return &KeywordFilter{
		titleKeywords:        lower(opts.TitleKeywords),
		titleExcludeKeywords: lower(opts.TitleExcludeKeywords),
		locations:            lower(opts.Locations),
		excludeLocations:     lower(opts.ExcludeLocations),
		sources:              opts.Sources,
	}
}

// Match reports whether p passes every configured criterion.
func (f *KeywordFilter) Match(p model.Posting) bool {
	title := strings.ToLower(p.Title)
	location := strings.ToLower(p.Location)

	if len(f.titleKeywords) > 0 && !containsAny(title, f.titleKeywords) {
		return false
	}
	if containsAny(title, f.titleExcludeKeywords) {
		return false
	}
	if len(f.locations) > 0 && !containsAny(location, f.locations) {
		return false
	}
	if containsAny(location, f.excludeLocations) {
		return false
	}
	if len(f.sources) > 0 {
		for _, s := range f.sources {
			if p.Source == s {
				return true
			}
		}
		return false
	}
	return true
}

// Apply returns the postings f matches, preserving order.
func Apply(f model.PostingFilter, ps []model.Posting) []model.Posting {
	out := make([]model.Posting, 0, len(ps))
	for _, p := range ps {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
