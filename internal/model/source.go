package model

import "strings"

// Source labels the site a posting was scraped from.
type Source string

const (
	SourceIndeed    Source = "Indeed"
	SourceLinkedIn  Source = "LinkedIn"
	SourceGlassdoor Source = "Glassdoor"
)

// AllSources lists every supported source in default selection order.
var AllSources = []Source{SourceIndeed, SourceLinkedIn, SourceGlassdoor}

// ParseSource matches a request label case-insensitively.
func ParseSource(label string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "indeed":
		return SourceIndeed, true
	case "linkedin":
		return SourceLinkedIn, true
	case "glassdoor":
		return SourceGlassdoor, true
	}
	return "", false
}

// ParseSources keeps the known labels in the order given, dropping unknown
// labels and repeats.
func ParseSources(labels []string) []Source {
	out := make([]Source, 0, len(labels))
	seen := make(map[Source]bool, len(labels))
	for _, l := range labels {
		s, ok := ParseSource(l)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Key is the lowercase form used in config keys and metric labels.
func (s Source) Key() string {
	return strings.ToLower(string(s))
}
