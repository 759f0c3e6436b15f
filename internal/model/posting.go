package model

import (
	"context"
)

// Sentinel fills any posting field that could not be located on a result card.
const Sentinel = "N/A"

// DescriptionPlaceholder stands in for descriptions on sources whose result
// pages never carry one.
const DescriptionPlaceholder = "Click to view full description"

// DateLayout is the format of Posting.DatePosted.
const DateLayout = "2006-01-02"

// Posting is the unified representation of a job listing from any source.
type Posting struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      Source `json:"source"`
	DatePosted  string `json:"date_posted"` // acquisition date, not the site's posting date
}

// Query is what the user searched for.
type Query struct {
	Title    string
	Location string
}

// RawItem holds the strings located on one result card, before normalization.
// An empty field means the anchor for it was absent.
type RawItem struct {
	Title       string
	Company     string
	Location    string
	Description string
	Href        string
	BaseURL     string // relative hrefs resolve against this

	// DescriptionOmitted marks sources whose result cards carry no description.
	DescriptionOmitted bool
}

// ItemResult is the outcome of extracting one card. A non-nil Err means the
// card was skipped and Raw should be ignored.
type ItemResult struct {
	Index int
	Raw   RawItem
	Err   error
}

// SourceAdapter runs one search against a single listing site.
type SourceAdapter interface {
	Source() Source
	Search(ctx context.Context, q Query) ([]ItemResult, error)
}

// PostingStore persists postings. IDs are assigned by the store only.
type PostingStore interface {
	// Append writes the batch atomically and returns it with IDs assigned.
	Append(ctx context.Context, postings []Posting) ([]Posting, error)
	// ListAll returns every posting, newest acquisition date first.
	ListAll(ctx context.Context) ([]Posting, error)
	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id int64) (Posting, error)
	Close() error
}

// Generator turns a prompt into free text. It is the only capability the
// analysis layer needs from a language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PostingFilter decides whether a posting matches the user's keywords.
type PostingFilter interface {
	Match(p Posting) bool
}
