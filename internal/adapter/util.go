package adapter

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobrake/internal/model"
)

// Selectors locates the fields of one result card. Each field selector is
// evaluated relative to the card; the first match wins.
type Selectors struct {
	Card        string
	Title       string
	Company     string
	Location    string
	Description string // empty when the site's result cards carry none
	Link        string // element whose href is the posting link
}

// extractCards walks every card in document order. A card that panics or
// carries neither a title nor a link becomes a skipped ItemResult; the rest
// of the page is unaffected.
func extractCards(doc *goquery.Document, sel Selectors, baseURL string) []model.ItemResult {
	cards := doc.Find(sel.Card)
	results := make([]model.ItemResult, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		results = append(results, extractCard(i, card, sel, baseURL))
	})
	return results
}

func extractCard(i int, card *goquery.Selection, sel Selectors, baseURL string) (res model.ItemResult) {
	res.Index = i
	defer func() {
		if r := recover(); r != nil {
			res = model.ItemResult{Index: i, Err: fmt.Errorf("%w: card %d: %v", model.ErrExtraction, i, r)}
		}
	}()

	raw := model.RawItem{
		Title:              text(card, sel.Title),
		Company:            text(card, sel.Company),
		Location:           text(card, sel.Location),
		Href:               href(card, sel.Link),
		BaseURL:            baseURL,
		DescriptionOmitted: sel.Description == "",
	}
	if sel.Description != "" {
		raw.Description = text(card, sel.Description)
	}
	if raw.Title == "" && raw.Href == "" {
		res.Err = fmt.Errorf("%w: card %d has no title or link", model.ErrExtraction, i)
		return res
	}
	res.Raw = raw
	return res
}

func text(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(card.Find(selector).First().Text())
}

func href(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	v, _ := card.Find(selector).First().Attr("href")
	return strings.TrimSpace(v)
}

func hyphenate(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
}
