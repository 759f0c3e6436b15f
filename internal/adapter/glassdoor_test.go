package adapter

import (
	"context"
	"net/http"
	"testing"

	"github.com/amishk599/jobrake/internal/model"
)

const glassdoorPage = `<html><body><ul>
<li class="react-job-listing">
  <div class="job-search-results__company-name">Initech</div>
  <a class="job-link" href="/partner/jobListing.htm?jobListingId=42">Data Analyst</a>
  <span class="location">New York, NY</span>
</li>
<li class="react-job-listing"><span class="location">Nowhere</span></li>
</ul></body></html>`

func TestGlassdoorSearch_Success(t *testing.T) {
	var seen http.Request
	srv := htmlServer(http.StatusOK, glassdoorPage, &seen)
	defer srv.Close()

	a := NewGlassdoorAdapter("", "", rewriteClient(srv))
	results, err := a.Search(context.Background(), model.Query{Title: "Data Analyst", Location: "New York"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if seen.URL.Path != "/Job/Data-Analyst-jobs-in-New-York-SRCH_KO0,12_IL.0,8_IN1.htm" {
		t.Errorf("unexpected path %s", seen.URL.Path)
	}

	r := results[0].Raw
	if r.Title != "Data Analyst" || r.Company != "Initech" || r.Location != "New York, NY" {
		t.Errorf("unexpected fields %+v", r)
	}
	if r.Href != "/partner/jobListing.htm?jobListingId=42" {
		t.Errorf("unexpected href %q", r.Href)
	}
	if r.BaseURL != "https://www.glassdoor.com" {
		t.Errorf("unexpected base url %q", r.BaseURL)
	}
	if !r.DescriptionOmitted {
		t.Error("glassdoor cards should mark description as omitted")
	}

	if results[1].Err == nil {
		t.Error("expected card with no title or link to be skipped")
	}
}

func TestGlassdoorSearchURL_PaddedInputCountsTrimmedText(t *testing.T) {
	a := NewGlassdoorAdapter("", "", nil)
	got := a.SearchURL(model.Query{Title: "  Go Dev ", Location: " Berlin  "})
	want := "https://www.glassdoor.com/Job/Go-Dev-jobs-in-Berlin-SRCH_KO0,6_IL.0,6_IN1.htm"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGlassdoorSearchURL_CustomBase(t *testing.T) {
	a := NewGlassdoorAdapter("http://mirror.local/", "", nil)
	got := a.SearchURL(model.Query{Title: "Go Dev", Location: "Berlin"})
	want := "http://mirror.local/Job/Go-Dev-jobs-in-Berlin-SRCH_KO0,6_IL.0,6_IN1.htm"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
