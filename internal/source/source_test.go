package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jobhound/jobhound/internal/job"
)

func TestGreenhouseFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/acme/jobs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("content") != "true" {
			t.Errorf("content=true missing from query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobs": [
			{"id": 1, "title": "Founding Engineer", "absolute_url": "https://acme.example/jobs/1",
			 "content": "Build everything. $120,000 per year.", "location": {"name": "Remote"}},
			{"id": 2, "title": "Platform Engineer", "absolute_url": "https://acme.example/jobs/2",
			 "content": "Infra role.", "location": {"name": "Berlin"}}
		]}`))
	}))
	defer server.Close()

	src := &greenhouseSource{
		cfg:    &GreenhouseConfig{Boards: []GreenhouseBoard{{Token: "acme", Company: "Acme"}}},
		client: server.Client(),
		apiURL: server.URL,
	}

	postings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}
	if postings[0].Company != "Acme" {
		t.Errorf("expected company Acme, got %q", postings[0].Company)
	}
	if postings[0].SalaryMin != 120000 {
		t.Errorf("expected salary 120000, got %d", postings[0].SalaryMin)
	}
	if postings[1].SalaryMin != 0 {
		t.Errorf("expected no salary on second posting, got %d", postings[1].SalaryMin)
	}
}

func TestGreenhouseFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := &greenhouseSource{
		cfg:    &GreenhouseConfig{Boards: []GreenhouseBoard{{Token: "acme"}}},
		client: server.Client(),
		apiURL: server.URL,
	}

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestRemoteFeedFetchSkipsLegalNotice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"legal": "API terms of service apply."},
			{"position": "Backend Engineer", "company": "Nimbus", "location": "",
			 "description": "Go services.", "tags": ["go", "postgres"],
			 "salary_min": 90000, "url": "https://feed.example/1"},
			{"position": "DevOps Engineer", "company": "Gale",
			 "description": "Pays 85k per year.", "url": "https://feed.example/2"}
		]`))
	}))
	defer server.Close()

	src := NewRemoteFeed(&RemoteFeedConfig{URL: server.URL})

	postings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected the legal notice to be skipped, got %d postings", len(postings))
	}
	if !postings[0].Remote {
		t.Error("remote feed postings must be marked remote")
	}
	if postings[0].Location != "Remote" {
		t.Errorf("empty location should default to Remote, got %q", postings[0].Location)
	}
	if !reflect.DeepEqual(postings[0].Requirements, []string{"go", "postgres"}) {
		t.Errorf("tags should carry over as requirements, got %v", postings[0].Requirements)
	}
	if postings[1].SalaryMin != 85000 {
		t.Errorf("salary should fall back to text extraction, got %d", postings[1].SalaryMin)
	}
}

func TestBoardHTMLFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><ul>
			<li class="opening">
				<a href="/careers/1">Founding Engineer</a>
				<span class="loc">Remote</span>
			</li>
			<li class="opening">
				<a href="/careers/2">Staff Engineer</a>
				<span class="loc">London</span>
			</li>
			<li class="opening"><span class="loc">orphan row</span></li>
		</ul></body></html>`))
	}))
	defer server.Close()

	src := NewBoardHTML(&BoardHTMLConfig{
		URL:              server.URL,
		Company:          "Vertex",
		ItemSelector:     "li.opening",
		TitleSelector:    "a",
		LinkSelector:     "a",
		LocationSelector: "span.loc",
	})

	postings, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings with titles, got %d", len(postings))
	}
	if postings[0].URL != server.URL+"/careers/1" {
		t.Errorf("relative link not resolved, got %q", postings[0].URL)
	}
	if postings[1].Location != "London" {
		t.Errorf("expected location London, got %q", postings[1].Location)
	}
	if postings[0].Company != "Vertex" {
		t.Errorf("expected company Vertex, got %q", postings[0].Company)
	}
}

func TestBuildSelectsConfiguredAdapters(t *testing.T) {
	sources := Build(&Config{
		RemoteFeed: &RemoteFeedConfig{URL: "https://feed.example/api"},
	})
	if len(sources) != 1 {
		t.Fatalf("expected 1 adapter, got %d", len(sources))
	}
	if sources[0].Name() != "remotefeed" {
		t.Errorf("unexpected adapter %q", sources[0].Name())
	}

	if got := Build(nil); len(got) != 0 {
		t.Errorf("nil config should build nothing, got %d", len(got))
	}
}

func TestEnrich(t *testing.T) {
	postings := []*job.Posting{
		{Company: "Acme"},
		{Company: "Unknown Co"},
		{Company: "Nimbus", CompanySize: 12},
	}

	Enrich(postings, map[string]CompanyInfo{
		"acme":   {Size: 8, Stage: "seed"},
		"Nimbus": {Size: 40, Stage: "series-a"},
	})

	if postings[0].CompanySize != 8 || postings[0].FundingStage != "seed" {
		t.Errorf("Acme not enriched: %+v", postings[0])
	}
	if postings[1].CompanySize != 0 {
		t.Errorf("unknown company must stay untouched: %+v", postings[1])
	}
	if postings[2].CompanySize != 12 {
		t.Errorf("existing size must not be overwritten: %+v", postings[2])
	}
	if postings[2].FundingStage != "series-a" {
		t.Errorf("missing stage should still be filled: %+v", postings[2])
	}
}
