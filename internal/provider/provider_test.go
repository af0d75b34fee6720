package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const headlinesBody = `{
	"articles": [
		{
			"title": "Wildfire spreads near Sacramento",
			"description": "Crews contain a blaze north of the city",
			"publishedAt": "2024-03-01T08:00:00Z",
			"url": "https://news.example/1",
			"urlToImage": "https://img.example/1.jpg"
		},
		{
			"title": "Missing description article",
			"description": "",
			"publishedAt": "2024-03-01T09:00:00Z",
			"url": "https://news.example/2"
		},
		{
			"title": "Missing link article",
			"description": "Has a summary but nowhere to point",
			"publishedAt": "2024-03-01T10:00:00Z",
			"url": ""
		}
	]
}`

func TestHeadlinesProvider_MapsAndDropsIncomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "politics" {
			t.Errorf("expected lowercased category, got %q", got)
		}
		w.Write([]byte(headlinesBody))
	}))
	defer srv.Close()

	p := NewHeadlinesProvider("test-key")
	p.baseURL = srv.URL

	got := p.FetchNews(context.Background(), Query{
		Regions: []string{"California", "Texas"},
		Topics:  []string{"Politics"},
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 article after dropping incomplete records, got %d", len(got))
	}
	a := got[0]
	if a.Region != "California" {
		t.Fatalf("expected classified region California, got %s", a.Region)
	}
	if a.Topic != "Politics" {
		t.Fatalf("expected topic Politics, got %s", a.Topic)
	}
	if a.Link != "https://news.example/1" || a.ImageURL != "https://img.example/1.jpg" {
		t.Fatalf("unexpected mapping: %+v", a)
	}
	if p.RemainingRequests() != 99 {
		t.Fatalf("expected one quota unit used, remaining %d", p.RemainingRequests())
	}
}

func TestHeadlinesProvider_UpstreamFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHeadlinesProvider("test-key")
	p.baseURL = srv.URL

	got := p.FetchNews(context.Background(), Query{Topics: []string{"Politics"}})
	if len(got) != 0 {
		t.Fatalf("expected empty result on upstream failure, got %d", len(got))
	}
	if p.RemainingRequests() != 100 {
		t.Fatalf("failed call must not consume quota, remaining %d", p.RemainingRequests())
	}
}

func TestHeadlinesProvider_ExhaustedQuotaSkipsCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := NewHeadlinesProvider("test-key")
	p.baseURL = srv.URL
	p.quota = NewQuota(0)

	if got := p.FetchNews(context.Background(), Query{Topics: []string{"Politics"}}); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if called {
		t.Fatal("exhausted provider must not reach upstream")
	}
}

func TestSearchProvider_CombinedQueryAndSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "flood OR California OR Weather" {
			t.Errorf("unexpected combined query: %q", got)
		}
		if q.Get("from") == "" {
			t.Error("expected from parameter when Since is set")
		}
		w.Write([]byte(`{"articles": [
			{"title": "Sacramento levee holds", "description": "Flood waters recede",
			 "publishedAt": "2024-03-02T06:00:00Z", "url": "https://news.example/9"}
		]}`))
	}))
	defer srv.Close()

	p := NewSearchProvider("test-key")
	p.baseURL = srv.URL

	since, _ := time.Parse(time.RFC3339, "2024-03-01T00:00:00Z")
	got := p.FetchNews(context.Background(), Query{
		Regions: []string{"California"},
		Topics:  []string{"Weather"},
		Search:  "flood",
		Since:   since,
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	if got[0].Topic != "Weather" {
		t.Fatalf("expected joined topic, got %s", got[0].Topic)
	}
	if got[0].Region != "California" {
		t.Fatalf("expected region California, got %s", got[0].Region)
	}
}

func TestKeywordProvider_FiltersByCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"news": [
			{"title": "Austin council vote", "description": "Zoning plan approved",
			 "published": "2024-03-01 08:00:00 +0000", "url": "https://news.example/10",
			 "category": ["politics"]},
			{"title": "Cooking show renewed", "description": "Another season greenlit",
			 "published": "2024-03-01 09:00:00 +0000", "url": "https://news.example/11",
			 "category": ["entertainment"]}
		]}`))
	}))
	defer srv.Close()

	p := NewKeywordProvider("test-key")
	p.baseURL = srv.URL

	got := p.FetchNews(context.Background(), Query{
		Regions: []string{"Texas"},
		Topics:  []string{"Politics"},
	})

	if len(got) != 1 {
		t.Fatalf("expected only the politics article, got %d", len(got))
	}
	if got[0].Link != "https://news.example/10" {
		t.Fatalf("unexpected article: %+v", got[0])
	}
	if got[0].Region != "Texas" {
		t.Fatalf("expected region Texas, got %s", got[0].Region)
	}
	if p.RemainingRequests() != 599 {
		t.Fatalf("expected one quota unit used, remaining %d", p.RemainingRequests())
	}
}

func TestKeywordProvider_MalformedResponseIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p := NewKeywordProvider("test-key")
	p.baseURL = srv.URL

	if got := p.FetchNews(context.Background(), Query{Topics: []string{"Politics"}}); len(got) != 0 {
		t.Fatalf("expected empty result for malformed response, got %d", len(got))
	}
}
