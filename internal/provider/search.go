package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkravets/newswire/internal/classify"
	"github.com/mkravets/newswire/pkg/sanitize"
)

const defaultSearchURL = "https://newsapi.org/v2/everything"

// SearchProvider queries a broad article-search endpoint, combining all
// requested regions, topics, and the search term into one OR query. One call
// covers the full region set, which makes it the cheapest provider per run.
type SearchProvider struct {
	apiKey   string
	baseURL  string
	pageSize int
	client   *http.Client
	quota    *Quota
	logger   *slog.Logger
}

// NewSearchProvider creates the broad-search adapter with a 100 request
// daily ceiling.
func NewSearchProvider(apiKey string) *SearchProvider {
	return &SearchProvider{
		apiKey:   apiKey,
		baseURL:  defaultSearchURL,
		pageSize: 100,
		client:   &http.Client{Timeout: 15 * time.Second},
		quota:    NewQuota(100),
		logger:   slog.Default(),
	}
}

func (p *SearchProvider) Name() string { return "search" }

func (p *SearchProvider) RemainingRequests() int { return p.quota.Remaining() }

func (p *SearchProvider) TrackUsage() { p.quota.Track() }

func (p *SearchProvider) FetchNews(ctx context.Context, q Query) []RawArticle {
	if p.quota.Remaining() <= 0 {
		p.logger.Info("daily limit reached", "provider", p.Name())
		return nil
	}
	articles, err := p.fetch(ctx, q)
	if err != nil {
		p.logger.Error("fetch failed", "provider", p.Name(), "error", err)
		return nil
	}
	return articles
}

type searchResponse struct {
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		PublishedAt time.Time `json:"publishedAt"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
	} `json:"articles"`
}

func (p *SearchProvider) fetch(ctx context.Context, q Query) ([]RawArticle, error) {
	var terms []string
	if q.Search != "" {
		terms = append(terms, q.Search)
	}
	terms = append(terms, q.Regions...)
	terms = append(terms, q.Topics...)

	params := url.Values{}
	params.Set("q", strings.Join(terms, " OR "))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("apiKey", p.apiKey)
	params.Set("pageSize", fmt.Sprint(p.pageSize))
	if !q.Since.IsZero() {
		params.Set("from", q.Since.UTC().Format(time.RFC3339))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch search results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	p.quota.Track()

	topic := strings.Join(q.Topics, ",")
	articles := make([]RawArticle, 0, len(body.Articles))
	for _, item := range body.Articles {
		if item.Title == "" || item.Description == "" || item.URL == "" || item.PublishedAt.IsZero() {
			continue
		}
		title := sanitize.Text(item.Title)
		summary := sanitize.Text(item.Description)
		articles = append(articles, RawArticle{
			Title:    title,
			Summary:  summary,
			Region:   classify.Classify(title, summary, q.Regions),
			Topic:    topic,
			Date:     item.PublishedAt,
			Link:     item.URL,
			ImageURL: item.URLToImage,
		})
	}
	return articles, nil
}
