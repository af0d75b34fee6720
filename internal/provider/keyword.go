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

const defaultKeywordURL = "https://api.currentsapi.services/v1/latest-news"

// KeywordProvider queries a latest-news keyword endpoint and filters the
// results down to the requested topic by upstream category. Its ceiling is
// the most generous of the three variants.
type KeywordProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	quota   *Quota
	logger  *slog.Logger
}

// NewKeywordProvider creates the keyword-search adapter with a 600 request
// daily ceiling.
func NewKeywordProvider(apiKey string) *KeywordProvider {
	return &KeywordProvider{
		apiKey:  apiKey,
		baseURL: defaultKeywordURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		quota:   NewQuota(600),
		logger:  slog.Default(),
	}
}

func (p *KeywordProvider) Name() string { return "keyword" }

func (p *KeywordProvider) RemainingRequests() int { return p.quota.Remaining() }

func (p *KeywordProvider) TrackUsage() { p.quota.Track() }

func (p *KeywordProvider) FetchNews(ctx context.Context, q Query) []RawArticle {
	if p.quota.Remaining() <= 0 {
		p.logger.Info("daily limit reached", "provider", p.Name())
		return nil
	}
	if len(q.Topics) == 0 {
		return nil
	}
	articles, err := p.fetch(ctx, q)
	if err != nil {
		p.logger.Error("fetch failed", "provider", p.Name(), "topic", q.Topics[0], "error", err)
		return nil
	}
	return articles
}

type keywordResponse struct {
	News []struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Published   string   `json:"published"`
		URL         string   `json:"url"`
		Image       string   `json:"image"`
		Category    []string `json:"category"`
	} `json:"news"`
}

// publishedLayouts covers the timestamp formats the upstream emits.
var publishedLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
}

func (p *KeywordProvider) fetch(ctx context.Context, q Query) ([]RawArticle, error) {
	topic := q.Topics[0]

	params := url.Values{}
	params.Set("keywords", q.Search)
	params.Set("language", "en")
	params.Set("apiKey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("keyword API returned status %d", resp.StatusCode)
	}

	var body keywordResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	p.quota.Track()

	wantCategory := strings.ToLower(topic)
	var articles []RawArticle
	for _, item := range body.News {
		if !matchesCategory(item.Category, wantCategory) {
			continue
		}
		date := parsePublished(item.Published)
		if item.Title == "" || item.Description == "" || item.URL == "" || date.IsZero() {
			continue
		}
		title := sanitize.Text(item.Title)
		summary := sanitize.Text(item.Description)
		articles = append(articles, RawArticle{
			Title:    title,
			Summary:  summary,
			Region:   classify.Classify(title, summary, q.Regions),
			Topic:    topic,
			Date:     date,
			Link:     item.URL,
			ImageURL: item.Image,
		})
	}
	return articles, nil
}

func matchesCategory(categories []string, want string) bool {
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c), want) {
			return true
		}
	}
	return false
}

func parsePublished(s string) time.Time {
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
