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

const defaultHeadlinesURL = "https://newsapi.org/v2/top-headlines"

// HeadlinesProvider queries a top-headlines endpoint one topic category at a
// time, so the orchestrator pays one quota unit per topic.
type HeadlinesProvider struct {
	apiKey   string
	baseURL  string
	pageSize int
	client   *http.Client
	quota    *Quota
	logger   *slog.Logger
}

// NewHeadlinesProvider creates the per-topic headlines adapter with a 100
// request daily ceiling.
func NewHeadlinesProvider(apiKey string) *HeadlinesProvider {
	return &HeadlinesProvider{
		apiKey:   apiKey,
		baseURL:  defaultHeadlinesURL,
		pageSize: 100,
		client:   &http.Client{Timeout: 15 * time.Second},
		quota:    NewQuota(100),
		logger:   slog.Default(),
	}
}

func (p *HeadlinesProvider) Name() string { return "headlines" }

func (p *HeadlinesProvider) RemainingRequests() int { return p.quota.Remaining() }

func (p *HeadlinesProvider) TrackUsage() { p.quota.Track() }

func (p *HeadlinesProvider) FetchNews(ctx context.Context, q Query) []RawArticle {
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

type headlinesResponse struct {
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		PublishedAt time.Time `json:"publishedAt"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
	} `json:"articles"`
}

func (p *HeadlinesProvider) fetch(ctx context.Context, q Query) ([]RawArticle, error) {
	topic := q.Topics[0]

	params := url.Values{}
	params.Set("country", "us")
	params.Set("category", strings.ToLower(topic))
	params.Set("language", "en")
	params.Set("apiKey", p.apiKey)
	params.Set("pageSize", fmt.Sprint(p.pageSize))
	if q.Search != "" {
		params.Set("q", q.Search)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch headlines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("headlines API returned status %d", resp.StatusCode)
	}

	var body headlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	p.quota.Track()

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
