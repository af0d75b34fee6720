// Package aggregator drives fetch cycles across the provider registry and
// routes new articles into storage, notification, and cache invalidation.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkravets/newswire/internal/cache"
	"github.com/mkravets/newswire/internal/classify"
	"github.com/mkravets/newswire/internal/provider"
	"github.com/mkravets/newswire/internal/store"
)

// Notifier receives each newly inserted article for asynchronous fan-out.
type Notifier interface {
	Notify(article store.Article)
}

// Config tunes a fetch cycle.
type Config struct {
	// MaxRequestsPerRun is the global outbound call ceiling per cycle.
	MaxRequestsPerRun int `yaml:"max_requests_per_run" env:"AGG_MAX_REQUESTS"`
	// Pacing is the fixed pause between consecutive outbound calls.
	Pacing time.Duration `yaml:"pacing" env:"AGG_PACING"`
	// CallTimeout bounds each provider call.
	CallTimeout time.Duration `yaml:"call_timeout" env:"AGG_CALL_TIMEOUT"`
}

// Aggregator is the stateless orchestrator of fetch cycles. All durable and
// quota state lives in its collaborators, so concurrent runs are safe: racing
// inserts of the same link are resolved by the store's uniqueness constraint.
type Aggregator struct {
	registry *provider.Registry
	articles *store.ArticleStore
	cache    *cache.Cache
	notifier Notifier
	cfg      Config
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration)
}

// New creates an orchestrator. Zero config fields fall back to defaults
// (10 requests per run, 1s pacing, 15s call timeout).
func New(registry *provider.Registry, articles *store.ArticleStore, c *cache.Cache, notifier Notifier, cfg Config) *Aggregator {
	if cfg.MaxRequestsPerRun <= 0 {
		cfg.MaxRequestsPerRun = 10
	}
	if cfg.Pacing <= 0 {
		cfg.Pacing = time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &Aggregator{
		registry: registry,
		articles: articles,
		cache:    c,
		notifier: notifier,
		cfg:      cfg,
		logger:   slog.Default(),
		sleep:    pause,
	}
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run executes one aggregation cycle over the given regions and topics and
// returns the newly inserted articles. The cycle is best effort: provider
// failures yield empty results and the cycle continues; only store failures
// or cancellation abort it.
func (a *Aggregator) Run(ctx context.Context, regions, topics []string, search string) ([]store.Article, error) {
	eligible := a.registry.Eligible()
	if len(eligible) == 0 {
		a.logger.Info("no providers within daily limits, skipping cycle")
		return nil, nil
	}

	since := a.earliestKnownDate(ctx, regions, topics)

	var inserted []store.Article
	requests := 0
	for _, topic := range topics {
		for _, p := range eligible {
			if requests >= a.cfg.MaxRequestsPerRun {
				a.logger.Info("per-run request ceiling reached", "requests", requests)
				return inserted, nil
			}
			if err := ctx.Err(); err != nil {
				return inserted, err
			}
			if p.RemainingRequests() <= 0 {
				continue
			}
			if requests > 0 {
				a.sleep(ctx, a.cfg.Pacing)
			}

			callCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
			raw := p.FetchNews(callCtx, provider.Query{
				Regions: regions,
				Topics:  []string{topic},
				Search:  search,
				Since:   since,
			})
			cancel()
			requests++

			stored, err := a.persist(ctx, raw, regions)
			if err != nil {
				return inserted, err
			}
			inserted = append(inserted, stored...)
		}
	}

	a.logger.Info("aggregation cycle complete", "requests", requests, "new_articles", len(inserted))
	return inserted, nil
}

// persist classifies and inserts raw articles, skipping duplicates. Each
// successful insert triggers async fan-out and clears the read cache.
func (a *Aggregator) persist(ctx context.Context, raw []provider.RawArticle, regions []string) ([]store.Article, error) {
	var inserted []store.Article
	for _, r := range raw {
		region := r.Region
		if region == "" {
			region = classify.Classify(r.Title, r.Summary, regions)
		}

		existing, err := a.articles.GetByLink(ctx, r.Link)
		if err != nil {
			return inserted, fmt.Errorf("check existing article: %w", err)
		}
		if existing != nil {
			// Link uniqueness wins even when the incoming copy is newer.
			if r.Date.After(existing.Date) {
				a.logger.Debug("newer duplicate ignored", "link", r.Link)
			}
			continue
		}

		stored, err := a.articles.Insert(ctx, store.Article{
			Title:    r.Title,
			Summary:  r.Summary,
			Region:   region,
			Topic:    r.Topic,
			Date:     r.Date,
			Link:     r.Link,
			ImageURL: r.ImageURL,
		})
		if errors.Is(err, store.ErrDuplicate) {
			// A concurrent run won the race; the constraint is the arbiter.
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("insert article: %w", err)
		}

		inserted = append(inserted, *stored)
		a.notifier.Notify(*stored)
		a.cache.InvalidateAll()
	}
	return inserted, nil
}

// earliestKnownDate returns the earliest of the latest stored dates across
// all (region, topic) combinations, bounding how far back providers need to
// look. The zero time means at least one combination has no stored articles.
func (a *Aggregator) earliestKnownDate(ctx context.Context, regions, topics []string) time.Time {
	var earliest time.Time
	for _, region := range regions {
		for _, topic := range topics {
			latest, err := a.articles.LatestDate(ctx, region, topic)
			if err != nil {
				a.logger.Warn("latest date lookup failed", "region", region, "topic", topic, "error", err)
				return time.Time{}
			}
			if latest.IsZero() {
				return time.Time{}
			}
			if earliest.IsZero() || latest.Before(earliest) {
				earliest = latest
			}
		}
	}
	return earliest
}
