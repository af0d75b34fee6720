// Package scheduler triggers periodic aggregation cycles scoped to the
// regions and topics users actually subscribe to.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkravets/newswire/internal/store"
)

// DefaultSpec runs a cycle every half hour.
const DefaultSpec = "*/30 * * * *"

// Runner executes one aggregation cycle.
type Runner interface {
	Run(ctx context.Context, regions, topics []string, search string) ([]store.Article, error)
}

// InterestSource supplies the distinct subscribed regions and topics.
type InterestSource interface {
	AllDistinct(ctx context.Context) (regions, topics []string, err error)
}

// Scheduler drives the aggregation orchestrator on a cron schedule. Ticks do
// not wait for a prior run to finish; overlapping runs are safe because the
// store's link constraint resolves racing inserts.
type Scheduler struct {
	cron   *cron.Cron
	subs   InterestSource
	runner Runner
	spec   string
	logger *slog.Logger
}

// New creates a scheduler with the given cron spec (DefaultSpec if empty).
func New(subs InterestSource, runner Runner, spec string) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{
		cron:   cron.New(),
		subs:   subs,
		runner: runner,
		spec:   spec,
		logger: slog.Default(),
	}
}

// Start registers the tick and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register cron job %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("gave up waiting for running jobs")
	}
	s.logger.Info("scheduler stopped")
}

// RunOnce executes a single cycle over all currently subscribed interests.
// A cycle with no subscribed regions or topics is skipped, not an error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	regions, topics, err := s.subs.AllDistinct(ctx)
	if err != nil {
		return fmt.Errorf("load distinct interests: %w", err)
	}
	if len(regions) == 0 || len(topics) == 0 {
		s.logger.Info("no subscribed regions or topics, skipping cycle")
		return nil
	}

	start := time.Now()
	inserted, err := s.runner.Run(ctx, regions, topics, "")
	if err != nil {
		return fmt.Errorf("aggregation cycle: %w", err)
	}
	s.logger.Info("scheduled cycle complete",
		"regions", len(regions), "topics", len(topics),
		"new_articles", len(inserted), "duration", time.Since(start))
	return nil
}
