// Package notify fans newly stored articles out to matching subscribers.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mkravets/newswire/internal/store"
	pubnotify "github.com/mkravets/newswire/pkg/notify"
)

// Delivery is one outbound notification for one subscriber.
type Delivery struct {
	ID      string
	UserID  int64
	Article store.Article
}

// Sender delivers one notification to one subscriber.
type Sender interface {
	Send(ctx context.Context, d Delivery) error
}

// SubscriptionSource supplies the full subscriber map for matching.
type SubscriptionSource interface {
	All(ctx context.Context) (map[int64]store.Subscription, error)
}

// maxConcurrentDeliveries bounds in-flight sends within one article's fan-out.
const maxConcurrentDeliveries = 8

// Fanout consumes newly inserted articles from a queue and notifies every
// matching subscriber. Enqueueing never blocks article persistence, and a
// failed delivery to one subscriber does not prevent the rest.
type Fanout struct {
	subs   SubscriptionSource
	sender Sender
	queue  chan store.Article
	logger *slog.Logger
	wg     sync.WaitGroup
}

// New creates a fan-out engine over the given subscription source and sender.
func New(subs SubscriptionSource, sender Sender) *Fanout {
	return &Fanout{
		subs:   subs,
		sender: sender,
		queue:  make(chan store.Article, 256),
		logger: slog.Default(),
	}
}

// Start launches the dispatch loop. It runs until ctx is cancelled.
func (f *Fanout) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case article := <-f.queue:
				f.dispatch(ctx, article)
			}
		}
	}()
}

// Wait blocks until the dispatch loop has exited.
func (f *Fanout) Wait() {
	f.wg.Wait()
}

// Notify enqueues an article for fan-out. Fire and forget: when the queue is
// full the article is dropped with a warning rather than stalling ingestion.
func (f *Fanout) Notify(article store.Article) {
	select {
	case f.queue <- article:
	default:
		f.logger.Warn("notification queue full, dropping article", "link", article.Link)
	}
}

// dispatch matches one article against all subscriptions and delivers to
// every match.
func (f *Fanout) dispatch(ctx context.Context, article store.Article) {
	subscriptions, err := f.subs.All(ctx)
	if err != nil {
		f.logger.Error("load subscriptions for fan-out", "error", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDeliveries)
	for userID, sub := range subscriptions {
		if !Matches(article, sub) {
			continue
		}
		d := Delivery{ID: uuid.NewString(), UserID: userID, Article: article}
		g.Go(func() error {
			if err := f.sender.Send(gctx, d); err != nil {
				// Per-subscriber isolation: log, never fail the group.
				f.logger.Error("notify subscriber failed", "user", d.UserID, "error", err)
			}
			return nil
		})
	}
	g.Wait()
}

// Matches reports whether a subscriber should be notified about an article:
// the article's region is in their region set, or any of the article's
// comma-joined topics is in their topic set.
func Matches(article store.Article, sub store.Subscription) bool {
	for _, region := range sub.Regions {
		if region == article.Region {
			return true
		}
	}
	for _, topic := range strings.Split(article.Topic, ",") {
		for _, want := range sub.Topics {
			if topic == want {
				return true
			}
		}
	}
	return false
}

// ChannelSender delivers notifications through the channel dispatcher.
type ChannelSender struct {
	dispatcher *pubnotify.Dispatcher
}

// NewChannelSender wraps a dispatcher as a fan-out Sender.
func NewChannelSender(d *pubnotify.Dispatcher) *ChannelSender {
	return &ChannelSender{dispatcher: d}
}

// Send forwards the delivery to every registered channel.
func (s *ChannelSender) Send(ctx context.Context, d Delivery) error {
	return s.dispatcher.SendAll(ctx, pubnotify.Message{
		ID:     d.ID,
		UserID: d.UserID,
		Title:  d.Article.Title,
		Body:   d.Article.Summary,
		Region: d.Article.Region,
		Topic:  d.Article.Topic,
		URL:    d.Article.Link,
	})
}
