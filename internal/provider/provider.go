// Package provider wraps the external news sources behind a common fetch
// contract with per-provider daily request quotas.
package provider

import (
	"context"
	"sync"
	"time"
)

// RawArticle is the provider-neutral shape of a fetched article, before
// persistence. Records missing a title, summary, date, or link never leave
// the adapter.
type RawArticle struct {
	Title    string
	Summary  string
	Region   string
	Topic    string
	Date     time.Time
	Link     string
	ImageURL string
}

// Query describes one fetch request. Regions double as classification
// candidates; Since bounds how far back to look (zero means unbounded).
type Query struct {
	Regions []string
	Topics  []string
	Search  string
	Since   time.Time
}

// Provider is the closed variant interface over external news sources.
// FetchNews absorbs all upstream failures: a network error, timeout, or
// malformed response yields an empty result, never a panic or error, so one
// failing provider cannot abort an aggregation cycle.
type Provider interface {
	Name() string
	FetchNews(ctx context.Context, q Query) []RawArticle
	RemainingRequests() int
	TrackUsage()
}

// Quota tracks daily request usage for one provider. State is process-local
// and guarded by a mutex; the counter resets when the wall-clock day rolls
// over.
type Quota struct {
	mu      sync.Mutex
	ceiling int
	used    int
	day     time.Time
	now     func() time.Time
}

// NewQuota creates a quota with the given daily ceiling.
func NewQuota(ceiling int) *Quota {
	return &Quota{ceiling: ceiling, now: time.Now}
}

// Remaining returns how many requests are left today.
func (q *Quota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	return q.ceiling - q.used
}

// Track records one request against today's ceiling.
func (q *Quota) Track() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollover()
	if q.used < q.ceiling {
		q.used++
	}
}

// rollover resets the counter at the day boundary. Caller holds the lock.
func (q *Quota) rollover() {
	today := q.now().Truncate(24 * time.Hour)
	if !today.Equal(q.day) {
		q.day = today
		q.used = 0
	}
}
