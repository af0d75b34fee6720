package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mkravets/newswire/internal/store"
)

type staticSubs struct {
	subs map[int64]store.Subscription
}

func (s *staticSubs) All(ctx context.Context) (map[int64]store.Subscription, error) {
	return s.subs, nil
}

type recordingSender struct {
	mu         sync.Mutex
	deliveries []Delivery
	failUserID int64
}

func (r *recordingSender) Send(ctx context.Context, d Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.UserID == r.failUserID {
		return errors.New("delivery refused")
	}
	r.deliveries = append(r.deliveries, d)
	return nil
}

func (r *recordingSender) users() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, d := range r.deliveries {
		ids = append(ids, d.UserID)
	}
	return ids
}

func TestMatches(t *testing.T) {
	article := store.Article{Region: "California", Topic: "Politics,Elections"}

	tests := []struct {
		name string
		sub  store.Subscription
		want bool
	}{
		{"region match", store.Subscription{Regions: []string{"California"}}, true},
		{"topic match", store.Subscription{Topics: []string{"Elections"}}, true},
		{"either suffices", store.Subscription{Regions: []string{"Texas"}, Topics: []string{"Politics"}}, true},
		{"no match", store.Subscription{Regions: []string{"Texas"}, Topics: []string{"Sports"}}, false},
		{"empty subscription", store.Subscription{}, false},
		{"partial topic text does not match", store.Subscription{Topics: []string{"Politic"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(article, tt.sub); got != tt.want {
				t.Fatalf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func waitForDeliveries(t *testing.T, sender *recordingSender, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if len(sender.users()) >= want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d deliveries, got %d", want, len(sender.users()))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFanout_NotifiesMatchingSubscribers(t *testing.T) {
	subs := &staticSubs{subs: map[int64]store.Subscription{
		1: {Regions: []string{"California"}},
		2: {Topics: []string{"Politics"}},
		3: {Regions: []string{"Texas"}, Topics: []string{"Sports"}},
	}}
	sender := &recordingSender{failUserID: -1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(subs, sender)
	f.Start(ctx)
	f.Notify(store.Article{Region: "California", Topic: "Politics", Title: "Capitol vote"})

	waitForDeliveries(t, sender, 2)
	users := sender.users()
	if len(users) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(users))
	}
	for _, id := range users {
		if id == 3 {
			t.Fatal("user 3 must not be notified")
		}
	}
}

func TestFanout_FailureIsolatedPerSubscriber(t *testing.T) {
	subs := &staticSubs{subs: map[int64]store.Subscription{
		1: {Regions: []string{"California"}},
		2: {Regions: []string{"California"}},
	}}
	sender := &recordingSender{failUserID: 1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(subs, sender)
	f.Start(ctx)
	f.Notify(store.Article{Region: "California", Topic: "Weather"})

	waitForDeliveries(t, sender, 1)
	users := sender.users()
	if len(users) != 1 || users[0] != 2 {
		t.Fatalf("expected delivery to user 2 despite user 1 failure, got %v", users)
	}
}

func TestFanout_DeliveriesCarryUniqueIDs(t *testing.T) {
	subs := &staticSubs{subs: map[int64]store.Subscription{
		1: {Regions: []string{"California"}},
		2: {Regions: []string{"California"}},
	}}
	sender := &recordingSender{failUserID: -1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := New(subs, sender)
	f.Start(ctx)
	f.Notify(store.Article{Region: "California"})

	waitForDeliveries(t, sender, 2)
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.deliveries[0].ID == sender.deliveries[1].ID || sender.deliveries[0].ID == "" {
		t.Fatal("expected distinct non-empty delivery ids")
	}
}
