package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkravets/newswire/pkg/storage"
)

// Subscription is one user's full set of interests.
type Subscription struct {
	Regions []string `json:"regions"`
	Topics  []string `json:"topics"`
}

// SubscriptionStore provides subscription persistence.
type SubscriptionStore struct {
	db *storage.DB
}

// NewSubscriptionStore creates a store backed by the given database.
func NewSubscriptionStore(db *storage.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// ReplaceAll atomically replaces a user's subscriptions with the cross
// product of regions and topics. On any failure the transaction rolls back
// and the prior subscriptions remain untouched.
func (s *SubscriptionStore) ReplaceAll(ctx context.Context, userID int64, regions, topics []string) error {
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM subscriptions WHERE user_id = ?", userID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO subscriptions (user_id, region, topic) VALUES (?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, region := range regions {
			for _, topic := range topics {
				if _, err := stmt.ExecContext(ctx, userID, region, topic); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace subscriptions for user %d: %w", userID, err)
	}
	return nil
}

// Add inserts a single (region, topic) interest for a user. An already
// existing pair is left as is.
func (s *SubscriptionStore) Add(ctx context.Context, userID int64, region, topic string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO subscriptions (user_id, region, topic) VALUES (?, ?, ?)",
		userID, region, topic)
	if err != nil {
		return fmt.Errorf("add subscription: %w", err)
	}
	return nil
}

// Remove deletes a single (region, topic) interest for a user.
func (s *SubscriptionStore) Remove(ctx context.Context, userID int64, region, topic string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE user_id = ? AND region = ? AND topic = ?",
		userID, region, topic)
	if err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

// Get returns the distinct regions and topics a user subscribes to.
func (s *SubscriptionStore) Get(ctx context.Context, userID int64) (Subscription, error) {
	var sub Subscription
	var err error
	if sub.Regions, err = s.distinctColumn(ctx,
		"SELECT DISTINCT region FROM subscriptions WHERE user_id = ? ORDER BY region", userID); err != nil {
		return Subscription{}, err
	}
	if sub.Topics, err = s.distinctColumn(ctx,
		"SELECT DISTINCT topic FROM subscriptions WHERE user_id = ? ORDER BY topic", userID); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// AllDistinct returns the distinct regions and topics across all users,
// used by the scheduler to scope a fetch cycle.
func (s *SubscriptionStore) AllDistinct(ctx context.Context) (regions, topics []string, err error) {
	if regions, err = s.distinctColumn(ctx,
		"SELECT DISTINCT region FROM subscriptions ORDER BY region"); err != nil {
		return nil, nil, err
	}
	if topics, err = s.distinctColumn(ctx,
		"SELECT DISTINCT topic FROM subscriptions ORDER BY topic"); err != nil {
		return nil, nil, err
	}
	return regions, topics, nil
}

// All returns every user's subscription set, used by notification fan-out.
func (s *SubscriptionStore) All(ctx context.Context) (map[int64]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, region, topic FROM subscriptions")
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	defer rows.Close()

	regionSets := make(map[int64]map[string]bool)
	topicSets := make(map[int64]map[string]bool)
	for rows.Next() {
		var userID int64
		var region, topic string
		if err := rows.Scan(&userID, &region, &topic); err != nil {
			return nil, err
		}
		if regionSets[userID] == nil {
			regionSets[userID] = make(map[string]bool)
			topicSets[userID] = make(map[string]bool)
		}
		regionSets[userID][region] = true
		topicSets[userID][topic] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make(map[int64]Subscription, len(regionSets))
	for userID, regions := range regionSets {
		sub := Subscription{}
		for r := range regions {
			sub.Regions = append(sub.Regions, r)
		}
		for t := range topicSets[userID] {
			sub.Topics = append(sub.Topics, t)
		}
		result[userID] = sub
	}
	return result, nil
}

func (s *SubscriptionStore) distinctColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
