package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkravets/newswire/pkg/storage"
)

// ErrDuplicate reports that an article with the same canonical link is
// already stored. Callers treat it as "already present", not as a failure.
var ErrDuplicate = errors.New("article already exists")

// Article is a stored news article. Articles are never mutated or deleted
// once persisted.
type Article struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Region   string    `json:"region"`
	Topic    string    `json:"topic"`
	Date     time.Time `json:"date"`
	Link     string    `json:"link"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

// Filter describes the predicates of an article query. Empty fields are
// skipped.
type Filter struct {
	Regions []string
	Topics  []string
	Search  string
}

// ArticleStore provides article persistence.
type ArticleStore struct {
	db *storage.DB
}

// NewArticleStore creates a store backed by the given database.
func NewArticleStore(db *storage.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleColumns = "id, title, summary, region, topic, date, link, COALESCE(image_url, '')"

// Query returns a page of articles matching the filter, newest first.
// Region filtering uses IN semantics, topic filtering matches any of the
// requested topics as a substring, and search matches title or summary.
func (s *ArticleStore) Query(ctx context.Context, f Filter, limit, offset int) ([]Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE 1=1"
	var params []any

	if len(f.Regions) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Regions)), ", ")
		query += " AND region IN (" + placeholders + ")"
		for _, r := range f.Regions {
			params = append(params, r)
		}
	}

	if len(f.Topics) > 0 {
		conditions := strings.TrimSuffix(strings.Repeat("topic LIKE ? OR ", len(f.Topics)), " OR ")
		query += " AND (" + conditions + ")"
		for _, t := range f.Topics {
			params = append(params, "%"+t+"%")
		}
	}

	if f.Search != "" {
		query += " AND (title LIKE ? OR summary LIKE ?)"
		pattern := "%" + f.Search + "%"
		params = append(params, pattern, pattern)
	}

	query += " ORDER BY date DESC LIMIT ? OFFSET ?"
	params = append(params, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var result []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Summary, &a.Region, &a.Topic, &a.Date, &a.Link, &a.ImageURL); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// GetByID returns an article by id, or nil if absent.
func (s *ArticleStore) GetByID(ctx context.Context, id int64) (*Article, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE id = ?", id)
	return scanArticle(row)
}

// GetByLink returns the stored article with the given canonical link, or nil
// if absent. This is the dedup existence check used by the orchestrator.
func (s *ArticleStore) GetByLink(ctx context.Context, link string) (*Article, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE link = ?", link)
	return scanArticle(row)
}

func scanArticle(row *sql.Row) (*Article, error) {
	a := &Article{}
	if err := row.Scan(&a.ID, &a.Title, &a.Summary, &a.Region, &a.Topic, &a.Date, &a.Link, &a.ImageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// LatestDate returns the most recent published date stored for a region and
// topic, used to bound re-fetch windows. The zero time means no articles.
func (s *ArticleStore) LatestDate(ctx context.Context, region, topic string) (time.Time, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT MAX(date) FROM articles WHERE region = ? AND topic LIKE ?",
		region, "%"+topic+"%")
	var latest sql.NullTime
	if err := row.Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("latest date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

// Insert stores a new article and returns it with its assigned id. A second
// insert of the same link returns ErrDuplicate and leaves the stored row
// untouched; the UNIQUE constraint resolves racing inserts.
func (s *ArticleStore) Insert(ctx context.Context, a Article) (*Article, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO articles (title, summary, region, topic, date, link, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Summary, a.Region, a.Topic, a.Date, a.Link, a.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrDuplicate
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

// Count returns the total number of stored articles.
func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}
