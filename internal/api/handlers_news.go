package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkravets/newswire/internal/cache"
	"github.com/mkravets/newswire/internal/classify"
	"github.com/mkravets/newswire/internal/store"
)

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// handleListNews serves filtered, paginated article pages through the read
// cache. When no filters are given the requesting user's subscriptions scope
// the query, and an empty database result triggers a synchronous external
// fetch before responding.
func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	regions := splitCSV(q.Get("region"))
	topics := splitCSV(q.Get("topic"))
	search := q.Get("search")
	page := parsePositive(q.Get("page"), 1)
	limit := parsePositive(q.Get("limit"), 10)
	offset := (page - 1) * limit

	if len(regions) == 0 && len(topics) == 0 {
		if userID, err := strconv.ParseInt(q.Get("userId"), 10, 64); err == nil {
			sub, err := s.subs.Get(r.Context(), userID)
			if err != nil {
				s.logger.Error("load user subscriptions", "user", userID, "error", err)
				respondError(w, http.StatusInternalServerError, "Failed to fetch news")
				return
			}
			regions, topics = sub.Regions, sub.Topics
		}
	}

	key := cache.Key(regions, topics, search, page, limit)
	if cached, ok := s.cache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	filter := store.Filter{Regions: regions, Topics: topics, Search: search}
	articles, err := s.articles.Query(r.Context(), filter, limit, offset)
	if err != nil {
		s.logger.Error("query articles", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch news")
		return
	}

	// Cold path: nothing stored yet for these filters, pull from upstream.
	if len(articles) == 0 && (len(regions) > 0 || len(topics) > 0) {
		s.logger.Info("no stored articles for filters, fetching from providers")
		if _, err := s.runner.Run(r.Context(), regions, topics, search); err != nil {
			s.logger.Error("cold-path fetch failed", "error", err)
		} else if articles, err = s.articles.Query(r.Context(), filter, limit, offset); err != nil {
			s.logger.Error("re-query after fetch", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to fetch news")
			return
		}
	}

	if articles == nil {
		articles = []store.Article{}
	}
	s.cache.Put(key, articles)
	respondJSON(w, http.StatusOK, articles)
}

// handleGetNews serves a single article by id.
func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	article, err := s.articles.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("get article", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch news article")
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "News article not found")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// handleExternalFetch triggers an on-demand aggregation cycle. A failed
// fetch is a 502, distinct from a successful cycle that found nothing.
func (s *Server) handleExternalFetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	regions := splitCSV(q.Get("region"))
	topics := splitCSV(q.Get("topic"))
	if len(regions) == 0 {
		regions = classify.Regions()
	}
	if len(topics) == 0 {
		topics = []string{classify.General}
	}

	articles, err := s.runner.Run(r.Context(), regions, topics, q.Get("search"))
	if err != nil {
		s.logger.Error("on-demand fetch failed", "error", err)
		respondError(w, http.StatusBadGateway, "Failed to fetch and store news")
		return
	}
	if articles == nil {
		articles = []store.Article{}
	}
	respondJSON(w, http.StatusOK, articles)
}

type addNewsRequest struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Region   string    `json:"region"`
	Topic    string    `json:"topic"`
	Date     time.Time `json:"date"`
	Link     string    `json:"link"`
	ImageURL string    `json:"imageUrl"`
}

// handleAddNews inserts a single article directly (admin path).
func (s *Server) handleAddNews(w http.ResponseWriter, r *http.Request) {
	var req addNewsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Summary == "" || req.Link == "" || req.Date.IsZero() {
		respondError(w, http.StatusBadRequest, "title, summary, date, and link are required")
		return
	}
	if req.Region == "" {
		req.Region = classify.Classify(req.Title, req.Summary, nil)
	}

	stored, err := s.articles.Insert(r.Context(), store.Article{
		Title:    req.Title,
		Summary:  req.Summary,
		Region:   req.Region,
		Topic:    req.Topic,
		Date:     req.Date,
		Link:     req.Link,
		ImageURL: req.ImageURL,
	})
	if err == store.ErrDuplicate {
		respondError(w, http.StatusConflict, "article already exists")
		return
	}
	if err != nil {
		s.logger.Error("admin insert", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to add news article")
		return
	}

	s.cache.InvalidateAll()
	respondJSON(w, http.StatusCreated, stored)
}
