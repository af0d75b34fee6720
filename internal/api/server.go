// Package api provides the HTTP surface over the aggregation engine. It is
// request/response glue; all engine logic lives in the internal packages it
// delegates to.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkravets/newswire/internal/cache"
	"github.com/mkravets/newswire/internal/store"
)

// Runner executes an on-demand aggregation cycle.
type Runner interface {
	Run(ctx context.Context, regions, topics []string, search string) ([]store.Article, error)
}

// Server holds the dependencies for the API.
type Server struct {
	articles *store.ArticleStore
	subs     *store.SubscriptionStore
	runner   Runner
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewServer creates a new API Server instance.
func NewServer(articles *store.ArticleStore, subs *store.SubscriptionStore, runner Runner, c *cache.Cache) *Server {
	return &Server{
		articles: articles,
		subs:     subs,
		runner:   runner,
		cache:    c,
		logger:   slog.Default(),
	}
}

// Routes returns the configured http.Handler for the API. News routes sit
// behind a fixed-window per-IP rate limit.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	limiter := newRateLimiter(defaultRateLimit, defaultRateWindow)

	mux.Handle("GET /news", limiter.wrap(http.HandlerFunc(s.handleListNews)))
	mux.Handle("GET /news/external", limiter.wrap(http.HandlerFunc(s.handleExternalFetch)))
	mux.Handle("GET /news/{id}", limiter.wrap(http.HandlerFunc(s.handleGetNews)))
	mux.HandleFunc("POST /news", s.handleAddNews)

	mux.HandleFunc("GET /subscriptions", s.handleGetSubscriptions)
	mux.HandleFunc("POST /subscriptions", s.handleReplaceSubscriptions)
	mux.HandleFunc("POST /subscriptions/add", s.handleAddSubscription)
	mux.HandleFunc("POST /subscriptions/remove", s.handleRemoveSubscription)

	return mux
}

// --- Helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
