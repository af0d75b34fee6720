package api

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

type subscribeRequest struct {
	UserID  int64    `json:"userId"`
	Regions []string `json:"regions"`
	Topics  []string `json:"topics"`
}

// handleReplaceSubscriptions atomically replaces a user's subscription set,
// clears the read cache, and prefetches news for the new interests in the
// background.
func (s *Server) handleReplaceSubscriptions(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || len(req.Regions) == 0 || len(req.Topics) == 0 {
		respondError(w, http.StatusBadRequest, "Missing userId, regions, or topics")
		return
	}

	if err := s.subs.ReplaceAll(r.Context(), req.UserID, req.Regions, req.Topics); err != nil {
		s.logger.Error("replace subscriptions", "user", req.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to subscribe to news")
		return
	}

	s.cache.InvalidateAll()
	s.logger.Info("subscriptions replaced", "user", req.UserID,
		"regions", len(req.Regions), "topics", len(req.Topics))

	// Prefetch for the new interests without holding up the response.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.runner.Run(ctx, req.Regions, req.Topics, ""); err != nil {
			s.logger.Error("post-subscribe prefetch failed", "user", req.UserID, "error", err)
		}
	}()

	respondJSON(w, http.StatusOK, map[string]string{"message": "Subscribed successfully"})
}

// handleGetSubscriptions returns a user's distinct regions and topics.
func (s *Server) handleGetSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	sub, err := s.subs.Get(r.Context(), userID)
	if err != nil {
		s.logger.Error("get subscriptions", "user", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch subscriptions")
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

type pairRequest struct {
	UserID int64  `json:"userId"`
	Region string `json:"region"`
	Topic  string `json:"topic"`
}

// handleAddSubscription adds a single (region, topic) interest.
func (s *Server) handleAddSubscription(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.Region == "" || req.Topic == "" {
		respondError(w, http.StatusBadRequest, "userId, region, and topic are required")
		return
	}

	if err := s.subs.Add(r.Context(), req.UserID, req.Region, req.Topic); err != nil {
		s.logger.Error("add subscription", "user", req.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to add subscription")
		return
	}
	s.cache.InvalidateAll()
	respondJSON(w, http.StatusCreated, map[string]any{"success": true})
}

// handleRemoveSubscription removes a single (region, topic) interest.
func (s *Server) handleRemoveSubscription(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.Region == "" || req.Topic == "" {
		respondError(w, http.StatusBadRequest, "userId, region, and topic are required")
		return
	}

	if err := s.subs.Remove(r.Context(), req.UserID, req.Region, req.Topic); err != nil {
		s.logger.Error("remove subscription", "user", req.UserID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to remove subscription")
		return
	}
	s.cache.InvalidateAll()
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
