package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/matcha-app/matcha/internal/fame"
	"github.com/matcha-app/matcha/internal/middleware"
	"github.com/matcha-app/matcha/internal/profile"
	"github.com/matcha-app/matcha/internal/relation"
)

// FameCache caches fame ratings and like counts in front of storage.
// *cache.Cache satisfies it; a nil cache means every read hits storage.
type FameCache interface {
	GetRating(ctx context.Context, userID string) (int, bool, error)
	LikeCount(ctx context.Context, userID string, load func(context.Context) (int, error)) (int, error)
	InvalidateLikeCount(ctx context.Context, userID string) error
}

// RelationHandlers holds dependencies for like/pass/block/view HTTP handlers.
type RelationHandlers struct {
	relations relation.Repository
	profiles  profile.Repository
	ratings   fame.RatingStore
	cache     FameCache
}

// NewRelationHandlers creates a new RelationHandlers instance.
// cache may be nil, in which case like counts and ratings are read
// straight from storage.
func NewRelationHandlers(relations relation.Repository, profiles profile.Repository, ratings fame.RatingStore, cache FameCache) *RelationHandlers {
	return &RelationHandlers{
		relations: relations,
		profiles:  profiles,
		ratings:   ratings,
		cache:     cache,
	}
}

// LikeResponse represents the response for a like action.
// Mutual reports whether the like completed a match.
type LikeResponse struct {
	Liked  bool `json:"liked"`
	Mutual bool `json:"mutual"`
}

// FameResponse represents the response for a fame rating lookup.
type FameResponse struct {
	UserID     string `json:"user_id"`
	FameRating int    `json:"fame_rating"`
	Likes      int    `json:"likes"`
}

// resolveTarget extracts actor and target IDs and verifies the target
// profile exists. Writes the error response and returns ok=false on
// failure.
func (h *RelationHandlers) resolveTarget(w http.ResponseWriter, r *http.Request) (actorID, targetID string, ok bool) {
	actorID = requesterID(r)
	if actorID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Missing X-User-ID header")
		return "", "", false
	}

	targetID = r.PathValue("id")
	if targetID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Missing user id in path")
		return "", "", false
	}

	if _, err := h.profiles.GetProfile(r.Context(), targetID); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Profile not found")
			return "", "", false
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load profile")
		return "", "", false
	}

	return actorID, targetID, true
}

// writeRelationError maps relation repository errors onto the API envelope.
func writeRelationError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, relation.ErrSelfRelation) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Cannot target yourself")
		return
	}
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
	WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record action")
}

// invalidateLikeCount drops the cached like count for a user after a like
// or unlike. Cache errors are advisory.
func (h *RelationHandlers) invalidateLikeCount(ctx context.Context, userID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.InvalidateLikeCount(ctx, userID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate like count", "user_id", userID, "error", err)
	}
}

// Like handles POST /v1/users/{id}/like.
func (h *RelationHandlers) Like(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	mutual, err := h.relations.Like(r.Context(), actorID, targetID)
	if err != nil {
		writeRelationError(w, r, err)
		return
	}

	h.invalidateLikeCount(r.Context(), targetID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(LikeResponse{Liked: true, Mutual: mutual}); err != nil {
		return
	}
}

// Unlike handles DELETE /v1/users/{id}/like. Removing a like dissolves
// any match it completed.
func (h *RelationHandlers) Unlike(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if err := h.relations.Unlike(r.Context(), actorID, targetID); err != nil {
		writeRelationError(w, r, err)
		return
	}

	h.invalidateLikeCount(r.Context(), targetID)

	w.WriteHeader(http.StatusNoContent)
}

// Pass handles POST /v1/users/{id}/pass.
func (h *RelationHandlers) Pass(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if err := h.relations.Pass(r.Context(), actorID, targetID); err != nil {
		writeRelationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unpass handles DELETE /v1/users/{id}/pass.
func (h *RelationHandlers) Unpass(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if err := h.relations.Unpass(r.Context(), actorID, targetID); err != nil {
		writeRelationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Block handles POST /v1/users/{id}/block.
func (h *RelationHandlers) Block(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if err := h.relations.Block(r.Context(), actorID, targetID); err != nil {
		writeRelationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unblock handles DELETE /v1/users/{id}/block.
func (h *RelationHandlers) Unblock(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if err := h.relations.Unblock(r.Context(), actorID, targetID); err != nil {
		writeRelationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordView handles POST /v1/users/{id}/view - records a profile view
// for the fame signal counters.
func (h *RelationHandlers) RecordView(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	if err := h.relations.RecordView(r.Context(), actorID, targetID); err != nil {
		writeRelationError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetFame handles GET /v1/users/{id}/fame - returns a user's fame rating
// and like count. The rating is the last persisted value; a user whose
// rating has never been computed reports the floor.
func (h *RelationHandlers) GetFame(w http.ResponseWriter, r *http.Request) {
	_, targetID, ok := h.resolveTarget(w, r)
	if !ok {
		return
	}

	rating := fame.MinRating
	cached := false
	if h.cache != nil {
		if v, hit, err := h.cache.GetRating(r.Context(), targetID); err == nil && hit {
			rating = v
			cached = true
		}
	}
	if !cached {
		v, err := h.ratings.GetRating(r.Context(), targetID)
		switch {
		case err == nil:
			rating = v
		case errors.Is(err, fame.ErrRatingNotFound):
			// Not yet recomputed; report the floor
		default:
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load fame rating")
			return
		}
	}

	loadLikes := func(ctx context.Context) (int, error) {
		return h.relations.CountLikesReceived(ctx, targetID)
	}

	var likes int
	var err error
	if h.cache != nil {
		likes, err = h.cache.LikeCount(r.Context(), targetID, loadLikes)
	} else {
		likes, err = loadLikes(r.Context())
	}
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load like count")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(FameResponse{UserID: targetID, FameRating: rating, Likes: likes}); err != nil {
		return
	}
}
