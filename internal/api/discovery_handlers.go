package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/matcha-app/matcha/internal/discovery"
	"github.com/matcha-app/matcha/internal/middleware"
	"github.com/matcha-app/matcha/internal/profile"
)

// DiscoveryHandlers holds dependencies for discovery HTTP handlers.
type DiscoveryHandlers struct {
	ranker *discovery.Ranker
}

// NewDiscoveryHandlers creates a new DiscoveryHandlers instance.
func NewDiscoveryHandlers(ranker *discovery.Ranker) *DiscoveryHandlers {
	return &DiscoveryHandlers{ranker: ranker}
}

// requesterID extracts the authenticated user ID from the request.
// Authentication itself happens upstream; the gateway forwards the
// verified identity in the X-User-ID header.
func requesterID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

// parseLimitOffset parses limit and offset query parameters with bounds
// checking. Returns an error message if a parameter is malformed, empty
// string if valid.
func parseLimitOffset(r *http.Request, defaultLimit int) (limit, offset int, errMsg string) {
	limit = defaultLimit
	offset = 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, 0, "limit must be a positive integer"
		}
		if n > discovery.MaxLimit {
			n = discovery.MaxLimit
		}
		limit = n
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return 0, 0, "offset must be a non-negative integer"
		}
		offset = n
	}

	return limit, offset, ""
}

// writeDiscoveryError maps ranker errors onto the API error envelope.
func writeDiscoveryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, discovery.ErrInvalidCriteria):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, profile.ErrProfileNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Profile not found")
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load candidates")
	}
}

// writeResult writes a discovery result as JSON.
func writeResult(w http.ResponseWriter, result *discovery.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		// Response already started; nothing left to do
		return
	}
}

// GetDiscovery handles GET /v1/discovery - returns the ranked candidate feed.
func (h *DiscoveryHandlers) GetDiscovery(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Missing X-User-ID header")
		return
	}

	limit, offset, errMsg := parseLimitOffset(r, discovery.DefaultDiscoveryLimit)
	if errMsg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, errMsg)
		return
	}

	result, err := h.ranker.GetDiscovery(r.Context(), userID, limit, offset)
	if err != nil {
		writeDiscoveryError(w, r, err)
		return
	}

	writeResult(w, result)
}

// GetRandom handles GET /v1/discovery/random - returns a freshly shuffled
// batch of eligible candidates.
func (h *DiscoveryHandlers) GetRandom(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Missing X-User-ID header")
		return
	}

	limit, _, errMsg := parseLimitOffset(r, discovery.DefaultRandomLimit)
	if errMsg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, errMsg)
		return
	}

	result, err := h.ranker.GetRandom(r.Context(), userID, limit)
	if err != nil {
		writeDiscoveryError(w, r, err)
		return
	}

	writeResult(w, result)
}

// Search handles GET /v1/discovery/search - name substring search.
// A blank query returns an empty result rather than an error.
func (h *DiscoveryHandlers) Search(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Missing X-User-ID header")
		return
	}

	limit, offset, errMsg := parseLimitOffset(r, discovery.DefaultDiscoveryLimit)
	if errMsg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, errMsg)
		return
	}

	query := r.URL.Query().Get("q")

	result, err := h.ranker.Search(r.Context(), userID, query, limit, offset)
	if err != nil {
		writeDiscoveryError(w, r, err)
		return
	}

	writeResult(w, result)
}

// parseCriteria builds filter criteria from query parameters. Returns an
// error message for malformed numeric parameters; range and enum checks
// happen in Criteria.Validate.
func parseCriteria(r *http.Request) (discovery.Criteria, string) {
	var criteria discovery.Criteria
	query := r.URL.Query()

	intParam := func(name string) (*int, string) {
		raw := query.Get(name)
		if raw == "" {
			return nil, ""
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Sprintf("%s must be an integer", name)
		}
		return &n, ""
	}

	var errMsg string
	if criteria.AgeMin, errMsg = intParam("age_min"); errMsg != "" {
		return criteria, errMsg
	}
	if criteria.AgeMax, errMsg = intParam("age_max"); errMsg != "" {
		return criteria, errMsg
	}
	if criteria.MinFameRating, errMsg = intParam("min_fame_rating"); errMsg != "" {
		return criteria, errMsg
	}

	if raw := query.Get("max_distance_km"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return criteria, "max_distance_km must be a number"
		}
		criteria.MaxDistanceKm = &f
	}

	if raw := query.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				criteria.Tags = append(criteria.Tags, tag)
			}
		}
	}

	criteria.SortBy = query.Get("sort_by")
	criteria.SortOrder = query.Get("sort_order")

	return criteria, ""
}

// GetFiltered handles GET /v1/discovery/filter - criteria-driven browsing.
func (h *DiscoveryHandlers) GetFiltered(w http.ResponseWriter, r *http.Request) {
	userID := requesterID(r)
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Missing X-User-ID header")
		return
	}

	limit, offset, errMsg := parseLimitOffset(r, discovery.DefaultDiscoveryLimit)
	if errMsg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, errMsg)
		return
	}

	criteria, errMsg := parseCriteria(r)
	if errMsg != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, errMsg)
		return
	}

	result, err := h.ranker.GetFiltered(r.Context(), userID, criteria, limit, offset)
	if err != nil {
		writeDiscoveryError(w, r, err)
		return
	}

	writeResult(w, result)
}
