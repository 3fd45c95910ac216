package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pders01/folio/internal/aggregator"
	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/github"
)

// GitHubService is what the /api/github routes need from the aggregator.
type GitHubService interface {
	Get(ctx context.Context, category aggregator.Category) (interface{}, error)
	ClearCache(ctx context.Context) error
	GetRateLimitStatus(ctx context.Context) (*github.RateLimit, error)
}

const (
	actionClearCache = "clear-cache"
	actionRateLimit  = "rate-limit"
)

// maxActionBody bounds POST /api/github bodies.
const maxActionBody = 1 << 12

// GitHubHandler serves GET /api/github?type=...
func GitHubHandler(svc GitHubService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := aggregator.CategoryAll
		if t := r.URL.Query().Get("type"); t != "" {
			c, ok := aggregator.ParseCategory(t)
			if !ok {
				writeError(w, &ValidationError{Message: "Invalid type"})
				return
			}
			category = c
		}

		data, err := svc.Get(r.Context(), category)
		if err != nil {
			debuglog.WithFields(map[string]interface{}{
				"type":   category,
				"status": statusFor(err),
			}).Errorf("github request failed: %v", err)
			writeError(w, err)
			return
		}
		writeData(w, data)
	}
}

// GitHubActionHandler serves POST /api/github with {"action": ...}.
func GitHubActionHandler(svc GitHubService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&body); err != nil {
			writeError(w, &ValidationError{Message: "Invalid action"})
			return
		}

		switch body.Action {
		case actionClearCache:
			if err := svc.ClearCache(r.Context()); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Cache cleared successfully"})
		case actionRateLimit:
			rl, err := svc.GetRateLimitStatus(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeData(w, rl)
		default:
			writeError(w, &ValidationError{Message: "Invalid action"})
		}
	}
}
