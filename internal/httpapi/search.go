package httpapi

import (
	"net/http"
	"strconv"

	"github.com/pders01/folio/internal/search"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchHandler serves GET /api/search?q=...&limit=N.
func SearchHandler(s search.Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := defaultSearchLimit
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, &ValidationError{Message: "Invalid limit"})
				return
			}
			limit = min(n, maxSearchLimit)
		}

		results, err := s.Search(r.Context(), q.Get("q"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, results)
	}
}
