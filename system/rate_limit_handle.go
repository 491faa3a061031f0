package system

import (
	"net/http"

	"todo-app/middleware"
)

type RateLimitStatus struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"` // seconds until reset
}

// RateLimitStatusHandler reports the caller's budget in the limiter's window.
func RateLimitStatusHandler(limiter *middleware.RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := middleware.ByUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		remaining, reset, err := limiter.Status(r.Context(), key)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read rate limit")
			return
		}

		writeJSON(w, http.StatusOK, RateLimitStatus{
			Limit:     limiter.Limit,
			Remaining: remaining,
			Reset:     int64(reset.Seconds()),
		})
	}
}
