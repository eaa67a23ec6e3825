package service

import (
	"context"
	"net/http"
	"time"

	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/store"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the store is reachable.
func HealthHandler(s store.Store, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			log.Error(ctx, "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
