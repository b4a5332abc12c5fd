package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

// HealthCheck probes a dependency; nil means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandler returns a health check endpoint. A nil check always reports healthy.
func HealthHandler(backend string, check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status":  "unhealthy",
					"storage": backend,
					"error":   err.Error(),
				})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"storage": backend,
		})
	}
}
