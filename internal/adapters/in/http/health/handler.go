// Package health serves the liveness endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/adapters/dto"
)

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler answers GET /healthz.
type Handler struct {
	db      Pinger
	timeout time.Duration
}

// NewHandler creates a health handler. db may be nil.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db, timeout: 2 * time.Second}
}

// RegisterRoutes registers the health route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /healthz", h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{Status: "ok"}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			log := zerowrap.FromCtx(r.Context())
			log.Error().Err(err).Msg("database ping failed")
			resp = dto.HealthResponse{Status: "unavailable", Database: "down"}
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "up"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
