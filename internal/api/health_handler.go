package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatline/backend/pkg/response"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db *pgxpool.Pool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports overall service health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// Live reports process liveness.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "alive"})
}

// Ready reports readiness to serve traffic, including store connectivity.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "NOT_READY", "database unreachable")
		return
	}
	response.OK(w, map[string]string{"status": "ready"})
}
