package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/notiteams/activity-api/pkg/logging"
)

// HealthPool is the minimal database surface the health probe needs.
type HealthPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	pool   HealthPool
	logger *logging.Logger
}

// NewHealthHandler creates the health probe handler.
func NewHealthHandler(pool HealthPool, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{pool: pool, logger: logger}
}

// Check handles GET /healthz. A reachable but empty registry is healthy:
// the probe cares about connectivity, not data.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	var ok bool
	err := h.pool.QueryRow(r.Context(), "SELECT true FROM conversation_reference LIMIT 1").Scan(&ok)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusOK, map[string]any{"ok": nil})
	case err != nil:
		h.logger.Error("health check failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "database unreachable")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
	}
}
