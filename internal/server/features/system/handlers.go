package system

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/server/features/common"
)

// Pinger reports database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers provides HTTP handlers for the system feature.
type Handlers struct {
	db      Pinger
	cache   cache.Cache
	version string
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db Pinger, c cache.Cache, version string, logger *slog.Logger) *Handlers {
	return &Handlers{db: db, cache: c, version: version, logger: logger}
}

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	API     string `json:"api"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Root handles GET /.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, rootResponse{
		Message: "expensed API",
		Version: h.version,
		API:     "/api/v1",
	})
}

// Health handles GET /healthz. A dead database is fatal; a dead cache
// degrades the service but the API stays up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "up", Cache: "up"}
	status := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("database health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}

	if err := h.cache.Ping(r.Context()); err != nil {
		h.logger.Warn("cache health check failed", "error", err)
		resp.Cache = "down"
		if resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}

	common.JSON(w, status, resp)
}
