package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/shatterrealms/internal/api/response"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/storage"
)

const storagePingTimeout = 2 * time.Second

// HealthHandler reports liveness, storage reachability and the number of
// running rooms
type HealthHandler struct {
	manager *party.Manager
	storage storage.Provider
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(manager *party.Manager, provider storage.Provider, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{manager: manager, storage: provider, logger: logger}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, storageStatus, code := "ok", "ok", http.StatusOK

	if pinger, ok := h.storage.(storage.Pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), storagePingTimeout)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			h.logger.Warn("storage ping failed", slog.Any("error", err))
			status, storageStatus, code = "degraded", "unavailable", http.StatusServiceUnavailable
		}
	}

	response.JSON(w, code, response.Health{
		Status:  status,
		Storage: storageStatus,
		Rooms:   h.manager.RoomCount(),
		Parties: h.manager.Parties(),
	})
}
