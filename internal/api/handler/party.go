package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mcoot/shatterrealms/internal/party"
)

// connectAttempts bounds retries when a room is stopped by idle cleanup
// between lookup and connect
const connectAttempts = 2

// PartyHandler upgrades clients onto room instances
type PartyHandler struct {
	manager  *party.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewPartyHandler creates a new party handler
func NewPartyHandler(manager *party.Manager, logger *slog.Logger) *PartyHandler {
	return &PartyHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Game clients are served from other origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "party_handler")),
	}
}

// Connect handles GET /parties/{party}/{room}
func (h *PartyHandler) Connect(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	partyName, roomID := vars["party"], vars["room"]

	// Resolve the room before upgrading so unknown parties get a plain HTTP error
	host, err := h.manager.GetOrCreate(r.Context(), partyName, roomID)
	if err != nil {
		if !errors.Is(err, party.ErrUnknownParty) {
			h.logger.Error("failed to start room",
				slog.String("party", partyName),
				slog.String("room", roomID),
				slog.Any("error", err))
		}
		WriteError(w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response
		h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := party.NewWSConn(ws, h.logger)
	for attempt := 1; ; attempt++ {
		err = conn.Serve(host)
		if err == nil {
			return
		}
		if !errors.Is(err, party.ErrHostStopped) || attempt == connectAttempts {
			break
		}
		// Background context: the request context ends with the hijack
		host, err = h.manager.GetOrCreate(context.Background(), partyName, roomID)
		if err != nil {
			break
		}
	}

	h.logger.Warn("room unavailable",
		slog.String("party", partyName),
		slog.String("room", roomID),
		slog.Any("error", err))
	_ = conn.Close()
}
