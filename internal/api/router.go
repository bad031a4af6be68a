package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/shatterrealms/internal/api/handler"
	apimw "github.com/mcoot/shatterrealms/internal/api/middleware"
	"github.com/mcoot/shatterrealms/internal/middleware"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Manager *party.Manager
	Storage storage.Provider

	// UpgradeLimiter throttles websocket upgrades per client IP. Nil disables it.
	UpgradeLimiter *middleware.RateLimiter
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	partyHandler := handler.NewPartyHandler(cfg.Manager, cfg.Logger)
	usernameHandler := handler.NewUsernameHandler()
	healthHandler := handler.NewHealthHandler(cfg.Manager, cfg.Storage, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimw.Recovery(cfg.Logger)

	// Room connections
	parties := r.PathPrefix("/parties").Subrouter()
	parties.Use(recoveryMiddleware)
	parties.Use(loggingMiddleware)
	parties.Use(middleware.Metrics)
	if cfg.UpgradeLimiter != nil {
		parties.Use(apimw.RateLimit(cfg.UpgradeLimiter, cfg.Logger))
	}
	parties.HandleFunc("/{party}/{room}", partyHandler.Connect).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(middleware.Metrics)

	api.HandleFunc("/usernames/validate", usernameHandler.Validate).Methods(http.MethodPost)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
