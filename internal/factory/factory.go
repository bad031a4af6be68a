package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/shatterrealms/internal/api"
	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
	"github.com/mcoot/shatterrealms/internal/dependencies/random"
	"github.com/mcoot/shatterrealms/internal/middleware"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/services/game"
	"github.com/mcoot/shatterrealms/internal/services/social"
	"github.com/mcoot/shatterrealms/internal/storage"
	"github.com/mcoot/shatterrealms/internal/storage/memory"
	redisstorage "github.com/mcoot/shatterrealms/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Websocket upgrade throttle defaults, per client IP
const (
	DefaultUpgradeRate  = rate.Limit(2)
	DefaultUpgradeBurst = 10
	upgradeLimiterTTL   = 10 * time.Minute
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Provider

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	Logger  *slog.Logger
	Manager *party.Manager

	// UpgradeLimiter is nil when upgrade throttling is disabled
	UpgradeLimiter *middleware.RateLimiter
}

// Config holds configuration for the application factory
type Config struct {
	// GameConfig holds match settings (optional)
	// If zero value, defaults to game.DefaultConfig()
	GameConfig game.Config
	// SocialConfig holds social room settings (optional)
	// Zero fields fall back to social.DefaultConfig()
	SocialConfig social.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// UpgradeRate and UpgradeBurst throttle websocket upgrades per client IP.
	// A zero rate uses the defaults; a negative rate disables throttling.
	UpgradeRate  rate.Limit
	UpgradeBurst int
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var provider storage.Provider
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		provider = memory.NewProvider()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisProvider, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		provider = redisProvider
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(provider, clock.New(), random.New(), gameConfig(cfg), socialConfig(cfg), logger)

	if cfg.UpgradeRate >= 0 {
		limit, burst := cfg.UpgradeRate, cfg.UpgradeBurst
		if limit == 0 {
			limit = DefaultUpgradeRate
		}
		if burst <= 0 {
			burst = DefaultUpgradeBurst
		}
		app.UpgradeLimiter = middleware.NewRateLimiter(limit, burst, upgradeLimiterTTL)
	}

	return app, nil
}

func gameConfig(cfg Config) game.Config {
	if cfg.GameConfig.MatchDuration == 0 {
		return game.DefaultConfig()
	}
	return cfg.GameConfig
}

func socialConfig(cfg Config) social.Config {
	out := cfg.SocialConfig
	defaults := social.DefaultConfig()
	if out.PublicGameURL == "" {
		out.PublicGameURL = defaults.PublicGameURL
	}
	if out.FriendCodeAttempts == 0 {
		out.FriendCodeAttempts = defaults.FriendCodeAttempts
	}
	if out.Auth.Iterations == 0 {
		out.Auth = defaults.Auth
	}
	return out
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(provider storage.Provider, clk clock.Clock, rnd random.Random, gameCfg game.Config, socialCfg social.Config, logger *slog.Logger) *App {
	manager := party.NewManager(provider, clk, logger)
	manager.Register(game.PartyName, game.NewFactory(clk, rnd, gameCfg))
	manager.Register(social.PartyName, social.NewFactory(clk, rnd, socialCfg))

	return &App{
		Storage: provider,
		Clock:   clk,
		Random:  rnd,
		Logger:  logger,
		Manager: manager,
	}
}

// Router builds the HTTP handler serving the app
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		Manager:        a.Manager,
		Storage:        a.Storage,
		UpgradeLimiter: a.UpgradeLimiter,
	})
}

// Close stops every room and releases the storage backend
func (a *App) Close() error {
	if a.UpgradeLimiter != nil {
		a.UpgradeLimiter.Stop()
	}
	a.Manager.Shutdown()
	return a.Storage.Close()
}
