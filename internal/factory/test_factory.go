package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/shatterrealms/internal/dependencies/mocks"
	"github.com/mcoot/shatterrealms/internal/services/game"
	"github.com/mcoot/shatterrealms/internal/services/social"
	"github.com/mcoot/shatterrealms/internal/storage/memory"
)

// testIterations keeps password hashing cheap in tests
const testIterations = 1000

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	provider := memory.NewProvider()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	socialCfg := social.DefaultConfig()
	socialCfg.Auth.Iterations = testIterations

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	app := newWithDependencies(provider, mockClock, mockRandom, game.DefaultConfig(), socialCfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
