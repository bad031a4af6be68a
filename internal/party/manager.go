package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
	"github.com/mcoot/shatterrealms/internal/metrics"
	"github.com/mcoot/shatterrealms/internal/storage"
)

const (
	schedulerParty = "__system"
	schedulerRoom  = "scheduler"
	alarmIndexKey  = "alarms"
)

// RoomRef names a room instance
type RoomRef struct {
	Party string `json:"party"`
	Room  string `json:"room"`
}

func (r RoomRef) String() string {
	return r.Party + "/" + r.Room
}

// Manager owns the running room hosts, creating them on first use
type Manager struct {
	storage storage.Provider
	clock   clock.Clock
	logger  *slog.Logger

	mu        sync.Mutex
	factories map[string]Factory
	hosts     map[RoomRef]*Host

	// indexMu guards the persisted set of rooms with pending alarms
	indexMu sync.Mutex
}

// NewManager creates a Manager backed by the given storage provider
func NewManager(provider storage.Provider, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		storage:   provider,
		clock:     clk,
		logger:    logger.With(slog.String("component", "party")),
		factories: make(map[string]Factory),
		hosts:     make(map[RoomRef]*Host),
	}
}

// Register adds a room type
func (m *Manager) Register(partyName string, factory Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[partyName] = factory
}

// Parties returns the registered room types in name order
func (m *Manager) Parties() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.factories))
	for name := range m.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetOrCreate returns the running host for a room, starting it if needed
func (m *Manager) GetOrCreate(ctx context.Context, partyName, roomID string) (*Host, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref := RoomRef{Party: partyName, Room: roomID}
	if host, ok := m.hosts[ref]; ok {
		return host, nil
	}

	factory, ok := m.factories[partyName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParty, partyName)
	}

	host := NewHost(partyName, roomID, m.storage.Room(partyName, roomID), m.clock, m.logger, factory)
	host.onAlarmChange = m.trackAlarm
	if err := host.Start(ctx); err != nil {
		return nil, fmt.Errorf("start room %s: %w", ref, err)
	}

	m.hosts[ref] = host
	metrics.Rooms.WithLabelValues(partyName).Inc()
	return host, nil
}

// Get returns a running host, or nil
func (m *Manager) Get(partyName, roomID string) *Host {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hosts[RoomRef{Party: partyName, Room: roomID}]
}

// RoomCount returns the number of running hosts
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hosts)
}

// CleanupIdle stops hosts with no connections and no pending alarm.
// Their state stays in storage and is reloaded on next use.
func (m *Manager) CleanupIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for ref, host := range m.hosts {
		if !host.Idle() {
			continue
		}
		host.Stop()
		delete(m.hosts, ref)
		metrics.Rooms.WithLabelValues(ref.Party).Dec()
		removed++
	}
	if removed > 0 {
		m.logger.Info("idle rooms cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// Resume starts every room that had a pending alarm when the process last
// stopped, so scheduled work continues without waiting for a client
func (m *Manager) Resume(ctx context.Context) error {
	refs, err := m.loadAlarmIndex(ctx)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if _, err := m.GetOrCreate(ctx, ref.Party, ref.Room); err != nil {
			m.logger.Error("failed to resume room",
				slog.String("room", ref.String()),
				slog.Any("error", err))
		}
	}
	if len(refs) > 0 {
		m.logger.Info("rooms resumed", slog.Int("count", len(refs)))
	}
	return nil
}

// Shutdown stops every host
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ref, host := range m.hosts {
		host.Stop()
		delete(m.hosts, ref)
		metrics.Rooms.WithLabelValues(ref.Party).Dec()
	}
	m.logger.Info("all rooms stopped")
}

func (m *Manager) indexStore() storage.Store {
	return m.storage.Room(schedulerParty, schedulerRoom)
}

func (m *Manager) loadAlarmIndex(ctx context.Context) ([]RoomRef, error) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()
	refs, err := storage.GetJSON[[]RoomRef](ctx, m.indexStore(), alarmIndexKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load alarm index: %w", err)
	}
	return *refs, nil
}

func (m *Manager) trackAlarm(partyName, roomID string, pending bool) {
	ctx := context.Background()
	ref := RoomRef{Party: partyName, Room: roomID}

	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	var refs []RoomRef
	if stored, err := storage.GetJSON[[]RoomRef](ctx, m.indexStore(), alarmIndexKey); err == nil {
		refs = *stored
	}

	found := -1
	for i, r := range refs {
		if r == ref {
			found = i
			break
		}
	}
	switch {
	case pending && found < 0:
		refs = append(refs, ref)
	case !pending && found >= 0:
		refs = append(refs[:found], refs[found+1:]...)
	default:
		return
	}

	if err := storage.PutJSON(ctx, m.indexStore(), alarmIndexKey, refs); err != nil {
		m.logger.Error("failed to update alarm index",
			slog.String("room", ref.String()),
			slog.Any("error", err))
	}
}
