package party

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
	"github.com/mcoot/shatterrealms/internal/metrics"
	"github.com/mcoot/shatterrealms/internal/storage"
)

// alarmKey is the reserved storage key holding the pending alarm
const alarmKey = "__alarm"

// eventBufferSize bounds the queue of events waiting for the room goroutine
const eventBufferSize = 256

type eventKind int

const (
	eventConnect eventKind = iota
	eventMessage
	eventClose
	eventAlarm
)

type event struct {
	kind eventKind
	conn Conn
	data []byte
	gen  uint64 // alarm generation, stale alarms are ignored
}

type persistedAlarm struct {
	At int64 `json:"at"` // unix millis
}

// Host runs a single room instance
type Host struct {
	party  string
	id     string
	store  storage.Store
	clock  clock.Clock
	logger *slog.Logger
	server Server

	// onAlarmChange is told whenever the room gains or loses a pending alarm
	onAlarmChange func(party, id string, pending bool)

	mu    sync.RWMutex
	conns map[string]Conn

	alarmMu    sync.Mutex
	alarmAt    time.Time
	alarmTimer clock.Timer
	alarmGen   uint64

	events  chan event
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewHost creates a host for one room instance. The server is built from
// factory with the host as its Room.
func NewHost(partyName, id string, store storage.Store, clk clock.Clock, logger *slog.Logger, factory Factory) *Host {
	h := &Host{
		party:   partyName,
		id:      id,
		store:   store,
		clock:   clk,
		logger:  logger.With(slog.String("party", partyName), slog.String("room", id)),
		conns:   make(map[string]Conn),
		events:  make(chan event, eventBufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	h.server = factory(h)
	return h
}

// Start loads the room, restores any persisted alarm and starts the event loop
func (h *Host) Start(ctx context.Context) error {
	if err := h.server.OnStart(ctx); err != nil {
		return err
	}

	alarm, err := storage.GetJSON[persistedAlarm](ctx, h.store, alarmKey)
	switch {
	case err == nil:
		h.armAlarm(time.UnixMilli(alarm.At))
		h.logger.Info("alarm restored", slog.Time("at", time.UnixMilli(alarm.At)))
	case !errors.Is(err, storage.ErrNotFound):
		h.logger.Error("failed to restore alarm", slog.Any("error", err))
	}

	go h.run()
	h.logger.Info("room started")
	return nil
}

// Stop ends the event loop and closes any live connections. Pending
// in-process timers are cancelled; the persisted alarm stays in storage.
func (h *Host) Stop() {
	h.once.Do(func() {
		close(h.done)
		h.alarmMu.Lock()
		if h.alarmTimer != nil {
			h.alarmTimer.Stop()
		}
		h.alarmMu.Unlock()
		<-h.stopped
		for _, conn := range h.Connections() {
			_ = conn.Close()
		}
	})
	<-h.stopped
}

// Connect registers a connection and queues OnConnect
func (h *Host) Connect(conn Conn) error {
	return h.submit(event{kind: eventConnect, conn: conn})
}

// Message queues an inbound message from conn
func (h *Host) Message(conn Conn, data []byte) error {
	return h.submit(event{kind: eventMessage, conn: conn, data: data})
}

// Disconnect queues OnClose for conn
func (h *Host) Disconnect(conn Conn) error {
	return h.submit(event{kind: eventClose, conn: conn})
}

func (h *Host) submit(e event) error {
	select {
	case <-h.done:
		return ErrHostStopped
	default:
	}
	select {
	case h.events <- e:
		return nil
	case <-h.done:
		return ErrHostStopped
	}
}

func (h *Host) run() {
	defer close(h.stopped)
	ctx := context.Background()
	for {
		select {
		case e := <-h.events:
			h.handle(ctx, e)
		case <-h.done:
			h.logger.Info("room stopped", slog.Int("connections", h.ConnectionCount()))
			return
		}
	}
}

func (h *Host) handle(ctx context.Context, e event) {
	defer func() {
		if err := recover(); err != nil {
			h.logger.Error("panic recovered in room handler", slog.Any("error", err))
		}
	}()

	switch e.kind {
	case eventConnect:
		h.mu.Lock()
		h.conns[e.conn.ID()] = e.conn
		count := len(h.conns)
		h.mu.Unlock()
		metrics.Connections.WithLabelValues(h.party).Inc()
		h.logger.Info("connection opened", slog.String("conn", e.conn.ID()), slog.Int("connections", count))
		h.server.OnConnect(ctx, e.conn)

	case eventMessage:
		if _, ok := h.Connection(e.conn.ID()); !ok {
			return
		}
		metrics.MessagesReceived.WithLabelValues(h.party).Inc()
		h.server.OnMessage(ctx, e.conn, e.data)

	case eventClose:
		h.mu.Lock()
		_, ok := h.conns[e.conn.ID()]
		delete(h.conns, e.conn.ID())
		count := len(h.conns)
		h.mu.Unlock()
		if !ok {
			return
		}
		metrics.Connections.WithLabelValues(h.party).Dec()
		h.logger.Info("connection closed", slog.String("conn", e.conn.ID()), slog.Int("connections", count))
		h.server.OnClose(ctx, e.conn)

	case eventAlarm:
		h.alarmMu.Lock()
		if e.gen != h.alarmGen || h.alarmAt.IsZero() {
			h.alarmMu.Unlock()
			return
		}
		h.alarmAt = time.Time{}
		h.alarmTimer = nil
		h.alarmMu.Unlock()

		if err := h.store.Delete(ctx, alarmKey); err != nil {
			h.logger.Error("failed to clear alarm", slog.Any("error", err))
		}
		h.notifyAlarm(false)
		h.server.OnAlarm(ctx)
	}
}

// Room implementation

func (h *Host) ID() string             { return h.id }
func (h *Host) Party() string          { return h.party }
func (h *Host) Storage() storage.Store { return h.store }
func (h *Host) Logger() *slog.Logger   { return h.logger }
func (h *Host) Now() time.Time         { return h.clock.Now() }

func (h *Host) Send(connID string, msg any) bool {
	conn, ok := h.Connection(connID)
	if !ok {
		return false
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode message", slog.Any("error", err))
		return false
	}
	return h.deliver(conn, data)
}

func (h *Host) Broadcast(msg any, exclude ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.Any("error", err))
		return
	}

	sent, dropped := 0, 0
	for _, conn := range h.Connections() {
		if excluded(conn.ID(), exclude) {
			continue
		}
		if h.deliver(conn, data) {
			sent++
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("broadcast partial failure",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
}

func (h *Host) deliver(conn Conn, data []byte) bool {
	if err := conn.Send(data); err != nil {
		h.logger.Warn("message dropped",
			slog.String("conn", conn.ID()),
			slog.Any("error", err))
		if errors.Is(err, ErrSendBufferFull) {
			_ = conn.Close()
		}
		return false
	}
	metrics.MessagesSent.WithLabelValues(h.party).Inc()
	return true
}

func excluded(id string, exclude []string) bool {
	for _, ex := range exclude {
		if ex == id {
			return true
		}
	}
	return false
}

func (h *Host) Connection(connID string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[connID]
	return conn, ok
}

func (h *Host) Connections() []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// ConnectionCount returns the number of live connections
func (h *Host) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// SetAlarm arms the in-process timer before persisting it, so a failed write
// only loses the alarm across a restart
func (h *Host) SetAlarm(ctx context.Context, at time.Time) error {
	h.armAlarm(at)
	if err := storage.PutJSON(ctx, h.store, alarmKey, persistedAlarm{At: at.UnixMilli()}); err != nil {
		return fmt.Errorf("persist alarm: %w", err)
	}
	return nil
}

func (h *Host) DeleteAlarm(ctx context.Context) error {
	h.alarmMu.Lock()
	hadAlarm := !h.alarmAt.IsZero()
	if h.alarmTimer != nil {
		h.alarmTimer.Stop()
	}
	h.alarmGen++
	h.alarmAt = time.Time{}
	h.alarmTimer = nil
	h.alarmMu.Unlock()

	if hadAlarm {
		h.notifyAlarm(false)
	}
	return h.store.Delete(ctx, alarmKey)
}

func (h *Host) Alarm() (time.Time, bool) {
	h.alarmMu.Lock()
	defer h.alarmMu.Unlock()
	return h.alarmAt, !h.alarmAt.IsZero()
}

// armAlarm replaces the in-process timer. Past-due alarms fire immediately.
func (h *Host) armAlarm(at time.Time) {
	h.alarmMu.Lock()
	if h.alarmTimer != nil {
		h.alarmTimer.Stop()
	}
	h.alarmGen++
	gen := h.alarmGen
	h.alarmAt = at

	delay := at.Sub(h.clock.Now())
	if delay < 0 {
		delay = 0
	}
	h.alarmTimer = h.clock.AfterFunc(delay, func() {
		_ = h.submit(event{kind: eventAlarm, gen: gen})
	})
	h.alarmMu.Unlock()

	h.notifyAlarm(true)
}

func (h *Host) notifyAlarm(pending bool) {
	if h.onAlarmChange != nil {
		h.onAlarmChange(h.party, h.id, pending)
	}
}

// Idle reports whether the room has no connections, no queued events and no
// pending alarm
func (h *Host) Idle() bool {
	if h.ConnectionCount() > 0 || len(h.events) > 0 {
		return false
	}
	_, pending := h.Alarm()
	return !pending
}
