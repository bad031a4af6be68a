package testutil

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/storage"
	"github.com/mcoot/shatterrealms/internal/storage/memory"
)

// FakeConn records every message sent to it
type FakeConn struct {
	id string

	mu       sync.Mutex
	messages [][]byte
	closed   bool
	SendErr  error
}

// NewFakeConn creates a connection with the given id
func NewFakeConn(id string) *FakeConn {
	return &FakeConn{id: id}
}

var _ party.Conn = (*FakeConn)(nil)

func (c *FakeConn) ID() string { return c.id }

func (c *FakeConn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Messages returns a copy of the received messages
func (c *FakeConn) Messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.messages))
	copy(out, c.messages)
	return out
}

// Types returns the "type" field of each received message, in order
func (c *FakeConn) Types() []string {
	var types []string
	for _, msg := range c.Messages() {
		var env struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(msg, &env)
		types = append(types, env.Type)
	}
	return types
}

// Count returns how many received messages have the given type
func (c *FakeConn) Count(msgType string) int {
	n := 0
	for _, t := range c.Types() {
		if t == msgType {
			n++
		}
	}
	return n
}

// Reset forgets received messages
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Last decodes the most recent message of the given type into T
func Last[T any](c *FakeConn, msgType string) (*T, bool) {
	all := All[T](c, msgType)
	if len(all) == 0 {
		return nil, false
	}
	return all[len(all)-1], true
}

// All decodes every message of the given type into T
func All[T any](c *FakeConn, msgType string) []*T {
	var out []*T
	types := c.Types()
	for i, msg := range c.Messages() {
		if types[i] != msgType {
			continue
		}
		var v T
		if err := json.Unmarshal(msg, &v); err == nil {
			out = append(out, &v)
		}
	}
	return out
}

// FakeRoom is an in-process party.Room for driving a room server directly
type FakeRoom struct {
	id     string
	party  string
	store  *memory.Storage
	faults *FailingStore
	clock  clock.Clock
	logger *slog.Logger

	conns   []*FakeConn
	alarmAt time.Time
}

var _ party.Room = (*FakeRoom)(nil)

// NewFakeRoom creates a room backed by in-memory storage
func NewFakeRoom(partyName, id string, clk clock.Clock) *FakeRoom {
	store := memory.New()
	return &FakeRoom{
		id:     id,
		party:  partyName,
		store:  store,
		faults: NewFailingStore(store),
		clock:  clk,
		logger: NopLogger(),
	}
}

// WithStore replaces the backing store, e.g. to simulate a restart
func (r *FakeRoom) WithStore(store *memory.Storage) *FakeRoom {
	r.store = store
	r.faults = NewFailingStore(store)
	return r
}

// FailPuts makes writes through Storage fail with err until called with nil
func (r *FakeRoom) FailPuts(err error) { r.faults.FailPuts(err) }

// Store returns the concrete backing store
func (r *FakeRoom) Store() *memory.Storage { return r.store }

// AddConn registers a live connection
func (r *FakeRoom) AddConn(id string) *FakeConn {
	conn := NewFakeConn(id)
	r.conns = append(r.conns, conn)
	return conn
}

// RemoveConn unregisters a connection
func (r *FakeRoom) RemoveConn(id string) {
	for i, c := range r.conns {
		if c.id == id {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			return
		}
	}
}

func (r *FakeRoom) ID() string             { return r.id }
func (r *FakeRoom) Party() string          { return r.party }
func (r *FakeRoom) Storage() storage.Store { return r.faults }
func (r *FakeRoom) Logger() *slog.Logger   { return r.logger }
func (r *FakeRoom) Now() time.Time         { return r.clock.Now() }

func (r *FakeRoom) Send(connID string, msg any) bool {
	conn, ok := r.find(connID)
	if !ok {
		return false
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	return conn.Send(data) == nil
}

func (r *FakeRoom) Broadcast(msg any, exclude ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
outer:
	for _, conn := range r.conns {
		for _, ex := range exclude {
			if ex == conn.id {
				continue outer
			}
		}
		_ = conn.Send(data)
	}
}

func (r *FakeRoom) Connection(connID string) (party.Conn, bool) {
	conn, ok := r.find(connID)
	if !ok {
		return nil, false
	}
	return conn, true
}

func (r *FakeRoom) Connections() []party.Conn {
	out := make([]party.Conn, len(r.conns))
	for i, c := range r.conns {
		out[i] = c
	}
	return out
}

func (r *FakeRoom) find(id string) (*FakeConn, bool) {
	for _, c := range r.conns {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

func (r *FakeRoom) SetAlarm(_ context.Context, at time.Time) error {
	r.alarmAt = at
	return nil
}

func (r *FakeRoom) DeleteAlarm(_ context.Context) error {
	r.alarmAt = time.Time{}
	return nil
}

func (r *FakeRoom) Alarm() (time.Time, bool) {
	return r.alarmAt, !r.alarmAt.IsZero()
}
