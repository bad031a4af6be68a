// Package party hosts room instances. Every room runs on its own goroutine
// and sees connect, message, close and alarm events one at a time, so room
// servers never need locks of their own.
package party

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/shatterrealms/internal/storage"
)

// Errors
var (
	ErrUnknownParty   = errors.New("unknown party")
	ErrHostStopped    = errors.New("room host stopped")
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is one live client connection
type Conn interface {
	ID() string
	Send(msg []byte) error
	Close() error
}

// Room is the view of a room instance given to its Server
type Room interface {
	ID() string
	Party() string
	Storage() storage.Store
	Logger() *slog.Logger
	Now() time.Time

	// Send marshals msg as JSON and sends it to one connection.
	// It reports false when the connection is not live.
	Send(connID string, msg any) bool

	// Broadcast marshals msg once and sends it to every live connection
	// except the excluded ids
	Broadcast(msg any, exclude ...string)

	// Connection looks up a live connection
	Connection(connID string) (Conn, bool)

	// Connections returns all live connections
	Connections() []Conn

	// SetAlarm schedules OnAlarm at the given time, replacing any pending
	// alarm. The alarm is persisted and survives a restart of the host.
	SetAlarm(ctx context.Context, at time.Time) error

	// DeleteAlarm cancels the pending alarm, if any
	DeleteAlarm(ctx context.Context) error

	// Alarm returns the pending alarm time
	Alarm() (time.Time, bool)
}

// Server implements the behavior of one room type
type Server interface {
	// OnStart runs once before any other event, typically to load state
	OnStart(ctx context.Context) error
	OnConnect(ctx context.Context, conn Conn)
	OnMessage(ctx context.Context, conn Conn, data []byte)
	OnClose(ctx context.Context, conn Conn)
	OnAlarm(ctx context.Context)
}

// Factory builds the Server for a new room instance
type Factory func(room Room) Server
