// Package chat throttles in-match chat per connection
package chat

import (
	"time"
	"unicode/utf8"

	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
)

const (
	// Window is the rolling period over which messages are counted
	Window = 10 * time.Second

	// MaxMessages is how many messages a connection may send per Window
	MaxMessages = 5

	// MaxLength is the longest chat message broadcast, in characters
	MaxLength = 200
)

// Limiter is a per-connection sliding-window rate limiter. It is owned by a
// single room and is not safe for concurrent use.
type Limiter struct {
	clock   clock.Clock
	window  time.Duration
	max     int
	history map[string][]time.Time
}

// NewLimiter creates a limiter using the default window and message count
func NewLimiter(clk clock.Clock) *Limiter {
	return &Limiter{
		clock:   clk,
		window:  Window,
		max:     MaxMessages,
		history: make(map[string][]time.Time),
	}
}

// Allow prunes timestamps that have left the window and records a new
// message if the connection is under its allowance
func (l *Limiter) Allow(connID string) bool {
	now := l.clock.Now()

	kept := l.history[connID][:0]
	for _, t := range l.history[connID] {
		if now.Sub(t) < l.window {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.history[connID] = kept
		return false
	}

	l.history[connID] = append(kept, now)
	return true
}

// Forget drops all state for a connection
func (l *Limiter) Forget(connID string) {
	delete(l.history, connID)
}

// Reset drops state for every connection
func (l *Limiter) Reset() {
	l.history = make(map[string][]time.Time)
}

// Tracked returns the number of connections with recorded history
func (l *Limiter) Tracked() int {
	return len(l.history)
}

// Truncate shortens msg to MaxLength characters
func Truncate(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxLength {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:MaxLength])
}
