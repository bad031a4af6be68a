package model

import (
	"encoding/json"
	"time"
)

// Match timing and rewards
const (
	MatchDuration      = 5 * time.Minute
	MatchWinnerReward  = 75
	TimeUpdateInterval = 10 * time.Second
	ClockTickInterval  = time.Second
)

// Roster is an insertion-ordered mapping from player id to Player.
// The zero value is an empty roster ready to use.
type Roster struct {
	order   []PlayerID
	players map[PlayerID]*Player
}

// Get returns the player with the given id, or nil
func (r *Roster) Get(id PlayerID) *Player {
	if r.players == nil {
		return nil
	}
	return r.players[id]
}

// Put inserts or replaces a player. Replacing keeps the original position
// in the iteration order.
func (r *Roster) Put(p *Player) {
	if r.players == nil {
		r.players = make(map[PlayerID]*Player)
	}
	if _, ok := r.players[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.players[p.ID] = p
}

// Remove deletes a player, returning it if it was present
func (r *Roster) Remove(id PlayerID) *Player {
	p, ok := r.players[id]
	if !ok {
		return nil
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p
}

// Len returns the number of players
func (r *Roster) Len() int {
	return len(r.order)
}

// All returns the players in insertion order
func (r *Roster) All() []*Player {
	players := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}
	return players
}

// MarshalJSON encodes the roster as an ordered array of players
func (r Roster) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.All())
}

// UnmarshalJSON rebuilds the roster from an ordered array of players
func (r *Roster) UnmarshalJSON(data []byte) error {
	var players []*Player
	if err := json.Unmarshal(data, &players); err != nil {
		return err
	}
	*r = Roster{}
	for _, p := range players {
		if p != nil {
			r.Put(p)
		}
	}
	return nil
}

// MatchPhase is the lifecycle state of a game room's match
type MatchPhase string

const (
	MatchPhaseEmpty  MatchPhase = "empty"  // No players, no match
	MatchPhaseActive MatchPhase = "active" // Match clock running
	MatchPhaseEnded  MatchPhase = "ended"  // Match finished, waiting for a join
)

// MatchState is the authoritative state of a game room. It is persisted
// after every mutation so a restarted room can resume the match clock.
type MatchState struct {
	Players        Roster    `json:"players"`
	MatchStartTime int64     `json:"matchStartTime"` // unix millis, 0 when no match
	MatchDuration  int64     `json:"matchDuration"`  // millis
	MatchEnded     bool      `json:"matchEnded"`
	Winner         *PlayerID `json:"winner"`
	LastTimeUpdate int64     `json:"lastTimeUpdate"` // unix millis of the last time_update broadcast
}

// NewMatchState returns an empty match state
func NewMatchState() *MatchState {
	return &MatchState{
		MatchDuration: MatchDuration.Milliseconds(),
	}
}

// Phase derives the lifecycle phase from the state flags
func (m *MatchState) Phase() MatchPhase {
	switch {
	case m.MatchEnded:
		return MatchPhaseEnded
	case m.MatchStartTime == 0:
		return MatchPhaseEmpty
	default:
		return MatchPhaseActive
	}
}

// TimeRemaining returns the match time left in millis at now
func (m *MatchState) TimeRemaining(now time.Time) int64 {
	if m.MatchStartTime == 0 {
		return m.MatchDuration
	}
	remaining := m.MatchDuration - (now.UnixMilli() - m.MatchStartTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}
