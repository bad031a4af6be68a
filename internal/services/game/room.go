// Package game implements the match room: roster, combat, chat, voice relay
// and the match clock
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
	"github.com/mcoot/shatterrealms/internal/dependencies/random"
	"github.com/mcoot/shatterrealms/internal/metrics"
	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/services/chat"
	"github.com/mcoot/shatterrealms/internal/services/voice"
	"github.com/mcoot/shatterrealms/internal/storage"
)

// PartyName is the room type served by this package
const PartyName = "game"

// stateKey is the storage key of the persisted MatchState
const stateKey = "state"

// Spawn area: a square of ±SpawnHalfExtent around the origin at SpawnHeight
const (
	SpawnHalfExtent = 20.0
	SpawnHeight     = 1.7
)

const rateLimitMessage = "You're sending messages too fast. Please slow down."

// Config holds match rules
type Config struct {
	MatchDuration      time.Duration
	TickInterval       time.Duration
	TimeUpdateInterval time.Duration
	Reward             int
}

// DefaultConfig returns the standard match rules
func DefaultConfig() Config {
	return Config{
		MatchDuration:      model.MatchDuration,
		TickInterval:       model.ClockTickInterval,
		TimeUpdateInterval: model.TimeUpdateInterval,
		Reward:             model.MatchWinnerReward,
	}
}

// Room is the party.Server for a match
type Room struct {
	room   party.Room
	clock  clock.Clock
	random random.Random
	config Config
	logger *slog.Logger

	state *model.MatchState
	chat  *chat.Limiter
}

var _ party.Server = (*Room)(nil)

// NewFactory returns a party.Factory building match rooms
func NewFactory(clk clock.Clock, rnd random.Random, config Config) party.Factory {
	return func(room party.Room) party.Server {
		return New(room, clk, rnd, config)
	}
}

// New creates a match room bound to room
func New(room party.Room, clk clock.Clock, rnd random.Random, config Config) *Room {
	return &Room{
		room:   room,
		clock:  clk,
		random: rnd,
		config: config,
		logger: room.Logger().With(slog.String("component", "game")),
		state:  newState(config),
		chat:   chat.NewLimiter(clk),
	}
}

func newState(config Config) *model.MatchState {
	state := model.NewMatchState()
	state.MatchDuration = config.MatchDuration.Milliseconds()
	return state
}

// State returns the live match state
func (r *Room) State() *model.MatchState {
	return r.state
}

// OnStart loads the persisted match, if any
func (r *Room) OnStart(ctx context.Context) error {
	state, err := storage.GetJSON[model.MatchState](ctx, r.room.Storage(), stateKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load match state: %w", err)
	}
	r.state = state
	r.logger.Info("match state restored",
		slog.String("phase", string(state.Phase())),
		slog.Int("players", state.Players.Len()))
	return nil
}

func (r *Room) OnConnect(_ context.Context, conn party.Conn) {
	r.logger.Debug("awaiting join", slog.String("conn", conn.ID()))
}

func (r *Room) OnMessage(ctx context.Context, conn party.Conn, data []byte) {
	msgType, err := model.DecodeEnvelope(data)
	if err != nil {
		r.logger.Warn("dropping message", slog.String("conn", conn.ID()), slog.Any("error", err))
		return
	}

	if err := r.dispatch(ctx, model.PlayerID(conn.ID()), msgType, data); err != nil {
		level := slog.LevelError
		if errors.Is(err, model.ErrMalformedMessage) || errors.Is(err, model.ErrUnknownMessageType) {
			level = slog.LevelWarn
		}
		r.logger.Log(ctx, level, "message handling failed",
			slog.String("conn", conn.ID()),
			slog.String("type", string(msgType)),
			slog.Any("error", err))
	}
}

func (r *Room) dispatch(ctx context.Context, id model.PlayerID, msgType model.MessageType, data []byte) error {
	if voice.IsSignal(msgType) {
		msg, err := model.Decode[model.VoiceSignalMessage](data)
		if err != nil {
			return err
		}
		voice.Relay(r.room, id, msgType, msg)
		return nil
	}

	switch msgType {
	case model.MsgJoin:
		msg, err := model.Decode[model.JoinMessage](data)
		if err != nil {
			return err
		}
		return r.Join(ctx, id, msg)

	case model.MsgPosition:
		msg, err := model.Decode[model.PositionMessage](data)
		if err != nil {
			return err
		}
		r.Position(id, msg)
		return nil

	case model.MsgAttack:
		msg, err := model.Decode[model.AttackMessage](data)
		if err != nil {
			return err
		}
		r.Attack(id, msg)
		return nil

	case model.MsgDamage:
		msg, err := model.Decode[model.DamageMessage](data)
		if err != nil {
			return err
		}
		return r.Damage(ctx, id, msg)

	case model.MsgRespawn:
		return r.Respawn(ctx, id)

	case model.MsgChat:
		msg, err := model.Decode[model.ChatMessage](data)
		if err != nil {
			return err
		}
		r.Chat(id, msg)
		return nil

	default:
		return fmt.Errorf("%w: %s", model.ErrUnknownMessageType, msgType)
	}
}

func (r *Room) OnClose(ctx context.Context, conn party.Conn) {
	if err := r.Leave(ctx, model.PlayerID(conn.ID())); err != nil {
		r.logger.Error("leave failed", slog.String("conn", conn.ID()), slog.Any("error", err))
	}
}

// OnAlarm is the match clock tick
func (r *Room) OnAlarm(ctx context.Context) {
	if err := r.Tick(ctx); err != nil {
		r.logger.Error("clock tick failed", slog.Any("error", err))
	}
}

// Join adds a player for the connection, starting a match if none is running
func (r *Room) Join(ctx context.Context, id model.PlayerID, msg *model.JoinMessage) error {
	now := r.clock.Now()

	name := msg.Name
	if name == "" {
		name = defaultName(id)
	}
	weapon := msg.Weapon
	if weapon == "" {
		weapon = model.DefaultWeapon
	}

	player := &model.Player{
		ID:         id,
		Name:       name,
		Position:   r.spawnPosition(),
		Health:     model.DefaultMaxHealth,
		MaxHealth:  model.DefaultMaxHealth,
		Weapon:     weapon,
		LastUpdate: now.UnixMilli(),
	}
	r.state.Players.Put(player)

	if phase := r.state.Phase(); phase == model.MatchPhaseEmpty || phase == model.MatchPhaseEnded {
		if err := r.startMatch(ctx, now); err != nil {
			return err
		}
	}

	if err := r.persist(ctx); err != nil {
		return err
	}

	r.logger.Info("player joined",
		slog.String("player", string(id)),
		slog.String("name", name),
		slog.Int("players", r.state.Players.Len()))

	r.room.Send(string(id), model.GameStateEvent{
		Type:           model.MsgGameState,
		Players:        r.state.Players.All(),
		MatchStartTime: r.state.MatchStartTime,
		MatchDuration:  r.state.MatchDuration,
		TimeRemaining:  r.state.TimeRemaining(now),
		MatchEnded:     r.state.MatchEnded,
	})
	r.room.Broadcast(model.PlayerJoinedEvent{
		Type:   model.MsgPlayerJoined,
		Player: player,
	}, string(id))
	return nil
}

func (r *Room) startMatch(ctx context.Context, now time.Time) error {
	r.state.MatchStartTime = now.UnixMilli()
	r.state.MatchDuration = r.config.MatchDuration.Milliseconds()
	r.state.MatchEnded = false
	r.state.Winner = nil
	r.state.LastTimeUpdate = now.UnixMilli()

	for _, p := range r.state.Players.All() {
		p.Kills = 0
		p.Deaths = 0
		p.Health = p.MaxHealth
	}

	if err := r.room.SetAlarm(ctx, now.Add(r.config.TickInterval)); err != nil {
		return fmt.Errorf("schedule clock: %w", err)
	}

	r.logger.Info("match started", slog.Int("players", r.state.Players.Len()))
	r.room.Broadcast(model.MatchStartEvent{
		Type:           model.MsgMatchStart,
		MatchStartTime: r.state.MatchStartTime,
		MatchDuration:  r.state.MatchDuration,
	})
	return nil
}

// Position moves the sender's player and relays the move to everyone else
func (r *Room) Position(id model.PlayerID, msg *model.PositionMessage) {
	player := r.state.Players.Get(id)
	if player == nil {
		return
	}

	player.Position = msg.Position
	player.Rotation = msg.Rotation
	if msg.Weapon != "" {
		player.Weapon = msg.Weapon
	}
	player.LastUpdate = r.clock.Now().UnixMilli()

	r.room.Broadcast(model.PlayerPositionEvent{
		Type:     model.MsgPlayerPosition,
		PlayerID: id,
		Position: player.Position,
		Rotation: player.Rotation,
		Weapon:   player.Weapon,
		Health:   player.Health,
	}, string(id))
}

// Attack relays an attack animation to everyone else
func (r *Room) Attack(id model.PlayerID, msg *model.AttackMessage) {
	r.room.Broadcast(model.PlayerAttackEvent{
		Type:      model.MsgPlayerAttack,
		PlayerID:  id,
		Weapon:    msg.Weapon,
		Position:  msg.Position,
		Direction: msg.Direction,
	}, string(id))
}

// Damage applies a hit reported by the attacker
func (r *Room) Damage(ctx context.Context, attackerID model.PlayerID, msg *model.DamageMessage) error {
	if r.state.MatchEnded {
		return nil
	}
	target := r.state.Players.Get(msg.TargetID)
	attacker := r.state.Players.Get(attackerID)
	if target == nil || attacker == nil {
		return nil
	}

	target.Health -= msg.Damage

	// Health is broadcast before clamping so clients can show overkill
	r.room.Broadcast(model.PlayerDamagedEvent{
		Type:       model.MsgPlayerDamaged,
		TargetID:   target.ID,
		AttackerID: attackerID,
		Damage:     msg.Damage,
		Health:     target.Health,
	})

	if target.Health <= 0 {
		attacker.Kills++
		target.Deaths++
		target.Health = 0

		r.logger.Info("player killed",
			slog.String("target", string(target.ID)),
			slog.String("killer", string(attackerID)))

		r.room.Broadcast(model.PlayerKilledEvent{
			Type:        model.MsgPlayerKilled,
			TargetID:    target.ID,
			KillerID:    attackerID,
			KillerName:  attacker.Name,
			TargetName:  target.Name,
			KillerKills: attacker.Kills,
		})
	}

	return r.persist(ctx)
}

// Respawn restores the sender's player at a new spawn point
func (r *Room) Respawn(ctx context.Context, id model.PlayerID) error {
	player := r.state.Players.Get(id)
	if player == nil {
		return nil
	}

	player.Health = player.MaxHealth
	player.Position = r.spawnPosition()

	r.room.Broadcast(model.PlayerRespawnedEvent{
		Type:     model.MsgPlayerRespawned,
		PlayerID: id,
		Position: player.Position,
		Health:   player.Health,
	})
	return r.persist(ctx)
}

// Chat broadcasts a message from a joined player, subject to the rate limit
func (r *Room) Chat(id model.PlayerID, msg *model.ChatMessage) {
	player := r.state.Players.Get(id)
	if player == nil || msg.Message == "" {
		return
	}

	if !r.chat.Allow(string(id)) {
		r.room.Send(string(id), model.ChatErrorEvent{
			Type:    model.MsgChatError,
			Message: rateLimitMessage,
		})
		return
	}

	r.room.Broadcast(model.ChatEvent{
		Type:       model.MsgChat,
		PlayerID:   id,
		PlayerName: player.Name,
		Message:    chat.Truncate(msg.Message),
	})
}

// Leave removes the player for a closed connection. The match resets once
// nobody is left.
func (r *Room) Leave(ctx context.Context, id model.PlayerID) error {
	r.chat.Forget(string(id))

	if player := r.state.Players.Remove(id); player != nil {
		r.logger.Info("player left",
			slog.String("player", string(id)),
			slog.Int("players", r.state.Players.Len()))
		r.room.Broadcast(model.PlayerLeftEvent{
			Type:       model.MsgPlayerLeft,
			PlayerID:   id,
			PlayerName: player.Name,
		})
	}

	// Roster entries from before a restart have no live connection
	if r.state.Players.Len() == 0 || len(r.room.Connections()) == 0 {
		return r.reset(ctx)
	}
	return r.persist(ctx)
}

func (r *Room) reset(ctx context.Context) error {
	r.state = newState(r.config)
	r.chat.Reset()
	if err := r.room.DeleteAlarm(ctx); err != nil {
		return fmt.Errorf("cancel clock: %w", err)
	}
	r.logger.Info("match reset")
	return r.persist(ctx)
}

// Tick advances the match clock: it ends the match once time is up,
// otherwise sends a periodic time update and re-arms itself
func (r *Room) Tick(ctx context.Context) error {
	if r.state.Phase() != model.MatchPhaseActive {
		return nil
	}

	now := r.clock.Now()
	remaining := r.state.TimeRemaining(now)
	if remaining <= 0 {
		_, err := r.EndMatch(ctx)
		return err
	}

	// Re-arm first so a failed write cannot stop the clock
	alarmErr := r.room.SetAlarm(ctx, now.Add(r.config.TickInterval))

	if now.UnixMilli()-r.state.LastTimeUpdate >= r.config.TimeUpdateInterval.Milliseconds() {
		r.state.LastTimeUpdate = now.UnixMilli()
		r.room.Broadcast(model.TimeUpdateEvent{
			Type:          model.MsgTimeUpdate,
			TimeRemaining: remaining,
		})
		if err := r.persist(ctx); err != nil {
			return errors.Join(alarmErr, err)
		}
	}

	return alarmErr
}

// EndMatch finishes the running match. It reports false when the match had
// already ended.
func (r *Room) EndMatch(ctx context.Context) (bool, error) {
	if r.state.MatchEnded {
		return false, nil
	}
	r.state.MatchEnded = true

	if err := r.room.DeleteAlarm(ctx); err != nil {
		r.logger.Error("failed to cancel clock", slog.Any("error", err))
	}

	players := r.state.Players.All()
	winner := findWinner(players)

	event := model.MatchEndEvent{
		Type:       model.MsgMatchEnd,
		WinnerName: "No one",
		Scoreboard: scoreboard(players),
		Reward:     r.config.Reward,
	}
	if winner != nil {
		id := winner.ID
		r.state.Winner = &id
		event.WinnerID = &id
		event.WinnerName = winner.Name
		event.WinnerKills = winner.Kills
	}

	metrics.MatchesEnded.Inc()
	r.logger.Info("match ended",
		slog.String("winner", event.WinnerName),
		slog.Int("winner_kills", event.WinnerKills),
		slog.Int("players", len(players)))

	// The in-memory result stands even if it cannot be saved
	r.room.Broadcast(event)
	return true, r.persist(ctx)
}

// findWinner returns the player with the most kills. Ties go to the player
// who joined first.
func findWinner(players []*model.Player) *model.Player {
	var winner *model.Player
	maxKills := -1
	for _, p := range players {
		if p.Kills > maxKills {
			maxKills = p.Kills
			winner = p
		}
	}
	return winner
}

func scoreboard(players []*model.Player) []model.ScoreEntry {
	entries := make([]model.ScoreEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, model.ScoreEntry{
			ID:     p.ID,
			Name:   p.Name,
			Kills:  p.Kills,
			Deaths: p.Deaths,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Kills > entries[j].Kills
	})
	return entries
}

func (r *Room) spawnPosition() model.Vec3 {
	return model.Vec3{
		X: r.random.Float64()*2*SpawnHalfExtent - SpawnHalfExtent,
		Y: SpawnHeight,
		Z: r.random.Float64()*2*SpawnHalfExtent - SpawnHalfExtent,
	}
}

func defaultName(id model.PlayerID) string {
	short := string(id)
	if len(short) > 4 {
		short = short[:4]
	}
	return "Player_" + short
}

func (r *Room) persist(ctx context.Context) error {
	if err := storage.PutJSON(ctx, r.room.Storage(), stateKey, r.state); err != nil {
		return fmt.Errorf("persist match state: %w", err)
	}
	return nil
}
