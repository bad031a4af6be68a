// Package social implements the social room: accounts and sessions, friend
// codes, the friend graph and invite-only friends servers
package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/shatterrealms/internal/dependencies/clock"
	"github.com/mcoot/shatterrealms/internal/dependencies/random"
	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/services/auth"
)

// PartyName is the room type served by this package
const PartyName = "social"

// Config holds social room settings
type Config struct {
	// PublicGameURL is prefixed to a friends server room id to build its wsUrl
	PublicGameURL string

	// FriendCodeAttempts bounds the retries when a generated code is taken
	FriendCodeAttempts int

	Auth auth.Config
}

// DefaultConfig returns default social room settings
func DefaultConfig() Config {
	return Config{
		PublicGameURL:      "ws://localhost:8080/parties/game/",
		FriendCodeAttempts: 10,
		Auth:               auth.DefaultConfig(),
	}
}

// Room is the party.Server for the social room
type Room struct {
	room   party.Room
	random random.Random
	config Config
	logger *slog.Logger
	auth   *auth.Service

	// online maps a registered device to its live connection id
	online map[model.DeviceID]string
}

var _ party.Server = (*Room)(nil)

// NewFactory returns a party.Factory building social rooms
func NewFactory(clk clock.Clock, rnd random.Random, config Config) party.Factory {
	return func(room party.Room) party.Server {
		return New(room, clk, rnd, config)
	}
}

// New creates a social room bound to room
func New(room party.Room, clk clock.Clock, rnd random.Random, config Config) *Room {
	return &Room{
		room:   room,
		random: rnd,
		config: config,
		logger: room.Logger().With(slog.String("component", "social")),
		auth:   auth.New(room.Storage(), clk, rnd, config.Auth),
		online: make(map[model.DeviceID]string),
	}
}

func (r *Room) OnStart(context.Context) error { return nil }

func (r *Room) OnConnect(_ context.Context, conn party.Conn) {
	r.logger.Debug("social connection", slog.String("conn", conn.ID()))
}

// OnClose forgets the connection's device and deactivates every friends
// server it hosts
func (r *Room) OnClose(ctx context.Context, conn party.Conn) {
	r.release(ctx, conn.ID())
}

// release takes every device bound to connID offline and deactivates the
// friends servers those devices host
func (r *Room) release(ctx context.Context, connID string) {
	for deviceID, bound := range r.online {
		if bound != connID {
			continue
		}
		delete(r.online, deviceID)
		if err := r.deactivateHostedServers(ctx, deviceID); err != nil {
			r.logger.Error("failed to deactivate hosted servers",
				slog.String("device", string(deviceID)),
				slog.Any("error", err))
		}
	}
}

func (r *Room) OnAlarm(context.Context) {}

func (r *Room) OnMessage(ctx context.Context, conn party.Conn, data []byte) {
	msgType, err := model.DecodeEnvelope(data)
	if err != nil {
		r.logger.Warn("dropping message", slog.String("conn", conn.ID()), slog.Any("error", err))
		return
	}

	if err := r.dispatch(ctx, conn, msgType, data); err != nil {
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

func (r *Room) dispatch(ctx context.Context, conn party.Conn, msgType model.MessageType, data []byte) error {
	switch msgType {
	case model.MsgSignup:
		return handle(ctx, conn, data, r.Signup)
	case model.MsgLogin:
		return handle(ctx, conn, data, r.Login)
	case model.MsgCheckAuth:
		return handle(ctx, conn, data, r.CheckAuth)
	case model.MsgRegister:
		return handle(ctx, conn, data, r.Register)
	case model.MsgSendFriendRequest:
		return handle(ctx, conn, data, r.SendFriendRequest)
	case model.MsgRespondFriendRequest:
		return handle(ctx, conn, data, r.RespondFriendRequest)
	case model.MsgRemoveFriend:
		return handle(ctx, conn, data, r.RemoveFriend)
	case model.MsgGetFriends:
		return handle(ctx, conn, data, r.GetFriends)
	case model.MsgCreateFriendsServer:
		return handle(ctx, conn, data, r.CreateFriendsServer)
	case model.MsgCloseFriendsServer:
		return handle(ctx, conn, data, r.CloseFriendsServer)
	case model.MsgValidateJoin:
		return handle(ctx, conn, data, r.ValidateJoin)
	default:
		return fmt.Errorf("%w: %s", model.ErrUnknownMessageType, msgType)
	}
}

// handle decodes the message body and runs the typed handler
func handle[T any](ctx context.Context, conn party.Conn, data []byte, fn func(context.Context, party.Conn, *T) error) error {
	msg, err := model.Decode[T](data)
	if err != nil {
		return err
	}
	return fn(ctx, conn, msg)
}

// Online reports whether a device has a live registered connection
func (r *Room) Online(deviceID model.DeviceID) bool {
	_, ok := r.online[deviceID]
	return ok
}

// bind makes conn the live connection of deviceID. A connection speaks for
// one device at a time, so any other device it was bound to is released.
func (r *Room) bind(ctx context.Context, deviceID model.DeviceID, conn party.Conn) {
	if r.online[deviceID] == conn.ID() {
		return
	}
	r.release(ctx, conn.ID())
	r.online[deviceID] = conn.ID()
}

// notify sends msg to a device if it is online
func (r *Room) notify(deviceID model.DeviceID, msg any) {
	if connID, ok := r.online[deviceID]; ok {
		r.room.Send(connID, msg)
	}
}

func (r *Room) reply(conn party.Conn, msg any) {
	r.room.Send(conn.ID(), msg)
}

func requireDevice(deviceID model.DeviceID) error {
	if deviceID == "" {
		return fmt.Errorf("%w: missing deviceId", model.ErrMalformedMessage)
	}
	return nil
}
