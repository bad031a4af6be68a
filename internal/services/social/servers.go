package social

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/storage"
)

const (
	roomIDPrefix   = "friends-"
	roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	roomIDLength   = 8

	msgServerInactive  = "Server no longer active."
	msgNotOnFriendList = "You are not on the friends list for this server."
)

func (r *Room) getServer(ctx context.Context, roomID string) (*model.FriendsServer, error) {
	server, err := storage.GetJSON[model.FriendsServer](ctx, r.room.Storage(), serverKey(roomID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return server, nil
}

func (r *Room) saveServer(ctx context.Context, server *model.FriendsServer) error {
	return storage.PutJSON(ctx, r.room.Storage(), serverKey(server.RoomID), server)
}

func (r *Room) hostedServers(ctx context.Context, deviceID model.DeviceID) ([]string, error) {
	ids, err := storage.GetJSON[[]string](ctx, r.room.Storage(), hostedKey(deviceID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return *ids, nil
}

func (r *Room) wsURL(roomID string) string {
	return r.config.PublicGameURL + roomID
}

// CreateFriendsServer opens a private game room for the host and a snapshot
// of the host's current friends
func (r *Room) CreateFriendsServer(ctx context.Context, conn party.Conn, msg *model.DeviceMessage) error {
	host, err := r.getProfile(ctx, msg.DeviceID)
	if err != nil || host == nil {
		return err
	}

	allowed := make([]model.DeviceID, 0, len(host.Friends)+1)
	allowed = append(allowed, host.DeviceID)
	allowed = append(allowed, host.Friends...)

	server := &model.FriendsServer{
		RoomID:           roomIDPrefix + r.random.String(roomIDLength, roomIDAlphabet),
		HostDeviceID:     host.DeviceID,
		HostUsername:     host.Username,
		AllowedDeviceIDs: allowed,
		Active:           true,
	}
	if err := r.saveServer(ctx, server); err != nil {
		return err
	}

	hosted, err := r.hostedServers(ctx, host.DeviceID)
	if err != nil {
		return err
	}
	hosted = append(hosted, server.RoomID)
	if err := storage.PutJSON(ctx, r.room.Storage(), hostedKey(host.DeviceID), hosted); err != nil {
		return err
	}

	r.logger.Info("friends server created",
		slog.String("room_id", server.RoomID),
		slog.String("host", string(host.DeviceID)),
		slog.Int("allowed", len(allowed)))

	r.reply(conn, model.FriendsServerCreatedEvent{
		Type:   model.MsgFriendsServerCreated,
		RoomID: server.RoomID,
		WSURL:  r.wsURL(server.RoomID),
	})

	available := model.FriendsServerAvailableEvent{
		Type: model.MsgFriendsServerAvailable,
		FriendsServerSummary: model.FriendsServerSummary{
			RoomID:       server.RoomID,
			HostUsername: server.HostUsername,
			HostDeviceID: server.HostDeviceID,
		},
	}
	for _, friendID := range host.Friends {
		r.notify(friendID, available)
	}
	return nil
}

// CloseFriendsServer deactivates a server. Only its host may close it.
func (r *Room) CloseFriendsServer(ctx context.Context, conn party.Conn, msg *model.FriendsServerMessage) error {
	server, err := r.getServer(ctx, msg.RoomID)
	if err != nil || server == nil || server.HostDeviceID != msg.DeviceID {
		return err
	}

	server.Active = false
	if err := r.saveServer(ctx, server); err != nil {
		return err
	}

	r.reply(conn, model.FriendsServerClosedEvent{
		Type:   model.MsgFriendsServerClosed,
		RoomID: server.RoomID,
	})
	return nil
}

// ValidateJoin approves a device for an active server whose allow-list
// snapshot contains it
func (r *Room) ValidateJoin(ctx context.Context, conn party.Conn, msg *model.FriendsServerMessage) error {
	server, err := r.getServer(ctx, msg.RoomID)
	if err != nil {
		return err
	}

	switch {
	case server == nil || !server.Active:
		r.reply(conn, model.JoinDeniedEvent{Type: model.MsgJoinDenied, Reason: msgServerInactive})
	case !server.Allows(msg.DeviceID):
		r.reply(conn, model.JoinDeniedEvent{Type: model.MsgJoinDenied, Reason: msgNotOnFriendList})
	default:
		r.reply(conn, model.JoinApprovedEvent{
			Type:   model.MsgJoinApproved,
			RoomID: server.RoomID,
			WSURL:  r.wsURL(server.RoomID),
		})
	}
	return nil
}

// activeServers lists the active servers hosted by the device or its friends
// that the device may join
func (r *Room) activeServers(ctx context.Context, profile *model.PlayerSocialData) ([]model.FriendsServerSummary, error) {
	hosts := make([]model.DeviceID, 0, len(profile.Friends)+1)
	hosts = append(hosts, profile.DeviceID)
	hosts = append(hosts, profile.Friends...)

	servers := []model.FriendsServerSummary{}
	for _, hostID := range hosts {
		roomIDs, err := r.hostedServers(ctx, hostID)
		if err != nil {
			return nil, err
		}
		for _, roomID := range roomIDs {
			server, err := r.getServer(ctx, roomID)
			if err != nil {
				return nil, err
			}
			if server == nil || !server.Active || !server.Allows(profile.DeviceID) {
				continue
			}
			servers = append(servers, model.FriendsServerSummary{
				RoomID:       server.RoomID,
				HostUsername: server.HostUsername,
				HostDeviceID: server.HostDeviceID,
			})
		}
	}
	return servers, nil
}

func (r *Room) deactivateHostedServers(ctx context.Context, deviceID model.DeviceID) error {
	roomIDs, err := r.hostedServers(ctx, deviceID)
	if err != nil {
		return err
	}
	for _, roomID := range roomIDs {
		server, err := r.getServer(ctx, roomID)
		if err != nil {
			return err
		}
		if server == nil || !server.Active {
			continue
		}
		server.Active = false
		if err := r.saveServer(ctx, server); err != nil {
			return err
		}
		r.logger.Info("friends server deactivated",
			slog.String("room_id", roomID),
			slog.String("host", string(deviceID)))
	}
	return nil
}
