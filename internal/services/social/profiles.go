package social

import (
	"context"
	"errors"

	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/storage"
)

const (
	friendCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	friendCodeLength   = 8
)

func playerKey(deviceID model.DeviceID) string { return "player:" + string(deviceID) }
func codeKey(code string) string               { return "code:" + code }
func serverKey(roomID string) string           { return "server:" + roomID }
func hostedKey(deviceID model.DeviceID) string { return "hosted:" + string(deviceID) }

// getProfile loads a device's social profile, returning nil if it has none
func (r *Room) getProfile(ctx context.Context, deviceID model.DeviceID) (*model.PlayerSocialData, error) {
	profile, err := storage.GetJSON[model.PlayerSocialData](ctx, r.room.Storage(), playerKey(deviceID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if profile.Friends == nil {
		profile.Friends = []model.DeviceID{}
	}
	if profile.PendingRequests == nil {
		profile.PendingRequests = []model.FriendRequest{}
	}
	return profile, nil
}

func (r *Room) saveProfile(ctx context.Context, profile *model.PlayerSocialData) error {
	return storage.PutJSON(ctx, r.room.Storage(), playerKey(profile.DeviceID), profile)
}

// provisionProfile creates the device's profile on first sight. An existing
// profile registered under a different username gets a fresh friend code and
// the directory is re-indexed.
func (r *Room) provisionProfile(ctx context.Context, deviceID model.DeviceID, username string) (*model.PlayerSocialData, error) {
	profile, err := r.getProfile(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	store := r.room.Storage()
	switch {
	case profile == nil:
		code, err := r.newFriendCode(ctx)
		if err != nil {
			return nil, err
		}
		profile = &model.PlayerSocialData{
			DeviceID:        deviceID,
			Username:        username,
			FriendCode:      code,
			Friends:         []model.DeviceID{},
			PendingRequests: []model.FriendRequest{},
		}
		if err := storage.PutJSON(ctx, store, codeKey(code), deviceID); err != nil {
			return nil, err
		}

	case profile.Username != username:
		if err := store.Delete(ctx, codeKey(profile.FriendCode)); err != nil {
			return nil, err
		}
		code, err := r.newFriendCode(ctx)
		if err != nil {
			return nil, err
		}
		profile.Username = username
		profile.FriendCode = code
		if err := storage.PutJSON(ctx, store, codeKey(code), deviceID); err != nil {
			return nil, err
		}
	}

	if err := r.saveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// newFriendCode generates a code not present in the directory, giving up
// after the configured number of retries
func (r *Room) newFriendCode(ctx context.Context) (string, error) {
	code := r.random.String(friendCodeLength, friendCodeAlphabet)
	for attempt := 0; attempt < r.config.FriendCodeAttempts; attempt++ {
		_, err := r.room.Storage().Get(ctx, codeKey(code))
		if errors.Is(err, storage.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		code = r.random.String(friendCodeLength, friendCodeAlphabet)
	}
	r.logger.Warn("friend code collision retries exhausted")
	return code, nil
}

// lookupFriendCode resolves a friend code to its owning device
func (r *Room) lookupFriendCode(ctx context.Context, code string) (model.DeviceID, error) {
	deviceID, err := storage.GetJSON[model.DeviceID](ctx, r.room.Storage(), codeKey(code))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return *deviceID, nil
}

// enrichFriends resolves friend device ids to summaries. Friends without a
// profile are skipped.
func (r *Room) enrichFriends(ctx context.Context, friends []model.DeviceID) ([]model.FriendSummary, error) {
	out := make([]model.FriendSummary, 0, len(friends))
	for _, id := range friends {
		friend, err := r.getProfile(ctx, id)
		if err != nil {
			return nil, err
		}
		if friend == nil {
			continue
		}
		out = append(out, model.FriendSummary{
			DeviceID:   friend.DeviceID,
			Username:   friend.Username,
			FriendCode: friend.FriendCode,
			Online:     r.Online(id),
		})
	}
	return out, nil
}

// friendsUpdated builds the friends_updated payload for a profile
func (r *Room) friendsUpdated(ctx context.Context, profile *model.PlayerSocialData, withServers bool) (*model.FriendsUpdatedEvent, error) {
	friends, err := r.enrichFriends(ctx, profile.Friends)
	if err != nil {
		return nil, err
	}
	event := &model.FriendsUpdatedEvent{
		Type:            model.MsgFriendsUpdated,
		Friends:         friends,
		PendingRequests: profile.PendingRequests,
	}
	if withServers {
		servers, err := r.activeServers(ctx, profile)
		if err != nil {
			return nil, err
		}
		event.FriendsServers = servers
	}
	return event, nil
}
