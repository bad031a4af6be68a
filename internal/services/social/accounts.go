package social

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/services/auth"
	"github.com/mcoot/shatterrealms/internal/services/moderation"
)

const (
	msgCredentialsRequired = "Username and password are required."
	msgInvalidLogin        = "Invalid username or password."
	msgUsernameTaken       = "Username is already taken."
	msgPasswordTooShort    = "Password must be at least 6 characters."
)

func (r *Room) authError(conn party.Conn, message string) {
	r.reply(conn, model.ErrorEvent{Type: model.MsgAuthError, Message: message})
}

// Signup creates an account, opens a session and provisions the caller's
// social profile
func (r *Room) Signup(ctx context.Context, conn party.Conn, msg *model.CredentialsMessage) error {
	if err := requireDevice(msg.DeviceID); err != nil {
		return err
	}
	if err := moderation.ValidateUsername(msg.Username); err != nil {
		r.authError(conn, moderation.Reason(err))
		return nil
	}

	account, err := r.auth.CreateAccount(ctx, msg.Username, msg.Password, msg.DeviceID)
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		r.authError(conn, msgPasswordTooShort)
		return nil
	case errors.Is(err, auth.ErrUsernameExists):
		r.authError(conn, msgUsernameTaken)
		return nil
	case err != nil:
		return err
	}

	token, _, err := r.auth.CreateSession(ctx, account.Username, account.DeviceID)
	if err != nil {
		return err
	}

	r.bind(ctx, account.DeviceID, conn)
	profile, err := r.provisionProfile(ctx, account.DeviceID, account.Username)
	if err != nil {
		return err
	}

	r.logger.Info("account created",
		slog.String("username", account.Username),
		slog.String("device", string(account.DeviceID)))
	return r.sendAuthSuccess(ctx, conn, token, account.Username, account.DeviceID, profile)
}

// Login checks credentials and opens a session for the account's device
func (r *Room) Login(ctx context.Context, conn party.Conn, msg *model.CredentialsMessage) error {
	account, err := r.auth.Authenticate(ctx, msg.Username, msg.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		r.authError(conn, msgCredentialsRequired)
		return nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		r.authError(conn, msgInvalidLogin)
		return nil
	case err != nil:
		return err
	}

	token, _, err := r.auth.CreateSession(ctx, account.Username, account.DeviceID)
	if err != nil {
		return err
	}

	r.bind(ctx, account.DeviceID, conn)
	profile, err := r.getProfile(ctx, account.DeviceID)
	if err != nil {
		return err
	}
	return r.sendAuthSuccess(ctx, conn, token, account.Username, account.DeviceID, profile)
}

// CheckAuth resumes a session from its token
func (r *Room) CheckAuth(ctx context.Context, conn party.Conn, msg *model.CheckAuthMessage) error {
	session, err := r.auth.ValidateSession(ctx, msg.Token)
	if errors.Is(err, auth.ErrInvalidSession) {
		r.reply(conn, model.SignalEvent{Type: model.MsgAuthExpired})
		return nil
	}
	if err != nil {
		return err
	}

	r.bind(ctx, session.DeviceID, conn)
	profile, err := r.getProfile(ctx, session.DeviceID)
	if err != nil {
		return err
	}
	return r.sendAuthSuccess(ctx, conn, msg.Token, session.Username, session.DeviceID, profile)
}

// Register binds a device without credentials, provisioning its profile
func (r *Room) Register(ctx context.Context, conn party.Conn, msg *model.RegisterMessage) error {
	if err := requireDevice(msg.DeviceID); err != nil {
		return err
	}

	r.bind(ctx, msg.DeviceID, conn)
	profile, err := r.provisionProfile(ctx, msg.DeviceID, msg.Username)
	if err != nil {
		return err
	}

	friends, err := r.enrichFriends(ctx, profile.Friends)
	if err != nil {
		return err
	}
	servers, err := r.activeServers(ctx, profile)
	if err != nil {
		return err
	}

	r.reply(conn, model.RegisteredEvent{
		Type:            model.MsgRegistered,
		FriendCode:      profile.FriendCode,
		Friends:         friends,
		PendingRequests: profile.PendingRequests,
		FriendsServers:  servers,
	})
	return nil
}

// sendAuthSuccess replies with the session and the profile snapshot. A
// device without a profile gets empty lists.
func (r *Room) sendAuthSuccess(ctx context.Context, conn party.Conn, token, username string, deviceID model.DeviceID, profile *model.PlayerSocialData) error {
	event := model.AuthSuccessEvent{
		Type:            model.MsgAuthSuccess,
		Token:           token,
		Username:        username,
		DeviceID:        deviceID,
		Friends:         []model.FriendSummary{},
		PendingRequests: []model.FriendRequest{},
		FriendsServers:  []model.FriendsServerSummary{},
	}

	if profile != nil {
		friends, err := r.enrichFriends(ctx, profile.Friends)
		if err != nil {
			return err
		}
		servers, err := r.activeServers(ctx, profile)
		if err != nil {
			return err
		}
		event.FriendCode = profile.FriendCode
		event.Friends = friends
		event.PendingRequests = profile.PendingRequests
		event.FriendsServers = servers
	}

	r.reply(conn, event)
	return nil
}
