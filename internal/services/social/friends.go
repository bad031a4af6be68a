package social

import (
	"context"

	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/party"
)

const (
	msgPlayerNotFound = "Player not found."
	msgAddSelf        = "You can't add yourself."
	msgAlreadyFriends = "Already friends with this player."
	msgAlreadySent    = "Friend request already sent."
	msgNoPending      = "No pending friend request from this player."
)

func (r *Room) friendRequestError(conn party.Conn, message string) {
	r.reply(conn, model.ErrorEvent{Type: model.MsgFriendRequestError, Message: message})
}

// SendFriendRequest queues a request on the profile owning the target code
func (r *Room) SendFriendRequest(ctx context.Context, conn party.Conn, msg *model.SendFriendRequestMessage) error {
	sender, err := r.getProfile(ctx, msg.DeviceID)
	if err != nil || sender == nil {
		return err
	}

	targetID, err := r.lookupFriendCode(ctx, msg.TargetFriendCode)
	if err != nil {
		return err
	}
	if targetID == "" {
		r.friendRequestError(conn, msgPlayerNotFound)
		return nil
	}
	if targetID == msg.DeviceID {
		r.friendRequestError(conn, msgAddSelf)
		return nil
	}

	target, err := r.getProfile(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		r.friendRequestError(conn, msgPlayerNotFound)
		return nil
	}
	if sender.HasFriend(targetID) {
		r.friendRequestError(conn, msgAlreadyFriends)
		return nil
	}
	if target.HasPendingFrom(msg.DeviceID) {
		r.friendRequestError(conn, msgAlreadySent)
		return nil
	}

	request := model.FriendRequest{
		FromDeviceID:   sender.DeviceID,
		FromUsername:   sender.Username,
		FromFriendCode: sender.FriendCode,
	}
	target.PendingRequests = append(target.PendingRequests, request)
	if err := r.saveProfile(ctx, target); err != nil {
		return err
	}

	r.reply(conn, model.FriendRequestSentEvent{
		Type:             model.MsgFriendRequestSent,
		TargetFriendCode: msg.TargetFriendCode,
	})
	r.notify(targetID, model.FriendRequestReceivedEvent{
		Type:          model.MsgFriendRequestReceived,
		FriendRequest: request,
	})
	return nil
}

// RespondFriendRequest accepts or rejects a pending request. Accepting adds
// each side to the other's friend list.
func (r *Room) RespondFriendRequest(ctx context.Context, conn party.Conn, msg *model.RespondFriendRequestMessage) error {
	responder, err := r.getProfile(ctx, msg.DeviceID)
	if err != nil || responder == nil {
		return err
	}
	if !responder.HasPendingFrom(msg.FromDeviceID) {
		if msg.Accept {
			r.friendRequestError(conn, msgNoPending)
		}
		return nil
	}
	responder.DropPendingFrom(msg.FromDeviceID)

	if msg.Accept {
		requester, err := r.getProfile(ctx, msg.FromDeviceID)
		if err != nil {
			return err
		}
		if requester != nil {
			responder.AddFriend(msg.FromDeviceID)
			if requester.AddFriend(msg.DeviceID) {
				if err := r.saveProfile(ctx, requester); err != nil {
					return err
				}
			}
			r.notify(msg.FromDeviceID, model.FriendRequestAcceptedEvent{
				Type:       model.MsgFriendRequestAccepted,
				DeviceID:   responder.DeviceID,
				Username:   responder.Username,
				FriendCode: responder.FriendCode,
			})
		}
	}

	if err := r.saveProfile(ctx, responder); err != nil {
		return err
	}

	event, err := r.friendsUpdated(ctx, responder, false)
	if err != nil {
		return err
	}
	r.reply(conn, event)
	return nil
}

// RemoveFriend drops the friendship on both sides
func (r *Room) RemoveFriend(ctx context.Context, conn party.Conn, msg *model.RemoveFriendMessage) error {
	profile, err := r.getProfile(ctx, msg.DeviceID)
	if err != nil || profile == nil {
		return err
	}

	profile.RemoveFriend(msg.FriendDeviceID)
	if err := r.saveProfile(ctx, profile); err != nil {
		return err
	}

	friend, err := r.getProfile(ctx, msg.FriendDeviceID)
	if err != nil {
		return err
	}
	if friend != nil && friend.RemoveFriend(msg.DeviceID) {
		if err := r.saveProfile(ctx, friend); err != nil {
			return err
		}
		if r.Online(friend.DeviceID) {
			event, err := r.friendsUpdated(ctx, friend, false)
			if err != nil {
				return err
			}
			r.notify(friend.DeviceID, event)
		}
	}

	event, err := r.friendsUpdated(ctx, profile, false)
	if err != nil {
		return err
	}
	r.reply(conn, event)
	return nil
}

// GetFriends replies with the friend list, pending requests and joinable servers
func (r *Room) GetFriends(ctx context.Context, conn party.Conn, msg *model.DeviceMessage) error {
	profile, err := r.getProfile(ctx, msg.DeviceID)
	if err != nil || profile == nil {
		return err
	}

	event, err := r.friendsUpdated(ctx, profile, true)
	if err != nil {
		return err
	}
	r.reply(conn, event)
	return nil
}
