// Package voice forwards WebRTC negotiation messages between two players
package voice

import (
	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/party"
)

// IsSignal reports whether msgType is a voice negotiation message
func IsSignal(msgType model.MessageType) bool {
	switch msgType {
	case model.MsgVoiceOffer, model.MsgVoiceAnswer, model.MsgVoiceICECandidate:
		return true
	}
	return false
}

// Relay forwards a signal to its target connection, tagged with the sender.
// Signals for a target that is not connected are dropped; the return value
// reports whether the signal was delivered.
func Relay(room party.Room, from model.PlayerID, msgType model.MessageType, signal *model.VoiceSignalMessage) bool {
	if signal.TargetID == "" {
		return false
	}
	return room.Send(string(signal.TargetID), model.VoiceSignalEvent{
		Type:      msgType,
		FromID:    from,
		Offer:     signal.Offer,
		Answer:    signal.Answer,
		Candidate: signal.Candidate,
	})
}
