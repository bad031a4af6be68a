package model

import "encoding/json"

const (
	// Game room inbound
	MsgJoin     MessageType = "join"
	MsgPosition MessageType = "position"
	MsgAttack   MessageType = "attack"
	MsgDamage   MessageType = "damage"
	MsgRespawn  MessageType = "respawn"
	MsgChat     MessageType = "chat"

	// Game room outbound
	MsgGameState       MessageType = "game_state"
	MsgPlayerJoined    MessageType = "player_joined"
	MsgPlayerLeft      MessageType = "player_left"
	MsgPlayerPosition  MessageType = "player_position"
	MsgPlayerAttack    MessageType = "player_attack"
	MsgPlayerDamaged   MessageType = "player_damaged"
	MsgPlayerKilled    MessageType = "player_killed"
	MsgPlayerRespawned MessageType = "player_respawned"
	MsgChatError       MessageType = "chat_error"
	MsgMatchStart      MessageType = "match_start"
	MsgTimeUpdate      MessageType = "time_update"
	MsgMatchEnd        MessageType = "match_end"

	// Voice signaling, same tag in both directions
	MsgVoiceOffer        MessageType = "voice_offer"
	MsgVoiceAnswer       MessageType = "voice_answer"
	MsgVoiceICECandidate MessageType = "voice_ice_candidate"
)

// Inbound game messages

type JoinMessage struct {
	Name   string `json:"name"`
	Weapon string `json:"weapon"`
}

type PositionMessage struct {
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
	Weapon   string   `json:"weapon"`
}

type AttackMessage struct {
	Weapon    string `json:"weapon"`
	Position  Vec3   `json:"position"`
	Direction Vec3   `json:"direction"`
}

type DamageMessage struct {
	TargetID PlayerID `json:"targetId"`
	Damage   float64  `json:"damage"`
}

type ChatMessage struct {
	Message string `json:"message"`
}

// VoiceSignalMessage carries an opaque WebRTC negotiation payload. Exactly one
// of Offer, Answer or Candidate is set depending on the message type.
type VoiceSignalMessage struct {
	TargetID  PlayerID        `json:"targetId"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Outbound game messages

type GameStateEvent struct {
	Type           MessageType `json:"type"`
	Players        []*Player   `json:"players"`
	MatchStartTime int64       `json:"matchStartTime"`
	MatchDuration  int64       `json:"matchDuration"`
	TimeRemaining  int64       `json:"timeRemaining"`
	MatchEnded     bool        `json:"matchEnded"`
}

type PlayerJoinedEvent struct {
	Type   MessageType `json:"type"`
	Player *Player     `json:"player"`
}

type PlayerLeftEvent struct {
	Type       MessageType `json:"type"`
	PlayerID   PlayerID    `json:"playerId"`
	PlayerName string      `json:"playerName"`
}

type PlayerPositionEvent struct {
	Type     MessageType `json:"type"`
	PlayerID PlayerID    `json:"playerId"`
	Position Vec3        `json:"position"`
	Rotation Rotation    `json:"rotation"`
	Weapon   string      `json:"weapon"`
	Health   float64     `json:"health"`
}

type PlayerAttackEvent struct {
	Type      MessageType `json:"type"`
	PlayerID  PlayerID    `json:"playerId"`
	Weapon    string      `json:"weapon"`
	Position  Vec3        `json:"position"`
	Direction Vec3        `json:"direction"`
}

type PlayerDamagedEvent struct {
	Type       MessageType `json:"type"`
	TargetID   PlayerID    `json:"targetId"`
	AttackerID PlayerID    `json:"attackerId"`
	Damage     float64     `json:"damage"`
	Health     float64     `json:"health"` // before clamping, may be negative
}

type PlayerKilledEvent struct {
	Type        MessageType `json:"type"`
	TargetID    PlayerID    `json:"targetId"`
	KillerID    PlayerID    `json:"killerId"`
	KillerName  string      `json:"killerName"`
	TargetName  string      `json:"targetName"`
	KillerKills int         `json:"killerKills"`
}

type PlayerRespawnedEvent struct {
	Type     MessageType `json:"type"`
	PlayerID PlayerID    `json:"playerId"`
	Position Vec3        `json:"position"`
	Health   float64     `json:"health"`
}

type ChatEvent struct {
	Type       MessageType `json:"type"`
	PlayerID   PlayerID    `json:"playerId"`
	PlayerName string      `json:"playerName"`
	Message    string      `json:"message"`
}

type ChatErrorEvent struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type MatchStartEvent struct {
	Type           MessageType `json:"type"`
	MatchStartTime int64       `json:"matchStartTime"`
	MatchDuration  int64       `json:"matchDuration"`
}

type TimeUpdateEvent struct {
	Type          MessageType `json:"type"`
	TimeRemaining int64       `json:"timeRemaining"`
}

type MatchEndEvent struct {
	Type        MessageType  `json:"type"`
	WinnerID    *PlayerID    `json:"winnerId"`
	WinnerName  string       `json:"winnerName"`
	WinnerKills int          `json:"winnerKills"`
	Scoreboard  []ScoreEntry `json:"scoreboard"`
	Reward      int          `json:"reward"`
}

type VoiceSignalEvent struct {
	Type      MessageType     `json:"type"`
	FromID    PlayerID        `json:"fromId"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}
