package model

// PlayerID identifies a player in a game room. It is the id of the
// player's connection.
type PlayerID string

// Default player attributes
const (
	DefaultMaxHealth = 100.0
	DefaultWeapon    = "sword"
)

// Vec3 is a position in world space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is a camera orientation (pitch on X, yaw on Y)
type Rotation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Player is a participant in a match
type Player struct {
	ID         PlayerID `json:"id"`
	Name       string   `json:"name"`
	Position   Vec3     `json:"position"`
	Rotation   Rotation `json:"rotation"`
	Health     float64  `json:"health"`
	MaxHealth  float64  `json:"maxHealth"`
	Kills      int      `json:"kills"`
	Deaths     int      `json:"deaths"`
	Weapon     string   `json:"weapon"`
	LastUpdate int64    `json:"lastUpdate"` // unix millis
}

// ScoreEntry is one row of the end-of-match scoreboard
type ScoreEntry struct {
	ID     PlayerID `json:"id"`
	Name   string   `json:"name"`
	Kills  int      `json:"kills"`
	Deaths int      `json:"deaths"`
}
