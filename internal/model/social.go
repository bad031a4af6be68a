package model

// DeviceID identifies a client installation. Social profiles are keyed by it.
type DeviceID string

// Account is a username/password credential. Keyed by the lowercased username.
type Account struct {
	Username      string   `json:"username"`
	UsernameLower string   `json:"usernameLower"`
	PasswordHash  string   `json:"passwordHash"` // hex PBKDF2-SHA256
	PasswordSalt  string   `json:"passwordSalt"` // hex
	DeviceID      DeviceID `json:"deviceId"`
	CreatedAt     int64    `json:"createdAt"` // unix millis
}

// Session maps an opaque token to an account
type Session struct {
	Username  string   `json:"username"`
	DeviceID  DeviceID `json:"deviceId"`
	ExpiresAt int64    `json:"expiresAt"` // unix millis
}

// FriendRequest is a pending incoming request on the target's profile
type FriendRequest struct {
	FromDeviceID   DeviceID `json:"fromDeviceId"`
	FromUsername   string   `json:"fromUsername"`
	FromFriendCode string   `json:"fromFriendCode"`
}

// PlayerSocialData is a device's social profile.
// Friends is a symmetric relation maintained by the social room handlers.
type PlayerSocialData struct {
	DeviceID        DeviceID        `json:"deviceId"`
	Username        string          `json:"username"`
	FriendCode      string          `json:"friendCode"`
	Friends         []DeviceID      `json:"friends"`
	PendingRequests []FriendRequest `json:"pendingRequests"`
}

// HasFriend reports whether id is in the friend list
func (p *PlayerSocialData) HasFriend(id DeviceID) bool {
	for _, f := range p.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// AddFriend adds id to the friend list if absent
func (p *PlayerSocialData) AddFriend(id DeviceID) bool {
	if p.HasFriend(id) {
		return false
	}
	p.Friends = append(p.Friends, id)
	return true
}

// RemoveFriend removes id from the friend list
func (p *PlayerSocialData) RemoveFriend(id DeviceID) bool {
	for i, f := range p.Friends {
		if f == id {
			p.Friends = append(p.Friends[:i], p.Friends[i+1:]...)
			return true
		}
	}
	return false
}

// HasPendingFrom reports whether a request from id is pending
func (p *PlayerSocialData) HasPendingFrom(id DeviceID) bool {
	for _, r := range p.PendingRequests {
		if r.FromDeviceID == id {
			return true
		}
	}
	return false
}

// DropPendingFrom removes any pending request from id
func (p *PlayerSocialData) DropPendingFrom(id DeviceID) {
	kept := p.PendingRequests[:0]
	for _, r := range p.PendingRequests {
		if r.FromDeviceID != id {
			kept = append(kept, r)
		}
	}
	p.PendingRequests = kept
}

// FriendsServer is a private game room restricted to an allow-list snapshot.
// Records are deactivated, never deleted.
type FriendsServer struct {
	RoomID           string     `json:"roomId"`
	HostDeviceID     DeviceID   `json:"hostDeviceId"`
	HostUsername     string     `json:"hostUsername"`
	AllowedDeviceIDs []DeviceID `json:"allowedDeviceIds"`
	Active           bool       `json:"active"`
}

// Allows reports whether id is in the allow-list snapshot
func (s *FriendsServer) Allows(id DeviceID) bool {
	for _, d := range s.AllowedDeviceIDs {
		if d == id {
			return true
		}
	}
	return false
}

// FriendSummary is a friend as presented to clients
type FriendSummary struct {
	DeviceID   DeviceID `json:"deviceId"`
	Username   string   `json:"username"`
	FriendCode string   `json:"friendCode"`
	Online     bool     `json:"online"`
}

// FriendsServerSummary is an active friends server as presented to clients
type FriendsServerSummary struct {
	RoomID       string   `json:"roomId"`
	HostUsername string   `json:"hostUsername"`
	HostDeviceID DeviceID `json:"hostDeviceId"`
}
