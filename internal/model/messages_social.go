package model

const (
	// Social room inbound
	MsgSignup               MessageType = "signup"
	MsgLogin                MessageType = "login"
	MsgCheckAuth            MessageType = "check_auth"
	MsgRegister             MessageType = "register"
	MsgSendFriendRequest    MessageType = "send_friend_request"
	MsgRespondFriendRequest MessageType = "respond_friend_request"
	MsgRemoveFriend         MessageType = "remove_friend"
	MsgGetFriends           MessageType = "get_friends"
	MsgCreateFriendsServer  MessageType = "create_friends_server"
	MsgCloseFriendsServer   MessageType = "close_friends_server"
	MsgValidateJoin         MessageType = "validate_join"

	// Social room outbound
	MsgAuthSuccess            MessageType = "auth_success"
	MsgAuthError              MessageType = "auth_error"
	MsgAuthExpired            MessageType = "auth_expired"
	MsgRegistered             MessageType = "registered"
	MsgFriendRequestSent      MessageType = "friend_request_sent"
	MsgFriendRequestReceived  MessageType = "friend_request_received"
	MsgFriendRequestAccepted  MessageType = "friend_request_accepted"
	MsgFriendRequestError     MessageType = "friend_request_error"
	MsgFriendsUpdated         MessageType = "friends_updated"
	MsgFriendsServerCreated   MessageType = "friends_server_created"
	MsgFriendsServerAvailable MessageType = "friends_server_available"
	MsgFriendsServerClosed    MessageType = "friends_server_closed"
	MsgJoinApproved           MessageType = "join_approved"
	MsgJoinDenied             MessageType = "join_denied"
)

// Inbound social messages

type CredentialsMessage struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	DeviceID DeviceID `json:"deviceId"`
}

type CheckAuthMessage struct {
	Token    string   `json:"token"`
	DeviceID DeviceID `json:"deviceId"`
}

type RegisterMessage struct {
	DeviceID DeviceID `json:"deviceId"`
	Username string   `json:"username"`
}

type SendFriendRequestMessage struct {
	DeviceID         DeviceID `json:"deviceId"`
	TargetFriendCode string   `json:"targetFriendCode"`
}

type RespondFriendRequestMessage struct {
	DeviceID     DeviceID `json:"deviceId"`
	FromDeviceID DeviceID `json:"fromDeviceId"`
	Accept       bool     `json:"accept"`
}

type RemoveFriendMessage struct {
	DeviceID       DeviceID `json:"deviceId"`
	FriendDeviceID DeviceID `json:"friendDeviceId"`
}

// DeviceMessage is used by get_friends and create_friends_server
type DeviceMessage struct {
	DeviceID DeviceID `json:"deviceId"`
}

// FriendsServerMessage is used by close_friends_server and validate_join
type FriendsServerMessage struct {
	DeviceID DeviceID `json:"deviceId"`
	RoomID   string   `json:"roomId"`
}

// Outbound social messages

type AuthSuccessEvent struct {
	Type            MessageType            `json:"type"`
	Token           string                 `json:"token"`
	Username        string                 `json:"username"`
	DeviceID        DeviceID               `json:"deviceId"`
	FriendCode      string                 `json:"friendCode"`
	Friends         []FriendSummary        `json:"friends"`
	PendingRequests []FriendRequest        `json:"pendingRequests"`
	FriendsServers  []FriendsServerSummary `json:"friendsServers"`
}

type RegisteredEvent struct {
	Type            MessageType            `json:"type"`
	FriendCode      string                 `json:"friendCode"`
	Friends         []FriendSummary        `json:"friends"`
	PendingRequests []FriendRequest        `json:"pendingRequests"`
	FriendsServers  []FriendsServerSummary `json:"friendsServers"`
}

// ErrorEvent is used by auth_error and friend_request_error
type ErrorEvent struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// SignalEvent is a bare notification such as auth_expired
type SignalEvent struct {
	Type MessageType `json:"type"`
}

type FriendRequestSentEvent struct {
	Type             MessageType `json:"type"`
	TargetFriendCode string      `json:"targetFriendCode"`
}

type FriendRequestReceivedEvent struct {
	Type MessageType `json:"type"`
	FriendRequest
}

type FriendRequestAcceptedEvent struct {
	Type       MessageType `json:"type"`
	DeviceID   DeviceID    `json:"deviceId"`
	Username   string      `json:"username"`
	FriendCode string      `json:"friendCode"`
}

type FriendsUpdatedEvent struct {
	Type            MessageType            `json:"type"`
	Friends         []FriendSummary        `json:"friends"`
	PendingRequests []FriendRequest        `json:"pendingRequests"`
	FriendsServers  []FriendsServerSummary `json:"friendsServers,omitempty"`
}

type FriendsServerCreatedEvent struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
	WSURL  string      `json:"wsUrl"`
}

type FriendsServerAvailableEvent struct {
	Type MessageType `json:"type"`
	FriendsServerSummary
}

type FriendsServerClosedEvent struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
}

type JoinApprovedEvent struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
	WSURL  string      `json:"wsUrl"`
}

type JoinDeniedEvent struct {
	Type   MessageType `json:"type"`
	Reason string      `json:"reason"`
}
