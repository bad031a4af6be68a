package social

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/shatterrealms/internal/dependencies/mocks"
	"github.com/mcoot/shatterrealms/internal/dependencies/random"
	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/storage"
	"github.com/mcoot/shatterrealms/internal/testutil"
)

type RoomSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *mocks.MockClock
	fake   *testutil.FakeRoom
	social *Room
}

func TestRoomSuite(t *testing.T) {
	suite.Run(t, new(RoomSuite))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PublicGameURL = "wss://arena.example/parties/game/"
	cfg.Auth.Iterations = 1000
	return cfg
}

func (s *RoomSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.fake = testutil.NewFakeRoom(PartyName, "main", s.clock)
	s.social = New(s.fake, s.clock, random.New(), testConfig())
	s.Require().NoError(s.social.OnStart(s.ctx))
}

func (s *RoomSuite) connect(id string) *testutil.FakeConn {
	conn := s.fake.AddConn(id)
	s.social.OnConnect(s.ctx, conn)
	return conn
}

func (s *RoomSuite) disconnect(conn *testutil.FakeConn) {
	s.fake.RemoveConn(conn.ID())
	s.social.OnClose(s.ctx, conn)
}

func (s *RoomSuite) send(conn *testutil.FakeConn, msg string) {
	s.social.OnMessage(s.ctx, conn, []byte(msg))
}

// register connects a device and returns its connection and friend code
func (s *RoomSuite) register(deviceID, username string) (*testutil.FakeConn, string) {
	conn := s.connect("conn-" + deviceID)
	s.send(conn, `{"type":"register","deviceId":"`+deviceID+`","username":"`+username+`"}`)
	event, ok := testutil.Last[model.RegisteredEvent](conn, string(model.MsgRegistered))
	s.Require().True(ok)
	return conn, event.FriendCode
}

func (s *RoomSuite) befriend(a *testutil.FakeConn, aID string, b *testutil.FakeConn, bID, bCode string) {
	s.send(a, `{"type":"send_friend_request","deviceId":"`+aID+`","targetFriendCode":"`+bCode+`"}`)
	s.send(b, `{"type":"respond_friend_request","deviceId":"`+bID+`","fromDeviceId":"`+aID+`","accept":true}`)
}

func (s *RoomSuite) profile(deviceID string) *model.PlayerSocialData {
	profile, err := s.social.getProfile(s.ctx, model.DeviceID(deviceID))
	s.Require().NoError(err)
	s.Require().NotNil(profile)
	return profile
}

func (s *RoomSuite) lastAuthError(conn *testutil.FakeConn) string {
	event, ok := testutil.Last[model.ErrorEvent](conn, string(model.MsgAuthError))
	s.Require().True(ok)
	return event.Message
}

// Accounts

func (s *RoomSuite) TestSignupCreatesAccountAndProfile() {
	conn := s.connect("c1")
	s.send(conn, `{"type":"signup","username":"Knight","password":"secret1","deviceId":"dev-1"}`)

	event, ok := testutil.Last[model.AuthSuccessEvent](conn, string(model.MsgAuthSuccess))
	s.Require().True(ok)
	s.Len(event.Token, 64)
	s.Equal("Knight", event.Username)
	s.Equal(model.DeviceID("dev-1"), event.DeviceID)
	s.Len(event.FriendCode, friendCodeLength)
	s.Empty(event.Friends)
	s.Empty(event.PendingRequests)
	s.True(s.social.Online("dev-1"))

	owner, err := s.social.lookupFriendCode(s.ctx, event.FriendCode)
	s.Require().NoError(err)
	s.Equal(model.DeviceID("dev-1"), owner)
}

func (s *RoomSuite) TestSignupRejectsBadUsername() {
	conn := s.connect("c1")

	s.send(conn, `{"type":"signup","username":"ab","password":"secret1","deviceId":"dev-1"}`)
	s.Equal("Username must be 3-20 characters.", s.lastAuthError(conn))

	s.send(conn, `{"type":"signup","username":"bad name!","password":"secret1","deviceId":"dev-1"}`)
	s.Equal("Username can only contain letters, numbers, and underscores.", s.lastAuthError(conn))

	s.send(conn, `{"type":"signup","username":"xXshitXx","password":"secret1","deviceId":"dev-1"}`)
	s.Equal("Username contains inappropriate content.", s.lastAuthError(conn))

	s.Zero(conn.Count(string(model.MsgAuthSuccess)))
}

func (s *RoomSuite) TestSignupRejectsShortPassword() {
	conn := s.connect("c1")
	s.send(conn, `{"type":"signup","username":"Knight","password":"12345","deviceId":"dev-1"}`)
	s.Equal(msgPasswordTooShort, s.lastAuthError(conn))
}

func (s *RoomSuite) TestSignupRejectsTakenUsernameCaseInsensitively() {
	first := s.connect("c1")
	s.send(first, `{"type":"signup","username":"Knight","password":"secret1","deviceId":"dev-1"}`)

	second := s.connect("c2")
	s.send(second, `{"type":"signup","username":"KNIGHT","password":"other12","deviceId":"dev-2"}`)
	s.Equal(msgUsernameTaken, s.lastAuthError(second))
}

func (s *RoomSuite) TestSignupWithoutDeviceIsDropped() {
	conn := s.connect("c1")
	s.send(conn, `{"type":"signup","username":"Knight","password":"secret1"}`)
	s.Empty(conn.Messages())
}

func (s *RoomSuite) TestLogin() {
	signup := s.connect("c1")
	s.send(signup, `{"type":"signup","username":"Knight","password":"secret1","deviceId":"dev-1"}`)
	created, _ := testutil.Last[model.AuthSuccessEvent](signup, string(model.MsgAuthSuccess))
	s.disconnect(signup)

	conn := s.connect("c2")
	s.send(conn, `{"type":"login","username":"knight","password":"secret1"}`)

	event, ok := testutil.Last[model.AuthSuccessEvent](conn, string(model.MsgAuthSuccess))
	s.Require().True(ok)
	s.Equal("Knight", event.Username)
	s.Equal(model.DeviceID("dev-1"), event.DeviceID)
	s.Equal(created.FriendCode, event.FriendCode)
	s.NotEqual(created.Token, event.Token)
	s.True(s.social.Online("dev-1"))
}

func (s *RoomSuite) TestLoginErrors() {
	signup := s.connect("c1")
	s.send(signup, `{"type":"signup","username":"Knight","password":"secret1","deviceId":"dev-1"}`)

	conn := s.connect("c2")
	s.send(conn, `{"type":"login","username":"","password":"secret1"}`)
	s.Equal(msgCredentialsRequired, s.lastAuthError(conn))

	s.send(conn, `{"type":"login","username":"Knight","password":"wrong12"}`)
	s.Equal(msgInvalidLogin, s.lastAuthError(conn))

	s.send(conn, `{"type":"login","username":"Nobody","password":"secret1"}`)
	s.Equal(msgInvalidLogin, s.lastAuthError(conn))
}

func (s *RoomSuite) TestCheckAuthResumesSession() {
	signup := s.connect("c1")
	s.send(signup, `{"type":"signup","username":"Knight","password":"secret1","deviceId":"dev-1"}`)
	created, _ := testutil.Last[model.AuthSuccessEvent](signup, string(model.MsgAuthSuccess))
	s.disconnect(signup)
	s.False(s.social.Online("dev-1"))

	conn := s.connect("c2")
	s.send(conn, `{"type":"check_auth","token":"`+created.Token+`","deviceId":"dev-1"}`)

	event, ok := testutil.Last[model.AuthSuccessEvent](conn, string(model.MsgAuthSuccess))
	s.Require().True(ok)
	s.Equal(created.Token, event.Token)
	s.Equal("Knight", event.Username)
	s.True(s.social.Online("dev-1"))
}

func (s *RoomSuite) TestCheckAuthExpired() {
	signup := s.connect("c1")
	s.send(signup, `{"type":"signup","username":"Knight","password":"secret1","deviceId":"dev-1"}`)
	created, _ := testutil.Last[model.AuthSuccessEvent](signup, string(model.MsgAuthSuccess))

	s.clock.Advance(366 * 24 * time.Hour)

	conn := s.connect("c2")
	s.send(conn, `{"type":"check_auth","token":"`+created.Token+`","deviceId":"dev-1"}`)
	s.Equal([]string{string(model.MsgAuthExpired)}, conn.Types())

	s.send(conn, `{"type":"check_auth","token":"not-a-token","deviceId":"dev-1"}`)
	s.Equal(2, conn.Count(string(model.MsgAuthExpired)))
}

// Registration and friend codes

func (s *RoomSuite) TestRegisterIsStableForSameUsername() {
	conn, code := s.register("dev-1", "Knight")
	s.disconnect(conn)

	_, again := s.register("dev-1", "Knight")
	s.Equal(code, again)
}

func (s *RoomSuite) TestRegisterWithNewUsernameReissuesCode() {
	_, oldCode := s.register("dev-1", "Knight")
	_, newCode := s.register("dev-1", "Paladin")
	s.NotEqual(oldCode, newCode)

	owner, err := s.social.lookupFriendCode(s.ctx, oldCode)
	s.Require().NoError(err)
	s.Empty(owner)

	owner, err = s.social.lookupFriendCode(s.ctx, newCode)
	s.Require().NoError(err)
	s.Equal(model.DeviceID("dev-1"), owner)
	s.Equal("Paladin", s.profile("dev-1").Username)
}

func (s *RoomSuite) TestFriendCodeAlphabet() {
	_, code := s.register("dev-1", "Knight")
	s.Len(code, friendCodeLength)
	for _, c := range code {
		s.True(strings.ContainsRune(friendCodeAlphabet, c), "unexpected %q in %s", c, code)
	}
}

func (s *RoomSuite) TestFriendCodeCollisionRetries() {
	rnd := mocks.NewMockRandom()
	s.social = New(s.fake, s.clock, rnd, testConfig())

	rnd.QueueString("AAAA2222")
	_, first := s.register("dev-1", "Knight")
	s.Equal("AAAA2222", first)

	rnd.QueueString("AAAA2222", "BBBB3333")
	_, second := s.register("dev-2", "Paladin")
	s.Equal("BBBB3333", second)
}

// Friend graph

func (s *RoomSuite) TestFriendRequestFlow() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")

	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"`+bobCode+`"}`)

	sent, ok := testutil.Last[model.FriendRequestSentEvent](alice, string(model.MsgFriendRequestSent))
	s.Require().True(ok)
	s.Equal(bobCode, sent.TargetFriendCode)

	received, ok := testutil.Last[model.FriendRequestReceivedEvent](bob, string(model.MsgFriendRequestReceived))
	s.Require().True(ok)
	s.Equal(model.DeviceID("dev-a"), received.FromDeviceID)
	s.Equal("Alice", received.FromUsername)
	s.Len(s.profile("dev-b").PendingRequests, 1)

	s.send(bob, `{"type":"respond_friend_request","deviceId":"dev-b","fromDeviceId":"dev-a","accept":true}`)

	accepted, ok := testutil.Last[model.FriendRequestAcceptedEvent](alice, string(model.MsgFriendRequestAccepted))
	s.Require().True(ok)
	s.Equal(model.DeviceID("dev-b"), accepted.DeviceID)
	s.Equal("Bob", accepted.Username)
	s.Equal(bobCode, accepted.FriendCode)

	updated, ok := testutil.Last[model.FriendsUpdatedEvent](bob, string(model.MsgFriendsUpdated))
	s.Require().True(ok)
	s.Require().Len(updated.Friends, 1)
	s.Equal("Alice", updated.Friends[0].Username)
	s.True(updated.Friends[0].Online)
	s.Empty(updated.PendingRequests)

	s.Equal([]model.DeviceID{"dev-b"}, s.profile("dev-a").Friends)
	s.Equal([]model.DeviceID{"dev-a"}, s.profile("dev-b").Friends)
}

func (s *RoomSuite) TestRejectFriendRequest() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")

	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"`+bobCode+`"}`)
	s.send(bob, `{"type":"respond_friend_request","deviceId":"dev-b","fromDeviceId":"dev-a","accept":false}`)

	s.Empty(s.profile("dev-b").PendingRequests)
	s.Empty(s.profile("dev-a").Friends)
	s.Empty(s.profile("dev-b").Friends)
	s.Zero(alice.Count(string(model.MsgFriendRequestAccepted)))
	s.Equal(1, bob.Count(string(model.MsgFriendsUpdated)))
}

func (s *RoomSuite) TestAcceptWithoutPendingRequestIsRejected() {
	s.register("dev-a", "Alice")
	bob, _ := s.register("dev-b", "Bob")

	s.send(bob, `{"type":"respond_friend_request","deviceId":"dev-b","fromDeviceId":"dev-a","accept":true}`)

	s.Empty(s.profile("dev-a").Friends)
	s.Empty(s.profile("dev-b").Friends)
	s.Zero(bob.Count(string(model.MsgFriendsUpdated)))
	event, ok := testutil.Last[model.ErrorEvent](bob, string(model.MsgFriendRequestError))
	s.Require().True(ok)
	s.Equal(msgNoPending, event.Message)

	bob.Reset()
	s.send(bob, `{"type":"respond_friend_request","deviceId":"dev-b","fromDeviceId":"dev-a","accept":false}`)
	s.Empty(bob.Messages())
}

func (s *RoomSuite) TestFriendRequestErrors() {
	alice, aliceCode := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")

	lastError := func() string {
		event, ok := testutil.Last[model.ErrorEvent](alice, string(model.MsgFriendRequestError))
		s.Require().True(ok)
		return event.Message
	}

	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"ZZZZZZZZ"}`)
	s.Equal(msgPlayerNotFound, lastError())

	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"`+aliceCode+`"}`)
	s.Equal(msgAddSelf, lastError())

	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"`+bobCode+`"}`)
	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"`+bobCode+`"}`)
	s.Equal(msgAlreadySent, lastError())
	s.Len(s.profile("dev-b").PendingRequests, 1)

	s.send(bob, `{"type":"respond_friend_request","deviceId":"dev-b","fromDeviceId":"dev-a","accept":true}`)
	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"`+bobCode+`"}`)
	s.Equal(msgAlreadyFriends, lastError())
}

func (s *RoomSuite) TestFriendRequestToOfflinePlayerIsStored() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")
	s.disconnect(bob)

	s.send(alice, `{"type":"send_friend_request","deviceId":"dev-a","targetFriendCode":"`+bobCode+`"}`)
	s.Equal(1, alice.Count(string(model.MsgFriendRequestSent)))

	bob, _ = s.register("dev-b", "Bob")
	registered, _ := testutil.Last[model.RegisteredEvent](bob, string(model.MsgRegistered))
	s.Require().Len(registered.PendingRequests, 1)
	s.Equal("Alice", registered.PendingRequests[0].FromUsername)
}

func (s *RoomSuite) TestRemoveFriendUpdatesBothSides() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")
	s.befriend(alice, "dev-a", bob, "dev-b", bobCode)
	alice.Reset()
	bob.Reset()

	s.send(alice, `{"type":"remove_friend","deviceId":"dev-a","friendDeviceId":"dev-b"}`)

	s.Empty(s.profile("dev-a").Friends)
	s.Empty(s.profile("dev-b").Friends)

	mine, ok := testutil.Last[model.FriendsUpdatedEvent](alice, string(model.MsgFriendsUpdated))
	s.Require().True(ok)
	s.Empty(mine.Friends)

	theirs, ok := testutil.Last[model.FriendsUpdatedEvent](bob, string(model.MsgFriendsUpdated))
	s.Require().True(ok)
	s.Empty(theirs.Friends)
}

func (s *RoomSuite) TestGetFriendsReportsPresence() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")
	s.befriend(alice, "dev-a", bob, "dev-b", bobCode)
	s.disconnect(bob)

	s.send(alice, `{"type":"get_friends","deviceId":"dev-a"}`)

	event, ok := testutil.Last[model.FriendsUpdatedEvent](alice, string(model.MsgFriendsUpdated))
	s.Require().True(ok)
	s.Require().Len(event.Friends, 1)
	s.Equal(model.DeviceID("dev-b"), event.Friends[0].DeviceID)
	s.Equal(bobCode, event.Friends[0].FriendCode)
	s.False(event.Friends[0].Online)
	s.Empty(event.FriendsServers)
}

func (s *RoomSuite) TestUnregisteredDeviceIsIgnored() {
	conn := s.connect("c1")
	s.send(conn, `{"type":"get_friends","deviceId":"ghost"}`)
	s.send(conn, `{"type":"create_friends_server","deviceId":"ghost"}`)
	s.send(conn, `{"type":"send_friend_request","deviceId":"ghost","targetFriendCode":"AAAAAAAA"}`)
	s.Empty(conn.Messages())
}

// Friends servers

func (s *RoomSuite) createServer(conn *testutil.FakeConn, deviceID string) *model.FriendsServerCreatedEvent {
	s.send(conn, `{"type":"create_friends_server","deviceId":"`+deviceID+`"}`)
	event, ok := testutil.Last[model.FriendsServerCreatedEvent](conn, string(model.MsgFriendsServerCreated))
	s.Require().True(ok)
	return event
}

func (s *RoomSuite) validate(conn *testutil.FakeConn, deviceID, roomID string) *testutil.FakeConn {
	conn.Reset()
	s.send(conn, `{"type":"validate_join","deviceId":"`+deviceID+`","roomId":"`+roomID+`"}`)
	return conn
}

func (s *RoomSuite) TestCreateFriendsServer() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")
	s.befriend(alice, "dev-a", bob, "dev-b", bobCode)

	created := s.createServer(alice, "dev-a")
	s.True(strings.HasPrefix(created.RoomID, roomIDPrefix))
	s.Len(created.RoomID, len(roomIDPrefix)+roomIDLength)
	s.Equal("wss://arena.example/parties/game/"+created.RoomID, created.WSURL)

	available, ok := testutil.Last[model.FriendsServerAvailableEvent](bob, string(model.MsgFriendsServerAvailable))
	s.Require().True(ok)
	s.Equal(created.RoomID, available.RoomID)
	s.Equal("Alice", available.HostUsername)
	s.Equal(model.DeviceID("dev-a"), available.HostDeviceID)

	server, err := storage.GetJSON[model.FriendsServer](s.ctx, s.fake.Storage(), serverKey(created.RoomID))
	s.Require().NoError(err)
	s.True(server.Active)
	s.ElementsMatch([]model.DeviceID{"dev-a", "dev-b"}, server.AllowedDeviceIDs)

	s.send(bob, `{"type":"get_friends","deviceId":"dev-b"}`)
	updated, _ := testutil.Last[model.FriendsUpdatedEvent](bob, string(model.MsgFriendsUpdated))
	s.Require().Len(updated.FriendsServers, 1)
	s.Equal(created.RoomID, updated.FriendsServers[0].RoomID)
}

func (s *RoomSuite) TestValidateJoin() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")
	carol, _ := s.register("dev-c", "Carol")
	s.befriend(alice, "dev-a", bob, "dev-b", bobCode)
	created := s.createServer(alice, "dev-a")

	approved, ok := testutil.Last[model.JoinApprovedEvent](s.validate(bob, "dev-b", created.RoomID), string(model.MsgJoinApproved))
	s.Require().True(ok)
	s.Equal(created.RoomID, approved.RoomID)
	s.Equal(created.WSURL, approved.WSURL)

	_, ok = testutil.Last[model.JoinApprovedEvent](s.validate(alice, "dev-a", created.RoomID), string(model.MsgJoinApproved))
	s.True(ok)

	denied, ok := testutil.Last[model.JoinDeniedEvent](s.validate(carol, "dev-c", created.RoomID), string(model.MsgJoinDenied))
	s.Require().True(ok)
	s.Equal(msgNotOnFriendList, denied.Reason)

	denied, ok = testutil.Last[model.JoinDeniedEvent](s.validate(carol, "dev-c", "friends-missing0"), string(model.MsgJoinDenied))
	s.Require().True(ok)
	s.Equal(msgServerInactive, denied.Reason)
}

func (s *RoomSuite) TestAllowListIsSnapshotAtCreation() {
	alice, _ := s.register("dev-a", "Alice")
	carol, carolCode := s.register("dev-c", "Carol")
	created := s.createServer(alice, "dev-a")

	s.befriend(alice, "dev-a", carol, "dev-c", carolCode)

	denied, ok := testutil.Last[model.JoinDeniedEvent](s.validate(carol, "dev-c", created.RoomID), string(model.MsgJoinDenied))
	s.Require().True(ok)
	s.Equal(msgNotOnFriendList, denied.Reason)
}

func (s *RoomSuite) TestCloseFriendsServer() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")
	s.befriend(alice, "dev-a", bob, "dev-b", bobCode)
	created := s.createServer(alice, "dev-a")

	s.send(bob, `{"type":"close_friends_server","deviceId":"dev-b","roomId":"`+created.RoomID+`"}`)
	s.Zero(bob.Count(string(model.MsgFriendsServerClosed)))

	s.send(alice, `{"type":"close_friends_server","deviceId":"dev-a","roomId":"`+created.RoomID+`"}`)
	closed, ok := testutil.Last[model.FriendsServerClosedEvent](alice, string(model.MsgFriendsServerClosed))
	s.Require().True(ok)
	s.Equal(created.RoomID, closed.RoomID)

	denied, ok := testutil.Last[model.JoinDeniedEvent](s.validate(bob, "dev-b", created.RoomID), string(model.MsgJoinDenied))
	s.Require().True(ok)
	s.Equal(msgServerInactive, denied.Reason)
}

func (s *RoomSuite) TestRebindingConnectionReleasesEarlierDevice() {
	conn, _ := s.register("dev-a", "Alice")
	first := s.createServer(conn, "dev-a")

	s.send(conn, `{"type":"register","deviceId":"dev-b","username":"Bob"}`)
	s.False(s.social.Online("dev-a"))
	s.True(s.social.Online("dev-b"))
	second := s.createServer(conn, "dev-b")

	s.disconnect(conn)
	s.False(s.social.Online("dev-b"))

	for _, roomID := range []string{first.RoomID, second.RoomID} {
		server, err := s.social.getServer(s.ctx, roomID)
		s.Require().NoError(err)
		s.Require().NotNil(server)
		s.False(server.Active)
	}
}

func (s *RoomSuite) TestHostDisconnectDeactivatesServers() {
	alice, _ := s.register("dev-a", "Alice")
	bob, bobCode := s.register("dev-b", "Bob")
	s.befriend(alice, "dev-a", bob, "dev-b", bobCode)
	first := s.createServer(alice, "dev-a")
	second := s.createServer(alice, "dev-a")

	s.disconnect(alice)
	s.False(s.social.Online("dev-a"))

	for _, roomID := range []string{first.RoomID, second.RoomID} {
		denied, ok := testutil.Last[model.JoinDeniedEvent](s.validate(bob, "dev-b", roomID), string(model.MsgJoinDenied))
		s.Require().True(ok)
		s.Equal(msgServerInactive, denied.Reason)
	}

	s.send(bob, `{"type":"get_friends","deviceId":"dev-b"}`)
	updated, _ := testutil.Last[model.FriendsUpdatedEvent](bob, string(model.MsgFriendsUpdated))
	s.Empty(updated.FriendsServers)
}

func (s *RoomSuite) TestUnknownMessageIsDropped() {
	conn := s.connect("c1")
	s.send(conn, `{"type":"teleport"}`)
	s.send(conn, `not json`)
	s.Empty(conn.Messages())
}
