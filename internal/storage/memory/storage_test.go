package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/shatterrealms/internal/model"
	"github.com/mcoot/shatterrealms/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	provider *Provider
	ctx      context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.provider = NewProvider()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestPutAndGet() {
	store := s.provider.Room("game", "room-1")

	err := store.Put(s.ctx, "state", []byte(`{"a":1}`))
	s.Require().NoError(err)

	data, err := store.Get(s.ctx, "state")
	s.Require().NoError(err)
	s.JSONEq(`{"a":1}`, string(data))
}

func (s *StorageSuite) TestGetNotFound() {
	store := s.provider.Room("game", "room-1")

	_, err := store.Get(s.ctx, "missing")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StorageSuite) TestDelete() {
	store := s.provider.Room("game", "room-1")
	_ = store.Put(s.ctx, "state", []byte("x"))

	err := store.Delete(s.ctx, "state")
	s.Require().NoError(err)

	_, err = store.Get(s.ctx, "state")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StorageSuite) TestRoomsAreIsolated() {
	a := s.provider.Room("game", "room-1")
	b := s.provider.Room("game", "room-2")
	c := s.provider.Room("social", "room-1")

	_ = a.Put(s.ctx, "state", []byte("a"))

	_, err := b.Get(s.ctx, "state")
	s.ErrorIs(err, storage.ErrNotFound)
	_, err = c.Get(s.ctx, "state")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *StorageSuite) TestSameRoomSharesStore() {
	_ = s.provider.Room("game", "room-1").Put(s.ctx, "k", []byte("v"))

	data, err := s.provider.Room("game", "room-1").Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("v", string(data))
}

func (s *StorageSuite) TestGetReturnsCopy() {
	store := s.provider.Room("game", "room-1")
	_ = store.Put(s.ctx, "k", []byte("value"))

	data, _ := store.Get(s.ctx, "k")
	data[0] = 'X'

	again, _ := store.Get(s.ctx, "k")
	s.Equal("value", string(again))
}

func (s *StorageSuite) TestMatchStateRoundTrip() {
	store := s.provider.Room("game", "room-1")
	winner := model.PlayerID("p2")
	state := model.NewMatchState()
	state.Players.Put(&model.Player{ID: "p1", Name: "Alice", Health: 40, MaxHealth: 100, Kills: 3})
	state.Players.Put(&model.Player{ID: "p2", Name: "Bob", Health: 0, MaxHealth: 100, Kills: 5, Deaths: 1})
	state.MatchStartTime = 1700000000000
	state.MatchEnded = true
	state.Winner = &winner

	s.Require().NoError(storage.PutJSON(s.ctx, store, "state", state))

	loaded, err := storage.GetJSON[model.MatchState](s.ctx, store, "state")
	s.Require().NoError(err)
	s.Equal(state.Players.All(), loaded.Players.All())
	s.Equal(state.MatchStartTime, loaded.MatchStartTime)
	s.Equal(state.MatchDuration, loaded.MatchDuration)
	s.True(loaded.MatchEnded)
	s.Require().NotNil(loaded.Winner)
	s.Equal(winner, *loaded.Winner)
}

func (s *StorageSuite) TestSocialDataRoundTrip() {
	store := s.provider.Room("social", "main")
	profile := &model.PlayerSocialData{
		DeviceID:   "dev-a",
		Username:   "alice",
		FriendCode: "ABCD2345",
		Friends:    []model.DeviceID{"dev-b", "dev-c"},
		PendingRequests: []model.FriendRequest{
			{FromDeviceID: "dev-d", FromUsername: "dave", FromFriendCode: "ZZZZ9999"},
		},
	}

	s.Require().NoError(storage.PutJSON(s.ctx, store, "player:dev-a", profile))

	loaded, err := storage.GetJSON[model.PlayerSocialData](s.ctx, store, "player:dev-a")
	s.Require().NoError(err)
	s.Equal(profile, loaded)
}
