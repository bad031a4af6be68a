package party_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/shatterrealms/internal/dependencies/mocks"
	"github.com/mcoot/shatterrealms/internal/party"
	"github.com/mcoot/shatterrealms/internal/storage/memory"
	"github.com/mcoot/shatterrealms/internal/testutil"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// recorder is a Server that reports every event on a channel
type recorder struct {
	room   party.Room
	events chan string
}

func newRecorder(events chan string) party.Factory {
	return func(room party.Room) party.Server {
		return &recorder{room: room, events: events}
	}
}

func (r *recorder) OnStart(context.Context) error { r.events <- "start"; return nil }

func (r *recorder) OnConnect(_ context.Context, conn party.Conn) {
	r.events <- "connect:" + conn.ID()
}

func (r *recorder) OnMessage(_ context.Context, conn party.Conn, data []byte) {
	r.room.Broadcast(map[string]string{"type": "echo", "body": string(data)}, conn.ID())
	r.events <- "message:" + conn.ID() + ":" + string(data)
}

func (r *recorder) OnClose(_ context.Context, conn party.Conn) {
	r.events <- "close:" + conn.ID()
}

func (r *recorder) OnAlarm(context.Context) { r.events <- "alarm" }

type HostSuite struct {
	suite.Suite
	clock  *mocks.MockClock
	store  *memory.Storage
	events chan string
	host   *party.Host
}

func TestHostSuite(t *testing.T) {
	suite.Run(t, new(HostSuite))
}

func (s *HostSuite) SetupTest() {
	s.clock = mocks.NewMockClock(epoch)
	s.store = memory.New()
	s.events = make(chan string, 64)
	s.host = s.startHost()
}

func (s *HostSuite) TearDownTest() {
	s.host.Stop()
}

func (s *HostSuite) startHost() *party.Host {
	host := party.NewHost("test", "room-1", s.store, s.clock, testutil.NopLogger(), newRecorder(s.events))
	s.Require().NoError(host.Start(context.Background()))
	s.Equal("start", s.next())
	return host
}

func (s *HostSuite) next() string {
	select {
	case e := <-s.events:
		return e
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for room event")
		return ""
	}
}

func (s *HostSuite) assertNoEvent() {
	select {
	case e := <-s.events:
		s.Failf("unexpected event", "got %q", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *HostSuite) TestEventsDeliveredInOrder() {
	a := testutil.NewFakeConn("a")

	s.Require().NoError(s.host.Connect(a))
	s.Require().NoError(s.host.Message(a, []byte("hello")))
	s.Require().NoError(s.host.Disconnect(a))

	s.Equal("connect:a", s.next())
	s.Equal("message:a:hello", s.next())
	s.Equal("close:a", s.next())
	s.Equal(0, s.host.ConnectionCount())
}

func (s *HostSuite) TestBroadcastExcludesSender() {
	a := testutil.NewFakeConn("a")
	b := testutil.NewFakeConn("b")
	s.Require().NoError(s.host.Connect(a))
	s.Require().NoError(s.host.Connect(b))
	s.next()
	s.next()

	s.Require().NoError(s.host.Message(a, []byte("hi")))
	s.Equal("message:a:hi", s.next())

	s.Empty(a.Messages())
	s.Equal([]string{"echo"}, b.Types())
}

func (s *HostSuite) TestMessageFromUnknownConnectionIgnored() {
	s.Require().NoError(s.host.Message(testutil.NewFakeConn("ghost"), []byte("boo")))
	s.assertNoEvent()
}

func (s *HostSuite) TestSendToUnknownConnection() {
	s.False(s.host.Send("nobody", map[string]string{"type": "x"}))
}

func (s *HostSuite) TestFullBufferClosesConnection() {
	a := testutil.NewFakeConn("a")
	b := testutil.NewFakeConn("b")
	b.SendErr = party.ErrSendBufferFull
	s.Require().NoError(s.host.Connect(a))
	s.Require().NoError(s.host.Connect(b))
	s.next()
	s.next()

	s.Require().NoError(s.host.Message(a, []byte("hi")))
	s.next()

	s.True(b.Closed())
	s.False(a.Closed())
}

func (s *HostSuite) TestAlarmFires() {
	ctx := context.Background()
	s.Require().NoError(s.host.SetAlarm(ctx, epoch.Add(time.Second)))

	_, err := s.store.Get(ctx, "__alarm")
	s.Require().NoError(err)

	s.clock.Advance(500 * time.Millisecond)
	s.assertNoEvent()

	s.clock.Advance(500 * time.Millisecond)
	s.Equal("alarm", s.next())

	_, pending := s.host.Alarm()
	s.False(pending)
	s.Eventually(func() bool {
		_, err := s.store.Get(ctx, "__alarm")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func (s *HostSuite) TestSetAlarmReplacesPending() {
	ctx := context.Background()
	s.Require().NoError(s.host.SetAlarm(ctx, epoch.Add(time.Second)))
	s.Require().NoError(s.host.SetAlarm(ctx, epoch.Add(3*time.Second)))

	s.clock.Advance(2 * time.Second)
	s.assertNoEvent()

	s.clock.Advance(time.Second)
	s.Equal("alarm", s.next())
	s.assertNoEvent()
}

func (s *HostSuite) TestDeleteAlarm() {
	ctx := context.Background()
	s.Require().NoError(s.host.SetAlarm(ctx, epoch.Add(time.Second)))
	s.Require().NoError(s.host.DeleteAlarm(ctx))

	s.clock.Advance(2 * time.Second)
	s.assertNoEvent()

	_, err := s.store.Get(ctx, "__alarm")
	s.Error(err)
}

func (s *HostSuite) TestAlarmSurvivesRestart() {
	ctx := context.Background()
	s.Require().NoError(s.host.SetAlarm(ctx, epoch.Add(5*time.Second)))
	s.host.Stop()

	s.host = s.startHost()
	at, pending := s.host.Alarm()
	s.True(pending)
	s.Equal(epoch.Add(5*time.Second).UnixMilli(), at.UnixMilli())

	s.clock.Advance(5 * time.Second)
	s.Equal("alarm", s.next())
}

func (s *HostSuite) TestPastDueAlarmFiresImmediatelyOnRestart() {
	ctx := context.Background()
	s.Require().NoError(s.host.SetAlarm(ctx, epoch.Add(time.Second)))
	s.host.Stop()

	s.clock.Set(epoch.Add(time.Minute))
	s.host = s.startHost()

	s.clock.Advance(0)
	s.Equal("alarm", s.next())
}

func (s *HostSuite) TestStopClosesConnections() {
	a := testutil.NewFakeConn("a")
	s.Require().NoError(s.host.Connect(a))
	s.next()

	s.host.Stop()
	s.True(a.Closed())
}

func (s *HostSuite) TestStoppedHostRejectsEvents() {
	s.host.Stop()
	s.ErrorIs(s.host.Connect(testutil.NewFakeConn("late")), party.ErrHostStopped)
}

func (s *HostSuite) TestIdle() {
	s.True(s.host.Idle())

	a := testutil.NewFakeConn("a")
	s.Require().NoError(s.host.Connect(a))
	s.next()
	s.False(s.host.Idle())

	s.Require().NoError(s.host.Disconnect(a))
	s.next()
	s.True(s.host.Idle())

	s.Require().NoError(s.host.SetAlarm(context.Background(), epoch.Add(time.Second)))
	s.False(s.host.Idle())
}

func (s *HostSuite) TestAlarmArmedWhenPersistFails() {
	ctx := context.Background()
	store := testutil.NewFailingStore(memory.New())
	events := make(chan string, 8)
	host := party.NewHost("test", "room-2", store, s.clock, testutil.NopLogger(), newRecorder(events))
	s.Require().NoError(host.Start(ctx))
	defer host.Stop()
	s.Equal("start", <-events)

	store.FailPuts(errors.New("store down"))
	s.Error(host.SetAlarm(ctx, epoch.Add(time.Second)))

	_, pending := host.Alarm()
	s.True(pending)

	s.clock.Advance(time.Second)
	select {
	case e := <-events:
		s.Equal("alarm", e)
	case <-time.After(2 * time.Second):
		s.FailNow("alarm did not fire")
	}
}
