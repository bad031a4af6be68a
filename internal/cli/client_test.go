package cli

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/shatterrealms/internal/factory"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	app, err := factory.New(factory.Config{UpgradeRate: -1})
	require.NoError(t, err)
	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})

	cfg = DefaultConfig()
	cfg.ServerURL = srv.URL
	cfg.TokenFile = filepath.Join(t.TempDir(), "token")
	cfg.DeviceID = "cli-device"
	client = NewClient(srv.URL)
	return client
}

func TestRoomURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/parties/game/arena-1"},
		{"https://arena.example/", "wss://arena.example/parties/game/arena-1"},
		{"https://arena.example/prefix", "wss://arena.example/prefix/parties/game/arena-1"},
		{"ws://localhost:8080", "ws://localhost:8080/parties/game/arena-1"},
	}
	for _, tt := range tests {
		got, err := NewClient(tt.base).RoomURL("game", "arena-1")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NewClient("ftp://arena.example").RoomURL("game", "arena-1")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	c := newTestClient(t)

	var result HealthResult
	require.NoError(t, c.Get("/api/v1/health", &result))
	assert.Equal(t, "ok", result.Status)
	assert.Contains(t, result.Parties, "game")
}

func TestUsernameCheck(t *testing.T) {
	c := newTestClient(t)

	var result UsernameResult
	require.NoError(t, c.Post("/api/v1/usernames/validate", map[string]string{"username": "x"}, &result))
	assert.False(t, result.Valid)
	assert.Equal(t, "Username must be 3-20 characters.", result.Reason)
}

func TestDialUnknownParty(t *testing.T) {
	c := newTestClient(t)

	_, err := c.DialRoom(context.Background(), "lobby", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_PARTY")
}

func TestAwaitEventSkipsOtherTypes(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ws, err := c.DialRoom(ctx, "game", "cli-arena")
	require.NoError(t, err)
	defer closeSocket(ws)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","name":"Cli"}`)))
	event, err := awaitEvent(ctx, ws, "game_state")
	require.NoError(t, err)
	assert.Equal(t, "game_state", event.Type)
	assert.Contains(t, string(event.Data), `"Cli"`)
}

func TestSignupSavesToken(t *testing.T) {
	newTestClient(t)

	err := authenticate("main", map[string]string{
		"type":     "signup",
		"username": "CliUser",
		"password": "secret1",
		"deviceId": cfg.DeviceID,
	})
	require.NoError(t, err)

	token, err := cfg.LoadToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	// The saved token resumes the session
	err = authenticate("main", map[string]string{
		"type":     "check_auth",
		"token":    token,
		"deviceId": cfg.DeviceID,
	})
	require.NoError(t, err)

	err = authenticate("main", map[string]string{
		"type":     "login",
		"username": "CliUser",
		"password": "wrong12",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password.", err.Error())
}
