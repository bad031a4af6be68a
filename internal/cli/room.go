package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room websocket commands",
	}

	cmd.AddCommand(newRoomWatchCmd())
	cmd.AddCommand(newRoomSendCmd())

	return cmd
}

func newRoomWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <party> <room>",
		Short: "Stream every event a room sends",
		Long: `Connect to a room and print each event it sends in real time.

Watching a game room does not join the match: the connection receives
broadcasts but has no player until it sends a join.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := interruptContext()
			defer cancel()
			return watchRoom(ctx, args[0], args[1], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

func newRoomSendCmd() *cobra.Command {
	var (
		waitFor string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <party> <room> <json>",
		Short: "Send one message to a room",
		Long: `Connect to a room, send a single JSON message and disconnect.

With --wait, stay connected until an event of that type arrives and print it.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[2])) {
				return errors.New("message must be valid JSON")
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			ws, err := client.DialRoom(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			defer closeSocket(ws)

			if err := ws.WriteMessage(websocket.TextMessage, []byte(args[2])); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}

			if waitFor == "" {
				NewOutput(cfg.Output).PrintMessage("Sent")
				return nil
			}

			event, err := awaitEvent(ctx, ws, waitFor)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintEvent(event)
			return nil
		},
	}

	cmd.Flags().StringVar(&waitFor, "wait", "", "Event type to wait for after sending")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the connection and reply")

	return cmd
}

// RoomEvent is one message received from a room
type RoomEvent struct {
	Time time.Time       `json:"time"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func parseEvent(data []byte) RoomEvent {
	var env struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(data, &env)
	return RoomEvent{Time: time.Now(), Type: env.Type, Data: data}
}

func watchRoom(ctx context.Context, partyName, roomID string, jsonOutput bool) error {
	ws, err := client.DialRoom(ctx, partyName, roomID)
	if err != nil {
		return err
	}
	defer closeSocket(ws)

	// Unblock the read loop on interrupt
	go func() {
		<-ctx.Done()
		_ = ws.Close()
	}()

	out := NewOutput(cfg.Output)
	if jsonOutput {
		out = NewOutput("json-lines")
	} else {
		fmt.Printf("Connected to %s/%s\n", partyName, roomID)
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		out.PrintEvent(parseEvent(data))
	}
}

// awaitEvent reads until an event of the given type arrives
func awaitEvent(ctx context.Context, ws *websocket.Conn, eventTypes ...string) (RoomEvent, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetReadDeadline(deadline)
	}
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return RoomEvent{}, fmt.Errorf("waiting for %v: %w", eventTypes, err)
		}
		event := parseEvent(data)
		for _, t := range eventTypes {
			if event.Type == t {
				return event, nil
			}
		}
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "skipping %s\n", event.Type)
		}
	}
}

func closeSocket(ws *websocket.Conn) {
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = ws.Close()
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
