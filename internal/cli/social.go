package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const socialParty = "social"

func newSocialCmd() *cobra.Command {
	var room string

	cmd := &cobra.Command{
		Use:   "social",
		Short: "Social room account commands",
	}
	cmd.PersistentFlags().StringVar(&room, "room", "main", "Social room id")
	cmd.PersistentFlags().StringVar(&cfg.DeviceID, "device", cfg.DeviceID, "Device id (env: ARENA_DEVICE_ID)")

	cmd.AddCommand(newSocialSignupCmd(&room))
	cmd.AddCommand(newSocialLoginCmd(&room))
	cmd.AddCommand(newSocialWhoamiCmd(&room))

	return cmd
}

func newSocialSignupCmd(room *string) *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DeviceID == "" {
				return errors.New("--device is required")
			}
			return authenticate(*room, map[string]string{
				"type":     "signup",
				"username": user,
				"password": pass,
				"deviceId": cfg.DeviceID,
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newSocialLoginCmd(room *string) *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(*room, map[string]string{
				"type":     "login",
				"username": user,
				"password": pass,
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newSocialWhoamiCmd(room *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Resume the saved session and show the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := cfg.LoadToken()
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New("not logged in")
			}
			return authenticate(*room, map[string]string{
				"type":     "check_auth",
				"token":    token,
				"deviceId": cfg.DeviceID,
			})
		},
	}
}

// authenticate sends an auth message to the social room and saves the
// token from a successful reply
func authenticate(room string, msg map[string]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ws, err := client.DialRoom(ctx, socialParty, room)
	if err != nil {
		return err
	}
	defer closeSocket(ws)

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	event, err := awaitEvent(ctx, ws, "auth_success", "auth_error", "auth_expired")
	if err != nil {
		return err
	}

	switch event.Type {
	case "auth_error":
		var authErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(event.Data, &authErr)
		return errors.New(authErr.Message)
	case "auth_expired":
		return errors.New("session expired, log in again")
	}

	var result AuthResult
	if err := json.Unmarshal(event.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := cfg.SaveToken(result.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	NewOutput(cfg.Output).Print(result)
	return nil
}
