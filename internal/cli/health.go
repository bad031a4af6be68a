package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newUsernameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "username",
		Short: "Username commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <name>",
		Short: "Check whether a username would be accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result UsernameResult

			req := map[string]string{"username": args[0]}
			if err := client.Post("/api/v1/usernames/validate", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	return cmd
}
