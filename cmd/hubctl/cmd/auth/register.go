package auth

import (
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/client"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	registerEmail    string
	registerUsername string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a local account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		if registerEmail == "" || registerUsername == "" {
			return fmt.Errorf("--email and --username are required")
		}
		password, err := client.ResolvePassword(registerPassword, "Choose a password", cfg.NonInteractive, cfg.Prompt)
		if err != nil {
			return err
		}

		hub, err := sdkClient(cmd.Context())
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		profile, err := sdk.RegisterLocal(ctx, hub, registerEmail, registerUsername, password)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Account created, logged in as %s\n", profile.Username)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "Display name")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Account password (prompted when omitted)")
}
