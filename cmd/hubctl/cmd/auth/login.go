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
	loginEmail    string
	loginPassword string
	loginNext     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Authenticates with a local CSS-HUB account. The token is kept in the
session database until it expires or you log out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		if loginEmail == "" {
			return fmt.Errorf("--email is required")
		}
		password, err := client.ResolvePassword(loginPassword, "Password", cfg.NonInteractive, cfg.Prompt)
		if err != nil {
			return err
		}

		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		profile, err := sdk.LoginLocal(ctx, hub, loginEmail, password)
		if err != nil {
			return err
		}

		pterm.Success.Printf("Logged in as %s (%s)\n", profile.Username, profile.Email)
		pterm.Info.Printf("Continue at %s\n", sdk.AfterLogin(sdk.RealmUser, loginNext))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginNext, "next", "", "Path that sent you to the login page")
}
