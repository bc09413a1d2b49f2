package admin

import (
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/client"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
	loginRemember bool
	loginNext     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as an administrator",
	Long: `Validates the admin username and password with the backend.

Credentials can also come from CSSHUB_ADMIN_USERNAME and CSSHUB_ADMIN_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		username, password := loginUsername, loginPassword
		if ok, env := sdk.CheckEnvAdminCreds(); ok && username == "" {
			pterm.Info.Println("Using admin credentials from environment variables.")
			username, password = env.Username, env.Password
		}
		if username == "" {
			if cfg.NonInteractive {
				return errUsernameRequired
			}
			var err error
			username, err = pterm.DefaultInteractiveTextInput.Show("Admin username")
			if err != nil {
				return err
			}
			if username == "" {
				return errUsernameRequired
			}
		}
		password, err := client.ResolvePassword(password, "Admin password", cfg.NonInteractive, cfg.Prompt)
		if err != nil {
			return err
		}

		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		if err := sdk.LoginAdmin(ctx, hub, username, password, loginRemember); err != nil {
			return err
		}
		pterm.Success.Printf("Logged in as admin %s\n", username)
		pterm.Info.Printf("Continue at %s\n", sdk.AfterLogin(sdk.RealmAdmin, loginNext))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "Admin username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Admin password (prompted when omitted)")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "Keep the password for this session's lifetime")
	loginCmd.Flags().StringVar(&loginNext, "next", "", "Admin path that sent you to the login page")
}
