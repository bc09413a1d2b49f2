package auth

import (
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the member session",
	Long:  `Clears the stored token. After an SSO login the upstream logout page is opened as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		session, err := cfg.ClientProvider.Session()
		if err != nil {
			return err
		}

		result, err := session.Logout(cmd.Context())
		if result.PreviousSource == sdk.SourceNone && err == nil {
			pterm.Info.Println("Not logged in")
			return nil
		}
		if err != nil {
			pterm.Warning.Printf("Local session cleared, but %v\n", err)
			return nil
		}
		pterm.Success.Println("Logged out successfully")
		return nil
	},
}
