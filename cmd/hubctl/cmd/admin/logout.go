package admin

import (
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the admin credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		session, err := cfg.ClientProvider.Session()
		if err != nil {
			return err
		}
		if err := session.AdminLogout(); err != nil {
			return fmt.Errorf("failed to clear admin credentials: %w", err)
		}
		if guard, err := cfg.ClientProvider.Guard(); err == nil {
			guard.Forget()
		}
		pterm.Success.Println("Admin logged out")
		return nil
	},
}
