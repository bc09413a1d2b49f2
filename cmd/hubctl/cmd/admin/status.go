package admin

import (
	"errors"
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/spf13/cobra"
)

var errUsernameRequired = errors.New("--username is required")

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an admin is logged in",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		session, err := cfg.ClientProvider.Session()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		username, ok := session.AdminUsername()
		if !session.AdminAuthenticated() || !ok {
			fmt.Fprintln(out, "Admin: not logged in")
			return nil
		}
		fmt.Fprintf(out, "Admin: %s\n", username)
		if session.AdminAuth().HasBasic() {
			fmt.Fprintln(out, "Password: available")
		} else {
			fmt.Fprintln(out, "Password: not stored, you will be asked on the next admin command")
		}
		return nil
	},
}
