package users

import (
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/cobra"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged-in member",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		user, err := hub.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if err := output.UsersTable(cmd.OutOrStdout(), []sdk.User{*user}).Render(); err != nil {
			return err
		}
		if user.RegistrationDate != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Member since %s\n", user.RegistrationDate)
		}
		return nil
	},
}
