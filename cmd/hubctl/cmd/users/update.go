package users

import (
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/input"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	updateUsername string
	updateEmail    string
)

var updateCmd = &cobra.Command{
	Use:   "update [user-id]",
	Short: "Edit a member profile",
	Long:  `Updates the username and/or email. Without an id the logged-in member is updated.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateUsername == "" && updateEmail == "" {
			return fmt.Errorf("nothing to update: pass --username and/or --email")
		}
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		var id int
		if len(args) == 1 {
			if id, err = input.ParseID(args[0], "user"); err != nil {
				return err
			}
		} else {
			me, err := hub.CurrentUser(ctx)
			if err != nil {
				return err
			}
			id = me.ID
		}

		user, err := hub.UpdateUser(ctx, id, sdk.UserPatch{Username: updateUsername, Email: updateEmail})
		if err != nil {
			return err
		}
		pterm.Success.Printf("Updated user %d: %s (%s)\n", user.ID, user.Username, user.Email)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateUsername, "username", "", "New username")
	updateCmd.Flags().StringVar(&updateEmail, "email", "", "New email")
}
