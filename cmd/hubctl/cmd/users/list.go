package users

import (
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/spf13/cobra"
)

var listKeyword string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List members (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.AdminClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		users, err := hub.ListUsers(ctx, listKeyword)
		if err != nil {
			return err
		}
		return output.UsersTable(cmd.OutOrStdout(), users).Render()
	},
}

func init() {
	listCmd.Flags().StringVar(&listKeyword, "keyword", "", "Filter by username or email")
}
