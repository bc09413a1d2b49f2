package users

import (
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/input"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/spf13/cobra"
)

var deleteOptimistic bool

var deleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a member (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := input.ParseID(args[0], "user")
		if err != nil {
			return err
		}
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.AdminClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		outcome, err := hub.DeleteUser(ctx, id, deleteOptimistic)
		return output.ReportDelete(cmd.OutOrStdout(), "user", outcome, err)
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteOptimistic, "optimistic", false, "Treat the delete as done even if the server does not confirm it")
}
