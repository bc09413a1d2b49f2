package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for member accounts
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage member accounts",
}

func init() {
	UsersCmd.AddCommand(listCmd)
	UsersCmd.AddCommand(meCmd)
	UsersCmd.AddCommand(updateCmd)
	UsersCmd.AddCommand(deleteCmd)
}
