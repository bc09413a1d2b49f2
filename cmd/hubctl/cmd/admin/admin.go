package admin

import "github.com/spf13/cobra"

// AdminCmd is the parent command for the admin console session
var AdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator session commands",
	Long: `Log in to the admin console and view the dashboard. Admin calls use
basic credentials; the username is remembered across runs, the password only
for the current process unless --remember is given.`,
}

func init() {
	AdminCmd.AddCommand(loginCmd)
	AdminCmd.AddCommand(logoutCmd)
	AdminCmd.AddCommand(statusCmd)
	AdminCmd.AddCommand(dashboardCmd)
}
