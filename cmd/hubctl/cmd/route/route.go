package route

import (
	"fmt"
	"io"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/cobra"
)

// RouteCmd is the parent command for route guard checks
var RouteCmd = &cobra.Command{
	Use:   "route",
	Short: "Check whether the current session may open a page",
}

var checkResolve bool

var checkCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Evaluate the route guard for a path",
	Long: `Prints allow, deny or pending for a path such as /adminmain or /userorders.

Role-gated rules report pending until the role is verified; pass --resolve to
perform the backend check. A denied check exits with status 1.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		guard, err := cfg.ClientProvider.Guard()
		if err != nil {
			return err
		}

		decision := guard.CanEnter(args[0])
		if checkResolve && decision.Verdict == sdk.Pending {
			ctx, cancel := cfg.CommandContext(cmd.Context())
			defer cancel()
			decision, err = guard.Resolve(ctx, args[0])
			if err != nil {
				cfg.Logger.Debug("role check failed", "path", args[0], "error", err)
			}
		}
		printDecision(cmd.OutOrStdout(), args[0], decision)
		if decision.Verdict == sdk.Deny {
			return fmt.Errorf("access to %s denied", args[0])
		}
		return nil
	},
}

func printDecision(w io.Writer, path string, d sdk.Decision) {
	fmt.Fprintf(w, "%s: %s\n", path, d.Verdict)
	if d.RedirectTo != "" {
		fmt.Fprintf(w, "redirect: %s\n", d.RedirectTo)
	}
	if d.RememberedPath != "" {
		fmt.Fprintf(w, "after login: %s\n", d.RememberedPath)
	}
}

func init() {
	checkCmd.Flags().BoolVar(&checkResolve, "resolve", false, "Verify roles with the backend instead of reporting pending")
	RouteCmd.AddCommand(checkCmd)
}
