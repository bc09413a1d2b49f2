package auth

import (
	"fmt"
	"io"
	"time"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		session, err := cfg.ClientProvider.Session()
		if err != nil {
			return err
		}
		writeStatus(cmd.OutOrStdout(), session)
		return nil
	},
}

func writeStatus(w io.Writer, session *sdk.Session) {
	status := session.Status()
	fmt.Fprintf(w, "State:   %s\n", status.State)
	fmt.Fprintf(w, "Source:  %s\n", status.State.Source())
	if profile, ok := session.Profile(); ok {
		fmt.Fprintf(w, "User:    %s (%s)\n", profile.Username, profile.Email)
	}
	if claims, ok := session.Claims(); ok {
		fmt.Fprintf(w, "Expires: %s (in %s)\n", claims.ExpiresAt.Format(time.RFC1123), time.Until(claims.ExpiresAt).Round(time.Minute))
	}
	if username, ok := session.AdminUsername(); ok && status.Admin {
		fmt.Fprintf(w, "Admin:   %s\n", username)
	} else {
		fmt.Fprintln(w, "Admin:   not logged in")
	}
}
