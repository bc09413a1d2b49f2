package auth

import (
	"context"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/cobra"
)

// AuthCmd is the parent command for member authentication
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Member authentication commands",
	Long: `Log in with a local account or through SSO, and inspect or end the
current member session.`,
}

func init() {
	AuthCmd.AddCommand(loginCmd)
	AuthCmd.AddCommand(registerCmd)
	AuthCmd.AddCommand(ssoCmd)
	AuthCmd.AddCommand(logoutCmd)
	AuthCmd.AddCommand(statusCmd)
}

func sdkClient(ctx context.Context) (*sdk.Client, error) {
	cfg := config.MustFromContext(ctx)
	return cfg.SDKClient()
}
