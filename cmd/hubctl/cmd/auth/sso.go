package auth

import (
	"context"
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/client"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	ssoToken     string
	ssoNoBrowser bool
)

var ssoCmd = &cobra.Command{
	Use:   "sso",
	Short: "Log in through the organisation's single sign-on",
	Long: `Opens the SSO login page in the browser and waits on the loopback
callback address for the redirect carrying the token.

The backend does not learn the callback address from hubctl. Its post-login
redirect must already point at sso.callback_addr (default 127.0.0.1:8765),
for example http://127.0.0.1:8765/callback?token=<jwt>. Any path on that
address is accepted.

If the browser cannot reach hubctl, copy the token from the final address
bar and pass it with --token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		session, err := cfg.ClientProvider.Session()
		if err != nil {
			return err
		}

		token := ssoToken
		if token == "" {
			if cfg.NonInteractive {
				return fmt.Errorf("--token is required in non-interactive mode")
			}
			token, err = waitForSSOToken(cmd.Context(), cfg)
			if err != nil {
				return err
			}
		}

		if err := session.CompleteSSOLogin(token); err != nil {
			return err
		}
		claims, _ := session.Claims()
		pterm.Success.Println("SSO login successful")
		if claims.Subject != "" {
			pterm.Info.Printf("Authenticated as: %s\n", claims.Subject)
		}
		pterm.Info.Printf("Token expires at: %s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

func waitForSSOToken(ctx context.Context, cfg *config.GlobalConfig) (string, error) {
	callback, err := client.ListenSSOCallback(cfg.Settings.SSO.CallbackAddr)
	if err != nil {
		return "", err
	}
	defer callback.Close()

	loginURL, err := cfg.ClientProvider.SSO().SSOLoginURL()
	if err != nil {
		return "", err
	}
	if ssoNoBrowser {
		pterm.Info.Printf("Open this address to log in: %s\n", loginURL)
	} else if err := cfg.ClientProvider.Navigator().Navigate(ctx, loginURL); err != nil {
		return "", err
	}
	pterm.Info.Printf("Waiting for the SSO redirect on %s\n", callback.URL())

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Settings.SSO.Timeout)
	defer cancel()
	return callback.Wait(waitCtx)
}

func init() {
	ssoCmd.Flags().StringVar(&ssoToken, "token", "", "Token copied from the SSO redirect")
	ssoCmd.Flags().BoolVar(&ssoNoBrowser, "no-browser", false, "Print the login address instead of opening a browser")
}
