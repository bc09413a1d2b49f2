package client

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/zitadel/oidc/v3/pkg/client/rp/cli"
)

// BrowserNavigator implements sdk.Navigator by opening the system browser.
type BrowserNavigator struct{}

// Navigate opens url. OpenBrowser is best effort and reports no error, so
// the URL is also printed for the user to open by hand.
func (BrowserNavigator) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pterm.Info.Printf("Opening %s\n", url)
	cli.OpenBrowser(url)
	return nil
}
