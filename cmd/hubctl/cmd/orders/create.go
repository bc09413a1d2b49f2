package orders

import (
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	createEventID int
	createItemID  int
	createAmount  float64
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Order an event ticket or a merchandise item",
	Long: `Places an order for the logged-in member. Pass exactly one of --event or
--merch. The order starts with payment status Pending; attach proof of payment
with upload-receipt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (createEventID > 0) == (createItemID > 0) {
			return fmt.Errorf("pass exactly one of --event or --merch")
		}
		if createAmount <= 0 {
			return fmt.Errorf("--amount must be greater than zero")
		}
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		me, err := hub.CurrentUser(ctx)
		if err != nil {
			return err
		}
		in := sdk.OrderInput{UserID: me.ID, TotalAmount: createAmount}
		if createEventID > 0 {
			in.EventID = &createEventID
		} else {
			in.MerchandiseID = &createItemID
		}

		id, err := hub.CreateOrder(ctx, in)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Order %d placed for %s\n", id, output.Money(createAmount))
		pterm.Info.Printf("Upload your receipt with: hubctl orders upload-receipt %d <file>\n", id)
		return nil
	},
}

func init() {
	createCmd.Flags().IntVar(&createEventID, "event", 0, "Event id")
	createCmd.Flags().IntVar(&createItemID, "merch", 0, "Merchandise id")
	createCmd.Flags().Float64Var(&createAmount, "amount", 0, "Total amount in pesos")
}
