package orders

import (
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	listKeyword string
	listPayment string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all orders (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		payment, err := normalizePayment(listPayment)
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

		orders, err := hub.ListOrders(ctx, listKeyword)
		if err != nil {
			return err
		}
		return output.OrdersTable(cmd.OutOrStdout(), filterPayment(orders, payment)).Render()
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own orders",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		orders, err := hub.ListUserOrders(ctx, me.ID)
		if err != nil {
			return err
		}
		return output.OrdersTable(cmd.OutOrStdout(), orders).Render()
	},
}

func filterPayment(orders []sdk.Order, payment string) []sdk.Order {
	if payment == "" {
		return orders
	}
	out := orders[:0:0]
	for _, o := range orders {
		if o.PaymentStatus == payment {
			out = append(out, o)
		}
	}
	return out
}

func init() {
	listCmd.Flags().StringVar(&listKeyword, "keyword", "", "Filter by customer or item")
	listCmd.Flags().StringVar(&listPayment, "payment", "", "Only show orders with this payment status")
}
