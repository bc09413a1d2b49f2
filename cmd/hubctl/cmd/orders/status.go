package orders

import (
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/input"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	setPayment string
	setStatus  string
)

var setStatusCmd = &cobra.Command{
	Use:   "set-status <order-id>",
	Short: "Approve or reject a payment, or change the order status (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := input.ParseID(args[0], "order")
		if err != nil {
			return err
		}
		payment, err := normalizePayment(setPayment)
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

		order, err := hub.UpdateOrderStatus(ctx, id, payment, setStatus)
		if err != nil {
			return err
		}
		return output.OrdersTable(cmd.OutOrStdout(), []sdk.Order{*order}).Render()
	},
}

var deleteOptimistic bool

var deleteCmd = &cobra.Command{
	Use:   "delete <order-id>",
	Short: "Delete an order (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := input.ParseID(args[0], "order")
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

		outcome, err := hub.DeleteOrder(ctx, id, deleteOptimistic)
		return output.ReportDelete(cmd.OutOrStdout(), "order", outcome, err)
	},
}

func init() {
	setStatusCmd.Flags().StringVar(&setPayment, "payment", "", "Payment status: Pending, Verification Needed, Approved or Rejected")
	setStatusCmd.Flags().StringVar(&setStatus, "status", "", "Order status, e.g. Completed")
	deleteCmd.Flags().BoolVar(&deleteOptimistic, "optimistic", false, "Treat the delete as done even if the server does not confirm it")
}
