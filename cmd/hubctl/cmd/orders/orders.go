package orders

import (
	"fmt"
	"strings"

	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/cobra"
)

// OrdersCmd is the parent command for orders and payments
var OrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Place, review and settle orders",
}

func init() {
	OrdersCmd.AddCommand(listCmd)
	OrdersCmd.AddCommand(mineCmd)
	OrdersCmd.AddCommand(createCmd)
	OrdersCmd.AddCommand(setStatusCmd)
	OrdersCmd.AddCommand(deleteCmd)
	OrdersCmd.AddCommand(receiptCmd)
	OrdersCmd.AddCommand(uploadReceiptCmd)
}

var paymentStatuses = []string{
	sdk.PaymentPending,
	sdk.PaymentVerificationNeeded,
	sdk.PaymentApproved,
	sdk.PaymentRejected,
}

// normalizePayment maps user input onto the backend's spelling.
func normalizePayment(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	for _, known := range paymentStatuses {
		if strings.EqualFold(s, known) || strings.EqualFold(strings.ReplaceAll(s, "-", " "), known) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown payment status %q (expected one of: %s)", s, strings.Join(paymentStatuses, ", "))
}
