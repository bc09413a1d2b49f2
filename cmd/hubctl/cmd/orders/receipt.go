package orders

import (
	"fmt"
	"mime"
	"os"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/input"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var receiptOut string

var receiptCmd = &cobra.Command{
	Use:   "receipt <order-id>",
	Short: "Download the payment receipt of an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := input.ParseID(args[0], "order")
		if err != nil {
			return err
		}
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		image, contentType, err := hub.ReceiptImage(ctx, id)
		if err != nil {
			return err
		}
		path := receiptOut
		if path == "" {
			path = image.Filename + extensionFor(contentType)
		}
		if err := os.WriteFile(path, image.Data, 0600); err != nil {
			return fmt.Errorf("failed to save receipt: %w", err)
		}
		pterm.Success.Printf("Saved receipt for order %d to %s\n", id, path)
		return nil
	},
}

var uploadReceiptCmd = &cobra.Command{
	Use:   "upload-receipt <order-id> <image-file>",
	Short: "Attach proof of payment to your order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := input.ParseID(args[0], "order")
		if err != nil {
			return err
		}
		image, err := input.ReadImage(args[1])
		if err != nil {
			return err
		}
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		if err := hub.UploadReceipt(ctx, id, *image); err != nil {
			return err
		}
		pterm.Success.Printf("Receipt uploaded; order %d is awaiting verification\n", id)
		return nil
	},
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	return exts[0]
}

func init() {
	receiptCmd.Flags().StringVarP(&receiptOut, "out", "o", "", "Output file (default receipt-<id> with an extension from the content type)")
}
