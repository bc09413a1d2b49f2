package catalog

import (
	"fmt"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/input"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// MerchCmd is the parent command for the merchandise store
var MerchCmd = &cobra.Command{
	Use:     "merch",
	Aliases: []string{"merchandise"},
	Short:   "Browse and manage merchandise",
}

var merchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		items, err := hub.ListMerchandise(ctx)
		if err != nil {
			return err
		}
		return output.MerchandiseTable(cmd.OutOrStdout(), items).Render()
	},
}

var merchSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search the catalogue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		items, err := hub.SearchMerchandise(ctx, args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			pterm.Info.Printf("No merchandise matches %q\n", args[0])
			return nil
		}
		return output.MerchandiseTable(cmd.OutOrStdout(), items).Render()
	},
}

var (
	newItem   sdk.Merchandise
	itemImage string
)

var merchCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a catalogue item (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if newItem.Name == "" {
			return fmt.Errorf("--name is required")
		}
		if newItem.Price < 0 || newItem.Stock < 0 {
			return fmt.Errorf("price and stock must not be negative")
		}
		image, err := input.ReadImage(itemImage)
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

		if err := hub.CreateMerchandise(ctx, newItem, image); err != nil {
			return err
		}
		pterm.Success.Printf("%s added at %s\n", newItem.Name, output.Money(newItem.Price))
		return nil
	},
}

var merchDeleteOptimistic bool

var merchDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Remove a catalogue item (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := input.ParseID(args[0], "merchandise")
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

		outcome, err := hub.DeleteMerchandise(ctx, id, merchDeleteOptimistic)
		return output.ReportDelete(cmd.OutOrStdout(), "merchandise", outcome, err)
	},
}

func init() {
	merchCreateCmd.Flags().StringVar(&newItem.Name, "name", "", "Item name")
	merchCreateCmd.Flags().StringVar(&newItem.Description, "description", "", "Item description")
	merchCreateCmd.Flags().Float64Var(&newItem.Price, "price", 0, "Price in pesos")
	merchCreateCmd.Flags().IntVar(&newItem.Stock, "stock", 0, "Units in stock")
	merchCreateCmd.Flags().StringVar(&itemImage, "image", "", "Product image file")

	merchDeleteCmd.Flags().BoolVar(&merchDeleteOptimistic, "optimistic", false, "Treat the delete as done even if the server does not confirm it")

	MerchCmd.AddCommand(merchListCmd)
	MerchCmd.AddCommand(merchSearchCmd)
	MerchCmd.AddCommand(merchCreateCmd)
	MerchCmd.AddCommand(merchDeleteCmd)
}
