package admin

import (
	"strconv"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/output"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show member, event, merchandise and order counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.AdminClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		summary, err := hub.DashboardSummary(ctx)
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Dashboard")
		table := output.NewTableWithWriter(cmd.OutOrStdout(), "Metric", "Count")
		table.AddRow("Members", strconv.Itoa(summary.Users))
		table.AddRow("Events", strconv.Itoa(summary.Events))
		table.AddRow("Merchandise", strconv.Itoa(summary.Merchandise))
		table.AddRow("Orders", strconv.Itoa(summary.Orders))
		table.AddRow("Payments awaiting review", strconv.Itoa(summary.PendingPayments))
		return table.Render()
	},
}
