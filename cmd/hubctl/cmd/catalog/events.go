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

// EventsCmd is the parent command for events
var EventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse and manage events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		hub, err := cfg.SDKClient()
		if err != nil {
			return err
		}
		ctx, cancel := cfg.CommandContext(cmd.Context())
		defer cancel()

		events, err := hub.ListEvents(ctx)
		if err != nil {
			return err
		}
		return output.EventsTable(cmd.OutOrStdout(), events).Render()
	},
}

var newEvent sdk.Event
var eventImage string

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish an event (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if newEvent.Title == "" {
			return fmt.Errorf("--title is required")
		}
		image, err := input.ReadImage(eventImage)
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

		if err := hub.CreateEvent(ctx, newEvent, image); err != nil {
			return err
		}
		pterm.Success.Printf("Event %q created\n", newEvent.Title)
		return nil
	},
}

var eventsDeleteOptimistic bool

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete an event (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := input.ParseID(args[0], "event")
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

		outcome, err := hub.DeleteEvent(ctx, id, eventsDeleteOptimistic)
		return output.ReportDelete(cmd.OutOrStdout(), "event", outcome, err)
	},
}

func init() {
	eventsCreateCmd.Flags().StringVar(&newEvent.Title, "title", "", "Event title")
	eventsCreateCmd.Flags().StringVar(&newEvent.Description, "description", "", "Event description")
	eventsCreateCmd.Flags().StringVar(&newEvent.Location, "location", "", "Venue")
	eventsCreateCmd.Flags().StringVar(&newEvent.EventDate, "date", "", "Event date (YYYY-MM-DD)")
	eventsCreateCmd.Flags().StringVar(&newEvent.EventType, "type", "", "Event type")
	eventsCreateCmd.Flags().StringVar(&eventImage, "image", "", "Poster image file")

	eventsDeleteCmd.Flags().BoolVar(&eventsDeleteOptimistic, "optimistic", false, "Treat the delete as done even if the server does not confirm it")

	EventsCmd.AddCommand(eventsListCmd)
	EventsCmd.AddCommand(eventsCreateCmd)
	EventsCmd.AddCommand(eventsDeleteCmd)
}
