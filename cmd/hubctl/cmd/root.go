package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/cmd/admin"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/cmd/auth"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/cmd/catalog"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/cmd/orders"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/cmd/route"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/cmd/users"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/client"
	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile        string
	nonInteractive bool
	verbose        bool

	provider *client.Provider
)

var rootCmd = &cobra.Command{
	Use:   "hubctl",
	Short: "CSS-HUB CLI - events, merchandise and orders client",
	Long: `hubctl is the command-line client for CSS-HUB. It logs in with a local
account, through SSO, or as an administrator, and manages members, events,
merchandise and orders.

Every request goes to the primary backend first and is replayed once against
the secondary backend when the primary fails.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("CSSHUB_NON_INTERACTIVE") == "1" {
			nonInteractive = true
		}

		v := viper.New()
		_ = v.BindPFlag("endpoints.primary", cmd.Root().PersistentFlags().Lookup("primary"))
		_ = v.BindPFlag("endpoints.secondary", cmd.Root().PersistentFlags().Lookup("secondary"))
		_ = v.BindPFlag("storage.path", cmd.Root().PersistentFlags().Lookup("storage"))

		settings, err := config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		nonInteractive = nonInteractive || settings.NonInteractive

		logger := newLogger(settings.Logging.Level, verbose)
		logger.Debug("configuration loaded",
			"primary", settings.Endpoints.Primary,
			"secondary", settings.Endpoints.Secondary,
			"storage", settings.Storage.Path,
		)

		provider = client.NewProvider(client.Options{
			Endpoints:    settings.EndpointMap(),
			StoragePath:  settings.Storage.Path,
			LockTimeout:  settings.Storage.LockTimeout,
			HTTPTimeout:  settings.HTTP.Timeout,
			MaxBodyBytes: settings.HTTP.MaxBodyBytes,
			SSO:          settings.SSOConfig(),
			RoleCacheTTL: settings.Guard.RoleCacheTTL,
			Rules:        settings.GuardRules(),
			Logger:       logger,
		})

		cmd.SetContext(config.InjectConfig(cmd.Context(), &config.GlobalConfig{
			Settings:       settings,
			NonInteractive: nonInteractive,
			Logger:         logger,
			ClientProvider: provider,
			Prompt:         client.TerminalPasswordPrompt,
		}))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	err := rootCmd.Execute()
	if provider != nil {
		if cerr := provider.Close(); cerr != nil {
			fmt.Fprintln(os.Stderr, cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./hubctl.yaml or ~/.config/hubctl/hubctl.yaml)")
	rootCmd.PersistentFlags().String("primary", "", "primary backend URL")
	rootCmd.PersistentFlags().String("secondary", "", "secondary backend URL")
	rootCmd.PersistentFlags().String("storage", "", "session database path")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive prompts (also set via CSSHUB_NON_INTERACTIVE=1)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(admin.AdminCmd)
	rootCmd.AddCommand(users.UsersCmd)
	rootCmd.AddCommand(catalog.EventsCmd)
	rootCmd.AddCommand(catalog.MerchCmd)
	rootCmd.AddCommand(orders.OrdersCmd)
	rootCmd.AddCommand(route.RouteCmd)
}
