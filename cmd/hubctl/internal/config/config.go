package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/client"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
)

type contextKey string

const configKey contextKey = "hubctl-config"

// GlobalConfig holds shared configuration for all hubctl commands.
// The root command's PersistentPreRunE injects it into the cobra context.
type GlobalConfig struct {
	Settings       *Settings
	NonInteractive bool
	Logger         *slog.Logger
	ClientProvider *client.Provider
	// Prompt reads passwords in interactive mode.
	Prompt client.PasswordPrompt
}

// SDKClient returns the shared client.
func (c *GlobalConfig) SDKClient() (*sdk.Client, error) {
	return c.ClientProvider.SDKClient()
}

// AdminClient returns the shared client once admin basic credentials are
// available, prompting for the password when needed.
func (c *GlobalConfig) AdminClient() (*sdk.Client, error) {
	cl, err := c.ClientProvider.SDKClient()
	if err != nil {
		return nil, err
	}
	if err := client.EnsureAdminCredentials(cl.Session(), c.NonInteractive, c.Prompt); err != nil {
		return nil, err
	}
	return cl, nil
}

// CommandContext bounds ctx so that a primary and a secondary attempt both
// fit inside it.
func (c *GlobalConfig) CommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := 30 * time.Second
	if c.Settings != nil && c.Settings.HTTP.Timeout > 0 {
		timeout = 2*c.Settings.HTTP.Timeout + 5*time.Second
	}
	return client.EnsureTimeout(ctx, timeout)
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// Only use it in RunE functions, after the root command injected the config.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("hubctl: config not found in context - this is a bug in hubctl")
	}
	return cfg
}
