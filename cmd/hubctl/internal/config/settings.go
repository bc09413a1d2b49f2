package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/spf13/viper"
)

// Settings is the resolved hubctl configuration.
type Settings struct {
	Endpoints      EndpointSettings `mapstructure:"endpoints"`
	Storage        StorageSettings  `mapstructure:"storage"`
	SSO            SSOSettings      `mapstructure:"sso"`
	HTTP           HTTPSettings     `mapstructure:"http"`
	Guard          GuardSettings    `mapstructure:"guard"`
	Logging        LoggingSettings  `mapstructure:"logging"`
	NonInteractive bool             `mapstructure:"non_interactive"`
}

// EndpointSettings holds the default pair and optional per-family overrides.
type EndpointSettings struct {
	Primary   string                  `mapstructure:"primary"`
	Secondary string                  `mapstructure:"secondary"`
	Families  map[string]PairSettings `mapstructure:"families"`
}

// PairSettings overrides the endpoints of one resource family.
type PairSettings struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
}

// StorageSettings locates the durable session database.
type StorageSettings struct {
	Path        string        `mapstructure:"path"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// SSOSettings configures browser-based login.
type SSOSettings struct {
	// BaseURL defaults to the primary auth endpoint.
	BaseURL      string        `mapstructure:"base_url"`
	LoginPath    string        `mapstructure:"login_path"`
	LogoutPath   string        `mapstructure:"logout_path"`
	CallbackAddr string        `mapstructure:"callback_addr"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// HTTPSettings tunes backend calls.
type HTTPSettings struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// GuardSettings configures the route guard.
type GuardSettings struct {
	RoleCacheTTL time.Duration `mapstructure:"role_cache_ttl"`
	// Rules replaces the built-in protected prefixes when set.
	Rules []RuleSettings `mapstructure:"rules"`
}

// RuleSettings protects one path prefix.
type RuleSettings struct {
	Prefix string `mapstructure:"prefix"`
	Realm  string `mapstructure:"realm"`
	Role   string `mapstructure:"role"`
}

// LoggingSettings controls the stderr logger.
type LoggingSettings struct {
	Level string `mapstructure:"level"`
}

// Load reads hubctl.yaml (or cfgFile) and CSSHUB_* environment variables
// into Settings. A missing config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Settings, error) {
	if v == nil {
		v = viper.New()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("hubctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/hubctl")
	}

	v.SetEnvPrefix("CSSHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if s.SSO.BaseURL == "" {
		s.SSO.BaseURL = s.Endpoints.Primary
		if auth, ok := s.Endpoints.Families[string(sdk.FamilyAuth)]; ok && auth.Primary != "" {
			s.SSO.BaseURL = auth.Primary
		}
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoints.primary", "https://ccshub-systeminteg.azurewebsites.net")
	v.SetDefault("endpoints.secondary", "http://localhost:8080")

	v.SetDefault("storage.path", defaultStoragePath())
	v.SetDefault("storage.lock_timeout", 2*time.Second)

	v.SetDefault("sso.login_path", sdk.DefaultSSOLoginPath)
	v.SetDefault("sso.logout_path", sdk.DefaultSSOLogoutPath)
	v.SetDefault("sso.callback_addr", "127.0.0.1:8765")
	v.SetDefault("sso.timeout", 3*time.Minute)

	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("http.max_body_bytes", 32<<20)

	v.SetDefault("guard.role_cache_ttl", 5*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("non_interactive", false)
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hubctl-session.db"
	}
	return filepath.Join(home, ".config", "hubctl", "session.db")
}

// EndpointMap builds the per-family endpoint pairs.
func (s *Settings) EndpointMap() sdk.Endpoints {
	eps := sdk.UniformEndpoints(sdk.EndpointPair{Primary: s.Endpoints.Primary, Secondary: s.Endpoints.Secondary})
	for name, override := range s.Endpoints.Families {
		family := sdk.Family(strings.ToLower(name))
		pair := eps[family]
		if override.Primary != "" {
			pair.Primary = override.Primary
		}
		if override.Secondary != "" {
			pair.Secondary = override.Secondary
		}
		eps[family] = pair
	}
	return eps
}

// SSOConfig returns the SSO page locations.
func (s *Settings) SSOConfig() sdk.SSOConfig {
	return sdk.SSOConfig{BaseURL: s.SSO.BaseURL, LoginPath: s.SSO.LoginPath, LogoutPath: s.SSO.LogoutPath}
}

// GuardRules returns the configured rules, or the built-in ones.
func (s *Settings) GuardRules() []sdk.Rule {
	if len(s.Guard.Rules) == 0 {
		return sdk.DefaultRules()
	}
	rules := make([]sdk.Rule, 0, len(s.Guard.Rules))
	for _, r := range s.Guard.Rules {
		rules = append(rules, sdk.Rule{
			Prefix:       r.Prefix,
			Realm:        sdk.Realm(strings.ToLower(r.Realm)),
			RequiredRole: r.Role,
		})
	}
	return rules
}

func (s *Settings) validate() error {
	known := make(map[sdk.Family]bool, len(sdk.Families))
	for _, f := range sdk.Families {
		known[f] = true
	}
	for name := range s.Endpoints.Families {
		if !known[sdk.Family(strings.ToLower(name))] {
			return fmt.Errorf("unknown endpoint family %q", name)
		}
	}
	if err := s.EndpointMap().Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.Logging.Level)] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", s.Logging.Level)
	}
	if s.Storage.Path == "" {
		return errors.New("storage path is required")
	}
	for i, r := range s.Guard.Rules {
		if !strings.HasPrefix(r.Prefix, "/") {
			return fmt.Errorf("guard rule %d: prefix must start with /", i)
		}
		switch sdk.Realm(strings.ToLower(r.Realm)) {
		case sdk.RealmAdmin, sdk.RealmUser:
		default:
			return fmt.Errorf("guard rule %d: realm must be admin or user, got %q", i, r.Realm)
		}
	}
	return nil
}
