package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mr123ivan/CSSHUB-FINAL/cmd/hubctl/internal/auth"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
)

// Options configures a Provider.
type Options struct {
	Endpoints    sdk.Endpoints
	StoragePath  string
	LockTimeout  time.Duration
	HTTPTimeout  time.Duration
	MaxBodyBytes int64
	SSO          sdk.SSOConfig
	RoleCacheTTL time.Duration
	// Rules defaults to sdk.DefaultRules.
	Rules  []sdk.Rule
	Logger *slog.Logger
	// Navigator defaults to opening the system browser.
	Navigator sdk.Navigator
	// Ephemeral overrides the per-process enclave storage (tests).
	Ephemeral sdk.Storage
}

// Provider lazily builds the session, SDK client and route guard shared by
// every command in one hubctl invocation.
type Provider struct {
	opts Options

	envOnce sync.Once
	env     sdk.Environment
	durable *auth.BoltStore
	enclave *auth.EnclaveStore
	envErr  error

	sessionOnce sync.Once
	session     *sdk.Session
	sessionErr  error

	sdkOnce   sync.Once
	sdkClient *sdk.Client
	sdkErr    error

	guardOnce sync.Once
	guard     *sdk.Guard
	guardErr  error
}

// NewProvider constructs a Provider. Nothing is opened until first use.
func NewProvider(opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Navigator == nil {
		opts.Navigator = BrowserNavigator{}
	}
	return &Provider{opts: opts}
}

func (p *Provider) environment() (sdk.Environment, error) {
	p.envOnce.Do(func() {
		durable, err := auth.OpenBoltStore(p.opts.StoragePath, p.opts.LockTimeout)
		if err != nil {
			p.envErr = err
			return
		}
		p.durable = durable

		ephemeral := p.opts.Ephemeral
		if ephemeral == nil {
			p.enclave = auth.NewEnclaveStore()
			ephemeral = p.enclave
		}
		p.env = sdk.Environment{Durable: durable, Ephemeral: ephemeral, Bus: sdk.NewStorageBus()}
	})
	return p.env, p.envErr
}

// Session returns the process-wide session.
func (p *Provider) Session() (*sdk.Session, error) {
	p.sessionOnce.Do(func() {
		env, err := p.environment()
		if err != nil {
			p.sessionErr = err
			return
		}
		logoutURL, err := p.opts.SSO.SSOLogoutURL()
		if err != nil {
			p.sessionErr = err
			return
		}
		p.session = sdk.NewSession(env,
			sdk.WithLogger(p.opts.Logger),
			sdk.WithNavigator(p.opts.Navigator),
			sdk.WithSSOLogoutURL(logoutURL),
		)
	})
	return p.session, p.sessionErr
}

// SDKClient returns a client whose credentials come from Session.
func (p *Provider) SDKClient() (*sdk.Client, error) {
	p.sdkOnce.Do(func() {
		session, err := p.Session()
		if err != nil {
			p.sdkErr = err
			return
		}
		timeout := p.opts.HTTPTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		p.sdkClient, p.sdkErr = sdk.NewClient(p.opts.Endpoints, session,
			sdk.WithHTTPClient(newHTTPClient(timeout)),
			sdk.WithClientLogger(p.opts.Logger),
			sdk.WithClientMaxBodyBytes(p.opts.MaxBodyBytes),
		)
	})
	return p.sdkClient, p.sdkErr
}

// Guard returns a route guard over Session. Role-gated rules are verified
// against the backend through SDKClient.
func (p *Provider) Guard() (*sdk.Guard, error) {
	p.guardOnce.Do(func() {
		cl, err := p.SDKClient()
		if err != nil {
			p.guardErr = err
			return
		}
		opts := []sdk.GuardOption{
			sdk.WithGuardLogger(p.opts.Logger),
			sdk.WithRoleVerifier(roleVerifier(cl)),
		}
		if len(p.opts.Rules) > 0 {
			opts = append(opts, sdk.WithRules(p.opts.Rules...))
		}
		if p.opts.RoleCacheTTL > 0 {
			opts = append(opts, sdk.WithRoleCacheTTL(p.opts.RoleCacheTTL))
		}
		p.guard = sdk.NewGuard(cl.Session(), opts...)
	})
	return p.guard, p.guardErr
}

// roleVerifier checks user roles with the current-user endpoint. The admin
// realm has a single role, held by whoever passed admin login.
func roleVerifier(cl *sdk.Client) sdk.RoleVerifier {
	return sdk.RoleVerifierFunc(func(ctx context.Context, realm sdk.Realm, _ string, role string) (bool, error) {
		if realm == sdk.RealmAdmin {
			return strings.EqualFold(role, "admin") && cl.Session().AdminAuthenticated(), nil
		}
		user, err := cl.CurrentUser(ctx)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(user.Role, role), nil
	})
}

// Navigator returns the navigator used for external pages.
func (p *Provider) Navigator() sdk.Navigator { return p.opts.Navigator }

// SSO returns the configured SSO page locations.
func (p *Provider) SSO() sdk.SSOConfig { return p.opts.SSO }

// Close releases the session, the database lock and sealed memory.
func (p *Provider) Close() error {
	if p.session != nil {
		p.session.Close()
	}
	var errs []error
	if p.durable != nil {
		errs = append(errs, p.durable.Close())
	}
	if p.enclave != nil {
		p.enclave.Purge()
	}
	return errors.Join(errs...)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	client := sdk.NewHTTPClient()
	client.Timeout = timeout
	return client
}

// EnsureTimeout bounds ctx by timeout unless it already has a deadline.
func EnsureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, timeout)
}
