package sdk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Realm separates admin routes from user routes; each has its own login page.
type Realm string

const (
	RealmAdmin Realm = "admin"
	RealmUser  Realm = "user"
)

// Default routes used by the guard.
const (
	AdminLoginRoute   = "/adminlogin"
	UserLoginRoute    = "/login"
	LandingRoute      = "/"
	AdminHomeRoute    = "/adminmain"
	UserHomeRoute     = "/userpage"
	defaultRoleCache  = 256
	defaultRoleMaxAge = 5 * time.Minute
)

// Verdict is the outcome of a guard check.
type Verdict int

const (
	Allow Verdict = iota
	Deny
	// Pending means a role check is outstanding; render a neutral loading
	// state rather than the protected content.
	Pending
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "pending"
	}
}

// Decision is returned by the guard for a requested path.
type Decision struct {
	Verdict Verdict
	// RedirectTo is set on Deny.
	RedirectTo string
	// RememberedPath is the originally requested path, set when the user is
	// sent to a login route so the login flow can return there afterwards.
	RememberedPath string
}

// Rule protects every path starting with Prefix.
type Rule struct {
	Prefix string
	Realm  Realm
	// RequiredRole enables role gating for this rule when a RoleVerifier
	// is configured. Empty means any authenticated principal may enter.
	RequiredRole string
}

// DefaultRules protects the admin console and the user pages.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/admin", Realm: RealmAdmin},
		{Prefix: "/userpage", Realm: RealmUser},
		{Prefix: "/userorders", Realm: RealmUser},
		{Prefix: "/profile", Realm: RealmUser},
		{Prefix: "/gcashpayment", Realm: RealmUser},
		{Prefix: "/invoice", Realm: RealmUser},
	}
}

// Authenticator answers whether a principal is logged in for a realm.
// *Session implements it.
type Authenticator interface {
	Authenticated(realm Realm) (principal string, ok bool)
}

// RoleVerifier performs the remote role check used by role gating.
type RoleVerifier interface {
	HasRole(ctx context.Context, realm Realm, principal, role string) (bool, error)
}

// RoleVerifierFunc adapts a function to RoleVerifier.
type RoleVerifierFunc func(ctx context.Context, realm Realm, principal, role string) (bool, error)

func (f RoleVerifierFunc) HasRole(ctx context.Context, realm Realm, principal, role string) (bool, error) {
	return f(ctx, realm, principal, role)
}

// GuardOptions configures Guard construction.
type GuardOptions struct {
	Rules        []Rule
	Verifier     RoleVerifier
	RoleCacheTTL time.Duration
	Logger       *slog.Logger
}

// GuardOption mutates GuardOptions.
type GuardOption func(*GuardOptions)

// WithRules replaces the default rules.
func WithRules(rules ...Rule) GuardOption {
	return func(opts *GuardOptions) {
		opts.Rules = rules
	}
}

// WithRoleVerifier enables role gating for rules with a RequiredRole.
func WithRoleVerifier(v RoleVerifier) GuardOption {
	return func(opts *GuardOptions) {
		opts.Verifier = v
	}
}

// WithRoleCacheTTL sets how long role verdicts are reused.
func WithRoleCacheTTL(ttl time.Duration) GuardOption {
	return func(opts *GuardOptions) {
		opts.RoleCacheTTL = ttl
	}
}

// WithGuardLogger sets the guard's logger.
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(opts *GuardOptions) {
		opts.Logger = logger
	}
}

// Guard decides whether navigation to a path is allowed.
//
// The default policy is a plain authenticated check per realm. Role gating
// is opt-in through WithRoleVerifier and rules carrying a RequiredRole.
type Guard struct {
	auth     Authenticator
	rules    []Rule
	verifier RoleVerifier
	verdicts *expirable.LRU[string, bool]
	logger   *slog.Logger
}

// NewGuard builds a Guard over auth.
func NewGuard(auth Authenticator, optFns ...GuardOption) *Guard {
	opts := GuardOptions{Rules: DefaultRules(), RoleCacheTTL: defaultRoleMaxAge}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rules := append([]Rule(nil), opts.Rules...)
	// Longest prefix first so specific rules shadow general ones.
	sort.SliceStable(rules, func(i, j int) bool { return len(rules[i].Prefix) > len(rules[j].Prefix) })

	return &Guard{
		auth:     auth,
		rules:    rules,
		verifier: opts.Verifier,
		verdicts: expirable.NewLRU[string, bool](defaultRoleCache, nil, opts.RoleCacheTTL),
		logger:   opts.Logger,
	}
}

// CanEnter evaluates path synchronously. When role gating needs a remote
// check that has not been cached yet, the verdict is Pending.
func (g *Guard) CanEnter(path string) Decision {
	rule, protected := g.match(path)
	if !protected {
		return Decision{Verdict: Allow}
	}
	principal, ok := g.auth.Authenticated(rule.Realm)
	if !ok {
		return deny(rule.Realm, path)
	}
	if !g.gated(rule) {
		return Decision{Verdict: Allow}
	}
	allowed, cached := g.verdicts.Get(roleKey(rule, principal))
	if !cached {
		return Decision{Verdict: Pending}
	}
	return roleDecision(allowed)
}

// Resolve evaluates path, performing at most one remote role check. The
// check runs under ctx, so cancelling ctx (the view going away) abandons it
// without recording a verdict.
func (g *Guard) Resolve(ctx context.Context, path string) (Decision, error) {
	d := g.CanEnter(path)
	if d.Verdict != Pending {
		return d, nil
	}

	rule, _ := g.match(path)
	principal, ok := g.auth.Authenticated(rule.Realm)
	if !ok {
		return deny(rule.Realm, path), nil
	}

	allowed, err := g.verifier.HasRole(ctx, rule.Realm, principal, rule.RequiredRole)
	if err != nil {
		if ctx.Err() != nil {
			return Decision{Verdict: Pending}, fmt.Errorf("role check cancelled: %w", ctx.Err())
		}
		g.logger.Warn("role check failed", "path", path, "principal", principal, "error", err)
		return Decision{Verdict: Deny, RedirectTo: LandingRoute}, fmt.Errorf("role check failed: %w", err)
	}
	g.verdicts.Add(roleKey(rule, principal), allowed)
	return roleDecision(allowed), nil
}

// Forget drops every cached role verdict, e.g. after a logout.
func (g *Guard) Forget() {
	g.verdicts.Purge()
}

// AfterLogin returns where a login flow for realm should navigate: the
// remembered path when present, the realm's home route otherwise.
func AfterLogin(realm Realm, remembered string) string {
	if remembered != "" && remembered != loginRoute(realm) {
		return remembered
	}
	if realm == RealmAdmin {
		return AdminHomeRoute
	}
	return UserHomeRoute
}

func (g *Guard) match(path string) (Rule, bool) {
	if route := routeOf(path); route == AdminLoginRoute || route == UserLoginRoute {
		return Rule{}, false
	}
	for _, r := range g.rules {
		if strings.HasPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return Rule{}, false
}

// routeOf drops the query, fragment and trailing slash of a navigation path.
func routeOf(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return p
	}
	return path.Clean(p)
}

func (g *Guard) gated(r Rule) bool {
	return g.verifier != nil && r.RequiredRole != ""
}

func deny(realm Realm, path string) Decision {
	return Decision{Verdict: Deny, RedirectTo: loginRoute(realm), RememberedPath: path}
}

func roleDecision(allowed bool) Decision {
	if allowed {
		return Decision{Verdict: Allow}
	}
	return Decision{Verdict: Deny, RedirectTo: LandingRoute}
}

func loginRoute(realm Realm) string {
	if realm == RealmAdmin {
		return AdminLoginRoute
	}
	return UserLoginRoute
}

func roleKey(r Rule, principal string) string {
	return string(r.Realm) + "|" + principal + "|" + r.RequiredRole
}
