package sdk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuthState is the user-facing authentication state.
type AuthState int

const (
	LoggedOut AuthState = iota
	LoggedInLocal
	LoggedInSso
)

func (s AuthState) String() string {
	switch s {
	case LoggedInLocal:
		return "LoggedInLocal"
	case LoggedInSso:
		return "LoggedInSso"
	default:
		return "LoggedOut"
	}
}

// AuthSource tags where the current token came from. It is derived from the
// state and cannot be set on its own.
type AuthSource string

const (
	SourceNone  AuthSource = "none"
	SourceLocal AuthSource = "local"
	SourceSSO   AuthSource = "sso"
)

// Source returns the AuthSource implied by s.
func (s AuthState) Source() AuthSource {
	switch s {
	case LoggedInLocal:
		return SourceLocal
	case LoggedInSso:
		return SourceSSO
	default:
		return SourceNone
	}
}

// Status is a snapshot of both the user session and the admin session.
type Status struct {
	State AuthState
	Admin bool
}

// Transition is delivered to Session subscribers when Status changes.
type Transition struct {
	Previous Status
	Current  Status
	Cause    string
}

// Navigator sends the user agent to an external URL (the SSO logout page).
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error { return f(ctx, url) }

// LogoutResult reports what an explicit logout did.
type LogoutResult struct {
	PreviousSource AuthSource
	// RedirectURL is set when the upstream SSO session must be terminated.
	RedirectURL string
}

// SessionOptions configures Session construction.
type SessionOptions struct {
	Logger       *slog.Logger
	Navigator    Navigator
	SSOLogoutURL string
	Clock        func() time.Time
}

// SessionOption mutates SessionOptions.
type SessionOption func(*SessionOptions)

// WithLogger sets the structured logger used by the session and its stores.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(opts *SessionOptions) {
		opts.Logger = logger
	}
}

// WithNavigator sets the navigator used to reach the SSO logout URL.
func WithNavigator(n Navigator) SessionOption {
	return func(opts *SessionOptions) {
		opts.Navigator = n
	}
}

// WithSSOLogoutURL sets the upstream logout URL visited after an SSO logout.
func WithSSOLogoutURL(url string) SessionOption {
	return func(opts *SessionOptions) {
		opts.SSOLogoutURL = url
	}
}

// WithClock overrides time.Now for token expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(opts *SessionOptions) {
		opts.Clock = now
	}
}

// Session is the client-side authentication state machine. It owns a
// TokenStore and an AdminCredentialStore and is the only way the rest of
// the program reads or changes authentication state.
//
// Sessions sharing an Environment observe each other's writes through the
// StorageBus and re-derive their state without any user action.
type Session struct {
	id        string
	tokens    *TokenStore
	admin     *AdminCredentialStore
	navigator Navigator
	logoutURL string
	logger    *slog.Logger

	mu        sync.Mutex
	status    Status
	nextSub   int
	listeners map[int]func(Transition)

	unsubscribe func()
}

// NewSession builds a Session over env and derives the initial state.
// A stored token that fails validation is cleared along with its profile.
func NewSession(env Environment, optFns ...SessionOption) *Session {
	opts := SessionOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if env.Durable == nil {
		env.Durable = NewMemoryStorage()
	}
	if env.Ephemeral == nil {
		env.Ephemeral = NewMemoryStorage()
	}

	id := uuid.NewString()
	durable := storageWriter{area: AreaDurable, store: env.Durable, bus: env.Bus, origin: id}
	ephemeral := storageWriter{area: AreaEphemeral, store: env.Ephemeral, bus: env.Bus, origin: id}
	logger := opts.Logger.With("session", id)

	s := &Session{
		id:        id,
		tokens:    newTokenStore(durable, opts.Clock, logger),
		admin:     newAdminCredentialStore(durable, ephemeral, logger),
		navigator: opts.Navigator,
		logoutURL: opts.SSOLogoutURL,
		logger:    logger,
		listeners: make(map[int]func(Transition)),
	}
	s.status = s.derive()
	if env.Bus != nil {
		s.unsubscribe = env.Bus.Subscribe(s.onStorageEvent)
	}
	s.logger.Debug("session initialized", "state", s.status.State, "admin", s.status.Admin)
	return s
}

// ID identifies this session as the origin of storage events.
func (s *Session) ID() string { return s.id }

// Close stops listening for storage events from other sessions.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// State re-checks the stored token and returns the current state.
func (s *Session) State() AuthState {
	return s.refresh("check").State
}

// Status re-checks storage and returns the user and admin status.
func (s *Session) Status() Status {
	return s.refresh("check")
}

// Source returns the auth source tag of the current state.
func (s *Session) Source() AuthSource {
	return s.State().Source()
}

// Token returns the current valid token.
func (s *Session) Token() (string, bool) {
	if s.State() == LoggedOut {
		return "", false
	}
	return s.tokens.Read()
}

// Claims returns the decoded claims of the current valid token.
func (s *Session) Claims() (TokenClaims, bool) {
	token, ok := s.Token()
	if !ok {
		return TokenClaims{}, false
	}
	claims, err := ParseTokenClaims(token)
	if err != nil {
		return TokenClaims{}, false
	}
	return claims, true
}

// Profile returns the cached profile. It is display data only.
func (s *Session) Profile() (*Profile, bool) {
	if s.State() == LoggedOut {
		return nil, false
	}
	return s.tokens.Profile()
}

// AdminAuthenticated reports whether an admin is logged in.
func (s *Session) AdminAuthenticated() bool {
	return s.refresh("check").Admin
}

// AdminUsername returns the logged-in admin's username.
func (s *Session) AdminUsername() (string, bool) {
	if !s.AdminAuthenticated() {
		return "", false
	}
	return s.admin.CurrentUsername()
}

// UserAuth returns the credentials for user-scoped calls.
func (s *Session) UserAuth() AuthContext {
	token, ok := s.Token()
	if !ok {
		return AuthContext{}
	}
	return AuthContext{BearerToken: token}
}

// AdminAuth returns basic credentials for admin-scoped calls.
func (s *Session) AdminAuth() AuthContext {
	if !s.AdminAuthenticated() {
		return AuthContext{}
	}
	username, password, ok := s.admin.BasicCredentials()
	if !ok {
		return AuthContext{Admin: true}
	}
	return AuthContext{Username: username, Password: password, Admin: true}
}

// Authenticated implements Authenticator for the route guard.
func (s *Session) Authenticated(realm Realm) (string, bool) {
	switch realm {
	case RealmAdmin:
		return s.AdminUsername()
	default:
		if s.State() == LoggedOut {
			return "", false
		}
		if claims, ok := s.Claims(); ok && claims.Subject != "" {
			return claims.Subject, true
		}
		if p, ok := s.tokens.Profile(); ok && p.Email != "" {
			return p.Email, true
		}
		return s.id, true
	}
}

// CompleteLocalLogin stores the token and profile returned by a local login
// or registration and moves to LoggedInLocal.
func (s *Session) CompleteLocalLogin(token string, profile Profile) error {
	if !s.tokens.IsValid(token) {
		s.forceLogout("local login returned an invalid token")
		return &Error{Kind: KindInvalidToken, Message: "server returned an invalid or expired token", Err: ErrInvalidToken}
	}
	if err := s.tokens.Save(token, &profile); err != nil {
		return err
	}
	s.refresh("local login")
	return nil
}

// CompleteSSOLogin records a token captured from the SSO redirect and moves
// to LoggedInSso. Any profile cached by an earlier local login is dropped.
func (s *Session) CompleteSSOLogin(token string) error {
	if !s.tokens.IsValid(token) {
		s.forceLogout("sso login returned an invalid token")
		return &Error{Kind: KindInvalidToken, Message: "sso returned an invalid or expired token", Err: ErrInvalidToken}
	}
	if err := s.tokens.Clear(); err != nil {
		return err
	}
	if err := s.tokens.Save(token, nil); err != nil {
		return err
	}
	s.refresh("sso login")
	return nil
}

// Logout clears the user session. When the previous state was LoggedInSso
// the navigator is sent to the upstream logout URL; a local session is
// simply cleared.
func (s *Session) Logout(ctx context.Context) (LogoutResult, error) {
	prior := s.State()
	result := LogoutResult{PreviousSource: prior.Source()}

	if err := s.tokens.Clear(); err != nil {
		return result, err
	}
	s.refresh("logout")

	if prior != LoggedInSso {
		return result, nil
	}
	result.RedirectURL = s.logoutURL
	if s.logoutURL == "" {
		s.logger.Warn("sso logout without an upstream logout url")
		return result, nil
	}
	if s.navigator != nil {
		if err := s.navigator.Navigate(ctx, s.logoutURL); err != nil {
			return result, fmt.Errorf("failed to reach sso logout: %w", err)
		}
	}
	return result, nil
}

// AdminLogin records admin credentials after the backend accepted them.
func (s *Session) AdminLogin(username, password string, rememberMe bool) error {
	if err := s.admin.Remember(username, password, rememberMe); err != nil {
		return err
	}
	s.refresh("admin login")
	return nil
}

// AdminLogout forgets the admin credentials.
func (s *Session) AdminLogout() error {
	err := s.admin.Forget()
	s.refresh("admin logout")
	return err
}

// Subscribe registers fn for state transitions and returns a cancel function.
func (s *Session) Subscribe(fn func(Transition)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) onStorageEvent(ev StorageEvent) {
	if ev.Origin == s.id {
		return
	}
	switch ev.Key {
	case AdminUsernameKey, AdminFlagKey, AdminPasswordKey:
		if ev.Removed {
			s.admin.dropCache()
		}
	case TokenKey, ProfileKey:
	default:
		return
	}
	s.logger.Debug("storage changed by another session", "key", ev.Key, "removed", ev.Removed)
	s.refresh("storage event")
}

func (s *Session) forceLogout(reason string) {
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn("failed to clear token", "error", err)
	}
	s.logger.Info("session reset", "reason", reason)
	s.refresh(reason)
}

// derive computes Status from storage. An invalid token is cleared here.
// It must not be called with s.mu held: clearing publishes storage events.
func (s *Session) derive() Status {
	st := Status{State: LoggedOut, Admin: s.admin.IsAuthenticated()}

	token, ok := s.tokens.Read()
	if !ok {
		return st
	}
	if !s.tokens.IsValid(token) {
		s.logger.Info("clearing invalid or expired token")
		if err := s.tokens.Clear(); err != nil {
			s.logger.Warn("failed to clear token", "error", err)
		}
		return st
	}
	if _, ok := s.tokens.Profile(); ok {
		st.State = LoggedInLocal
	} else {
		st.State = LoggedInSso
	}
	return st
}

func (s *Session) refresh(cause string) Status {
	next := s.derive()

	s.mu.Lock()
	prev := s.status
	s.status = next
	var listeners []func(Transition)
	if prev != next {
		listeners = make([]func(Transition), 0, len(s.listeners))
		for _, fn := range s.listeners {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	if prev != next {
		s.logger.Debug("session transition", "from", prev.State, "to", next.State, "admin", next.Admin, "cause", cause)
		t := Transition{Previous: prev, Current: next, Cause: cause}
		for _, fn := range listeners {
			fn(t)
		}
	}
	return next
}
