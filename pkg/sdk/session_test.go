package sdk_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenClaims(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	stdPayload := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d,"sub":"std"}`, future)))

	tests := []struct {
		name    string
		token   string
		wantErr bool
		wantSub string
	}{
		{name: "signed token", token: mintToken(t, "alice@example.com", time.Hour), wantSub: "alice@example.com"},
		{name: "expired token still decodes", token: mintToken(t, "bob", -time.Hour), wantSub: "bob"},
		{name: "standard base64 payload", token: "h." + stdPayload + ".s", wantSub: "std"},
		{name: "empty", token: "", wantErr: true},
		{name: "single segment", token: "abc", wantErr: true},
		{name: "empty payload", token: "a..c", wantErr: true},
		{name: "payload not base64", token: "a.!!!.c", wantErr: true},
		{name: "payload not json", token: "a." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".c", wantErr: true},
		{name: "missing exp", token: "a." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"x"}`)) + ".c", wantErr: true},
		{name: "string exp", token: "a." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"soon"}`)) + ".c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := sdk.ParseTokenClaims(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, sdk.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, claims.Subject)
			assert.False(t, claims.ExpiresAt.IsZero())
		})
	}
}

func TestParseTokenClaims_Roles(t *testing.T) {
	payload, err := json.Marshal(map[string]any{"exp": time.Now().Add(time.Hour).Unix(), "roles": []string{"ADMIN", "USER"}})
	require.NoError(t, err)
	claims, err := sdk.ParseTokenClaims("h." + base64.RawURLEncoding.EncodeToString(payload) + ".s")
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN", "USER"}, claims.Roles)
}

func seedToken(t *testing.T, env sdk.Environment, token string, profile *sdk.Profile) {
	t.Helper()
	require.NoError(t, env.Durable.Set(sdk.TokenKey, token))
	if profile != nil {
		data, err := json.Marshal(profile)
		require.NoError(t, err)
		require.NoError(t, env.Durable.Set(sdk.ProfileKey, string(data)))
	}
}

func TestNewSession_DerivesInitialState(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		profile *sdk.Profile
		want    sdk.AuthState
	}{
		{name: "no token", want: sdk.LoggedOut},
		{name: "token with profile", token: mintToken(t, "a", time.Hour), profile: &sdk.Profile{Email: "a@x"}, want: sdk.LoggedInLocal},
		{name: "token without profile", token: mintToken(t, "a", time.Hour), want: sdk.LoggedInSso},
		{name: "expired token", token: mintToken(t, "a", -time.Minute), profile: &sdk.Profile{Email: "a@x"}, want: sdk.LoggedOut},
		{name: "garbage token", token: "not-a-token", want: sdk.LoggedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := sdk.NewMemoryEnvironment()
			if tt.token != "" {
				seedToken(t, env, tt.token, tt.profile)
			}
			s := sdk.NewSession(env)
			defer s.Close()

			assert.Equal(t, tt.want, s.State())
			assert.Equal(t, tt.want.Source(), s.Source())
		})
	}
}

func TestNewSession_ClearsExpiredTokenAndProfile(t *testing.T) {
	env := sdk.NewMemoryEnvironment()
	seedToken(t, env, mintToken(t, "a", -time.Second), &sdk.Profile{Username: "a"})

	s := sdk.NewSession(env)
	defer s.Close()

	_, ok, err := env.Durable.Get(sdk.TokenKey)
	require.NoError(t, err)
	assert.False(t, ok, "expired token must be removed")
	_, ok, err = env.Durable.Get(sdk.ProfileKey)
	require.NoError(t, err)
	assert.False(t, ok, "profile must be removed with the token")
}

func TestSession_TokenExpiresWhileRunning(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	env := sdk.NewMemoryEnvironment()
	s := sdk.NewSession(env, sdk.WithClock(clock))
	defer s.Close()

	require.NoError(t, s.CompleteLocalLogin(mintToken(t, "a", time.Minute), sdk.Profile{Email: "a@x"}))
	assert.Equal(t, sdk.LoggedInLocal, s.State())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, sdk.LoggedOut, s.State())
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestSession_CompleteLocalLoginRejectsInvalidToken(t *testing.T) {
	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()

	err := s.CompleteLocalLogin(mintToken(t, "a", -time.Hour), sdk.Profile{Email: "a@x"})
	require.Error(t, err)
	assert.Equal(t, sdk.KindInvalidToken, sdk.KindOf(err))
	assert.Equal(t, sdk.LoggedOut, s.State())
}

func TestSession_SSOLoginDropsStaleProfile(t *testing.T) {
	env := sdk.NewMemoryEnvironment()
	s := sdk.NewSession(env)
	defer s.Close()

	require.NoError(t, s.CompleteLocalLogin(mintToken(t, "local", time.Hour), sdk.Profile{Email: "local@x"}))
	require.NoError(t, s.CompleteSSOLogin(mintToken(t, "sso@x", time.Hour)))

	assert.Equal(t, sdk.LoggedInSso, s.State())
	_, ok := s.Profile()
	assert.False(t, ok)
	principal, ok := s.Authenticated(sdk.RealmUser)
	assert.True(t, ok)
	assert.Equal(t, "sso@x", principal)
}

type recordingNavigator struct {
	visited []string
	err     error
}

func (n *recordingNavigator) Navigate(_ context.Context, url string) error {
	n.visited = append(n.visited, url)
	return n.err
}

func TestSession_Logout(t *testing.T) {
	const logoutURL = "https://hub.example.com/logout"

	t.Run("sso logout visits upstream logout", func(t *testing.T) {
		nav := &recordingNavigator{}
		s := sdk.NewSession(sdk.NewMemoryEnvironment(), sdk.WithNavigator(nav), sdk.WithSSOLogoutURL(logoutURL))
		defer s.Close()
		require.NoError(t, s.CompleteSSOLogin(mintToken(t, "a", time.Hour)))

		res, err := s.Logout(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sdk.SourceSSO, res.PreviousSource)
		assert.Equal(t, logoutURL, res.RedirectURL)
		assert.Equal(t, []string{logoutURL}, nav.visited)
		assert.Equal(t, sdk.LoggedOut, s.State())
	})

	t.Run("local logout stays local", func(t *testing.T) {
		nav := &recordingNavigator{}
		s := sdk.NewSession(sdk.NewMemoryEnvironment(), sdk.WithNavigator(nav), sdk.WithSSOLogoutURL(logoutURL))
		defer s.Close()
		require.NoError(t, s.CompleteLocalLogin(mintToken(t, "a", time.Hour), sdk.Profile{Email: "a@x"}))

		res, err := s.Logout(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sdk.SourceLocal, res.PreviousSource)
		assert.Empty(t, res.RedirectURL)
		assert.Empty(t, nav.visited)
		assert.Equal(t, sdk.LoggedOut, s.State())
	})

	t.Run("navigation failure still clears the session", func(t *testing.T) {
		nav := &recordingNavigator{err: errors.New("no browser")}
		s := sdk.NewSession(sdk.NewMemoryEnvironment(), sdk.WithNavigator(nav), sdk.WithSSOLogoutURL(logoutURL))
		defer s.Close()
		require.NoError(t, s.CompleteSSOLogin(mintToken(t, "a", time.Hour)))

		_, err := s.Logout(context.Background())
		require.Error(t, err)
		assert.Equal(t, sdk.LoggedOut, s.State())
	})
}

func TestSession_AdminRememberMe(t *testing.T) {
	tests := []struct {
		name         string
		rememberMe   bool
		wantPassword bool
	}{
		{name: "remember me keeps password for the session", rememberMe: true, wantPassword: true},
		{name: "without remember me password is not stored", rememberMe: false, wantPassword: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := sdk.NewMemoryEnvironment()
			s := sdk.NewSession(env)
			defer s.Close()

			require.NoError(t, s.AdminLogin("root", "hunter2", tt.rememberMe))

			username, ok, _ := env.Durable.Get(sdk.AdminUsernameKey)
			assert.True(t, ok)
			assert.Equal(t, "root", username)
			flag, _, _ := env.Durable.Get(sdk.AdminFlagKey)
			assert.Equal(t, "true", flag)

			_, inDurable, _ := env.Durable.Get(sdk.AdminPasswordKey)
			assert.False(t, inDurable, "password must never reach durable storage")

			password, inEphemeral, _ := env.Ephemeral.Get(sdk.AdminPasswordKey)
			assert.Equal(t, tt.wantPassword, inEphemeral)
			if tt.wantPassword {
				assert.Equal(t, "hunter2", password)
			}

			// The in-process cache serves basic auth either way.
			auth := s.AdminAuth()
			assert.True(t, auth.HasBasic())
			assert.True(t, auth.Admin)
		})
	}
}

func TestSession_AdminLoginWithoutRememberMeDropsEarlierPassword(t *testing.T) {
	env := sdk.NewMemoryEnvironment()
	first := sdk.NewSession(env)
	require.NoError(t, first.AdminLogin("alice", "alice-pw", true))
	require.NoError(t, first.AdminLogin("bob", "bob-pw", false))
	first.Close()

	_, ok, _ := env.Ephemeral.Get(sdk.AdminPasswordKey)
	assert.False(t, ok, "password from the earlier remember-me login must be gone")

	// A later session on the same storages must not pair bob with alice's password.
	second := sdk.NewSession(env)
	defer second.Close()

	assert.True(t, second.AdminAuthenticated())
	auth := second.AdminAuth()
	assert.False(t, auth.HasBasic())
	assert.NotEqual(t, "alice-pw", auth.Password)
}

func TestSession_AdminFlagWithoutUsername(t *testing.T) {
	env := sdk.NewMemoryEnvironment()
	require.NoError(t, env.Durable.Set(sdk.AdminFlagKey, "true"))

	s := sdk.NewSession(env)
	defer s.Close()

	assert.False(t, s.AdminAuthenticated())
	_, ok := s.Authenticated(sdk.RealmAdmin)
	assert.False(t, ok)
}

func TestSession_AdminLogoutClearsEverything(t *testing.T) {
	env := sdk.NewMemoryEnvironment()
	s := sdk.NewSession(env)
	defer s.Close()

	require.NoError(t, s.AdminLogin("root", "hunter2", true))
	require.NoError(t, s.AdminLogout())

	for _, key := range []string{sdk.AdminUsernameKey, sdk.AdminFlagKey} {
		_, ok, _ := env.Durable.Get(key)
		assert.False(t, ok, key)
	}
	_, ok, _ := env.Ephemeral.Get(sdk.AdminPasswordKey)
	assert.False(t, ok)
	assert.False(t, s.AdminAuthenticated())
	assert.False(t, s.AdminAuth().HasBasic())
}

func TestSession_AdminPasswordLostWithEphemeralStorage(t *testing.T) {
	env := sdk.NewMemoryEnvironment()
	first := sdk.NewSession(env)
	require.NoError(t, first.AdminLogin("root", "hunter2", true))
	first.Close()

	// A new process keeps durable storage but starts with empty ephemeral storage.
	env.Ephemeral = sdk.NewMemoryStorage()
	second := sdk.NewSession(env)
	defer second.Close()

	assert.True(t, second.AdminAuthenticated())
	auth := second.AdminAuth()
	assert.True(t, auth.Admin)
	assert.False(t, auth.HasBasic())
}

func TestSession_CrossSessionUpdates(t *testing.T) {
	env := sdk.NewMemoryEnvironment()
	a := sdk.NewSession(env)
	defer a.Close()
	b := sdk.NewSession(env)
	defer b.Close()

	var seen []sdk.Transition
	cancel := b.Subscribe(func(tr sdk.Transition) { seen = append(seen, tr) })
	defer cancel()

	require.NoError(t, a.AdminLogin("root", "hunter2", false))
	assert.True(t, b.AdminAuthenticated())

	require.NoError(t, a.AdminLogout())
	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.False(t, last.Current.Admin)
	assert.Equal(t, "storage event", last.Cause)
	assert.False(t, b.AdminAuthenticated())

	require.NoError(t, a.CompleteLocalLogin(mintToken(t, "a", time.Hour), sdk.Profile{Email: "a@x"}))
	assert.Equal(t, sdk.LoggedInLocal, b.State())

	_, err := a.Logout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sdk.LoggedOut, b.State())
}

func TestSession_SubscribeCancel(t *testing.T) {
	s := sdk.NewSession(sdk.NewMemoryEnvironment())
	defer s.Close()

	calls := 0
	cancel := s.Subscribe(func(sdk.Transition) { calls++ })
	require.NoError(t, s.AdminLogin("root", "pw", false))
	cancel()
	require.NoError(t, s.AdminLogout())

	assert.Equal(t, 1, calls)
}

func TestErrorMessages(t *testing.T) {
	err := &sdk.Error{Kind: sdk.KindUpstreamRejected, Status: 400, Message: "Email already exists"}
	assert.True(t, strings.Contains(err.Error(), "Email already exists"))
	assert.ErrorIs(t, err, sdk.ErrUpstreamRejected)
	assert.NotErrorIs(t, err, sdk.ErrNetworkUnavailable)
	assert.Equal(t, sdk.KindUpstreamRejected, sdk.KindOf(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, sdk.ErrorKind(""), sdk.KindOf(errors.New("plain")))
}
