package sdk_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

// mintToken signs an HS256 token expiring after ttl. A negative ttl yields
// an expired token.
func mintToken(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return token
}

// backend is an httptest server that counts the requests it receives.
type backend struct {
	*httptest.Server
	hits atomic.Int32
}

func newBackend(t *testing.T, register func(r chi.Router)) *backend {
	t.Helper()
	b := &backend{}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.hits.Add(1)
			next.ServeHTTP(w, req)
		})
	})
	register(r)
	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// deadURL returns the address of a server that has already been shut down,
// so connecting to it fails at the transport level.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	return addr
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, pair sdk.EndpointPair, session *sdk.Session) *sdk.Client {
	t.Helper()
	client, err := sdk.NewClient(sdk.UniformEndpoints(pair), session, sdk.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	require.NoError(t, err)
	return client
}
