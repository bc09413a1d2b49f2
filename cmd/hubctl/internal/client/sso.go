package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mr123ivan/CSSHUB-FINAL/pkg/sdk"
)

const callbackPage = `<!doctype html><html><body><p>%s</p><p>You can close this window and return to hubctl.</p></body></html>`

type callbackResult struct {
	token string
	err   error
}

// SSOCallback is a loopback HTTP listener that receives the browser after
// an SSO login and captures the token query parameter.
type SSOCallback struct {
	listener net.Listener
	server   *http.Server
	results  chan callbackResult
}

// ListenSSOCallback starts the listener on addr. Any path is accepted.
func ListenSSOCallback(addr string) (*SSOCallback, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for sso callback on %s: %w", addr, err)
	}

	cb := &SSOCallback{listener: ln, results: make(chan callbackResult, 1)}
	r := chi.NewRouter()
	r.Get("/*", cb.handle)
	cb.server = &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := cb.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cb.deliver(callbackResult{err: fmt.Errorf("sso callback server: %w", err)})
		}
	}()
	return cb, nil
}

// URL is the address the browser should be redirected to.
func (c *SSOCallback) URL() string {
	return "http://" + c.listener.Addr().String() + "/callback"
}

func (c *SSOCallback) handle(w http.ResponseWriter, r *http.Request) {
	token, err := sdk.ExtractToken(r.URL)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, callbackPage, "Login failed.")
		c.deliver(callbackResult{err: err})
		return
	}
	fmt.Fprintf(w, callbackPage, "Login complete.")
	c.deliver(callbackResult{token: token})
}

// deliver keeps the first result only.
func (c *SSOCallback) deliver(res callbackResult) {
	select {
	case c.results <- res:
	default:
	}
}

// Wait blocks until the browser delivers a token or ctx ends.
func (c *SSOCallback) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-c.results:
		return res.token, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for sso callback: %w", ctx.Err())
	}
}

// Close stops the listener.
func (c *SSOCallback) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}
