package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

// Family names a group of backend resources reachable through one EndpointPair.
type Family string

const (
	FamilyAuth        Family = "auth"
	FamilyAdmins      Family = "admins"
	FamilyUsers       Family = "users"
	FamilyEvents      Family = "events"
	FamilyMerchandise Family = "merchandise"
	FamilyOrders      Family = "orders"
	FamilyReceipts    Family = "receipts"
)

// Families lists every resource family the client talks to.
var Families = []Family{
	FamilyAuth, FamilyAdmins, FamilyUsers, FamilyEvents,
	FamilyMerchandise, FamilyOrders, FamilyReceipts,
}

// EndpointPair is an ordered pair of base URLs serving identical paths.
// Secondary is tried if and only if the primary attempt failed.
type EndpointPair struct {
	Primary   string
	Secondary string
}

// Validate checks that both base URLs are absolute http(s) URLs.
func (p EndpointPair) Validate() error {
	for name, raw := range map[string]string{"primary": p.Primary, "secondary": p.Secondary} {
		if raw == "" {
			return fmt.Errorf("%s endpoint is required", name)
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s endpoint %q: %w", name, raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid %s endpoint %q: scheme must be http or https", name, raw)
		}
		if u.Host == "" {
			return fmt.Errorf("invalid %s endpoint %q: missing host", name, raw)
		}
	}
	return nil
}

// Endpoints maps each resource family to its EndpointPair.
type Endpoints map[Family]EndpointPair

// UniformEndpoints serves every family from the same pair.
func UniformEndpoints(pair EndpointPair) Endpoints {
	eps := make(Endpoints, len(Families))
	for _, f := range Families {
		eps[f] = pair
	}
	return eps
}

// For returns the pair for family.
func (e Endpoints) For(family Family) (EndpointPair, error) {
	pair, ok := e[family]
	if !ok {
		return EndpointPair{}, fmt.Errorf("no endpoints configured for %q", family)
	}
	return pair, nil
}

// Validate checks every configured pair.
func (e Endpoints) Validate() error {
	for family, pair := range e {
		if err := pair.Validate(); err != nil {
			return fmt.Errorf("%s: %w", family, err)
		}
	}
	return nil
}

// AuthContext carries the credentials for one call. Basic credentials win
// over a bearer token; the two are never sent together.
type AuthContext struct {
	BearerToken string
	Username    string
	Password    string
	// Admin marks admin-scoped calls, which carry X-Admin-Request.
	Admin bool
}

// HasBasic reports whether basic credentials are present.
func (a AuthContext) HasBasic() bool { return a.Username != "" && a.Password != "" }

// HasBearer reports whether a bearer token is present.
func (a AuthContext) HasBearer() bool { return a.BearerToken != "" }

// Request describes one logical backend operation.
type Request struct {
	Family      Family
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header
	// RequireAuth rejects the call up front when no credentials are present.
	RequireAuth bool
	// Optimistic marks a destructive call whose caller updates local state
	// regardless of the outcome. Failures are still returned.
	Optimistic bool
}

// NewJSONRequest encodes payload (when non-nil) as the JSON body of a Request.
func NewJSONRequest(family Family, method, path string, payload any) (Request, error) {
	req := Request{Family: family, Method: method, Path: path}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode request body: %w", err)
	}
	req.Body = body
	req.ContentType = "application/json"
	return req, nil
}

// Result is the outcome of Dispatch.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Endpoint is the base URL that produced this result.
	Endpoint string
	Attempts int
	// Optimistic echoes Request.Optimistic. When Confirmed is false the
	// server did not acknowledge the operation and callers should reconcile
	// on their next full refresh.
	Optimistic bool
	Confirmed  bool
}

// Decode unmarshals the JSON body into v.
func (r *Result) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", r.Endpoint, err)
	}
	return nil
}

// DispatcherOptions configures Dispatcher construction.
type DispatcherOptions struct {
	HTTPClient   *http.Client
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// DispatcherOption mutates DispatcherOptions.
type DispatcherOption func(*DispatcherOptions)

// WithDispatcherHTTPClient overrides the HTTP client used for both attempts.
func WithDispatcherHTTPClient(client *http.Client) DispatcherOption {
	return func(opts *DispatcherOptions) {
		opts.HTTPClient = client
	}
}

// WithDispatcherLogger sets the dispatcher's logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(opts *DispatcherOptions) {
		opts.Logger = logger
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) DispatcherOption {
	return func(opts *DispatcherOptions) {
		opts.MaxBodyBytes = n
	}
}

// Dispatcher sends a request to a family's primary endpoint and, on any
// failure, replays the identical request once against the secondary.
// It is not a retry policy: there is no backoff and never a third attempt.
type Dispatcher struct {
	endpoints Endpoints
	client    *http.Client
	logger    *slog.Logger
	maxBody   int64
}

// NewDispatcher creates a Dispatcher. When no HTTP client is supplied one is
// built with a cookie jar so server-side admin sessions survive across calls.
func NewDispatcher(endpoints Endpoints, optFns ...DispatcherOption) *Dispatcher {
	opts := DispatcherOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 32 << 20
	}
	// Redirects are reported to attempt, never followed.
	client := *opts.HTTPClient
	client.CheckRedirect = noRedirect
	return &Dispatcher{
		endpoints: endpoints,
		client:    &client,
		logger:    opts.Logger,
		maxBody:   opts.MaxBodyBytes,
	}
}

// Dispatch performs req with auth, primary first and secondary second.
// When both fail the secondary's error is returned, classified by kind.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, auth AuthContext) (*Result, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.RequireAuth && !auth.HasBasic() && !auth.HasBearer() {
		return nil, &Error{Kind: KindAuthenticationRequired, Message: msgAuthRequired, Err: ErrAuthenticationRequired}
	}
	pair, err := d.endpoints.For(req.Family)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	logger := d.logger.With("method", req.Method, "path", req.Path, "request_id", requestID)

	res, primaryErr := d.attempt(ctx, pair.Primary, req, auth, requestID)
	if primaryErr == nil {
		res.Attempts = 1
		return d.finish(res, req), nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
	}
	logger.Warn("primary endpoint failed, trying secondary", "endpoint", pair.Primary, "error", primaryErr)

	res, secondaryErr := d.attempt(ctx, pair.Secondary, req, auth, requestID)
	if secondaryErr == nil {
		res.Attempts = 2
		return d.finish(res, req), nil
	}
	logger.Error("secondary endpoint failed", "endpoint", pair.Secondary, "error", secondaryErr)

	if req.Optimistic {
		logger.Warn("optimistic operation not confirmed by server; local state may be stale")
		return &Result{Endpoint: pair.Secondary, Attempts: 2, Optimistic: true, Confirmed: false}, secondaryErr
	}
	return nil, secondaryErr
}

func (d *Dispatcher) finish(res *Result, req Request) *Result {
	res.Optimistic = req.Optimistic
	res.Confirmed = true
	return res
}

func (d *Dispatcher) attempt(ctx context.Context, base string, req Request, auth AuthContext, requestID string) (*Result, error) {
	target, err := joinURL(base, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if auth.Admin {
		httpReq.Header.Set("X-Admin-Request", "true")
	}

	client := d.client
	switch {
	case auth.HasBasic():
		httpReq.SetBasicAuth(auth.Username, auth.Password)
	case auth.HasBearer():
		client = d.bearerClient(auth.BearerToken)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindNetworkUnavailable, Message: msgNetworkUnavailable, Endpoint: base, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBody+1))
	if err != nil {
		return nil, &Error{Kind: KindNetworkUnavailable, Message: msgNetworkUnavailable, Endpoint: base, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(data)) > d.maxBody {
		return nil, &Error{
			Kind:     KindUpstreamRejected,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("response body exceeds %d bytes", d.maxBody),
			Endpoint: base,
			Err:      ErrResponseTooLarge,
		}
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil, redirection(base, resp.StatusCode, resp.Header.Get("Location"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rejection(base, resp.StatusCode, data)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Endpoint:   base,
	}, nil
}

// bearerClient wraps the dispatcher's transport with an oauth2 static token
// source so the bearer header is attached by the transport.
func (d *Dispatcher) bearerClient(token string) *http.Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Transport:     &oauth2.Transport{Source: source, Base: d.client.Transport},
		Jar:           d.client.Jar,
		Timeout:       d.client.Timeout,
		CheckRedirect: d.client.CheckRedirect,
	}
}

// redirection classifies a 3xx answer. Spring Security sends unauthenticated
// calls to the login or oauth2 authorization page.
func redirection(base string, status int, location string) *Error {
	lower := strings.ToLower(location)
	if strings.Contains(lower, "login") || strings.Contains(lower, "oauth2") {
		return &Error{Kind: KindAuthenticationRequired, Status: status, Message: msgAuthRequired, Endpoint: base, Err: ErrAuthenticationRequired}
	}
	msg := fmt.Sprintf("server responded with %d %s", status, http.StatusText(status))
	if location != "" {
		msg += " to " + location
	}
	return &Error{Kind: KindUpstreamRejected, Status: status, Message: msg, Endpoint: base, Err: ErrUpstreamRejected}
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func rejection(base string, status int, body []byte) *Error {
	msg := serverMessage(body)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		if msg == "" {
			msg = msgAuthRequired
		}
		return &Error{Kind: KindAuthenticationRequired, Status: status, Message: msg, Endpoint: base, Err: ErrAuthenticationRequired}
	}
	if msg == "" {
		msg = fmt.Sprintf("server responded with %d %s", status, http.StatusText(status))
	}
	return &Error{Kind: KindUpstreamRejected, Status: status, Message: msg, Endpoint: base, Err: ErrUpstreamRejected}
}

func joinURL(base, path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid url for %s%s: %w", base, path, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// NewHTTPClient returns an HTTP client with a cookie jar and a timeout that
// does not follow redirects. The jar keeps server-side admin sessions alive
// across calls.
func NewHTTPClient() *http.Client {
	client := &http.Client{Timeout: 15 * time.Second, CheckRedirect: noRedirect}
	if jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err == nil {
		client.Jar = jar
	}
	return client
}
