package sdk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// errNoSession is returned by constructors that need a session but got nil.
var errNoSession = errors.New("session is required")

// Client provides typed access to the hub backend. Every call goes through
// the Dispatcher, so each one gets primary/secondary failover, and takes its
// credentials from the Session.
type Client struct {
	dispatcher *Dispatcher
	session    *Session
	logger     *slog.Logger
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient   *http.Client
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for backend calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithClientLogger sets the client's logger. It is shared with the dispatcher.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(opts *ClientOptions) {
		opts.Logger = logger
	}
}

// WithClientMaxBodyBytes caps how much of each response body is read.
func WithClientMaxBodyBytes(n int64) ClientOption {
	return func(opts *ClientOptions) {
		opts.MaxBodyBytes = n
	}
}

// NewClient creates a Client for endpoints backed by session.
func NewClient(endpoints Endpoints, session *Session, optFns ...ClientOption) (*Client, error) {
	if session == nil {
		return nil, errNoSession
	}
	if err := endpoints.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoints: %w", err)
	}
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dispatcherOpts := []DispatcherOption{WithDispatcherLogger(opts.Logger)}
	if opts.HTTPClient != nil {
		dispatcherOpts = append(dispatcherOpts, WithDispatcherHTTPClient(opts.HTTPClient))
	}
	if opts.MaxBodyBytes > 0 {
		dispatcherOpts = append(dispatcherOpts, WithMaxBodyBytes(opts.MaxBodyBytes))
	}

	return &Client{
		dispatcher: NewDispatcher(endpoints, dispatcherOpts...),
		session:    session,
		logger:     opts.Logger,
	}, nil
}

// Session returns the session the client takes credentials from.
func (c *Client) Session() *Session { return c.session }

// Dispatcher exposes the underlying dispatcher for raw requests.
func (c *Client) Dispatcher() *Dispatcher { return c.dispatcher }

type scope int

const (
	scopePublic scope = iota
	scopeUser
	scopeAdmin
	// scopeAny requires credentials but accepts either the admin or the user session.
	scopeAny
)

func (c *Client) authFor(s scope) AuthContext {
	switch s {
	case scopeAdmin:
		return c.session.AdminAuth()
	case scopeUser:
		return c.session.UserAuth()
	default:
		if auth := c.session.AdminAuth(); auth.HasBasic() {
			return auth
		}
		return c.session.UserAuth()
	}
}

func (c *Client) do(ctx context.Context, req Request, s scope) (*Result, error) {
	req.RequireAuth = s != scopePublic
	return c.dispatcher.Dispatch(ctx, req, c.authFor(s))
}

func (c *Client) doJSON(ctx context.Context, family Family, method, path string, payload any, s scope, out any) error {
	req, err := NewJSONRequest(family, method, path, payload)
	if err != nil {
		return err
	}
	res, err := c.do(ctx, req, s)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

func (c *Client) remove(ctx context.Context, family Family, path string, id int, optimistic bool) (DeleteOutcome, error) {
	req := Request{Family: family, Method: http.MethodDelete, Path: path, Optimistic: optimistic}
	res, err := c.do(ctx, req, scopeAdmin)
	outcome := DeleteOutcome{ID: id, Optimistic: optimistic}
	if res != nil {
		outcome.Confirmed = res.Confirmed
	}
	if err != nil {
		return outcome, fmt.Errorf("failed to delete %s %d: %w", family, id, err)
	}
	return outcome, nil
}

// Login exchanges email and password for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	payload := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.doJSON(ctx, FamilyAuth, http.MethodPost, "/api/auth/login", payload, scopePublic, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Register creates a local account and returns its token and profile.
func (c *Client) Register(ctx context.Context, email, username, password string) (*Credentials, error) {
	payload := map[string]string{"email": email, "username": username, "password": password}
	var creds Credentials
	if err := c.doJSON(ctx, FamilyAuth, http.MethodPost, "/api/auth/register", payload, scopePublic, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// AdminLogin asks the backend to validate admin credentials. It does not
// touch the session; see LoginAdmin for the full flow.
func (c *Client) AdminLogin(ctx context.Context, username, password string) error {
	payload := map[string]string{"username": username, "password": password}
	return c.doJSON(ctx, FamilyAdmins, http.MethodPost, "/api/admins/login", payload, scopePublic, nil)
}

// ListUsers lists members, optionally filtered by keyword.
func (c *Client) ListUsers(ctx context.Context, keyword string) ([]User, error) {
	req := Request{Family: FamilyUsers, Method: http.MethodGet, Path: "/api/users", Query: keywordQuery(keyword)}
	res, err := c.do(ctx, req, scopeAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var users []User
	if err := res.Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// CurrentUser returns the account behind the session's token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.doJSON(ctx, FamilyUsers, http.MethodGet, "/api/users/current", nil, scopeUser, &u); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &u, nil
}

// UpdateUser edits the profile fields of user id.
func (c *Client) UpdateUser(ctx context.Context, id int, patch UserPatch) (*User, error) {
	var u User
	if err := c.doJSON(ctx, FamilyUsers, http.MethodPut, "/api/users/"+itoa(id), patch, scopeUser, &u); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return &u, nil
}

// DeleteUser removes a member. With optimistic set the caller may drop the
// row locally even when the returned outcome is unconfirmed.
func (c *Client) DeleteUser(ctx context.Context, id int, optimistic bool) (DeleteOutcome, error) {
	return c.remove(ctx, FamilyUsers, "/api/users/delete/"+itoa(id), id, optimistic)
}

// ListEvents lists upcoming events.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.doJSON(ctx, FamilyEvents, http.MethodGet, "/api/events", nil, scopePublic, &events); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CreateEvent publishes an event. image is optional.
func (c *Client) CreateEvent(ctx context.Context, event Event, image *Image) error {
	fields := map[string]string{
		"title":       event.Title,
		"description": event.Description,
		"location":    event.Location,
		"eventDate":   event.EventDate,
	}
	if event.EventType != "" {
		fields["eventType"] = event.EventType
	}
	req, err := newMultipartRequest(FamilyEvents, "/api/events/create", fields, "imageFile", image)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, req, scopeAdmin); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id int, optimistic bool) (DeleteOutcome, error) {
	return c.remove(ctx, FamilyEvents, "/api/events/delete/"+itoa(id), id, optimistic)
}

// ListMerchandise lists the store catalogue.
func (c *Client) ListMerchandise(ctx context.Context) ([]Merchandise, error) {
	var items []Merchandise
	if err := c.doJSON(ctx, FamilyMerchandise, http.MethodGet, "/api/merchandises", nil, scopePublic, &items); err != nil {
		return nil, fmt.Errorf("failed to list merchandise: %w", err)
	}
	return items, nil
}

// SearchMerchandise finds catalogue items matching keyword.
func (c *Client) SearchMerchandise(ctx context.Context, keyword string) ([]Merchandise, error) {
	req := Request{Family: FamilyMerchandise, Method: http.MethodGet, Path: "/api/merchandises/search", Query: url.Values{"keyword": {keyword}}}
	res, err := c.do(ctx, req, scopePublic)
	if err != nil {
		return nil, fmt.Errorf("failed to search merchandise: %w", err)
	}
	var items []Merchandise
	if err := res.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateMerchandise adds a catalogue item. image is optional.
func (c *Client) CreateMerchandise(ctx context.Context, item Merchandise, image *Image) error {
	fields := map[string]string{
		"name":        item.Name,
		"description": item.Description,
		"price":       strconv.FormatFloat(item.Price, 'f', -1, 64),
		"stock":       strconv.Itoa(item.Stock),
	}
	req, err := newMultipartRequest(FamilyMerchandise, "/api/merchandises/create", fields, "imageFile", image)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, req, scopeAdmin); err != nil {
		return fmt.Errorf("failed to create merchandise: %w", err)
	}
	return nil
}

// DeleteMerchandise removes a catalogue item.
func (c *Client) DeleteMerchandise(ctx context.Context, id int, optimistic bool) (DeleteOutcome, error) {
	return c.remove(ctx, FamilyMerchandise, "/api/merchandises/delete/"+itoa(id), id, optimistic)
}

// ListOrders lists all orders, optionally filtered by keyword.
func (c *Client) ListOrders(ctx context.Context, keyword string) ([]Order, error) {
	req := Request{Family: FamilyOrders, Method: http.MethodGet, Path: "/api/orders", Query: keywordQuery(keyword)}
	res, err := c.do(ctx, req, scopeAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	var orders []Order
	if err := res.Decode(&orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListUserOrders lists the orders placed by userID.
func (c *Client) ListUserOrders(ctx context.Context, userID int) ([]Order, error) {
	var orders []Order
	if err := c.doJSON(ctx, FamilyOrders, http.MethodGet, "/api/orders/user/"+itoa(userID), nil, scopeAny, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// CreateOrder places an order and returns its id.
func (c *Client) CreateOrder(ctx context.Context, order OrderInput) (int, error) {
	if order.EventID == nil && order.MerchandiseID == nil {
		return 0, fmt.Errorf("order must reference an event or a merchandise item")
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = PaymentPending
	}
	var created struct {
		OrderID int `json:"orderId"`
	}
	if err := c.doJSON(ctx, FamilyOrders, http.MethodPost, "/api/orders/create", order, scopeUser, &created); err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return created.OrderID, nil
}

// UpdateOrderStatus sets the payment and/or order status of an order. Empty
// values are left unchanged by the server.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int, paymentStatus, orderStatus string) (*Order, error) {
	if paymentStatus == "" && orderStatus == "" {
		return nil, fmt.Errorf("payment status or order status is required")
	}
	payload := OrderInput{PaymentStatus: paymentStatus, OrderStatus: orderStatus}
	var order Order
	if err := c.doJSON(ctx, FamilyOrders, http.MethodPost, "/api/orders/update/"+itoa(id), payload, scopeAdmin, &order); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	return &order, nil
}

// EditOrder replaces an order's amount, references and statuses. Unlike
// UpdateOrderStatus, references left nil are cleared by the server.
func (c *Client) EditOrder(ctx context.Context, id int, order OrderInput) (*Order, error) {
	if order.UserID == 0 {
		return nil, fmt.Errorf("order must reference a user")
	}
	var edited Order
	if err := c.doJSON(ctx, FamilyOrders, http.MethodPut, "/api/orders/edit/"+itoa(id), order, scopeAdmin, &edited); err != nil {
		return nil, fmt.Errorf("failed to edit order %d: %w", id, err)
	}
	return &edited, nil
}

// DeleteOrder removes an order.
func (c *Client) DeleteOrder(ctx context.Context, id int, optimistic bool) (DeleteOutcome, error) {
	return c.remove(ctx, FamilyOrders, "/api/orders/delete/"+itoa(id), id, optimistic)
}

// ReceiptImage downloads the payment receipt attached to an order.
func (c *Client) ReceiptImage(ctx context.Context, orderID int) (*Image, string, error) {
	req := Request{Family: FamilyReceipts, Method: http.MethodGet, Path: "/api/orders/receipt-image/" + itoa(orderID)}
	res, err := c.do(ctx, req, scopeAny)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch receipt for order %d: %w", orderID, err)
	}
	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(res.Body)
	}
	return &Image{Filename: fmt.Sprintf("receipt-%d", orderID), Data: res.Body}, contentType, nil
}

// UploadReceipt attaches a payment receipt to an order.
func (c *Client) UploadReceipt(ctx context.Context, orderID int, image Image) error {
	if len(image.Data) == 0 {
		return fmt.Errorf("receipt image is empty")
	}
	req, err := newMultipartRequest(FamilyReceipts, "/api/orders/upload-receipt/"+itoa(orderID), nil, "receiptImage", &image)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, req, scopeUser); err != nil {
		return fmt.Errorf("failed to upload receipt for order %d: %w", orderID, err)
	}
	return nil
}

// DashboardSummary fetches the admin landing page counts concurrently.
// The first failure cancels the remaining fetches.
func (c *Client) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	var (
		summary DashboardSummary
		users   []User
		events  []Event
		items   []Merchandise
		orders  []Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = c.ListUsers(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		events, err = c.ListEvents(gctx)
		return err
	})
	g.Go(func() (err error) {
		items, err = c.ListMerchandise(gctx)
		return err
	})
	g.Go(func() (err error) {
		orders, err = c.ListOrders(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	summary.Users = len(users)
	summary.Events = len(events)
	summary.Merchandise = len(items)
	summary.Orders = len(orders)
	for _, o := range orders {
		if o.PaymentStatus == PaymentPending || o.PaymentStatus == PaymentVerificationNeeded {
			summary.PendingPayments++
		}
	}
	return &summary, nil
}

func keywordQuery(keyword string) url.Values {
	if keyword == "" {
		return nil
	}
	return url.Values{"keyword": {keyword}}
}

// newMultipartRequest encodes fields and an optional file part as a POST body.
func newMultipartRequest(family Family, path string, fields map[string]string, fileField string, image *Image) (Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return Request{}, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}
	if image != nil && len(image.Data) > 0 {
		filename := filepath.Base(image.Filename)
		if filename == "." || filename == "/" {
			filename = fileField
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, filename))
		h.Set("Content-Type", http.DetectContentType(image.Data))
		part, err := w.CreatePart(h)
		if err != nil {
			return Request{}, fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return Request{}, fmt.Errorf("failed to write file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return Request{}, fmt.Errorf("failed to finalize form: %w", err)
	}
	return Request{
		Family:      family,
		Method:      http.MethodPost,
		Path:        path,
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	}, nil
}
