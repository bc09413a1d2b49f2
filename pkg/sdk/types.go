package sdk

import (
	"encoding/json"
	"strconv"
)

// User is a member account as returned by the users resource.
type User struct {
	ID               int    `json:"userId"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Role             string `json:"role,omitempty"`
	MicrosoftID      string `json:"microsoftId,omitempty"`
	RegistrationDate string `json:"registrationDate,omitempty"`
}

// UnmarshalJSON accepts both "userId" and "id" as the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		AltID *int `json:"id"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.ID == 0 && aux.AltID != nil {
		u.ID = *aux.AltID
	}
	return nil
}

// Profile converts u into the cached profile shape.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// UserPatch carries the editable profile fields.
type UserPatch struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Event is an organization event.
type Event struct {
	ID          int    `json:"eventId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	EventDate   string `json:"eventDate,omitempty"`
	EventType   string `json:"eventType,omitempty"`
}

// Merchandise is an item sold in the store.
type Merchandise struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

// Order is a purchase of an event ticket or a merchandise item.
type Order struct {
	ID            int          `json:"orderId"`
	User          *User        `json:"user,omitempty"`
	Event         *Event       `json:"event,omitempty"`
	Merchandise   *Merchandise `json:"merchandise,omitempty"`
	TotalAmount   float64      `json:"totalAmount"`
	OrderDate     string       `json:"orderDate,omitempty"`
	PaymentStatus string       `json:"paymentStatus,omitempty"`
	OrderStatus   string       `json:"orderStatus,omitempty"`
}

// Item returns a short description of what was ordered.
func (o Order) Item() string {
	switch {
	case o.Merchandise != nil:
		return o.Merchandise.Name
	case o.Event != nil:
		return o.Event.Title
	default:
		return "-"
	}
}

// OrderInput is the payload for creating or updating an order.
type OrderInput struct {
	UserID        int     `json:"userId,omitempty"`
	EventID       *int    `json:"eventId,omitempty"`
	MerchandiseID *int    `json:"merchandiseId,omitempty"`
	TotalAmount   float64 `json:"totalAmount,omitempty"`
	PaymentStatus string  `json:"paymentStatus,omitempty"`
	OrderStatus   string  `json:"orderStatus,omitempty"`
}

// Payment statuses used by the admin payments view.
const (
	PaymentPending            = "Pending"
	PaymentVerificationNeeded = "Verification Needed"
	PaymentApproved           = "Approved"
	PaymentRejected           = "Rejected"
)

// Image is a binary upload for multipart endpoints.
type Image struct {
	Filename string
	Data     []byte
}

// DashboardSummary holds the counts shown on the admin landing page.
type DashboardSummary struct {
	Users       int
	Events      int
	Merchandise int
	Orders      int
	// PendingPayments counts orders whose payment still needs review.
	PendingPayments int
}

// DeleteOutcome reports a delete that may have been applied optimistically.
type DeleteOutcome struct {
	ID int
	// Confirmed is false when the server did not acknowledge the delete.
	Confirmed bool
	// Optimistic is true when the caller asked to update local state anyway.
	Optimistic bool
}

func itoa(id int) string { return strconv.Itoa(id) }
