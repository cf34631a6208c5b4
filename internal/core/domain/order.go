package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus represents the fulfilment stage of an order.
type OrderStatus string

const (
	StatusPendingValidation OrderStatus = "pending_validation"
	StatusPaid              OrderStatus = "paid"
	StatusProduction        OrderStatus = "production"
	StatusCompleted         OrderStatus = "completed"
)

// statusOrder is the only direction an order may travel.
var statusOrder = []OrderStatus{
	StatusPendingValidation,
	StatusPaid,
	StatusProduction,
	StatusCompleted,
}

// Rank returns the position of s in the fulfilment ordering, or -1 if unknown.
func (s OrderStatus) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool { return s.Rank() >= 0 }

// CanTransitionTo reports whether moving from s to next keeps the order moving
// forward. Re-applying the current status is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s.Valid() && next.Valid() && next.Rank() >= s.Rank()
}

// PaymentStatus tracks the staff decision on the recorded payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRefused   PaymentStatus = "refused"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentConfirmed || p == PaymentRefused
}

// CanTransitionTo reports whether a decision may be recorded. Only a pending
// payment can be decided and the decision is final.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return p == PaymentPending && (next == PaymentConfirmed || next == PaymentRefused)
}

// Priority orders the staff queue.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool { return p == PriorityNormal || p == PriorityUrgent }

// PaymentMethod is how the client says they paid.
type PaymentMethod string

const (
	PaymentMonCash PaymentMethod = "moncash"
	PaymentNatCash PaymentMethod = "natcash"
	PaymentStripe  PaymentMethod = "stripe"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMonCash || m == PaymentNatCash || m == PaymentStripe
}

// IsLocal reports whether m is a local mobile-money transfer, which must carry
// the transaction reference the client received.
func (m PaymentMethod) IsLocal() bool {
	return m == PaymentMonCash || m == PaymentNatCash
}

// Option is an add-on as it was priced when the order was placed.
type Option struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	PriceUSD float64 `json:"price_usd" bson:"price_usd"`
	PriceHTG float64 `json:"price_htg" bson:"price_htg"`
}

// Brief is the client's description of the deliverable.
type Brief struct {
	CompanyName string   `json:"company_name" bson:"company_name"`
	Slogan      string   `json:"slogan,omitempty" bson:"slogan,omitempty"`
	Colors      string   `json:"colors,omitempty" bson:"colors,omitempty"`
	Style       string   `json:"style,omitempty" bson:"style,omitempty"`
	Description string   `json:"description" bson:"description"`
	References  []string `json:"references,omitempty" bson:"references,omitempty"`
}

// Payment holds the locally recorded payment fields.
type Payment struct {
	Method    PaymentMethod `json:"method" bson:"method"`
	Reference string        `json:"reference,omitempty" bson:"reference,omitempty"`
	Proof     string        `json:"proof,omitempty" bson:"proof,omitempty"`
}

// DeliveryFile is one file handed over to the client.
type DeliveryFile struct {
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
}

// Feedback is the client's rating of a completed order.
type Feedback struct {
	Rating      int       `json:"rating" bson:"rating"`
	Comment     string    `json:"comment,omitempty" bson:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at" bson:"submitted_at"`
}

// Order is the core aggregate root.
type Order struct {
	ID            int64          `json:"id" bson:"_id"`
	UserID        int64          `json:"user_id" bson:"user_id"`
	AssignedTo    *int64         `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	ServiceID     string         `json:"service_id" bson:"service_id"`
	PackageID     string         `json:"package_id" bson:"package_id"`
	PackageName   string         `json:"package_name" bson:"package_name"`
	PriceUSD      float64        `json:"price_usd" bson:"price_usd"`
	PriceHTG      float64        `json:"price_htg" bson:"price_htg"`
	Options       []Option       `json:"options" bson:"options"`
	Brief         Brief          `json:"brief" bson:"brief"`
	Status        OrderStatus    `json:"status" bson:"status"`
	PaymentStatus PaymentStatus  `json:"payment_status" bson:"payment_status"`
	Payment       Payment        `json:"payment" bson:"payment"`
	DeliveryFiles []DeliveryFile `json:"delivery_files" bson:"delivery_files"`
	Feedback      *Feedback      `json:"feedback,omitempty" bson:"feedback,omitempty"`
	Priority      Priority       `json:"priority" bson:"priority"`
	Version       int64          `json:"-" bson:"version"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

// LifecyclePolicy holds the switches for behaviour that product has not settled.
// The zero value keeps the permissive behaviour: assignment ignores payment and
// a refused payment leaves the status where it is. RevertOnRefusal never
// reopens a completed order.
type LifecyclePolicy struct {
	AssignRequiresPayment bool
	RevertOnRefusal       bool
}

// Selection is what the client picked in the order funnel.
type Selection struct {
	ServiceID string
	PackageID string
	AddonIDs  []string
}

// PlaceOrder prices a selection against the catalog and builds a new order in
// (pending_validation, pending). Each currency is summed on its own.
func PlaceOrder(c Catalog, client *User, sel Selection, brief Brief, pay Payment, now time.Time) (*Order, error) {
	if client == nil || client.ID == 0 {
		return nil, fmt.Errorf("%w: client is required", ErrValidation)
	}
	if client.Role != RoleClient {
		return nil, fmt.Errorf("%w: only clients place orders", ErrValidation)
	}
	if strings.TrimSpace(brief.CompanyName) == "" {
		return nil, fmt.Errorf("%w: brief company name is required", ErrValidation)
	}
	if strings.TrimSpace(brief.Description) == "" {
		return nil, fmt.Errorf("%w: brief description is required", ErrValidation)
	}
	if !pay.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", ErrValidation, pay.Method)
	}
	if pay.Method.IsLocal() && strings.TrimSpace(pay.Reference) == "" {
		return nil, fmt.Errorf("%w: %s payments need a transaction reference", ErrValidation, pay.Method)
	}

	svc, ok := c.Service(sel.ServiceID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown service %q", ErrValidation, sel.ServiceID)
	}
	pkg, ok := svc.Package(sel.PackageID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown package %q for service %q", ErrValidation, sel.PackageID, sel.ServiceID)
	}

	o := &Order{
		UserID:        client.ID,
		ServiceID:     svc.ID,
		PackageID:     pkg.ID,
		PackageName:   pkg.Name,
		PriceUSD:      pkg.PriceUSD,
		PriceHTG:      pkg.PriceHTG,
		Options:       make([]Option, 0, len(sel.AddonIDs)),
		Brief:         brief,
		Status:        StatusPendingValidation,
		PaymentStatus: PaymentPending,
		Payment:       pay,
		DeliveryFiles: []DeliveryFile{},
		Priority:      PriorityNormal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	seen := make(map[string]struct{}, len(sel.AddonIDs))
	for _, id := range sel.AddonIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: add-on %q selected twice", ErrValidation, id)
		}
		seen[id] = struct{}{}

		addon, ok := c.Addon(id)
		if !ok {
			return nil, fmt.Errorf("%w: unknown add-on %q", ErrValidation, id)
		}
		o.Options = append(o.Options, Option{ID: addon.ID, Name: addon.Name, PriceUSD: addon.PriceUSD, PriceHTG: addon.PriceHTG})
		o.PriceUSD += addon.PriceUSD
		o.PriceHTG += addon.PriceHTG
		if addon.ID == ExpressAddonID {
			o.Priority = PriorityUrgent
		}
	}

	return o, nil
}

// DecidePayment records the staff decision on a pending payment.
func (o *Order) DecidePayment(decision PaymentStatus, policy LifecyclePolicy, now time.Time) error {
	if decision != PaymentConfirmed && decision != PaymentRefused {
		return fmt.Errorf("%w: payment decision must be confirmed or refused", ErrValidation)
	}
	if !o.PaymentStatus.CanTransitionTo(decision) {
		return fmt.Errorf("%w: payment already %s", ErrConflict, o.PaymentStatus)
	}

	o.PaymentStatus = decision
	switch decision {
	case PaymentConfirmed:
		if o.Status == StatusPendingValidation {
			o.Status = StatusPaid
		}
	case PaymentRefused:
		// Delivered work stays completed; only unfinished orders go back.
		if policy.RevertOnRefusal && o.Status != StatusCompleted {
			o.Status = StatusPendingValidation
		}
	}
	o.UpdatedAt = now
	return nil
}

// AssignTo hands the order to a staff member and puts it into production.
// The status never moves backward: reassigning a completed order keeps it completed.
func (o *Order) AssignTo(staff *User, policy LifecyclePolicy, now time.Time) error {
	if staff == nil || !staff.Role.IsStaff() {
		return fmt.Errorf("%w: orders can only be assigned to staff", ErrValidation)
	}
	if policy.AssignRequiresPayment && o.PaymentStatus != PaymentConfirmed {
		return fmt.Errorf("%w: payment is %s, not confirmed", ErrConflict, o.PaymentStatus)
	}

	id := staff.ID
	o.AssignedTo = &id
	if o.Status.Rank() < StatusProduction.Rank() {
		o.Status = StatusProduction
	}
	o.UpdatedAt = now
	return nil
}

// AdvanceStatus moves the order forward to next.
func (o *Order) AdvanceStatus(next OrderStatus, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w (from %s to %s)", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// Deliver appends files to the delivery list and completes the order.
func (o *Order) Deliver(files []DeliveryFile, now time.Time) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: at least one delivery file is required", ErrValidation)
	}
	for i, f := range files {
		if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("%w: delivery file %d needs a name and a url", ErrValidation, i)
		}
	}
	o.DeliveryFiles = append(o.DeliveryFiles, files...)
	o.Status = StatusCompleted
	o.UpdatedAt = now
	return nil
}

// RecordFeedback stores the client's rating. A new submission replaces the previous one.
func (o *Order) RecordFeedback(rating int, comment string, now time.Time) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if o.Status != StatusCompleted {
		return fmt.Errorf("%w: feedback is only accepted on completed orders (status %s)", ErrConflict, o.Status)
	}
	o.Feedback = &Feedback{Rating: rating, Comment: comment, SubmittedAt: now}
	o.UpdatedAt = now
	return nil
}

// ChangePriority sets the queue priority.
func (o *Order) ChangePriority(p Priority, now time.Time) error {
	if !p.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, p)
	}
	o.Priority = p
	o.UpdatedAt = now
	return nil
}

// IsAssignedTo reports whether the order is assigned to the given user.
func (o *Order) IsAssignedTo(userID int64) bool {
	return o.AssignedTo != nil && *o.AssignedTo == userID
}

// Clone returns a deep copy so that a failed multi-step change can be discarded.
func (o *Order) Clone() *Order {
	c := *o
	if o.AssignedTo != nil {
		id := *o.AssignedTo
		c.AssignedTo = &id
	}
	c.Options = cloneSlice(o.Options)
	c.DeliveryFiles = cloneSlice(o.DeliveryFiles)
	c.Brief.References = cloneSlice(o.Brief.References)
	if o.Feedback != nil {
		fb := *o.Feedback
		c.Feedback = &fb
	}
	return &c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
