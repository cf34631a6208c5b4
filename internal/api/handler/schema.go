package handler

import (
	"time"

	"github.com/nextlevel/order-desk/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"     validate:"required,max=120"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// --- Orders ---

type briefRequest struct {
	CompanyName string   `json:"company_name" validate:"required,max=200"`
	Slogan      string   `json:"slogan"       validate:"max=200"`
	Colors      string   `json:"colors"       validate:"max=200"`
	Style       string   `json:"style"        validate:"max=200"`
	Description string   `json:"description"  validate:"required,max=5000"`
	References  []string `json:"references"   validate:"max=20"`
}

type createOrderRequest struct {
	ServiceID     string       `json:"service_id"     validate:"required"`
	PackageID     string       `json:"package_id"     validate:"required"`
	Options       []string     `json:"options"        validate:"max=10"`
	Brief         briefRequest `json:"brief"`
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=moncash natcash stripe"`
	PaymentID     string       `json:"payment_id"     validate:"max=120"`
	PaymentProof  string       `json:"payment_proof"  validate:"max=2048"`
}

type createOrderResponse struct {
	ID int64 `json:"id"`
}

type deliveryFileRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	URL  string `json:"url"  validate:"required,max=2048"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// patchOrderRequest carries any combination of order updates; absent fields
// are left untouched.
type patchOrderRequest struct {
	Status        *string               `json:"status"         validate:"omitempty,oneof=pending_validation paid production completed"`
	AssignedTo    *int64                `json:"assigned_to"    validate:"omitempty,gt=0"`
	PaymentStatus *string               `json:"payment_status" validate:"omitempty,oneof=confirmed refused"`
	Priority      *string               `json:"priority"       validate:"omitempty,oneof=normal urgent"`
	DeliveryFiles []deliveryFileRequest `json:"delivery_files" validate:"omitempty,dive"`
	Feedback      *feedbackRequest      `json:"feedback"`
}

// --- Messages ---

type sendMessageRequest struct {
	SenderID int64  `json:"sender_id" validate:"omitempty,gt=0"`
	Content  string `json:"content"   validate:"required,max=4000"`
	Type     string `json:"type"      validate:"omitempty,oneof=text file"`
}

// --- Users ---

type userStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active busy offline"`
}
