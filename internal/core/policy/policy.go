// Package policy decides which role may invoke which operation on which order.
//
// CanPerform is pure: it looks only at the actor and the order passed in and
// is evaluated before every lifecycle operation.
package policy

import "github.com/nextlevel/order-desk/internal/core/domain"

// Action names an operation guarded by the policy.
type Action string

const (
	CreateOrder     Action = "create_order"
	ViewOrder       Action = "view_order"
	Message         Action = "message"
	AssignStaff     Action = "assign_staff"
	ChangeStatus    Action = "change_status"
	PaymentDecision Action = "payment_decision"
	DeliverFiles    Action = "deliver_files"
	ViewAdmin       Action = "view_admin"

	ClaimOrder       Action = "claim_order"
	SubmitFeedback   Action = "submit_feedback"
	SetPriority      Action = "set_priority"
	ViewWorkspace    Action = "view_workspace"
	ListClientOrders Action = "list_client_orders"
	ChangeUserStatus Action = "change_user_status"
)

// Actions lists every action the policy knows about.
var Actions = []Action{
	CreateOrder, ViewOrder, Message, AssignStaff, ChangeStatus, PaymentDecision, DeliverFiles, ViewAdmin,
	ClaimOrder, SubmitFeedback, SetPriority, ViewWorkspace, ListClientOrders, ChangeUserStatus,
}

// CanPerform reports whether actor may perform action on order. order may be
// nil for actions that do not target one.
//
// For ListClientOrders and ChangeUserStatus the target is a user rather than
// an order; use CanActOnUser for those.
func CanPerform(actor *domain.User, action Action, order *domain.Order) bool {
	if actor == nil || !actor.Role.Valid() {
		return false
	}

	switch actor.Role {
	case domain.RoleClient:
		return clientCan(actor, action, order)
	case domain.RoleEmployee:
		return employeeCan(actor, action, order)
	case domain.RoleAdmin:
		return adminCan(action)
	}
	return false
}

// CanActOnUser covers the user-targeted actions: a user may act on themself,
// an admin on anyone.
func CanActOnUser(actor *domain.User, action Action, targetUserID int64) bool {
	if actor == nil || !actor.Role.Valid() {
		return false
	}
	switch action {
	case ListClientOrders:
		if actor.Role == domain.RoleEmployee {
			return false
		}
		return actor.Role == domain.RoleAdmin || actor.ID == targetUserID
	case ChangeUserStatus:
		return actor.Role == domain.RoleAdmin || actor.ID == targetUserID
	}
	return false
}

func clientCan(actor *domain.User, action Action, order *domain.Order) bool {
	owns := order != nil && order.UserID == actor.ID
	switch action {
	case CreateOrder, ViewOrder, Message, SubmitFeedback:
		return owns
	}
	return false
}

func employeeCan(actor *domain.User, action Action, order *domain.Order) bool {
	switch action {
	case ViewOrder:
		return order != nil && (order.AssignedTo == nil || order.IsAssignedTo(actor.ID))
	case Message:
		return order != nil && order.IsAssignedTo(actor.ID)
	case ClaimOrder:
		return order != nil && (order.AssignedTo == nil || order.IsAssignedTo(actor.ID))
	case ChangeStatus, DeliverFiles, SetPriority, ViewWorkspace:
		return true
	}
	return false
}

func adminCan(action Action) bool {
	switch action {
	case ViewOrder, Message, AssignStaff, ChangeStatus, PaymentDecision, DeliverFiles, ViewAdmin,
		ClaimOrder, SetPriority, ViewWorkspace:
		return true
	}
	return false
}
