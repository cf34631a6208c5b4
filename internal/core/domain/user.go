package domain

import "time"

// Role identifies what a user may do.
type Role string

const (
	RoleClient   Role = "client"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleEmployee || r == RoleAdmin
}

// IsStaff reports whether r belongs to the agency side (employee or admin).
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// UserStatus is the availability shown in the staff workspace.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBusy    UserStatus = "busy"
	UserOffline UserStatus = "offline"
)

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserBusy || s == UserOffline
}

// User models an authenticated actor in the system.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsStaff is shorthand for u.Role.IsStaff on a possibly nil user.
func (u *User) IsStaff() bool {
	return u != nil && u.Role.IsStaff()
}
