package models

import (
	"time"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleViewer     Role = "viewer"
)

// User represents a user in the system
type User struct {
	ID           int64      `bson:"_id" json:"id"`
	Username     string     `bson:"username" json:"username"`
	Email        string     `bson:"email" json:"email,omitempty"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Role         Role       `bson:"role" json:"role"`
	IsActive     bool       `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`

	// Digest and expiry of the current refresh token, if any.
	RefreshTokenHash      string     `bson:"refresh_token_hash,omitempty" json:"-"`
	RefreshTokenExpiresAt *time.Time `bson:"refresh_token_expires_at,omitempty" json:"-"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// RefreshRequest exchanges a refresh token for a new token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserUpdateRequest is an administrator's change to another account. Nil
// fields are left unchanged.
type UserUpdateRequest struct {
	Role     *Role `json:"role"`
	IsActive *bool `json:"is_active"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// Permission actions checked by the route guards.
const (
	ViewAssets        = "view_assets"
	ManageAssets      = "manage_assets"
	ViewWorkOrders    = "view_work_orders"
	ManageWorkOrders  = "manage_work_orders"
	ViewTechnicians   = "view_technicians"
	ManageTechnicians = "manage_technicians"
	ViewInventory     = "view_inventory"
	ManageInventory   = "manage_inventory"
	ViewSchedules     = "view_schedules"
	ManageSchedules   = "manage_schedules"
	ViewDashboard     = "view_dashboard"
	ManageUsers       = "manage_users"
)

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleTechnician, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != ManageUsers
	case RoleTechnician:
		switch action {
		case ViewAssets, ViewWorkOrders, ViewTechnicians, ViewInventory, ViewSchedules, ViewDashboard,
			ManageWorkOrders, ManageSchedules, ManageInventory:
			return true
		}
		return false
	case RoleViewer:
		switch action {
		case ViewAssets, ViewWorkOrders, ViewTechnicians, ViewInventory, ViewSchedules, ViewDashboard:
			return true
		}
		return false
	default:
		return false
	}
}
