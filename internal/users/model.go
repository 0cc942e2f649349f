package users

import "time"

// Role enumerates what an account may do inside its branch.
type Role string

const (
	// RoleAdmin manages users and captures meeting records for a branch.
	RoleAdmin Role = "ADMIN"
	// RoleViewer has read-only access to reports.
	RoleViewer Role = "VIEWER"
)

// Status enumerates the account lifecycle.
type Status string

const (
	// StatusActive accounts can establish sessions.
	StatusActive Status = "ACTIVE"
	// StatusPending accounts must redeem a one-time verification code first.
	StatusPending Status = "PENDING"
)

// User is one account scoped to a branch. Exactly one user in the system
// carries IsMaster; that account alone may select the global view.
// Passwords are stored and compared in plain text; see DESIGN.md.
type User struct {
	ID               string    `gorm:"column:id;primaryKey;size:190;not null"`
	Email            string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	Name             string    `gorm:"column:name;size:190;not null"`
	Password         string    `gorm:"column:password;size:190;not null"`
	Role             Role      `gorm:"column:role;size:16;not null"`
	BranchID         string    `gorm:"column:branch_id;size:64;not null;index"`
	Status           Status    `gorm:"column:status;size:16;not null"`
	VerificationCode string    `gorm:"column:verification_code;size:6"`
	ProfileImage     string    `gorm:"column:profile_image;type:text"`
	IsMaster         bool      `gorm:"column:is_master;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// ParseRole validates a raw role value. Master is not a role and can never
// be requested through provisioning.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleViewer:
		return RoleViewer, true
	default:
		return "", false
	}
}
