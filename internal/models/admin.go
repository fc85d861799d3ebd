package models

import (
	"github.com/google/uuid"
)

// Admin roles. Stored for future use; no operation checks them yet.
const (
	RoleEditor  = "editor"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

// Admin is an authorized curator in the registry. Email is the unique key;
// deactivation flips IsActive rather than deleting, and re-adding a
// deactivated email reactivates the existing row.
type Admin struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt int64     `json:"createdAt"`
	LastLogin *int64    `json:"lastLogin,omitempty"`
}

// AuditEntry is one append-only record of an admin action.
type AuditEntry struct {
	ID           uuid.UUID      `json:"id"`
	AdminID      string         `json:"adminId"`
	AdminEmail   string         `json:"adminEmail"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	Changes      map[string]any `json:"changes,omitempty"`
	Timestamp    int64          `json:"timestamp"`
}
