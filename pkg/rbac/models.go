package rbac

import "time"

// UserRole represents the assignment of a role to a user, optionally
// scoped to a namespace. NamespaceID nil means a global assignment;
// set means the assignment applies only within that namespace and its
// children. ExpiresAt nil means a permanent grant.
type UserRole struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	RoleID      string     `json:"role_id" db:"role_id"`
	NamespaceID *string    `json:"namespace_id" db:"namespace_id"`
	GrantedBy   string     `json:"granted_by" db:"granted_by"`
	GrantedAt   time.Time  `json:"granted_at" db:"granted_at"`
	ExpiresAt   *time.Time `json:"expires_at" db:"expires_at"`
}
