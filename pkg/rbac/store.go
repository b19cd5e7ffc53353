package rbac

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

// Store is the persistence boundary the engine's RBACRoleProvider
// consumes. It is trimmed to the one query the engine's authorization
// path actually issues; a host wanting the rest of an RBAC domain
// (user/role/permission CRUD, namespace hierarchies) implements that
// separately and still satisfies this interface for the engine's
// purposes.
type Store interface {
	// GetUserRoles retrieves all role assignments for a user, ordered
	// by grant time (newest first).
	GetUserRoles(ctx context.Context, userID string) ([]UserRole, error)
}

// SQLStore is a Store backed by a SQL database reachable through
// database/sql, following the same "take an already-open *sql.DB"
// idiom the dialect adapters use.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an already-open *sql.DB. The caller owns the
// connection's lifecycle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetUserRoles retrieves all roles assigned to a user.
func (s *SQLStore) GetUserRoles(ctx context.Context, userID string) ([]UserRole, error) {
	query := `
		SELECT ur.id, ur.user_id, ur.role_id, ur.namespace_id,
		       ur.granted_by, ur.granted_at, ur.expires_at
		FROM user_roles ur
		WHERE ur.user_id = $1
		ORDER BY ur.granted_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userRoles []UserRole
	for rows.Next() {
		var ur UserRole
		var namespaceID sql.NullString
		var expiresAtTime sql.NullTime
		err := rows.Scan(
			&ur.ID, &ur.UserID, &ur.RoleID, &namespaceID,
			&ur.GrantedBy, &ur.GrantedAt, &expiresAtTime,
		)
		if err != nil {
			return nil, err
		}
		if namespaceID.Valid {
			ur.NamespaceID = &namespaceID.String
		}
		if expiresAtTime.Valid {
			ur.ExpiresAt = &expiresAtTime.Time
		}
		userRoles = append(userRoles, ur)
	}
	return userRoles, rows.Err()
}
