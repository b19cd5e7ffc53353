package dbengine

import (
	"context"

	"github.com/artha-au/dbengine/pkg/rbac"
)

// RBACRoleProvider adapts the rbac.Store into the engine's
// RoleProvider boundary: it resolves a fixed caller
// identity into the `type:id` role strings the permission grammar
// expects ("user:<id>" always; "team:<namespaceId>/<roleId>" per
// scoped assignment, "role:<roleId>" for global ones).
type RBACRoleProvider struct {
	store  rbac.Store
	userID string
}

// NewRBACRoleProvider binds a role provider to one caller identity.
// Hosts construct one per request/session, mirroring how
// rbac.Store.GetUserRoles is always called with a fixed userID.
func NewRBACRoleProvider(store rbac.Store, userID string) *RBACRoleProvider {
	return &RBACRoleProvider{store: store, userID: userID}
}

// Roles implements RoleProvider, translating the caller's resolved
// rbac assignments into role identifiers. Reports enabled=false (and
// a nil slice) if the store lookup fails, so a down authorization
// backend fails closed rather than granting "any".
func (p *RBACRoleProvider) Roles(ctx context.Context) ([]string, bool) {
	assignments, err := p.store.GetUserRoles(ctx, p.userID)
	if err != nil {
		return nil, false
	}
	roles := []string{"user:" + p.userID}
	for _, a := range assignments {
		if a.NamespaceID != nil {
			roles = append(roles, "team:"+*a.NamespaceID+"/"+a.RoleID)
			continue
		}
		roles = append(roles, "role:"+a.RoleID)
	}
	return roles, true
}
