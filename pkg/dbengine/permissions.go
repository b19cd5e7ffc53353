package dbengine

import (
	"fmt"
	"regexp"
	"strings"
)

// PermissionType enumerates the four permission verbs.
type PermissionType string

const (
	PermRead   PermissionType = "read"
	PermCreate PermissionType = "create"
	PermUpdate PermissionType = "update"
	PermDelete PermissionType = "delete"
)

var permissionPattern = regexp.MustCompile(`^(read|create|update|delete)\((.+)\)$`)

// ParsePermission splits a permission string of the form type(role)
// into its type and role. The inner role string is returned unescaped
// (double quotes are stripped during storage normalization).
func ParsePermission(perm string) (PermissionType, string, error) {
	m := permissionPattern.FindStringSubmatch(perm)
	if m == nil {
		return "", "", NewEngineError(KindStructure, perm, "malformed permission string")
	}
	role := strings.ReplaceAll(m[2], `"`, "")
	return PermissionType(m[1]), role, nil
}

// FormatPermission renders a (type, role) pair back into type(role)
// form, stripping embedded double quotes per storage normalization.
func FormatPermission(t PermissionType, role string) string {
	return fmt.Sprintf("%s(%s)", t, strings.ReplaceAll(role, `"`, ""))
}

// RoleSet is an ordered set of role identifiers representing who the
// caller is (e.g. "any", "user:42", "team:9/owner").
type RoleSet []string

// Contains reports whether role is a member of the set.
func (rs RoleSet) Contains(role string) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Overlaps reports whether any role in other also appears in rs.
func (rs RoleSet) Overlaps(other []string) bool {
	for _, o := range other {
		if rs.Contains(o) {
			return true
		}
	}
	return false
}

// CollectionAllows implements the collection-level half of the
// allows() predicate: true if the collection's $permissions lists any
// type(role) with role in roles. This is the in-process gate checked
// before compilation; it does not need SQL.
func CollectionAllows(c *Collection, t PermissionType, roles RoleSet) bool {
	for _, perm := range c.Permissions {
		pt, role, err := ParsePermission(perm)
		if err != nil {
			continue
		}
		if pt == t && roles.Contains(role) {
			return true
		}
	}
	return false
}

// PermissionExistsClause compiles the document-security half of the
// allows() predicate into an EXISTS subquery fragment, joined against
// mainAlias._id.
//
// The engine always emits "?" placeholders. The returned SQL has exactly one
// placeholder for the permission type and one for the role array,
// appended to params in that order.
func PermissionExistsClause(style QuoteStyle, permsTable, mainAlias string, t PermissionType, roles RoleSet) (string, []interface{}) {
	table := Quote(style, permsTable)
	col := Quote(style, "_permissions")
	doc := Quote(style, "_document")
	typ := Quote(style, "_type")
	id := Quote(style, "_id")

	sql := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM %s p WHERE p.%s = %s.%s AND p.%s = ? AND p.%s && ?)",
		table, doc, mainAlias, id, typ, col,
	)
	return sql, []interface{}{string(t), []string(roles)}
}
