package dbengine

import (
	"fmt"
	"strings"
	"time"
)

// CompiledStatement is one SQL text plus its bound parameters. Most
// mutation operations emit more than one CompiledStatement that must
// execute inside a single caller-managed transaction.
type CompiledStatement struct {
	SQL    string
	Params []interface{}
}

// MutationPlanner compiles insert, upsert, update, delete, and
// increment operations.
type MutationPlanner struct {
	Config  *EngineConfig
	Style   QuoteStyle
	Dialect DialectKind
}

func (mp *MutationPlanner) table(collectionID string) string {
	return QualifiedTable(mp.Style, mp.Config.MetadataNamespace, TableName(mp.Config.MetadataNamespace, collectionID))
}

func (mp *MutationPlanner) permsTable(collectionID string) string {
	return QualifiedTable(mp.Style, mp.Config.MetadataNamespace, PermsTableName(mp.Config.MetadataNamespace, collectionID))
}

// physicalColumns returns the collection's attribute keys that
// materialize a column in the main table: every non-virtual
// attribute, and relationship attributes only on their owning side.
func physicalColumns(c *Collection) []Attribute {
	var out []Attribute
	for _, a := range c.Attributes {
		if a.Type == AttrVirtual {
			continue
		}
		if a.Type == AttrRelationship {
			if a.Options == nil || !IsOwningSide(a.Options.RelationType, a.Options.Side) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func valueOrDefault(doc *Document, a Attribute) interface{} {
	if v, ok := doc.Get(a.Key); ok {
		return v.Raw()
	}
	if a.Default != nil {
		return a.Default.Raw()
	}
	return nil
}

// CompileInsert emits the single-row INSERT. doc must already carry
// $id, $createdAt, $updatedAt, and $permissions assigned by the
// caller; the planner performs no ID generation or clock reads.
func (mp *MutationPlanner) CompileInsert(coll *Collection, doc *Document, tenantID *int64) (*CompiledStatement, error) {
	if doc.ID == "" {
		return nil, NewEngineError(KindStructure, coll.ID, "insert requires a non-empty $id")
	}
	if mp.Config.SharedTables && tenantID == nil {
		return nil, NewEngineError(KindStructure, coll.ID, "shared-table mode requires a tenant id for mutations")
	}

	cols := []string{"_uid", "_createdAt", "_updatedAt", "_permissions"}
	vals := []interface{}{doc.ID, doc.CreatedAt, doc.UpdatedAt, DedupePermissions(doc.Permissions)}

	if mp.Config.SharedTables {
		cols = append(cols, "_tenant")
		vals = append(vals, *tenantID)
	}

	for _, a := range physicalColumns(coll) {
		cols = append(cols, a.Key)
		vals = append(vals, valueOrDefault(doc, a))
	}

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = Quote(mp.Style, c)
		placeholders[i] = "?"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		mp.table(coll.ID), strings.Join(quoted, ", "), strings.Join(placeholders, ", "), Quote(mp.Style, "_id"))

	return &CompiledStatement{SQL: sql, Params: vals}, nil
}

// CompileInsertBatch unions every row's column set into one multi-row
// INSERT, emitting NULL for columns a given row doesn't supply.
func (mp *MutationPlanner) CompileInsertBatch(coll *Collection, docs []*Document, tenantID *int64) (*CompiledStatement, error) {
	if len(docs) == 0 {
		return nil, NewEngineError(KindStructure, coll.ID, "batch insert requires at least one document")
	}
	if mp.Config.SharedTables && tenantID == nil {
		return nil, NewEngineError(KindStructure, coll.ID, "shared-table mode requires a tenant id for mutations")
	}

	cols := []string{"_uid", "_createdAt", "_updatedAt", "_permissions"}
	if mp.Config.SharedTables {
		cols = append(cols, "_tenant")
	}
	for _, a := range physicalColumns(coll) {
		cols = append(cols, a.Key)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = Quote(mp.Style, c)
	}

	var params []interface{}
	rowGroups := make([]string, len(docs))
	for ri, doc := range docs {
		if doc.ID == "" {
			return nil, NewEngineError(KindStructure, coll.ID, "batch insert requires a non-empty $id on every row")
		}
		placeholders := make([]string, len(cols))
		for i, c := range cols {
			placeholders[i] = "?"
			switch c {
			case "_uid":
				params = append(params, doc.ID)
			case "_createdAt":
				params = append(params, doc.CreatedAt)
			case "_updatedAt":
				params = append(params, doc.UpdatedAt)
			case "_permissions":
				params = append(params, DedupePermissions(doc.Permissions))
			case "_tenant":
				params = append(params, *tenantID)
			default:
				a, _ := coll.AttributeByKey(c)
				params = append(params, valueOrDefault(doc, *a))
			}
		}
		rowGroups[ri] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING %s",
		mp.table(coll.ID), strings.Join(quoted, ", "), strings.Join(rowGroups, ", "), Quote(mp.Style, "_id"))

	return &CompiledStatement{SQL: sql, Params: params}, nil
}

// groupPermissionsByType splits permission strings into their
// constituent roles grouped by type.
func groupPermissionsByType(perms []string) (map[PermissionType][]string, error) {
	grouped := make(map[PermissionType][]string)
	for _, p := range DedupePermissions(perms) {
		t, role, err := ParsePermission(p)
		if err != nil {
			return nil, err
		}
		grouped[t] = append(grouped[t], role)
	}
	return grouped, nil
}

// CompilePermissionsInsert emits one multi-row INSERT into the perms
// side-table, one row per non-empty permission type. Returns nil when
// perms carries no rows to insert. documentSeq is the _id returned by
// the main-table INSERT this statement must follow inside the same
// transaction.
func (mp *MutationPlanner) CompilePermissionsInsert(coll *Collection, documentSeq int64, tenantID *int64, perms []string) (*CompiledStatement, error) {
	grouped, err := groupPermissionsByType(perms)
	if err != nil {
		return nil, err
	}
	if len(grouped) == 0 {
		return nil, nil
	}

	cols := []string{"_type", "_permissions", "_document"}
	if mp.Config.SharedTables {
		cols = append(cols, "_tenant")
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = Quote(mp.Style, c)
	}

	var params []interface{}
	var rowGroups []string
	for _, t := range []PermissionType{PermRead, PermCreate, PermUpdate, PermDelete} {
		roles, ok := grouped[t]
		if !ok {
			continue
		}
		placeholders := make([]string, len(cols))
		for i := range cols {
			placeholders[i] = "?"
		}
		params = append(params, string(t), roles, documentSeq)
		if mp.Config.SharedTables {
			if tenantID == nil {
				return nil, NewEngineError(KindStructure, coll.ID, "shared-table mode requires a tenant id for mutations")
			}
			params = append(params, *tenantID)
		}
		rowGroups = append(rowGroups, "("+strings.Join(placeholders, ", ")+")")
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", mp.permsTable(coll.ID), strings.Join(quoted, ", "), strings.Join(rowGroups, ", "))
	return &CompiledStatement{SQL: sql, Params: params}, nil
}

// CompileUpsert emits the ON CONFLICT / ON DUPLICATE KEY statement.
// When incrementAttr is non-empty, only that column and _updatedAt
// participate in the update clause, using the additive increment
// form.
func (mp *MutationPlanner) CompileUpsert(coll *Collection, doc *Document, tenantID *int64, incrementAttr string) (*CompiledStatement, error) {
	if doc.ID == "" {
		return nil, NewEngineError(KindStructure, coll.ID, "upsert requires a non-empty $id")
	}
	if mp.Config.SharedTables && tenantID == nil {
		return nil, NewEngineError(KindStructure, coll.ID, "shared-table mode requires a tenant id for mutations")
	}

	cols := []string{"_uid", "_createdAt", "_updatedAt", "_permissions"}
	vals := []interface{}{doc.ID, doc.CreatedAt, doc.UpdatedAt, DedupePermissions(doc.Permissions)}
	conflictCols := []string{"_uid"}
	if mp.Config.SharedTables {
		cols = append(cols, "_tenant")
		vals = append(vals, *tenantID)
		conflictCols = append(conflictCols, "_tenant")
	}
	for _, a := range physicalColumns(coll) {
		cols = append(cols, a.Key)
		vals = append(vals, valueOrDefault(doc, a))
	}

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = Quote(mp.Style, c)
		placeholders[i] = "?"
	}

	table := mp.table(coll.ID)
	tenantCol := Quote(mp.Style, "_tenant")

	var updateCols []string
	if incrementAttr != "" {
		updateCols = []string{incrementAttr}
	} else {
		updateCols = make([]string, 0, len(cols))
		for _, c := range cols {
			if c == "_uid" || c == "_createdAt" || c == "_tenant" {
				continue
			}
			updateCols = append(updateCols, c)
		}
	}

	switch mp.Dialect {
	case DialectPostgres:
		var setParts []string
		for _, c := range updateCols {
			col := Quote(mp.Style, c)
			excluded := "EXCLUDED." + col
			if c == incrementAttr {
				setParts = append(setParts, fmt.Sprintf("%s = %s + %s", col, col, excluded))
				continue
			}
			if mp.Config.SharedTables {
				setParts = append(setParts, fmt.Sprintf("%s = CASE WHEN %s.%s = %s THEN %s ELSE %s END", col, table, tenantCol, excluded, excluded, col))
			} else {
				setParts = append(setParts, fmt.Sprintf("%s = %s", col, excluded))
			}
		}
		if incrementAttr != "" {
			setParts = append(setParts, fmt.Sprintf("%s = EXCLUDED.%s", Quote(mp.Style, "_updatedAt"), Quote(mp.Style, "_updatedAt")))
		}
		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
			table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "), quoteIdentList(mp.Style, conflictCols), strings.Join(setParts, ", "))
		return &CompiledStatement{SQL: sql, Params: vals}, nil

	case DialectMySQL:
		var setParts []string
		for _, c := range updateCols {
			col := Quote(mp.Style, c)
			values := "VALUES(" + col + ")"
			if c == incrementAttr {
				setParts = append(setParts, fmt.Sprintf("%s = %s + %s", col, col, values))
				continue
			}
			if mp.Config.SharedTables {
				setParts = append(setParts, fmt.Sprintf("%s = IF(%s = VALUES(%s), %s, %s)", col, Quote(mp.Style, "_tenant"), Quote(mp.Style, "_tenant"), values, col))
			} else {
				setParts = append(setParts, fmt.Sprintf("%s = %s", col, values))
			}
		}
		if incrementAttr != "" {
			updAt := Quote(mp.Style, "_updatedAt")
			setParts = append(setParts, fmt.Sprintf("%s = VALUES(%s)", updAt, updAt))
		}
		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
			table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "), strings.Join(setParts, ", "))
		return &CompiledStatement{SQL: sql, Params: vals}, nil

	default:
		return nil, NewEngineError(KindQuery, coll.ID, "unsupported dialect for upsert")
	}
}

func quoteIdentList(style QuoteStyle, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = Quote(style, c)
	}
	return strings.Join(quoted, ", ")
}

// CompileUpdate emits a single-document UPDATE. uid, when non-nil,
// rewrites the document's external $id alongside the attribute
// changes.
func (mp *MutationPlanner) CompileUpdate(coll *Collection, documentSeq int64, changes map[string]Value, uid *string, updatedAt time.Time, tenantID *int64) (*CompiledStatement, error) {
	if mp.Config.SharedTables && tenantID == nil {
		return nil, NewEngineError(KindStructure, coll.ID, "shared-table mode requires a tenant id for mutations")
	}

	var setParts []string
	var params []interface{}
	for _, a := range physicalColumns(coll) {
		v, ok := changes[a.Key]
		if !ok {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = ?", Quote(mp.Style, a.Key)))
		params = append(params, v.Raw())
	}
	setParts = append(setParts, fmt.Sprintf("%s = ?", Quote(mp.Style, "_updatedAt")))
	params = append(params, updatedAt)
	if uid != nil {
		setParts = append(setParts, fmt.Sprintf("%s = ?", Quote(mp.Style, "_uid")))
		params = append(params, *uid)
	}

	where := fmt.Sprintf("%s = ?", Quote(mp.Style, "_id"))
	params = append(params, documentSeq)
	if mp.Config.SharedTables {
		where += fmt.Sprintf(" AND %s = ?", Quote(mp.Style, "_tenant"))
		params = append(params, *tenantID)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", mp.table(coll.ID), strings.Join(setParts, ", "), where)
	return &CompiledStatement{SQL: sql, Params: params}, nil
}

// CompileUpdateBatch applies the same attribute changes to every
// document in documentSeqs, with no permission diff.
func (mp *MutationPlanner) CompileUpdateBatch(coll *Collection, documentSeqs []int64, changes map[string]Value, updatedAt time.Time, tenantID *int64) (*CompiledStatement, error) {
	if len(documentSeqs) == 0 {
		return nil, NewEngineError(KindStructure, coll.ID, "batch update requires at least one document id")
	}
	if mp.Config.SharedTables && tenantID == nil {
		return nil, NewEngineError(KindStructure, coll.ID, "shared-table mode requires a tenant id for mutations")
	}

	var setParts []string
	var params []interface{}
	for _, a := range physicalColumns(coll) {
		v, ok := changes[a.Key]
		if !ok {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = ?", Quote(mp.Style, a.Key)))
		params = append(params, v.Raw())
	}
	setParts = append(setParts, fmt.Sprintf("%s = ?", Quote(mp.Style, "_updatedAt")))
	params = append(params, updatedAt)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(documentSeqs)), ",")
	where := fmt.Sprintf("%s IN (%s)", Quote(mp.Style, "_id"), placeholders)
	for _, seq := range documentSeqs {
		params = append(params, seq)
	}
	if mp.Config.SharedTables {
		where += fmt.Sprintf(" AND %s = ?", Quote(mp.Style, "_tenant"))
		params = append(params, *tenantID)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", mp.table(coll.ID), strings.Join(setParts, ", "), where)
	return &CompiledStatement{SQL: sql, Params: params}, nil
}

// PermissionDiff computes the add/remove/update statements needed to
// move a document's perms side-table rows from existing to desired.
func (mp *MutationPlanner) PermissionDiff(coll *Collection, documentSeq int64, tenantID *int64, existing, desired []string) ([]CompiledStatement, error) {
	existingByType, err := groupPermissionsByType(existing)
	if err != nil {
		return nil, err
	}
	desiredByType, err := groupPermissionsByType(desired)
	if err != nil {
		return nil, err
	}

	var stmts []CompiledStatement
	for _, t := range []PermissionType{PermRead, PermCreate, PermUpdate, PermDelete} {
		oldRoles, hadOld := existingByType[t]
		newRoles, hasNew := desiredByType[t]

		switch {
		case !hadOld && hasNew:
			stmts = append(stmts, mp.permInsertStatement(coll, documentSeq, tenantID, t, newRoles))
		case hadOld && !hasNew:
			stmts = append(stmts, mp.permDeleteStatement(coll, documentSeq, tenantID, t))
		case hadOld && hasNew:
			if !sameRoleSet(oldRoles, newRoles) {
				stmts = append(stmts, mp.permUpdateStatement(coll, documentSeq, tenantID, t, newRoles))
			}
		}
	}
	return stmts, nil
}

func sameRoleSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, r := range a {
		set[r] = struct{}{}
	}
	for _, r := range b {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

func (mp *MutationPlanner) permInsertStatement(coll *Collection, documentSeq int64, tenantID *int64, t PermissionType, roles []string) CompiledStatement {
	cols := []string{"_type", "_permissions", "_document"}
	params := []interface{}{string(t), roles, documentSeq}
	if mp.Config.SharedTables {
		cols = append(cols, "_tenant")
		params = append(params, *tenantID)
	}
	placeholders := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		placeholders[i] = "?"
		quoted[i] = Quote(mp.Style, c)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", mp.permsTable(coll.ID), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	return CompiledStatement{SQL: sql, Params: params}
}

func (mp *MutationPlanner) permUpdateStatement(coll *Collection, documentSeq int64, tenantID *int64, t PermissionType, roles []string) CompiledStatement {
	where := fmt.Sprintf("%s = ? AND %s = ?", Quote(mp.Style, "_document"), Quote(mp.Style, "_type"))
	params := []interface{}{roles, documentSeq, string(t)}
	if mp.Config.SharedTables {
		where += fmt.Sprintf(" AND %s = ?", Quote(mp.Style, "_tenant"))
		params = append(params, *tenantID)
	}
	sql := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s", mp.permsTable(coll.ID), Quote(mp.Style, "_permissions"), where)
	return CompiledStatement{SQL: sql, Params: params}
}

func (mp *MutationPlanner) permDeleteStatement(coll *Collection, documentSeq int64, tenantID *int64, t PermissionType) CompiledStatement {
	where := fmt.Sprintf("%s = ? AND %s = ?", Quote(mp.Style, "_document"), Quote(mp.Style, "_type"))
	params := []interface{}{documentSeq, string(t)}
	if mp.Config.SharedTables {
		where += fmt.Sprintf(" AND %s = ?", Quote(mp.Style, "_tenant"))
		params = append(params, *tenantID)
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", mp.permsTable(coll.ID), where)
	return CompiledStatement{SQL: sql, Params: params}
}

// splitJoinSQL tears a JoinPlan's "LEFT JOIN table alias ON cond"
// text back into its USING-list and WHERE-folded condition, since
// Postgres DELETE has no JOIN clause, only USING.
func splitJoinSQL(sql string) (tableAndAlias, cond string) {
	sql = strings.TrimPrefix(sql, "LEFT JOIN ")
	idx := strings.Index(sql, " ON ")
	if idx < 0 {
		return sql, ""
	}
	return sql[:idx], sql[idx+4:]
}

// CompileDeleteByQuery compiles the same join/filter/permission/
// tenancy predicate find would use, but as a DELETE ... USING ...
// RETURNING statement. It ignores req's ordering/cursor/limit fields,
// which have no meaning for a delete.
func CompileDeleteByQuery(qp *QueryPlanner, req *FindRequest) (*CompiledStatement, error) {
	table := QualifiedTable(qp.Style, qp.Config.MetadataNamespace, TableName(qp.Config.MetadataNamespace, req.Collection.ID))

	joins, err := ResolveRelationships(qp.Config, qp.Style, qp.Dialect, req.Collection, req.Populate, req.Roles, req.TenantID)
	if err != nil {
		return nil, err
	}

	var usingParts []string
	var whereClauses []string
	var params []interface{}
	for _, j := range joins {
		tableAndAlias, cond := splitJoinSQL(j.SQL)
		usingParts = append(usingParts, tableAndAlias)
		if cond != "" {
			whereClauses = append(whereClauses, cond)
		}
		params = append(params, j.Params...)
	}

	if qp.Config.SharedTables {
		whereClauses = append(whereClauses, fmt.Sprintf("main.%s = ?", Quote(qp.Style, "_tenant")))
		var tv interface{}
		if req.TenantID != nil {
			tv = *req.TenantID
		}
		params = append(params, tv)
	}

	if req.DocumentSecurity {
		existsSQL, existsParams := PermissionExistsClause(qp.Style, PermsTableName(qp.Config.MetadataNamespace, req.Collection.ID), "main", PermDelete, req.Roles)
		whereClauses = append(whereClauses, existsSQL)
		params = append(params, existsParams...)
	}

	if req.Filter != nil {
		fc := &FilterCompiler{
			Dialect:               qp.Dialect,
			Style:                 qp.Style,
			Alias:                 "main",
			Attributes:            attributeIndex(req.Collection),
			DefaultLanguage:       qp.Config.DefaultSearchLanguage,
			MySQLSupportsOverlaps: true,
		}
		sql, fparams, err := fc.Compile(req.Filter)
		if err != nil {
			return nil, err
		}
		if sql != "" {
			whereClauses = append(whereClauses, sql)
			params = append(params, fparams...)
		}
	}

	var sb strings.Builder
	sb.WriteString("DELETE FROM ")
	sb.WriteString(table)
	sb.WriteString(" AS main")
	if len(usingParts) > 0 {
		sb.WriteString(" USING ")
		sb.WriteString(strings.Join(usingParts, ", "))
	}
	if len(whereClauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(whereClauses, " AND "))
	}
	sb.WriteString(fmt.Sprintf(" RETURNING %s, %s", Quote(qp.Style, "_uid"), Quote(qp.Style, "_id")))

	return &CompiledStatement{SQL: sb.String(), Params: params}, nil
}

// CompilePermsDeleteByDocuments removes every perms row belonging to
// the given main-table _id values, the second half of delete-by-query.
func (mp *MutationPlanner) CompilePermsDeleteByDocuments(coll *Collection, documentSeqs []int64) (*CompiledStatement, error) {
	if len(documentSeqs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(documentSeqs)), ",")
	params := make([]interface{}, len(documentSeqs))
	for i, seq := range documentSeqs {
		params[i] = seq
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", mp.permsTable(coll.ID), Quote(mp.Style, "_document"), placeholders)
	return &CompiledStatement{SQL: sql, Params: params}, nil
}

// CompileIncrement emits the clamped numeric increment UPDATE. A
// clamp that excludes every row makes the update a deliberate silent
// no-op; the caller observes a zero affected-row count.
func (mp *MutationPlanner) CompileIncrement(coll *Collection, documentUID string, attr string, delta Value, min, max *Value, updatedAt time.Time, tenantID *int64) (*CompiledStatement, error) {
	if mp.Config.SharedTables && tenantID == nil {
		return nil, NewEngineError(KindStructure, coll.ID, "shared-table mode requires a tenant id for mutations")
	}
	col := Quote(mp.Style, attr)
	sql := fmt.Sprintf("UPDATE %s SET %s = %s + ?, %s = ? WHERE %s = ?",
		mp.table(coll.ID), col, col, Quote(mp.Style, "_updatedAt"), Quote(mp.Style, "_uid"))
	params := []interface{}{delta.Raw(), updatedAt, documentUID}

	if max != nil {
		sql += fmt.Sprintf(" AND %s <= ?", col)
		params = append(params, max.Raw())
	}
	if min != nil {
		sql += fmt.Sprintf(" AND %s >= ?", col)
		params = append(params, min.Raw())
	}
	if mp.Config.SharedTables {
		sql += fmt.Sprintf(" AND %s = ?", Quote(mp.Style, "_tenant"))
		params = append(params, *tenantID)
	}

	return &CompiledStatement{SQL: sql, Params: params}, nil
}
