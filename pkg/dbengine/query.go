package dbengine

import (
	"fmt"
	"strings"
)

// CursorDirection selects which side of a cursor a find query resumes
// from.
type CursorDirection string

const (
	CursorAfter  CursorDirection = "after"
	CursorBefore CursorDirection = "before"
)

// FindRequest is the full input to the Query Planner for a single
// compiled SELECT.
type FindRequest struct {
	Collection *Collection
	Selections []string // explicit user attribute projections; nil means all declared attributes
	Filter     FilterNode
	Populate   []*PopulateNode

	OrderAttributes []string
	OrderTypes      []IndexOrder

	Cursor          map[string]Value
	CursorDirection CursorDirection

	Limit  int
	Offset int

	Roles            RoleSet
	TenantID         *int64
	DocumentSecurity bool
}

// CompiledQuery is the SQL text plus positionally-ordered bind
// parameters produced by the Query Planner.
type CompiledQuery struct {
	SQL      string
	Params   []interface{}
	Warnings []string
}

// QueryPlanner composes projection, joins, filters, permission and
// tenancy filters, ordering, and cursor pagination into one SELECT.
type QueryPlanner struct {
	Config  *EngineConfig
	Style   QuoteStyle
	Dialect DialectKind
}

// CompileFind produces the single SELECT described by req.
func (qp *QueryPlanner) CompileFind(req *FindRequest) (*CompiledQuery, error) {
	var warnings []string
	if qp.Config.SharedTables && req.TenantID == nil {
		warnings = append(warnings, "shared-table find compiled without a tenant id")
	}

	table := QualifiedTable(qp.Style, qp.Config.MetadataNamespace, TableName(qp.Config.MetadataNamespace, req.Collection.ID))

	joins, err := ResolveRelationships(qp.Config, qp.Style, qp.Dialect, req.Collection, req.Populate, req.Roles, req.TenantID)
	if err != nil {
		return nil, err
	}

	projection := qp.buildProjection(req, joins)

	// params is built in the exact left-to-right order its bound "?"
	// appears in the emitted SQL: joins first (they precede WHERE),
	// then tenant, permission, filter, cursor, limit, offset.
	var params []interface{}
	for _, j := range joins {
		params = append(params, j.Params...)
	}

	var whereClauses []string

	if qp.Config.SharedTables {
		tenantCol := "main." + Quote(qp.Style, "_tenant")
		whereClauses = append(whereClauses, fmt.Sprintf("%s = ?", tenantCol))
		var tv interface{}
		if req.TenantID != nil {
			tv = *req.TenantID
		}
		params = append(params, tv)
	}

	if req.DocumentSecurity {
		existsSQL, existsParams := PermissionExistsClause(qp.Style, PermsTableName(qp.Config.MetadataNamespace, req.Collection.ID), "main", PermRead, req.Roles)
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

	orderAttrs, orderTypes := qp.resolveOrdering(req.OrderAttributes, req.OrderTypes)

	if len(req.Cursor) > 0 {
		cursorSQL, cursorParams, err := qp.buildCursorPredicate(orderAttrs, orderTypes, req.Cursor, req.CursorDirection)
		if err != nil {
			return nil, err
		}
		if cursorSQL != "" {
			whereClauses = append(whereClauses, cursorSQL)
			params = append(params, cursorParams...)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT ")
	sb.WriteString(projection)
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	sb.WriteString(" AS main")
	for _, j := range joins {
		sb.WriteString(" ")
		sb.WriteString(j.SQL)
	}
	if len(whereClauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(whereClauses, " AND "))
	}

	effectiveOrderTypes := adjustForDirection(orderTypes, req.CursorDirection)
	sb.WriteString(" ORDER BY ")
	orderParts := make([]string, len(orderAttrs))
	for i, a := range orderAttrs {
		orderParts[i] = fmt.Sprintf("%s %s", orderColumnSQL(qp.Style, a), effectiveOrderTypes[i])
	}
	sb.WriteString(strings.Join(orderParts, ", "))

	if req.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, req.Limit)
	}
	if req.Offset > 0 {
		sb.WriteString(" OFFSET ?")
		params = append(params, req.Offset)
	}

	return &CompiledQuery{SQL: sb.String(), Params: params, Warnings: warnings}, nil
}

func attributeIndex(c *Collection) map[string]Attribute {
	m := make(map[string]Attribute, len(c.Attributes))
	for _, a := range c.Attributes {
		m[a.Key] = a
	}
	return m
}

func (qp *QueryPlanner) buildProjection(req *FindRequest, joins []JoinPlan) string {
	style := qp.Style
	parts := []string{
		fmt.Sprintf(`main.%s AS %s`, Quote(style, "_uid"), Quote(style, KeyID)),
		fmt.Sprintf(`main.%s AS %s`, Quote(style, "_id"), Quote(style, KeySequence)),
		fmt.Sprintf(`main.%s AS %s`, Quote(style, "_createdAt"), Quote(style, KeyCreatedAt)),
		fmt.Sprintf(`main.%s AS %s`, Quote(style, "_updatedAt"), Quote(style, KeyUpdatedAt)),
		fmt.Sprintf(`main.%s AS %s`, Quote(style, "_permissions"), Quote(style, KeyPermissions)),
		fmt.Sprintf(`%s AS %s`, quoteLiteral(req.Collection.ID), Quote(style, KeyCollection)),
	}
	if qp.Config.SharedTables {
		parts = append(parts, fmt.Sprintf(`main.%s AS %s`, Quote(style, "_tenant"), Quote(style, KeyTenant)))
	}

	selections := req.Selections
	if len(selections) == 0 {
		for _, a := range req.Collection.Attributes {
			if a.Type == AttrVirtual {
				continue
			}
			selections = append(selections, a.Key)
		}
	}
	for _, key := range selections {
		parts = append(parts, fmt.Sprintf(`main.%s AS %s`, Quote(style, key), Quote(style, key)))
	}

	for _, j := range joins {
		for _, sel := range j.Node.Selections {
			alias := j.Node.Attribute + "_" + sel
			parts = append(parts, fmt.Sprintf(`%s.%s AS %s`, j.Alias, Quote(style, sel), Quote(style, alias)))
		}
	}

	return strings.Join(parts, ", ")
}

// resolveOrdering defaults to _id ASC when no ordering was requested,
// and appends an _id tie-break with the last attribute's direction
// when one isn't already present.
func (qp *QueryPlanner) resolveOrdering(attrs []string, types []IndexOrder) ([]string, []IndexOrder) {
	if len(attrs) == 0 {
		return []string{"$sequence"}, []IndexOrder{OrderAsc}
	}
	hasTieBreak := false
	for _, a := range attrs {
		if a == "$sequence" || a == "_id" {
			hasTieBreak = true
			break
		}
	}
	if hasTieBreak {
		return attrs, types
	}
	lastType := OrderAsc
	if len(types) > 0 {
		lastType = types[len(types)-1]
	}
	return append(append([]string{}, attrs...), "$sequence"), append(append([]IndexOrder{}, types...), lastType)
}

func orderColumnSQL(style QuoteStyle, attr string) string {
	if attr == "$sequence" {
		return "main." + Quote(style, "_id")
	}
	return "main." + Quote(style, attr)
}

func flipOrder(o IndexOrder) IndexOrder {
	if o == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}

// adjustForDirection flips every order type when paginating
// "before".
func adjustForDirection(types []IndexOrder, dir CursorDirection) []IndexOrder {
	out := make([]IndexOrder, len(types))
	for i, t := range types {
		if dir == CursorBefore {
			out[i] = flipOrder(t)
		} else {
			out[i] = t
		}
	}
	return out
}

// buildCursorPredicate compiles the cursor comparison: a single
// comparison when the only ordering attribute is $sequence, otherwise
// N disjoined equality/inequality groups.
func (qp *QueryPlanner) buildCursorPredicate(attrs []string, types []IndexOrder, cursor map[string]Value, dir CursorDirection) (string, []interface{}, error) {
	effective := adjustForDirection(types, dir)

	if len(attrs) == 1 {
		v, ok := cursor[attrs[0]]
		if !ok {
			return "", nil, nil
		}
		op := ">"
		if effective[0] == OrderDesc {
			op = "<"
		}
		return fmt.Sprintf("%s %s ?", orderColumnSQL(qp.Style, attrs[0]), op), []interface{}{v.Raw()}, nil
	}

	var groups []string
	var params []interface{}
	for k := 0; k < len(attrs); k++ {
		v, ok := cursor[attrs[k]]
		if !ok {
			continue
		}
		var eqParts []string
		for j := 0; j < k; j++ {
			eqVal, ok := cursor[attrs[j]]
			if !ok {
				continue
			}
			eqParts = append(eqParts, fmt.Sprintf("%s = ?", orderColumnSQL(qp.Style, attrs[j])))
			params = append(params, eqVal.Raw())
		}
		op := ">"
		if effective[k] == OrderDesc {
			op = "<"
		}
		eqParts = append(eqParts, fmt.Sprintf("%s %s ?", orderColumnSQL(qp.Style, attrs[k]), op))
		params = append(params, v.Raw())
		groups = append(groups, "("+strings.Join(eqParts, " AND ")+")")
	}
	if len(groups) == 0 {
		return "", nil, nil
	}
	return strings.Join(groups, " OR "), params, nil
}

// AssembleDocuments groups fetched rows by $id and threads
// {key}_{subkey} columns back into nested Doc values, reversing
// physical row order for CursorBefore pages so callers observe
// caller-expected order.
func AssembleDocuments(rows []map[string]interface{}, populate []*PopulateNode, dir CursorDirection) []*Document {
	order := make([]string, 0, len(rows))
	byID := make(map[string]*Document, len(rows))

	for _, row := range rows {
		id, _ := row[KeyID].(string)
		doc, seen := byID[id]
		if !seen {
			doc = rowToDocument(row)
			byID[id] = doc
			order = append(order, id)
		}
		for _, node := range populate {
			threadNested(doc, node, row)
		}
	}

	out := make([]*Document, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	if dir == CursorBefore {
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
	}
	return out
}

func rowToDocument(row map[string]interface{}) *Document {
	d := NewDocument()
	if id, ok := row[KeyID].(string); ok {
		d.ID = id
	}
	for k, v := range row {
		switch k {
		case KeyID, KeySequence, KeyCollection, KeyTenant, KeyCreatedAt, KeyUpdatedAt, KeyPermissions:
			continue
		}
		d.Set(k, wrapRaw(v))
	}
	return d
}

func threadNested(parent *Document, node *PopulateNode, row map[string]interface{}) {
	prefix := node.Attribute + "_"
	nested := NewDocument()
	any := false
	for k, v := range row {
		if strings.HasPrefix(k, prefix) {
			nested.Set(strings.TrimPrefix(k, prefix), wrapRaw(v))
			any = true
		}
	}
	if any {
		parent.Set(node.Attribute, DocValue(*nested))
	}
}

func wrapRaw(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case int64:
		return IntValue(t)
	case int:
		return IntValue(int64(t))
	case float64:
		return FloatValue(t)
	case string:
		return StringValue(t)
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}
