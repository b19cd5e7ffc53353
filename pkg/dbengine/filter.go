package dbengine

import (
	"fmt"
	"strings"
)

// FilterOp enumerates the comparison operators a filter leaf may use.
type FilterOp string

const (
	OpEqual      FilterOp = "="
	OpNotEqual   FilterOp = "!="
	OpLess       FilterOp = "<"
	OpLessEq     FilterOp = "<="
	OpGreater    FilterOp = ">"
	OpGreaterEq  FilterOp = ">="
	OpBetween    FilterOp = "between"
	OpStartsWith FilterOp = "startsWith"
	OpEndsWith   FilterOp = "endsWith"
	OpContains   FilterOp = "contains"
	OpSearch     FilterOp = "search"
	OpIsNull     FilterOp = "isNull"
	OpIsNotNull  FilterOp = "isNotNull"
)

// FilterNode is any node in the filter AST:
// Filter ::= Leaf | And[Filter+] | Or[Filter+] | Not[Filter]
type FilterNode interface {
	isFilterNode()
}

// Leaf is a single attribute comparison.
type Leaf struct {
	Attribute string
	Op        FilterOp
	Values    []Value
	Language  string // used only by OpSearch; defaults to "english"
}

func (Leaf) isFilterNode() {}

// And requires every child to hold.
type And struct{ Children []FilterNode }

func (And) isFilterNode() {}

// Or requires at least one child to hold.
type Or struct{ Children []FilterNode }

func (Or) isFilterNode() {}

// Not negates its child.
type Not struct{ Child FilterNode }

func (Not) isFilterNode() {}

// FilterCompiler holds the per-statement state a compilation pass
// needs: the dialect's quoting style, the collection's attribute
// declarations (for array-vs-scalar dispatch and JSON path
// resolution), and whether the MySQL dialect in use supports
// JSON_OVERLAPS.
type FilterCompiler struct {
	Dialect                DialectKind
	Style                  QuoteStyle
	Alias                  string
	Attributes             map[string]Attribute
	DefaultLanguage        string
	MySQLSupportsOverlaps  bool
}

// Compile translates a filter AST into a SQL condition string plus
// the bound parameters collected in left-to-right textual order. An
// empty And/Or compiles to the empty string, which the caller (Query
// Planner) must skip.
func (fc *FilterCompiler) Compile(node FilterNode) (string, []interface{}, error) {
	switch n := node.(type) {
	case Leaf:
		return fc.compileLeaf(n)
	case And:
		return fc.compileGroup(n.Children, "AND")
	case Or:
		return fc.compileGroup(n.Children, "OR")
	case Not:
		sql, params, err := fc.Compile(n.Child)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			return "", nil, nil
		}
		return "NOT (" + sql + ")", params, nil
	default:
		return "", nil, NewEngineError(KindQuery, "", "unsupported filter node")
	}
}

func (fc *FilterCompiler) compileGroup(children []FilterNode, joiner string) (string, []interface{}, error) {
	var parts []string
	var params []interface{}
	for _, c := range children {
		sql, p, err := fc.Compile(c)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, " "+joiner+" ") + ")", params, nil
}

// splitJSONPath recognizes attribute names of the form col->key or
// col->>key.
func splitJSONPath(attr string) (col, op, key string, hasPath bool) {
	if idx := strings.Index(attr, "->>"); idx >= 0 {
		return attr[:idx], "->>", attr[idx+3:], true
	}
	if idx := strings.Index(attr, "->"); idx >= 0 {
		return attr[:idx], "->", attr[idx+2:], true
	}
	return attr, "", "", false
}

func (fc *FilterCompiler) columnExpr(attr string) string {
	col, op, key, hasPath := splitJSONPath(attr)
	colQuoted := fc.Alias + "." + Quote(fc.Style, col)
	if !hasPath {
		return colQuoted
	}
	// Inner keys are quoted as string literals after sanitization,
	// since json path operators take the key as a literal, not an
	// identifier.
	sanitizedKey := Sanitize(key)
	return fmt.Sprintf("%s%s'%s'", colQuoted, op, sanitizedKey)
}

func (fc *FilterCompiler) compileLeaf(l Leaf) (string, []interface{}, error) {
	colSQL := fc.columnExpr(l.Attribute)
	attrName, _, _, _ := splitJSONPath(l.Attribute)
	declared := fc.Attributes[attrName]

	switch l.Op {
	case OpEqual:
		return fc.compileEquality(colSQL, l.Values, false)
	case OpNotEqual:
		return fc.compileEquality(colSQL, l.Values, true)
	case OpLess, OpLessEq, OpGreater, OpGreaterEq:
		if len(l.Values) != 1 {
			return "", nil, NewEngineError(KindQuery, l.Attribute, "comparison operator requires exactly one value")
		}
		return fmt.Sprintf("%s %s ?", colSQL, string(l.Op)), []interface{}{l.Values[0].Raw()}, nil
	case OpBetween:
		if len(l.Values) != 2 {
			return "", nil, NewEngineError(KindQuery, l.Attribute, "between requires exactly two values")
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", colSQL), []interface{}{l.Values[0].Raw(), l.Values[1].Raw()}, nil
	case OpStartsWith:
		return fc.compileLike(colSQL, l.Values, false, true)
	case OpEndsWith:
		return fc.compileLike(colSQL, l.Values, true, false)
	case OpContains:
		return fc.compileContains(colSQL, declared, l.Values)
	case OpSearch:
		return fc.compileSearch(colSQL, l.Values, l.Language)
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", colSQL), nil, nil
	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", colSQL), nil, nil
	default:
		return "", nil, NewEngineError(KindQuery, l.Attribute, "unsupported operator")
	}
}

func (fc *FilterCompiler) compileEquality(colSQL string, values []Value, negate bool) (string, []interface{}, error) {
	if len(values) == 0 {
		return "", nil, NewEngineError(KindQuery, colSQL, "equality filter requires at least one value")
	}
	params := make([]interface{}, len(values))
	for i, v := range values {
		params[i] = v.Raw()
	}
	if len(values) == 1 {
		op := "="
		if negate {
			op = "!="
		}
		return fmt.Sprintf("%s %s ?", colSQL, op), params, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	verb := "IN"
	if negate {
		verb = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", colSQL, verb, placeholders), params, nil
}

// escapeLikeWildcards escapes source-side % and _ characters so a
// literal substring match doesn't accidentally behave as a wildcard
// pattern.
func escapeLikeWildcards(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

func (fc *FilterCompiler) compileLike(colSQL string, values []Value, prefixWildcard, suffixWildcard bool) (string, []interface{}, error) {
	if len(values) != 1 {
		return "", nil, NewEngineError(KindQuery, colSQL, "LIKE-family operator requires exactly one value")
	}
	escaped := escapeLikeWildcards(values[0].Str)
	pattern := escaped
	if prefixWildcard {
		pattern = "%" + pattern
	}
	if suffixWildcard {
		pattern = pattern + "%"
	}
	return fmt.Sprintf("%s LIKE ?", colSQL), []interface{}{pattern}, nil
}

func (fc *FilterCompiler) compileContains(colSQL string, declared Attribute, values []Value) (string, []interface{}, error) {
	if len(values) != 1 {
		return "", nil, NewEngineError(KindQuery, colSQL, "contains requires exactly one value")
	}

	if declared.Array {
		switch fc.Dialect {
		case DialectPostgres:
			return fmt.Sprintf("%s @> ?::jsonb", colSQL), []interface{}{values[0].Raw()}, nil
		case DialectMySQL:
			if !fc.MySQLSupportsOverlaps {
				// Open Question: never silently fall
				// through to LIKE and lose array semantics.
				return "", nil, NewEngineError(KindQuery, colSQL, "contains on array attribute requires JSON_OVERLAPS support")
			}
			return fmt.Sprintf("JSON_OVERLAPS(%s, ?)", colSQL), []interface{}{values[0].Raw()}, nil
		}
	}

	// Scalar string contains.
	escaped := escapeLikeWildcards(values[0].Str)
	return fmt.Sprintf("%s LIKE ?", colSQL), []interface{}{"%" + escaped + "%"}, nil
}

// reservedSearchTokens are dropped from a search value before
// compiling.
var reservedSearchTokens = map[string]struct{}{
	"and": {}, "or": {}, "not": {},
}

// sanitizeSearchTerm drops reserved tokens and appends a trailing *
// unless the entire term was quoted (exact match).
func sanitizeSearchTerm(term string) string {
	trimmed := strings.TrimSpace(term)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		return trimmed
	}
	words := strings.Fields(trimmed)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, reserved := reservedSearchTokens[strings.ToLower(w)]; reserved {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, " ") + "*"
}

func (fc *FilterCompiler) compileSearch(colSQL string, values []Value, language string) (string, []interface{}, error) {
	if len(values) != 1 {
		return "", nil, NewEngineError(KindQuery, colSQL, "search requires exactly one value")
	}
	if language == "" {
		language = fc.DefaultLanguage
	}
	if language == "" {
		language = "english"
	}
	term := sanitizeSearchTerm(values[0].Str)

	switch fc.Dialect {
	case DialectPostgres:
		return fmt.Sprintf("to_tsvector(%s, %s) @@ plainto_tsquery(%s, ?)", quoteLiteral(language), colSQL, quoteLiteral(language)), []interface{}{term}, nil
	case DialectMySQL:
		return fmt.Sprintf("MATCH(%s) AGAINST (? IN BOOLEAN MODE)", colSQL), []interface{}{term}, nil
	default:
		return "", nil, NewEngineError(KindQuery, colSQL, "unsupported dialect for search")
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
