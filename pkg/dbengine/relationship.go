package dbengine

import "fmt"

// PopulateNode is one node of a populate tree: a request to hydrate a
// relationship attribute of the parent document with rows from its
// related collection.
type PopulateNode struct {
	Attribute       string
	Collection      *Collection
	Filter          FilterNode
	Selections      []string
	OrderAttributes []string
	OrderTypes      []IndexOrder
	Limit           int
	Children        []*PopulateNode

	// Authorized is computed by the caller (a higher authorization
	// layer) before the tree reaches the engine; false nodes are
	// pruned silently.
	Authorized bool
}

// JoinPlan is one compiled LEFT JOIN (or EXISTS-based manyToMany
// join) produced by ResolveRelationships.
type JoinPlan struct {
	Alias       string
	ParentAlias string
	SQL         string
	Params      []interface{}
	Node        *PopulateNode
	Depth       int
}

// relationshipGraph walks a populate tree and compiles one JoinPlan
// per visited node.
type relationshipGraph struct {
	style        QuoteStyle
	dialect      DialectKind
	namespace    string
	sharedTables bool
	maxDepth     int
	roles        RoleSet
	tenantID     *int64
}

// ResolveRelationships computes the JOIN shape for every node of tree,
// rooted at root (whose own alias is always "main"), bounded by
// cfg.RelationMaxDepth.
func ResolveRelationships(cfg *EngineConfig, style QuoteStyle, dialect DialectKind, root *Collection, tree []*PopulateNode, roles RoleSet, tenantID *int64) ([]JoinPlan, error) {
	g := &relationshipGraph{
		style:        style,
		dialect:      dialect,
		namespace:    cfg.MetadataNamespace,
		sharedTables: cfg.SharedTables,
		maxDepth:     cfg.RelationMaxDepth,
		roles:        roles,
		tenantID:     tenantID,
	}
	var plans []JoinPlan
	if err := g.walk(root, "main", tree, 0, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (g *relationshipGraph) walk(parentColl *Collection, parentAlias string, nodes []*PopulateNode, depth int, out *[]JoinPlan) error {
	if depth >= g.maxDepth {
		if len(nodes) > 0 {
			return ErrRelationTooDeep
		}
		return nil
	}
	for i, node := range nodes {
		if !node.Authorized {
			continue
		}
		attr, ok := parentColl.AttributeByKey(node.Attribute)
		if !ok || attr.Type != AttrRelationship || attr.Options == nil {
			return NewEngineError(KindQuery, node.Attribute, "not a relationship attribute")
		}
		alias := fmt.Sprintf("rel_%d_%d", depth, i)
		sql, params, err := g.joinSQL(parentColl, parentAlias, attr, alias, node.Collection)
		if err != nil {
			return err
		}
		*out = append(*out, JoinPlan{
			Alias:       alias,
			ParentAlias: parentAlias,
			SQL:         sql,
			Params:      params,
			Node:        node,
			Depth:       depth,
		})
		if err := g.walk(node.Collection, alias, node.Children, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

func (g *relationshipGraph) joinSQL(parentColl *Collection, parentAlias string, attr *Attribute, targetAlias string, target *Collection) (string, []interface{}, error) {
	opts := attr.Options
	targetTable := QualifiedTable(g.style, g.namespace, TableName(g.namespace, target.ID))

	var on string
	switch opts.RelationType {
	case OneToOne, ManyToOne:
		if opts.Side == SideParent {
			on = fmt.Sprintf("%s.%s = %s.%s", parentAlias, Quote(g.style, attr.Key), targetAlias, Quote(g.style, "_uid"))
		} else {
			on = fmt.Sprintf("%s.%s = %s.%s", targetAlias, Quote(g.style, opts.TwoWayKey), parentAlias, Quote(g.style, "_uid"))
		}
	case OneToMany:
		if opts.Side == SideParent {
			on = fmt.Sprintf("%s.%s = %s.%s", parentAlias, Quote(g.style, "_uid"), targetAlias, Quote(g.style, opts.TwoWayKey))
		} else {
			on = fmt.Sprintf("%s.%s = %s.%s", targetAlias, Quote(g.style, "_uid"), parentAlias, Quote(g.style, attr.Key))
		}
	case ManyToMany:
		return g.manyToManyJoin(parentAlias, attr, targetAlias, target)
	default:
		return "", nil, NewEngineError(KindStructure, attr.Key, "unknown relation type")
	}

	var params []interface{}
	clauses := []string{on}

	if target.DocumentSecurity {
		permsTable := PermsTableName(g.namespace, target.ID)
		existsSQL, existsParams := PermissionExistsClause(g.style, permsTable, targetAlias, PermRead, g.roles)
		clauses = append(clauses, existsSQL)
		params = append(params, existsParams...)
	}

	if g.sharedTables {
		tenantCol := fmt.Sprintf("%s.%s", targetAlias, Quote(g.style, "_tenant"))
		clauses = append(clauses, fmt.Sprintf("(%s = ? OR %s IS NULL)", tenantCol, tenantCol))
		var tenantVal interface{}
		if g.tenantID != nil {
			tenantVal = *g.tenantID
		}
		params = append(params, tenantVal)
	}

	joinCond := clauses[0]
	for _, c := range clauses[1:] {
		joinCond += " AND " + c
	}

	return fmt.Sprintf("LEFT JOIN %s %s ON %s", targetTable, targetAlias, joinCond), params, nil
}

func (g *relationshipGraph) manyToManyJoin(parentAlias string, attr *Attribute, targetAlias string, target *Collection) (string, []interface{}, error) {
	opts := attr.Options
	if opts.JunctionTable == "" {
		return "", nil, NewEngineError(KindStructure, attr.Key, "many-to-many relationship missing junction table")
	}
	junctionTable := QualifiedTable(g.style, g.namespace, opts.JunctionTable)
	targetTable := QualifiedTable(g.style, g.namespace, TableName(g.namespace, target.ID))
	jtAlias := targetAlias + "_jt"

	existsClauses := []string{
		fmt.Sprintf("%s.%s = %s.%s", jtAlias, Quote(g.style, opts.ParentKeyColumn(attr.Key)), parentAlias, Quote(g.style, "_uid")),
		fmt.Sprintf("%s.%s = %s.%s", jtAlias, Quote(g.style, opts.ChildKeyColumn()), targetAlias, Quote(g.style, "_uid")),
	}
	var params []interface{}
	if g.sharedTables {
		existsClauses = append(existsClauses, fmt.Sprintf("%s.%s = ?", jtAlias, Quote(g.style, "_tenant")))
		var tenantVal interface{}
		if g.tenantID != nil {
			tenantVal = *g.tenantID
		}
		params = append(params, tenantVal)
	}

	joinCond := fmt.Sprintf(
		"EXISTS (SELECT 1 FROM %s %s WHERE %s)",
		junctionTable, jtAlias, joinAnd(existsClauses),
	)

	if target.DocumentSecurity {
		permsTable := PermsTableName(g.namespace, target.ID)
		existsSQL, existsParams := PermissionExistsClause(g.style, permsTable, targetAlias, PermRead, g.roles)
		joinCond += " AND " + existsSQL
		params = append(params, existsParams...)
	}

	return fmt.Sprintf("LEFT JOIN %s %s ON %s", targetTable, targetAlias, joinCond), params, nil
}

func joinAnd(clauses []string) string {
	out := clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out
}
