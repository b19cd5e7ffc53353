package dbengine

import (
	"fmt"
	"strings"
)

// SchemaStore compiles the transactional DDL for collection, attribute,
// index, and relationship lifecycle operations.
type SchemaStore struct {
	Config *EngineConfig
	Style  QuoteStyle
	Dialect DialectKind
	Schema  string // feeds only the index-name fingerprint; DDL table names are qualified by Config.MetadataNamespace, not by Schema
}

func (ss *SchemaStore) table(collectionID string) string {
	return QualifiedTable(ss.Style, ss.Config.MetadataNamespace, TableName(ss.Config.MetadataNamespace, collectionID))
}

func (ss *SchemaStore) permsTable(collectionID string) string {
	return QualifiedTable(ss.Style, ss.Config.MetadataNamespace, PermsTableName(ss.Config.MetadataNamespace, collectionID))
}

func (ss *SchemaStore) indexName(tableName, indexID string) string {
	return "idx_" + IndexFingerprint(ss.Schema, ss.Config.MetadataNamespace, tableName, indexID)
}

// CreateCollection emits the transactional DDL sequence: main table,
// perms side-table with its cascading FK, then every declared index
// plus the GIN/array index on _permissions.
func (ss *SchemaStore) CreateCollection(c *Collection) ([]CompiledStatement, error) {
	if len(c.Attributes) > ss.Config.MaxAttributesPerCollection {
		return nil, NewEngineError(KindLimit, c.ID, "collection exceeds max attributes per collection")
	}
	if len(c.Indexes) > ss.Config.MaxIndexesPerCollection {
		return nil, NewEngineError(KindLimit, c.ID, "collection exceeds max indexes per collection")
	}
	if width := EstimatedRowWidth(c, ss.Config.SharedTables); width > ss.Config.MaxRowWidthBytes {
		return nil, NewEngineError(KindLimit, c.ID, "collection's estimated row width exceeds the configured limit")
	}

	var stmts []CompiledStatement

	mainTable := TableName(ss.Config.MetadataNamespace, c.ID)
	stmts = append(stmts, ss.createMainTableStatement(c, mainTable))
	stmts = append(stmts, ss.createPermsTableStatement(c, mainTable))

	for _, idx := range c.Indexes {
		stmt, err := ss.createIndexStatement(mainTable, c.ID, idx)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	stmts = append(stmts, ss.createPermsGinIndexStatement(mainTable, c.ID))

	return stmts, nil
}

func (ss *SchemaStore) createMainTableStatement(c *Collection, mainTable string) CompiledStatement {
	var cols []string
	switch ss.Dialect {
	case DialectMySQL:
		cols = append(cols, Quote(ss.Style, "_id")+" BIGINT AUTO_INCREMENT PRIMARY KEY")
	default:
		cols = append(cols, Quote(ss.Style, "_id")+" BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY")
	}
	cols = append(cols,
		Quote(ss.Style, "_uid")+" VARCHAR(255) NOT NULL",
		Quote(ss.Style, "_createdAt")+" "+timestampType(ss.Dialect),
		Quote(ss.Style, "_updatedAt")+" "+timestampType(ss.Dialect),
		Quote(ss.Style, "_permissions")+" "+permissionsColumnType(ss.Dialect),
	)
	if ss.Config.SharedTables {
		cols = append(cols, Quote(ss.Style, "_tenant")+" BIGINT")
	}

	for _, a := range physicalColumns(c) {
		colType, err := MapType(ss.Dialect, a)
		if err != nil || colType == "" {
			continue
		}
		col := Quote(ss.Style, a.Key) + " " + colType
		if a.Required {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}

	if ss.Config.SharedTables {
		cols = append(cols, fmt.Sprintf("UNIQUE (%s, %s)", Quote(ss.Style, "_tenant"), Quote(ss.Style, "_uid")))
	} else {
		cols = append(cols, fmt.Sprintf("UNIQUE (%s)", Quote(ss.Style, "_uid")))
	}

	sql := fmt.Sprintf("CREATE TABLE %s (%s)", QualifiedTable(ss.Style, ss.Config.MetadataNamespace, mainTable), strings.Join(cols, ", "))
	return CompiledStatement{SQL: sql}
}

func (ss *SchemaStore) createPermsTableStatement(c *Collection, mainTable string) CompiledStatement {
	cols := []string{
		Quote(ss.Style, "_id") + " " + autoIncrementType(ss.Dialect) + " PRIMARY KEY",
		Quote(ss.Style, "_type") + " VARCHAR(12) NOT NULL",
		Quote(ss.Style, "_permissions") + " " + permissionsColumnType(ss.Dialect),
		fmt.Sprintf("%s BIGINT NOT NULL REFERENCES %s(%s) ON DELETE CASCADE",
			Quote(ss.Style, "_document"), QualifiedTable(ss.Style, ss.Config.MetadataNamespace, mainTable), Quote(ss.Style, "_id")),
	}
	uniqueCols := []string{Quote(ss.Style, "_document")}
	if ss.Config.SharedTables {
		cols = append(cols, Quote(ss.Style, "_tenant")+" BIGINT")
		uniqueCols = append(uniqueCols, Quote(ss.Style, "_tenant"))
	}
	uniqueCols = append(uniqueCols, Quote(ss.Style, "_type"))
	cols = append(cols, fmt.Sprintf("UNIQUE (%s)", strings.Join(uniqueCols, ", ")))

	table := PermsTableName(ss.Config.MetadataNamespace, c.ID)
	sql := fmt.Sprintf("CREATE TABLE %s (%s)", QualifiedTable(ss.Style, ss.Config.MetadataNamespace, table), strings.Join(cols, ", "))
	return CompiledStatement{SQL: sql}
}

func (ss *SchemaStore) createPermsGinIndexStatement(mainTable, collectionID string) CompiledStatement {
	permsTable := PermsTableName(ss.Config.MetadataNamespace, collectionID)
	name := ss.indexName(permsTable, "_permissions_gin")
	if ss.Dialect == DialectPostgres {
		sql := fmt.Sprintf("CREATE INDEX %s ON %s USING GIN (%s)",
			Quote(ss.Style, name), QualifiedTable(ss.Style, ss.Config.MetadataNamespace, permsTable), Quote(ss.Style, "_permissions"))
		return CompiledStatement{SQL: sql}
	}
	sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		Quote(ss.Style, name), QualifiedTable(ss.Style, ss.Config.MetadataNamespace, permsTable), Quote(ss.Style, "_permissions"))
	return CompiledStatement{SQL: sql}
}

// createIndexStatement emits CREATE INDEX (or CREATE UNIQUE INDEX, or
// a fullText-specific form) for one declared index, using the
// deterministic mangled name from indexName. fullText indexes use GIN
// over to_tsvector on Postgres and FULLTEXT on MySQL; in shared-table
// mode every non-fulltext index is prefixed by the tenant column.
// Indexes over array attributes get the same plain form as scalar
// ones: no GIN is chosen for them.
func (ss *SchemaStore) createIndexStatement(mainTable, collectionID string, idx Index) (CompiledStatement, error) {
	if len(idx.Attributes) == 0 {
		return CompiledStatement{}, NewEngineError(KindStructure, idx.ID, "index must reference at least one attribute")
	}
	name := ss.indexName(mainTable, idx.ID)
	table := QualifiedTable(ss.Style, ss.Config.MetadataNamespace, mainTable)

	attrCols := make([]string, len(idx.Attributes))
	for i, a := range idx.Attributes {
		order := "ASC"
		if i < len(idx.Orders) {
			order = string(idx.Orders[i])
		}
		attrCols[i] = fmt.Sprintf("%s %s", Quote(ss.Style, a), order)
	}
	if ss.Config.SharedTables && idx.Type != IndexFullText {
		attrCols = append([]string{Quote(ss.Style, "_tenant") + " ASC"}, attrCols...)
	}

	switch idx.Type {
	case IndexFullText:
		if ss.Dialect == DialectMySQL {
			sql := fmt.Sprintf("CREATE FULLTEXT INDEX %s ON %s (%s)", Quote(ss.Style, name), table, quoteIdentList(ss.Style, idx.Attributes))
			return CompiledStatement{SQL: sql}, nil
		}
		tsCols := make([]string, len(idx.Attributes))
		for i, a := range idx.Attributes {
			tsCols[i] = fmt.Sprintf("to_tsvector(%s, %s)", quoteLiteral(ss.Config.DefaultSearchLanguage), Quote(ss.Style, a))
		}
		sql := fmt.Sprintf("CREATE INDEX %s ON %s USING GIN (%s)", Quote(ss.Style, name), table, strings.Join(tsCols, " || "))
		return CompiledStatement{SQL: sql}, nil

	case IndexUnique:
		sql := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", Quote(ss.Style, name), table, strings.Join(attrCols, ", "))
		return CompiledStatement{SQL: sql}, nil

	default:
		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", Quote(ss.Style, name), table, strings.Join(attrCols, ", "))
		return CompiledStatement{SQL: sql}, nil
	}
}

// DeleteIndex drops a declared index by its mangled name.
func (ss *SchemaStore) DeleteIndex(collectionID string, idx Index) CompiledStatement {
	mainTable := TableName(ss.Config.MetadataNamespace, collectionID)
	name := ss.indexName(mainTable, idx.ID)
	return CompiledStatement{SQL: fmt.Sprintf("DROP INDEX %s", Quote(ss.Style, name))}
}

// RenameIndex renames a declared index's physical name to match its
// new logical id.
func (ss *SchemaStore) RenameIndex(collectionID string, oldID, newID string) CompiledStatement {
	mainTable := TableName(ss.Config.MetadataNamespace, collectionID)
	oldName := ss.indexName(mainTable, oldID)
	newName := ss.indexName(mainTable, newID)
	if ss.Dialect == DialectMySQL {
		return CompiledStatement{SQL: fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s",
			QualifiedTable(ss.Style, ss.Config.MetadataNamespace, mainTable), Quote(ss.Style, oldName), Quote(ss.Style, newName))}
	}
	return CompiledStatement{SQL: fmt.Sprintf("ALTER INDEX %s RENAME TO %s", Quote(ss.Style, oldName), Quote(ss.Style, newName))}
}

// CreateAttribute emits a single ALTER TABLE ADD COLUMN.
func (ss *SchemaStore) CreateAttribute(collectionID string, a Attribute) (CompiledStatement, error) {
	colType, err := MapType(ss.Dialect, a)
	if err != nil {
		return CompiledStatement{}, err
	}
	if colType == "" {
		return CompiledStatement{}, NewEngineError(KindStructure, a.Key, "virtual attributes do not materialize a column")
	}
	col := Quote(ss.Style, a.Key) + " " + colType
	if a.Required {
		col += " NOT NULL"
	}
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", ss.table(collectionID), col)
	return CompiledStatement{SQL: sql}, nil
}

// CreateAttributes emits a single ALTER TABLE with multiple ADD
// COLUMN clauses.
func (ss *SchemaStore) CreateAttributes(collectionID string, attrs []Attribute) (CompiledStatement, error) {
	var clauses []string
	for _, a := range attrs {
		colType, err := MapType(ss.Dialect, a)
		if err != nil {
			return CompiledStatement{}, err
		}
		if colType == "" {
			continue
		}
		col := Quote(ss.Style, a.Key) + " " + colType
		if a.Required {
			col += " NOT NULL"
		}
		clauses = append(clauses, "ADD COLUMN "+col)
	}
	if len(clauses) == 0 {
		return CompiledStatement{}, NewEngineError(KindStructure, collectionID, "no non-virtual attributes to add")
	}
	sql := fmt.Sprintf("ALTER TABLE %s %s", ss.table(collectionID), strings.Join(clauses, ", "))
	return CompiledStatement{SQL: sql}, nil
}

// RenameAttribute emits ALTER TABLE ... RENAME COLUMN.
func (ss *SchemaStore) RenameAttribute(collectionID, oldKey, newKey string) CompiledStatement {
	sql := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", ss.table(collectionID), Quote(ss.Style, oldKey), Quote(ss.Style, newKey))
	return CompiledStatement{SQL: sql}
}

// DeleteAttribute emits ALTER TABLE ... DROP COLUMN.
func (ss *SchemaStore) DeleteAttribute(collectionID, key string) CompiledStatement {
	sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", ss.table(collectionID), Quote(ss.Style, key))
	return CompiledStatement{SQL: sql}
}

// UpdateAttribute emits ALTER TABLE ... ALTER COLUMN TYPE/SET NOT
// NULL, depending on what changed between old and updated.
func (ss *SchemaStore) UpdateAttribute(collectionID string, old, updated Attribute) (CompiledStatement, error) {
	var clauses []string
	if old.Type != updated.Type || old.Size != updated.Size || old.Array != updated.Array {
		colType, err := MapType(ss.Dialect, updated)
		if err != nil {
			return CompiledStatement{}, err
		}
		if ss.Dialect == DialectMySQL {
			clauses = append(clauses, fmt.Sprintf("MODIFY COLUMN %s %s", Quote(ss.Style, updated.Key), colType))
		} else {
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s TYPE %s", Quote(ss.Style, updated.Key), colType))
		}
	}
	if old.Required != updated.Required && ss.Dialect == DialectPostgres {
		verb := "DROP NOT NULL"
		if updated.Required {
			verb = "SET NOT NULL"
		}
		clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s %s", Quote(ss.Style, updated.Key), verb))
	}
	if len(clauses) == 0 {
		return CompiledStatement{}, NewEngineError(KindStructure, updated.Key, "no attribute change to apply")
	}
	sql := fmt.Sprintf("ALTER TABLE %s %s", ss.table(collectionID), strings.Join(clauses, ", "))
	return CompiledStatement{SQL: sql}, nil
}

// CreateRelationship emits only the DDL required by the owning
// side(s) of a relationshipowning-side rule.
func (ss *SchemaStore) CreateRelationship(parent, child *Collection, attrKey string, opts *RelationshipOptions) ([]CompiledStatement, error) {
	fkAttr := Attribute{Key: attrKey, Type: AttrRelationship}
	fkType, _ := MapType(ss.Dialect, fkAttr)

	var stmts []CompiledStatement
	switch opts.RelationType {
	case OneToOne:
		stmts = append(stmts, CompiledStatement{SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ss.table(parent.ID), Quote(ss.Style, attrKey), fkType)})
		if opts.TwoWay {
			stmts = append(stmts, CompiledStatement{SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ss.table(child.ID), Quote(ss.Style, opts.TwoWayKey), fkType)})
		}
	case ManyToOne:
		stmts = append(stmts, CompiledStatement{SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ss.table(parent.ID), Quote(ss.Style, attrKey), fkType)})
	case OneToMany:
		stmts = append(stmts, CompiledStatement{SQL: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ss.table(child.ID), Quote(ss.Style, attrKey), fkType)})
	case ManyToMany:
		stmts = append(stmts, ss.createJunctionTableStatement(parent, child, attrKey, opts))
	default:
		return nil, NewEngineError(KindStructure, attrKey, "unknown relation type")
	}
	return stmts, nil
}

func (ss *SchemaStore) createJunctionTableStatement(parent, child *Collection, attrKey string, opts *RelationshipOptions) CompiledStatement {
	parentCol := opts.ParentKeyColumn(attrKey)
	childCol := opts.ChildKeyColumn()
	cols := []string{
		fmt.Sprintf("%s VARCHAR(255) NOT NULL", Quote(ss.Style, parentCol)),
		fmt.Sprintf("%s VARCHAR(255) NOT NULL", Quote(ss.Style, childCol)),
	}
	pk := []string{Quote(ss.Style, parentCol), Quote(ss.Style, childCol)}
	if ss.Config.SharedTables {
		cols = append(cols, Quote(ss.Style, "_tenant")+" BIGINT")
		pk = append([]string{Quote(ss.Style, "_tenant")}, pk...)
	}
	cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))

	sql := fmt.Sprintf("CREATE TABLE %s (%s)", QualifiedTable(ss.Style, ss.Config.MetadataNamespace, opts.JunctionTable), strings.Join(cols, ", "))
	return CompiledStatement{SQL: sql}
}

// UpdateRelationship renames the owning column(s) of a relationship
// attribute.
func (ss *SchemaStore) UpdateRelationship(parent, child *Collection, oldKey, newKey string, opts *RelationshipOptions) ([]CompiledStatement, error) {
	var stmts []CompiledStatement
	switch opts.RelationType {
	case OneToOne, ManyToOne:
		stmts = append(stmts, ss.RenameAttribute(parent.ID, oldKey, newKey))
	case OneToMany:
		stmts = append(stmts, ss.RenameAttribute(child.ID, oldKey, newKey))
	case ManyToMany:
		return nil, NewEngineError(KindStructure, oldKey, "many-to-many relationships have no owning column to rename")
	default:
		return nil, NewEngineError(KindStructure, oldKey, "unknown relation type")
	}
	return stmts, nil
}

// DeleteRelationship drops the owning column(s), or the junction
// table for manyToMany.
func (ss *SchemaStore) DeleteRelationship(parent, child *Collection, attrKey string, opts *RelationshipOptions) []CompiledStatement {
	var stmts []CompiledStatement
	switch opts.RelationType {
	case OneToOne:
		stmts = append(stmts, ss.DeleteAttribute(parent.ID, attrKey))
		if opts.TwoWay {
			stmts = append(stmts, ss.DeleteAttribute(child.ID, opts.TwoWayKey))
		}
	case ManyToOne:
		stmts = append(stmts, ss.DeleteAttribute(parent.ID, attrKey))
	case OneToMany:
		stmts = append(stmts, ss.DeleteAttribute(child.ID, attrKey))
	case ManyToMany:
		sql := fmt.Sprintf("DROP TABLE %s", QualifiedTable(ss.Style, ss.Config.MetadataNamespace, opts.JunctionTable))
		stmts = append(stmts, CompiledStatement{SQL: sql})
	}
	return stmts
}

// DropCollection drops both physical tables, cascading.
func (ss *SchemaStore) DropCollection(collectionID string) []CompiledStatement {
	return []CompiledStatement{
		{SQL: fmt.Sprintf("DROP TABLE %s CASCADE", ss.permsTable(collectionID))},
		{SQL: fmt.Sprintf("DROP TABLE %s CASCADE", ss.table(collectionID))},
	}
}

func timestampType(dialect DialectKind) string {
	if dialect == DialectMySQL {
		return "DATETIME NOT NULL"
	}
	return "TIMESTAMP WITH TIME ZONE NOT NULL"
}

func permissionsColumnType(dialect DialectKind) string {
	if dialect == DialectMySQL {
		return "JSON"
	}
	return "TEXT[]"
}

func autoIncrementType(dialect DialectKind) string {
	if dialect == DialectMySQL {
		return "BIGINT AUTO_INCREMENT"
	}
	return "BIGINT GENERATED ALWAYS AS IDENTITY"
}
