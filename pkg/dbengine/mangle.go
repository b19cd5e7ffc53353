package dbengine

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// QuoteStyle selects the identifier-quoting character for a dialect.
type QuoteStyle int

const (
	QuoteDouble  QuoteStyle = iota // Postgres: "identifier"
	QuoteBacktick                 // MySQL/MariaDB: `identifier`
)

// Sanitize keeps only [A-Za-z0-9_-] from name. An all-invalid input
// sanitizes to the empty string, which callers must reject.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Quote wraps name with the dialect's identifier quote character,
// doubling any embedded quote character per standard SQL escaping.
func Quote(style QuoteStyle, name string) string {
	q := `"`
	if style == QuoteBacktick {
		q = "`"
	}
	escaped := strings.ReplaceAll(name, q, q+q)
	return q + escaped + q
}

// TableName returns the physical main-table name for a collection:
// {namespace}_{collectionId}.
func TableName(namespace, collectionID string) string {
	return fmt.Sprintf("%s_%s", Sanitize(namespace), Sanitize(collectionID))
}

// PermsTableName returns the physical perms side-table name for a
// collection: {namespace}_{collectionId}_perms.
func PermsTableName(namespace, collectionID string) string {
	return TableName(namespace, collectionID) + "_perms"
}

// JunctionTableName returns the physical junction table name for a
// many-to-many relationship: _{parentSeq}_{childSeq}_{attr}_{twoWayKey}.
func JunctionTableName(parentSeq, childSeq, attr, twoWayKey string) string {
	return fmt.Sprintf("_%s_%s_%s_%s", Sanitize(parentSeq), Sanitize(childSeq), Sanitize(attr), Sanitize(twoWayKey))
}

// QualifiedTable returns schema.table, both components quoted per
// style, for use in FROM/JOIN/DDL clauses.
func QualifiedTable(style QuoteStyle, schema, table string) string {
	return Quote(style, schema) + "." + Quote(style, table)
}

// IndexFingerprint computes the deterministic, length-bounded
// physical index name sha1({schema}_{namespace}_{table}_{name})[0..40].
func IndexFingerprint(schema, namespace, table, name string) string {
	raw := fmt.Sprintf("%s_%s_%s_%s", schema, namespace, table, name)
	sum := sha1.Sum([]byte(raw))
	hexSum := hex.EncodeToString(sum[:])
	if len(hexSum) > 40 {
		hexSum = hexSum[:40]
	}
	return hexSum
}
