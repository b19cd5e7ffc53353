// Package dialect defines the boundary between the engine's SQL
// compilation core (pkg/dbengine) and the two concrete database
// backends it targets.
package dialect

import (
	"context"
	"time"
)

// Dialect is the narrow interface a concrete backend adapter
// (postgres, mysql) implements. The compilation core never imports a
// driver package directly; it only ever talks to this interface,
// mirroring the SQLDriver/TxClient boundary in
// pkg/dbengine/collaborators.go.
type Dialect interface {
	// Sanitize strips a logical identifier down to characters safe
	// to embed directly in DDL/DML text.
	Sanitize(name string) string

	// Quote wraps an already-sanitized identifier in the backend's
	// quoting style (double quotes for Postgres, backticks for MySQL).
	Quote(name string) string

	// Ping verifies connectivity, raising a database-kind engine error
	// on failure.
	Ping(ctx context.Context) error

	// Exists reports whether a physical table is present in the
	// target schema/database.
	Exists(ctx context.Context, schema, table string) (bool, error)

	// NormalizeRow rewrites a raw driver row into the engine's
	// reserved-key projection (`_uid` -> `$id`, `_id` -> `$sequence`,
	// etc), including any backend-specific value
	// coercion (array scan results, JSON blobs).
	NormalizeRow(row map[string]interface{}) map[string]interface{}

	// MapError translates a raw driver error into the engine's
	// taxonomy (duplicate key, truncation, timeout, ...).
	MapError(err error) error
}

// ConnectOptions configures a Dialect's underlying connection pool.
// Pool lifecycle itself is the host's responsibility; this only carries the parameters a Dialect constructor
// needs to open one.
type ConnectOptions struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConnectOptions returns ConnectOptions for dsn with default
// pool sizes and connection lifetime.
func DefaultConnectOptions(dsn string) ConnectOptions {
	return ConnectOptions{
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// reservedProjection maps physical reserved columns to the document
// model's `$`-prefixed keys. Shared by both concrete dialects so the
// rewrite stays identical across backends.
var reservedProjection = map[string]string{
	"_uid":         "$id",
	"_id":          "$sequence",
	"_collection":  "$collection",
	"_tenant":      "$tenant",
	"_createdAt":   "$createdAt",
	"_updatedAt":   "$updatedAt",
	"_permissions": "$permissions",
}

// RewriteReservedKeys applies the shared `_col` -> `$key` projection
// rewrite, leaving non-reserved (user-declared attribute) columns
// untouched. Exported so both dialect packages apply identical
// renaming without duplicating the map.
func RewriteReservedKeys(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		if mapped, ok := reservedProjection[k]; ok {
			out[mapped] = v
			continue
		}
		out[k] = v
	}
	return out
}
