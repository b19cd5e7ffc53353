package dbengine

import "context"

// QueryResult is the shape the SQL driver collaborator returns for a
// query call.
type QueryResult struct {
	Rows     []map[string]interface{}
	RowCount int64
}

// TxClient is the query contract a transaction body receives.
type TxClient interface {
	Query(ctx context.Context, sql string, params ...interface{}) (*QueryResult, error)
	Exec(ctx context.Context, sql string, params ...interface{}) (*QueryResult, error)
}

// SQLDriver is the boundary collaborator: connection pooling,
// transaction plumbing, and raw wire I/O are its
// responsibility, not the engine's. The engine only ever compiles SQL
// text and parameter lists and hands them to this interface.
type SQLDriver interface {
	TxClient

	// Transaction runs body against a client sharing one transaction.
	// Implementations retry up to 3 times on rollback failure with a
	// 5ms backoff.
	Transaction(ctx context.Context, body func(ctx context.Context, tx TxClient) error) error

	// Quote renders a literal for the narrow cases where it must
	// appear inside ARRAY[...] construction (roles) rather than as a
	// bound parameter.
	Quote(literal string) string

	// Ping raises a DatabaseException-shaped error on failure.
	Ping(ctx context.Context) error
}

// RoleProvider supplies the caller's active role set. The engine never
// interprets roles beyond checking membership and inlines them into
// compiled SQL via positional binding, never string interpolation
// (aside from Quote, for the ARRAY[...] literal case).
type RoleProvider interface {
	Roles(ctx context.Context) (roles []string, enabled bool)
}

// Cache is the optional invalidation-announcement boundary. The core
// engine never reads from it; it only announces writes.
type Cache interface {
	InvalidateDocument(collection, documentID string)
	InvalidateCollection(collection string)
}

// NoopCache is a Cache that discards every invalidation, used when a
// host does not wire a real cache.
type NoopCache struct{}

func (NoopCache) InvalidateDocument(string, string) {}
func (NoopCache) InvalidateCollection(string)       {}
