// Package postgres is the PostgreSQL dialect adapter: connection
// setup, identifier quoting, row normalization, and driver error
// classification for the lib/pq backend.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/artha-au/dbengine/pkg/dbengine"
	"github.com/artha-au/dbengine/pkg/dbengine/dialect"
)

// Adapter implements dialect.Dialect over *sql.DB using lib/pq.
type Adapter struct {
	db     *sql.DB
	schema string
}

// Open connects to Postgres and returns a ready Adapter, mirroring
// rbac.NewSQLStore's "take an already-open *sql.DB" idiom but owning
// the open call itself since the dialect package is the one place
// the driver import is allowed to live.
func Open(opts dialect.ConnectOptions, schema string) (*Adapter, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if schema == "" {
		schema = "public"
	}
	return &Adapter{db: db, schema: schema}, nil
}

// NewAdapter wraps an already-open *sql.DB, for hosts that manage
// their own pool.
func NewAdapter(db *sql.DB, schema string) *Adapter {
	if schema == "" {
		schema = "public"
	}
	return &Adapter{db: db, schema: schema}
}

func (a *Adapter) Sanitize(name string) string {
	return dbengine.Sanitize(name)
}

func (a *Adapter) Quote(name string) string {
	return pq.QuoteIdentifier(name)
}

func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return a.MapError(err)
	}
	return nil
}

func (a *Adapter) Exists(ctx context.Context, schema, table string) (bool, error) {
	if schema == "" {
		schema = a.schema
	}
	var exists bool
	err := a.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		schema, table).Scan(&exists)
	if err != nil {
		return false, a.MapError(err)
	}
	return exists, nil
}

// NormalizeRow rewrites reserved columns to their `$`-prefixed keys
// and unwraps pq's array scan type for `_permissions TEXT[]` back
// into a plain []string.
func (a *Adapter) NormalizeRow(row map[string]interface{}) map[string]interface{} {
	for k, v := range row {
		if arr, ok := v.(*pq.StringArray); ok {
			row[k] = []string(*arr)
		}
	}
	return dialect.RewriteReservedKeys(row)
}

// MapError translates a *pq.Error into the engine's error taxonomy
// using the SQLSTATE class codes.
func (a *Adapter) MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return dbengine.ErrDocumentNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505": // unique_violation
			return dbengine.NewEngineError(dbengine.KindDuplicate, "", pqErr.Message).WithCause(pqErr)
		case pqErr.Code == "22001": // string_data_right_truncation
			return dbengine.NewEngineError(dbengine.KindTruncate, "", pqErr.Message).WithCause(pqErr)
		case pqErr.Code == "23503": // foreign_key_violation
			return dbengine.NewEngineError(dbengine.KindDependency, "", pqErr.Message).WithCause(pqErr)
		case pqErr.Code == "40001", pqErr.Code == "40P01": // serialization_failure, deadlock_detected
			return dbengine.NewEngineError(dbengine.KindTransaction, "", pqErr.Message).WithCause(pqErr)
		case strings.HasPrefix(string(pqErr.Code), "57"): // operator_intervention (statement_timeout etc)
			return dbengine.NewEngineError(dbengine.KindTimeout, "", pqErr.Message).WithCause(pqErr)
		}
	}
	return dbengine.WrapDatabaseError(err)
}
