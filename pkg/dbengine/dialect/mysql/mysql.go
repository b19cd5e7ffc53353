// Package mysql is the MariaDB/MySQL dialect adapter: connection
// setup, identifier quoting, row normalization, and driver error
// classification for the go-sql-driver/mysql backend.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/artha-au/dbengine/pkg/dbengine"
	"github.com/artha-au/dbengine/pkg/dbengine/dialect"
)

// Adapter implements dialect.Dialect over *sql.DB using
// go-sql-driver/mysql.
type Adapter struct {
	db       *sql.DB
	database string
}

// Open connects to MySQL/MariaDB and returns a ready Adapter.
func Open(opts dialect.ConnectOptions, database string) (*Adapter, error) {
	cfg, err := mysqldriver.ParseDSN(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql dsn: %w", err)
	}
	if database == "" {
		database = cfg.DBName
	}
	db, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	return &Adapter{db: db, database: database}, nil
}

// NewAdapter wraps an already-open *sql.DB.
func NewAdapter(db *sql.DB, database string) *Adapter {
	return &Adapter{db: db, database: database}
}

func (a *Adapter) Sanitize(name string) string {
	return dbengine.Sanitize(name)
}

func (a *Adapter) Quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return a.MapError(err)
	}
	return nil
}

func (a *Adapter) Exists(ctx context.Context, schema, table string) (bool, error) {
	if schema == "" {
		schema = a.database
	}
	var count int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
		schema, table).Scan(&count)
	if err != nil {
		return false, a.MapError(err)
	}
	return count > 0, nil
}

// NormalizeRow rewrites reserved columns to their `$`-prefixed keys
// and decodes the JSON-encoded `_permissions` column (MySQL has no
// native array type) back into a []string.
func (a *Adapter) NormalizeRow(row map[string]interface{}) map[string]interface{} {
	if raw, ok := row["_permissions"]; ok {
		switch v := raw.(type) {
		case []byte:
			var perms []string
			if err := json.Unmarshal(v, &perms); err == nil {
				row["_permissions"] = perms
			}
		case string:
			var perms []string
			if err := json.Unmarshal([]byte(v), &perms); err == nil {
				row["_permissions"] = perms
			}
		}
	}
	return dialect.RewriteReservedKeys(row)
}

// MapError translates a *mysqldriver.MySQLError into the engine's
// taxonomy using its numeric error codes.
func (a *Adapter) MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return dbengine.ErrDocumentNotFound
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062: // ER_DUP_ENTRY
			return dbengine.NewEngineError(dbengine.KindDuplicate, "", myErr.Message).WithCause(myErr)
		case 1406: // ER_DATA_TOO_LONG
			return dbengine.NewEngineError(dbengine.KindTruncate, "", myErr.Message).WithCause(myErr)
		case 1451, 1452: // row is referenced / no referenced row
			return dbengine.NewEngineError(dbengine.KindDependency, "", myErr.Message).WithCause(myErr)
		case 1213: // ER_LOCK_DEADLOCK
			return dbengine.NewEngineError(dbengine.KindTransaction, "", myErr.Message).WithCause(myErr)
		case 1205: // ER_LOCK_WAIT_TIMEOUT
			return dbengine.NewEngineError(dbengine.KindTimeout, "", myErr.Message).WithCause(myErr)
		}
		return dbengine.WrapDatabaseError(myErr)
	}
	return dbengine.WrapDatabaseError(err)
}
