package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artha-au/dbengine/pkg/dbengine"
)

// Client implements dbengine.SQLDriver over *sql.DB, the concrete
// collaborator a host wires into the engine's query/mutation
// execution path. Compiled statements always use literal `?`
// placeholders; Client is the one place that rewrites
// them into Postgres's `$1`-style positional syntax before the
// driver ever sees the text.
type Client struct {
	db      *sql.DB
	adapter *Adapter
}

// NewClient wires a *sql.DB and its matching Adapter into a
// dbengine.SQLDriver.
func NewClient(db *sql.DB, adapter *Adapter) *Client {
	return &Client{db: db, adapter: adapter}
}

var _ dbengine.SQLDriver = (*Client)(nil)

// rewritePlaceholders converts literal `?` markers into `$1`, `$2`,
// ... in left-to-right order, matching the binding order the planners
// already guarantee.
func rewritePlaceholders(sql string) string {
	var b strings.Builder
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func rowsToResult(rows *sql.Rows) (*dbengine.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &dbengine.QueryResult{Rows: out, RowCount: int64(len(out))}, nil
}

func (c *Client) Query(ctx context.Context, sqlText string, params ...interface{}) (*dbengine.QueryResult, error) {
	rows, err := c.db.QueryContext(ctx, rewritePlaceholders(sqlText), params...)
	if err != nil {
		return nil, c.adapter.MapError(err)
	}
	defer rows.Close()
	result, err := rowsToResult(rows)
	if err != nil {
		return nil, c.adapter.MapError(err)
	}
	for _, row := range result.Rows {
		c.adapter.NormalizeRow(row)
	}
	return result, nil
}

func (c *Client) Exec(ctx context.Context, sqlText string, params ...interface{}) (*dbengine.QueryResult, error) {
	pg := rewritePlaceholders(sqlText)
	if strings.Contains(strings.ToUpper(pg), "RETURNING") {
		rows, err := c.db.QueryContext(ctx, pg, params...)
		if err != nil {
			return nil, c.adapter.MapError(err)
		}
		defer rows.Close()
		return rowsToResult(rows)
	}
	res, err := c.db.ExecContext(ctx, pg, params...)
	if err != nil {
		return nil, c.adapter.MapError(err)
	}
	affected, _ := res.RowsAffected()
	return &dbengine.QueryResult{RowCount: affected}, nil
}

// txClient is the TxClient view of an in-flight *sql.Tx.
type txClient struct {
	tx      *sql.Tx
	adapter *Adapter
}

func (t *txClient) Query(ctx context.Context, sqlText string, params ...interface{}) (*dbengine.QueryResult, error) {
	rows, err := t.tx.QueryContext(ctx, rewritePlaceholders(sqlText), params...)
	if err != nil {
		return nil, t.adapter.MapError(err)
	}
	defer rows.Close()
	result, err := rowsToResult(rows)
	if err != nil {
		return nil, t.adapter.MapError(err)
	}
	for _, row := range result.Rows {
		t.adapter.NormalizeRow(row)
	}
	return result, nil
}

func (t *txClient) Exec(ctx context.Context, sqlText string, params ...interface{}) (*dbengine.QueryResult, error) {
	pg := rewritePlaceholders(sqlText)
	if strings.Contains(strings.ToUpper(pg), "RETURNING") {
		rows, err := t.tx.QueryContext(ctx, pg, params...)
		if err != nil {
			return nil, t.adapter.MapError(err)
		}
		defer rows.Close()
		return rowsToResult(rows)
	}
	res, err := t.tx.ExecContext(ctx, pg, params...)
	if err != nil {
		return nil, t.adapter.MapError(err)
	}
	affected, _ := res.RowsAffected()
	return &dbengine.QueryResult{RowCount: affected}, nil
}

// Transaction runs body against a client sharing one transaction,
// retrying up to 3 times on rollback failure with a 5ms backoff.
func (c *Client) Transaction(ctx context.Context, body func(ctx context.Context, tx dbengine.TxClient) error) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return c.adapter.MapError(err)
		}
		if err := body(ctx, &txClient{tx: tx, adapter: c.adapter}); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				lastErr = rbErr
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return c.adapter.MapError(err)
		}
		return nil
	}
	return fmt.Errorf("transaction rollback failed after 3 attempts: %w", lastErr)
}

// Quote renders literal as a single-quoted SQL string, doubling any
// embedded quote, for the narrow ARRAY[...] construction case
// described in dbengine.SQLDriver.
func (c *Client) Quote(literal string) string {
	return "'" + strings.ReplaceAll(literal, "'", "''") + "'"
}

func (c *Client) Ping(ctx context.Context) error { return c.adapter.Ping(ctx) }
