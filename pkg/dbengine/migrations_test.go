package dbengine

import (
	"context"
	"strings"
	"testing"
)

// fakeDriver is an in-memory SQLDriver double used to exercise the
// Migrator without a live database.
type fakeDriver struct {
	execs   []string
	version int64
}

func (f *fakeDriver) Query(ctx context.Context, sql string, params ...interface{}) (*QueryResult, error) {
	if strings.Contains(sql, "_schema_migrations") {
		return &QueryResult{Rows: []map[string]interface{}{{"version": f.version}}}, nil
	}
	return &QueryResult{}, nil
}

func (f *fakeDriver) Exec(ctx context.Context, sql string, params ...interface{}) (*QueryResult, error) {
	f.execs = append(f.execs, sql)
	if strings.HasPrefix(sql, "INSERT INTO _schema_migrations") {
		f.version = int64(params[0].(int))
	}
	return &QueryResult{}, nil
}

func (f *fakeDriver) Transaction(ctx context.Context, body func(ctx context.Context, tx TxClient) error) error {
	return body(ctx, f)
}

func (f *fakeDriver) Quote(literal string) string { return "'" + literal + "'" }

func (f *fakeDriver) Ping(ctx context.Context) error { return nil }

func TestMigratorInitAppliesMetadataBootstrap(t *testing.T) {
	driver := &fakeDriver{}
	ss := newSchemaStore()
	m := NewMigrator(driver, ss, nil)

	if err := m.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	var sawMainTable, sawPermsTable, sawRecord bool
	for _, sql := range driver.execs {
		if strings.Contains(sql, "CREATE TABLE") && strings.Contains(sql, "_metadata") {
			sawMainTable = true
		}
		if strings.Contains(sql, "_metadata_perms") {
			sawPermsTable = true
		}
		if strings.HasPrefix(sql, "INSERT INTO _schema_migrations") {
			sawRecord = true
		}
	}
	if !sawMainTable || !sawPermsTable || !sawRecord {
		t.Fatalf("expected main table, perms table, and migration record; got %v", driver.execs)
	}
}

func TestMigratorInitSkipsAlreadyAppliedVersions(t *testing.T) {
	driver := &fakeDriver{version: 1}
	ss := newSchemaStore()
	m := NewMigrator(driver, ss, nil)

	if err := m.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(driver.execs) != 1 {
		t.Fatalf("expected only the bookkeeping table creation, got %v", driver.execs)
	}
}

func TestMigratorResetDropsMetadataAndBookkeeping(t *testing.T) {
	driver := &fakeDriver{}
	ss := newSchemaStore()
	m := NewMigrator(driver, ss, nil)

	if err := m.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	var sawDropMetadata, sawDropBookkeeping bool
	for _, sql := range driver.execs {
		if strings.HasPrefix(sql, "DROP TABLE") && strings.Contains(sql, "_metadata") {
			sawDropMetadata = true
		}
		if strings.Contains(sql, "DROP TABLE IF EXISTS _schema_migrations") {
			sawDropBookkeeping = true
		}
	}
	if !sawDropMetadata || !sawDropBookkeeping {
		t.Fatalf("expected metadata + bookkeeping drops, got %v", driver.execs)
	}
}
