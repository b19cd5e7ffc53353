package dbengine

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"os"
	"time"
)

// Migration is one versioned step of the engine's own bootstrap,
// carrying already-compiled statements rather than raw multi-statement
// SQL scripts, since SchemaStore emits one CompiledStatement per DDL
// operation.
type Migration struct {
	Version     int
	Name        string
	Description string
	Up          []CompiledStatement
	Down        []CompiledStatement
}

// metadataCollection describes the reserved `_metadata` collection
// that the engine uses to store collection,
// attribute, index, and relationship definitions as ordinary
// documents of its own model. It is bootstrapped the same way any
// other collection is: CreateCollection.
func metadataCollection() *Collection {
	return &Collection{
		ID:   "_metadata",
		Name: "_metadata",
		Attributes: []Attribute{
			{Key: "type", Type: AttrString, Size: 32, Required: true},
			{Key: "name", Type: AttrString, Size: 255, Required: true},
			{Key: "documentSecurity", Type: AttrBoolean},
			{Key: "definition", Type: AttrString, Size: 16384, Required: true},
		},
		Indexes: []Index{
			{ID: "type_name", Type: IndexUnique, Attributes: []string{"type", "name"}, Orders: []IndexOrder{OrderAsc, OrderAsc}},
		},
	}
}

// GetMigrations returns the engine's bootstrap migrations in order.
// Version 1 creates the `_metadata` catalog collection; later
// versions extend it without touching existing rows.
func GetMigrations(ss *SchemaStore) ([]Migration, error) {
	createMetadata, err := ss.CreateCollection(metadataCollection())
	if err != nil {
		return nil, fmt.Errorf("compiling _metadata bootstrap: %w", err)
	}
	dropMetadata := ss.DropCollection("_metadata")

	return []Migration{
		{
			Version:     1,
			Name:        "bootstrap_metadata_collection",
			Description: "create the reserved _metadata catalog collection",
			Up:          createMetadata,
			Down:        dropMetadata,
		},
	}, nil
}

// Migrator tracks and applies the engine's bootstrap migrations
// against an SQLDriver collaborator, recording applied versions in a
// _schema_migrations bookkeeping table, routed through the engine's
// own TxClient boundary rather than a direct *sql.DB.
type Migrator struct {
	driver SQLDriver
	schema *SchemaStore
	logger *log.Logger
}

// NewMigrator returns a Migrator. A nil logger defaults to a
// [DBEngine-Migrator]-prefixed stdlib logger.
func NewMigrator(driver SQLDriver, schema *SchemaStore, logger *log.Logger) *Migrator {
	if logger == nil {
		logger = log.New(os.Stderr, "[DBEngine-Migrator] ", log.LstdFlags)
	}
	return &Migrator{driver: driver, schema: schema, logger: logger}
}

const createMigrationsTableSQL = `CREATE TABLE IF NOT EXISTS _schema_migrations (
	version INTEGER PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP NOT NULL,
	checksum VARCHAR(32) NOT NULL
)`

// Init creates the migrations bookkeeping table if missing, then
// applies every migration newer than the current version inside one
// transaction per migration, recording each as it lands.
func (m *Migrator) Init(ctx context.Context) error {
	if _, err := m.driver.Exec(ctx, createMigrationsTableSQL); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	current, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading current migration version: %w", err)
	}

	migrations, err := GetMigrations(m.schema)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}
		m.logger.Printf("applying migration %d: %s", mig.Version, mig.Name)
		if err := m.driver.Transaction(ctx, func(ctx context.Context, tx TxClient) error {
			for _, stmt := range mig.Up {
				if _, err := tx.Exec(ctx, stmt.SQL, stmt.Params...); err != nil {
					return err
				}
			}
			return m.record(ctx, tx, mig)
		}); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		m.logger.Printf("applied migration %d", mig.Version)
	}
	return nil
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	result, err := m.driver.Query(ctx, "SELECT COALESCE(MAX(version), 0) AS version FROM _schema_migrations")
	if err != nil {
		return 0, nil // table does not exist yet
	}
	if len(result.Rows) == 0 {
		return 0, nil
	}
	switch v := result.Rows[0]["version"].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, nil
	}
}

func (m *Migrator) record(ctx context.Context, tx TxClient, mig Migration) error {
	checksum := fmt.Sprintf("%x", md5.Sum([]byte(mig.Name)))
	_, err := tx.Exec(ctx,
		"INSERT INTO _schema_migrations (version, name, applied_at, checksum) VALUES (?, ?, ?, ?)",
		mig.Version, mig.Name, time.Now(), checksum)
	return err
}

// Reset drops the `_metadata` collection and the migrations
// bookkeeping table.
func (m *Migrator) Reset(ctx context.Context) error {
	return m.driver.Transaction(ctx, func(ctx context.Context, tx TxClient) error {
		for _, stmt := range m.schema.DropCollection("_metadata") {
			if _, err := tx.Exec(ctx, stmt.SQL, stmt.Params...); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, "DROP TABLE IF EXISTS _schema_migrations")
		return err
	})
}
