// Command dbengine-demo exercises the schema store, query planner,
// and mutation planner against a real Postgres instance (or, with no
// -dsn given, just prints the compiled SQL). It is a thin driver over
// pkg/dbengine, not a product of its own.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/artha-au/dbengine/pkg/dbengine"
	"github.com/artha-au/dbengine/pkg/dbengine/dialect/postgres"
)

func articlesCollection() *dbengine.Collection {
	return &dbengine.Collection{
		ID:               "articles",
		Name:             "articles",
		DocumentSecurity: true,
		Permissions:      []string{"read(any)"},
		Attributes: []dbengine.Attribute{
			{Key: "title", Type: dbengine.AttrString, Size: 255, Required: true},
			{Key: "status", Type: dbengine.AttrString, Size: 32},
		},
		Indexes: []dbengine.Index{
			{ID: "status_idx", Type: dbengine.IndexKey, Attributes: []string{"status"}, Orders: []dbengine.IndexOrder{dbengine.OrderAsc}},
		},
	}
}

func main() {
	dsn := flag.String("dsn", "", "postgres DSN; leave empty to only print compiled SQL")
	namespace := flag.String("namespace", "app", "metadata namespace physical tables are prefixed with")
	flag.Parse()

	logger := log.New(log.Writer(), "[DBEngine-Demo] ", log.LstdFlags)

	cfg := dbengine.NewDefaultEngineConfig()
	cfg.MetadataNamespace = *namespace
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	schemaStore := &dbengine.SchemaStore{Config: cfg, Style: dbengine.QuoteDouble, Dialect: dbengine.DialectPostgres, Schema: "public"}
	queryPlanner := &dbengine.QueryPlanner{Config: cfg, Style: dbengine.QuoteDouble, Dialect: dbengine.DialectPostgres}
	mutationPlanner := &dbengine.MutationPlanner{Config: cfg, Style: dbengine.QuoteDouble, Dialect: dbengine.DialectPostgres}

	createStmts, err := schemaStore.CreateCollection(articlesCollection())
	if err != nil {
		logger.Fatalf("compiling articles collection: %v", err)
	}

	doc := dbengine.NewDocument()
	doc.ID = dbengine.GenerateDocumentID()
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	doc.Set("title", dbengine.StringValue("hello world"))
	doc.Set("status", dbengine.StringValue("draft"))

	insertStmt, err := mutationPlanner.CompileInsert(articlesCollection(), doc, nil)
	if err != nil {
		logger.Fatalf("compiling insert: %v", err)
	}

	findReq := &dbengine.FindRequest{
		Collection:       articlesCollection(),
		DocumentSecurity: true,
		Roles:            dbengine.RoleSet{"any"},
		Filter:           dbengine.Leaf{Attribute: "status", Op: dbengine.OpEqual, Values: []dbengine.Value{dbengine.StringValue("draft")}},
		Limit:            25,
	}
	findQuery, err := queryPlanner.CompileFind(findReq)
	if err != nil {
		logger.Fatalf("compiling find: %v", err)
	}

	if *dsn == "" {
		logger.Println("no -dsn given; printing compiled SQL only")
		for _, stmt := range createStmts {
			fmt.Println(stmt.SQL)
		}
		fmt.Println(insertStmt.SQL, insertStmt.Params)
		fmt.Println(findQuery.SQL, findQuery.Params)
		return
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		logger.Fatalf("opening postgres connection: %v", err)
	}
	defer db.Close()

	adapter := postgres.NewAdapter(db, "public")
	client := postgres.NewClient(db, adapter)

	ctx := context.Background()
	migrator := dbengine.NewMigrator(client, schemaStore, logger)
	if err := migrator.Init(ctx); err != nil {
		logger.Fatalf("bootstrapping metadata collection: %v", err)
	}

	if err := client.Transaction(ctx, func(ctx context.Context, tx dbengine.TxClient) error {
		for _, stmt := range createStmts {
			if _, err := tx.Exec(ctx, stmt.SQL, stmt.Params...); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		logger.Fatalf("creating articles collection: %v", err)
	}

	if _, err := client.Exec(ctx, insertStmt.SQL, insertStmt.Params...); err != nil {
		logger.Fatalf("inserting article: %v", err)
	}

	result, err := client.Query(ctx, findQuery.SQL, findQuery.Params...)
	if err != nil {
		logger.Fatalf("querying articles: %v", err)
	}
	for _, row := range result.Rows {
		fmt.Println(row)
	}
}
