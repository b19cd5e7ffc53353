package dbengine

import (
	"strings"
	"testing"
)

func usersWithEmailIndex() *Collection {
	return &Collection{
		ID:   "users",
		Name: "users",
		Attributes: []Attribute{
			{Key: "name", Type: AttrString, Size: 100},
			{Key: "email", Type: AttrString, Size: 255, Required: true},
		},
		Indexes: []Index{
			{ID: "email_unique", Type: IndexUnique, Attributes: []string{"email"}, Orders: []IndexOrder{OrderAsc}},
		},
	}
}

func newSchemaStore() *SchemaStore {
	return &SchemaStore{Config: NewDefaultEngineConfig(), Style: QuoteDouble, Dialect: DialectPostgres, Schema: "public"}
}

func TestCreateCollectionEmitsMainPermsAndIndexStatements(t *testing.T) {
	ss := newSchemaStore()
	stmts, err := ss.CreateCollection(usersWithEmailIndex())
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 4 {
		t.Fatalf("expected main table + perms table + 1 declared index + gin index, got %d: %+v", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0].SQL, "CREATE TABLE") || !strings.Contains(stmts[0].SQL, `"email" VARCHAR(255) NOT NULL`) {
		t.Errorf("unexpected main table SQL: %q", stmts[0].SQL)
	}
	if !strings.Contains(stmts[1].SQL, "ON DELETE CASCADE") {
		t.Errorf("expected perms table FK cascade, got %q", stmts[1].SQL)
	}
	if !strings.Contains(stmts[2].SQL, "CREATE UNIQUE INDEX") {
		t.Errorf("expected unique index, got %q", stmts[2].SQL)
	}
	if !strings.Contains(stmts[3].SQL, "USING GIN") {
		t.Errorf("expected GIN index on _permissions, got %q", stmts[3].SQL)
	}
}

func TestCreateCollectionEnforcesAttributeLimit(t *testing.T) {
	ss := newSchemaStore()
	ss.Config.MaxAttributesPerCollection = 1
	_, err := ss.CreateCollection(usersWithEmailIndex())
	if err == nil {
		t.Fatal("expected limit error")
	}
	ee := err.(*EngineError)
	if ee.Kind != KindLimit {
		t.Errorf("expected Limit kind, got %v", ee.Kind)
	}
}

func TestCreateCollectionSharedTablesAddsTenantColumnAndIndexPrefix(t *testing.T) {
	ss := newSchemaStore()
	ss.Config.SharedTables = true
	stmts, err := ss.CreateCollection(usersWithEmailIndex())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmts[0].SQL, `"_tenant" BIGINT`) {
		t.Errorf("expected tenant column on main table, got %q", stmts[0].SQL)
	}
	if !strings.Contains(stmts[2].SQL, `"_tenant" ASC, "email" ASC`) {
		t.Errorf("expected tenant-prefixed index, got %q", stmts[2].SQL)
	}
}

func TestCreateIndexFullTextMySQL(t *testing.T) {
	ss := newSchemaStore()
	ss.Dialect = DialectMySQL
	ss.Style = QuoteBacktick
	stmt, err := ss.createIndexStatement("app_articles", "articles", Index{ID: "body_search", Type: IndexFullText, Attributes: []string{"body"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, "CREATE FULLTEXT INDEX") {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestCreateIndexFullTextPostgresUsesGinTsvector(t *testing.T) {
	ss := newSchemaStore()
	stmt, err := ss.createIndexStatement("app_articles", "articles", Index{ID: "body_search", Type: IndexFullText, Attributes: []string{"body"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, "USING GIN") || !strings.Contains(stmt.SQL, "to_tsvector") {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestCreateRelationshipOneToManyOnlyTouchesChild(t *testing.T) {
	ss := newSchemaStore()
	users, posts := usersPostsCollections()
	opts := posts.Attributes[1].Options // author: oneToMany side=child
	stmts, err := ss.CreateRelationship(users, posts, "author", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected exactly one ALTER, got %d", len(stmts))
	}
	if !strings.Contains(stmts[0].SQL, `ALTER TABLE "app"."app_posts" ADD COLUMN "author"`) {
		t.Errorf("got %q", stmts[0].SQL)
	}
}

func TestCreateRelationshipManyToManyCreatesJunctionTable(t *testing.T) {
	ss := newSchemaStore()
	ss.Config.SharedTables = true
	friends := &Collection{ID: "users"}
	opts := &RelationshipOptions{
		RelatedCollection: "users",
		RelationType:      ManyToMany,
		TwoWay:            true,
		TwoWayKey:         "friendOf",
		JunctionTable:      "_users_users_friends_friendOf",
	}
	stmts, err := ss.CreateRelationship(friends, friends, "friends", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 || !strings.Contains(stmts[0].SQL, "CREATE TABLE") {
		t.Fatalf("got %+v", stmts)
	}
	if !strings.Contains(stmts[0].SQL, `PRIMARY KEY ("_tenant", "friends_fk", "friendOf_fk")`) {
		t.Errorf("expected tenant-prefixed composite key, got %q", stmts[0].SQL)
	}
}

func TestDeleteRelationshipManyToManyDropsJunctionTable(t *testing.T) {
	ss := newSchemaStore()
	users := &Collection{ID: "users"}
	opts := &RelationshipOptions{RelationType: ManyToMany, JunctionTable: "_users_users_friends_friendOf"}
	stmts := ss.DeleteRelationship(users, users, "friends", opts)
	if len(stmts) != 1 || !strings.HasPrefix(stmts[0].SQL, "DROP TABLE") {
		t.Errorf("got %+v", stmts)
	}
}

func TestCreateAttributesEmitsSingleMultiColumnAlter(t *testing.T) {
	ss := newSchemaStore()
	stmt, err := ss.CreateAttributes("users", []Attribute{
		{Key: "nickname", Type: AttrString, Size: 50},
		{Key: "age", Type: AttrInteger, Size: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(stmt.SQL, "ADD COLUMN") != 2 {
		t.Errorf("expected 2 ADD COLUMN clauses in one ALTER, got %q", stmt.SQL)
	}
}
