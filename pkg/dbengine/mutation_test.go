package dbengine

import (
	"strings"
	"testing"
	"time"
)

func notesCollection() *Collection {
	return &Collection{
		ID:   "notes",
		Name: "notes",
		Attributes: []Attribute{
			{Key: "body", Type: AttrString, Size: 500},
			{Key: "views", Type: AttrInteger, Size: 4},
		},
	}
}

func newMutationPlanner() *MutationPlanner {
	return &MutationPlanner{Config: NewDefaultEngineConfig(), Style: QuoteDouble, Dialect: DialectPostgres}
}

func TestCompileInsertEmitsReturningID(t *testing.T) {
	mp := newMutationPlanner()
	doc := NewDocument()
	doc.ID = "abc123"
	doc.CreatedAt = time.Unix(0, 0)
	doc.UpdatedAt = time.Unix(0, 0)
	doc.Set("body", StringValue("hello"))

	stmt, err := mp.CompileInsert(notesCollection(), doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stmt.SQL, "INSERT INTO") || !strings.HasSuffix(stmt.SQL, `RETURNING "_id"`) {
		t.Errorf("got %q", stmt.SQL)
	}
	if !strings.Contains(stmt.SQL, `"body"`) {
		t.Errorf("expected body column, got %q", stmt.SQL)
	}
}

func TestCompileInsertRejectsEmptyID(t *testing.T) {
	mp := newMutationPlanner()
	_, err := mp.CompileInsert(notesCollection(), NewDocument(), nil)
	if err == nil {
		t.Fatal("expected error for empty $id")
	}
}

func TestCompileInsertSharedTablesRequiresTenant(t *testing.T) {
	mp := newMutationPlanner()
	mp.Config.SharedTables = true
	doc := NewDocument()
	doc.ID = "abc123"
	_, err := mp.CompileInsert(notesCollection(), doc, nil)
	if err == nil {
		t.Fatal("expected error for missing tenant in shared-table mode")
	}
}

func TestCompilePermissionsInsertGroupsByType(t *testing.T) {
	mp := newMutationPlanner()
	stmt, err := mp.CompilePermissionsInsert(notesCollection(), 7, nil, []string{"read(any)", "read(user:1)", "update(team:9)"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(stmt.SQL, "(?, ?, ?)") != 2 {
		t.Errorf("expected one row per type (2 types), got %q", stmt.SQL)
	}
}

func TestCompilePermissionsInsertNilWhenEmpty(t *testing.T) {
	mp := newMutationPlanner()
	stmt, err := mp.CompilePermissionsInsert(notesCollection(), 7, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stmt != nil {
		t.Errorf("expected nil statement for no permissions, got %v", stmt)
	}
}

func TestCompileUpsertPostgresTenantGuardedCase(t *testing.T) {
	mp := newMutationPlanner()
	mp.Config.SharedTables = true
	tenant := int64(4)
	doc := NewDocument()
	doc.ID = "abc123"
	doc.Set("body", StringValue("hi"))
	stmt, err := mp.CompileUpsert(notesCollection(), doc, &tenant, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, "ON CONFLICT") || !strings.Contains(stmt.SQL, "CASE WHEN") {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestCompileUpsertIncrementForm(t *testing.T) {
	mp := newMutationPlanner()
	doc := NewDocument()
	doc.ID = "abc123"
	doc.Set("views", IntValue(1))
	stmt, err := mp.CompileUpsert(notesCollection(), doc, nil, "views")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, `"views" = "views" + EXCLUDED."views"`) {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestCompileUpsertMySQLDuplicateKey(t *testing.T) {
	mp := newMutationPlanner()
	mp.Dialect = DialectMySQL
	mp.Style = QuoteBacktick
	doc := NewDocument()
	doc.ID = "abc123"
	doc.Set("body", StringValue("hi"))
	stmt, err := mp.CompileUpsert(notesCollection(), doc, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, "ON DUPLICATE KEY UPDATE") {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestCompileUpdateSingleDocument(t *testing.T) {
	mp := newMutationPlanner()
	changes := map[string]Value{"body": StringValue("updated")}
	stmt, err := mp.CompileUpdate(notesCollection(), 42, changes, nil, time.Unix(100, 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, `"body" = ?`) || !strings.Contains(stmt.SQL, `WHERE "_id" = ?`) {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestCompileUpdateBatchAppliesToAllIDs(t *testing.T) {
	mp := newMutationPlanner()
	changes := map[string]Value{"body": StringValue("bulk")}
	stmt, err := mp.CompileUpdateBatch(notesCollection(), []int64{1, 2, 3}, changes, time.Unix(0, 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, `"_id" IN (?,?,?)`) {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestPermissionDiffAddRemoveUpdate(t *testing.T) {
	mp := newMutationPlanner()
	existing := []string{"read(any)", "update(team:1)"}
	desired := []string{"read(any)", "read(user:2)", "delete(any)"}
	stmts, err := mp.PermissionDiff(notesCollection(), 7, nil, existing, desired)
	if err != nil {
		t.Fatal(err)
	}
	var sawUpdate, sawDelete, sawInsert bool
	for _, s := range stmts {
		switch {
		case strings.HasPrefix(s.SQL, "UPDATE"):
			sawUpdate = true
		case strings.HasPrefix(s.SQL, "DELETE"):
			sawDelete = true
		case strings.HasPrefix(s.SQL, "INSERT"):
			sawInsert = true
		}
	}
	if !sawUpdate || !sawDelete || !sawInsert {
		t.Errorf("expected update (read roles changed), delete (update type removed), insert (delete type added); got %d stmts: %+v", len(stmts), stmts)
	}
}

func TestPermissionDiffNoChangeEmitsNothing(t *testing.T) {
	mp := newMutationPlanner()
	perms := []string{"read(any)"}
	stmts, err := mp.PermissionDiff(notesCollection(), 7, nil, perms, perms)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 0 {
		t.Errorf("expected no statements for unchanged permissions, got %v", stmts)
	}
}

func TestCompileDeleteByQueryUsesUsingAndReturning(t *testing.T) {
	qp := newPlanner()
	req := &FindRequest{Collection: articlesCollection(), Roles: RoleSet{"any"}, DocumentSecurity: true}
	stmt, err := CompileDeleteByQuery(qp, req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stmt.SQL, "DELETE FROM") {
		t.Errorf("got %q", stmt.SQL)
	}
	if !strings.Contains(stmt.SQL, `RETURNING "_uid", "_id"`) {
		t.Errorf("expected RETURNING clause, got %q", stmt.SQL)
	}
	if !strings.Contains(stmt.SQL, "EXISTS") {
		t.Errorf("expected permission EXISTS clause, got %q", stmt.SQL)
	}
}

func TestCompileIncrementClampsWithMinMax(t *testing.T) {
	mp := newMutationPlanner()
	min := IntValue(0)
	max := IntValue(100)
	stmt, err := mp.CompileIncrement(notesCollection(), "abc123", "views", IntValue(1), &min, &max, time.Unix(0, 0), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stmt.SQL, `"views" <= ?`) || !strings.Contains(stmt.SQL, `"views" >= ?`) {
		t.Errorf("got %q", stmt.SQL)
	}
}

func TestCompileIncrementSharedTablesRequiresTenant(t *testing.T) {
	mp := newMutationPlanner()
	mp.Config.SharedTables = true
	_, err := mp.CompileIncrement(notesCollection(), "abc123", "views", IntValue(1), nil, nil, time.Unix(0, 0), nil)
	if err == nil {
		t.Fatal("expected error for missing tenant in shared-table mode")
	}
}
