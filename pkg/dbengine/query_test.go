package dbengine

import (
	"strings"
	"testing"
)

func articlesCollection() *Collection {
	return &Collection{
		ID:               "articles",
		Name:             "articles",
		DocumentSecurity: true,
		Permissions:      []string{"read(any)"},
		Attributes: []Attribute{
			{Key: "title", Type: AttrString, Size: 255},
			{Key: "status", Type: AttrString, Size: 32},
		},
	}
}

func newPlanner() *QueryPlanner {
	return &QueryPlanner{Config: NewDefaultEngineConfig(), Style: QuoteDouble, Dialect: DialectPostgres}
}

func TestCompileFindBasicProjectionAndDefaultOrder(t *testing.T) {
	qp := newPlanner()
	req := &FindRequest{Collection: articlesCollection(), Roles: RoleSet{"any"}}
	cq, err := qp.CompileFind(req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cq.SQL, `SELECT DISTINCT main."_uid" AS "$id"`) {
		t.Errorf("expected $id projection, got %q", cq.SQL)
	}
	if !strings.Contains(cq.SQL, `main."title" AS "title"`) {
		t.Errorf("expected title projection, got %q", cq.SQL)
	}
	if !strings.Contains(cq.SQL, `ORDER BY main."_id" ASC`) {
		t.Errorf("expected default $sequence ASC order, got %q", cq.SQL)
	}
}

func TestCompileFindDocumentSecurityAddsExistsClause(t *testing.T) {
	qp := newPlanner()
	req := &FindRequest{Collection: articlesCollection(), DocumentSecurity: true, Roles: RoleSet{"any"}}
	cq, err := qp.CompileFind(req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cq.SQL, "EXISTS (SELECT 1 FROM") {
		t.Errorf("expected permission EXISTS clause, got %q", cq.SQL)
	}
}

func TestCompileFindSharedTablesRequiresTenantPredicate(t *testing.T) {
	qp := newPlanner()
	qp.Config.SharedTables = true
	tenant := int64(3)
	req := &FindRequest{Collection: articlesCollection(), Roles: RoleSet{"any"}, TenantID: &tenant}
	cq, err := qp.CompileFind(req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cq.SQL, `main."_tenant" = ?`) {
		t.Errorf("expected tenant predicate, got %q", cq.SQL)
	}
	if len(cq.Warnings) != 0 {
		t.Errorf("expected no warnings when tenant supplied, got %v", cq.Warnings)
	}
}

func TestCompileFindSharedTablesWithoutTenantWarns(t *testing.T) {
	qp := newPlanner()
	qp.Config.SharedTables = true
	req := &FindRequest{Collection: articlesCollection(), Roles: RoleSet{"any"}}
	cq, err := qp.CompileFind(req)
	if err != nil {
		t.Fatal(err)
	}
	if len(cq.Warnings) != 1 {
		t.Fatalf("expected one warning compiling without a tenant, got %v", cq.Warnings)
	}
}

func TestCompileFindWithFilterAndLimitOffset(t *testing.T) {
	qp := newPlanner()
	req := &FindRequest{
		Collection: articlesCollection(),
		Roles:      RoleSet{"any"},
		Filter:     Leaf{Attribute: "status", Op: OpEqual, Values: []Value{StringValue("draft")}},
		Limit:      10,
		Offset:     20,
	}
	cq, err := qp.CompileFind(req)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(cq.SQL, `main."status" = ?`) {
		t.Errorf("expected filter clause, got %q", cq.SQL)
	}
	if !strings.HasSuffix(cq.SQL, "LIMIT ? OFFSET ?") {
		t.Errorf("expected trailing LIMIT/OFFSET, got %q", cq.SQL)
	}
	found := 0
	for _, p := range cq.Params {
		if p == "draft" || p == 10 || p == 20 {
			found++
		}
	}
	if found != 3 {
		t.Errorf("expected filter + limit + offset params present, got %v", cq.Params)
	}
}

func TestResolveOrderingAppendsTieBreakWithLastDirection(t *testing.T) {
	qp := newPlanner()
	attrs, types := qp.resolveOrdering([]string{"title"}, []IndexOrder{OrderDesc})
	if len(attrs) != 2 || attrs[1] != "$sequence" {
		t.Fatalf("expected $sequence tie-break appended, got %v", attrs)
	}
	if types[1] != OrderDesc {
		t.Errorf("expected tie-break to inherit last direction DESC, got %v", types[1])
	}
}

func TestBuildCursorPredicateSingleAttributeAfter(t *testing.T) {
	qp := newPlanner()
	attrs, types := qp.resolveOrdering(nil, nil)
	sql, params, err := qp.buildCursorPredicate(attrs, types, map[string]Value{"$sequence": IntValue(42)}, CursorAfter)
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."_id" > ?` {
		t.Errorf("got %q", sql)
	}
	if len(params) != 1 || params[0] != int64(42) {
		t.Errorf("got %v", params)
	}
}

func TestBuildCursorPredicateSingleAttributeBeforeFlipsOperator(t *testing.T) {
	qp := newPlanner()
	attrs, types := qp.resolveOrdering(nil, nil)
	sql, _, err := qp.buildCursorPredicate(attrs, types, map[string]Value{"$sequence": IntValue(42)}, CursorBefore)
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."_id" < ?` {
		t.Errorf("got %q", sql)
	}
}

func TestBuildCursorPredicateMultiAttributeDisjointGroups(t *testing.T) {
	qp := newPlanner()
	attrs, types := qp.resolveOrdering([]string{"title"}, []IndexOrder{OrderAsc})
	cursor := map[string]Value{"title": StringValue("m"), "$sequence": IntValue(5)}
	sql, params, err := qp.buildCursorPredicate(attrs, types, cursor, CursorAfter)
	if err != nil {
		t.Fatal(err)
	}
	want := `(main."title" > ?) OR (main."title" = ? AND main."_id" > ?)`
	if sql != want {
		t.Errorf("got  %q\nwant %q", sql, want)
	}
	if len(params) != 3 {
		t.Errorf("expected 3 params, got %v", params)
	}
}

func TestAssembleDocumentsThreadsNestedColumnsAndReversesForBefore(t *testing.T) {
	populate := []*PopulateNode{{Attribute: "author"}}
	rows := []map[string]interface{}{
		{"$id": "doc1", "title": "first", "author_name": "alice"},
		{"$id": "doc2", "title": "second", "author_name": "bob"},
	}
	docs := AssembleDocuments(rows, populate, CursorAfter)
	if len(docs) != 2 || docs[0].ID != "doc1" {
		t.Fatalf("unexpected doc order: %v", docs)
	}
	nested, ok := docs[0].Get("author")
	if !ok || nested.Kind != KindDocument {
		t.Fatalf("expected nested author document, got %v", nested)
	}
	name, ok := nested.Doc.Get("name")
	if !ok || name.Str != "alice" {
		t.Errorf("expected threaded author.name=alice, got %v", name)
	}

	reversed := AssembleDocuments(rows, populate, CursorBefore)
	if reversed[0].ID != "doc2" || reversed[1].ID != "doc1" {
		t.Errorf("expected reversed order for CursorBefore, got %v", reversed)
	}
}
