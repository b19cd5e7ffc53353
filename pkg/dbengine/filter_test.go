package dbengine

import "testing"

func newCompiler() *FilterCompiler {
	return &FilterCompiler{
		Dialect: DialectPostgres,
		Style:   QuoteDouble,
		Alias:   "main",
		Attributes: map[string]Attribute{
			"status": {Key: "status", Type: AttrString},
			"tags":   {Key: "tags", Type: AttrString, Array: true},
		},
		DefaultLanguage:       "english",
		MySQLSupportsOverlaps: true,
	}
}

func TestCompileEqualitySingleAndMulti(t *testing.T) {
	fc := newCompiler()
	sql, params, err := fc.Compile(Leaf{Attribute: "status", Op: OpEqual, Values: []Value{StringValue("draft")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."status" = ?` {
		t.Errorf("got %q", sql)
	}
	if len(params) != 1 {
		t.Errorf("expected 1 param, got %d", len(params))
	}

	sql, params, err = fc.Compile(Leaf{Attribute: "status", Op: OpEqual, Values: []Value{StringValue("draft"), StringValue("review")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."status" IN (?,?)` {
		t.Errorf("got %q", sql)
	}
	if len(params) != 2 {
		t.Errorf("expected 2 params, got %d", len(params))
	}
}

func TestCompileNotEqual(t *testing.T) {
	fc := newCompiler()
	sql, _, err := fc.Compile(Leaf{Attribute: "status", Op: OpNotEqual, Values: []Value{StringValue("draft"), StringValue("review")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."status" NOT IN (?,?)` {
		t.Errorf("got %q", sql)
	}
}

func TestCompileBetweenRequiresTwoValues(t *testing.T) {
	fc := newCompiler()
	_, _, err := fc.Compile(Leaf{Attribute: "status", Op: OpBetween, Values: []Value{IntValue(1)}})
	if err == nil {
		t.Fatal("expected error for wrong arity")
	}
	sql, params, err := fc.Compile(Leaf{Attribute: "status", Op: OpBetween, Values: []Value{IntValue(1), IntValue(10)}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."status" BETWEEN ? AND ?` || len(params) != 2 {
		t.Errorf("got %q %v", sql, params)
	}
}

func TestCompileContainsScalarVsArray(t *testing.T) {
	fc := newCompiler()
	sql, params, err := fc.Compile(Leaf{Attribute: "status", Op: OpContains, Values: []Value{StringValue("dra%ft")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."status" LIKE ?` {
		t.Errorf("got %q", sql)
	}
	if params[0] != `%dra\%ft%` {
		t.Errorf("expected wildcard-escaped pattern, got %v", params[0])
	}

	sql, _, err = fc.Compile(Leaf{Attribute: "tags", Op: OpContains, Values: []Value{StringValue("x")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."tags" @> ?::jsonb` {
		t.Errorf("got %q", sql)
	}
}

func TestCompileContainsArrayMySQLWithoutOverlapsRaisesQueryError(t *testing.T) {
	fc := newCompiler()
	fc.Dialect = DialectMySQL
	fc.MySQLSupportsOverlaps = false
	_, _, err := fc.Compile(Leaf{Attribute: "tags", Op: OpContains, Values: []Value{StringValue("x")}})
	if err == nil {
		t.Fatal("expected Query error instead of silent LIKE fallback")
	}
	ee, ok := err.(*EngineError)
	if !ok || ee.Kind != KindQuery {
		t.Errorf("expected Query kind error, got %v", err)
	}
}

func TestCompileContainsArrayMySQLWithOverlaps(t *testing.T) {
	fc := newCompiler()
	fc.Dialect = DialectMySQL
	sql, _, err := fc.Compile(Leaf{Attribute: "tags", Op: OpContains, Values: []Value{StringValue("x")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `JSON_OVERLAPS(main."tags", ?)` {
		t.Errorf("got %q", sql)
	}
}

func TestCompileStartsEndsWith(t *testing.T) {
	fc := newCompiler()
	sql, params, err := fc.Compile(Leaf{Attribute: "status", Op: OpStartsWith, Values: []Value{StringValue("dr")}})
	if err != nil || sql != `main."status" LIKE ?` || params[0] != "dr%" {
		t.Errorf("startsWith: %q %v %v", sql, params, err)
	}
	sql, params, err = fc.Compile(Leaf{Attribute: "status", Op: OpEndsWith, Values: []Value{StringValue("ft")}})
	if err != nil || sql != `main."status" LIKE ?` || params[0] != "%ft" {
		t.Errorf("endsWith: %q %v %v", sql, params, err)
	}
}

func TestCompileSearchPostgresAndMySQL(t *testing.T) {
	fc := newCompiler()
	sql, params, err := fc.Compile(Leaf{Attribute: "status", Op: OpSearch, Values: []Value{StringValue("hello world")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `to_tsvector('english', main."status") @@ plainto_tsquery('english', ?)` {
		t.Errorf("got %q", sql)
	}
	if params[0] != "hello world*" {
		t.Errorf("expected trailing wildcard, got %v", params[0])
	}

	fc.Dialect = DialectMySQL
	sql, _, err = fc.Compile(Leaf{Attribute: "status", Op: OpSearch, Values: []Value{StringValue("hello")}})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `MATCH(main."status") AGAINST (? IN BOOLEAN MODE)` {
		t.Errorf("got %q", sql)
	}
}

func TestSanitizeSearchTermDropsReservedAndQuotesExact(t *testing.T) {
	if got := sanitizeSearchTerm("foo and bar"); got != "foo bar*" {
		t.Errorf("got %q", got)
	}
	if got := sanitizeSearchTerm(`"exact phrase"`); got != `"exact phrase"` {
		t.Errorf("expected exact-match quoting preserved, got %q", got)
	}
}

func TestCompileIsNullIsNotNull(t *testing.T) {
	fc := newCompiler()
	sql, params, err := fc.Compile(Leaf{Attribute: "status", Op: OpIsNull})
	if err != nil || sql != `main."status" IS NULL` || len(params) != 0 {
		t.Errorf("isNull: %q %v %v", sql, params, err)
	}
	sql, params, err = fc.Compile(Leaf{Attribute: "status", Op: OpIsNotNull})
	if err != nil || sql != `main."status" IS NOT NULL` || len(params) != 0 {
		t.Errorf("isNotNull: %q %v %v", sql, params, err)
	}
}

func TestCompileAndOrNotNesting(t *testing.T) {
	fc := newCompiler()
	node := And{Children: []FilterNode{
		Leaf{Attribute: "status", Op: OpEqual, Values: []Value{StringValue("draft")}},
		Or{Children: []FilterNode{
			Leaf{Attribute: "status", Op: OpIsNull},
			Not{Child: Leaf{Attribute: "status", Op: OpIsNotNull}},
		}},
	}}
	sql, params, err := fc.Compile(node)
	if err != nil {
		t.Fatal(err)
	}
	want := `(main."status" = ? AND (main."status" IS NULL OR NOT (main."status" IS NOT NULL)))`
	if sql != want {
		t.Errorf("got  %q\nwant %q", sql, want)
	}
	if len(params) != 1 {
		t.Errorf("expected 1 param, got %d", len(params))
	}
}

func TestCompileEmptyGroupSkipped(t *testing.T) {
	fc := newCompiler()
	sql, params, err := fc.Compile(And{})
	if err != nil {
		t.Fatal(err)
	}
	if sql != "" || params != nil {
		t.Errorf("expected empty compile result for empty group, got %q %v", sql, params)
	}
}

func TestJSONPathAccess(t *testing.T) {
	fc := newCompiler()
	fc.Attributes["meta"] = Attribute{Key: "meta", Type: AttrJSON}
	sql, _, err := fc.Compile(Leaf{Attribute: "meta->key", Op: OpIsNull})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."meta"->'key' IS NULL` {
		t.Errorf("got %q", sql)
	}
	sql, _, err = fc.Compile(Leaf{Attribute: "meta->>key", Op: OpIsNull})
	if err != nil {
		t.Fatal(err)
	}
	if sql != `main."meta"->>'key' IS NULL` {
		t.Errorf("got %q", sql)
	}
}
