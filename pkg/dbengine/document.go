// Package dbengine implements a schema-managed, multi-tenant document
// database engine layered over a relational SQL store. It compiles
// declarative, schema-aware query and mutation specifications into SQL
// text and bound parameters for a pluggable dialect (Postgres primary,
// MySQL/MariaDB secondary), enforcing row-level permissions and tenancy
// as it does so.
package dbengine

import (
	"time"

	"github.com/google/uuid"
)

// Reserved document keys, mirrored 1:1 onto physical columns by the
// dialect adapters (see dialect.Dialect.NormalizeRow).
const (
	KeyID          = "$id"
	KeySequence    = "$sequence"
	KeyCollection  = "$collection"
	KeyTenant      = "$tenant"
	KeyCreatedAt   = "$createdAt"
	KeyUpdatedAt   = "$updatedAt"
	KeyPermissions = "$permissions"
)

// MetadataCollection is the reserved collection id holding collection
// definitions themselves.
const MetadataCollection = "_metadata"

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTimestamp
	KindBytes
	KindUUID
	KindJSON
	KindArray
	KindDocument
)

// Value is a tagged sum over the physical value domains the engine
// moves between Go and SQL. Exactly one of the typed fields is
// meaningful for a given Kind.
type Value struct {
	Kind ValueKind

	Bool      bool
	Int       int64
	Float     float64
	Str       string
	Timestamp time.Time
	Bytes     []byte
	Array     []Value
	Doc       Document
}

func NullValue() Value                  { return Value{Kind: KindNull} }
func BoolValue(b bool) Value            { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value            { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value        { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value        { return Value{Kind: KindString, Str: s} }
func TimestampValue(t time.Time) Value  { return Value{Kind: KindTimestamp, Timestamp: t} }
func BytesValue(b []byte) Value         { return Value{Kind: KindBytes, Bytes: b} }
func UUIDValue(s string) Value          { return Value{Kind: KindUUID, Str: s} }
func JSONValue(s string) Value          { return Value{Kind: KindJSON, Str: s} }
func ArrayValue(vs []Value) Value       { return Value{Kind: KindArray, Array: vs} }
func DocValue(d Document) Value         { return Value{Kind: KindDocument, Doc: d} }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Raw unwraps the Value into the closest native Go representation,
// suitable for passing to a database/sql driver as a bind parameter.
func (v Value) Raw() interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString, KindUUID, KindJSON:
		return v.Str
	case KindTimestamp:
		return v.Timestamp
	case KindBytes:
		return v.Bytes
	case KindArray:
		raw := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			raw[i] = e.Raw()
		}
		return raw
	default:
		return nil
	}
}

// Document is an ordered mapping from attribute name to value. Order
// is preserved via Keys so that projection and row reassembly can walk
// attributes deterministically; Values holds the same data keyed by
// name for O(1) lookup.
type Document struct {
	Keys   []string
	Values map[string]Value

	ID          string
	Sequence    int64
	Collection  string
	TenantID    *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Permissions []string
}

// NewDocument creates an empty document ready for Set calls.
func NewDocument() *Document {
	return &Document{Values: make(map[string]Value)}
}

// GenerateDocumentID mints a new external `$id` via uuid.New().
// Callers use this to populate Document.ID before CompileInsert when
// the caller did not supply one.
func GenerateDocumentID() string {
	return uuid.New().String()
}

// Set assigns an attribute, preserving first-seen key order.
func (d *Document) Set(key string, v Value) {
	if d.Values == nil {
		d.Values = make(map[string]Value)
	}
	if _, exists := d.Values[key]; !exists {
		d.Keys = append(d.Keys, key)
	}
	d.Values[key] = v
}

// Get returns the named attribute and whether it was present.
func (d *Document) Get(key string) (Value, bool) {
	v, ok := d.Values[key]
	return v, ok
}

// DedupePermissions collapses duplicate permission strings while
// preserving first-seen order, per the data model invariant that
// $permissions is a set.
func DedupePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// AttributeType enumerates the logical attribute types the Type Mapper
// translates into physical column types.
type AttributeType string

const (
	AttrString       AttributeType = "string"
	AttrInteger      AttributeType = "integer"
	AttrFloat        AttributeType = "float"
	AttrBoolean      AttributeType = "boolean"
	AttrTimestamptz  AttributeType = "timestamptz"
	AttrJSON         AttributeType = "json"
	AttrUUID         AttributeType = "uuid"
	AttrRelationship AttributeType = "relationship"
	AttrVirtual      AttributeType = "virtual"
)

// RelationType enumerates relationship cardinalities.
type RelationType string

const (
	OneToOne   RelationType = "oneToOne"
	OneToMany  RelationType = "oneToMany"
	ManyToOne  RelationType = "manyToOne"
	ManyToMany RelationType = "manyToMany"
)

// RelationSide tags which side of a relationship an attribute
// represents.
type RelationSide string

const (
	SideParent RelationSide = "parent"
	SideChild  RelationSide = "child"
)

// OnDelete enumerates cascade policy for a relationship's owning
// column when the related document is deleted.
type OnDelete string

const (
	OnDeleteCascade  OnDelete = "cascade"
	OnDeleteRestrict OnDelete = "restrict"
	OnDeleteSetNull  OnDelete = "setNull"
)

// RelationshipOptions carries the schema metadata for a relationship
// attribute. JunctionTable/ParentKeyCol/ChildKeyCol name the physical
// junction table and its key columns for manyToMany attributes. The
// Schema Store and the Relationship Graph both read JunctionTable as
// given and never derive it; empty key-column names fall back to the
// ParentKeyColumn/ChildKeyColumn defaults.
type RelationshipOptions struct {
	RelatedCollection string
	RelationType      RelationType
	TwoWay            bool
	TwoWayKey         string
	Side              RelationSide
	OnDelete          OnDelete

	JunctionTable string
	ParentKeyCol  string
	ChildKeyCol   string
}

// ParentKeyColumn returns the junction column referencing the parent
// side's _uid, defaulting to "{attr}_fk" when unset.
func (o *RelationshipOptions) ParentKeyColumn(attrKey string) string {
	if o.ParentKeyCol != "" {
		return o.ParentKeyCol
	}
	return attrKey + "_fk"
}

// ChildKeyColumn returns the junction column referencing the child
// side's _uid, defaulting to "{twoWayKey}_fk" when unset.
func (o *RelationshipOptions) ChildKeyColumn() string {
	if o.ChildKeyCol != "" {
		return o.ChildKeyCol
	}
	return o.TwoWayKey + "_fk"
}

// Attribute is a typed field declaration within a collection.
type Attribute struct {
	ID       string
	Key      string
	Type     AttributeType
	Size     int
	Required bool
	Default  *Value
	Array    bool
	Signed   bool
	Options  *RelationshipOptions
	Filters  []string
}

// IndexType enumerates the supported index kinds.
type IndexType string

const (
	IndexKey      IndexType = "key"
	IndexUnique   IndexType = "unique"
	IndexFullText IndexType = "fullText"
)

// IndexOrder enumerates per-attribute sort direction within a
// composite index.
type IndexOrder string

const (
	OrderAsc  IndexOrder = "ASC"
	OrderDesc IndexOrder = "DESC"
)

// Index is a named, typed index over one or more attributes.
type Index struct {
	ID         string
	Type       IndexType
	Attributes []string
	Orders     []IndexOrder
}

// Collection is a document stored in the reserved metadata collection,
// describing the schema of an ordinary collection.
type Collection struct {
	ID               string
	Name             string
	DocumentSecurity bool
	Permissions      []string
	Attributes       []Attribute
	Indexes          []Index
}

// AttributeByKey looks up a declared attribute by key.
func (c *Collection) AttributeByKey(key string) (*Attribute, bool) {
	for i := range c.Attributes {
		if c.Attributes[i].Key == key {
			return &c.Attributes[i], true
		}
	}
	return nil, false
}

// IndexByID looks up a declared index by id.
func (c *Collection) IndexByID(id string) (*Index, bool) {
	for i := range c.Indexes {
		if c.Indexes[i].ID == id {
			return &c.Indexes[i], true
		}
	}
	return nil, false
}

// IsOwningSide reports whether a relationship attribute's side
// materializes a physical column in its declaring collection's main
// table.
func IsOwningSide(relType RelationType, side RelationSide) bool {
	switch relType {
	case OneToOne:
		return side == SideParent
	case ManyToOne:
		return side == SideParent
	case OneToMany:
		return side == SideChild
	case ManyToMany:
		return false
	default:
		return false
	}
}
