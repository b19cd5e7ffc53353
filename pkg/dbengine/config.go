package dbengine

import (
	"fmt"
	"time"
)

// EngineConfig holds tunables for the query/mutation planners and
// schema store. NewDefaultEngineConfig supplies defaults and Validate
// checks them.
type EngineConfig struct {
	// RelationMaxDepth bounds populate-tree traversal.
	RelationMaxDepth int

	// MaxAttributesPerCollection and MaxIndexesPerCollection bound
	// schema growth.
	MaxAttributesPerCollection int
	MaxIndexesPerCollection    int

	// MaxRowWidthBytes bounds the Type Mapper's estimated physical
	// row width.
	MaxRowWidthBytes int

	// StatementTimeout is applied per statement.
	StatementTimeout time.Duration

	// SharedTables enables tenancy-filtered shared-table mode
	//.
	SharedTables bool

	// MetadataNamespace prefixes physical table names
	// ({namespace}_{collectionId}, ).
	MetadataNamespace string

	// DefaultSearchLanguage is passed to to_tsvector/MATCH AGAINST
	// when a search filter does not specify one.
	DefaultSearchLanguage string
}

// NewDefaultEngineConfig returns an EngineConfig with sensible
// defaults.
func NewDefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		RelationMaxDepth:           3,
		MaxAttributesPerCollection: 1024,
		MaxIndexesPerCollection:    64,
		MaxRowWidthBytes:           65535,
		StatementTimeout:           15 * time.Second,
		SharedTables:               false,
		MetadataNamespace:          "app",
		DefaultSearchLanguage:      "english",
	}
}

// Validate checks the configuration is internally consistent.
func (c *EngineConfig) Validate() error {
	if c.RelationMaxDepth < 0 {
		return ErrInvalidRelationDepth
	}
	if c.MaxAttributesPerCollection <= 0 {
		return ErrInvalidAttributeLimit
	}
	if c.MaxIndexesPerCollection <= 0 {
		return ErrInvalidIndexLimit
	}
	if c.StatementTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MetadataNamespace == "" {
		return ErrInvalidNamespace
	}
	return nil
}

// Errors for configuration validation.
var (
	ErrInvalidRelationDepth  = fmt.Errorf("relation max depth must be >= 0")
	ErrInvalidAttributeLimit = fmt.Errorf("max attributes per collection must be positive")
	ErrInvalidIndexLimit     = fmt.Errorf("max indexes per collection must be positive")
	ErrInvalidTimeout        = fmt.Errorf("statement timeout must be positive")
	ErrInvalidNamespace      = fmt.Errorf("metadata namespace must not be empty")
)
