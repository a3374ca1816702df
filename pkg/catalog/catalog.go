// Package catalog holds the table and column metadata queries are checked against.
//
// A Catalog is built once by replaying CREATE TABLE statements through a
// Builder and is immutable afterwards:
//
//	b := catalog.NewBuilder(catalog.WithDialect(dialect.SQLite))
//	if err := b.RegisterScript(ddl); err != nil { ... }
//	cat := b.Build()
//
// Snapshots returned by Build share no mutable state with the builder, so
// any number of analyses may read one concurrently without locking.
package catalog

import (
	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/dialect"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// Catalog is an immutable name → table map.
type Catalog struct {
	dialect *dialect.Dialect
	tables  []*core.Table
	byName  map[string]*core.Table
}

// Empty returns a catalog with no tables.
func Empty() *Catalog {
	return NewBuilder().Build()
}

// LookupTable returns the table registered under name. Names compare after
// dialect normalization. A missing table is a core.KindUnknownTable error.
func (c *Catalog) LookupTable(name string) (*core.Table, error) {
	if t, ok := c.byName[c.dialect.NormalizeName(name)]; ok {
		return t, nil
	}
	return nil, core.UnknownTableError(name, token.Position{})
}

// HasTable reports whether a table is registered under name.
func (c *Catalog) HasTable(name string) bool {
	_, ok := c.byName[c.dialect.NormalizeName(name)]
	return ok
}

// Tables returns every table in registration order. Callers must not
// modify the returned tables.
func (c *Catalog) Tables() []*core.Table {
	out := make([]*core.Table, len(c.tables))
	copy(out, c.tables)
	return out
}

// TableNames returns the table names in registration order.
func (c *Catalog) TableNames() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	return len(c.tables)
}

// Dialect returns the dialect used to normalize table names.
func (c *Catalog) Dialect() *dialect.Dialect {
	return c.dialect
}
