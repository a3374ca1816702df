package core

import (
	"fmt"
	"strings"
)

// BaseType is the primitive category of an inferred SQL value.
type BaseType int

// BaseType constants. The set is closed.
const (
	Unknown BaseType = iota
	Integer
	Real
	Text
	Bool
	Null
	PlaceholderType
)

var baseTypeNames = map[BaseType]string{
	Unknown:         "unknown",
	Integer:         "integer",
	Real:            "real",
	Text:            "text",
	Bool:            "bool",
	Null:            "null",
	PlaceholderType: "placeholder",
}

func (b BaseType) String() string {
	if name, ok := baseTypeNames[b]; ok {
		return name
	}
	return fmt.Sprintf("basetype(%d)", int(b))
}

// ParseBaseType is the inverse of BaseType.String.
func ParseBaseType(s string) (BaseType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for b, name := range baseTypeNames {
		if name == s {
			return b, nil
		}
	}
	return Unknown, fmt.Errorf("unknown base type %q", s)
}

// IsNumeric reports whether b is Integer or Real.
func (b BaseType) IsNumeric() bool {
	return b == Integer || b == Real
}

// MarshalText implements encoding.TextMarshaler (JSON and YAML use it).
func (b BaseType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BaseType) UnmarshalText(text []byte) error {
	v, err := ParseBaseType(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Type is an inferred base type plus nullability.
type Type struct {
	Base     BaseType `json:"type" yaml:"type"`
	Nullable bool     `json:"nullable" yaml:"nullable"`
}

// NotNull returns a non-nullable Type of base b.
func NotNull(b BaseType) Type { return Type{Base: b} }

// Nullable returns a nullable Type of base b.
func Nullable(b BaseType) Type { return Type{Base: b, Nullable: true} }

// UnknownType is the permissive fallback for constructs the evaluator does not model.
var UnknownType = Type{Base: Unknown, Nullable: true}

// WithNullable returns a copy of t with the given nullability.
func (t Type) WithNullable(nullable bool) Type {
	t.Nullable = nullable
	return t
}

func (t Type) String() string {
	if t.Nullable {
		return t.Base.String() + " null"
	}
	return t.Base.String() + " not null"
}

// PromoteBase returns the common base type of a and b.
//
// Equal bases unify to themselves, Integer promotes to Real, and Null or
// PlaceholderType yield to the other side. Unknown absorbs everything. Any
// other pairing is incompatible and reports ok=false.
func PromoteBase(a, b BaseType) (BaseType, bool) {
	switch {
	case a == b:
		return a, true
	case a == Unknown || b == Unknown:
		return Unknown, true
	case a == Null || a == PlaceholderType:
		return b, true
	case b == Null || b == PlaceholderType:
		return a, true
	case a.IsNumeric() && b.IsNumeric():
		return Real, true
	}
	return Unknown, false
}

// Union unifies two types the way a set operation or CASE arm does:
// bases promote and nullability is OR-combined.
func Union(a, b Type) (Type, bool) {
	base, ok := PromoteBase(a.Base, b.Base)
	return Type{Base: base, Nullable: a.Nullable || b.Nullable}, ok
}

// Column describes one column of a catalog table.
type Column struct {
	Name       string `json:"name" yaml:"name"`
	Type       Type   `json:"type" yaml:"type"`
	HasDefault bool   `json:"has_default" yaml:"has_default"`
	// Check is the raw text of the column's CHECK constraint, if any.
	Check string `json:"check,omitempty" yaml:"check,omitempty"`
	// DeclaredType is the SQL type name as written in DDL.
	DeclaredType string `json:"declared_type,omitempty" yaml:"declared_type,omitempty"`
}

// Mandatory reports whether an INSERT must supply this column.
func (c Column) Mandatory() bool {
	return !c.Type.Nullable && !c.HasDefault
}

// Table is an ordered, named list of columns.
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column looks up a column by case-insensitive name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
