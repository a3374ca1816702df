package typecheck

import (
	"slices"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// relationKind indicates where a relation's columns came from.
type relationKind int

const (
	relTable relationKind = iota
	relCTE
	relDerived
	relOutput // select-list aliases, visible to ORDER BY
)

// relation is one named row source visible in a scope.
type relation struct {
	kind    relationKind
	name    string // effective name as written (alias or table name)
	key     string // normalized name, "" for anonymous derived tables
	columns []core.Column
	// hidden marks right-hand USING/NATURAL columns that * does not repeat.
	hidden map[string]bool
}

func (r *relation) column(norm func(string) string, name string) (core.Column, bool) {
	key := norm(name)
	for _, c := range r.columns {
		if norm(c.Name) == key {
			return c, true
		}
	}
	return core.Column{}, false
}

// nullable returns a copy of r whose columns are all nullable.
func (r *relation) nullable() *relation {
	out := *r
	out.columns = make([]core.Column, len(r.columns))
	for i, c := range r.columns {
		c.Type.Nullable = true
		out.columns[i] = c
	}
	return &out
}

// starColumns returns the columns * expands to, in declaration order.
func (r *relation) starColumns(norm func(string) string) []core.Column {
	if len(r.hidden) == 0 {
		return r.columns
	}
	out := make([]core.Column, 0, len(r.columns))
	for _, c := range r.columns {
		if !r.hidden[norm(c.Name)] {
			out = append(out, c)
		}
	}
	return out
}

// Scope is one frame of name visibility: the relations of a FROM clause,
// the CTEs of a WITH clause, or both. Frames link to their parent so
// correlated subqueries can see outer relations; a frame never copies its
// parent and is discarded after its statement is analyzed.
type Scope struct {
	parent *Scope
	norm   func(string) string

	relations []*relation
	ctes      map[string]*relation
	// using holds coalesced USING/NATURAL columns, which resolve
	// unqualified without ambiguity.
	using map[string]core.Column
}

func newScope(parent *Scope, norm func(string) string) *Scope {
	return &Scope{parent: parent, norm: norm}
}

// child creates a frame nested in s.
func (s *Scope) child() *Scope {
	return newScope(s, s.norm)
}

// add registers a relation in this frame. Two relations may not share a name.
func (s *Scope) add(rel *relation, pos token.Position) error {
	if rel.key != "" && s.local(rel.key) != nil {
		return core.DuplicateAliasError(rel.name, pos)
	}
	s.relations = append(s.relations, rel)
	return nil
}

// replace swaps a relation of this frame for an updated copy.
func (s *Scope) replace(old, updated *relation) {
	if i := slices.Index(s.relations, old); i >= 0 {
		s.relations[i] = updated
	}
}

// local finds a relation of this frame by normalized name.
func (s *Scope) local(key string) *relation {
	for _, r := range s.relations {
		if r.key == key {
			return r
		}
	}
	return nil
}

// addCTE makes a CTE visible to this frame and every frame nested in it.
// One WITH clause may not name two CTEs alike; an inner WITH may shadow.
func (s *Scope) addCTE(rel *relation, pos token.Position) error {
	if _, ok := s.ctes[rel.key]; ok {
		return core.DuplicateAliasError(rel.name, pos)
	}
	if s.ctes == nil {
		s.ctes = make(map[string]*relation)
	}
	s.ctes[rel.key] = rel
	return nil
}

// lookupCTE searches this frame and its parents for a CTE.
func (s *Scope) lookupCTE(name string) (*relation, bool) {
	key := s.norm(name)
	for cur := s; cur != nil; cur = cur.parent {
		if rel, ok := cur.ctes[key]; ok {
			return rel, true
		}
	}
	return nil, false
}

// relation finds a relation by name in this frame, then in the parents.
func (s *Scope) relation(name string) (*relation, bool) {
	key := s.norm(name)
	for cur := s; cur != nil; cur = cur.parent {
		if rel := cur.local(key); rel != nil {
			return rel, true
		}
	}
	return nil, false
}

// resolve looks up a column reference.
//
// A qualified reference resolves against the named relation of the
// innermost frame that has it. An unqualified reference resolves in the
// innermost frame where any relation exposes the column; it must be exposed
// by exactly one relation there unless it is a USING column.
func (s *Scope) resolve(qualifier, column string, pos token.Position) (core.Type, error) {
	if qualifier != "" {
		rel, ok := s.relation(qualifier)
		if !ok {
			return core.Type{}, core.UnknownTableError(qualifier, pos)
		}
		col, ok := rel.column(s.norm, column)
		if !ok {
			return core.Type{}, core.UnknownColumnError(qualifier, column, pos)
		}
		return col.Type, nil
	}

	key := s.norm(column)
	for cur := s; cur != nil; cur = cur.parent {
		if col, ok := cur.using[key]; ok {
			return col.Type, nil
		}
		var (
			found   core.Column
			sources []string
		)
		for _, rel := range cur.relations {
			if col, ok := rel.column(s.norm, column); ok {
				found = col
				sources = append(sources, rel.name)
			}
		}
		switch len(sources) {
		case 0:
			continue
		case 1:
			return found.Type, nil
		default:
			return core.Type{}, core.AmbiguousColumnError(column, sources, pos)
		}
	}
	return core.Type{}, core.UnknownColumnError("", column, pos)
}

// merge records a coalesced USING/NATURAL column in this frame.
func (s *Scope) merge(name string, col core.Column) {
	if s.using == nil {
		s.using = make(map[string]core.Column)
	}
	s.using[s.norm(name)] = col
}
