package typecheck

import (
	"slices"

	"github.com/leapstack-labs/sqltype/pkg/core"
	"github.com/leapstack-labs/sqltype/pkg/token"
)

// from registers every relation of a FROM clause in sc, applying join
// nullability as it goes.
func (c *checker) from(fc *core.FromClause, sc *Scope) error {
	if _, err := c.tableRef(fc.Source, sc); err != nil {
		return err
	}
	for _, j := range fc.Joins {
		if err := c.join(j, sc); err != nil {
			return err
		}
	}
	return nil
}

// tableRef registers one FROM source and returns the relations it added.
func (c *checker) tableRef(ref core.TableRef, sc *Scope) ([]*relation, error) {
	switch ref := ref.(type) {
	case *core.TableName:
		rel, err := c.namedRelation(ref, sc)
		if err != nil {
			return nil, err
		}
		if err := sc.add(rel, ref.Pos()); err != nil {
			return nil, err
		}
		return []*relation{rel}, nil

	case *core.DerivedTable:
		// A derived table sees the enclosing query's outer frames, not its siblings.
		cols, err := c.selectStmt(ref.Select, sc.parent)
		if err != nil {
			return nil, err
		}
		rel := &relation{kind: relDerived, name: ref.Alias, columns: outputToColumns(cols)}
		if ref.Alias != "" {
			rel.key = sc.norm(ref.Alias)
		}
		if err := sc.add(rel, ref.Pos()); err != nil {
			return nil, err
		}
		return []*relation{rel}, nil

	case *core.ParenTable:
		before := len(sc.relations)
		if err := c.from(ref.From, sc); err != nil {
			return nil, err
		}
		return slices.Clone(sc.relations[before:]), nil
	}
	return nil, nil
}

// namedRelation resolves a table name to a CTE or a catalog table.
// CTEs shadow catalog tables of the same name.
func (c *checker) namedRelation(ref *core.TableName, sc *Scope) (*relation, error) {
	name := ref.EffectiveName()
	rel := &relation{name: name, key: sc.norm(name)}

	if ref.Schema == "" {
		if cte, ok := sc.lookupCTE(ref.Name); ok {
			rel.kind = relCTE
			rel.columns = cte.columns
			return rel, nil
		}
	}
	table, err := c.cat.LookupTable(ref.Name)
	if err != nil {
		return nil, core.UnknownTableError(ref.Name, ref.Pos())
	}
	rel.kind = relTable
	rel.columns = table.Columns
	return rel, nil
}

// join adds the right side of a join and applies its nullability rule:
// LEFT nulls the right side, RIGHT nulls the left, FULL nulls both.
func (c *checker) join(j *core.Join, sc *Scope) error {
	left := slices.Clone(sc.relations)
	right, err := c.tableRef(j.Right, sc)
	if err != nil {
		return err
	}

	switch j.Type {
	case core.JoinLeft:
		right = nullify(sc, right)
	case core.JoinRight:
		left = nullify(sc, left)
	case core.JoinFull:
		left = nullify(sc, left)
		right = nullify(sc, right)
	}

	shared := j.Using
	if j.Natural {
		shared = commonColumns(sc, left, right)
	}
	for _, name := range shared {
		if err := c.mergeUsing(sc, j, name, left, right); err != nil {
			return err
		}
	}

	if j.Condition != nil {
		if _, err := c.eval(j.Condition, sc); err != nil {
			return err
		}
	}
	return nil
}

// nullify replaces rels in sc with copies whose columns are nullable.
func nullify(sc *Scope, rels []*relation) []*relation {
	out := make([]*relation, len(rels))
	for i, r := range rels {
		out[i] = r.nullable()
		sc.replace(r, out[i])
	}
	return out
}

// mergeUsing coalesces a USING column. The merged column takes the left
// side's type unless the join nulls the left side, in which case the
// right side's is used.
func (c *checker) mergeUsing(sc *Scope, j *core.Join, name string, left, right []*relation) error {
	pos := j.Pos()
	leftCol, err := usingSide(sc, name, left, pos)
	if err != nil {
		return err
	}
	rightCol, err := usingSide(sc, name, right, pos)
	if err != nil {
		return err
	}

	merged := leftCol
	if j.Type == core.JoinRight || j.Type == core.JoinFull {
		merged = rightCol
	}
	sc.merge(name, merged)

	key := sc.norm(name)
	for _, r := range right {
		if _, ok := r.column(sc.norm, name); ok {
			if r.hidden == nil {
				r.hidden = make(map[string]bool)
			}
			r.hidden[key] = true
		}
	}
	return nil
}

// usingSide finds the single column called name among rels. A column
// already merged by an earlier USING join counts once.
func usingSide(sc *Scope, name string, rels []*relation, pos token.Position) (core.Column, error) {
	if col, ok := sc.using[sc.norm(name)]; ok && len(rels) > 1 {
		for _, r := range rels {
			if _, has := r.column(sc.norm, name); has {
				return col, nil
			}
		}
	}
	var (
		found   core.Column
		sources []string
	)
	for _, r := range rels {
		if col, ok := r.column(sc.norm, name); ok {
			found = col
			sources = append(sources, r.name)
		}
	}
	switch len(sources) {
	case 0:
		return core.Column{}, core.UnknownColumnError("", name, pos)
	case 1:
		return found, nil
	}
	return core.Column{}, core.AmbiguousColumnError(name, sources, pos)
}

// commonColumns lists the right side's columns that the left side also
// exposes, in the right side's declaration order.
func commonColumns(sc *Scope, left, right []*relation) []string {
	var names []string
	seen := make(map[string]bool)
	for _, r := range right {
		for _, col := range r.columns {
			key := sc.norm(col.Name)
			if seen[key] {
				continue
			}
			for _, l := range left {
				if _, ok := l.column(sc.norm, col.Name); ok {
					names = append(names, col.Name)
					seen[key] = true
					break
				}
			}
		}
	}
	return names
}

func outputToColumns(cols []OutputColumn) []core.Column {
	out := make([]core.Column, len(cols))
	for i, oc := range cols {
		out[i] = core.Column{Name: oc.Name, Type: oc.Type}
	}
	return out
}
