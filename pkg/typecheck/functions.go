package typecheck

import (
	"github.com/leapstack-labs/sqltype/pkg/core"
)

// FunctionCategory classifies SQL functions by how their result is typed.
type FunctionCategory string

// FunctionCategory constants.
const (
	CategoryAggregate   FunctionCategory = "aggregate"
	CategoryWindow      FunctionCategory = "window"
	CategoryNumeric     FunctionCategory = "numeric"
	CategoryString      FunctionCategory = "string"
	CategoryDate        FunctionCategory = "date"
	CategoryConditional FunctionCategory = "conditional"
	CategoryJSON        FunctionCategory = "json"
	CategoryUtility     FunctionCategory = "utility"
)

// resultRule says how a function's result type is derived from its arguments.
type resultRule int

const (
	// fixed base, nullable if the first argument is (not null without arguments)
	ruleFixed resultRule = iota
	// fixed base, never null
	ruleFixedNotNull
	// fixed base, always nullable
	ruleFixedNullable
	// the first argument's type
	ruleSameAsArg
	// the first argument's type, always nullable (MIN, MAX, LAG, ...)
	ruleArgNullable
	// SUM: Integer or Real following the argument, always nullable
	ruleSum
	// COALESCE/IFNULL: unified type, nullable only if every argument is
	ruleCoalesce
	// NULLIF: the first argument's type, always nullable
	ruleNullIf
	// IIF: unified type of the two result arguments
	ruleIif
	// multi-argument MIN/MAX/GREATEST/LEAST: unified type, nullable if any argument is
	ruleUnify
)

// FunctionInfo describes how the evaluator types one SQL function.
type FunctionInfo struct {
	Name     string
	Category FunctionCategory
	rule     resultRule
	base     core.BaseType
}

// IsAggregate reports whether the function aggregates rows.
func (f FunctionInfo) IsAggregate() bool {
	return f.Category == CategoryAggregate
}

var functionList = []FunctionInfo{
	// Aggregates
	{Name: "COUNT", Category: CategoryAggregate, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "SUM", Category: CategoryAggregate, rule: ruleSum},
	{Name: "TOTAL", Category: CategoryAggregate, rule: ruleFixedNotNull, base: core.Real},
	{Name: "AVG", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Real},
	{Name: "MIN", Category: CategoryAggregate, rule: ruleArgNullable},
	{Name: "MAX", Category: CategoryAggregate, rule: ruleArgNullable},
	{Name: "GROUP_CONCAT", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Text},
	{Name: "STRING_AGG", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Text},
	{Name: "BOOL_AND", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Bool},
	{Name: "BOOL_OR", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Bool},
	{Name: "EVERY", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Bool},
	{Name: "STDDEV", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Real},
	{Name: "VARIANCE", Category: CategoryAggregate, rule: ruleFixedNullable, base: core.Real},
	{Name: "MEDIAN", Category: CategoryAggregate, rule: ruleArgNullable},
	{Name: "ANY_VALUE", Category: CategoryAggregate, rule: ruleArgNullable},

	// Window functions
	{Name: "ROW_NUMBER", Category: CategoryWindow, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "RANK", Category: CategoryWindow, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "DENSE_RANK", Category: CategoryWindow, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "NTILE", Category: CategoryWindow, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "PERCENT_RANK", Category: CategoryWindow, rule: ruleFixedNotNull, base: core.Real},
	{Name: "CUME_DIST", Category: CategoryWindow, rule: ruleFixedNotNull, base: core.Real},
	{Name: "LAG", Category: CategoryWindow, rule: ruleArgNullable},
	{Name: "LEAD", Category: CategoryWindow, rule: ruleArgNullable},
	{Name: "FIRST_VALUE", Category: CategoryWindow, rule: ruleArgNullable},
	{Name: "LAST_VALUE", Category: CategoryWindow, rule: ruleArgNullable},
	{Name: "NTH_VALUE", Category: CategoryWindow, rule: ruleArgNullable},

	// Numeric
	{Name: "ABS", Category: CategoryNumeric, rule: ruleSameAsArg},
	{Name: "CEIL", Category: CategoryNumeric, rule: ruleSameAsArg},
	{Name: "CEILING", Category: CategoryNumeric, rule: ruleSameAsArg},
	{Name: "FLOOR", Category: CategoryNumeric, rule: ruleSameAsArg},
	{Name: "ROUND", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "TRUNC", Category: CategoryNumeric, rule: ruleSameAsArg},
	{Name: "SIGN", Category: CategoryNumeric, rule: ruleFixed, base: core.Integer},
	{Name: "SQRT", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "POW", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "POWER", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "EXP", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "LN", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "LOG", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "LOG10", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "LOG2", Category: CategoryNumeric, rule: ruleFixed, base: core.Real},
	{Name: "MOD", Category: CategoryNumeric, rule: ruleSameAsArg},
	{Name: "PI", Category: CategoryNumeric, rule: ruleFixedNotNull, base: core.Real},
	{Name: "RANDOM", Category: CategoryNumeric, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "GREATEST", Category: CategoryNumeric, rule: ruleUnify},
	{Name: "LEAST", Category: CategoryNumeric, rule: ruleUnify},

	// String
	{Name: "UPPER", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "LOWER", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "TRIM", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "LTRIM", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "RTRIM", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "SUBSTR", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "SUBSTRING", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "REPLACE", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "LEFT", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "RIGHT", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "LPAD", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "RPAD", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "REVERSE", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "HEX", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "QUOTE", Category: CategoryString, rule: ruleFixedNotNull, base: core.Text},
	{Name: "PRINTF", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "FORMAT", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "CONCAT", Category: CategoryString, rule: ruleFixedNotNull, base: core.Text},
	{Name: "CONCAT_WS", Category: CategoryString, rule: ruleFixed, base: core.Text},
	{Name: "LENGTH", Category: CategoryString, rule: ruleFixed, base: core.Integer},
	{Name: "CHAR_LENGTH", Category: CategoryString, rule: ruleFixed, base: core.Integer},
	{Name: "OCTET_LENGTH", Category: CategoryString, rule: ruleFixed, base: core.Integer},
	{Name: "INSTR", Category: CategoryString, rule: ruleFixed, base: core.Integer},
	{Name: "UNICODE", Category: CategoryString, rule: ruleFixed, base: core.Integer},

	// Date and time; invalid input yields NULL
	{Name: "DATE", Category: CategoryDate, rule: ruleFixedNullable, base: core.Text},
	{Name: "TIME", Category: CategoryDate, rule: ruleFixedNullable, base: core.Text},
	{Name: "DATETIME", Category: CategoryDate, rule: ruleFixedNullable, base: core.Text},
	{Name: "STRFTIME", Category: CategoryDate, rule: ruleFixedNullable, base: core.Text},
	{Name: "JULIANDAY", Category: CategoryDate, rule: ruleFixedNullable, base: core.Real},
	{Name: "UNIXEPOCH", Category: CategoryDate, rule: ruleFixedNullable, base: core.Integer},
	{Name: "CURRENT_DATE", Category: CategoryDate, rule: ruleFixedNotNull, base: core.Text},
	{Name: "CURRENT_TIME", Category: CategoryDate, rule: ruleFixedNotNull, base: core.Text},
	{Name: "CURRENT_TIMESTAMP", Category: CategoryDate, rule: ruleFixedNotNull, base: core.Text},
	{Name: "NOW", Category: CategoryDate, rule: ruleFixedNotNull, base: core.Text},

	// Conditional
	{Name: "COALESCE", Category: CategoryConditional, rule: ruleCoalesce},
	{Name: "IFNULL", Category: CategoryConditional, rule: ruleCoalesce},
	{Name: "NULLIF", Category: CategoryConditional, rule: ruleNullIf},
	{Name: "IIF", Category: CategoryConditional, rule: ruleIif},
	{Name: "LIKELY", Category: CategoryConditional, rule: ruleSameAsArg},
	{Name: "UNLIKELY", Category: CategoryConditional, rule: ruleSameAsArg},

	// JSON
	{Name: "JSON", Category: CategoryJSON, rule: ruleFixed, base: core.Text},
	{Name: "JSON_ARRAY", Category: CategoryJSON, rule: ruleFixedNotNull, base: core.Text},
	{Name: "JSON_OBJECT", Category: CategoryJSON, rule: ruleFixedNotNull, base: core.Text},
	{Name: "JSON_EXTRACT", Category: CategoryJSON, rule: ruleFixedNullable, base: core.Unknown},
	{Name: "JSON_ARRAY_LENGTH", Category: CategoryJSON, rule: ruleFixedNullable, base: core.Integer},
	{Name: "JSON_TYPE", Category: CategoryJSON, rule: ruleFixedNullable, base: core.Text},
	{Name: "JSON_VALID", Category: CategoryJSON, rule: ruleFixedNotNull, base: core.Integer},

	// Utility
	{Name: "TYPEOF", Category: CategoryUtility, rule: ruleFixedNotNull, base: core.Text},
	{Name: "CHANGES", Category: CategoryUtility, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "TOTAL_CHANGES", Category: CategoryUtility, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "LAST_INSERT_ROWID", Category: CategoryUtility, rule: ruleFixedNotNull, base: core.Integer},
	{Name: "RANDOMBLOB", Category: CategoryUtility, rule: ruleFixedNotNull, base: core.Unknown},
	{Name: "ZEROBLOB", Category: CategoryUtility, rule: ruleFixed, base: core.Unknown},
	{Name: "GEN_RANDOM_UUID", Category: CategoryUtility, rule: ruleFixedNotNull, base: core.Text},
}

var functions = func() map[string]FunctionInfo {
	m := make(map[string]FunctionInfo, len(functionList))
	for _, f := range functionList {
		m[f.Name] = f
	}
	return m
}()

// LookupFunction returns how the evaluator types the named function.
// Names are upper-case.
func LookupFunction(name string) (FunctionInfo, bool) {
	f, ok := functions[name]
	return f, ok
}

// Functions returns every function the evaluator types, grouped by category.
func Functions() []FunctionInfo {
	out := make([]FunctionInfo, len(functionList))
	copy(out, functionList)
	return out
}

func (c *checker) funcCall(fn *core.FuncCall, sc *Scope) (core.Type, error) {
	if fn.Filter != nil {
		if _, err := c.eval(fn.Filter, sc); err != nil {
			return core.Type{}, err
		}
	}
	if fn.Window != nil {
		if err := c.windowSpec(fn.Window, sc); err != nil {
			return core.Type{}, err
		}
	}

	info, known := functions[fn.Name]
	if known {
		switch info.rule {
		case ruleCoalesce:
			return c.coalesce(fn.Args, sc)
		case ruleIif:
			return c.iif(fn.Args, sc)
		case ruleUnify:
			return c.unifyAll(fn.Args, sc)
		}
		// scalar MIN(a, b) and MAX(a, b)
		if (fn.Name == "MIN" || fn.Name == "MAX") && len(fn.Args) > 1 {
			return c.unifyAll(fn.Args, sc)
		}
	}

	args := make([]core.Type, len(fn.Args))
	for i, a := range fn.Args {
		t, err := c.eval(a, sc)
		if err != nil {
			return core.Type{}, err
		}
		args[i] = t
	}
	if !known {
		return core.UnknownType, nil
	}

	first := core.Type{Base: core.Unknown}
	if len(args) > 0 {
		first = args[0]
	}

	switch info.rule {
	case ruleFixed:
		return core.Type{Base: info.base, Nullable: len(args) > 0 && first.Nullable}, nil
	case ruleFixedNotNull:
		return core.NotNull(info.base), nil
	case ruleFixedNullable:
		return core.Nullable(info.base), nil
	case ruleSameAsArg:
		if len(args) == 0 {
			return core.UnknownType, nil
		}
		return first, nil
	case ruleArgNullable:
		return first.WithNullable(true), nil
	case ruleSum:
		base := core.Real
		switch first.Base {
		case core.Integer, core.Bool:
			base = core.Integer
		case core.Unknown, core.PlaceholderType:
			base = core.Unknown
		}
		return core.Nullable(base), nil
	case ruleNullIf:
		if len(fn.Args) == 2 {
			args[0] = c.infer(fn.Args[0], args[0], args[1])
			args[1] = c.infer(fn.Args[1], args[1], args[0])
		}
		return first.WithNullable(true), nil
	}
	return core.UnknownType, nil
}

// coalesce unifies the arguments. The result is nullable only if every
// argument is.
func (c *checker) coalesce(args []core.Expr, sc *Scope) (core.Type, error) {
	t, types, err := c.unifyArgs(args, sc)
	if err != nil {
		return core.Type{}, err
	}
	nullable := true
	for _, at := range types {
		if !at.Nullable {
			nullable = false
		}
	}
	return t.WithNullable(nullable), nil
}

// unifyAll unifies the arguments. The result is nullable if any argument is.
func (c *checker) unifyAll(args []core.Expr, sc *Scope) (core.Type, error) {
	t, types, err := c.unifyArgs(args, sc)
	if err != nil {
		return core.Type{}, err
	}
	for _, at := range types {
		if at.Nullable {
			t.Nullable = true
		}
	}
	return t, nil
}

// iif types IIF(cond, a, b) like CASE WHEN cond THEN a ELSE b END.
func (c *checker) iif(args []core.Expr, sc *Scope) (core.Type, error) {
	if len(args) != 3 {
		for _, a := range args {
			if _, err := c.eval(a, sc); err != nil {
				return core.Type{}, err
			}
		}
		return core.UnknownType, nil
	}
	if _, err := c.eval(args[0], sc); err != nil {
		return core.Type{}, err
	}
	t, _, err := c.unifyArgs(args[1:], sc)
	return t, err
}

func (c *checker) windowSpec(w *core.WindowSpec, sc *Scope) error {
	for _, e := range w.PartitionBy {
		if _, err := c.eval(e, sc); err != nil {
			return err
		}
	}
	for _, o := range w.OrderBy {
		if _, err := c.eval(o.Expr, sc); err != nil {
			return err
		}
	}
	return nil
}
