// Package core defines the shared language of sqltype.
//
// This package contains:
//   - The SQL AST (statements, expressions, table references)
//   - Inferred value types (BaseType, Type) and table metadata (Column, Table)
//   - The analysis error taxonomy (AnalysisError, ErrorKind)
//
// pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
