package core

import "github.com/leapstack-labs/sqltype/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
}

// Expr is a marker interface for expression nodes.
//
// The set of expression nodes is closed: every implementation lives in this
// package, so consumers can switch over them exhaustively.
type Expr interface {
	Node
	exprNode()
}

// Statement is a marker interface for top-level statements.
type Statement interface {
	Node
	stmtNode()
}

// TableRef is a marker interface for FROM-clause sources.
type TableRef interface {
	Node
	tableRefNode()
}

// NodeInfo carries the source span of a node. Embed it in node types.
type NodeInfo struct {
	Span token.Span
}

// Pos implements Node.
func (n *NodeInfo) Pos() token.Position { return n.Span.Start }

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span { return n.Span }
