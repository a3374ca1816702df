// Package token defines the lexical tokens produced by the SQL lexer.
//
// Keywords are fixed constants so the parser can switch on them directly.
// Identifiers that collide with non-reserved keywords (KEY, TEMP, ROWS, ...)
// are still usable as names; see IsReserved.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads better than token.Type at call sites
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // identifier or quoted identifier
	NUMBER // 123, 45.67, 1e10, 0x1F
	STRING // 'hello'
	BLOB   // x'CAFE'
	PARAM  // ?, ?1, $1, :name, @name

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	DPIPE    // ||
	EQ       // = or ==
	NE       // != or <>
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	AMP      // &
	PIPE     // |
	LSHIFT   // <<
	RSHIFT   // >>
	TILDE    // ~
	DCOLON   // ::
	DOT      // .
	COMMA    // ,
	LPAREN   // (
	RPAREN   // )
	SEMI     // ;
	LBRACKET // [
	RBRACKET // ]

	keywordStart

	// Keywords (alphabetical)
	ALL
	AND
	AS
	ASC
	AUTOINCREMENT
	BETWEEN
	BY
	CASE
	CAST
	CHECK
	COLLATE
	CONSTRAINT
	CREATE
	CROSS
	CURRENT
	DEFAULT
	DELETE
	DESC
	DISTINCT
	ELSE
	END
	ESCAPE
	EXCEPT
	EXISTS
	FALSE
	FILTER
	FIRST
	FOLLOWING
	FOREIGN
	FROM
	FULL
	GLOB
	GROUP
	HAVING
	IF
	IGNORE
	ILIKE
	IN
	INNER
	INSERT
	INTERSECT
	INTO
	IS
	ISNULL
	JOIN
	KEY
	LAST
	LEFT
	LIKE
	LIMIT
	NATURAL
	NOT
	NOTNULL
	NULL
	NULLS
	OFFSET
	ON
	OR
	ORDER
	OUTER
	OVER
	PARTITION
	PRECEDING
	PRIMARY
	RANGE
	RECURSIVE
	REFERENCES
	REPLACE
	RETURNING
	RIGHT
	ROW
	ROWS
	SELECT
	SET
	TABLE
	TEMP
	TEMPORARY
	THEN
	TRUE
	UNBOUNDED
	UNION
	UNIQUE
	UPDATE
	USING
	VALUES
	WHEN
	WHERE
	WINDOW
	WITH
	WITHOUT

	keywordEnd
)

var tokenNames = map[TokenType]string{
	EOF:      "EOF",
	ILLEGAL:  "ILLEGAL",
	IDENT:    "IDENT",
	NUMBER:   "NUMBER",
	STRING:   "STRING",
	BLOB:     "BLOB",
	PARAM:    "PARAM",
	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	PERCENT:  "%",
	DPIPE:    "||",
	EQ:       "=",
	NE:       "<>",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	AMP:      "&",
	PIPE:     "|",
	LSHIFT:   "<<",
	RSHIFT:   ">>",
	TILDE:    "~",
	DCOLON:   "::",
	DOT:      ".",
	COMMA:    ",",
	LPAREN:   "(",
	RPAREN:   ")",
	SEMI:     ";",
	LBRACKET: "[",
	RBRACKET: "]",
}

var keywords = map[string]TokenType{
	"all":           ALL,
	"and":           AND,
	"as":            AS,
	"asc":           ASC,
	"autoincrement": AUTOINCREMENT,
	"between":       BETWEEN,
	"by":            BY,
	"case":          CASE,
	"cast":          CAST,
	"check":         CHECK,
	"collate":       COLLATE,
	"constraint":    CONSTRAINT,
	"create":        CREATE,
	"cross":         CROSS,
	"current":       CURRENT,
	"default":       DEFAULT,
	"delete":        DELETE,
	"desc":          DESC,
	"distinct":      DISTINCT,
	"else":          ELSE,
	"end":           END,
	"escape":        ESCAPE,
	"except":        EXCEPT,
	"exists":        EXISTS,
	"false":         FALSE,
	"filter":        FILTER,
	"first":         FIRST,
	"following":     FOLLOWING,
	"foreign":       FOREIGN,
	"from":          FROM,
	"full":          FULL,
	"glob":          GLOB,
	"group":         GROUP,
	"having":        HAVING,
	"if":            IF,
	"ignore":        IGNORE,
	"ilike":         ILIKE,
	"in":            IN,
	"inner":         INNER,
	"insert":        INSERT,
	"intersect":     INTERSECT,
	"into":          INTO,
	"is":            IS,
	"isnull":        ISNULL,
	"join":          JOIN,
	"key":           KEY,
	"last":          LAST,
	"left":          LEFT,
	"like":          LIKE,
	"limit":         LIMIT,
	"natural":       NATURAL,
	"not":           NOT,
	"notnull":       NOTNULL,
	"null":          NULL,
	"nulls":         NULLS,
	"offset":        OFFSET,
	"on":            ON,
	"or":            OR,
	"order":         ORDER,
	"outer":         OUTER,
	"over":          OVER,
	"partition":     PARTITION,
	"preceding":     PRECEDING,
	"primary":       PRIMARY,
	"range":         RANGE,
	"recursive":     RECURSIVE,
	"references":    REFERENCES,
	"replace":       REPLACE,
	"returning":     RETURNING,
	"right":         RIGHT,
	"row":           ROW,
	"rows":          ROWS,
	"select":        SELECT,
	"set":           SET,
	"table":         TABLE,
	"temp":          TEMP,
	"temporary":     TEMPORARY,
	"then":          THEN,
	"true":          TRUE,
	"unbounded":     UNBOUNDED,
	"union":         UNION,
	"unique":        UNIQUE,
	"update":        UPDATE,
	"using":         USING,
	"values":        VALUES,
	"when":          WHEN,
	"where":         WHERE,
	"window":        WINDOW,
	"with":          WITH,
	"without":       WITHOUT,
}

// nonReserved keywords may appear wherever an identifier is expected.
var nonReserved = map[TokenType]bool{
	AUTOINCREMENT: true,
	CURRENT:       true,
	FILTER:        true,
	FIRST:         true,
	FOLLOWING:     true,
	IF:            true,
	IGNORE:        true,
	KEY:           true,
	LAST:          true,
	NULLS:         true,
	PARTITION:     true,
	PRECEDING:     true,
	RANGE:         true,
	RECURSIVE:     true,
	REPLACE:       true,
	ROW:           true,
	ROWS:          true,
	TEMP:          true,
	TEMPORARY:     true,
	UNBOUNDED:     true,
	WITHOUT:       true,
}

func init() {
	for word, t := range keywords {
		tokenNames[t] = strings.ToUpper(word)
	}
}

// String returns the display name of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int32(t))
}

// LookupIdent returns the keyword token for a lowercased identifier, or IDENT.
func LookupIdent(ident string) TokenType {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}

// IsKeyword reports whether t is a keyword token.
func IsKeyword(t TokenType) bool {
	return t > keywordStart && t < keywordEnd
}

// IsReserved reports whether t is a keyword that cannot be used as a bare name.
func IsReserved(t TokenType) bool {
	return IsKeyword(t) && !nonReserved[t]
}

// Token is a single lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     int // byte offset just past the token
	// Quoted is set for identifiers written with "..", `..` or [..].
	Quoted bool
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %s", t.Type, t.Literal, t.Pos)
}
