// Package normalize rewrites dialect-specific SQL syntax into the portable
// form the parser and analyzer expect.
//
// The only rewrite today is the Postgres-style cast operator:
//
//	SELECT id::text FROM t         → SELECT CAST(id AS text) FROM t
//	SELECT (a + b)::numeric(10,2)  → SELECT CAST((a + b) AS numeric(10,2))
//	SELECT x::int::text            → SELECT CAST(CAST(x AS int) AS text)
//
// Quoted strings, quoted identifiers and comments are copied verbatim.
package normalize

import "strings"

// RewriteCasts rewrites every expr::type occurrence to CAST(expr AS type).
// Text without "::" is returned unchanged, so the rewrite is idempotent.
// Occurrences whose operand or type cannot be delimited are left as written.
func RewriteCasts(sql string) string {
	if !strings.Contains(sql, "::") {
		return sql
	}
	r := &rewriter{src: sql, out: make([]byte, 0, len(sql)+16)}
	r.run()
	return string(r.out)
}

type rewriter struct {
	src string
	pos int
	out []byte
}

func (r *rewriter) run() {
	for r.pos < len(r.src) {
		ch := r.src[r.pos]
		switch {
		case ch == '\'' || ch == '"':
			r.copyQuoted(ch)
		case ch == '-' && r.peek(1) == '-':
			r.copyLineComment()
		case ch == '/' && r.peek(1) == '*':
			r.copyBlockComment()
		case ch == ':' && r.peek(1) == ':':
			if !r.rewriteCast() {
				r.out = append(r.out, "::"...)
				r.pos += 2
			}
		default:
			r.out = append(r.out, ch)
			r.pos++
		}
	}
}

func (r *rewriter) peek(n int) byte {
	if r.pos+n < len(r.src) {
		return r.src[r.pos+n]
	}
	return 0
}

// copyQuoted copies a quoted run, honoring doubled-quote escapes.
// An unterminated quote runs to the end of input.
func (r *rewriter) copyQuoted(quote byte) {
	start := r.pos
	r.pos++
	for r.pos < len(r.src) {
		if r.src[r.pos] == quote {
			if r.peek(1) == quote {
				r.pos += 2
				continue
			}
			r.pos++
			break
		}
		r.pos++
	}
	r.out = append(r.out, r.src[start:r.pos]...)
}

func (r *rewriter) copyLineComment() {
	end := strings.IndexByte(r.src[r.pos:], '\n')
	if end < 0 {
		end = len(r.src) - r.pos
	}
	r.out = append(r.out, r.src[r.pos:r.pos+end]...)
	r.pos += end
}

func (r *rewriter) copyBlockComment() {
	end := strings.Index(r.src[r.pos+2:], "*/")
	if end < 0 {
		r.out = append(r.out, r.src[r.pos:]...)
		r.pos = len(r.src)
		return
	}
	stop := r.pos + 2 + end + 2
	r.out = append(r.out, r.src[r.pos:stop]...)
	r.pos = stop
}

// rewriteCast handles the "::" at r.pos. It returns false if nothing was rewritten.
func (r *rewriter) rewriteCast() bool {
	exprEnd := len(r.out)
	for exprEnd > 0 && isSpace(r.out[exprEnd-1]) {
		exprEnd--
	}
	exprStart := operandStart(r.out[:exprEnd])
	if exprStart < 0 || exprStart == exprEnd {
		return false
	}

	typeName, n := scanTypeName(r.src[r.pos+2:])
	if typeName == "" {
		return false
	}

	expr := string(r.out[exprStart:exprEnd])
	r.out = r.out[:exprStart]
	if exprStart > 0 && isWordByte(r.out[exprStart-1]) {
		r.out = append(r.out, ' ')
	}
	r.out = append(r.out, "CAST("...)
	r.out = append(r.out, expr...)
	r.out = append(r.out, " AS "...)
	r.out = append(r.out, typeName...)
	r.out = append(r.out, ')')
	r.pos += 2 + n
	return true
}

// operandStart walks back from the end of b over one cast operand and
// returns where it begins, or -1 if b does not end in one.
//
// An operand is a run of adjacent balanced (...) or [...] groups, quoted
// literals and identifier/number chains: fn(x), a.b[1], "t".col, $1.
func operandStart(b []byte) int {
	i := len(b)
	for i > 0 {
		ch := b[i-1]
		switch {
		case ch == ')' || ch == ']':
			j := matchOpen(b[:i])
			if j < 0 {
				return -1
			}
			i = j
		case ch == '\'' || ch == '"':
			j := matchQuoteOpen(b[:i], ch)
			if j < 0 {
				return -1
			}
			i = j
		case isOperandByte(ch):
			j := i
			for j > 0 && isOperandByte(b[j-1]) {
				j--
			}
			// SELECT(x)::int casts the group, not the keyword before it.
			if stopWords[strings.ToUpper(string(b[j:i]))] {
				return i
			}
			// :name and @name parameter markers
			if j > 0 && (b[j-1] == ':' || b[j-1] == '@') && (j == 1 || b[j-2] != ':') {
				j--
			}
			i = j
		default:
			return i
		}
	}
	return i
}

var stopWords = map[string]bool{
	"SELECT": true, "WHERE": true, "AND": true, "OR": true, "NOT": true,
	"ON": true, "IN": true, "BY": true, "WHEN": true, "THEN": true,
	"ELSE": true, "AS": true, "FROM": true, "VALUES": true, "HAVING": true,
	"EXISTS": true, "CASE": true, "RETURNING": true, "USING": true,
}

// matchOpen returns the index of the bracket opening the group that ends b.
func matchOpen(b []byte) int {
	closeCh := b[len(b)-1]
	openCh := byte('(')
	if closeCh == ']' {
		openCh = '['
	}
	depth := 0
	for i := len(b) - 1; i >= 0; i-- {
		switch b[i] {
		case '\'', '"':
			j := matchQuoteOpen(b[:i+1], b[i])
			if j < 0 {
				return -1
			}
			i = j
			continue
		case closeCh:
			depth++
		case openCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchQuoteOpen returns the index of the quote opening the literal that ends b.
func matchQuoteOpen(b []byte, quote byte) int {
	i := len(b) - 2
	for i >= 0 {
		if b[i] == quote {
			if i > 0 && b[i-1] == quote {
				i -= 2
				continue
			}
			return i
		}
		i--
	}
	return -1
}

// scanTypeName reads a type name after "::": identifier, optional (p[,s])
// and any number of [] pairs. It returns the name and bytes consumed.
func scanTypeName(s string) (string, int) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i >= len(s) || !isIdentStart(s[i]) {
		return "", 0
	}
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	end := i

	if i < len(s) && s[i] == '(' {
		k := i + 1
		for k < len(s) && (isDigit(s[k]) || isSpace(s[k]) || s[k] == ',') {
			k++
		}
		if k < len(s) && s[k] == ')' {
			end = k + 1
			i = end
		}
	}

	for i+1 < len(s) && s[i] == '[' && s[i+1] == ']' {
		i += 2
		end = i
	}
	return s[start:end], end
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordByte(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isOperandByte(ch byte) bool {
	return isWordByte(ch) || ch == '.' || ch == '$' || ch == '?'
}
