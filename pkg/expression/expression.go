// Package expression evaluates the arithmetic used by calculated fields.
//
// The grammar is deliberately small:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | primary
//	primary = number | identifier | "(" expr ")"
//
// Identifiers match [A-Za-z_][A-Za-z0-9_.\[\]]* so repeatable instance fields
// such as items[0].price can be referenced directly. There are no function
// calls and no other operators.
package expression

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmpty is returned when the expression contains no tokens.
var ErrEmpty = errors.New("expression: empty expression")

// ExpressionError reports a parse or evaluation failure. Callers treat it as
// a zero result rather than surfacing it to the user.
type ExpressionError struct {
	Expr string
	Err  error
}

func (e *ExpressionError) Error() string {
	if e == nil {
		return "expression: error"
	}
	return fmt.Sprintf("expression: %q: %v", e.Expr, e.Err)
}

func (e *ExpressionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Lookup resolves an identifier to its current field value.
type Lookup func(name string) (any, bool)

// Program is a parsed expression ready for repeated evaluation.
type Program struct {
	source string
	root   node
	idents []string
}

// Parse compiles src into a Program.
func Parse(src string) (*Program, error) {
	trimmed := strings.TrimSpace(src)
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, &ExpressionError{Expr: src, Err: err}
	}
	if len(tokens) == 0 {
		return nil, &ExpressionError{Expr: src, Err: ErrEmpty}
	}
	stream := &tokenStream{tokens: tokens}
	root, err := parseSum(stream)
	if err != nil {
		return nil, &ExpressionError{Expr: src, Err: err}
	}
	if stream.pos < len(stream.tokens) {
		return nil, &ExpressionError{Expr: src, Err: fmt.Errorf("unexpected token %q", stream.tokens[stream.pos].raw)}
	}

	seen := make(map[string]struct{})
	var idents []string
	for _, tok := range tokens {
		if tok.kind != tokenIdentifier {
			continue
		}
		if _, ok := seen[tok.raw]; ok {
			continue
		}
		seen[tok.raw] = struct{}{}
		idents = append(idents, tok.raw)
	}
	return &Program{source: src, root: root, idents: idents}, nil
}

// MustParse panics when src does not compile. Useful for tests.
func MustParse(src string) *Program {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the original expression text.
func (p *Program) Source() string {
	if p == nil {
		return ""
	}
	return p.source
}

// Identifiers lists the distinct identifiers referenced, in order of first use.
func (p *Program) Identifiers() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.idents...)
}

// References reports whether the program reads the given identifier.
func (p *Program) References(name string) bool {
	if p == nil {
		return false
	}
	for _, ident := range p.idents {
		if ident == name {
			return true
		}
	}
	return false
}

// Eval computes the program's value. Missing or non-numeric identifiers,
// division by zero and non-finite results are reported as *ExpressionError.
func (p *Program) Eval(lookup Lookup) (float64, error) {
	if p == nil || p.root == nil {
		return 0, &ExpressionError{Err: ErrEmpty}
	}
	if lookup == nil {
		lookup = func(string) (any, bool) { return nil, false }
	}
	value, err := p.root.eval(lookup)
	if err != nil {
		return 0, &ExpressionError{Expr: p.source, Err: err}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ExpressionError{Expr: p.source, Err: errors.New("result is not a finite number")}
	}
	return value, nil
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdentifier
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '+':
			tokens = append(tokens, token{kind: tokenPlus, raw: "+"})
			i++
		case ch == '-':
			tokens = append(tokens, token{kind: tokenMinus, raw: "-"})
			i++
		case ch == '*':
			tokens = append(tokens, token{kind: tokenStar, raw: "*"})
			i++
		case ch == '/':
			tokens = append(tokens, token{kind: tokenSlash, raw: "/"})
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case isDigit(ch) || ch == '.':
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			// exponent suffix, e.g. 1e3 or 2.5E-2
			if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
				j := i + 1
				if j < len(input) && (input[j] == '+' || input[j] == '-') {
					j++
				}
				if j < len(input) && isDigit(input[j]) {
					i = j
					for i < len(input) && isDigit(input[i]) {
						i++
					}
				}
			}
			raw := input[start:i]
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return nil, fmt.Errorf("invalid number literal %q", raw)
			}
			tokens = append(tokens, token{kind: tokenNumber, raw: raw})
		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdentifier, raw: input[start:i]})
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", ch, i)
		}
	}
	return tokens, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.' || ch == '[' || ch == ']'
}

type node interface {
	eval(lookup Lookup) (float64, error)
}

type numberNode float64

func (n numberNode) eval(Lookup) (float64, error) { return float64(n), nil }

type identNode string

func (n identNode) eval(lookup Lookup) (float64, error) {
	value, ok := lookup(string(n))
	if !ok {
		return 0, fmt.Errorf("unknown identifier %q", string(n))
	}
	num, ok := ToNumber(value)
	if !ok {
		return 0, fmt.Errorf("identifier %q is not numeric", string(n))
	}
	return num, nil
}

type negNode struct {
	inner node
}

func (n negNode) eval(lookup Lookup) (float64, error) {
	v, err := n.inner.eval(lookup)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binaryNode struct {
	op          tokenKind
	left, right node
}

func (n binaryNode) eval(lookup Lookup) (float64, error) {
	l, err := n.left.eval(lookup)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(lookup)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokenPlus:
		return l + r, nil
	case tokenMinus:
		return l - r, nil
	case tokenStar:
		return l * r, nil
	case tokenSlash:
		if r == 0 {
			return 0, errors.New("division by zero")
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unsupported operator")
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseSum(stream *tokenStream) (node, error) {
	left, err := parseProduct(stream)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := stream.matchAny(tokenPlus, tokenMinus)
		if !ok {
			return left, nil
		}
		right, err := parseProduct(stream)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func parseProduct(stream *tokenStream) (node, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := stream.matchAny(tokenStar, tokenSlash)
		if !ok {
			return left, nil
		}
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func parseUnary(stream *tokenStream) (node, error) {
	if stream.match(tokenMinus) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return negNode{inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (node, error) {
	if stream.match(tokenLParen) {
		inner, err := parseSum(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("missing closing ')'")
		}
		return inner, nil
	}
	if tok, ok := stream.consume(tokenNumber); ok {
		v, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number literal %q", tok.raw)
		}
		return numberNode(v), nil
	}
	if tok, ok := stream.consume(tokenIdentifier); ok {
		return identNode(tok.raw), nil
	}
	if stream.pos >= len(stream.tokens) {
		return nil, errors.New("unexpected end of expression")
	}
	return nil, fmt.Errorf("expected operand, got %q", stream.tokens[stream.pos].raw)
}

func (s *tokenStream) match(kind tokenKind) bool {
	_, ok := s.consume(kind)
	return ok
}

func (s *tokenStream) matchAny(kinds ...tokenKind) (tokenKind, bool) {
	for _, kind := range kinds {
		if s.match(kind) {
			return kind, true
		}
	}
	return 0, false
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

// ToNumber coerces a field value into a float64. Strings are parsed after
// trimming; empty strings, nil and other shapes are not numeric.
func ToNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
