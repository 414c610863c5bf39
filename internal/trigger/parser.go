package trigger

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Context field names recognized by the condition grammar.
const (
	fieldBranchCommits = "branch_commits"
	fieldSinceRole     = "iterations_since_role"
	fieldLastFailed    = "last_iteration_failed"
	fieldReady         = "task_marked_ready_to_complete"
	fieldTaskTitle     = "task_title"
	kwContains         = "contains"
)

// Parse compiles a condition string into an expression tree. Conditions
// are parsed once at load time and evaluated many times.
//
// Grammar:
//
//	expr       := and { "||" and }
//	and        := unary { "&&" unary }
//	unary      := [ "!" ] primary
//	primary    := "(" expr ")" | comparison | flag | contains
//	comparison := numfield ( ">=" | "<" | "==" ) number
//	numfield   := "branch_commits" | "iterations_since_role" "(" string ")"
//	flag       := "last_iteration_failed" | "task_marked_ready_to_complete"
//	contains   := "task_title" "contains" string
func Parse(condition string) (Expr, error) {
	toks, err := tokenize(condition)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("unexpected %q after expression", p.peek().text)
	}
	return expr, nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOp // >=, <, ==, &&, ||, !, (, )
)

type token struct {
	text string
	kind tokenKind
}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(' || c == ')' || c == '!':
			// "!" must not swallow "!=" (unsupported, reject later)
			if c == '!' && i+1 < len(s) && s[i+1] == '=' {
				return nil, fmt.Errorf("unsupported operator %q", "!=")
			}
			toks = append(toks, token{kind: tokOp, text: string(c)})
			i++
		case c == '>' || c == '=':
			if i+1 >= len(s) || s[i+1] != '=' {
				return nil, fmt.Errorf("unsupported operator %q", string(c))
			}
			toks = append(toks, token{kind: tokOp, text: s[i : i+2]})
			i += 2
		case c == '<':
			toks = append(toks, token{kind: tokOp, text: "<"})
			i++
		case c == '&' || c == '|':
			if i+1 >= len(s) || s[i+1] != c {
				return nil, fmt.Errorf("unsupported operator %q", string(c))
			}
			toks = append(toks, token{kind: tokOp, text: s[i : i+2]})
			i += 2
		case c == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: s[i+1 : i+1+end]})
			i += end + 2
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: s[i:j]})
			i = j
		case isIdentRune(rune(c)):
			j := i
			for j < len(s) && isIdentRune(rune(s[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	return toks, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek() token {
	if p.eof() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) accept(kind tokenKind, text string) bool {
	if p.eof() {
		return false
	}
	t := p.toks[p.pos]
	if t.kind == kind && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, text string) error {
	if p.accept(kind, text) {
		return nil
	}
	if p.eof() {
		return fmt.Errorf("expected %q, got end of condition", text)
	}
	return fmt.Errorf("expected %q, got %q", text, p.peek().text)
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOp, "||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokOp, "&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.accept(tokOp, "!") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	if p.accept(tokOp, "(") {
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokOp, ")"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	if p.eof() || p.peek().kind != tokIdent {
		return nil, fmt.Errorf("expected context field, got %q", p.peek().text)
	}
	ident := p.next().text

	switch ident {
	case fieldLastFailed, fieldReady:
		return &flagExpr{name: ident}, nil

	case fieldTaskTitle:
		if err := p.expect(tokIdent, kwContains); err != nil {
			return nil, err
		}
		if p.eof() || p.peek().kind != tokString {
			return nil, fmt.Errorf("%s contains requires a quoted string", fieldTaskTitle)
		}
		return &containsExpr{needle: p.next().text}, nil

	case fieldBranchCommits:
		return p.parseComparison(fieldBranchCommits, "")

	case fieldSinceRole:
		if err := p.expect(tokOp, "("); err != nil {
			return nil, err
		}
		if p.eof() || p.peek().kind != tokString {
			return nil, fmt.Errorf("%s requires a quoted role name", fieldSinceRole)
		}
		role := p.next().text
		if err := p.expect(tokOp, ")"); err != nil {
			return nil, err
		}
		return p.parseComparison(fieldSinceRole, role)

	default:
		return nil, fmt.Errorf("unknown context field %q", ident)
	}
}

func (p *parser) parseComparison(field, role string) (Expr, error) {
	var op cmpOp
	switch {
	case p.accept(tokOp, ">="):
		op = opGE
	case p.accept(tokOp, "<"):
		op = opLT
	case p.accept(tokOp, "=="):
		op = opEQ
	default:
		return nil, fmt.Errorf("%s requires a comparison (>=, <, ==)", field)
	}
	if p.eof() || p.peek().kind != tokNumber {
		return nil, fmt.Errorf("%s comparison requires a number", field)
	}
	n, err := strconv.Atoi(p.next().text)
	if err != nil {
		return nil, fmt.Errorf("parse number: %w", err)
	}
	return &cmpExpr{field: field, role: role, op: op, value: n}, nil
}
