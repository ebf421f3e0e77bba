package queries

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"thoughtgraph/domain/core/valueobjects"
	pkgerrors "thoughtgraph/pkg/errors"
)

// MatchQuery selects thoughts with a boolean expression such as
//
//	tag:rust and (refs:ownership or not id:draft-*)
//
// Leaves are tag:<tag>, refs:<id> (thoughts referencing id), refby:<id>
// (thoughts referenced by id) and id:<glob>. Operators bind not > and > or.
type MatchQuery struct {
	Expr string `json:"expr"`
}

// Validate parses the expression
func (q MatchQuery) Validate() error {
	_, err := ParseMatchExpr(q.Expr)
	return err
}

// MatchExpr is a node of a parsed match expression
type MatchExpr interface {
	String() string
	matchExpr()
}

// TagMatch selects thoughts holding Tag
type TagMatch struct{ Tag valueobjects.TagID }

// RefsMatch selects thoughts with a reference to Target
type RefsMatch struct{ Target valueobjects.ThoughtID }

// RefByMatch selects thoughts that Source references
type RefByMatch struct{ Source valueobjects.ThoughtID }

// IDMatch selects thoughts whose id matches a glob
type IDMatch struct {
	Pattern string
	Glob    glob.Glob
}

// AndMatch is the intersection of its operands
type AndMatch struct{ Left, Right MatchExpr }

// OrMatch is the union of its operands
type OrMatch struct{ Left, Right MatchExpr }

// NotMatch is the complement of X within all thoughts
type NotMatch struct{ X MatchExpr }

func (TagMatch) matchExpr()   {}
func (RefsMatch) matchExpr()  {}
func (RefByMatch) matchExpr() {}
func (IDMatch) matchExpr()    {}
func (AndMatch) matchExpr()   {}
func (OrMatch) matchExpr()    {}
func (NotMatch) matchExpr()   {}

func (m TagMatch) String() string   { return "tag:" + m.Tag.String() }
func (m RefsMatch) String() string  { return "refs:" + m.Target.String() }
func (m RefByMatch) String() string { return "refby:" + m.Source.String() }
func (m IDMatch) String() string    { return "id:" + m.Pattern }
func (m AndMatch) String() string   { return "(" + m.Left.String() + " and " + m.Right.String() + ")" }
func (m OrMatch) String() string    { return "(" + m.Left.String() + " or " + m.Right.String() + ")" }
func (m NotMatch) String() string   { return "not " + m.X.String() }

// ParseMatchExpr parses a match expression. Keywords are case-insensitive.
func ParseMatchExpr(expr string) (MatchExpr, error) {
	p := &matchParser{tokens: tokenize(expr)}
	if len(p.tokens) == 0 {
		return nil, pkgerrors.NewValidationError("match expression is empty")
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.peek(); ok {
		return nil, syntaxError(fmt.Sprintf("unexpected %q", tok), expr)
	}
	return e, nil
}

type matchParser struct {
	tokens []string
	pos    int
}

func tokenize(expr string) []string {
	expr = strings.NewReplacer("(", " ( ", ")", " ) ").Replace(expr)
	return strings.Fields(expr)
}

func (p *matchParser) peek() (string, bool) {
	if p.pos >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.pos], true
}

func (p *matchParser) next() (string, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *matchParser) acceptKeyword(kw string) bool {
	if tok, ok := p.peek(); ok && strings.EqualFold(tok, kw) {
		p.pos++
		return true
	}
	return false
}

func (p *matchParser) parseOr() (MatchExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = OrMatch{Left: left, Right: right}
	}
	return left, nil
}

func (p *matchParser) parseAnd() (MatchExpr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("and") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = AndMatch{Left: left, Right: right}
	}
	return left, nil
}

func (p *matchParser) parseUnary() (MatchExpr, error) {
	if p.acceptKeyword("not") {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NotMatch{X: x}, nil
	}

	tok, ok := p.next()
	if !ok {
		return nil, pkgerrors.NewValidationError("match expression ends unexpectedly")
	}
	if tok == "(" {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing, ok := p.next(); !ok || closing != ")" {
			return nil, pkgerrors.NewValidationError("missing closing parenthesis in match expression")
		}
		return e, nil
	}
	return parseLeaf(tok)
}

func parseLeaf(tok string) (MatchExpr, error) {
	key, value, found := strings.Cut(tok, ":")
	if !found || value == "" {
		return nil, syntaxError(fmt.Sprintf("expected key:value, got %q", tok), tok)
	}

	switch strings.ToLower(key) {
	case "tag":
		id, err := valueobjects.ParseTagID(value)
		if err != nil {
			return nil, err
		}
		return TagMatch{Tag: id}, nil
	case "refs":
		id, err := valueobjects.ParseThoughtID(value)
		if err != nil {
			return nil, err
		}
		return RefsMatch{Target: id}, nil
	case "refby":
		id, err := valueobjects.ParseThoughtID(value)
		if err != nil {
			return nil, err
		}
		return RefByMatch{Source: id}, nil
	case "id":
		g, err := glob.Compile(value)
		if err != nil {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid id pattern %q", value)).WithCause(err)
		}
		return IDMatch{Pattern: value, Glob: g}, nil
	default:
		return nil, syntaxError(fmt.Sprintf("unknown match key %q", key), tok)
	}
}

func syntaxError(msg, expr string) error {
	return pkgerrors.NewValidationError("invalid match expression: "+msg).WithDetail("expr", expr)
}
