// Package parser turns stanza source text into an ast.Program, and
// separately compiles a stanza's pattern text into a tree-sitter query
// that can be matched against a parsed syntax tree (query.go).
//
// The statement-block grammar (node/edge/attr/let/var/set/scan/print)
// is grounded on the worked examples in
// original_source/tests/it/parser.rs; the pattern itself is not a
// stanza-specific grammar at all — it is tree-sitter's own query
// S-expression syntax, compiled by query.go rather than this file.
package parser

import (
	"fmt"

	"github.com/stanzalang/stanza/internal/ast"
)

// Parser is a recursive-descent parser for one stanza source file. It
// holds no state across ParseProgram calls.
type Parser struct{}

// New returns a Parser. Stateless; kept as a type for symmetry with
// the rest of the package and room for future options (e.g. a strict
// mode rejecting unknown builtins at parse time).
func New() *Parser { return &Parser{} }

type parseState struct {
	lex *lexer
	cur token
}

func (p *Parser) ParseProgram(source []byte) (*ast.Program, error) {
	st := &parseState{lex: newLexer(source)}
	if err := st.advance(); err != nil {
		return nil, err
	}

	var program ast.Program
	for st.cur.kind != tokEOF {
		stanza, err := st.parseStanza()
		if err != nil {
			return nil, err
		}
		program.Stanzas = append(program.Stanzas, stanza)
	}
	return &program, nil
}

func (st *parseState) advance() error {
	t, err := st.lex.next()
	if err != nil {
		return err
	}
	st.cur = t
	return nil
}

func (st *parseState) expectPunct(text string) error {
	if st.cur.kind != tokPunct || st.cur.text != text {
		return &syntaxError{loc: st.cur.loc, msg: fmt.Sprintf("expected %q, got %q", text, st.cur.text)}
	}
	return st.advance()
}

func (st *parseState) expectKeyword(text string) error {
	if st.cur.kind != tokKeyword || st.cur.text != text {
		return &syntaxError{loc: st.cur.loc, msg: fmt.Sprintf("expected keyword %q, got %q", text, st.cur.text)}
	}
	return st.advance()
}

type syntaxError struct {
	loc ast.Location
	msg string
}

func (e *syntaxError) Error() string { return fmt.Sprintf("%s: %s", e.loc, e.msg) }

func (st *parseState) parseStanza() (ast.Stanza, error) {
	// The pattern's opening '(' has already been lexed into st.cur as a
	// one-byte token; step the lexer back over it so readBalanced reads
	// the whole pattern.
	if st.cur.kind != tokPunct || st.cur.text != "(" {
		return ast.Stanza{}, &syntaxError{loc: st.cur.loc, msg: fmt.Sprintf("expected '(' to start a stanza pattern, got %q", st.cur.text)}
	}
	st.lex.pos--
	st.lex.col--
	pattern, loc, err := st.lex.readBalanced()
	if err != nil {
		return ast.Stanza{}, err
	}
	if err := st.advance(); err != nil {
		return ast.Stanza{}, err
	}

	if err := st.expectPunct("{"); err != nil {
		return ast.Stanza{}, err
	}
	var stmts []ast.Statement
	for !(st.cur.kind == tokPunct && st.cur.text == "}") {
		if st.cur.kind == tokEOF {
			return ast.Stanza{}, &syntaxError{loc: st.cur.loc, msg: "unterminated stanza block"}
		}
		stmt, err := st.parseStatement()
		if err != nil {
			return ast.Stanza{}, err
		}
		stmts = append(stmts, stmt)
	}
	if err := st.advance(); err != nil {
		return ast.Stanza{}, err
	}

	return ast.Stanza{Pattern: pattern, Statements: stmts, Location: loc}, nil
}

func (st *parseState) parseStatement() (ast.Statement, error) {
	loc := st.cur.loc
	if st.cur.kind != tokKeyword {
		return nil, &syntaxError{loc: loc, msg: fmt.Sprintf("expected statement keyword, got %q", st.cur.text)}
	}

	switch st.cur.text {
	case "node":
		if err := st.advance(); err != nil {
			return nil, err
		}
		v, err := st.parseVariable()
		if err != nil {
			return nil, err
		}
		return ast.CreateGraphNode{Node: v, Location: loc}, nil

	case "edge":
		if err := st.advance(); err != nil {
			return nil, err
		}
		src, err := st.parseVariable()
		if err != nil {
			return nil, err
		}
		if err := st.expectPunct("->"); err != nil {
			return nil, err
		}
		sink, err := st.parseVariable()
		if err != nil {
			return nil, err
		}
		return ast.CreateEdge{Source: src, Sink: sink, Location: loc}, nil

	case "attr":
		return st.parseAttr(loc)

	case "let":
		v, e, err := st.parseBinding()
		if err != nil {
			return nil, err
		}
		return ast.DeclareImmutable{Variable: v, Value: e, Location: loc}, nil

	case "var":
		v, e, err := st.parseBinding()
		if err != nil {
			return nil, err
		}
		return ast.DeclareMutable{Variable: v, Value: e, Location: loc}, nil

	case "set":
		v, e, err := st.parseBinding()
		if err != nil {
			return nil, err
		}
		return ast.SetVariable{Variable: v, Value: e, Location: loc}, nil

	case "scan":
		return st.parseScan(loc)

	case "print":
		return st.parsePrint(loc)

	default:
		return nil, &syntaxError{loc: loc, msg: fmt.Sprintf("unknown statement %q", st.cur.text)}
	}
}

// parseBinding parses `<keyword> Variable = Expr`, with the keyword
// already positioned at st.cur.
func (st *parseState) parseBinding() (ast.Variable, ast.Expression, error) {
	if err := st.advance(); err != nil {
		return nil, nil, err
	}
	v, err := st.parseVariable()
	if err != nil {
		return nil, nil, err
	}
	if err := st.expectPunct("="); err != nil {
		return nil, nil, err
	}
	e, err := st.parseExpression()
	if err != nil {
		return nil, nil, err
	}
	return v, e, nil
}

func (st *parseState) parseAttr(loc ast.Location) (ast.Statement, error) {
	if err := st.advance(); err != nil {
		return nil, err
	}
	if err := st.expectPunct("("); err != nil {
		return nil, err
	}
	first, err := st.parseVariable()
	if err != nil {
		return nil, err
	}

	var isEdge bool
	var sink ast.Variable
	if st.cur.kind == tokPunct && st.cur.text == "->" {
		isEdge = true
		if err := st.advance(); err != nil {
			return nil, err
		}
		sink, err = st.parseVariable()
		if err != nil {
			return nil, err
		}
	}
	if err := st.expectPunct(")"); err != nil {
		return nil, err
	}

	attrs, err := st.parseAttrList()
	if err != nil {
		return nil, err
	}

	if isEdge {
		return ast.AddEdgeAttribute{Source: first, Sink: sink, Attributes: attrs, Location: loc}, nil
	}
	return ast.AddGraphNodeAttribute{Node: first, Attributes: attrs, Location: loc}, nil
}

func (st *parseState) parseAttrList() ([]ast.Attribute, error) {
	var attrs []ast.Attribute
	for {
		if st.cur.kind != tokIdent {
			return nil, &syntaxError{loc: st.cur.loc, msg: fmt.Sprintf("expected attribute name, got %q", st.cur.text)}
		}
		name := ast.Identifier(st.cur.text)
		if err := st.advance(); err != nil {
			return nil, err
		}
		var value ast.Expression = ast.TrueLiteral{Location: st.cur.loc}
		if st.cur.kind == tokPunct && st.cur.text == "=" {
			if err := st.advance(); err != nil {
				return nil, err
			}
			v, err := st.parseExpression()
			if err != nil {
				return nil, err
			}
			value = v
		}
		attrs = append(attrs, ast.Attribute{Name: name, Value: value})

		if st.cur.kind == tokPunct && st.cur.text == "," {
			if err := st.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return attrs, nil
}

func (st *parseState) parseScan(loc ast.Location) (ast.Statement, error) {
	if err := st.advance(); err != nil {
		return nil, err
	}
	listExpr, err := st.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := st.expectKeywordLike("as"); err != nil {
		return nil, err
	}
	if st.cur.kind != tokIdent {
		return nil, &syntaxError{loc: st.cur.loc, msg: "expected loop variable name after 'as'"}
	}
	name := ast.Identifier(st.cur.text)
	if err := st.advance(); err != nil {
		return nil, err
	}
	if err := st.expectPunct("{"); err != nil {
		return nil, err
	}
	var body []ast.Statement
	for !(st.cur.kind == tokPunct && st.cur.text == "}") {
		if st.cur.kind == tokEOF {
			return nil, &syntaxError{loc: st.cur.loc, msg: "unterminated scan block"}
		}
		stmt, err := st.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if err := st.advance(); err != nil {
		return nil, err
	}
	return ast.Scan{List: listExpr, Variable: name, Body: body, Location: loc}, nil
}

// expectKeywordLike matches a soft keyword lexed as a plain
// identifier (e.g. "as"), since the lexer's reserved-word set is
// limited to statement-leading keywords.
func (st *parseState) expectKeywordLike(text string) error {
	if st.cur.kind != tokIdent || st.cur.text != text {
		return &syntaxError{loc: st.cur.loc, msg: fmt.Sprintf("expected %q, got %q", text, st.cur.text)}
	}
	return st.advance()
}

func (st *parseState) parsePrint(loc ast.Location) (ast.Statement, error) {
	if err := st.advance(); err != nil {
		return nil, err
	}
	values, err := st.parseExpressionList()
	if err != nil {
		return nil, err
	}
	return ast.Print{Values: values, Location: loc}, nil
}

func (st *parseState) parseExpressionList() ([]ast.Expression, error) {
	var values []ast.Expression
	for {
		e, err := st.parseExpression()
		if err != nil {
			return nil, err
		}
		values = append(values, e)
		if st.cur.kind == tokPunct && st.cur.text == "," {
			if err := st.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return values, nil
}

// parseVariable parses the Variable production: a plain identifier
// (UnscopedVariable) or a capture-scoped one (`@cap.name`).
func (st *parseState) parseVariable() (ast.Variable, error) {
	loc := st.cur.loc
	if st.cur.kind == tokCapture {
		capture, err := st.parseCapture()
		if err != nil {
			return nil, err
		}
		if err := st.expectPunct("."); err != nil {
			return nil, err
		}
		if st.cur.kind != tokIdent {
			return nil, &syntaxError{loc: st.cur.loc, msg: "expected field name after '.'"}
		}
		name := ast.Identifier(st.cur.text)
		if err := st.advance(); err != nil {
			return nil, err
		}
		return ast.ScopedVariable{Scope: capture, Name: name, Location: loc}, nil
	}
	if st.cur.kind != tokIdent {
		return nil, &syntaxError{loc: loc, msg: fmt.Sprintf("expected a variable, got %q", st.cur.text)}
	}
	name := ast.Identifier(st.cur.text)
	if err := st.advance(); err != nil {
		return nil, err
	}
	return ast.UnscopedVariable{Name: name, Location: loc}, nil
}

func (st *parseState) parseCapture() (ast.Capture, error) {
	loc := st.cur.loc
	text := st.cur.text
	if err := st.advance(); err != nil {
		return ast.Capture{}, err
	}
	if n, err := parseInteger(text); err == nil {
		return ast.Capture{Index: int(n), Location: loc}, nil
	}
	return ast.Capture{Name: ast.Identifier(text), Location: loc}, nil
}

func (st *parseState) parseExpression() (ast.Expression, error) {
	loc := st.cur.loc
	switch st.cur.kind {
	case tokIdent:
		switch st.cur.text {
		case "#true":
			if err := st.advance(); err != nil {
				return nil, err
			}
			return ast.TrueLiteral{Location: loc}, nil
		case "#false":
			if err := st.advance(); err != nil {
				return nil, err
			}
			return ast.FalseLiteral{Location: loc}, nil
		case "#null":
			if err := st.advance(); err != nil {
				return nil, err
			}
			return ast.NullLiteral{Location: loc}, nil
		}
		name := ast.Identifier(st.cur.text)
		if err := st.advance(); err != nil {
			return nil, err
		}
		if st.cur.kind == tokPunct && st.cur.text == "(" {
			return st.parseFunctionCallArgs(name, loc)
		}
		return ast.UnscopedVariable{Name: name, Location: loc}, nil

	case tokInteger:
		n, err := parseInteger(st.cur.text)
		if err != nil {
			return nil, &syntaxError{loc: loc, msg: err.Error()}
		}
		if err := st.advance(); err != nil {
			return nil, err
		}
		return ast.IntegerLiteral{Value: n, Location: loc}, nil

	case tokString:
		value := st.cur.text
		if err := st.advance(); err != nil {
			return nil, err
		}
		return ast.StringLiteral{Value: value, Location: loc}, nil

	case tokCapture:
		capture, err := st.parseCapture()
		if err != nil {
			return nil, err
		}
		if st.cur.kind == tokPunct && st.cur.text == "." {
			if err := st.advance(); err != nil {
				return nil, err
			}
			if st.cur.kind != tokIdent {
				return nil, &syntaxError{loc: st.cur.loc, msg: "expected field name after '.'"}
			}
			name := ast.Identifier(st.cur.text)
			if err := st.advance(); err != nil {
				return nil, err
			}
			return ast.ScopedVariable{Scope: capture, Name: name, Location: loc}, nil
		}
		return capture, nil

	case tokPunct:
		if st.cur.text == "[" {
			return st.parseList(loc)
		}
	}
	return nil, &syntaxError{loc: loc, msg: fmt.Sprintf("unexpected token %q in expression", st.cur.text)}
}

func (st *parseState) parseFunctionCallArgs(name ast.Identifier, loc ast.Location) (ast.Expression, error) {
	if err := st.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []ast.Expression
	if !(st.cur.kind == tokPunct && st.cur.text == ")") {
		list, err := st.parseExpressionList()
		if err != nil {
			return nil, err
		}
		args = list
	}
	if err := st.expectPunct(")"); err != nil {
		return nil, err
	}
	return ast.FunctionCall{Name: name, Arguments: args, Location: loc}, nil
}

func (st *parseState) parseList(loc ast.Location) (ast.Expression, error) {
	if err := st.advance(); err != nil { // consume '['
		return nil, err
	}
	var elements []ast.Expression
	for !(st.cur.kind == tokPunct && st.cur.text == "]") {
		e, err := st.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
		if st.cur.kind == tokPunct && st.cur.text == "," {
			if err := st.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := st.expectPunct("]"); err != nil {
		return nil, err
	}
	return ast.ListLiteral{Elements: elements, Location: loc}, nil
}
