package parser

import (
	"testing"

	"github.com/stanzalang/stanza/internal/ast"
)

func parseOne(t *testing.T, src string) ast.Stanza {
	t.Helper()
	prog, err := New().ParseProgram([]byte(src))
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if len(prog.Stanzas) != 1 {
		t.Fatalf("expected 1 stanza, got %d", len(prog.Stanzas))
	}
	return prog.Stanzas[0]
}

func TestParsePatternKeepsBalancedParens(t *testing.T) {
	stanza := parseOne(t, `(function_definition name: (identifier) @name) { node n }`)
	want := "(function_definition name: (identifier) @name)"
	if stanza.Pattern != want {
		t.Fatalf("Pattern = %q, want %q", stanza.Pattern, want)
	}
}

func TestParseCreateGraphNode(t *testing.T) {
	stanza := parseOne(t, `(identifier) @id { node n }`)
	if len(stanza.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stanza.Statements))
	}
	create, ok := stanza.Statements[0].(ast.CreateGraphNode)
	if !ok {
		t.Fatalf("statement is %T, want ast.CreateGraphNode", stanza.Statements[0])
	}
	v, ok := create.Node.(ast.UnscopedVariable)
	if !ok || v.Name != "n" {
		t.Fatalf("Node = %#v, want UnscopedVariable{n}", create.Node)
	}
}

func TestParseCreateEdge(t *testing.T) {
	stanza := parseOne(t, `(identifier) { node a node b edge a -> b }`)
	edge, ok := stanza.Statements[2].(ast.CreateEdge)
	if !ok {
		t.Fatalf("statement is %T, want ast.CreateEdge", stanza.Statements[2])
	}
	src := edge.Source.(ast.UnscopedVariable)
	sink := edge.Sink.(ast.UnscopedVariable)
	if src.Name != "a" || sink.Name != "b" {
		t.Fatalf("edge = %s -> %s, want a -> b", src.Name, sink.Name)
	}
}

func TestParseScopedVariable(t *testing.T) {
	stanza := parseOne(t, `(identifier) @name { let @name.kind = "ident" }`)
	decl := stanza.Statements[0].(ast.DeclareImmutable)
	scoped, ok := decl.Variable.(ast.ScopedVariable)
	if !ok {
		t.Fatalf("Variable is %T, want ast.ScopedVariable", decl.Variable)
	}
	if scoped.Name != "kind" {
		t.Fatalf("Name = %q, want kind", scoped.Name)
	}
	capture, ok := scoped.Scope.(ast.Capture)
	if !ok || capture.Name != "name" {
		t.Fatalf("Scope = %#v, want Capture{name}", scoped.Scope)
	}
	lit, ok := decl.Value.(ast.StringLiteral)
	if !ok || lit.Value != "ident" {
		t.Fatalf("Value = %#v, want StringLiteral{ident}", decl.Value)
	}
}

func TestParseNodeAttrAndEdgeAttr(t *testing.T) {
	stanza := parseOne(t, `(identifier) {
		node a
		node b
		edge a -> b
		attr (a) kind = "foo", exported
		attr (a -> b) weight = 3
	}`)

	nodeAttr, ok := stanza.Statements[3].(ast.AddGraphNodeAttribute)
	if !ok {
		t.Fatalf("statement 3 is %T, want ast.AddGraphNodeAttribute", stanza.Statements[3])
	}
	if len(nodeAttr.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(nodeAttr.Attributes))
	}
	if nodeAttr.Attributes[0].Name != "kind" {
		t.Fatalf("first attribute name = %q, want kind", nodeAttr.Attributes[0].Name)
	}
	if _, ok := nodeAttr.Attributes[1].Value.(ast.TrueLiteral); !ok {
		t.Fatalf("bare attribute %q should default to TrueLiteral, got %#v", nodeAttr.Attributes[1].Name, nodeAttr.Attributes[1].Value)
	}

	edgeAttr, ok := stanza.Statements[4].(ast.AddEdgeAttribute)
	if !ok {
		t.Fatalf("statement 4 is %T, want ast.AddEdgeAttribute", stanza.Statements[4])
	}
	weight := edgeAttr.Attributes[0].Value.(ast.IntegerLiteral)
	if weight.Value != 3 {
		t.Fatalf("weight = %d, want 3", weight.Value)
	}
}

func TestParseVarThenSet(t *testing.T) {
	stanza := parseOne(t, `(identifier) { var x = 1 set x = 2 }`)
	if _, ok := stanza.Statements[0].(ast.DeclareMutable); !ok {
		t.Fatalf("statement 0 is %T, want ast.DeclareMutable", stanza.Statements[0])
	}
	set, ok := stanza.Statements[1].(ast.SetVariable)
	if !ok {
		t.Fatalf("statement 1 is %T, want ast.SetVariable", stanza.Statements[1])
	}
	v := set.Value.(ast.IntegerLiteral)
	if v.Value != 2 {
		t.Fatalf("set value = %d, want 2", v.Value)
	}
}

func TestParseScan(t *testing.T) {
	stanza := parseOne(t, `(identifier) { scan [1, 2, 3] as item { print item } }`)
	scan, ok := stanza.Statements[0].(ast.Scan)
	if !ok {
		t.Fatalf("statement is %T, want ast.Scan", stanza.Statements[0])
	}
	if scan.Variable != "item" {
		t.Fatalf("Variable = %q, want item", scan.Variable)
	}
	list, ok := scan.List.(ast.ListLiteral)
	if !ok || len(list.Elements) != 3 {
		t.Fatalf("List = %#v, want a 3-element ListLiteral", scan.List)
	}
	if len(scan.Body) != 1 {
		t.Fatalf("Body has %d statements, want 1", len(scan.Body))
	}
	if _, ok := scan.Body[0].(ast.Print); !ok {
		t.Fatalf("Body[0] is %T, want ast.Print", scan.Body[0])
	}
}

func TestParseFunctionCall(t *testing.T) {
	stanza := parseOne(t, `(identifier) { let x = concat("a", "b") }`)
	decl := stanza.Statements[0].(ast.DeclareImmutable)
	call, ok := decl.Value.(ast.FunctionCall)
	if !ok {
		t.Fatalf("Value is %T, want ast.FunctionCall", decl.Value)
	}
	if call.Name != "concat" || len(call.Arguments) != 2 {
		t.Fatalf("call = %+v, want concat/2 args", call)
	}
}

func TestParseCapturePositional(t *testing.T) {
	stanza := parseOne(t, `(identifier) @0 { node @0.sym }`)
	create := stanza.Statements[0].(ast.CreateGraphNode)
	scoped := create.Node.(ast.ScopedVariable)
	capture := scoped.Scope.(ast.Capture)
	if capture.Index != 0 {
		t.Fatalf("capture.Index = %d, want 0", capture.Index)
	}
}

func TestParseMultipleStanzas(t *testing.T) {
	prog, err := New().ParseProgram([]byte(`
		(function_definition) @fn { node n }
		(class_definition) @cls { node n }
	`))
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if len(prog.Stanzas) != 2 {
		t.Fatalf("expected 2 stanzas, got %d", len(prog.Stanzas))
	}
}

func TestParseCommentsAreSkipped(t *testing.T) {
	stanza := parseOne(t, `
		;; a leading comment
		(identifier) {
			;; and one inside the block
			node n
		}
	`)
	if len(stanza.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stanza.Statements))
	}
}

func TestParseUnterminatedBlockIsAnError(t *testing.T) {
	_, err := New().ParseProgram([]byte(`(identifier) { node n`))
	if err == nil {
		t.Fatal("expected an error for an unterminated stanza block")
	}
}

func TestParseUnknownStatementIsAnError(t *testing.T) {
	_, err := New().ParseProgram([]byte(`(identifier) { frobnicate n }`))
	if err == nil {
		t.Fatal("expected an error for an unknown statement keyword")
	}
}
