package execution_test

import (
	"testing"

	"github.com/stanzalang/stanza/internal/execution"
	"github.com/stanzalang/stanza/internal/parser"
)

func runProgram(t *testing.T, source string, matchesPerStanza [][]execution.Match) *execution.RunContext {
	t.Helper()
	program, err := parser.New().ParseProgram([]byte(source))
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if matchesPerStanza == nil {
		matchesPerStanza = make([][]execution.Match, len(program.Stanzas))
		for i := range matchesPerStanza {
			matchesPerStanza[i] = []execution.Match{{}}
		}
	}
	rc := execution.NewRunContext(nil, nil)
	if err := execution.NewInterpreter(nil).Run(rc, program, matchesPerStanza); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return rc
}

func TestInterpreterCreatesNodeAndEdge(t *testing.T) {
	rc := runProgram(t, `(identifier) { node a node b edge a -> b }`, nil)

	if len(rc.Graph().Nodes()) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(rc.Graph().Nodes()))
	}
	edges := rc.Graph().Edges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Source != 0 || edges[0].Sink != 1 {
		t.Fatalf("edge = %+v, want 0 -> 1", edges[0])
	}
}

func TestInterpreterAttrEdgeReusesEarlierEdge(t *testing.T) {
	rc := runProgram(t, `(identifier) {
		node a
		node b
		edge a -> b
		attr (a -> b) weight = 7
	}`, nil)

	edges := rc.Graph().Edges()
	if len(edges) != 1 {
		t.Fatalf("expected attr(a -> b) to reuse the earlier edge, got %d edges", len(edges))
	}
	attrs := rc.Graph().EdgeAttributes(edges[0].ID)
	weight, ok := attrs["weight"].AsInteger()
	if !ok || weight != 7 {
		t.Fatalf("weight attribute = %#v, want integer 7", attrs["weight"])
	}
}

func TestInterpreterNodeAttribute(t *testing.T) {
	rc := runProgram(t, `(identifier) {
		node a
		attr (a) kind = "function", exported
	}`, nil)

	attrs := rc.Graph().NodeAttributes(0)
	kind, ok := attrs["kind"].AsString()
	if !ok || kind != "function" {
		t.Fatalf("kind attribute = %#v, want string \"function\"", attrs["kind"])
	}
	exported, ok := attrs["exported"].AsBool()
	if !ok || !exported {
		t.Fatalf("exported attribute = %#v, want bool true", attrs["exported"])
	}
}

func TestInterpreterVarThenSetIsLastWriterWins(t *testing.T) {
	rc := runProgram(t, `(identifier) {
		node a
		var x = 1
		set x = 2
		attr (a) value = x
	}`, nil)

	value, ok := rc.Graph().NodeAttributes(0)["value"].AsInteger()
	if !ok || value != 2 {
		t.Fatalf("value attribute = %#v, want integer 2", value)
	}
}

func TestInterpreterSetOnImmutableIsRejected(t *testing.T) {
	program, err := parser.New().ParseProgram([]byte(`(identifier) {
		let x = 1
		set x = 2
	}`))
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	rc := execution.NewRunContext(nil, nil)
	err = execution.NewInterpreter(nil).Run(rc, program, [][]execution.Match{{{}}})
	if err == nil {
		t.Fatal("expected an error setting an immutable (let) variable")
	}
}

func TestInterpreterScanBindsEachElement(t *testing.T) {
	rc := runProgram(t, `(identifier) {
		scan [10, 20, 30] as item {
			node n
			attr (n) value = item
		}
	}`, nil)

	if len(rc.Graph().Nodes()) != 3 {
		t.Fatalf("expected 3 nodes (one per scan element), got %d", len(rc.Graph().Nodes()))
	}
	var got []int64
	for _, n := range rc.Graph().Nodes() {
		v, _ := rc.Graph().NodeAttributes(n)["value"].AsInteger()
		got = append(got, v)
	}
	want := []int64{10, 20, 30}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("node %d value = %d, want %d", i, got[i], w)
		}
	}
}

func TestInterpreterFunctionCallConcat(t *testing.T) {
	rc := runProgram(t, `(identifier) {
		node a
		attr (a) label = concat("foo", "bar")
	}`, nil)

	label, ok := rc.Graph().NodeAttributes(0)["label"].AsString()
	if !ok || label != "foobar" {
		t.Fatalf("label attribute = %#v, want \"foobar\"", label)
	}
}

func TestInterpreterUndefinedVariableFails(t *testing.T) {
	program, err := parser.New().ParseProgram([]byte(`(identifier) {
		node a
		attr (a) value = missing
	}`))
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	rc := execution.NewRunContext(nil, nil)
	err = execution.NewInterpreter(nil).Run(rc, program, [][]execution.Match{{{}}})
	if err == nil {
		t.Fatal("expected an error referencing an undefined variable")
	}
}

func TestInterpreterMismatchedMatchCountFails(t *testing.T) {
	program, err := parser.New().ParseProgram([]byte(`(identifier) { node a }`))
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	rc := execution.NewRunContext(nil, nil)
	if err := execution.NewInterpreter(nil).Run(rc, program, nil); err == nil {
		t.Fatal("expected an error for a nil match set against 1 stanza")
	}
}
