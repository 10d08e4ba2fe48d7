package execution

import (
	"fmt"
	"strings"

	"github.com/stanzalang/stanza/internal/graph"
)

// builtinFunc implements a DSL function call once its arguments have
// been forced.
type builtinFunc func(args []graph.Value) (graph.Value, error)

// builtins is the fixed table of functions a FunctionCall expression
// may invoke. Stanza programs cannot define their own functions —
// this mirrors tree-sitter-graph's small built-in library (string
// concatenation, list membership, equality) rather than a full
// user-defined-function mechanism, which is out of scope for the lazy
// engine this interpreter drives.
var builtins = map[string]builtinFunc{
	"concat":   builtinConcat,
	"join":     builtinJoin,
	"contains": builtinContains,
	"eq":       builtinEq,
	"not":      builtinNot,
	"len":      builtinLen,
}

func builtinConcat(args []graph.Value) (graph.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		s, ok := a.AsString()
		if !ok {
			return graph.Value{}, &TypeError{Expected: "string", Got: a.Kind()}
		}
		sb.WriteString(s)
	}
	return graph.String(sb.String()), nil
}

func builtinJoin(args []graph.Value) (graph.Value, error) {
	if len(args) != 2 {
		return graph.Value{}, fmt.Errorf("join expects 2 arguments, got %d", len(args))
	}
	list, ok := args[0].AsList()
	if !ok {
		return graph.Value{}, &TypeError{Expected: "list", Got: args[0].Kind()}
	}
	sep, ok := args[1].AsString()
	if !ok {
		return graph.Value{}, &TypeError{Expected: "string", Got: args[1].Kind()}
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.AsString()
		if !ok {
			return graph.Value{}, &TypeError{Expected: "string", Got: item.Kind()}
		}
		parts = append(parts, s)
	}
	return graph.String(strings.Join(parts, sep)), nil
}

func builtinContains(args []graph.Value) (graph.Value, error) {
	if len(args) != 2 {
		return graph.Value{}, fmt.Errorf("contains expects 2 arguments, got %d", len(args))
	}
	list, ok := args[0].AsList()
	if !ok {
		return graph.Value{}, &TypeError{Expected: "list", Got: args[0].Kind()}
	}
	for _, item := range list {
		if valuesEqual(item, args[1]) {
			return graph.Bool(true), nil
		}
	}
	return graph.Bool(false), nil
}

func builtinEq(args []graph.Value) (graph.Value, error) {
	if len(args) != 2 {
		return graph.Value{}, fmt.Errorf("eq expects 2 arguments, got %d", len(args))
	}
	return graph.Bool(valuesEqual(args[0], args[1])), nil
}

func builtinNot(args []graph.Value) (graph.Value, error) {
	if len(args) != 1 {
		return graph.Value{}, fmt.Errorf("not expects 1 argument, got %d", len(args))
	}
	b, ok := args[0].AsBool()
	if !ok {
		return graph.Value{}, &TypeError{Expected: "bool", Got: args[0].Kind()}
	}
	return graph.Bool(!b), nil
}

func builtinLen(args []graph.Value) (graph.Value, error) {
	if len(args) != 1 {
		return graph.Value{}, fmt.Errorf("len expects 1 argument, got %d", len(args))
	}
	if list, ok := args[0].AsList(); ok {
		return graph.Integer(int64(len(list))), nil
	}
	if s, ok := args[0].AsString(); ok {
		return graph.Integer(int64(len(s))), nil
	}
	return graph.Value{}, &TypeError{Expected: "list or string", Got: args[0].Kind()}
}

func valuesEqual(a, b graph.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case graph.KindNull:
		return true
	case graph.KindBool:
		av, _ := a.AsBool()
		bv, _ := b.AsBool()
		return av == bv
	case graph.KindInteger:
		av, _ := a.AsInteger()
		bv, _ := b.AsInteger()
		return av == bv
	case graph.KindString:
		av, _ := a.AsString()
		bv, _ := b.AsString()
		return av == bv
	case graph.KindNode:
		av, _ := a.AsNode()
		bv, _ := b.AsNode()
		return av == bv
	case graph.KindSyntaxNode:
		av, _ := a.AsSyntaxNode()
		bv, _ := b.AsSyntaxNode()
		return av == bv
	default:
		return false
	}
}
