package execution

import (
	"fmt"

	"github.com/stanzalang/stanza/internal/ast"
	"github.com/stanzalang/stanza/internal/execution/lazy"
	"github.com/stanzalang/stanza/internal/graph"
	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// Env resolves the identifiers a compiled expression may reference: the
// capture bindings from the stanza's pattern match, and the handles
// unscoped variables have been bound to so far.
type Env struct {
	captures     map[string]syntaxtree.NodeRef
	captureOrder []string
	vars         map[ast.Identifier]lazy.Handle
}

// NewEnv builds an Env for one stanza match. captureOrder gives the
// positional (by-index, `@1`) names in the order the pattern declared
// them; captures gives the by-name (`@cap2`) bindings — both refer to
// the same underlying node set.
func NewEnv(captureOrder []string, captures map[string]syntaxtree.NodeRef) *Env {
	return &Env{
		captures:     captures,
		captureOrder: captureOrder,
		vars:         make(map[ast.Identifier]lazy.Handle),
	}
}

func (e *Env) captureByIndex(index int) (syntaxtree.NodeRef, bool) {
	if index < 1 || index > len(e.captureOrder) {
		return syntaxtree.NodeRef{}, false
	}
	return e.captures[e.captureOrder[index-1]], true
}

// litValue wraps a constant graph.Value.
type litValue struct {
	text  string
	value graph.Value
}

func (l litValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) { return l.value, nil }
func (l litValue) String() string                                          { return l.text }

// listValue evaluates each element lazy value and collects the results.
type listValue struct {
	elements []lazy.LazyValue
}

func (l listValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	items := make([]graph.Value, 0, len(l.elements))
	for _, elem := range l.elements {
		v, err := elem.Evaluate(ctx)
		if err != nil {
			return graph.Value{}, err
		}
		items = append(items, v)
	}
	return graph.List(items), nil
}

func (l listValue) String() string { return fmt.Sprintf("list(%d elements)", len(l.elements)) }

// captureValue resolves a `@name` or `@N` reference to the syntax node
// the stanza's pattern match bound it to.
type captureValue struct {
	env  *Env
	ref  ast.Capture
}

func (c captureValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	if c.ref.Name != "" {
		node, ok := c.env.captures[string(c.ref.Name)]
		if !ok {
			return graph.Value{}, &UnknownCapture{Reference: string(c.ref.Name), Location: c.ref.Location}
		}
		return graph.SyntaxNodeValue(node), nil
	}
	node, ok := c.env.captureByIndex(c.ref.Index)
	if !ok {
		return graph.Value{}, &UnknownCapture{Reference: fmt.Sprintf("@%d", c.ref.Index), Location: c.ref.Location}
	}
	return graph.SyntaxNodeValue(node), nil
}

func (c captureValue) String() string {
	if c.ref.Name != "" {
		return "@" + string(c.ref.Name)
	}
	return fmt.Sprintf("@%d", c.ref.Index)
}

// unscopedVarValue forces the handle an unscoped variable is currently
// bound to. Bound late (via a pointer to the Env) so that `set`
// rebinding the symbol table before this value is ever forced is
// observed correctly.
type unscopedVarValue struct {
	env  *Env
	name ast.Identifier
	loc  ast.Location
}

func (v unscopedVarValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	handle, ok := v.env.vars[v.name]
	if !ok {
		return graph.Value{}, &UndefinedVariable{Name: string(v.name), Location: v.loc}
	}
	return handle.Evaluate(ctx)
}

func (v unscopedVarValue) String() string { return string(v.name) }

// scopedVarValue resolves the two-level-lazy (scope, name) pair: force
// the scope expression to a syntax node, then ask the ScopedStore for
// the LazyValue bound to that node under name, then force that too.
type scopedVarValue struct {
	scope lazy.LazyValue
	name  ast.Identifier
}

func (v scopedVarValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	node, err := ctx.EvaluateAsSyntaxNode(v.scope)
	if err != nil {
		return graph.Value{}, err
	}
	bound, err := ctx.ScopedStore().Evaluate(node, string(v.name), ctx)
	if err != nil {
		return graph.Value{}, err
	}
	return bound.Evaluate(ctx)
}

func (v scopedVarValue) String() string { return fmt.Sprintf("_.%s", v.name) }

// functionCallValue evaluates its arguments and dispatches to a
// builtin by name.
type functionCallValue struct {
	name ast.Identifier
	loc  ast.Location
	args []lazy.LazyValue
}

func (f functionCallValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	fn, ok := builtins[string(f.name)]
	if !ok {
		return graph.Value{}, &UnknownFunction{Name: string(f.name), Location: f.loc}
	}
	args := make([]graph.Value, 0, len(f.args))
	for _, a := range f.args {
		v, err := a.Evaluate(ctx)
		if err != nil {
			return graph.Value{}, err
		}
		args = append(args, v)
	}
	return fn(args)
}

func (f functionCallValue) String() string { return fmt.Sprintf("%s(...)", f.name) }

// nodeConstructorValue creates a fresh graph node each time it is
// forced. Bound to exactly one Handle or ScopedValues triple, so
// memoisation guarantees it runs at most once per declared variable.
type nodeConstructorValue struct{}

func (nodeConstructorValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	id := ctx.Graph().AddNode()
	return graph.NodeValue(id), nil
}

func (nodeConstructorValue) String() string { return "node()" }

// compileExpression lowers an ast.Expression into a lazy.LazyValue
// closed over env. It performs no graph mutation and no forcing; it
// only builds the closure forcing will later run.
func compileExpression(env *Env, expr ast.Expression) lazy.LazyValue {
	switch e := expr.(type) {
	case ast.TrueLiteral:
		return litValue{text: "#true", value: graph.Bool(true)}
	case ast.FalseLiteral:
		return litValue{text: "#false", value: graph.Bool(false)}
	case ast.NullLiteral:
		return litValue{text: "#null", value: graph.Null()}
	case ast.IntegerLiteral:
		return litValue{text: fmt.Sprintf("%d", e.Value), value: graph.Integer(e.Value)}
	case ast.StringLiteral:
		return litValue{text: fmt.Sprintf("%q", e.Value), value: graph.String(e.Value)}
	case ast.ListLiteral:
		elems := make([]lazy.LazyValue, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = compileExpression(env, el)
		}
		return listValue{elements: elems}
	case ast.Capture:
		return captureValue{env: env, ref: e}
	case ast.UnscopedVariable:
		return unscopedVarValue{env: env, name: e.Name, loc: e.Location}
	case ast.ScopedVariable:
		return scopedVarValue{scope: compileExpression(env, e.Scope), name: e.Name}
	case ast.FunctionCall:
		args := make([]lazy.LazyValue, len(e.Arguments))
		for i, a := range e.Arguments {
			args[i] = compileExpression(env, a)
		}
		return functionCallValue{name: e.Name, loc: e.Location, args: args}
	default:
		panic(fmt.Sprintf("execution: unhandled expression type %T", expr))
	}
}
