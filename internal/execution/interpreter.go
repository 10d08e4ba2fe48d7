package execution

import (
	"fmt"
	"log/slog"

	"github.com/stanzalang/stanza/internal/ast"
	"github.com/stanzalang/stanza/internal/execution/lazy"
	"github.com/stanzalang/stanza/internal/graph"
	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// Match is one run of a stanza's pattern against the syntax tree: the
// syntax nodes its query captures bound, both by name and by the
// positional order the pattern declared them in.
type Match struct {
	Captures map[string]syntaxtree.NodeRef
	Order    []string
}

// Interpreter is the Statement interpreter spec.md names as an
// external collaborator of the lazy engine. It owns no state across
// runs; each Run call builds its own symbol tables from scratch.
type Interpreter struct {
	logger *slog.Logger
}

// NewInterpreter returns an Interpreter that logs through logger (nil
// disables logging).
func NewInterpreter(logger *slog.Logger) *Interpreter {
	return &Interpreter{logger: logger}
}

// Run compiles and executes program against rc's tree. matches[i] is
// the list of pattern matches for program.Stanzas[i]; every match runs
// the stanza's statement block once, with its own capture bindings.
// After every stanza/match has queued its statements, the unscoped and
// then the scoped stores are forced in full (spec.md §4.6 step 5).
func (in *Interpreter) Run(rc *RunContext, program *ast.Program, matches [][]Match) error {
	if len(matches) != len(program.Stanzas) {
		return fmt.Errorf("execution: %d match sets for %d stanzas", len(matches), len(program.Stanzas))
	}
	rc.logf("running %d stanza(s)", len(program.Stanzas))

	for i, stanza := range program.Stanzas {
		for _, m := range matches[i] {
			env := NewEnv(m.Order, m.Captures)
			mut := newMutability()
			if err := in.execStatements(rc, env, mut, stanza.Statements); err != nil {
				return fmt.Errorf("stanza at %s: %w", stanza.Location, err)
			}
		}
	}

	if err := rc.Store().EvaluateAll(rc); err != nil {
		rc.reportIfCycle(err)
		return err
	}
	if err := rc.ScopedStore().EvaluateAll(rc); err != nil {
		rc.reportIfCycle(err)
		return err
	}
	return nil
}

// mutability tracks which variables (by symbol-table key) were
// declared with `let`/CreateGraphNode (immutable) so a later `set`
// against them can be rejected as a program error, per ast.go's
// DeclareImmutable doc comment.
type mutability struct {
	immutable map[string]bool
}

func newMutability() *mutability { return &mutability{immutable: make(map[string]bool)} }

func (in *Interpreter) execStatements(rc *RunContext, env *Env, mut *mutability, stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := in.execStatement(rc, env, mut, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execStatement(rc *RunContext, env *Env, mut *mutability, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.CreateGraphNode:
		return in.bind(rc, env, mut, s.Node, nodeConstructorValue{}, true, s.Location, "node")

	case ast.DeclareImmutable:
		return in.bind(rc, env, mut, s.Variable, compileExpression(env, s.Value), true, s.Location, "let")

	case ast.DeclareMutable:
		return in.bind(rc, env, mut, s.Variable, compileExpression(env, s.Value), false, s.Location, "var")

	case ast.SetVariable:
		key := variableKey(s.Variable)
		if mut.immutable[key] {
			return &ImmutableVariableError{Variable: key, Location: s.Location}
		}
		return in.bind(rc, env, mut, s.Variable, compileExpression(env, s.Value), false, s.Location, "set")

	case ast.CreateEdge:
		src := compileExpression(env, s.Source)
		sink := compileExpression(env, s.Sink)
		effect := edgeValue{source: src, sink: sink}
		debug := lazy.NewDebugInfo(s.Location.String(), "edge")
		rc.Store().Add(effect, debug)
		return nil

	case ast.AddGraphNodeAttribute:
		node := compileExpression(env, s.Node)
		attrs := compileAttributes(env, s.Attributes)
		effect := nodeAttributeValue{node: node, attrs: attrs}
		debug := lazy.NewDebugInfo(s.Location.String(), "attr node")
		rc.Store().Add(effect, debug)
		return nil

	case ast.AddEdgeAttribute:
		src := compileExpression(env, s.Source)
		sink := compileExpression(env, s.Sink)
		attrs := compileAttributes(env, s.Attributes)
		effect := edgeAttributeValue{source: src, sink: sink, attrs: attrs}
		debug := lazy.NewDebugInfo(s.Location.String(), "attr edge")
		rc.Store().Add(effect, debug)
		return nil

	case ast.Scan:
		return in.execScan(rc, env, mut, s)

	case ast.Print:
		args := make([]lazy.LazyValue, len(s.Values))
		for i, v := range s.Values {
			args[i] = compileExpression(env, v)
		}
		effect := printValue{values: args, logger: in.logger}
		debug := lazy.NewDebugInfo(s.Location.String(), "print")
		rc.Store().Add(effect, debug)
		return nil

	default:
		return fmt.Errorf("execution: unhandled statement type %T", stmt)
	}
}

// bind registers a variable's value-producing LazyValue, either in the
// unscoped symbol table (a fresh Store handle) or the ScopedStore
// (a new (scope, value) triple). immutable marks the binding so a
// later `set` against the same key is rejected before it ever reaches
// the lazy engine.
func (in *Interpreter) bind(rc *RunContext, env *Env, mut *mutability, v ast.Variable, value lazy.LazyValue, immutable bool, loc ast.Location, stmtName string) error {
	debug := lazy.NewDebugInfo(loc.String(), stmtName)
	key := variableKey(v)
	mut.immutable[key] = immutable

	switch variable := v.(type) {
	case ast.UnscopedVariable:
		env.vars[variable.Name] = rc.Store().Add(value, debug)
		return nil

	case ast.ScopedVariable:
		scope := compileExpression(env, variable.Scope)
		// The value sits in its own Store slot so it is forced at most
		// once, however many times the scoped variable is read.
		handle := rc.Store().Add(value, debug)
		return rc.ScopedStore().Add(scope, string(variable.Name), handle, debug)

	default:
		return fmt.Errorf("execution: unhandled variable type %T", v)
	}
}

func (in *Interpreter) execScan(rc *RunContext, env *Env, mut *mutability, s ast.Scan) error {
	listValue := compileExpression(env, s.List)
	list, err := listValue.Evaluate(rc)
	if err != nil {
		return fmt.Errorf("scan at %s: %w", s.Location, err)
	}
	items, ok := list.AsList()
	if !ok {
		return &TypeError{Expected: "list", Got: list.Kind()}
	}

	for _, item := range items {
		iterEnv := &Env{captures: env.captures, captureOrder: env.captureOrder, vars: copyVars(env.vars)}
		debug := lazy.NewDebugInfo(s.Location.String(), "scan element")
		iterEnv.vars[s.Variable] = rc.Store().Add(litValue{text: item.String(), value: item}, debug)
		if err := in.execStatements(rc, iterEnv, mut, s.Body); err != nil {
			return err
		}
	}
	return nil
}

func copyVars(src map[ast.Identifier]lazy.Handle) map[ast.Identifier]lazy.Handle {
	dst := make(map[ast.Identifier]lazy.Handle, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func compileAttributes(env *Env, attrs []ast.Attribute) []attribute {
	out := make([]attribute, len(attrs))
	for i, a := range attrs {
		out[i] = attribute{name: graph.Identifier(a.Name), value: compileExpression(env, a.Value)}
	}
	return out
}

// variableKey gives a Variable a stable identity for the mutability
// table: the unscoped name, or "scope-identity.name" for a scoped
// variable. Two syntactically different scope expressions are always
// treated as different keys, even if they might resolve to the same
// node at runtime — that collision is the lazy engine's
// DuplicateVariableError to catch, not this table's.
func variableKey(v ast.Variable) string {
	switch variable := v.(type) {
	case ast.UnscopedVariable:
		return string(variable.Name)
	case ast.ScopedVariable:
		return fmt.Sprintf("%s.%s", scopeIdentity(variable.Scope), variable.Name)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// scopeIdentity renders a best-effort static identity for a scope
// expression, used only to key the mutability table above — never for
// ScopedStore lookups, which always key on the forced syntax node.
func scopeIdentity(e ast.Expression) string {
	switch expr := e.(type) {
	case ast.Capture:
		if expr.Name != "" {
			return "@" + string(expr.Name)
		}
		return fmt.Sprintf("@%d", expr.Index)
	case ast.UnscopedVariable:
		return string(expr.Name)
	case ast.ScopedVariable:
		return fmt.Sprintf("%s.%s", scopeIdentity(expr.Scope), expr.Name)
	default:
		return fmt.Sprintf("%p", e)
	}
}

// ImmutableVariableError is raised by the interpreter (not the lazy
// engine) when a `set` statement targets a variable declared with
// `let` or `node`.
type ImmutableVariableError struct {
	Variable string
	Location ast.Location
}

func (e *ImmutableVariableError) Error() string {
	return fmt.Sprintf("%s: cannot set immutable variable %q", e.Location, e.Variable)
}
