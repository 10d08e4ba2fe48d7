package execution

import (
	"fmt"

	"github.com/stanzalang/stanza/internal/ast"
	"github.com/stanzalang/stanza/internal/graph"
)

// ParseError reports a malformed stanza program at a specific source
// location. Distinct from the lazy engine's runtime errors, which
// carry a lazy.DebugInfo instead of an ast.Location.
type ParseError struct {
	Location ast.Location
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// TypeError is raised when an expression forces to a graph.Value of
// the wrong kind for the statement consuming it (e.g. a scope
// expression that isn't a syntax node, or a scan target that isn't a
// list).
type TypeError struct {
	Expected string
	Got      graph.ValueKind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: expected %s, got %v", e.Expected, e.Got)
}

// UnknownCapture is raised when a stanza references a capture name or
// index that its pattern never bound.
type UnknownCapture struct {
	Reference string
	Location  ast.Location
}

func (e *UnknownCapture) Error() string {
	return fmt.Sprintf("%s: unknown capture %q", e.Location, e.Reference)
}

// UnknownFunction is raised when a FunctionCall names a function the
// interpreter's builtin table has no entry for.
type UnknownFunction struct {
	Name     string
	Location ast.Location
}

func (e *UnknownFunction) Error() string {
	return fmt.Sprintf("%s: unknown function %q", e.Location, e.Name)
}

// UndefinedVariable is raised when an UnscopedVariable is forced and
// no DeclareImmutable/DeclareMutable/SetVariable statement in its
// match's environment has bound it.
type UndefinedVariable struct {
	Name     string
	Location ast.Location
}

func (e *UndefinedVariable) Error() string {
	return fmt.Sprintf("%s: undefined variable %q", e.Location, e.Name)
}
