package lazy

import "fmt"

// RecursivelyDefinedVariableError is raised when forcing a thunk whose
// state is already Forcing: a LazyValue's evaluation transitively
// forced the same thunk it is itself computing. Trace is the force
// stack at the moment the cycle was detected (outermost call first,
// set once by Store.Evaluate before the stack unwinds) — nil until
// that first wrap, so later wraps never overwrite it.
type RecursivelyDefinedVariableError struct {
	Debug DebugInfo
	Trace []DebugInfo
}

func (e *RecursivelyDefinedVariableError) Error() string {
	return fmt.Sprintf("recursively defined variable: %s", e.Debug)
}

// RecursivelyDefinedScopedVariableError is raised when an Add or
// Evaluate call reaches a ScopedValues cell that is currently Forcing
// — a binding's scope expression (or another lazy value) transitively
// depends on the name it is itself resolving.
type RecursivelyDefinedScopedVariableError struct {
	Name string
}

func (e *RecursivelyDefinedScopedVariableError) Error() string {
	return fmt.Sprintf("recursively defined scoped variable: %s", e.Name)
}

// VariableScopesAlreadyForcedError is raised by Add when the named
// cell has already been sealed (Forced).
type VariableScopesAlreadyForcedError struct {
	Name string
}

func (e *VariableScopesAlreadyForcedError) Error() string {
	return fmt.Sprintf("variable scopes already forced: %s", e.Name)
}

// UndefinedScopedVariableError is raised when a ScopedStore has no
// cell for a name, or the cell's resolved map has no entry for the
// requested scope node.
type UndefinedScopedVariableError struct {
	Scope string
	Name  string
}

func (e *UndefinedScopedVariableError) Error() string {
	return fmt.Sprintf("undefined scoped variable: %s.%s", e.Scope, e.Name)
}

// DuplicateVariableError is raised when two bindings in a ScopedValues
// cell resolve their scope expression to the same syntax node. It
// carries both bindings' debug info so the diagnostic can point at
// both declaration sites.
type DuplicateVariableError struct {
	Node     string
	Name     string
	Previous DebugInfo
	Current  DebugInfo
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("duplicate variable: %s.%s (previously declared at %s, redeclared at %s)",
		e.Node, e.Name, e.Previous, e.Current)
}
