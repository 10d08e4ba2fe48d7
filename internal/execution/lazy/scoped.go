package lazy

import (
	"fmt"
	"log/slog"

	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// scopedValuesState mirrors thunkState's tri-state shape, but for a
// whole named cell of (scope, value) bindings rather than a single
// value.
type scopedValuesState int

const (
	scopedUnforced scopedValuesState = iota
	scopedForcing
	scopedForced
)

// binding is one (scope_expr, value_expr, debug) triple added under a
// scoped-variable name before the cell is forced.
type binding struct {
	scope LazyValue
	value LazyValue
	debug DebugInfo
}

// scopedValues is the tri-state container for one scoped-variable
// name: a pending list of bindings, a Forcing sentinel, or a fully
// resolved node -> value map. Keys of the resolved map are themselves
// the result of forcing each binding's scope expression — the
// "two-level laziness" spec.md describes.
type scopedValues struct {
	state    scopedValuesState
	pending  []binding
	resolved map[syntaxtree.NodeRef]LazyValue
}

func newScopedValues() *scopedValues {
	return &scopedValues{state: scopedUnforced}
}

// ScopedStore (tree-sitter-graph calls this LazyScopedVariables) maps
// an identifier to a scopedValues cell. A new triple may only be added
// under a name while its cell is Unforced; evaluating a name forces
// all of its pending triples at once and seals the cell.
type ScopedStore struct {
	cells  []string // insertion order, for deterministic EvaluateAll
	byName map[string]*scopedValues
	logger *slog.Logger
}

// NewScopedStore returns an empty scoped-variable store. A nil logger
// disables trace logging.
func NewScopedStore(logger *slog.Logger) *ScopedStore {
	return &ScopedStore{byName: make(map[string]*scopedValues), logger: logger}
}

func (s *ScopedStore) cellFor(name string) *scopedValues {
	cell, ok := s.byName[name]
	if !ok {
		cell = newScopedValues()
		s.byName[name] = cell
		s.cells = append(s.cells, name)
	}
	return cell
}

// Add registers a new (scope, value) binding under name. It succeeds
// only while name's cell is Unforced; it fails with
// RecursivelyDefinedScopedVariableError if the cell is Forcing (a
// lazy value being forced attempted to add a binding to the name it
// transitively depends on) or VariableScopesAlreadyForcedError if the
// cell was already sealed.
func (s *ScopedStore) Add(scope LazyValue, name string, value LazyValue, debug DebugInfo) error {
	cell := s.cellFor(name)
	switch cell.state {
	case scopedUnforced:
		cell.pending = append(cell.pending, binding{scope: scope, value: value, debug: debug})
		return nil
	case scopedForcing:
		return &RecursivelyDefinedScopedVariableError{Name: name}
	case scopedForced:
		return &VariableScopesAlreadyForcedError{Name: name}
	default:
		return &RecursivelyDefinedScopedVariableError{Name: name}
	}
}

// Evaluate resolves the value bound to (scopeNode, name). If name has
// no cell, or its resolved map has no entry for scopeNode, it fails
// with UndefinedScopedVariableError. Forcing the cell's pending
// bindings (if not already forced) happens as a side effect of the
// first Evaluate or EvaluateAll call.
func (s *ScopedStore) Evaluate(scopeNode syntaxtree.NodeRef, name string, ctx EvaluationContext) (LazyValue, error) {
	cell, ok := s.byName[name]
	if !ok {
		return nil, &UndefinedScopedVariableError{Scope: scopeNode.String(), Name: name}
	}

	priorState := cell.state
	priorPending := cell.pending
	cell.state = scopedForcing

	resolved, err := s.force(name, priorState, priorPending, cell.resolved, ctx)
	if err != nil {
		return nil, err
	}

	value, ok := resolved[scopeNode]
	if !ok {
		// Left Forcing, not sealed: a later Add or Evaluate under this
		// name must see a recursive-definition failure, not a second
		// lookup against the cached map.
		return nil, &UndefinedScopedVariableError{Scope: scopeNode.String(), Name: name}
	}

	cell.state = scopedForced
	cell.resolved = resolved
	return value, nil
}

// EvaluateAll forces every name's bindings, in the order names were
// first added, and seals each cell.
func (s *ScopedStore) EvaluateAll(ctx EvaluationContext) error {
	for _, name := range s.cells {
		cell := s.byName[name]
		if cell.state == scopedForced {
			continue
		}
		priorState := cell.state
		priorPending := cell.pending
		cell.state = scopedForcing

		resolved, err := s.force(name, priorState, priorPending, cell.resolved, ctx)
		if err != nil {
			return err
		}
		cell.state = scopedForced
		cell.resolved = resolved
	}
	return nil
}

// force resolves a single name's pending bindings into a node -> value
// map. It is idempotent on an already-Forced cell and fails on a
// Forcing one — re-entry during the walk below is exactly the
// recursive-definition case.
func (s *ScopedStore) force(
	name string,
	priorState scopedValuesState,
	pending []binding,
	alreadyResolved map[syntaxtree.NodeRef]LazyValue,
	ctx EvaluationContext,
) (map[syntaxtree.NodeRef]LazyValue, error) {
	switch priorState {
	case scopedForced:
		return alreadyResolved, nil

	case scopedForcing:
		return nil, &RecursivelyDefinedScopedVariableError{Name: "_." + name}

	case scopedUnforced:
		resolved := make(map[syntaxtree.NodeRef]LazyValue, len(pending))
		debugs := make(map[syntaxtree.NodeRef]DebugInfo, len(pending))

		for _, b := range pending {
			node, err := ctx.EvaluateAsSyntaxNode(b.scope)
			if err != nil {
				return nil, fmt.Errorf("evaluating scope of variable _.%s: %s: %w", name, b.debug, err)
			}

			if prevDebug, exists := debugs[node]; exists {
				return nil, &DuplicateVariableError{
					Node:     node.String(),
					Name:     name,
					Previous: prevDebug,
					Current:  b.debug,
				}
			}
			debugs[node] = b.debug
			resolved[node] = b.value
		}

		if s.logger != nil {
			s.logger.Debug("scoped force", "name", name, "bindings", len(pending))
		}
		return resolved, nil

	default:
		return nil, &RecursivelyDefinedScopedVariableError{Name: name}
	}
}
