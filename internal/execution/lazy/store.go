// Package lazy implements the call-by-need evaluation engine that
// underpins stanza execution: a thunk store with memoisation and
// cycle detection, and a scoped-variable container whose keys are
// themselves the result of forcing a thunk.
//
// The engine is single-threaded by construction (see DESIGN.md,
// Open Question OQ-2): no mutex, no channel, no goroutine anywhere in
// this package. A force that re-enters the same thunk is detected
// because a cell's state is swapped to "forcing" *before* the
// recursive evaluation begins, and nothing in this package ever holds
// a reference to a cell's old state across that recursive call.
package lazy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stanzalang/stanza/internal/graph"
	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// DebugInfo is provenance attached to every stored value: where in the
// stanza source it came from. It is carried by value, never used for
// control flow, and is immutable for the life of the thunk it is
// attached to.
type DebugInfo struct {
	Location  string
	Statement string
}

// NewDebugInfo builds a DebugInfo for a statement at the given source
// location.
func NewDebugInfo(location, statement string) DebugInfo {
	return DebugInfo{Location: location, Statement: statement}
}

func (d DebugInfo) String() string {
	if d.Statement == "" {
		return d.Location
	}
	return fmt.Sprintf("%s (%s)", d.Location, d.Statement)
}

// LazyValue is a closed expression form that can be forced exactly
// once to produce a graph.Value. Concrete LazyValues live in
// internal/execution; this package only ever calls back into them
// through the interface.
type LazyValue interface {
	Evaluate(ctx EvaluationContext) (graph.Value, error)
	String() string
}

// EvaluationContext is the mutable state threaded through forcing: the
// graph under construction, and the Store/ScopedStore a LazyValue may
// refer back into by Handle or by (scope, name) pair. It is a
// consumed interface — internal/execution provides the implementation
// that closes over a single stanza run.
type EvaluationContext interface {
	// Graph returns the graph under construction. Only code running
	// inside a LazyValue.Evaluate may mutate it.
	Graph() *graph.Graph

	// Store returns the handle store this context forces against.
	Store() *Store

	// ScopedStore returns the scoped-variable store this context
	// forces against.
	ScopedStore() *ScopedStore

	// EvaluateAsSyntaxNode forces v and requires the result to be a
	// syntax-node reference, the distinct entry point ScopedValues
	// uses to resolve a binding's key.
	EvaluateAsSyntaxNode(v LazyValue) (syntaxtree.NodeRef, error)
}

// Handle is a stable, copyable reference to a slot in a Store. It is
// pure data — a store index — minted only by Store.Add and never
// invalidated.
type Handle struct {
	index int
}

// Evaluate is a convenience for Store().Evaluate(h, ctx).
func (h Handle) Evaluate(ctx EvaluationContext) (graph.Value, error) {
	return ctx.Store().Evaluate(h, ctx)
}

func (h Handle) String() string {
	return fmt.Sprintf("(load %d)", h.index)
}

type thunkState int

const (
	thunkUnforced thunkState = iota
	thunkForcing
	thunkForced
)

func (s thunkState) String() string {
	switch s {
	case thunkUnforced:
		return "unforced"
	case thunkForcing:
		return "forcing"
	case thunkForced:
		return "forced"
	default:
		return "invalid"
	}
}

// thunk is one memoisation cell: Unforced | Forcing | Forced, private
// to the store exactly as spec'd — nothing outside this package ever
// sees a *thunk.
type thunk struct {
	state  thunkState
	value  LazyValue   // valid while state == thunkUnforced
	result graph.Value // valid while state == thunkForced
	debug  DebugInfo
	logger *slog.Logger
}

func newThunk(value LazyValue, debug DebugInfo, logger *slog.Logger) *thunk {
	return &thunk{state: thunkUnforced, value: value, debug: debug, logger: logger}
}

// force drives the thunk's state machine. It never holds a reference
// to the thunk's prior contents while evaluating them, since that
// evaluation may transitively force this same thunk again — that
// reentrancy is exactly what the Forcing sentinel is there to catch.
func (t *thunk) force(ctx EvaluationContext) (graph.Value, error) {
	priorState := t.state
	priorValue := t.value
	priorResult := t.result

	t.state = thunkForcing
	if t.logger != nil {
		t.logger.Debug("force", "state", priorState.String())
	}

	switch priorState {
	case thunkUnforced:
		result, err := priorValue.Evaluate(ctx)
		if err != nil {
			// The thunk is left Forcing: any failure is fatal to
			// the session, so nothing retries it. A retry would see
			// Forcing and report a cycle that never happened. See
			// DESIGN.md Open Question OQ-1.
			return graph.Value{}, err
		}
		t.state = thunkForced
		t.value = nil
		t.result = result
		return result, nil

	case thunkForced:
		t.state = thunkForced
		t.result = priorResult
		return priorResult, nil

	case thunkForcing:
		return graph.Value{}, &RecursivelyDefinedVariableError{Debug: t.debug}

	default:
		return graph.Value{}, fmt.Errorf("unreachable thunk state %v", priorState)
	}
}

// Store is an ordered, append-only collection of thunks. It hands out
// opaque Handles and drives bulk forcing. handle.index < len(thunks)
// holds for the life of the store: slots are never removed, only
// transitioned in place.
type Store struct {
	thunks []*thunk
	logger *slog.Logger
	stack  []DebugInfo // active force calls, innermost last
}

// NewStore returns an empty store. A nil logger disables trace
// logging.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Add appends a new Unforced thunk and returns a Handle to it. Never
// fails.
func (s *Store) Add(value LazyValue, debug DebugInfo) Handle {
	index := len(s.thunks)
	if s.logger != nil {
		s.logger.Debug("store add", "index", index, "value", value.String())
	}
	s.thunks = append(s.thunks, newThunk(value, debug, s.logger))
	return Handle{index: index}
}

// Evaluate forces the thunk at handle and returns its graph value.
// Any error is wrapped with the thunk's debug info as context.
func (s *Store) Evaluate(handle Handle, ctx EvaluationContext) (graph.Value, error) {
	t := s.thunks[handle.index]
	s.stack = append(s.stack, t.debug)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	value, err := t.force(ctx)
	if err != nil {
		var cycleErr *RecursivelyDefinedVariableError
		if errors.As(err, &cycleErr) && cycleErr.Trace == nil {
			cycleErr.Trace = s.Trace()
		}
		return graph.Value{}, fmt.Errorf("%s: %w", t.debug, err)
	}
	return value, nil
}

// Trace returns the chain of debug info for every force call currently
// on the stack, outermost first. Used to render a diagnostic when
// Evaluate fails with a cycle; empty outside of an Evaluate call.
func (s *Store) Trace() []DebugInfo {
	return append([]DebugInfo(nil), s.stack...)
}

// EvaluateAll forces every slot in insertion order. The first error
// aborts the walk and is returned with its slot's debug context —
// this defines the order of side effects and of error reporting under
// multiple independent cycles (spec.md P6).
func (s *Store) EvaluateAll(ctx EvaluationContext) error {
	for _, t := range s.thunks {
		if _, err := t.force(ctx); err != nil {
			return fmt.Errorf("%s: %w", t.debug, err)
		}
	}
	return nil
}

// Len reports how many slots the store holds. Exposed for diagnostics
// and tests, not part of the evaluation contract.
func (s *Store) Len() int { return len(s.thunks) }
