package lazy

import (
	"errors"
	"testing"

	"github.com/stanzalang/stanza/internal/graph"
	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// testContext is a minimal EvaluationContext good enough to drive the
// engine in isolation, without internal/execution's real interpreter.
type testContext struct {
	g           *graph.Graph
	store       *Store
	scopedStore *ScopedStore
}

func newTestContext() *testContext {
	return &testContext{
		g:           graph.New(),
		store:       NewStore(nil),
		scopedStore: NewScopedStore(nil),
	}
}

func (c *testContext) Graph() *graph.Graph            { return c.g }
func (c *testContext) Store() *Store                  { return c.store }
func (c *testContext) ScopedStore() *ScopedStore      { return c.scopedStore }
func (c *testContext) EvaluateAsSyntaxNode(v LazyValue) (syntaxtree.NodeRef, error) {
	value, err := v.Evaluate(c)
	if err != nil {
		return syntaxtree.NodeRef{}, err
	}
	node, ok := value.AsSyntaxNode()
	if !ok {
		return syntaxtree.NodeRef{}, errors.New("expression did not evaluate to a syntax node")
	}
	return node, nil
}

// constValue is a LazyValue that always evaluates to the same
// graph.Value, incrementing a counter each time it actually runs (not
// each time it is forced) so tests can assert on memoisation.
type constValue struct {
	name  string
	value graph.Value
	calls *int
}

func (c constValue) Evaluate(ctx EvaluationContext) (graph.Value, error) {
	*c.calls++
	return c.value, nil
}

func (c constValue) String() string { return c.name }

// forcingValue forces another handle as part of its own evaluation.
type forcingValue struct {
	name   string
	target Handle
}

func (f forcingValue) Evaluate(ctx EvaluationContext) (graph.Value, error) {
	return f.target.Evaluate(ctx)
}

func (f forcingValue) String() string { return f.name }

// --- P1: idempotence of force -----------------------------------------

func TestForceIsMemoised(t *testing.T) {
	ctx := newTestContext()
	calls := 0
	handle := ctx.store.Add(constValue{name: "seven", value: graph.Integer(7), calls: &calls}, NewDebugInfo("1:1", "node x"))

	for i := 0; i < 3; i++ {
		v, err := ctx.store.Evaluate(handle, ctx)
		if err != nil {
			t.Fatalf("evaluate %d: unexpected error: %v", i, err)
		}
		n, ok := v.AsInteger()
		if !ok || n != 7 {
			t.Fatalf("evaluate %d: got %v, want 7", i, v)
		}
	}

	if calls != 1 {
		t.Fatalf("expected the underlying LazyValue to run exactly once, ran %d times", calls)
	}
}

// --- P2: cycle detection, thunk -----------------------------------------

func TestSelfCycleIsDetected(t *testing.T) {
	ctx := newTestContext()

	self := Handle{index: 0}
	handle := ctx.store.Add(forcingValue{name: "self", target: self}, NewDebugInfo("2:1", "var x"))

	_, err := ctx.store.Evaluate(handle, ctx)
	if err == nil {
		t.Fatal("expected RecursivelyDefinedVariableError, got nil")
	}
	var cycleErr *RecursivelyDefinedVariableError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected RecursivelyDefinedVariableError, got %T: %v", err, err)
	}
}

// --- P2/scenario 3: mutual cycle -----------------------------------------

func TestMutualCycleNamesTheFirstForced(t *testing.T) {
	ctx := newTestContext()

	a := ctx.store.Add(nil, NewDebugInfo("3:1", "var a"))
	b := ctx.store.Add(forcingValue{name: "b", target: a}, NewDebugInfo("3:2", "var b"))
	ctx.store.thunks[0].value = forcingValue{name: "a", target: b}

	_, err := ctx.store.Evaluate(a, ctx)
	if err == nil {
		t.Fatal("expected an error")
	}
	var cycleErr *RecursivelyDefinedVariableError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected RecursivelyDefinedVariableError, got %T: %v", err, err)
	}
	if cycleErr.Debug.Location != "3:1" {
		t.Fatalf("expected the cycle to be reported against the first-forced handle (3:1), got %s", cycleErr.Debug.Location)
	}
}

// --- P7: handle stability -----------------------------------------------

func TestHandlesSurviveFurtherAdds(t *testing.T) {
	ctx := newTestContext()
	calls := 0
	first := ctx.store.Add(constValue{name: "one", value: graph.Integer(1), calls: &calls}, NewDebugInfo("1:1", ""))

	for i := 0; i < 50; i++ {
		ctx.store.Add(constValue{name: "filler", value: graph.Null(), calls: &calls}, NewDebugInfo("1:1", ""))
	}

	v, err := ctx.store.Evaluate(first, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, _ := v.AsInteger(); n != 1 {
		t.Fatalf("handle minted before further Adds now resolves to %v", v)
	}
}

// --- P6: insertion-order bulk evaluation ---------------------------------

func TestEvaluateAllReportsLowestFailingIndexFirst(t *testing.T) {
	ctx := newTestContext()
	calls := 0

	ctx.store.Add(constValue{name: "ok", value: graph.Integer(1), calls: &calls}, NewDebugInfo("1:1", ""))
	ctx.store.Add(forcingValue{name: "cyc", target: Handle{index: 1}}, NewDebugInfo("2:1", "first cycle"))
	ctx.store.Add(forcingValue{name: "cyc2", target: Handle{index: 2}}, NewDebugInfo("3:1", "second cycle"))

	err := ctx.store.EvaluateAll(ctx)
	if err == nil {
		t.Fatal("expected an error")
	}
	var cycleErr *RecursivelyDefinedVariableError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected RecursivelyDefinedVariableError, got %T: %v", err, err)
	}
	if cycleErr.Debug.Location != "2:1" {
		t.Fatalf("expected the first (lowest-index) failing slot to be reported, got %s", cycleErr.Debug.Location)
	}
}

// --- Scoped scenario 4: duplicate -----------------------------------------

type syntaxNodeValue struct {
	name string
	ref  syntaxtree.NodeRef
}

func (s syntaxNodeValue) Evaluate(ctx EvaluationContext) (graph.Value, error) {
	return graph.SyntaxNodeValue(s.ref), nil
}
func (s syntaxNodeValue) String() string { return s.name }

func TestScopedDuplicateNamesBothSites(t *testing.T) {
	ctx := newTestContext()
	node := syntaxtree.NodeRef{}

	scopeExprA := syntaxNodeValue{name: "scopeA", ref: node}
	scopeExprB := syntaxNodeValue{name: "scopeB", ref: node}
	valueExpr := constValue{name: "v", value: graph.Integer(1), calls: new(int)}

	if err := ctx.scopedStore.Add(scopeExprA, "x", valueExpr, NewDebugInfo("4:1", "")); err != nil {
		t.Fatalf("unexpected error adding first binding: %v", err)
	}
	if err := ctx.scopedStore.Add(scopeExprB, "x", valueExpr, NewDebugInfo("4:2", "")); err != nil {
		t.Fatalf("unexpected error adding second binding: %v", err)
	}

	_, err := ctx.scopedStore.Evaluate(node, "x", ctx)
	var dupErr *DuplicateVariableError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateVariableError, got %T: %v", err, err)
	}
	if dupErr.Previous.Location != "4:1" || dupErr.Current.Location != "4:2" {
		t.Fatalf("expected both debug infos preserved, got previous=%s current=%s", dupErr.Previous, dupErr.Current)
	}
}

// --- Scoped scenario 5: undefined -----------------------------------------

func TestScopedUndefinedWhenNameAbsent(t *testing.T) {
	ctx := newTestContext()
	_, err := ctx.scopedStore.Evaluate(syntaxtree.NodeRef{}, "y", ctx)
	var undefErr *UndefinedScopedVariableError
	if !errors.As(err, &undefErr) {
		t.Fatalf("expected UndefinedScopedVariableError, got %T: %v", err, err)
	}
}

// --- Scoped scenario 6: seal-after-force (P4) -----------------------------

func TestScopedSealAfterEvaluateAll(t *testing.T) {
	ctx := newTestContext()
	node := syntaxtree.NodeRef{}
	scopeExpr := syntaxNodeValue{name: "s", ref: node}
	valueExpr := constValue{name: "v", value: graph.Integer(1), calls: new(int)}

	if err := ctx.scopedStore.Add(scopeExpr, "x", valueExpr, NewDebugInfo("6:1", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ctx.scopedStore.EvaluateAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := ctx.scopedStore.Add(scopeExpr, "x", valueExpr, NewDebugInfo("6:2", ""))
	var sealedErr *VariableScopesAlreadyForcedError
	if !errors.As(err, &sealedErr) {
		t.Fatalf("expected VariableScopesAlreadyForcedError, got %T: %v", err, err)
	}
}

// --- P3: cycle detection, scoped -------------------------------------------

// selfScopeValue evaluates its own name's scoped variable as part of
// resolving its scope expression, inducing a cycle on name "x".
type selfScopeValue struct {
	store *ScopedStore
	node  syntaxtree.NodeRef
}

func (s selfScopeValue) Evaluate(ctx EvaluationContext) (graph.Value, error) {
	_, err := s.store.Evaluate(s.node, "x", ctx)
	if err != nil {
		return graph.Value{}, err
	}
	return graph.SyntaxNodeValue(s.node), nil
}
func (s selfScopeValue) String() string { return "self-scope(x)" }

func TestScopedSelfCycleIsDetected(t *testing.T) {
	ctx := newTestContext()
	node := syntaxtree.NodeRef{}

	scopeExpr := selfScopeValue{store: ctx.scopedStore, node: node}
	valueExpr := constValue{name: "v", value: graph.Integer(1), calls: new(int)}

	if err := ctx.scopedStore.Add(scopeExpr, "x", valueExpr, NewDebugInfo("7:1", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := ctx.scopedStore.Evaluate(node, "x", ctx)
	var cycleErr *RecursivelyDefinedScopedVariableError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected RecursivelyDefinedScopedVariableError, got %T: %v", err, err)
	}
}
