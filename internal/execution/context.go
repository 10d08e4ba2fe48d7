// Package execution is the Statement interpreter spec.md treats as an
// external collaborator: it walks a parsed stanza program, builds
// lazy.LazyValue graphs for every expression, and drives the
// lazy.Store / lazy.ScopedStore to produce a graph.Graph.
package execution

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stanzalang/stanza/internal/execution/lazy"
	"github.com/stanzalang/stanza/internal/execution/lazy/trace"
	"github.com/stanzalang/stanza/internal/graph"
	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// RunContext is the concrete lazy.EvaluationContext for one stanza
// program run against one parsed syntax tree. It is created once per
// Interpreter.Run and never shared across runs, matching the
// single-threaded-per-invocation model SPEC_FULL.md §5 describes.
type RunContext struct {
	id          uuid.UUID
	graph       *graph.Graph
	store       *lazy.Store
	scopedStore *lazy.ScopedStore
	tree        *syntaxtree.Tree
	logger      *slog.Logger
}

// NewRunContext stamps a fresh run with a random id and empty
// graph/store/scopedStore, evaluated against tree.
func NewRunContext(tree *syntaxtree.Tree, logger *slog.Logger) *RunContext {
	return &RunContext{
		id:          uuid.New(),
		graph:       graph.New(),
		store:       lazy.NewStore(logger),
		scopedStore: lazy.NewScopedStore(logger),
		tree:        tree,
		logger:      logger,
	}
}

func (c *RunContext) ID() uuid.UUID { return c.id }

func (c *RunContext) Graph() *graph.Graph           { return c.graph }
func (c *RunContext) Store() *lazy.Store            { return c.store }
func (c *RunContext) ScopedStore() *lazy.ScopedStore { return c.scopedStore }
func (c *RunContext) Tree() *syntaxtree.Tree        { return c.tree }

// EvaluateAsSyntaxNode forces v and requires a syntax-node result,
// the entry point lazy.ScopedStore uses to resolve a binding's key.
func (c *RunContext) EvaluateAsSyntaxNode(v lazy.LazyValue) (syntaxtree.NodeRef, error) {
	value, err := v.Evaluate(c)
	if err != nil {
		return syntaxtree.NodeRef{}, err
	}
	node, ok := value.AsSyntaxNode()
	if !ok {
		return syntaxtree.NodeRef{}, &TypeError{Expected: "syntax node", Got: value.Kind()}
	}
	return node, nil
}

func (c *RunContext) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(fmt.Sprintf(format, args...), "run", c.id.String())
	}
}

// reportIfCycle checks whether err wraps a lazy.RecursivelyDefinedVariableError
// and, if so, logs its force stack as a diagnostic before the caller
// returns err up the stack. A no-op for every other error, including
// the scoped-variable cycle errors (RecursivelyDefinedScopedVariableError
// carries no force stack to render).
func (c *RunContext) reportIfCycle(err error) {
	var cycleErr *lazy.RecursivelyDefinedVariableError
	if errors.As(err, &cycleErr) {
		c.logCycle(cycleErr)
	}
}

// logCycle renders cycleErr's force stack as an ASCII tree (SPEC_FULL.md
// §6) and logs it at Error level, stamped with this run's id so
// diagnostics from distinct stanza invocations in the same process
// stay distinguishable in logs.
func (c *RunContext) logCycle(cycleErr *lazy.RecursivelyDefinedVariableError) {
	if c.logger == nil {
		return
	}
	stack := make([]string, len(cycleErr.Trace))
	for i, d := range cycleErr.Trace {
		stack[i] = d.String()
	}
	c.logger.Error("cycle detected",
		"run", c.ID().String(),
		"variable", cycleErr.Debug.String(),
		"trace", trace.Chain(trace.Strings(stack)),
	)
}
