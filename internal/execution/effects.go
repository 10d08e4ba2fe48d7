package execution

import (
	"fmt"
	"log/slog"

	"github.com/stanzalang/stanza/internal/execution/lazy"
	"github.com/stanzalang/stanza/internal/graph"
)

// attribute is a compiled name=value pair attached by an attr
// statement.
type attribute struct {
	name  graph.Identifier
	value lazy.LazyValue
}

func asNode(v graph.Value) (graph.NodeID, bool) { return v.AsNode() }

// edgeValue is the statement-level effect for `edge a -> b`: force
// both endpoints to graph nodes and add the edge. It has no bound
// variable, so the interpreter queues it directly under an anonymous
// Store slot; its result value is unused but still memoised like any
// other thunk.
type edgeValue struct {
	source lazy.LazyValue
	sink   lazy.LazyValue
}

func (e edgeValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	srcVal, err := e.source.Evaluate(ctx)
	if err != nil {
		return graph.Value{}, err
	}
	sinkVal, err := e.sink.Evaluate(ctx)
	if err != nil {
		return graph.Value{}, err
	}
	src, ok := asNode(srcVal)
	if !ok {
		return graph.Value{}, &TypeError{Expected: "graph node", Got: srcVal.Kind()}
	}
	sink, ok := asNode(sinkVal)
	if !ok {
		return graph.Value{}, &TypeError{Expected: "graph node", Got: sinkVal.Kind()}
	}
	ctx.Graph().AddEdge(src, sink)
	return graph.Null(), nil
}

func (e edgeValue) String() string { return fmt.Sprintf("edge %s -> %s", e.source, e.sink) }

// nodeAttributeValue is the effect for `attr (node) name = value, ...`.
type nodeAttributeValue struct {
	node  lazy.LazyValue
	attrs []attribute
}

func (a nodeAttributeValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	nodeVal, err := a.node.Evaluate(ctx)
	if err != nil {
		return graph.Value{}, err
	}
	node, ok := asNode(nodeVal)
	if !ok {
		return graph.Value{}, &TypeError{Expected: "graph node", Got: nodeVal.Kind()}
	}
	for _, attr := range a.attrs {
		v, err := attr.value.Evaluate(ctx)
		if err != nil {
			return graph.Value{}, err
		}
		ctx.Graph().SetNodeAttribute(node, attr.name, v)
	}
	return graph.Null(), nil
}

func (a nodeAttributeValue) String() string { return fmt.Sprintf("attr (%s) ...", a.node) }

// edgeAttributeValue is the effect for `attr (a -> b) name = value, ...`.
type edgeAttributeValue struct {
	source lazy.LazyValue
	sink   lazy.LazyValue
	attrs  []attribute
}

func (a edgeAttributeValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	srcVal, err := a.source.Evaluate(ctx)
	if err != nil {
		return graph.Value{}, err
	}
	sinkVal, err := a.sink.Evaluate(ctx)
	if err != nil {
		return graph.Value{}, err
	}
	src, ok := asNode(srcVal)
	if !ok {
		return graph.Value{}, &TypeError{Expected: "graph node", Got: srcVal.Kind()}
	}
	sink, ok := asNode(sinkVal)
	if !ok {
		return graph.Value{}, &TypeError{Expected: "graph node", Got: sinkVal.Kind()}
	}

	// AddEdge is idempotent per (source, sink) pair, so re-specifying
	// the same edge here (as `attr (a -> b) ...` always textually
	// does, paired with an earlier `edge a -> b`) resolves to the
	// edge that statement created rather than a second one.
	id := ctx.Graph().AddEdge(src, sink)
	for _, attr := range a.attrs {
		v, err := attr.value.Evaluate(ctx)
		if err != nil {
			return graph.Value{}, err
		}
		ctx.Graph().SetEdgeAttribute(id, attr.name, v)
	}
	return graph.Null(), nil
}

func (a edgeAttributeValue) String() string {
	return fmt.Sprintf("attr (%s -> %s) ...", a.source, a.sink)
}

// printValue is the effect for `print`: forces its arguments and logs
// them. stanza has no stdout story of its own (spec.md treats
// "logging" as external); printing goes through the same slog.Logger
// the rest of the interpreter uses, at Info level.
type printValue struct {
	values []lazy.LazyValue
	logger *slog.Logger
}

func (p printValue) Evaluate(ctx lazy.EvaluationContext) (graph.Value, error) {
	rendered := make([]any, 0, len(p.values)*2)
	for i, v := range p.values {
		value, err := v.Evaluate(ctx)
		if err != nil {
			return graph.Value{}, err
		}
		rendered = append(rendered, fmt.Sprintf("arg%d", i), value.String())
	}
	if p.logger != nil {
		p.logger.Info("print", rendered...)
	}
	return graph.Null(), nil
}

func (p printValue) String() string { return "print(...)" }
