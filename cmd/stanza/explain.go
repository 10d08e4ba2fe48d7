package main

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"
	"github.com/spf13/cobra"

	"github.com/stanzalang/stanza/internal/graph"
)

func newExplainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <program.stanza> <source-file>",
		Short: "Run a stanza program and render the resulting graph as a tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			rc, err := runAgainst(program, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderGraph(rc.Graph()))
			return nil
		},
	}
}

// renderGraph draws one tree per root node (a node with no incoming
// edge) with its outgoing edges as children, the way
// extensions/graph_debug.go's buildTree walks a dependency graph —
// but over stanza's node/edge model, and guarding against cycles
// (a stanza graph need not be acyclic) with a visited set instead of
// assuming a DAG.
func renderGraph(g *graph.Graph) string {
	if len(g.Nodes()) == 0 {
		return "(empty graph)"
	}

	hasIncoming := make(map[graph.NodeID]bool)
	outgoing := make(map[graph.NodeID][]graph.NodeID)
	for _, edge := range g.Edges() {
		hasIncoming[edge.Sink] = true
		outgoing[edge.Source] = append(outgoing[edge.Source], edge.Sink)
	}

	var roots []graph.NodeID
	for _, n := range g.Nodes() {
		if !hasIncoming[n] {
			roots = append(roots, n)
		}
	}
	if len(roots) == 0 {
		roots = g.Nodes() // every node sits on a cycle; render each independently
	}

	var out string
	for _, root := range roots {
		t := buildNodeTree(g, outgoing, root, make(map[graph.NodeID]bool))
		out += t.String() + "\n"
	}
	return out
}

func buildNodeTree(g *graph.Graph, outgoing map[graph.NodeID][]graph.NodeID, n graph.NodeID, visited map[graph.NodeID]bool) *tree.Tree {
	visited[n] = true
	node := tree.NewTree(tree.NodeString(describeNode(g, n)))
	for _, child := range outgoing[n] {
		if visited[child] {
			continue
		}
		childTree := buildNodeTree(g, outgoing, child, visited)
		addAsChild(node, childTree)
	}
	return node
}

// addAsChild grafts child (and everything beneath it) onto parent.
// treedrawer's AddChild only takes a value, not a subtree, so the
// subtree has to be walked and rebuilt node by node.
func addAsChild(parent *tree.Tree, child *tree.Tree) {
	grafted := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		addAsChild(grafted, grandchild)
	}
}

func describeNode(g *graph.Graph, n graph.NodeID) string {
	attrs := g.NodeAttributes(n)
	if len(attrs) == 0 {
		return n.String()
	}
	desc := n.String()
	for name, value := range attrs {
		desc += fmt.Sprintf(" %s=%s", name, value.String())
	}
	return desc
}
