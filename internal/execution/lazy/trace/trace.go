// Package trace renders a force-call chain as a vertical tree for
// diagnostic output, the way extensions.GraphDebugExtension renders a
// dependency graph in the teacher library, but for the lazy engine's
// linear force stack rather than a reactive dependency graph.
package trace

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"
)

// Chain renders a force stack (outermost call first, as returned by
// lazy.Store.Trace) as a vertical dependency chain, marking the
// innermost entry as the one where the cycle closed.
func Chain(stack []fmt.Stringer) string {
	if len(stack) == 0 {
		return "(empty force stack)"
	}

	first := stack[0].String()
	if len(stack) == 1 {
		first += " <- cycle"
	}
	root := tree.NewTree(tree.NodeString(first))
	node := root
	for i := 1; i < len(stack); i++ {
		label := stack[i].String()
		if i == len(stack)-1 {
			label += " <- cycle"
		}
		node = node.AddChild(tree.NodeString(label))
	}
	return root.String()
}

// Strings adapts a []string to the []fmt.Stringer Chain expects.
func Strings(values []string) []fmt.Stringer {
	out := make([]fmt.Stringer, len(values))
	for i, v := range values {
		out[i] = stringer(v)
	}
	return out
}

type stringer string

func (s stringer) String() string { return string(s) }
