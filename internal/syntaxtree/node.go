// Package syntaxtree gives the lazy evaluation engine an opaque,
// comparable handle onto tree-sitter syntax nodes.
//
// tree-sitter's own *sitter.Node values are re-wrapped on every
// traversal call, so two references to what is conceptually the same
// node are not guaranteed to be pointer-identical. NodeRef is the
// stable, hashable identity the engine's scoped-variable maps key on;
// Tree is the index that can resolve a NodeRef back to a live
// *sitter.Node for text and structural access.
package syntaxtree

import (
	"fmt"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"
)

var treeCounter atomic.Uint64

// NodeRef identifies a node within one parsed Tree. It is comparable
// and safe to use as a Go map key, satisfying the engine's requirement
// that scope keys be "opaque handles with equality and hashability".
type NodeRef struct {
	treeID     uint64
	startByte  uint32
	endByte    uint32
	kind       string
}

// String renders a NodeRef the way tree-sitter-graph prints syntax
// node references in diagnostics: "(kind 12-34)".
func (r NodeRef) String() string {
	return fmt.Sprintf("(%s %d-%d)", r.kind, r.startByte, r.endByte)
}

// Kind returns the grammar symbol name of the referenced node.
func (r NodeRef) Kind() string {
	return r.kind
}

// Tree indexes a parsed tree-sitter tree so its nodes can be addressed
// by NodeRef. It owns the parse's source bytes for Content lookups.
type Tree struct {
	id     uint64
	raw    *sitter.Tree
	source []byte
}

// NewTree wraps a parsed tree-sitter tree for NodeRef resolution. The
// Tree does not retain the *sitter.Parser; callers own the parser's
// lifecycle.
func NewTree(raw *sitter.Tree, source []byte) *Tree {
	return &Tree{
		id:     treeCounter.Add(1),
		raw:    raw,
		source: source,
	}
}

// Root returns a NodeRef for the tree's root node.
func (t *Tree) Root() NodeRef {
	return t.ref(t.raw.RootNode())
}

// RawRoot returns the underlying *sitter.Node for the tree's root,
// for callers (internal/parser's query matcher) that need to drive a
// sitter.QueryCursor directly rather than go through NodeRef.
func (t *Tree) RawRoot() *sitter.Node {
	return t.raw.RootNode()
}

// Source returns the parse's source bytes, needed by query predicate
// filtering (#match?/#eq? predicates read source text).
func (t *Tree) Source() []byte {
	return t.source
}

// RefFor returns the NodeRef for a live *sitter.Node obtained from
// this tree (e.g. from a compiled query match). Exported for
// internal/parser's query matcher, the one caller outside this
// package that needs to mint a NodeRef from a node it didn't get via
// Tree's own traversal methods.
func (t *Tree) RefFor(n *sitter.Node) NodeRef {
	return t.ref(n)
}

func (t *Tree) ref(n *sitter.Node) NodeRef {
	return NodeRef{
		treeID:    t.id,
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
		kind:      n.Type(),
	}
}

// resolve walks from the root to find the live node a NodeRef
// addresses. Stanza programs are small and this is only called from
// diagnostic and evaluation paths, not in a hot inner loop, so a
// bounded descent by byte range is adequate.
func (t *Tree) resolve(ref NodeRef) (*sitter.Node, bool) {
	if ref.treeID != t.id {
		return nil, false
	}
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.StartByte() == ref.startByte && n.EndByte() == ref.endByte && n.Type() == ref.kind {
			found = n
			return
		}
		if n.StartByte() > ref.startByte || n.EndByte() < ref.endByte {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
			if found != nil {
				return
			}
		}
	}
	walk(t.raw.RootNode())
	return found, found != nil
}

// Text returns the source text spanned by ref.
func (t *Tree) Text(ref NodeRef) (string, bool) {
	n, ok := t.resolve(ref)
	if !ok {
		return "", false
	}
	return n.Content(t.source), true
}

// FieldChild returns the NodeRef of ref's named field child, if any.
func (t *Tree) FieldChild(ref NodeRef, field string) (NodeRef, bool) {
	n, ok := t.resolve(ref)
	if !ok {
		return NodeRef{}, false
	}
	child := n.ChildByFieldName(field)
	if child == nil {
		return NodeRef{}, false
	}
	return t.ref(child), true
}

// NamedChildren returns NodeRefs for ref's named children in order.
func (t *Tree) NamedChildren(ref NodeRef) []NodeRef {
	n, ok := t.resolve(ref)
	if !ok {
		return nil
	}
	out := make([]NodeRef, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, t.ref(n.NamedChild(i)))
	}
	return out
}

// Parent returns the NodeRef of ref's parent, if any.
func (t *Tree) Parent(ref NodeRef) (NodeRef, bool) {
	n, ok := t.resolve(ref)
	if !ok || n.Parent() == nil {
		return NodeRef{}, false
	}
	return t.ref(n.Parent()), true
}
