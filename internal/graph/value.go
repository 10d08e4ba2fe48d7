// Package graph is the output data model a stanza program builds:
// nodes, edges, and their attribute maps. The lazy evaluation engine
// (internal/execution/lazy) treats graph.Value opaquely, as spec'd —
// it is the type a Thunk forces to, never inspected by the engine
// itself.
package graph

import (
	"fmt"

	"github.com/stanzalang/stanza/internal/syntaxtree"
)

// ValueKind discriminates the closed set of value shapes a forced
// expression can produce.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInteger
	KindString
	KindList
	KindNode
	KindSyntaxNode
)

// Value is the dynamically-typed result of forcing a LazyValue. It is
// immutable once constructed, matching the invariant that a Forced
// Thunk's contents never change.
type Value struct {
	kind   ValueKind
	b      bool
	i      int64
	s      string
	list   []Value
	node   NodeID
	syntax syntaxtree.NodeRef
}

func Null() Value                       { return Value{kind: KindNull} }
func Bool(b bool) Value                 { return Value{kind: KindBool, b: b} }
func Integer(i int64) Value             { return Value{kind: KindInteger, i: i} }
func String(s string) Value             { return Value{kind: KindString, s: s} }
func List(items []Value) Value          { return Value{kind: KindList, list: items} }
func NodeValue(id NodeID) Value         { return Value{kind: KindNode, node: id} }
func SyntaxNodeValue(r syntaxtree.NodeRef) Value {
	return Value{kind: KindSyntaxNode, syntax: r}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsInteger() (int64, bool) { return v.i, v.kind == KindInteger }
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsList() ([]Value, bool)  { return v.list, v.kind == KindList }
func (v Value) AsNode() (NodeID, bool)   { return v.node, v.kind == KindNode }
func (v Value) AsSyntaxNode() (syntaxtree.NodeRef, bool) {
	return v.syntax, v.kind == KindSyntaxNode
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "#null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		return fmt.Sprintf("%v", v.list)
	case KindNode:
		return fmt.Sprintf("node(%d)", v.node)
	case KindSyntaxNode:
		return v.syntax.String()
	default:
		return "#invalid"
	}
}
