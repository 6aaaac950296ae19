// Package graph implements the language-neutral code property graph: node
// headers with source locations, AST containment, data-flow and
// symbol-reference edges, and the type-propagation bus between typed nodes.
package graph

import (
	"reflect"
	"sort"
)

// Location is a source span within a translation unit.
type Location struct {
	File        string `json:"file"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
}

// Node is implemented by every graph node.
type Node interface {
	Header() *NodeHeader
}

// NodeHeader is the common header of every node: identity, name, raw source
// fragment, location, and the edge bookkeeping shared by all node kinds.
// Concrete nodes embed it.
type NodeHeader struct {
	ID       int64
	Name     string
	Code     string
	Location Location

	self Node

	astParent   Node
	astChildren []Node

	prevDFG map[Node]struct{}
	nextDFG map[Node]struct{}
}

// Header returns the embedded header; it makes any embedding struct a Node.
func (h *NodeHeader) Header() *NodeHeader { return h }

func (h *NodeHeader) init(self Node) {
	h.self = self
	h.prevDFG = make(map[Node]struct{})
	h.nextDFG = make(map[Node]struct{})
}

// AstParent returns the node's containment parent, or nil for a root.
func (h *NodeHeader) AstParent() Node { return h.astParent }

// AstChildren returns the containment children in insertion order.
func (h *NodeHeader) AstChildren() []Node {
	return append([]Node(nil), h.astChildren...)
}

// adopt makes child an AST child of this node. A child already owned by
// another parent is re-parented, keeping the AST a forest.
func (h *NodeHeader) adopt(child Node) {
	if child == nil || isNilNode(child) {
		return
	}
	ch := child.Header()
	if ch.astParent != nil {
		ch.astParent.Header().orphan(child)
	}
	ch.astParent = h.self
	h.astChildren = append(h.astChildren, child)
}

// orphan detaches child from this node's AST children.
func (h *NodeHeader) orphan(child Node) {
	if child == nil || isNilNode(child) {
		return
	}
	for i, c := range h.astChildren {
		if c == child {
			h.astChildren = append(h.astChildren[:i], h.astChildren[i+1:]...)
			break
		}
	}
	child.Header().astParent = nil
}

// AddPrevDFG records a data-flow edge from → this.
func (h *NodeHeader) AddPrevDFG(from Node) {
	if from == nil || isNilNode(from) {
		return
	}
	h.prevDFG[from] = struct{}{}
	from.Header().nextDFG[h.self] = struct{}{}
}

// RemovePrevDFG removes the data-flow edge from → this, if present.
func (h *NodeHeader) RemovePrevDFG(from Node) {
	if from == nil || isNilNode(from) {
		return
	}
	delete(h.prevDFG, from)
	delete(from.Header().nextDFG, h.self)
}

// PrevDFG returns incoming data-flow sources ordered by node identity.
func (h *NodeHeader) PrevDFG() []Node { return sortedNodes(h.prevDFG) }

// NextDFG returns outgoing data-flow targets ordered by node identity.
func (h *NodeHeader) NextDFG() []Node { return sortedNodes(h.nextDFG) }

// DisconnectFromGraph removes the node's data-flow edges in both directions
// and detaches it from its AST parent. Used for temporary nodes that must not
// leave artifacts in the final graph.
func (h *NodeHeader) DisconnectFromGraph() {
	for n := range h.prevDFG {
		delete(n.Header().nextDFG, h.self)
	}
	for n := range h.nextDFG {
		delete(n.Header().prevDFG, h.self)
	}
	h.prevDFG = make(map[Node]struct{})
	h.nextDFG = make(map[Node]struct{})
	if h.astParent != nil {
		h.astParent.Header().orphan(h.self)
	}
}

func sortedNodes(set map[Node]struct{}) []Node {
	out := make([]Node, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Header().ID < out[j].Header().ID
	})
	return out
}

// isNilNode guards against typed-nil interface values reaching the edge maps.
func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
