// Package graph is the generic graph engine spec.md §1 lists as an
// out-of-scope collaborator ("stores nodes, edges, and weights, and
// provides node-addition, edge-rewiring, and reference-remapping
// primitives"). It is realized here on top of gonum's directed graph
// (gonum.org/v1/gonum/graph/simple), the real Go analog of the original
// source's petgraph::stable_graph::StableGraph.
package graph

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/csotherden/cudagraph/tensor"
)

// Node wraps a gonum graph.Node with the (Operator, TensorView) payload
// every node in this core carries (spec.md §3 "Graph: ... Each node holds
// (Operator, TensorView)").
type Node struct {
	id   int64
	Op   tensor.Operator
	View tensor.TensorView
}

// ID satisfies gonum's graph.Node.
func (n *Node) ID() int64 { return n.id }

// NodeID returns this node's identity in the tensor package's own NodeID
// currency, so Operator.Process (which never imports package graph) can
// report itself as the producer of a TensorView.
func (n *Node) NodeID() tensor.NodeID { return tensor.NodeID(n.id) }

// Edge is a directed graph edge carrying the "opaque weight recording
// source-output selection" spec.md §3 describes: which of the source
// node's (possibly multiple) logical outputs this edge selects.
type Edge struct {
	F, T        *Node
	OutputIndex int
}

func (e Edge) From() graph.Node { return e.F }
func (e Edge) To() graph.Node   { return e.T }
func (e Edge) ReversedEdge() graph.Edge {
	return Edge{F: e.T, T: e.F, OutputIndex: e.OutputIndex}
}

// Graph is a mutable DAG of Node/Edge plus the bookkeeping spec.md §3
// requires: ToRetrieve (nodes whose values the caller wants to read back),
// and IDRemap/NoDelete (external-reference bookkeeping used when nodes are
// substituted or fused, so references taken before a rewrite stay valid).
type Graph struct {
	g      *simple.DirectedGraph
	nodes  map[tensor.NodeID]*Node
	nextID int64

	ToRetrieve map[tensor.NodeID]struct{}
	IDRemap    map[tensor.NodeID]tensor.NodeID
	NoDelete   map[tensor.NodeID]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		g:          simple.NewDirectedGraph(),
		nodes:      make(map[tensor.NodeID]*Node),
		ToRetrieve: make(map[tensor.NodeID]struct{}),
		IDRemap:    make(map[tensor.NodeID]tensor.NodeID),
		NoDelete:   make(map[tensor.NodeID]struct{}),
	}
}

// Node looks up a node by ID; returns nil if absent.
func (g *Graph) Node(id tensor.NodeID) *Node {
	return g.nodes[id]
}

// NodeIndices returns every node ID currently in the graph, in no
// particular order (the same guarantee petgraph's node_indices() gives).
func (g *Graph) NodeIndices() []tensor.NodeID {
	ids := make([]tensor.NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// SetOperator replaces the operator slot of an existing node in place,
// preserving its identity, edges, and TensorView — exactly the substitution
// spec.md §4.6 Phase C performs.
func (g *Graph) SetOperator(id tensor.NodeID, op tensor.Operator) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	n.Op = op
	return true
}

// addNode inserts a bare node (no edges) and returns its ID.
func (g *Graph) addNode(op tensor.Operator, view tensor.TensorView) tensor.NodeID {
	id := g.nextID
	g.nextID++
	n := &Node{id: id, Op: op, View: view}
	if view.NodeID == 0 {
		view.NodeID = tensor.NodeID(id)
		n.View = view
	}
	g.g.AddNode(n)
	g.nodes[tensor.NodeID(id)] = n
	return tensor.NodeID(id)
}

// AddEdge inserts a directed edge from -> to carrying outputIndex, the
// source-output selection the edge refers to.
func (g *Graph) AddEdge(from, to tensor.NodeID, outputIndex int) {
	g.g.SetEdge(Edge{F: g.nodes[from], T: g.nodes[to], OutputIndex: outputIndex})
}

// RemoveEdge removes the directed edge from -> to, if present.
func (g *Graph) RemoveEdge(from, to tensor.NodeID) {
	g.g.RemoveEdge(int64(from), int64(to))
}

// EdgeRef describes one directed edge as seen from EdgesFrom/EdgesTo.
type EdgeRef struct {
	From, To    tensor.NodeID
	OutputIndex int
}

// EdgesFrom lists every outgoing edge of id.
func (g *Graph) EdgesFrom(id tensor.NodeID) []EdgeRef {
	var out []EdgeRef
	it := g.g.From(int64(id))
	for it.Next() {
		to := it.Node().ID()
		e := g.g.Edge(int64(id), to).(Edge)
		out = append(out, EdgeRef{From: id, To: tensor.NodeID(to), OutputIndex: e.OutputIndex})
	}
	return out
}

// EdgesTo lists every incoming edge of id, in the order gonum's graph.Nodes
// iterator yields predecessors (insertion order is not guaranteed — see
// DESIGN.md's note on Phase A multi-edge ordering).
func (g *Graph) EdgesTo(id tensor.NodeID) []EdgeRef {
	var out []EdgeRef
	it := g.g.To(int64(id))
	for it.Next() {
		from := it.Node().ID()
		e := g.g.Edge(from, int64(id)).(Edge)
		out = append(out, EdgeRef{From: tensor.NodeID(from), To: id, OutputIndex: e.OutputIndex})
	}
	return out
}

// Inputs returns (Tensor, TensorView) pairs is the executor's job; Graph
// only exposes the structural parent list an executor needs to assemble
// them, ordered by the edges' OutputIndex so multi-input ops see a stable
// argument order regardless of gonum's internal edge iteration order.
func (g *Graph) Inputs(id tensor.NodeID) []tensor.NodeID {
	edges := g.EdgesTo(id)
	sortEdgesByOutputIndex(edges)
	ins := make([]tensor.NodeID, len(edges))
	for i, e := range edges {
		ins[i] = e.From
	}
	return ins
}

func sortEdgesByOutputIndex(edges []EdgeRef) {
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && edges[j].OutputIndex < edges[j-1].OutputIndex; j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}
}

// Underlying exposes the gonum graph for packages (the executor) that need
// gonum-native algorithms such as topological sort.
func (g *Graph) Underlying() *simple.DirectedGraph {
	return g.g
}

// MoveReferences transfers to_retrieve membership and any id_remap/
// no_delete bookkeeping from one node to another, the way spec.md §4.6
// Phase B's "migrate external references" step requires when a
// CudaCopyFromDevice is spliced in after a retrieved node.
func (g *Graph) MoveReferences(from, to tensor.NodeID) {
	if _, ok := g.ToRetrieve[from]; ok {
		delete(g.ToRetrieve, from)
		g.ToRetrieve[to] = struct{}{}
	}
	if _, ok := g.NoDelete[from]; ok {
		delete(g.NoDelete, from)
		g.NoDelete[to] = struct{}{}
	}
	for k, v := range g.IDRemap {
		if v == from {
			g.IDRemap[k] = to
		}
	}
	g.IDRemap[from] = to
}
