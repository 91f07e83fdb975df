package graph

import "github.com/csotherden/cudagraph/tensor"

// OpBuilder assembles one new node and its incoming edges before committing
// it to the graph, mirroring the original source's fluent
// `graph.add_op(op).input(a, 0, shape_a).finish()` call chain.
type OpBuilder struct {
	g    *Graph
	op   tensor.Operator
	view tensor.TensorView
	ins  []pendingInput
}

type pendingInput struct {
	src         tensor.NodeID
	outputIndex int
}

// AddOp starts building a new node for op, producing view.
func (g *Graph) AddOp(op tensor.Operator, view tensor.TensorView) *OpBuilder {
	return &OpBuilder{g: g, op: op, view: view}
}

// Input records a dependency edge from src's sole (or default, index 0)
// output.
func (b *OpBuilder) Input(src tensor.NodeID) *OpBuilder {
	return b.InputOutput(src, 0)
}

// InputOutput records a dependency edge from src's outputIndex'th output.
func (b *OpBuilder) InputOutput(src tensor.NodeID, outputIndex int) *OpBuilder {
	b.ins = append(b.ins, pendingInput{src: src, outputIndex: outputIndex})
	return b
}

// Finish commits the node and its edges, returning the new node's ID.
func (b *OpBuilder) Finish() tensor.NodeID {
	id := b.g.addNode(b.op, b.view)
	for _, in := range b.ins {
		b.g.AddEdge(in.src, id, in.outputIndex)
	}
	return id
}
