package graph

import (
	"context"
	"testing"

	"github.com/csotherden/cudagraph/tensor"
)

type stubOp struct{ name string }

func (s stubOp) Name() string { return s.name }

func (s stubOp) Process(_ context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return tensor.NewHost(nil), tensor.TensorView{NodeID: self}, nil
}

func TestAddOpAssignsView(t *testing.T) {
	g := New()
	id := g.AddOp(stubOp{"a"}, tensor.TensorView{}).Finish()
	n := g.Node(id)
	if n == nil {
		t.Fatal("node not found after AddOp")
	}
	if n.View.NodeID != id {
		t.Fatalf("View.NodeID = %d, want %d", n.View.NodeID, id)
	}
}

func TestInputsOrderedByOutputIndex(t *testing.T) {
	g := New()
	a := g.AddOp(stubOp{"a"}, tensor.TensorView{}).Finish()
	b := g.AddOp(stubOp{"b"}, tensor.TensorView{}).Finish()
	c := g.AddOp(stubOp{"c"}, tensor.TensorView{}).
		InputOutput(b, 1).
		InputOutput(a, 0).
		Finish()

	ins := g.Inputs(c)
	if len(ins) != 2 {
		t.Fatalf("Inputs len = %d, want 2", len(ins))
	}
	if ins[0] != a || ins[1] != b {
		t.Fatalf("Inputs = %v, want [%d %d]", ins, a, b)
	}
}

func TestSetOperatorPreservesEdges(t *testing.T) {
	g := New()
	a := g.AddOp(stubOp{"a"}, tensor.TensorView{}).Finish()
	b := g.AddOp(stubOp{"b"}, tensor.TensorView{}).Input(a).Finish()

	if ok := g.SetOperator(b, stubOp{"b2"}); !ok {
		t.Fatal("SetOperator returned false")
	}
	if g.Node(b).Op.Name() != "b2" {
		t.Fatalf("operator not replaced, got %q", g.Node(b).Op.Name())
	}
	if ins := g.Inputs(b); len(ins) != 1 || ins[0] != a {
		t.Fatalf("edges lost after SetOperator, Inputs = %v", ins)
	}
}

func TestMoveReferencesTransfersToRetrieve(t *testing.T) {
	g := New()
	a := g.AddOp(stubOp{"a"}, tensor.TensorView{}).Finish()
	b := g.AddOp(stubOp{"b"}, tensor.TensorView{}).Input(a).Finish()
	g.ToRetrieve[a] = struct{}{}

	g.MoveReferences(a, b)

	if _, ok := g.ToRetrieve[a]; ok {
		t.Fatal("old node still marked ToRetrieve")
	}
	if _, ok := g.ToRetrieve[b]; !ok {
		t.Fatal("new node not marked ToRetrieve")
	}
	if g.IDRemap[a] != b {
		t.Fatalf("IDRemap[a] = %d, want %d", g.IDRemap[a], b)
	}
}

func TestEdgesFromCarriesOutputIndex(t *testing.T) {
	g := New()
	a := g.AddOp(stubOp{"a"}, tensor.TensorView{}).Finish()
	b := g.AddOp(stubOp{"b"}, tensor.TensorView{}).InputOutput(a, 2).Finish()

	edges := g.EdgesFrom(a)
	if len(edges) != 1 {
		t.Fatalf("EdgesFrom len = %d, want 1", len(edges))
	}
	if edges[0].To != b || edges[0].OutputIndex != 2 {
		t.Fatalf("edge = %+v, want To=%d OutputIndex=2", edges[0], b)
	}
}
