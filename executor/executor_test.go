package executor

import (
	"context"
	"testing"

	cgraph "github.com/csotherden/cudagraph/graph"
	"github.com/csotherden/cudagraph/hostops"
	"github.com/csotherden/cudagraph/shapetracker"
	"github.com/csotherden/cudagraph/tensor"
)

func TestRunComputesAddGraph(t *testing.T) {
	g := cgraph.New()

	a := g.AddOp(&hostops.Function{FnName: "a", Load: func() []float32 { return []float32{1, 2, 3} }},
		tensor.TensorView{Shape: shapetracker.New([]int{3})}).Finish()
	b := g.AddOp(&hostops.Function{FnName: "b", Load: func() []float32 { return []float32{10, 20, 30} }},
		tensor.TensorView{Shape: shapetracker.New([]int{3})}).Finish()
	sum := g.AddOp(hostops.Add{}, tensor.TensorView{}).Input(a).Input(b).Finish()
	g.ToRetrieve[sum] = struct{}{}

	out, err := Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	result, ok := out[sum].Host()
	if !ok {
		t.Fatal("retrieved tensor is not host-resident")
	}
	want := []float32{11, 22, 33}
	for i := range want {
		if result[i] != want[i] {
			t.Fatalf("result = %v, want %v", result, want)
		}
	}
}

func TestRunAbortsOnOperatorError(t *testing.T) {
	g := cgraph.New()
	a := g.AddOp(&hostops.Function{FnName: "a", Load: func() []float32 { return []float32{1, 2} }},
		tensor.TensorView{Shape: shapetracker.New([]int{2})}).Finish()
	bad := g.AddOp(hostops.SumReduce{Dim: 5}, tensor.TensorView{}).Input(a).Finish()
	g.ToRetrieve[bad] = struct{}{}

	if _, err := Run(context.Background(), g); err == nil {
		t.Fatal("expected error from out-of-range reduce dim, got nil")
	}
}
