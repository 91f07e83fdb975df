// Package hostops provides the device-agnostic primitive operators spec.md
// §4.1 describes, plus the Function input operator the original source's
// luminal::op::Function represents. These are CPU reference
// implementations only: test-graph scaffolding that lets the cuda
// package's rewrite pass and executor be exercised end-to-end without a
// GPU. They are not a production CPU backend — spec.md's Non-goals
// exclude a CPU-fallback execution path. Once a graph has been through the
// device-specialization pass only Function still runs; every primitive op
// here has been replaced by its CUDA equivalent.
package hostops

import (
	"context"
	"fmt"
	"math"

	"github.com/csotherden/cudagraph/shapetracker"
	"github.com/csotherden/cudagraph/tensor"
)

// Function is an opaque host-side data source: calling it materializes a
// tensor from outside the graph (constants, loaded weights, previously
// retrieved results fed back in). It mirrors luminal::op::Function, whose
// process() invokes a closure rather than computing from graph inputs.
type Function struct {
	FnName string
	Load   func() []float32
}

func (f *Function) Name() string { return f.FnName }

func (f *Function) Process(_ context.Context, _ []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	data := f.Load()
	view := tensor.TensorView{
		NodeID: self,
		Shape:  shapetracker.New([]int{len(data)}),
	}
	return tensor.NewHost(data), view, nil
}

func gather(in tensor.InputValue) ([]float32, error) {
	data, err := in.Tensor.RequireHost()
	if err != nil {
		return nil, err
	}
	n := shapetracker.NumElements(in.View.Shape.Shape())
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = data[in.View.Shape.PhysicalIndex(i)]
	}
	return out, nil
}

type unaryFn func(float32) float32

func applyUnary(ctx context.Context, name string, inputs []tensor.InputValue, self tensor.NodeID, fn unaryFn) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 1 {
		return nil, tensor.TensorView{}, fmt.Errorf("hostops: %s expects 1 input, got %d", name, len(inputs))
	}
	data, err := gather(inputs[0])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = fn(v)
	}
	view := tensor.TensorView{NodeID: self, Shape: shapetracker.New(inputs[0].View.Shape.Shape())}
	return tensor.NewHost(out), view, nil
}

type Log2 struct{}

func (Log2) Name() string { return "Log2" }
func (Log2) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyUnary(ctx, "Log2", inputs, self, func(v float32) float32 { return float32(math.Log2(float64(v))) })
}

type Exp2 struct{}

func (Exp2) Name() string { return "Exp2" }
func (Exp2) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyUnary(ctx, "Exp2", inputs, self, func(v float32) float32 { return float32(math.Exp2(float64(v))) })
}

type Sin struct{}

func (Sin) Name() string { return "Sin" }
func (Sin) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyUnary(ctx, "Sin", inputs, self, func(v float32) float32 { return float32(math.Sin(float64(v))) })
}

type Sqrt struct{}

func (Sqrt) Name() string { return "Sqrt" }
func (Sqrt) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyUnary(ctx, "Sqrt", inputs, self, func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

type Recip struct{}

func (Recip) Name() string { return "Recip" }
func (Recip) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyUnary(ctx, "Recip", inputs, self, func(v float32) float32 { return 1 / v })
}

type binaryFn func(a, b float32) float32

func applyBinary(name string, inputs []tensor.InputValue, self tensor.NodeID, fn binaryFn) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 2 {
		return nil, tensor.TensorView{}, fmt.Errorf("hostops: %s expects 2 inputs, got %d", name, len(inputs))
	}
	realShape, err := inputs[0].View.Shape.GetRealShape(inputs[1].View.Shape)
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	a, err := gather(inputs[0])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	b, err := gather(inputs[1])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	n := shapetracker.NumElements(realShape)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = fn(a[i%len(a)], b[i%len(b)])
	}
	view := tensor.TensorView{NodeID: self, Shape: shapetracker.New(realShape)}
	return tensor.NewHost(out), view, nil
}

type Add struct{}

func (Add) Name() string { return "Add" }
func (Add) Process(_ context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyBinary("Add", inputs, self, func(a, b float32) float32 { return a + b })
}

type Mul struct{}

func (Mul) Name() string { return "Mul" }
func (Mul) Process(_ context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyBinary("Mul", inputs, self, func(a, b float32) float32 { return a * b })
}

type Max struct{}

func (Max) Name() string { return "Max" }
func (Max) Process(_ context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyBinary("Max", inputs, self, func(a, b float32) float32 {
		if a > b {
			return a
		}
		return b
	})
}

type Mod struct{}

func (Mod) Name() string { return "Mod" }
func (Mod) Process(_ context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return applyBinary("Mod", inputs, self, func(a, b float32) float32 { return float32(math.Mod(float64(a), float64(b))) })
}

// SumReduce removes Dim from the shape, summing along it.
type SumReduce struct{ Dim int }

func (r SumReduce) Name() string { return "SumReduce" }
func (r SumReduce) Process(_ context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return reduce("SumReduce", r.Dim, inputs, self, 0, func(acc, v float32) float32 { return acc + v })
}

// MaxReduce removes Dim from the shape, taking the max along it.
type MaxReduce struct{ Dim int }

func (r MaxReduce) Name() string { return "MaxReduce" }
func (r MaxReduce) Process(_ context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return reduce("MaxReduce", r.Dim, inputs, self, float32(math.Inf(-1)), func(acc, v float32) float32 {
		if v > acc {
			return v
		}
		return acc
	})
}

func reduce(name string, dim int, inputs []tensor.InputValue, self tensor.NodeID, identity float32, fn func(acc, v float32) float32) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 1 {
		return nil, tensor.TensorView{}, fmt.Errorf("hostops: %s expects 1 input, got %d", name, len(inputs))
	}
	shape := inputs[0].View.Shape.Shape()
	if dim < 0 || dim >= len(shape) {
		return nil, tensor.TensorView{}, fmt.Errorf("hostops: %s dim %d out of range for shape %v", name, dim, shape)
	}
	data, err := gather(inputs[0])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}

	dimSize := shape[dim]
	outShape := append(append([]int(nil), shape[:dim]...), shape[dim+1:]...)
	outN := shapetracker.NumElements(outShape)

	front := 1
	for i := dim + 1; i < len(shape); i++ {
		front *= shape[i]
	}
	back := 1
	for i := 0; i < dim; i++ {
		back *= shape[i]
	}

	out := make([]float32, outN)
	for b := 0; b < back; b++ {
		for f := 0; f < front; f++ {
			acc := identity
			for d := 0; d < dimSize; d++ {
				srcIdx := b*dimSize*front + d*front + f
				acc = fn(acc, data[srcIdx])
			}
			out[b*front+f] = acc
		}
	}
	view := tensor.TensorView{NodeID: self, Shape: shapetracker.New(outShape)}
	return tensor.NewHost(out), view, nil
}
