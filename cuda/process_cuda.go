//go:build cuda

// process_cuda.go
//
// Real CUDA-backed Process implementations, one per operator type defined
// in types.go. Each follows the same shape the original source's per-op
// process() does: downcast inputs to their device payload, render kernel
// source (via kernelsrc.go, cached by cache.go), compile/launch it through
// internal/gpu, and wrap the result back into a Tensor/TensorView pair.
package cuda

import (
	"context"
	"fmt"

	"github.com/csotherden/cudagraph/internal/gpu"
	"github.com/csotherden/cudagraph/shapetracker"
	"github.com/csotherden/cudagraph/tensor"
)

func deviceBufferOf(in tensor.InputValue) (*gpu.Buffer, error) {
	db, err := in.Tensor.RequireDevice()
	if err != nil {
		return nil, err
	}
	buf, ok := db.(*gpu.Buffer)
	if !ok {
		return nil, fmt.Errorf("cuda: unexpected device buffer type %T", db)
	}
	return buf, nil
}

func (o *CopyToDevice) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 1 {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s expects 1 input, got %d", o.Name(), len(inputs))
	}
	hostData, err := inputs[0].Tensor.RequireHost()
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	dev, err := gpu.Acquire(o.eng.ordinal)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", o.Name(), err)
	}
	buf, err := dev.Alloc(len(hostData))
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: alloc: %w", o.Name(), err)
	}
	if err := dev.CopyHtoD(ctx, buf, hostData); err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: copy: %w", o.Name(), err)
	}
	view := tensor.TensorView{NodeID: self, Shape: inputs[0].View.Shape.Clone()}
	return tensor.NewDevice(buf), view, nil
}

func (o *CopyFromDevice) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 1 {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s expects 1 input, got %d", o.Name(), len(inputs))
	}
	buf, err := deviceBufferOf(inputs[0])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	dev, err := gpu.Acquire(o.eng.ordinal)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", o.Name(), err)
	}
	out := make([]float32, buf.Len())
	if err := dev.CopyDtoH(ctx, out, buf); err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: copy: %w", o.Name(), err)
	}
	view := tensor.TensorView{NodeID: self, Shape: inputs[0].View.Shape.Clone()}
	return tensor.NewHost(out), view, nil
}

// runUnary is the shared body of every unary elementwise operator.
func runUnary(ctx context.Context, eng *Engine, name, kernelName string, sourceFn func() string, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 1 {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s expects 1 input, got %d", name, len(inputs))
	}
	inBuf, err := deviceBufferOf(inputs[0])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	numel := shapetracker.NumElements(inputs[0].View.Shape.Shape())

	dev, err := gpu.Acquire(eng.ordinal)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, err)
	}
	outBuf, err := dev.Alloc(numel)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: alloc: %w", name, err)
	}

	mod, err := eng.cache.GetOrCompile(ctx, dev, name, "", kernelName, sourceFn)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, ErrCompile)
	}
	cfg := gpu.LaunchConfigForNumElems(numel, eng.blockSize)
	if err := dev.Launch(ctx, mod, cfg, []interface{}{outBuf, inBuf, int32(numel)}); err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, ErrLaunch)
	}

	view := tensor.TensorView{NodeID: self, Shape: inputs[0].View.Shape.Clone()}
	return tensor.NewDevice(outBuf), view, nil
}

func (o *Log2) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runUnary(ctx, o.eng, o.Name(), "log2_kernel", log2Source, inputs, self)
}

func (o *Exp2) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runUnary(ctx, o.eng, o.Name(), "exp2_kernel", exp2Source, inputs, self)
}

func (o *Sin) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runUnary(ctx, o.eng, o.Name(), "sin_kernel", sinSource, inputs, self)
}

func (o *Sqrt) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runUnary(ctx, o.eng, o.Name(), "sqrt_kernel", sqrtSource, inputs, self)
}

func (o *Recip) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runUnary(ctx, o.eng, o.Name(), "recip_kernel", recipSource, inputs, self)
}

// runBinary is the shared body of every binary elementwise operator.
func runBinary(ctx context.Context, eng *Engine, name, kernelName string, sourceFn func(a, b string) string, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 2 {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s expects 2 inputs, got %d", name, len(inputs))
	}
	resShape, err := inputs[0].View.Shape.GetRealShape(inputs[1].View.Shape)
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	aBuf, err := deviceBufferOf(inputs[0])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	bBuf, err := deviceBufferOf(inputs[1])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}
	numel := shapetracker.NumElements(resShape)
	if numel == 0 {
		// An empty result needs no kernel: nothing is compiled or launched.
		return tensor.NewDevice(&gpu.Buffer{}), tensor.TensorView{NodeID: self, Shape: shapetracker.New(resShape)}, nil
	}

	aIdxExpr := inputs[0].View.Shape.IndexFnNode().StringNoRange()
	bIdxExpr := inputs[1].View.Shape.IndexFnNode().StringNoRange()
	detail := aIdxExpr + "|" + bIdxExpr

	dev, err := gpu.Acquire(eng.ordinal)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, err)
	}
	outBuf, err := dev.Alloc(numel)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: alloc: %w", name, err)
	}

	mod, err := eng.cache.GetOrCompile(ctx, dev, name, detail, kernelName, func() string { return sourceFn(aIdxExpr, bIdxExpr) })
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, ErrCompile)
	}
	cfg := gpu.LaunchConfigForNumElems(numel, eng.blockSize)
	if err := dev.Launch(ctx, mod, cfg, []interface{}{outBuf, aBuf, bBuf, int32(numel)}); err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, ErrLaunch)
	}

	view := tensor.TensorView{NodeID: self, Shape: shapetracker.New(resShape)}
	return tensor.NewDevice(outBuf), view, nil
}

func (o *Add) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runBinary(ctx, o.eng, o.Name(), "add_kernel", addSource, inputs, self)
}

func (o *Mul) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runBinary(ctx, o.eng, o.Name(), "mul_kernel", mulSource, inputs, self)
}

func (o *Max) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runBinary(ctx, o.eng, o.Name(), "max_kernel", maxSource, inputs, self)
}

func (o *Mod) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runBinary(ctx, o.eng, o.Name(), "mod_kernel", modSource, inputs, self)
}

// runReduce is the shared body of SumReduce and MaxReduce.
func runReduce(ctx context.Context, eng *Engine, name, kernelName string, dim int, sourceFn func(inpIdxExpr string) string, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	if len(inputs) != 1 {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s expects 1 input, got %d", name, len(inputs))
	}
	shape := inputs[0].View.Shape.Shape()
	if dim < 0 || dim >= len(shape) {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s dim %d out of range for shape %v", name, dim, shape)
	}
	inBuf, err := deviceBufferOf(inputs[0])
	if err != nil {
		return nil, tensor.TensorView{}, err
	}

	frontSize := 1
	for i := 0; i < dim; i++ {
		frontSize *= shape[i]
	}
	backSize := 1
	for i := dim + 1; i < len(shape); i++ {
		backSize *= shape[i]
	}
	dimSize := shape[dim]

	outShape := append([]int(nil), shape...)
	outShape = append(outShape[:dim], outShape[dim+1:]...)
	resultSize := shapetracker.NumElements(outShape)

	inpIdxExpr := inputs[0].View.Shape.IndexFnNode().StringNoRange()

	dev, err := gpu.Acquire(eng.ordinal)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, err)
	}
	outBuf, err := dev.Alloc(resultSize)
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: alloc: %w", name, err)
	}

	mod, err := eng.cache.GetOrCompile(ctx, dev, name, fmt.Sprintf("dim=%d|%s", dim, inpIdxExpr), kernelName, func() string { return sourceFn(inpIdxExpr) })
	if err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, ErrCompile)
	}
	cfg := gpu.LaunchConfigForNumElems(resultSize, eng.blockSize)
	args := []interface{}{outBuf, inBuf, int32(frontSize), int32(backSize), int32(dimSize), int32(resultSize)}
	if err := dev.Launch(ctx, mod, cfg, args); err != nil {
		return nil, tensor.TensorView{}, fmt.Errorf("cuda: %s: %w", name, ErrLaunch)
	}

	view := tensor.TensorView{NodeID: self, Shape: shapetracker.New(outShape)}
	return tensor.NewDevice(outBuf), view, nil
}

func (o *SumReduce) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runReduce(ctx, o.eng, o.Name(), "sumreduce_kernel", o.Dim, sumReduceSource, inputs, self)
}

func (o *MaxReduce) Process(ctx context.Context, inputs []tensor.InputValue, self tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return runReduce(ctx, o.eng, o.Name(), "maxreduce_kernel", o.Dim, maxReduceSource, inputs, self)
}
