//go:build !cuda

// process_stub.go
//
// Non-cuda build: every CUDA operator's Process reports the driver as
// unavailable rather than attempting any GPU work, mirroring
// engine_other.go's no-op stance for the Metal backend on non-Darwin
// platforms. This keeps package cuda importable (and its rewrite pass
// testable) on any machine, CUDA toolkit or not.
package cuda

import (
	"context"
	"fmt"

	"github.com/csotherden/cudagraph/internal/gpu"
	"github.com/csotherden/cudagraph/tensor"
)

func unavailable(name string) error {
	return fmt.Errorf("cuda: %s: %w", name, gpu.ErrUnavailable)
}

func (o *CopyToDevice) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *CopyFromDevice) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Log2) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Exp2) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Sin) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Sqrt) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Recip) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Add) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Mul) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Max) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *Mod) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *SumReduce) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}

func (o *MaxReduce) Process(_ context.Context, _ []tensor.InputValue, _ tensor.NodeID) (*tensor.Tensor, tensor.TensorView, error) {
	return nil, tensor.TensorView{}, unavailable(o.Name())
}
