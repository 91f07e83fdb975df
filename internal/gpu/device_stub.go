//go:build !cuda

// device_stub.go
//
// Non-cuda stub for Device acquisition. Acquire succeeds, and every Device
// method except Ordinal reports ErrUnavailable,
// the same shape the teacher engine's engine_other.go gives non-Metal
// platforms: a no-op that keeps the package importable everywhere while
// making the missing backend visible as an ordinary error rather than a
// build failure.
package gpu

import (
	"context"
	"sync"
)

type stubDevice struct{ ordinal int }

func (d *stubDevice) Alloc(n int) (*Buffer, error) { return nil, ErrUnavailable }
func (d *stubDevice) Free(buf *Buffer) error       { return ErrUnavailable }
func (d *stubDevice) CopyHtoD(ctx context.Context, dst *Buffer, src []float32) error {
	return ErrUnavailable
}
func (d *stubDevice) CopyDtoH(ctx context.Context, dst []float32, src *Buffer) error {
	return ErrUnavailable
}
func (d *stubDevice) CompileModule(ctx context.Context, kernelName, source string) (Module, error) {
	return nil, ErrUnavailable
}
func (d *stubDevice) Launch(ctx context.Context, mod Module, cfg LaunchConfig, args []interface{}) error {
	return ErrUnavailable
}
func (d *stubDevice) UnloadModule(mod Module) error { return ErrUnavailable }
func (d *stubDevice) Ordinal() int { return d.ordinal }

var (
	once     sync.Once
	instance *stubDevice
)

// Acquire returns a stub Device that reports ErrUnavailable for every
// operation. Callers on a real CUDA build get device_cuda.go's Acquire
// instead; the signature is identical so cuda.Process never branches on
// the build tag itself.
func Acquire(ordinal int) (Device, error) {
	once.Do(func() { instance = &stubDevice{ordinal: ordinal} })
	return instance, nil
}
