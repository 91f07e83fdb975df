package gpu

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by every Device method except Ordinal when
// this binary was built without the cuda build tag (no CUDA toolkit/driver
// on the build host). It lets cuda.Process report spec.md §7's "driver errors" class
// instead of panicking when a CUDA op runs in a cuda-less build.
var ErrUnavailable = errors.New("gpu: CUDA driver unavailable (built without -tags cuda)")

// Buffer is a device-resident allocation. It satisfies tensor.DeviceBuffer
// (Len() int) structurally, so package gpu never needs to import package
// tensor.
type Buffer struct {
	ptr  uintptr
	n    int
	free func(uintptr) error
}

// Len reports the element count this buffer was allocated for.
func (b *Buffer) Len() int { return b.n }

// Module is an opaque, already-compiled kernel handle: the result of one
// NVRTC compile and PTX load, reusable across many Launch calls without
// repeating either step. Callers are expected to hold onto a Module (see
// cuda.Cache) rather than recompile the same source on every invocation.
type Module interface {
	// KernelName reports the entry point this Module resolved.
	KernelName() string
}

// Device is the GPU driver surface spec.md §1 names as an out-of-scope
// collaborator: device selection, allocation, host<->device copies, and
// PTX compile/load/launch.
type Device interface {
	// Alloc reserves device memory for n float32 elements.
	Alloc(n int) (*Buffer, error)
	// Free releases a previously allocated buffer.
	Free(buf *Buffer) error
	// CopyHtoD uploads src into dst, which must have len(src) capacity.
	CopyHtoD(ctx context.Context, dst *Buffer, src []float32) error
	// CopyDtoH downloads src into dst, which must have src.Len() capacity.
	CopyDtoH(ctx context.Context, dst []float32, src *Buffer) error
	// CompileModule JIT-compiles source (CUDA C) via NVRTC to PTX, loads
	// it, and resolves kernelName into a Module. The caller should cache
	// the result and reuse it across calls rather than invoking this on
	// every Process call.
	CompileModule(ctx context.Context, kernelName, source string) (Module, error)
	// Launch runs a previously compiled Module with cfg and args.
	Launch(ctx context.Context, mod Module, cfg LaunchConfig, args []interface{}) error
	// UnloadModule releases a Module's underlying PTX module. Called when
	// a cache evicts an entry it no longer wants to keep resident.
	UnloadModule(mod Module) error
	// Ordinal reports the device index this Device was acquired for.
	Ordinal() int
}
