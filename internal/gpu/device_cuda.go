//go:build cuda

// device_cuda.go
//
// CUDA-backed Device, the real counterpart to device_stub.go. Acquire
// lazily initializes a process-wide context the first time it's called,
// the same lazy-singleton shape initMPSEngine's Darwin half uses for its
// Metal context, except here the context is shared across every Tensor
// rather than rebuilt per engine instance, since device memory and a
// compiled module only make sense relative to one CUDA context.
package gpu

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"gorgonia.org/cu"
	"gorgonia.org/cu/nvrtc"
)

type cudaDevice struct {
	ordinal int
	dev     cu.Device
	ctx     cu.CUContext
}

var (
	acquireOnce sync.Once
	acquired    *cudaDevice
	acquireErr  error
)

// Acquire lazily creates the process-wide CUDA context for ordinal. Later
// calls with a different ordinal still return the first context acquired;
// this core only ever targets one device per process (spec.md's §5
// concurrency model names a single device per process as the supported
// shape).
func Acquire(ordinal int) (Device, error) {
	acquireOnce.Do(func() {
		dev, err := cu.GetDevice(ordinal)
		if err != nil {
			acquireErr = errors.Wrapf(err, "gpu: cu.GetDevice(%d)", ordinal)
			return
		}
		ctx, err := dev.MakeContext(cu.SchedAuto)
		if err != nil {
			acquireErr = errors.Wrapf(err, "gpu: MakeContext for device %d", ordinal)
			return
		}
		acquired = &cudaDevice{ordinal: ordinal, dev: dev, ctx: ctx}
	})
	if acquireErr != nil {
		return nil, acquireErr
	}
	return acquired, nil
}

func (d *cudaDevice) Ordinal() int { return d.ordinal }

func (d *cudaDevice) Alloc(n int) (*Buffer, error) {
	if err := cu.SetCurrentContext(d.ctx); err != nil {
		return nil, errors.Wrap(err, "gpu: SetCurrentContext")
	}
	ptr, err := cu.MemAlloc(int64(n) * 4)
	if err != nil {
		return nil, errors.Wrapf(err, "gpu: MemAlloc(%d floats)", n)
	}
	return &Buffer{
		ptr: uintptr(ptr),
		n:   n,
		free: func(p uintptr) error {
			return cu.MemFree(cu.DevicePtr(p))
		},
	}, nil
}

func (d *cudaDevice) Free(buf *Buffer) error {
	if buf == nil || buf.free == nil {
		return nil
	}
	return buf.free(buf.ptr)
}

func (d *cudaDevice) CopyHtoD(ctx context.Context, dst *Buffer, src []float32) error {
	if len(src) > dst.n {
		return fmt.Errorf("gpu: CopyHtoD source has %d elements, buffer holds %d", len(src), dst.n)
	}
	if err := cu.SetCurrentContext(d.ctx); err != nil {
		return errors.Wrap(err, "gpu: SetCurrentContext")
	}
	return cu.MemcpyHtoD(cu.DevicePtr(dst.ptr), unsafe.Pointer(&src[0]), int64(len(src))*4)
}

func (d *cudaDevice) CopyDtoH(ctx context.Context, dst []float32, src *Buffer) error {
	if len(dst) < src.n {
		return fmt.Errorf("gpu: CopyDtoH destination has %d elements, source holds %d", len(dst), src.n)
	}
	if err := cu.SetCurrentContext(d.ctx); err != nil {
		return errors.Wrap(err, "gpu: SetCurrentContext")
	}
	return cu.MemcpyDtoH(unsafe.Pointer(&dst[0]), cu.DevicePtr(src.ptr), int64(src.n)*4)
}

// cudaModule is the real Module: an NVRTC-compiled, PTX-loaded function
// plus the owning module handle, so UnloadModule can release it.
type cudaModule struct {
	kernelName string
	mod        cu.Module
	fn         cu.Function
}

func (m *cudaModule) KernelName() string { return m.kernelName }

func (d *cudaDevice) CompileModule(ctx context.Context, kernelName, source string) (Module, error) {
	prog, err := nvrtc.CreateProgram(source, kernelName, nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "gpu: nvrtc.CreateProgram(%s)", kernelName)
	}
	defer prog.Destroy()

	if err := prog.Compile(nil); err != nil {
		log, logErr := prog.GetLog()
		if logErr == nil {
			return nil, errors.Wrapf(err, "gpu: NVRTC compile of %s failed: %s", kernelName, log)
		}
		return nil, errors.Wrapf(err, "gpu: NVRTC compile of %s failed", kernelName)
	}

	ptx, err := prog.PTX()
	if err != nil {
		return nil, errors.Wrapf(err, "gpu: PTX() for %s", kernelName)
	}

	if err := cu.SetCurrentContext(d.ctx); err != nil {
		return nil, errors.Wrap(err, "gpu: SetCurrentContext")
	}
	mod, err := cu.LoadData(ptx)
	if err != nil {
		return nil, errors.Wrapf(err, "gpu: LoadData for %s", kernelName)
	}
	fn, err := mod.Function(kernelName)
	if err != nil {
		return nil, errors.Wrapf(err, "gpu: resolving function %s", kernelName)
	}

	return &cudaModule{kernelName: kernelName, mod: mod, fn: fn}, nil
}

func (d *cudaDevice) Launch(ctx context.Context, m Module, cfg LaunchConfig, args []interface{}) error {
	cm, ok := m.(*cudaModule)
	if !ok {
		return fmt.Errorf("gpu: Launch: unexpected module type %T", m)
	}
	if err := cu.SetCurrentContext(d.ctx); err != nil {
		return errors.Wrap(err, "gpu: SetCurrentContext")
	}
	kernelArgs, err := boxArgs(args)
	if err != nil {
		return err
	}
	return cu.LaunchKernel(cm.fn,
		int(cfg.GridDimX), int(cfg.GridDimY), int(cfg.GridDimZ),
		int(cfg.BlockDimX), int(cfg.BlockDimY), int(cfg.BlockDimZ),
		0, cu.Stream{}, kernelArgs)
}

func (d *cudaDevice) UnloadModule(m Module) error {
	cm, ok := m.(*cudaModule)
	if !ok {
		return fmt.Errorf("gpu: UnloadModule: unexpected module type %T", m)
	}
	return cm.mod.Unload()
}

// boxArgs marshals a Process call's arguments into CUDA kernel argument
// pointers. boxedInts keeps int32 values alive at stable addresses for the
// duration of the launch; kernelArgs points into it rather than at
// loop-local copies that would otherwise be reused.
func boxArgs(args []interface{}) ([]unsafe.Pointer, error) {
	boxedInts := make([]int32, 0, len(args))
	kernelArgs := make([]unsafe.Pointer, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *Buffer:
			ptr := cu.DevicePtr(v.ptr)
			kernelArgs[i] = unsafe.Pointer(&ptr)
		case int32:
			boxedInts = append(boxedInts, v)
			kernelArgs[i] = unsafe.Pointer(&boxedInts[len(boxedInts)-1])
		case int:
			boxedInts = append(boxedInts, int32(v))
			kernelArgs[i] = unsafe.Pointer(&boxedInts[len(boxedInts)-1])
		default:
			return nil, fmt.Errorf("gpu: unsupported kernel argument type %T", a)
		}
	}
	return kernelArgs, nil
}
