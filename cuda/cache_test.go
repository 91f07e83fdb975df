package cuda

import (
	"context"
	"testing"

	"github.com/csotherden/cudagraph/internal/gpu"
)

type fakeModule struct{ kernelName string }

func (m *fakeModule) KernelName() string { return m.kernelName }

// fakeDevice stands in for internal/gpu.Device so these tests can assert on
// the compile/launch call counts a real cudaDevice would hide behind the
// CUDA driver.
type fakeDevice struct {
	compileCalls int
	launchCalls  int
	unloadCalls  int
}

func (d *fakeDevice) Alloc(n int) (*gpu.Buffer, error) { return nil, nil }
func (d *fakeDevice) Free(buf *gpu.Buffer) error       { return nil }
func (d *fakeDevice) CopyHtoD(ctx context.Context, dst *gpu.Buffer, src []float32) error {
	return nil
}
func (d *fakeDevice) CopyDtoH(ctx context.Context, dst []float32, src *gpu.Buffer) error {
	return nil
}
func (d *fakeDevice) CompileModule(ctx context.Context, kernelName, source string) (gpu.Module, error) {
	d.compileCalls++
	return &fakeModule{kernelName: kernelName}, nil
}
func (d *fakeDevice) Launch(ctx context.Context, mod gpu.Module, cfg gpu.LaunchConfig, args []interface{}) error {
	d.launchCalls++
	return nil
}
func (d *fakeDevice) UnloadModule(mod gpu.Module) error {
	d.unloadCalls++
	return nil
}
func (d *fakeDevice) Ordinal() int { return 0 }

func TestGetOrCompileReusesModuleForSameKey(t *testing.T) {
	c := NewCache(0)
	dev := &fakeDevice{}
	render := func() string { return "generated" }

	if _, err := c.GetOrCompile(context.Background(), dev, "Add", "idx|idx", "add_kernel", render); err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}
	if _, err := c.GetOrCompile(context.Background(), dev, "Add", "idx|idx", "add_kernel", render); err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}

	if dev.compileCalls != 1 {
		t.Fatalf("compileCalls = %d, want 1 (cache hit should skip CompileModule)", dev.compileCalls)
	}
}

func TestGetOrCompileRecompilesForDifferentDetail(t *testing.T) {
	c := NewCache(0)
	dev := &fakeDevice{}
	render := func() string { return "generated" }

	if _, err := c.GetOrCompile(context.Background(), dev, "Add", "idx|idx", "add_kernel", render); err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}
	if _, err := c.GetOrCompile(context.Background(), dev, "Add", "(idx%2)|idx", "add_kernel", render); err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}

	if dev.compileCalls != 2 {
		t.Fatalf("compileCalls = %d, want 2", dev.compileCalls)
	}
}

func TestCacheEvictsLeastRecentlyTouchedAtCapacity(t *testing.T) {
	c := NewCache(1)
	dev := &fakeDevice{}

	if _, err := c.GetOrCompile(context.Background(), dev, "Log2", "", "log2_kernel", func() string { return "a" }); err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}
	if _, err := c.GetOrCompile(context.Background(), dev, "Exp2", "", "exp2_kernel", func() string { return "b" }); err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}

	if got := c.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	if dev.unloadCalls != 1 {
		t.Fatalf("unloadCalls = %d, want 1 (eviction should unload the dropped module)", dev.unloadCalls)
	}

	// Log2 was touched first, so it is the one evicted; Exp2 is still a hit.
	if _, err := c.GetOrCompile(context.Background(), dev, "Exp2", "", "exp2_kernel", func() string { return "b" }); err != nil {
		t.Fatalf("GetOrCompile: %v", err)
	}
	if dev.compileCalls != 2 {
		t.Fatalf("compileCalls = %d, want 2 (Exp2 should have survived eviction)", dev.compileCalls)
	}
}

func TestModuleNameIsStableAndCollisionResistant(t *testing.T) {
	a := ModuleName("add", "source one")
	b := ModuleName("add", "source one")
	c := ModuleName("add", "source two")
	if a != b {
		t.Fatalf("ModuleName not stable: %q vs %q", a, b)
	}
	if a == c {
		t.Fatal("ModuleName collided for different sources")
	}
}
