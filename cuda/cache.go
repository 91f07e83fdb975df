package cuda

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"

	"github.com/csotherden/cudagraph/cudagraphlog"
	"github.com/csotherden/cudagraph/internal/gpu"
)

// cacheKey identifies one compiled kernel: the op family plus whatever
// varies its generated source (index expressions, reduction dim). Two
// Process calls that would emit byte-identical CUDA source share a
// cacheKey and therefore a compiled module, avoiding a redundant NVRTC
// compile on every call the way the original source's per-call
// compile_ptx would otherwise force.
type cacheKey struct {
	opKind string
	detail string
}

// entry is a cached compiled kernel: the gpu.Module handle Launch runs,
// plus the source it was compiled from and a generation counter for LRU
// eviction.
type entry struct {
	module gpu.Module
	source string
	gen    int
}

// Cache is a process-wide, concurrency-safe cache of compiled kernel
// modules keyed by cacheKey. A capacity of 0 means unbounded; otherwise the
// least-recently-touched entry is evicted once capacity is exceeded.
type Cache struct {
	mu       sync.Mutex
	capacity int
	gen      int
	entries  map[cacheKey]*entry
}

// NewCache builds an empty Cache with the given eviction capacity (0 =
// unbounded).
func NewCache(capacity int) *Cache {
	return &Cache{capacity: capacity, entries: make(map[cacheKey]*entry)}
}

// GetOrCompile returns a compiled gpu.Module for key, compiling it via dev
// only on a cache miss. A hit skips both renderSource and dev.CompileModule
// entirely, so repeated Process calls for the same op/shape combination
// launch an already-loaded module instead of recompiling NVRTC and
// reloading PTX every time.
func (c *Cache) GetOrCompile(ctx context.Context, dev gpu.Device, opKind, detail, kernelName string, renderSource func() string) (gpu.Module, error) {
	key := cacheKey{opKind: opKind, detail: detail}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if e, ok := c.entries[key]; ok {
		e.gen = c.gen
		cudagraphlog.Log.Debug().Str("op", opKind).Str("detail", detail).Msg("kernel cache hit")
		return e.module, nil
	}

	source := renderSource()
	mod, err := dev.CompileModule(ctx, kernelName, source)
	if err != nil {
		return nil, err
	}
	c.entries[key] = &entry{module: mod, source: source, gen: c.gen}
	cudagraphlog.Log.Debug().Str("op", opKind).Str("detail", detail).Str("module", ModuleName(opKind, source)).Msg("kernel cache miss, compiled")
	c.evictLocked(dev)
	return mod, nil
}

// evictLocked drops the least-recently-touched entry while over capacity,
// unloading its module via dev. Caller must hold c.mu.
func (c *Cache) evictLocked(dev gpu.Device) {
	if c.capacity <= 0 || len(c.entries) <= c.capacity {
		return
	}
	var oldestKey cacheKey
	oldestGen := -1
	for k, e := range c.entries {
		if oldestGen == -1 || e.gen < oldestGen {
			oldestGen = e.gen
			oldestKey = k
		}
	}
	evicted := c.entries[oldestKey]
	delete(c.entries, oldestKey)
	if err := dev.UnloadModule(evicted.module); err != nil {
		cudagraphlog.Log.Warn().Err(err).Str("op", oldestKey.opKind).Msg("failed to unload evicted kernel module")
	}
}

// Len reports how many distinct kernels are currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ModuleName derives a stable, collision-resistant label for a kernel from
// its source, so two different kernels get different labels even when
// their kernelName matches. GetOrCompile uses it to tag its cache-miss log
// entry; gpu.Device holds each loaded module as its own handle and takes no
// module name.
func ModuleName(prefix, source string) string {
	sum := sha1.Sum([]byte(source))
	return prefix + "_" + hex.EncodeToString(sum[:8])
}
