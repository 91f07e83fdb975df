// Package gpu wraps the CUDA driver/runtime collaborator spec.md §1 treats
// as out-of-scope ("GPU driver bindings: device management, memory
// allocation, PTX compilation/loading, kernel launch"). It is realized on
// gorgonia.org/cu and gorgonia.org/cu/nvrtc, the Go ecosystem's CUDA driver
// and NVRTC bindings, split into device_cuda.go (cuda build tag) and
// device_stub.go (!cuda), the same build-tag split the teacher engine uses
// for its Metal backend.
package gpu

// LaunchConfig is the grid/block shape spec.md §4.7 describes deriving
// from the number of logical elements a kernel must touch.
type LaunchConfig struct {
	GridDimX, GridDimY, GridDimZ    uint32
	BlockDimX, BlockDimY, BlockDimZ uint32
}

// DefaultBlockSize is the thread count per block used when no override is
// supplied via cuda.WithBlockSize.
const DefaultBlockSize = 256

// LaunchConfigForNumElems builds a 1-D grid covering numElems threads at
// blockSize threads per block, rounding the grid up so every element is
// covered even when numElems isn't a multiple of blockSize (kernels guard
// out-of-range threads by wrapping their body in an `if (i < numel)` or
// `if (idx < numel)` check).
func LaunchConfigForNumElems(numElems int, blockSize uint32) LaunchConfig {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	grid := (uint32(numElems) + blockSize - 1) / blockSize
	if grid == 0 {
		grid = 1
	}
	return LaunchConfig{
		GridDimX:  grid,
		GridDimY:  1,
		GridDimZ:  1,
		BlockDimX: blockSize,
		BlockDimY: 1,
		BlockDimZ: 1,
	}
}
