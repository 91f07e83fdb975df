package cuda

import "errors"

// ErrCompile marks an NVRTC compilation failure: malformed generated
// source, or a CUDA toolkit too old for an intrinsic this core emits.
// Spec.md §7 treats these as fatal, non-recoverable errors.
var ErrCompile = errors.New("cuda: kernel compilation failed")

// ErrLaunch marks a driver-level failure launching an already-compiled
// kernel (bad grid/block dims, out-of-memory, device fault).
var ErrLaunch = errors.New("cuda: kernel launch failed")
