package shapetracker

import "errors"

// ErrShapeMismatch is the sentinel spec.md §7 calls "shape mismatches,
// surfaced by the shape tracker; fatal." Every error this package returns
// wraps it so callers can test with errors.Is.
var ErrShapeMismatch = errors.New("shapetracker: shape mismatch")
