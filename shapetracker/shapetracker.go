// Package shapetracker implements the symbolic shape + indexing expression
// data model spec'd as an out-of-scope collaborator ("the symbolic
// shape-tracker library"). It is a standard view (shape/strides/offset)
// representation: each view transform (reshape, permute, expand, slice,
// pad) mutates shape/strides/offset rather than materializing data, and
// IndexFnNode composes them into one C integer expression over the free
// variable "idx" that CUDA kernels embed directly into generated source.
package shapetracker

import (
	"fmt"

	"github.com/csotherden/cudagraph/shapetracker/indexexpr"
)

// Tracker is a symbolic view over a dense physical buffer: a logical shape,
// a stride per dimension (0 marks a broadcast dimension), and a base
// offset into the physical buffer.
type Tracker struct {
	shape   []int
	strides []int
	offset  int
}

// New builds a dense, contiguous, row-major Tracker for shape.
func New(shape []int) *Tracker {
	return &Tracker{
		shape:   append([]int(nil), shape...),
		strides: rowMajorStrides(shape),
		offset:  0,
	}
}

// NewView builds a Tracker over an arbitrary shape/stride/offset triple —
// used to construct already-broadcast or already-sliced views directly,
// the way a front end would hand a CUDA op a tensor that already passed
// through an Expand/Slice/Permute op earlier in the graph.
func NewView(shape, strides []int, offset int) (*Tracker, error) {
	if len(shape) != len(strides) {
		return nil, fmt.Errorf("shapetracker: shape/strides rank mismatch: %d vs %d", len(shape), len(strides))
	}
	return &Tracker{
		shape:   append([]int(nil), shape...),
		strides: append([]int(nil), strides...),
		offset:  offset,
	}, nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// NumElements returns the product of shape, 1 for a scalar (empty) shape,
// and 0 if any dimension is zero.
func NumElements(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Shape returns the current logical extents.
func (t *Tracker) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Strides returns the current physical strides, 0 marking a broadcast dim.
func (t *Tracker) Strides() []int {
	return append([]int(nil), t.strides...)
}

// Clone returns a deep copy.
func (t *Tracker) Clone() *Tracker {
	return &Tracker{
		shape:   append([]int(nil), t.shape...),
		strides: append([]int(nil), t.strides...),
		offset:  t.offset,
	}
}

// IsContiguous reports whether the tracker is a plain dense row-major view
// with no broadcast, slice, or permute applied — the only layout Reshape
// can legally act on.
func (t *Tracker) IsContiguous() bool {
	want := rowMajorStrides(t.shape)
	if t.offset != 0 {
		return false
	}
	for i := range want {
		if t.strides[i] != want[i] {
			return false
		}
	}
	return true
}

// Reshape mutates the tracker in place to a new shape with the same total
// element count. Only valid on a contiguous tracker; spec.md §7 treats a
// reshape of a non-contiguous view as a shape-mismatch-class error.
func (t *Tracker) Reshape(newShape []int) error {
	if !t.IsContiguous() {
		return fmt.Errorf("%w: reshape requires a contiguous tracker, shape=%v strides=%v offset=%d",
			ErrShapeMismatch, t.shape, t.strides, t.offset)
	}
	if NumElements(newShape) != NumElements(t.shape) {
		return fmt.Errorf("%w: reshape %v -> %v changes element count", ErrShapeMismatch, t.shape, newShape)
	}
	t.shape = append([]int(nil), newShape...)
	t.strides = rowMajorStrides(newShape)
	t.offset = 0
	return nil
}

// Permute reorders dimensions: result.shape[i] = t.shape[dims[i]].
func (t *Tracker) Permute(dims []int) error {
	if len(dims) != len(t.shape) {
		return fmt.Errorf("%w: permute needs %d dims, got %d", ErrShapeMismatch, len(t.shape), len(dims))
	}
	seen := make([]bool, len(dims))
	newShape := make([]int, len(dims))
	newStrides := make([]int, len(dims))
	for i, d := range dims {
		if d < 0 || d >= len(t.shape) || seen[d] {
			return fmt.Errorf("%w: permute has invalid or duplicate axis %d", ErrShapeMismatch, d)
		}
		seen[d] = true
		newShape[i] = t.shape[d]
		newStrides[i] = t.strides[d]
	}
	t.shape = newShape
	t.strides = newStrides
	return nil
}

// Expand broadcasts size-1 dimensions up to newShape, setting their stride
// to 0 so every logical index along that dimension reads the same physical
// element. Non-size-1 dimensions must already match newShape.
func (t *Tracker) Expand(newShape []int) error {
	if len(newShape) != len(t.shape) {
		return fmt.Errorf("%w: expand needs %d dims, got %d", ErrShapeMismatch, len(t.shape), len(newShape))
	}
	for i, s := range newShape {
		switch {
		case t.shape[i] == s:
		case t.shape[i] == 1:
			t.strides[i] = 0
		default:
			return fmt.Errorf("%w: cannot expand dim %d from %d to %d", ErrShapeMismatch, i, t.shape[i], s)
		}
		t.shape[i] = s
	}
	return nil
}

// Slice narrows each dimension to [starts[i], stops[i]).
func (t *Tracker) Slice(starts, stops []int) error {
	if len(starts) != len(t.shape) || len(stops) != len(t.shape) {
		return fmt.Errorf("%w: slice bounds must cover all %d dims", ErrShapeMismatch, len(t.shape))
	}
	for i := range t.shape {
		if starts[i] < 0 || stops[i] > t.shape[i] || starts[i] > stops[i] {
			return fmt.Errorf("%w: slice [%d:%d) out of bounds for dim %d (size %d)",
				ErrShapeMismatch, starts[i], stops[i], i, t.shape[i])
		}
		t.offset += starts[i] * t.strides[i]
		t.shape[i] = stops[i] - starts[i]
	}
	return nil
}

// Pad grows each dimension by lo[i]+hi[i]; the lo/hi regions are expected
// to read as zero. This tracker, like the original's to_string_no_range
// path, emits no bounds check — the generated arithmetic is only correct
// for in-range reads. Pad is therefore only usable upstream of an op that
// itself guards the padded region (no op in this core does), so it exists
// to complete the §3 view-transform vocabulary rather than to be exercised
// by any CUDA op below.
func (t *Tracker) Pad(lo, hi []int) error {
	if len(lo) != len(t.shape) || len(hi) != len(t.shape) {
		return fmt.Errorf("%w: pad must cover all %d dims", ErrShapeMismatch, len(t.shape))
	}
	for i := range t.shape {
		if lo[i] < 0 || hi[i] < 0 {
			return fmt.Errorf("%w: negative pad at dim %d", ErrShapeMismatch, i)
		}
		t.offset -= lo[i] * t.strides[i]
		t.shape[i] = t.shape[i] + lo[i] + hi[i]
	}
	return nil
}

// IndexFnNode builds the integer expression that maps a linear logical
// index "idx" (row-major over Shape()) to the physical buffer offset.
func (t *Tracker) IndexFnNode() indexexpr.Node {
	var expr indexexpr.Node = indexexpr.Const(t.offset)
	divisor := 1
	for i := len(t.shape) - 1; i >= 0; i-- {
		dim := t.shape[i]
		stride := t.strides[i]
		if stride != 0 && dim > 1 {
			var coord indexexpr.Node = indexexpr.Var(indexexpr.Idx)
			if divisor != 1 {
				coord = indexexpr.Div{A: coord, B: indexexpr.Const(divisor)}
			}
			coord = indexexpr.Mod{A: coord, B: indexexpr.Const(dim)}
			term := indexexpr.Node(indexexpr.Mul{A: coord, B: indexexpr.Const(stride)})
			expr = indexexpr.Add{A: expr, B: term}
		}
		divisor *= dim
	}
	return expr
}

// PhysicalIndex maps a linear logical index (row-major over Shape()) to a
// physical buffer offset, the same mapping IndexFnNode renders as kernel
// source. Host-side callers (hostops' reference operators, tests) use this
// directly rather than evaluating the stringified expression.
func (t *Tracker) PhysicalIndex(idx int) int {
	phys := t.offset
	divisor := 1
	for i := len(t.shape) - 1; i >= 0; i-- {
		dim := t.shape[i]
		stride := t.strides[i]
		if stride != 0 && dim > 1 {
			coord := idx / divisor % dim
			phys += coord * stride
		}
		divisor *= dim
	}
	return phys
}

// GetRealShape resolves broadcast across peer trackers: the result is the
// element-wise maximum extent at each dimension. All trackers (t and
// peers) must share the same rank — by the time a CUDA op runs, broadcast
// dimensions have already been turned into stride-0 Expand views upstream,
// so ranks always match in practice; see spec.md §3's invariant.
func (t *Tracker) GetRealShape(peers ...*Tracker) ([]int, error) {
	result := append([]int(nil), t.shape...)
	for _, p := range peers {
		if len(p.shape) != len(result) {
			return nil, fmt.Errorf("%w: get_real_shape rank mismatch %v vs %v", ErrShapeMismatch, result, p.shape)
		}
		for i, s := range p.shape {
			if s > result[i] {
				result[i] = s
			}
		}
	}
	return result, nil
}
