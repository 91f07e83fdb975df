// Package indexexpr is a tiny integer-arithmetic expression tree. A
// shapetracker.Tracker composes a chain of view transforms (reshape,
// permute, expand, slice, pad) into one of these trees; stringifying the
// tree yields a C integer expression that embeds directly into generated
// CUDA kernel source, referencing the free variable Idx ("idx" in the
// emitted kernel).
package indexexpr

import "fmt"

// Idx is the name of the free variable every index expression is written
// in terms of. Kernels expose a local `int idx` (or a loop-computed one, in
// the reduction kernels) with exactly this name.
const Idx = "idx"

// Node is an integer arithmetic expression.
type Node interface {
	// StringNoRange renders the node as a C integer expression. The name
	// mirrors the original tracker's to_string_no_range: some shape
	// trackers also support emitting a bounds-checked range guard
	// alongside the expression, which this core never needs, since kernels
	// already guard on `idx < numel` around the whole expression.
	StringNoRange() string
}

// Var is the free variable, almost always Idx.
type Var string

func (v Var) StringNoRange() string { return string(v) }

// Const is an integer literal.
type Const int

func (c Const) StringNoRange() string { return fmt.Sprintf("%d", int(c)) }

// Add is a + b.
type Add struct{ A, B Node }

func (n Add) StringNoRange() string {
	return fmt.Sprintf("(%s + %s)", n.A.StringNoRange(), n.B.StringNoRange())
}

// Sub is a - b.
type Sub struct{ A, B Node }

func (n Sub) StringNoRange() string {
	return fmt.Sprintf("(%s - %s)", n.A.StringNoRange(), n.B.StringNoRange())
}

// Mul is a * b.
type Mul struct{ A, B Node }

func (n Mul) StringNoRange() string {
	return fmt.Sprintf("(%s * %s)", n.A.StringNoRange(), n.B.StringNoRange())
}

// Div is integer a / b.
type Div struct{ A, B Node }

func (n Div) StringNoRange() string {
	return fmt.Sprintf("(%s / %s)", n.A.StringNoRange(), n.B.StringNoRange())
}

// Mod is integer a % b.
type Mod struct{ A, B Node }

func (n Mod) StringNoRange() string {
	return fmt.Sprintf("(%s %% %s)", n.A.StringNoRange(), n.B.StringNoRange())
}

// Clamp clamps a value into [0, dimSize-1]. Tracker.IndexFnNode does not
// emit it: broadcast (stride-0) axes are left out of the expression instead.
type Clamp struct {
	A       Node
	DimSize int
}

func (n Clamp) StringNoRange() string {
	if n.DimSize <= 1 {
		return "0"
	}
	return fmt.Sprintf("min(max(%s, 0), %d)", n.A.StringNoRange(), n.DimSize-1)
}
