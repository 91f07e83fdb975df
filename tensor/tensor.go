// Package tensor holds the data model shared by every op family: the
// opaque Tensor value (spec.md C3), the TensorView handle carried along
// graph edges, and the Operator contract every primitive and CUDA op
// implements (spec.md C2).
package tensor

import (
	"context"
	"fmt"

	gorgoniatensor "gorgonia.org/tensor"

	"github.com/csotherden/cudagraph/shapetracker"
)

// Dtype is the element type every Tensor in this core holds. Reusing
// gorgonia.org/tensor's Dtype rather than a bare reflect.Type gives
// ByteSize its element-size accounting without reinventing it.
var Dtype = gorgoniatensor.Float32

// NodeID identifies a node in a graph.Graph. It is defined here, rather
// than in package graph, so that TensorView (which every Operator.Process
// call both consumes and produces) has no import-cycle back to graph.
type NodeID int64

// Kind distinguishes where a Tensor's backing buffer lives.
type Kind int

const (
	// Host means the Tensor holds a []float32 directly.
	Host Kind = iota
	// Device means the Tensor holds a DeviceBuffer (in practice an
	// internal/gpu *Buffer; Tensor only needs to carry it opaquely).
	Device
)

func (k Kind) String() string {
	switch k {
	case Host:
		return "host"
	case Device:
		return "device"
	default:
		return "unknown"
	}
}

// DeviceBuffer is the minimal contract a device-resident payload must
// satisfy so that package tensor never needs to import package cuda (which
// in turn imports package tensor). Len is the number of float32 elements.
type DeviceBuffer interface {
	Len() int
}

// Tensor is the opaque payload spec.md C3 describes: either a host-resident
// []float32 or a device-resident DeviceBuffer. Exactly one of the two
// fields is meaningful, selected by Kind.
type Tensor struct {
	kind   Kind
	host   []float32
	device DeviceBuffer
}

// NewHost wraps a host-resident float32 buffer.
func NewHost(data []float32) *Tensor {
	return &Tensor{kind: Host, host: data}
}

// NewDevice wraps a device-resident buffer.
func NewDevice(buf DeviceBuffer) *Tensor {
	return &Tensor{kind: Device, device: buf}
}

// Kind reports where the payload lives.
func (t *Tensor) Kind() Kind { return t.kind }

// Host returns the backing slice and true, or nil and false if this Tensor
// is device-resident.
func (t *Tensor) Host() ([]float32, bool) {
	if t.kind != Host {
		return nil, false
	}
	return t.host, true
}

// DeviceBuffer returns the backing device buffer and true, or nil and false
// if this Tensor is host-resident.
func (t *Tensor) DeviceBuffer() (DeviceBuffer, bool) {
	if t.kind != Device {
		return nil, false
	}
	return t.device, true
}

// Len returns the logical element count of the backing buffer, regardless
// of Kind.
func (t *Tensor) Len() int {
	if t.kind == Host {
		return len(t.host)
	}
	if t.device != nil {
		return t.device.Len()
	}
	return 0
}

// ByteSize returns the number of bytes t's backing buffer occupies,
// regardless of Kind.
func (t *Tensor) ByteSize() int {
	return t.Len() * Dtype.Size()
}

// ErrWrongKind is spec.md §7's "type-cast errors": downcasting a Tensor to
// the payload kind an op expects. Its presence at runtime means the
// optimizer failed to insert the copy op the caller's op relies on.
var ErrWrongKind = fmt.Errorf("tensor: unexpected tensor kind")

// RequireHost downcasts to a host buffer or returns a wrapped ErrWrongKind.
func (t *Tensor) RequireHost() ([]float32, error) {
	data, ok := t.Host()
	if !ok {
		return nil, fmt.Errorf("%w: expected host-resident tensor, got %s", ErrWrongKind, t.kind)
	}
	return data, nil
}

// RequireDevice downcasts to a device buffer or returns a wrapped
// ErrWrongKind.
func (t *Tensor) RequireDevice() (DeviceBuffer, error) {
	buf, ok := t.DeviceBuffer()
	if !ok {
		return nil, fmt.Errorf("%w: expected device-resident tensor, got %s", ErrWrongKind, t.kind)
	}
	return buf, nil
}

// TensorView pairs a producing node identity with a shape tracker. It is
// the consumer-visible handle carried along every graph edge.
type TensorView struct {
	NodeID NodeID
	Shape  *shapetracker.Tracker
}

// InputValue is what an Operator.Process call receives for each ordered
// parent: the parent's materialized Tensor plus the TensorView it produced.
type InputValue struct {
	Tensor *Tensor
	View   TensorView
}

// Operator is the polymorphic primitive-op contract (spec.md §4.1). Go has
// no Any-downcast; a concrete field (e.g. a reduction's dim) is read via a
// type assertion to the concrete operator struct, which every Operator
// implementation here exposes as exported fields for exactly that purpose.
type Operator interface {
	// Name is the stable string identity the rewrite pass matches on.
	Name() string

	// Process computes this node's output given its ordered parent values.
	// It must not mutate inputs. A nil *Tensor result (with the zero error)
	// means this op produces no new value (pure passthrough); every op in
	// this core always returns a non-nil Tensor, but the contract allows
	// for a future no-op operator the way spec.md §3 describes.
	Process(ctx context.Context, inputs []InputValue, self NodeID) (*Tensor, TensorView, error)
}
