package tensor

import (
	"errors"
	"testing"
)

func TestNewHostRequireHost(t *testing.T) {
	tn := NewHost([]float32{1, 2, 3})
	data, err := tn.RequireHost()
	if err != nil {
		t.Fatalf("RequireHost: %v", err)
	}
	if len(data) != 3 {
		t.Fatalf("len(data) = %d, want 3", len(data))
	}
	if _, err := tn.RequireDevice(); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("RequireDevice on host tensor: got %v, want ErrWrongKind", err)
	}
}

type fakeDeviceBuffer struct{ n int }

func (f fakeDeviceBuffer) Len() int { return f.n }

func TestNewDeviceRequireDevice(t *testing.T) {
	tn := NewDevice(fakeDeviceBuffer{n: 5})
	if _, err := tn.RequireHost(); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("RequireHost on device tensor: got %v, want ErrWrongKind", err)
	}
	buf, err := tn.RequireDevice()
	if err != nil {
		t.Fatalf("RequireDevice: %v", err)
	}
	if buf.Len() != 5 {
		t.Fatalf("buf.Len() = %d, want 5", buf.Len())
	}
}

func TestByteSizeScalesWithDtype(t *testing.T) {
	tn := NewHost([]float32{1, 2, 3, 4})
	if got, want := tn.ByteSize(), 4*Dtype.Size(); got != want {
		t.Fatalf("ByteSize() = %d, want %d", got, want)
	}
}

func TestKindString(t *testing.T) {
	if Host.String() != "host" {
		t.Fatalf("Host.String() = %q", Host.String())
	}
	if Device.String() != "device" {
		t.Fatalf("Device.String() = %q", Device.String())
	}
}
