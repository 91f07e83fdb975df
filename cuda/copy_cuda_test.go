//go:build cuda

package cuda

import (
	"context"
	"testing"

	"github.com/csotherden/cudagraph/shapetracker"
	"github.com/csotherden/cudagraph/tensor"
)

func TestCopyToDeviceThenFromDeviceRoundTrips(t *testing.T) {
	eng := NewEngine()
	data := []float32{1, 2, 3, 4}
	view := tensor.TensorView{Shape: shapetracker.New([]int{4})}
	in := []tensor.InputValue{{Tensor: tensor.NewHost(data), View: view}}

	toDev := &CopyToDevice{eng: eng}
	devTensor, devView, err := toDev.Process(context.Background(), in, 1)
	if err != nil {
		t.Fatalf("CopyToDevice: %v", err)
	}

	fromDev := &CopyFromDevice{eng: eng}
	hostTensor, _, err := fromDev.Process(context.Background(), []tensor.InputValue{{Tensor: devTensor, View: devView}}, 2)
	if err != nil {
		t.Fatalf("CopyFromDevice: %v", err)
	}

	got, ok := hostTensor.Host()
	if !ok {
		t.Fatal("round-tripped tensor is not host-resident")
	}
	for i, want := range data {
		if got[i] != want {
			t.Fatalf("round-trip data = %v, want %v", got, data)
		}
	}
}

func TestSqrtOnDeviceMatchesReference(t *testing.T) {
	eng := NewEngine()
	view := tensor.TensorView{Shape: shapetracker.New([]int{3})}
	in := []tensor.InputValue{{Tensor: tensor.NewHost([]float32{4, 9, 16}), View: view}}

	toDev := &CopyToDevice{eng: eng}
	devTensor, devView, err := toDev.Process(context.Background(), in, 1)
	if err != nil {
		t.Fatalf("CopyToDevice: %v", err)
	}

	sqrt := &Sqrt{eng: eng}
	outDev, outView, err := sqrt.Process(context.Background(), []tensor.InputValue{{Tensor: devTensor, View: devView}}, 2)
	if err != nil {
		t.Fatalf("Sqrt: %v", err)
	}

	fromDev := &CopyFromDevice{eng: eng}
	hostTensor, _, err := fromDev.Process(context.Background(), []tensor.InputValue{{Tensor: outDev, View: outView}}, 3)
	if err != nil {
		t.Fatalf("CopyFromDevice: %v", err)
	}

	got, _ := hostTensor.Host()
	want := []float32{2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sqrt result = %v, want %v", got, want)
		}
	}
}
