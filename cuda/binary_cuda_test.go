//go:build cuda

package cuda

import (
	"context"
	"testing"

	"github.com/csotherden/cudagraph/shapetracker"
	"github.com/csotherden/cudagraph/tensor"
)

func toDevice(t *testing.T, eng *Engine, data []float32, shape []int) tensor.InputValue {
	t.Helper()
	view := tensor.TensorView{Shape: shapetracker.New(shape)}
	devTensor, devView, err := (&CopyToDevice{eng: eng}).Process(context.Background(), []tensor.InputValue{{Tensor: tensor.NewHost(data), View: view}}, 1)
	if err != nil {
		t.Fatalf("CopyToDevice: %v", err)
	}
	return tensor.InputValue{Tensor: devTensor, View: devView}
}

func fromDevice(t *testing.T, eng *Engine, in tensor.InputValue) []float32 {
	t.Helper()
	hostTensor, _, err := (&CopyFromDevice{eng: eng}).Process(context.Background(), []tensor.InputValue{in}, 9)
	if err != nil {
		t.Fatalf("CopyFromDevice: %v", err)
	}
	data, _ := hostTensor.Host()
	return data
}

func TestAddOnDeviceMatchesElementwiseSum(t *testing.T) {
	eng := NewEngine()
	a := toDevice(t, eng, []float32{1, 2, 3}, []int{3})
	b := toDevice(t, eng, []float32{10, 20, 30}, []int{3})

	outDev, outView, err := (&Add{eng: eng}).Process(context.Background(), []tensor.InputValue{a, b}, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	got := fromDevice(t, eng, tensor.InputValue{Tensor: outDev, View: outView})
	want := []float32{11, 22, 33}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Add result = %v, want %v", got, want)
		}
	}
}

func TestAddBroadcastsStrideZeroOperand(t *testing.T) {
	eng := NewEngine()
	a := toDevice(t, eng, []float32{1, 2, 3}, []int{3})

	bTr, err := shapetracker.NewView([]int{3}, []int{0}, 0)
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	scalarHost, scalarView, err := (&CopyToDevice{eng: eng}).Process(context.Background(),
		[]tensor.InputValue{{Tensor: tensor.NewHost([]float32{100}), View: tensor.TensorView{Shape: bTr}}}, 1)
	if err != nil {
		t.Fatalf("CopyToDevice: %v", err)
	}
	b := tensor.InputValue{Tensor: scalarHost, View: scalarView}

	outDev, outView, err := (&Add{eng: eng}).Process(context.Background(), []tensor.InputValue{a, b}, 3)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	got := fromDevice(t, eng, tensor.InputValue{Tensor: outDev, View: outView})
	want := []float32{101, 102, 103}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Add broadcast result = %v, want %v", got, want)
		}
	}
}
