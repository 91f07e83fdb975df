package gpu

import "testing"

func TestLaunchConfigForNumElemsExactMultiple(t *testing.T) {
	cfg := LaunchConfigForNumElems(512, 256)
	if cfg.GridDimX != 2 || cfg.BlockDimX != 256 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLaunchConfigForNumElemsRoundsUp(t *testing.T) {
	cfg := LaunchConfigForNumElems(257, 256)
	if cfg.GridDimX != 2 {
		t.Fatalf("GridDimX = %d, want 2", cfg.GridDimX)
	}
}

func TestLaunchConfigForNumElemsDefaultsBlockSize(t *testing.T) {
	cfg := LaunchConfigForNumElems(10, 0)
	if cfg.BlockDimX != DefaultBlockSize {
		t.Fatalf("BlockDimX = %d, want %d", cfg.BlockDimX, DefaultBlockSize)
	}
}

func TestLaunchConfigForNumElemsZero(t *testing.T) {
	cfg := LaunchConfigForNumElems(0, 128)
	if cfg.GridDimX != 1 {
		t.Fatalf("GridDimX = %d, want 1 for zero elements", cfg.GridDimX)
	}
}
