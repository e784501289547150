package tensor

import "testing"

// TestShape_NumElements tests element counting including the scalar case.
func TestShape_NumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{1, 3, 224, 224}, 150528},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("Shape%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

// TestShape_Validate tests rejection of non-positive dimensions.
func TestShape_Validate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Validate failed for valid shape: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Expected error for zero dimension")
	}
	if err := (Shape{-1, 3}).Validate(); err == nil {
		t.Error("Expected error for negative dimension")
	}
}

// TestShape_ComputeStrides tests row-major stride computation.
func TestShape_ComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("strides = %v, want %v", strides, want)
			break
		}
	}
}

// TestBroadcastShapes tests NumPy-style broadcasting rules.
func TestBroadcastShapes(t *testing.T) {
	result, needs, err := BroadcastShapes(Shape{3, 1}, Shape{3, 5})
	if err != nil {
		t.Fatalf("BroadcastShapes failed: %v", err)
	}
	if !result.Equal(Shape{3, 5}) {
		t.Errorf("result = %v, want [3 5]", result)
	}
	if !needs {
		t.Error("Expected needsBroadcast = true")
	}

	result, needs, err = BroadcastShapes(Shape{2, 3}, Shape{2, 3})
	if err != nil {
		t.Fatalf("BroadcastShapes failed: %v", err)
	}
	if !result.Equal(Shape{2, 3}) || needs {
		t.Errorf("same shapes: result = %v, needs = %v", result, needs)
	}

	if _, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4}); err == nil {
		t.Error("Expected error for incompatible shapes")
	}
}

// TestNewRaw tests raw tensor allocation and typed views.
func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if raw.ByteSize() != 2*3*4 {
		t.Errorf("ByteSize = %d, want 24", raw.ByteSize())
	}

	data := raw.AsFloat32()
	if len(data) != 6 {
		t.Fatalf("AsFloat32 length = %d, want 6", len(data))
	}
	data[5] = 42
	if raw.AsFloat32()[5] != 42 {
		t.Error("typed view does not share the underlying buffer")
	}
}

// TestNewRaw_InvalidShape tests rejection of invalid shapes.
func TestNewRaw_InvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, -1}, Float32, CPU); err == nil {
		t.Error("Expected error for negative dimension")
	}
}

// TestFromSlice_LengthMismatch tests that the data length must match the
// shape. The check runs before any backend call, so a stub suffices.
func TestFromSlice_LengthMismatch(t *testing.T) {
	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}, stubBackend{}); err == nil {
		t.Error("Expected error for data length mismatch")
	}
}

// stubBackend is a minimal Backend for creation-path tests that never reach
// a compute kernel.
type stubBackend struct{ Backend }

func (stubBackend) Device() Device { return CPU }
