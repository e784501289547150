package cpu

import (
	"testing"

	"github.com/sightline-ml/sightline/internal/tensor"
)

func TestAddSameShape(t *testing.T) {
	backend := New()

	a, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	aData := a.AsFloat32()
	bData := b.AsFloat32()
	for i := 0; i < 6; i++ {
		aData[i] = float32(i)
		bData[i] = float32(i * 10)
	}

	result := backend.Add(a, b)

	resultData := result.AsFloat32()
	for i := 0; i < 6; i++ {
		expected := float32(i + i*10)
		if resultData[i] != expected {
			t.Errorf("Add[%d]: expected %.1f, got %.1f", i, expected, resultData[i])
		}
	}
}

func TestAddBroadcast(t *testing.T) {
	backend := New()

	// [2, 3] + [1, 3] -> [2, 3]
	a, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{1, 3}, tensor.Float32, tensor.CPU)
	aData := a.AsFloat32()
	bData := b.AsFloat32()
	for i := 0; i < 6; i++ {
		aData[i] = float32(i)
	}
	bData[0], bData[1], bData[2] = 100, 200, 300

	result := backend.Add(a, b)

	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Broadcast add shape: expected [2 3], got %v", result.Shape())
	}

	expected := []float32{100, 201, 302, 103, 204, 305}
	resultData := result.AsFloat32()
	for i, exp := range expected {
		if resultData[i] != exp {
			t.Errorf("Broadcast add[%d]: expected %.1f, got %.1f", i, exp, resultData[i])
		}
	}
}

func TestAddIncompatibleShapesPanics(t *testing.T) {
	backend := New()

	a, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 4}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Add with incompatible shapes should panic")
		}
	}()
	backend.Add(a, b)
}

func TestMulDivSub(t *testing.T) {
	backend := New()

	a, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float64, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{4}, tensor.Float64, tensor.CPU)
	aData := a.AsFloat64()
	bData := b.AsFloat64()
	for i := 0; i < 4; i++ {
		aData[i] = float64(i + 1) // 1..4
		bData[i] = 2.0
	}

	mul := backend.Mul(a.Clone(), b)
	mulData := mul.AsFloat64()
	for i := 0; i < 4; i++ {
		if mulData[i] != float64(i+1)*2 {
			t.Errorf("Mul[%d]: expected %.1f, got %.1f", i, float64(i+1)*2, mulData[i])
		}
	}

	div := backend.Div(a.Clone(), b)
	divData := div.AsFloat64()
	for i := 0; i < 4; i++ {
		if divData[i] != float64(i+1)/2 {
			t.Errorf("Div[%d]: expected %.2f, got %.2f", i, float64(i+1)/2, divData[i])
		}
	}

	sub := backend.Sub(a.Clone(), b)
	subData := sub.AsFloat64()
	for i := 0; i < 4; i++ {
		if subData[i] != float64(i+1)-2 {
			t.Errorf("Sub[%d]: expected %.1f, got %.1f", i, float64(i+1)-2, subData[i])
		}
	}
}

func TestReshape(t *testing.T) {
	backend := New()

	a, _ := tensor.NewRaw(tensor.Shape{2, 6}, tensor.Float32, tensor.CPU)
	aData := a.AsFloat32()
	for i := 0; i < 12; i++ {
		aData[i] = float32(i)
	}

	reshaped := backend.Reshape(a, tensor.Shape{3, 4})

	if !reshaped.Shape().Equal(tensor.Shape{3, 4}) {
		t.Fatalf("Reshape shape: expected [3 4], got %v", reshaped.Shape())
	}

	reshapedData := reshaped.AsFloat32()
	for i := 0; i < 12; i++ {
		if reshapedData[i] != float32(i) {
			t.Errorf("Reshape[%d]: expected %.1f, got %.1f", i, float32(i), reshapedData[i])
		}
	}
}

func TestReshapeIncompatiblePanics(t *testing.T) {
	backend := New()

	a, _ := tensor.NewRaw(tensor.Shape{2, 6}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Reshape with wrong element count should panic")
		}
	}()
	backend.Reshape(a, tensor.Shape{5, 5})
}

func TestTranspose2D(t *testing.T) {
	backend := New()

	// 2x3 matrix:
	// 0 1 2
	// 3 4 5
	a, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	aData := a.AsFloat32()
	for i := 0; i < 6; i++ {
		aData[i] = float32(i)
	}

	transposed := backend.Transpose(a)

	if !transposed.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Transpose shape: expected [3 2], got %v", transposed.Shape())
	}

	// Expected:
	// 0 3
	// 1 4
	// 2 5
	expected := []float32{0, 3, 1, 4, 2, 5}
	transposedData := transposed.AsFloat32()
	for i, exp := range expected {
		if transposedData[i] != exp {
			t.Errorf("Transpose[%d]: expected %.1f, got %.1f", i, exp, transposedData[i])
		}
	}
}

func TestTransposeAxes(t *testing.T) {
	backend := New()

	a, _ := tensor.NewRaw(tensor.Shape{2, 3, 4}, tensor.Float32, tensor.CPU)
	aData := a.AsFloat32()
	for i := range aData {
		aData[i] = float32(i)
	}

	transposed := backend.Transpose(a, 2, 0, 1)

	if !transposed.Shape().Equal(tensor.Shape{4, 2, 3}) {
		t.Fatalf("Transpose(2,0,1) shape: expected [4 2 3], got %v", transposed.Shape())
	}

	// Spot-check: dst[w, n, c] == src[n, c, w]
	transposedData := transposed.AsFloat32()
	srcIdx := 1*3*4 + 2*4 + 3 // src[1, 2, 3]
	dstIdx := 3*2*3 + 1*3 + 2 // dst[3, 1, 2]
	if transposedData[dstIdx] != aData[srcIdx] {
		t.Errorf("Transpose(2,0,1): dst[3,1,2]=%.1f, want src[1,2,3]=%.1f",
			transposedData[dstIdx], aData[srcIdx])
	}
}
