package cpu

import (
	"math"
	"testing"

	"github.com/sightline-ml/sightline/internal/tensor"
)

func TestMatMulKnownValues(t *testing.T) {
	backend := New()

	// A = [[1, 2], [3, 4]], B = [[5, 6], [7, 8]]
	a, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	copy(a.AsFloat32(), []float32{1, 2, 3, 4})
	copy(b.AsFloat32(), []float32{5, 6, 7, 8})

	c := backend.MatMul(a, b)

	// C = [[19, 22], [43, 50]]
	expected := []float32{19, 22, 43, 50}
	cData := c.AsFloat32()
	for i, exp := range expected {
		if cData[i] != exp {
			t.Errorf("MatMul[%d]: expected %.1f, got %.1f", i, exp, cData[i])
		}
	}
}

func TestMatMulRectangular(t *testing.T) {
	backend := New()

	// (2, 3) @ (3, 4) -> (2, 4)
	a, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{3, 4}, tensor.Float32, tensor.CPU)
	aData := a.AsFloat32()
	bData := b.AsFloat32()
	for i := range aData {
		aData[i] = float32(i + 1)
	}
	for i := range bData {
		bData[i] = float32(i + 1)
	}

	c := backend.MatMul(a, b)

	if !c.Shape().Equal(tensor.Shape{2, 4}) {
		t.Fatalf("MatMul shape: expected [2 4], got %v", c.Shape())
	}

	// Row 0: [1,2,3] @ columns of B
	// c[0,0] = 1*1 + 2*5 + 3*9 = 38
	cData := c.AsFloat32()
	if cData[0] != 38 {
		t.Errorf("MatMul[0,0]: expected 38, got %.1f", cData[0])
	}
}

func TestMatMulFloat64MatchesFloat32(t *testing.T) {
	backend := New()

	a32, _ := tensor.NewRaw(tensor.Shape{3, 5}, tensor.Float32, tensor.CPU)
	b32, _ := tensor.NewRaw(tensor.Shape{5, 2}, tensor.Float32, tensor.CPU)
	a64, _ := tensor.NewRaw(tensor.Shape{3, 5}, tensor.Float64, tensor.CPU)
	b64, _ := tensor.NewRaw(tensor.Shape{5, 2}, tensor.Float64, tensor.CPU)

	a32Data, b32Data := a32.AsFloat32(), b32.AsFloat32()
	a64Data, b64Data := a64.AsFloat64(), b64.AsFloat64()
	for i := range a32Data {
		v := float64(i%7) - 3
		a32Data[i] = float32(v)
		a64Data[i] = v
	}
	for i := range b32Data {
		v := float64(i%5) - 2
		b32Data[i] = float32(v)
		b64Data[i] = v
	}

	c32 := backend.MatMul(a32, b32)
	c64 := backend.MatMul(a64, b64)

	c32Data := c32.AsFloat32()
	c64Data := c64.AsFloat64()
	for i := range c32Data {
		if math.Abs(float64(c32Data[i])-c64Data[i]) > 1e-4 {
			t.Errorf("MatMul[%d]: float32=%v, float64=%v", i, c32Data[i], c64Data[i])
		}
	}
}

func TestMatMulShapeMismatchPanics(t *testing.T) {
	backend := New()

	a, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	b, _ := tensor.NewRaw(tensor.Shape{4, 2}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Error("MatMul with inner dimension mismatch should panic")
		}
	}()
	backend.MatMul(a, b)
}
