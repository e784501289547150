package cpu

import (
	"testing"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// TestConv2D_BasicForward tests basic Conv2D forward pass.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Input: [1, 1, 3, 3] - single channel 3x3 image
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	// 1 2 3
	// 4 5 6
	// 7 8 9
	for i := 0; i < 9; i++ {
		inputData[i] = float32(i + 1)
	}

	// Kernel: [1, 1, 2, 2] - diagonal kernel
	// 1 0
	// 0 1
	kernel, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	copy(kernel.AsFloat32(), []float32{1, 0, 0, 1})

	output := backend.Conv2D(input, kernel, 1, 0)

	// out_h = (3 + 2*0 - 2) / 1 + 1 = 2
	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Diagonal sums: 1+5, 2+6, 4+8, 5+9
	expected := []float32{6, 8, 12, 14}
	outputData := output.AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestConv2D_WithPadding tests Conv2D with zero padding.
func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 9; i++ {
		inputData[i] = 1.0
	}

	// Sum kernel 3x3
	kernel, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := 0; i < 9; i++ {
		kernelData[i] = 1.0
	}

	output := backend.Conv2D(input, kernel, 1, 1)

	// With padding=1, output shape stays [1, 1, 3, 3]
	expectedShape := tensor.Shape{1, 1, 3, 3}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Valid elements per window: corner 4, edge 6, center 9
	expected := []float32{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}
	outputData := output.AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestConv2D_WithStride tests Conv2D with stride > 1.
func TestConv2D_WithStride(t *testing.T) {
	backend := New()

	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 4, 4}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 16; i++ {
		inputData[i] = float32(i + 1)
	}

	// Sum kernel 2x2
	kernel, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := 0; i < 4; i++ {
		kernelData[i] = 1.0
	}

	output := backend.Conv2D(input, kernel, 2, 0)

	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Patches: [1,2,5,6]=14, [3,4,7,8]=22, [9,10,13,14]=46, [11,12,15,16]=54
	expected := []float32{14, 22, 46, 54}
	outputData := output.AsFloat32()
	for i, exp := range expected {
		if outputData[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, outputData[i])
		}
	}
}

// TestConv2D_MultiChannel tests Conv2D with multiple input/output channels.
func TestConv2D_MultiChannel(t *testing.T) {
	backend := New()

	// Input: [1, 2, 3, 3] - channel 0 all 1s, channel 1 all 2s
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 3, 3}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 9; i++ {
		inputData[i] = 1.0
		inputData[9+i] = 2.0
	}

	// Kernel: [2, 2, 2, 2] - out channel 0 all 1s, out channel 1 all 0.5s
	kernel, _ := tensor.NewRaw(tensor.Shape{2, 2, 2, 2}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := 0; i < 8; i++ {
		kernelData[i] = 1.0
		kernelData[8+i] = 0.5
	}

	output := backend.Conv2D(input, kernel, 1, 0)

	expectedShape := tensor.Shape{1, 2, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	outputData := output.AsFloat32()

	// Each 2x2 patch: 4*1 + 4*2 = 12 for channel 0, 6 for channel 1
	for i := 0; i < 4; i++ {
		if outputData[i] != 12.0 {
			t.Errorf("Output channel 0 [%d]: expected 12.0, got %.1f", i, outputData[i])
		}
	}
	for i := 4; i < 8; i++ {
		if outputData[i] != 6.0 {
			t.Errorf("Output channel 1 [%d]: expected 6.0, got %.1f", i, outputData[i])
		}
	}
}

// TestConv2D_Batch tests Conv2D with batch size > 1.
func TestConv2D_Batch(t *testing.T) {
	backend := New()

	// Input: [2, 1, 2, 2] - batch 0: [1..4], batch 1: [5..8]
	input, _ := tensor.NewRaw(tensor.Shape{2, 1, 2, 2}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 4; i++ {
		inputData[i] = float32(i + 1)
		inputData[4+i] = float32(i + 5)
	}

	// Sum kernel
	kernel, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := 0; i < 4; i++ {
		kernelData[i] = 1.0
	}

	output := backend.Conv2D(input, kernel, 1, 0)

	expectedShape := tensor.Shape{2, 1, 1, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	outputData := output.AsFloat32()
	if outputData[0] != 10.0 {
		t.Errorf("Batch 0: expected 10.0, got %.1f", outputData[0])
	}
	if outputData[1] != 26.0 {
		t.Errorf("Batch 1: expected 26.0, got %.1f", outputData[1])
	}
}

// TestConv2DInputBackward_SumKernel verifies that the input gradient of a sum
// kernel distributes each output gradient uniformly over its patch.
func TestConv2DInputBackward_SumKernel(t *testing.T) {
	backend := New()

	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	kernel, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := range kernelData {
		kernelData[i] = 1.0
	}

	// Output grad all ones: [1, 1, 2, 2]
	grad, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	gradData := grad.AsFloat32()
	for i := range gradData {
		gradData[i] = 1.0
	}

	inputGrad := backend.Conv2DInputBackward(input, kernel, grad, 1, 0)

	if !inputGrad.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("Input grad shape: expected [1 1 3 3], got %v", inputGrad.Shape())
	}

	// Each input position receives one contribution per output window covering it:
	// 1 2 1
	// 2 4 2
	// 1 2 1
	expected := []float32{1, 2, 1, 2, 4, 2, 1, 2, 1}
	inputGradData := inputGrad.AsFloat32()
	for i, exp := range expected {
		if inputGradData[i] != exp {
			t.Errorf("InputGrad[%d]: expected %.1f, got %.1f", i, exp, inputGradData[i])
		}
	}
}

// TestConv2DKernelBackward_OnesInput verifies the kernel gradient equals the
// sum of input values seen through each kernel tap.
func TestConv2DKernelBackward_OnesInput(t *testing.T) {
	backend := New()

	// Input [1, 1, 3, 3] with values 1..9
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 3, 3}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 9; i++ {
		inputData[i] = float32(i + 1)
	}

	kernel, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)

	// Output grad all ones: [1, 1, 2, 2]
	grad, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)
	gradData := grad.AsFloat32()
	for i := range gradData {
		gradData[i] = 1.0
	}

	kernelGrad := backend.Conv2DKernelBackward(input, kernel, grad, 1, 0)

	if !kernelGrad.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Kernel grad shape: expected [1 1 2 2], got %v", kernelGrad.Shape())
	}

	// Tap (0,0) sees inputs {1,2,4,5}=12, (0,1) {2,3,5,6}=16,
	// (1,0) {4,5,7,8}=24, (1,1) {5,6,8,9}=28.
	expected := []float32{12, 16, 24, 28}
	kernelGradData := kernelGrad.AsFloat32()
	for i, exp := range expected {
		if kernelGradData[i] != exp {
			t.Errorf("KernelGrad[%d]: expected %.1f, got %.1f", i, exp, kernelGradData[i])
		}
	}
}
