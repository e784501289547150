package tensor

// Backend defines the computation interface for tensor operations.
// Implementations provide device-specific kernels (CPU, ...).
//
// All operations work on RawTensors and panic on invalid inputs
// (shape mismatches are programmer errors, not runtime conditions).
type Backend interface {
	// Name returns a human-readable backend identifier.
	Name() string

	// Device returns the device this backend computes on.
	Device() Device

	// Add performs element-wise addition with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor

	// Sub performs element-wise subtraction with broadcasting.
	Sub(a, b *RawTensor) *RawTensor

	// Mul performs element-wise multiplication with broadcasting.
	Mul(a, b *RawTensor) *RawTensor

	// Div performs element-wise division with broadcasting.
	Div(a, b *RawTensor) *RawTensor

	// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D performs 2D convolution.
	//
	// Shapes:
	//   - input:  [N, C_in, H, W]
	//   - kernel: [C_out, C_in, kH, kW]
	//   - output: [N, C_out, H_out, W_out]
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Conv2DInputBackward computes the convolution gradient w.r.t. the input.
	//
	// Shapes:
	//   - input:  [N, C_in, H, W]
	//   - kernel: [C_out, C_in, kH, kW]
	//   - grad:   [N, C_out, H_out, W_out]
	//   - result: [N, C_in, H, W]
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Conv2DKernelBackward computes the convolution gradient w.r.t. the kernel.
	//
	// Shapes:
	//   - input:  [N, C_in, H, W]
	//   - kernel: [C_out, C_in, kH, kW]
	//   - grad:   [N, C_out, H_out, W_out]
	//   - result: [C_out, C_in, kH, kW]
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// MaxPool2D performs 2D max pooling.
	//
	// Shapes:
	//   - input:  [N, C, H, W]
	//   - output: [N, C, H_out, W_out]
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor

	// MaxPool2DBackward routes gradients to the positions that produced
	// the pooled maxima. maxIndices holds, for each output element, the
	// flat index into the input that won the pooling window.
	MaxPool2DBackward(input, gradOutput *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor

	// Reshape returns a tensor with the same data but a different shape.
	// The new shape must have the same number of elements.
	Reshape(t *RawTensor, newShape Shape) *RawTensor

	// Transpose permutes the tensor's dimensions.
	// Empty axes reverses all dimensions.
	Transpose(t *RawTensor, axes ...int) *RawTensor
}
