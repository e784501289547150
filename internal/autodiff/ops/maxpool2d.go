package ops

import (
	"github.com/sightline-ml/sightline/internal/tensor"
)

// MaxPool2DOp records a max pooling operation for autodiff.
//
// Backward: gradients flow only to the positions that held the max value in
// the forward pass. The winning positions are captured at construction time,
// before any later operation can touch the input.
type MaxPool2DOp struct {
	input      *tensor.RawTensor
	output     *tensor.RawTensor
	maxIndices []int // Flat indices of max positions for gradient routing
	kernelSize int
	stride     int
}

// NewMaxPool2DOp creates a new MaxPool2D operation.
// Max indices are computed here so the backward pass can route gradients.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{
		input:      input,
		output:     output,
		maxIndices: computeMaxIndices(input, output, kernelSize, stride),
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// computeMaxIndices finds which input position had the max value for each
// output position.
func computeMaxIndices(input, output *tensor.RawTensor, kernelSize, stride int) []int {
	inputShape := input.Shape()
	outputShape := output.Shape()

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	HOut := outputShape[2]
	WOut := outputShape[3]

	maxIndices := make([]int, N*C*HOut*WOut)

	switch input.DType() {
	case tensor.Float32:
		fillMaxIndices(maxIndices, input.AsFloat32(), N, C, H, W, HOut, WOut, kernelSize, stride)
	case tensor.Float64:
		fillMaxIndices(maxIndices, input.AsFloat64(), N, C, H, W, HOut, WOut, kernelSize, stride)
	default:
		panic("MaxPool2D: unsupported dtype")
	}

	return maxIndices
}

func fillMaxIndices[T tensor.DType](maxIndices []int, inputData []T, N, C, H, W, HOut, WOut, kernelSize, stride int) {
	outIdx := 0
	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			for outH := 0; outH < HOut; outH++ {
				for outW := 0; outW < WOut; outW++ {
					hStart := outH * stride
					wStart := outW * stride

					maxPos := ((n*C+c)*H+hStart)*W + wStart
					maxVal := inputData[maxPos]

					for kh := 0; kh < kernelSize; kh++ {
						for kw := 0; kw < kernelSize; kw++ {
							inputIdx := ((n*C+c)*H+hStart+kh)*W + wStart + kw
							if val := inputData[inputIdx]; val > maxVal {
								maxVal = val
								maxPos = inputIdx
							}
						}
					}

					maxIndices[outIdx] = maxPos
					outIdx++
				}
			}
		}
	}
}

// Inputs returns the input tensors.
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MaxPool2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward routes gradients to max positions by delegating to the backend.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inputGrad := backend.MaxPool2DBackward(op.input, outputGrad, op.maxIndices, op.kernelSize, op.stride)
	return []*tensor.RawTensor{inputGrad}
}
