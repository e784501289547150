package cpu

import (
	"fmt"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// MaxPool2DBackward computes the gradient w.r.t. the input for MaxPool2D.
//
// Gradients flow only to the positions that held the max value in the forward
// pass; every other position in the pooling window receives zero. maxIndices
// holds, for each output element, the flat input index that won its window.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	inputShape := input.Shape()
	gradShape := grad.Shape()

	N := inputShape[0]
	C := inputShape[1]
	HOut := gradShape[2]
	WOut := gradShape[3]

	_ = kernelSize
	_ = stride

	inputGrad, err := tensor.NewRaw(inputShape, grad.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("MaxPool2DBackward: failed to create gradient tensor: %v", err))
	}

	expectedLen := N * C * HOut * WOut
	if len(maxIndices) != expectedLen {
		panic(fmt.Sprintf("MaxPool2DBackward: maxIndices length %d != expected %d", len(maxIndices), expectedLen))
	}

	switch grad.DType() {
	case tensor.Float32:
		maxpool2dBackward(inputGrad.AsFloat32(), grad.AsFloat32(), maxIndices)
	case tensor.Float64:
		maxpool2dBackward(inputGrad.AsFloat64(), grad.AsFloat64(), maxIndices)
	default:
		panic("MaxPool2DBackward: unsupported dtype")
	}

	return inputGrad
}

// maxpool2dBackward routes each output gradient to its recorded max position.
func maxpool2dBackward[T tensor.DType](inputGradData, gradData []T, maxIndices []int) {
	for outIdx, maxPos := range maxIndices {
		inputGradData[maxPos] += gradData[outIdx]
	}
}
