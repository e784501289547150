package cpu

import (
	"math"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// ReLU applies max(0, x) elementwise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float32:
		reluKernel(x.AsFloat32(), result.AsFloat32())
	case tensor.Float64:
		reluKernel(x.AsFloat64(), result.AsFloat64())
	}

	return result
}

// Sigmoid applies 1 / (1 + exp(-x)) elementwise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(err)
	}

	switch x.DType() {
	case tensor.Float32:
		xData := x.AsFloat32()
		resData := result.AsFloat32()
		for i, val := range xData {
			resData[i] = float32(1.0 / (1.0 + math.Exp(float64(-val))))
		}
	case tensor.Float64:
		xData := x.AsFloat64()
		resData := result.AsFloat64()
		for i, val := range xData {
			resData[i] = 1.0 / (1.0 + math.Exp(-val))
		}
	}

	return result
}

func reluKernel[T tensor.DType](x, result []T) {
	for i, val := range x {
		if val > 0 {
			result[i] = val
		} else {
			result[i] = 0
		}
	}
}
