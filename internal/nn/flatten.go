package nn

import (
	"fmt"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// Flatten reshapes a 4D feature map to a 2D matrix, preserving the batch
// dimension. It bridges the convolutional stage of a CNN to its dense
// classifier head.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels*height*width]
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward flattens all non-batch dimensions.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("flatten: expected at least 2D input, got shape %v", shape))
	}

	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}

	return input.Reshape(shape[0], features)
}

// Parameters returns an empty slice (Flatten has no trainable parameters).
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

// String returns a string representation of the layer.
func (f *Flatten[B]) String() string {
	return "Flatten()"
}

// StateDict returns an empty map (Flatten has no parameters).
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (Flatten has no parameters).
func (f *Flatten[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return nil
}
