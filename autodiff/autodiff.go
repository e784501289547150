// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation
// (backpropagation) using a gradient tape. It wraps any backend to add
// autodiff capabilities, which saliency extraction depends on for its
// backward pass.
//
// Example:
//
//	import (
//	    "github.com/sightline-ml/sightline/autodiff"
//	    "github.com/sightline-ml/sightline/backend/cpu"
//	    "github.com/sightline-ml/sightline/tensor"
//	)
//
//	func main() {
//	    base := cpu.New()
//	    backend := autodiff.New(base)
//	    backend.Tape().StartRecording()
//
//	    x := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    y := x.Mul(x)  // Operations recorded on tape
//
//	    grads := autodiff.Backward(y, backend)
//	    _ = grads[x.Raw()]  // dY/dX
//	}
package autodiff

import (
	"github.com/sightline-ml/sightline/internal/autodiff"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
//
// Beyond backpropagation, the tape supports gradient observers: callbacks
// registered with RegisterGradientHook that receive the final accumulated
// gradient of a watched tensor after a backward pass.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// GradientHookHandle removes a registered gradient observer.
type GradientHookHandle = autodiff.GradientHookHandle

// BackwardCapable is the interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients via backpropagation, seeding the output
// gradient with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
