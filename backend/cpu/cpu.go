// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// The backend implements all Backend operations with generic Go kernels,
// using gonum's BLAS routines for float32 matrix multiplication. It is the
// default compute substrate for saliency extraction.
//
// Example:
//
//	import (
//	    "github.com/sightline-ml/sightline/backend/cpu"
//	    "github.com/sightline-ml/sightline/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{1, 3, 224, 224}, backend)
//	}
package cpu

import (
	internalcpu "github.com/sightline-ml/sightline/internal/backend/cpu"
	"github.com/sightline-ml/sightline/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
