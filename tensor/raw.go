// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/sightline-ml/sightline/internal/tensor"

// RawTensor is the low-level tensor representation: an untyped buffer with
// shape, dtype, and device metadata. It is the currency of Backend
// implementations and gradient tapes; most users work with Tensor[T, B].
type RawTensor = tensor.RawTensor

// NewRaw creates a new raw tensor with the given shape, dtype, and device.
//
// This is a low-level function. Most users should use high-level creation
// functions instead.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
