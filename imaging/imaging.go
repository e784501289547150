// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package imaging converts between image files and model tensors.
package imaging

import (
	"image"

	"github.com/sightline-ml/sightline/internal/imaging"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	return imaging.LoadImage(path)
}

// Preprocess converts an image into a [1, 3, 224, 224] float32 tensor using
// standard ImageNet inference preprocessing.
func Preprocess[B tensor.Backend](img image.Image, backend B) (*tensor.Tensor[float32, B], error) {
	return imaging.Preprocess(img, backend)
}

// DataURI encodes an image as a base64 PNG data URI.
func DataURI(img image.Image) (string, error) {
	return imaging.DataURI(img)
}

// SavePNG writes an image to disk as PNG.
func SavePNG(path string, img image.Image) error {
	return imaging.SavePNG(path, img)
}
