// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package overlay renders saliency heatmaps onto base images.
//
// A heatmap is quantized to 8 bits, bilinearly upsampled to the base
// image's dimensions, and alpha-composited as a tint whose opacity scales
// with saliency.
//
// Example:
//
//	rendered, err := overlay.Render(baseImage, heatmap, overlay.DefaultOptions())
package overlay

import (
	"image"

	"github.com/sightline-ml/sightline/cam"
	"github.com/sightline-ml/sightline/internal/overlay"
)

// DefaultMaxAlpha is the opacity applied where saliency is 1.0.
const DefaultMaxAlpha = overlay.DefaultMaxAlpha

// Options controls overlay rendering.
type Options = overlay.Options

// DefaultOptions returns the standard red tint at DefaultMaxAlpha opacity.
func DefaultOptions() Options {
	return overlay.DefaultOptions()
}

// Render composites the heatmap over the base image and returns the result.
// The output matches the base image's dimensions.
func Render(base image.Image, heatmap *cam.Heatmap, opts Options) (*image.RGBA, error) {
	return overlay.Render(base, heatmap, opts)
}
