// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cam computes Grad-CAM saliency heatmaps for CNN classifiers.
//
// Grad-CAM explains a classifier's decision by weighting a convolutional
// layer's activation maps with the spatial mean of the class score's
// gradients, producing a heatmap of the image regions that drove the
// prediction.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	engine, err := cam.New[*autodiff.Backend[*cpu.Backend]](model, backend, "")
//	if err != nil {
//	    return err
//	}
//	heatmap, err := engine.ComputeHeatmap(input, -1)  // -1: top predicted class
package cam

import (
	"github.com/sightline-ml/sightline/internal/cam"
	"github.com/sightline-ml/sightline/internal/nn"
)

// Backend is the capability set Grad-CAM needs: tensor computation plus
// access to a gradient tape.
type Backend = cam.Backend

// GradCAM computes saliency heatmaps for one instrumented convolutional
// layer of a model. It is single-threaded: a GradCAM value must not be
// shared across goroutines, and ComputeHeatmap is not reentrant.
type GradCAM[B Backend] = cam.GradCAM[B]

// Heatmap is a normalized spatial saliency map with values in [0, 1].
type Heatmap = cam.Heatmap

// Error types reported by the engine.
type (
	// LayerNotFoundError reports that an explicitly requested layer path
	// does not resolve to a convolutional layer.
	LayerNotFoundError = cam.LayerNotFoundError

	// NoTargetLayerError reports that automatic target selection found no
	// convolutional layer in the model.
	NoTargetLayerError = cam.NoTargetLayerError

	// CaptureMissingError reports that instrumentation produced no
	// activation or gradient capture during the forward/backward pass.
	CaptureMissingError = cam.CaptureMissingError

	// TensorRankError reports a tensor with an unexpected number of
	// dimensions.
	TensorRankError = cam.TensorRankError
)

// New creates a Grad-CAM engine targeting the convolutional layer at
// targetPath. An empty path selects the last convolutional layer under the
// model's "features" container, falling back to the last convolution
// anywhere in the model.
func New[B Backend](model nn.Module[B], backend B, targetPath string) (*GradCAM[B], error) {
	return cam.New(model, backend, targetPath)
}

// NewHeatmap creates a zero-valued heatmap with the given dimensions.
func NewHeatmap(height, width int) *Heatmap {
	return cam.NewHeatmap(height, width)
}
