// Copyright 2025 The Sightline Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks for Sightline.
//
// Modules compose into models via Sequential and the Container interface,
// and every module exposes its parameters through StateDict for
// checkpointing. Convolutional layers additionally support forward
// observers, which saliency extraction uses to capture activations.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewSequential[*autodiff.Backend[*cpu.Backend]](
//	    nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[*autodiff.Backend[*cpu.Backend]](),
//	    nn.NewMaxPool2D(2, 2, backend),
//	)
package nn

import (
	"github.com/sightline-ml/sightline/internal/nn"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// Module is the interface implemented by all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Container is implemented by modules with named children, enabling
// path-based traversal like "features.3".
type Container[B tensor.Backend] = nn.Container[B]

// NamedChild pairs a child module with its name inside a Container.
type NamedChild[B tensor.Backend] = nn.NamedChild[B]

// NamedModule pairs a module with its dotted path from the root.
type NamedModule[B tensor.Backend] = nn.NamedModule[B]

// Parameter is a trainable tensor with an optional gradient.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// Layer modules.
type (
	// Linear is a fully connected layer: y = x @ W.T + b.
	Linear[B tensor.Backend] = nn.Linear[B]

	// Conv2D is a 2D convolutional layer with forward observer support.
	Conv2D[B tensor.Backend] = nn.Conv2D[B]

	// MaxPool2D is a 2D max pooling layer.
	MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

	// ReLU applies max(0, x) elementwise.
	ReLU[B tensor.Backend] = nn.ReLU[B]

	// Sigmoid applies 1 / (1 + exp(-x)) elementwise.
	Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

	// Flatten reshapes [N, ...] to [N, features].
	Flatten[B tensor.Backend] = nn.Flatten[B]

	// Sequential chains modules, naming children by index.
	Sequential[B tensor.Backend] = nn.Sequential[B]
)

// ForwardHookHandle removes a registered forward observer from a Conv2D.
type ForwardHookHandle[B tensor.Backend] = nn.ForwardHookHandle[B]

// NewLinear creates a fully connected layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewConv2D creates a 2D convolutional layer.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias, backend)
}

// NewMaxPool2D creates a 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// NewSequential creates a sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// NamedModules returns all modules reachable from root in depth-first order,
// each paired with its dotted path. The root itself has an empty path.
func NamedModules[B tensor.Backend](root Module[B]) []NamedModule[B] {
	return nn.NamedModules(root)
}

// ModuleByPath resolves a dotted path like "features.3" to a module.
// Returns false if any path segment does not name a child.
func ModuleByPath[B tensor.Backend](root Module[B], path string) (Module[B], bool) {
	return nn.ModuleByPath(root, path)
}

// Convolutions returns all Conv2D modules reachable from root, in
// depth-first order, paired with their paths.
func Convolutions[B tensor.Backend](root Module[B]) []NamedModule[B] {
	return nn.Convolutions(root)
}
