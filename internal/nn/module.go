// Package nn implements neural network modules for the Sightline framework.
//
// This package provides building blocks for constructing CNN classifiers:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Conv2D, MaxPool2D, Linear: Core CNN layers
//   - Activations: ReLU, Sigmoid
//   - Flatten: Bridge between convolutional and dense stages
//   - Sequential: Container for stacking layers
//
// Modules form a tree: containers expose named children, so any layer is
// addressable by a dotted path such as "features.3". Diagnostic tooling
// uses these paths to locate and instrument individual layers.
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"strings"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[Backend](
//	    nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewMaxPool2D(2, 2, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[B]

	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// NamedChild pairs a child module with the name it is registered under
// in its parent container.
type NamedChild[B tensor.Backend] struct {
	Name   string
	Module Module[B]
}

// Container is implemented by modules that hold named submodules.
// Sequential containers name children by index ("0", "1", ...); composite
// models name them by role ("features", "classifier").
type Container[B tensor.Backend] interface {
	Children() []NamedChild[B]
}

// NamedModule pairs a module with its full dotted path from the root.
type NamedModule[B tensor.Backend] struct {
	Path   string
	Module Module[B]
}

// NamedModules returns all modules in the tree rooted at root, in
// depth-first order. The root itself appears first with an empty path;
// descendants carry dotted paths such as "features.3".
func NamedModules[B tensor.Backend](root Module[B]) []NamedModule[B] {
	var result []NamedModule[B]
	collectModules(root, "", &result)
	return result
}

func collectModules[B tensor.Backend](m Module[B], path string, result *[]NamedModule[B]) {
	*result = append(*result, NamedModule[B]{Path: path, Module: m})

	container, ok := m.(Container[B])
	if !ok {
		return
	}
	for _, child := range container.Children() {
		childPath := child.Name
		if path != "" {
			childPath = path + "." + child.Name
		}
		collectModules(child.Module, childPath, result)
	}
}

// ModuleByPath resolves a dotted path (e.g. "features.3") relative to root.
// An empty path resolves to root itself. Returns false if any path segment
// does not name a child.
func ModuleByPath[B tensor.Backend](root Module[B], path string) (Module[B], bool) {
	if path == "" {
		return root, true
	}

	current := root
	for _, segment := range strings.Split(path, ".") {
		container, ok := current.(Container[B])
		if !ok {
			return nil, false
		}
		var next Module[B]
		for _, child := range container.Children() {
			if child.Name == segment {
				next = child.Module
				break
			}
		}
		if next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Convolutions returns all Conv2D layers in the tree rooted at root with
// their dotted paths, in depth-first order.
func Convolutions[B tensor.Backend](root Module[B]) []NamedModule[B] {
	var convs []NamedModule[B]
	for _, nm := range NamedModules(root) {
		if _, ok := nm.Module.(*Conv2D[B]); ok {
			convs = append(convs, nm)
		}
	}
	return convs
}
