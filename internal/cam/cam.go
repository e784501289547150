// Package cam implements Grad-CAM saliency maps for CNN classifiers.
//
// Grad-CAM (Gradient-weighted Class Activation Mapping) explains a
// classifier's decision by highlighting the spatial regions of a
// convolutional feature map that contributed most to a target class score.
//
// The engine instruments a single convolutional layer with a forward
// observer (capturing the activation) and a gradient observer (capturing
// the gradient of the class score with respect to that activation), runs
// one forward and one backward pass, and combines the captures:
//
//	w_c  = spatial mean of the gradient for channel c
//	map  = ReLU(Σ_c w_c · A_c)
//	map /= max(map) + 1e-12
//
// A map with no positive evidence normalizes to all zeros rather than
// amplifying noise.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	engine, err := cam.New[Backend](model, backend, "")
//	if err != nil { ... }
//	heatmap, err := engine.ComputeHeatmap(input, -1) // -1: top predicted class
package cam

import (
	"fmt"

	"github.com/sightline-ml/sightline/internal/autodiff"
	"github.com/sightline-ml/sightline/internal/nn"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// Backend is the backend capability the engine requires: tensor operations
// plus access to a gradient tape for the backward pass.
type Backend interface {
	tensor.Backend
	GetTape() *autodiff.GradientTape
}

// GradCAM computes Grad-CAM heatmaps against one convolutional layer of a
// model.
//
// The engine is single-threaded per call and not reentrant: instrumentation
// is attached at the start of ComputeHeatmap and released on every exit
// path, so between calls the target layer carries no observers.
type GradCAM[B Backend] struct {
	model      nn.Module[B]
	backend    B
	target     *nn.Conv2D[B]
	targetPath string
	busy       bool
}

// New creates a Grad-CAM engine for the given model.
//
// With a non-empty targetPath the named layer is used verbatim; a missing
// or non-convolutional module yields LayerNotFoundError. With an empty
// targetPath the last Conv2D under the model's "features" child is
// selected, falling back to the last Conv2D anywhere; a model with no
// convolutions yields NoTargetLayerError.
func New[B Backend](model nn.Module[B], backend B, targetPath string) (*GradCAM[B], error) {
	target, resolvedPath, err := resolveTarget(model, targetPath)
	if err != nil {
		return nil, err
	}

	return &GradCAM[B]{
		model:      model,
		backend:    backend,
		target:     target,
		targetPath: resolvedPath,
	}, nil
}

// TargetPath returns the dotted path of the instrumented layer.
func (g *GradCAM[B]) TargetPath() string {
	return g.targetPath
}

// TargetLayer returns the instrumented convolutional layer.
func (g *GradCAM[B]) TargetLayer() *nn.Conv2D[B] {
	return g.target
}

// ComputeHeatmap runs one forward and one backward pass and returns the
// saliency map for the given class at the target layer's spatial
// resolution.
//
// A negative class selects the model's top prediction for the first batch
// element. The heatmap is computed from batch element 0.
//
// The input must be a 4D [N, C, H, W] tensor. The engine clears the
// gradient tape and accumulated parameter gradients before the pass, and
// releases all instrumentation before returning, error or not.
func (g *GradCAM[B]) ComputeHeatmap(input *tensor.Tensor[float32, B], class int) (*Heatmap, error) {
	if g.busy {
		panic("cam: ComputeHeatmap is not reentrant")
	}
	g.busy = true
	defer func() { g.busy = false }()

	if rank := len(input.Shape()); rank != 4 {
		return nil, &TensorRankError{What: "input", Got: rank, Want: 4}
	}

	var activation *tensor.Tensor[float32, B]
	forwardHook := g.target.RegisterForwardHook(func(output *tensor.Tensor[float32, B]) {
		activation = output
	})
	defer forwardHook.Remove()

	tape := g.backend.GetTape()
	wasRecording := tape.IsRecording()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.Clear()
		if !wasRecording {
			tape.StopRecording()
		}
	}()

	// Stale gradients from a previous pass must not leak into this one.
	for _, p := range g.model.Parameters() {
		p.ZeroGrad()
	}

	logits := g.model.Forward(input)

	logitShape := logits.Shape()
	if len(logitShape) != 2 {
		return nil, &TensorRankError{What: "logit", Got: len(logitShape), Want: 2}
	}
	numClasses := logitShape[1]

	if class < 0 {
		class = argmaxRow(logits.Data(), numClasses)
	}
	if class >= numClasses {
		return nil, fmt.Errorf("cam: class index %d out of range [0, %d)", class, numClasses)
	}

	if activation == nil {
		return nil, &CaptureMissingError{What: "activation"}
	}

	var gradient *tensor.RawTensor
	gradientHook := tape.RegisterGradientHook(activation.Raw(), func(grad *tensor.RawTensor) {
		gradient = grad
	})
	defer gradientHook.Remove()

	// Seed d(logits[0, class]) = 1: backward from the logits with a one-hot
	// gradient is equivalent to differentiating the single class score.
	seed, err := oneHotSeed(logitShape, class, g.backend)
	if err != nil {
		return nil, err
	}
	tape.BackwardFrom(logits.Raw(), seed, g.backend)

	if gradient == nil {
		return nil, &CaptureMissingError{What: "gradient"}
	}

	return composeHeatmap(activation.Raw(), gradient)
}

// argmaxRow returns the index of the maximum value in the first row of a
// row-major matrix with the given width.
func argmaxRow(data []float32, width int) int {
	best := 0
	for i := 1; i < width; i++ {
		if data[i] > data[best] {
			best = i
		}
	}
	return best
}

// oneHotSeed builds a [N, numClasses] gradient seed with a single 1.0 at
// (0, class).
func oneHotSeed[B Backend](shape tensor.Shape, class int, backend B) (*tensor.RawTensor, error) {
	seed, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("cam: failed to allocate gradient seed: %w", err)
	}
	data := seed.AsFloat32()
	for i := range data {
		data[i] = 0
	}
	data[class] = 1
	return seed, nil
}

// composeHeatmap combines a captured activation and gradient into a
// normalized saliency map for batch element 0.
func composeHeatmap(activation, gradient *tensor.RawTensor) (*Heatmap, error) {
	actShape := activation.Shape()
	if len(actShape) != 4 {
		return nil, &TensorRankError{What: "activation", Got: len(actShape), Want: 4}
	}
	gradShape := gradient.Shape()
	if len(gradShape) != 4 {
		return nil, &TensorRankError{What: "gradient", Got: len(gradShape), Want: 4}
	}
	if !actShape.Equal(gradShape) {
		return nil, fmt.Errorf("cam: activation shape %v does not match gradient shape %v", actShape, gradShape)
	}

	channels := actShape[1]
	height := actShape[2]
	width := actShape[3]
	plane := height * width

	actData := activation.AsFloat32()
	gradData := gradient.AsFloat32()

	heatmap := NewHeatmap(height, width)

	// Channel weights: spatial mean of the gradient, batch element 0.
	for c := 0; c < channels; c++ {
		offset := c * plane

		var weight float64
		for i := 0; i < plane; i++ {
			weight += float64(gradData[offset+i])
		}
		weight /= float64(plane)

		for i := 0; i < plane; i++ {
			heatmap.Data[i] += weight * float64(actData[offset+i])
		}
	}

	// ReLU floor: only evidence that increases the class score matters.
	for i, v := range heatmap.Data {
		if v < 0 {
			heatmap.Data[i] = 0
		}
	}

	heatmap.normalize()

	return heatmap, nil
}
