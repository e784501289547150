// Package model provides the ChestNet reference classifier: a compact CNN
// for multi-label chest X-ray findings in the NIH ChestX-ray14 label space.
//
// ChestNet follows the conventional features/classifier layout, so its
// convolutional layers are addressable by paths like "features.9" for
// diagnostic instrumentation.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sightline-ml/sightline/internal/nn"
	"github.com/sightline-ml/sightline/internal/tensor"
)

// DefaultLabels are the 14 NIH ChestX-ray14 finding labels, in model
// output order.
var DefaultLabels = []string{
	"Atelectasis",
	"Cardiomegaly",
	"Effusion",
	"Infiltration",
	"Mass",
	"Nodule",
	"Pneumonia",
	"Pneumothorax",
	"Consolidation",
	"Edema",
	"Emphysema",
	"Fibrosis",
	"Pleural_Thickening",
	"Hernia",
}

// InputSize is the expected spatial input resolution.
const InputSize = 224

// ChestNet is a compact CNN classifier for 224x224 RGB inputs.
//
// Architecture:
//
//	features:   4 blocks of Conv2D(3x3, pad 1) -> ReLU -> MaxPool2D(2, 2)
//	            channel progression 3 -> 16 -> 32 -> 64 -> 64
//	flatten:    [N, 64, 14, 14] -> [N, 12544]
//	classifier: Linear(12544, len(labels))
//
// Outputs are raw logits; apply sigmoid per class for multi-label scores.
type ChestNet[B tensor.Backend] struct {
	features   *nn.Sequential[B]
	flatten    *nn.Flatten[B]
	classifier *nn.Linear[B]
	labels     []string
}

// Prediction pairs a finding label with its sigmoid score.
type Prediction struct {
	Label string
	Score float32
}

// New creates a ChestNet with the default NIH labels and Xavier-initialized
// weights.
func New[B tensor.Backend](backend B) *ChestNet[B] {
	return NewWithLabels(backend, DefaultLabels)
}

// NewWithLabels creates a ChestNet with a custom label set. The classifier
// head is sized to len(labels).
func NewWithLabels[B tensor.Backend](backend B, labels []string) *ChestNet[B] {
	if len(labels) == 0 {
		panic("model: ChestNet needs at least one label")
	}

	features := nn.NewSequential[B](
		nn.NewConv2D(3, 16, 3, 3, 1, 1, true, backend),
		nn.NewReLU[B](),
		nn.NewMaxPool2D(2, 2, backend),

		nn.NewConv2D(16, 32, 3, 3, 1, 1, true, backend),
		nn.NewReLU[B](),
		nn.NewMaxPool2D(2, 2, backend),

		nn.NewConv2D(32, 64, 3, 3, 1, 1, true, backend),
		nn.NewReLU[B](),
		nn.NewMaxPool2D(2, 2, backend),

		nn.NewConv2D(64, 64, 3, 3, 1, 1, true, backend),
		nn.NewReLU[B](),
		nn.NewMaxPool2D(2, 2, backend),
	)

	// 224 / 2^4 = 14 after four pooling stages.
	spatial := InputSize / 16
	classifier := nn.NewLinear(64*spatial*spatial, len(labels), backend)

	return &ChestNet[B]{
		features:   features,
		flatten:    nn.NewFlatten[B](),
		classifier: classifier,
		labels:     append([]string(nil), labels...),
	}
}

// Forward computes class logits for a [N, 3, 224, 224] input.
func (m *ChestNet[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := m.features.Forward(input)
	out = m.flatten.Forward(out)
	return m.classifier.Forward(out)
}

// Predict runs a forward pass and returns per-label sigmoid scores for the
// first batch element, in label order.
func (m *ChestNet[B]) Predict(input *tensor.Tensor[float32, B]) []Prediction {
	logits := m.Forward(input)
	probs := nn.NewSigmoid[B]().Forward(logits)

	data := probs.Data()
	predictions := make([]Prediction, len(m.labels))
	for i, label := range m.labels {
		predictions[i] = Prediction{Label: label, Score: data[i]}
	}
	return predictions
}

// TopPredictions returns the k highest-scoring predictions, descending.
func (m *ChestNet[B]) TopPredictions(input *tensor.Tensor[float32, B], k int) []Prediction {
	predictions := m.Predict(input)
	sort.Slice(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})
	if k < len(predictions) {
		predictions = predictions[:k]
	}
	return predictions
}

// Parameters returns all trainable parameters.
func (m *ChestNet[B]) Parameters() []*nn.Parameter[B] {
	params := m.features.Parameters()
	return append(params, m.classifier.Parameters()...)
}

// Labels returns the finding labels in output order.
func (m *ChestNet[B]) Labels() []string {
	return m.labels
}

// NumClasses returns the number of output classes.
func (m *ChestNet[B]) NumClasses() int {
	return len(m.labels)
}

// Children exposes the named submodules for path-based traversal.
func (m *ChestNet[B]) Children() []nn.NamedChild[B] {
	return []nn.NamedChild[B]{
		{Name: "features", Module: m.features},
		{Name: "flatten", Module: m.flatten},
		{Name: "classifier", Module: m.classifier},
	}
}

// StateDict returns all parameters keyed by dotted path.
func (m *ChestNet[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for name, raw := range m.features.StateDict() {
		stateDict["features."+name] = raw
	}
	for name, raw := range m.classifier.StateDict() {
		stateDict["classifier."+name] = raw
	}
	return stateDict
}

// LoadStateDict loads parameters from a state dictionary.
//
// A leading "module." prefix (from data-parallel training wrappers) is
// stripped from every key. All shape mismatches are collected and reported
// together before any tensor is copied, so a bad checkpoint never leaves
// the model half-loaded. Unexpected keys are ignored.
func (m *ChestNet[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	stripped := stripModulePrefix(stateDict)

	if err := m.checkShapes(stripped); err != nil {
		return err
	}

	featuresDict := make(map[string]*tensor.RawTensor)
	classifierDict := make(map[string]*tensor.RawTensor)
	for key, raw := range stripped {
		switch {
		case strings.HasPrefix(key, "features."):
			featuresDict[strings.TrimPrefix(key, "features.")] = raw
		case strings.HasPrefix(key, "classifier."):
			classifierDict[strings.TrimPrefix(key, "classifier.")] = raw
		}
	}

	if len(featuresDict) > 0 {
		if err := m.features.LoadStateDict(featuresDict); err != nil {
			return fmt.Errorf("features: %w", err)
		}
	}
	if len(classifierDict) > 0 {
		if err := m.classifier.LoadStateDict(classifierDict); err != nil {
			return fmt.Errorf("classifier: %w", err)
		}
	}

	return nil
}

// checkShapes validates every overlapping tensor's shape up front.
func (m *ChestNet[B]) checkShapes(stateDict map[string]*tensor.RawTensor) error {
	own := m.StateDict()

	var mismatches []string
	for key, external := range stateDict {
		local, ok := own[key]
		if !ok {
			continue
		}
		if !local.Shape().Equal(external.Shape()) {
			mismatches = append(mismatches,
				fmt.Sprintf("  - %s: expected %v but found %v", key, local.Shape(), external.Shape()))
		}
	}

	if len(mismatches) > 0 {
		sort.Strings(mismatches)
		return fmt.Errorf("checkpoint tensor shape mismatches detected:\n%s",
			strings.Join(mismatches, "\n"))
	}
	return nil
}

// stripModulePrefix removes a leading "module." from every key if present.
func stripModulePrefix(stateDict map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	fixed := make(map[string]*tensor.RawTensor, len(stateDict))
	for key, raw := range stateDict {
		fixed[strings.TrimPrefix(key, "module.")] = raw
	}
	return fixed
}
