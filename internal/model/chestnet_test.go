package model_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightline-ml/sightline/internal/backend/cpu"
	"github.com/sightline-ml/sightline/internal/model"
	"github.com/sightline-ml/sightline/internal/nn"
	"github.com/sightline-ml/sightline/internal/tensor"
)

type cpuB = *cpu.CPUBackend

func TestNew_DefaultLabels(t *testing.T) {
	m := model.New(cpu.New())

	assert.Equal(t, 14, m.NumClasses())
	assert.Equal(t, "Atelectasis", m.Labels()[0])
	assert.Equal(t, "Hernia", m.Labels()[13])
}

func TestChestNet_Children(t *testing.T) {
	m := model.New(cpu.New())

	children := m.Children()
	require.Len(t, children, 3)
	assert.Equal(t, "features", children[0].Name)
	assert.Equal(t, "flatten", children[1].Name)
	assert.Equal(t, "classifier", children[2].Name)
}

func TestChestNet_ConvolutionsAddressableByPath(t *testing.T) {
	m := model.New(cpu.New())

	convs := nn.Convolutions[cpuB](m)
	require.Len(t, convs, 4)
	assert.Equal(t, "features.0", convs[0].Path)
	assert.Equal(t, "features.3", convs[1].Path)
	assert.Equal(t, "features.6", convs[2].Path)
	assert.Equal(t, "features.9", convs[3].Path)

	found, ok := nn.ModuleByPath[cpuB](m, "features.9")
	require.True(t, ok)
	assert.IsType(t, &nn.Conv2D[cpuB]{}, found)
}

func TestChestNet_StateDictKeys(t *testing.T) {
	m := model.New(cpu.New())

	stateDict := m.StateDict()
	// 4 convolutions with weight+bias, plus the classifier's weight+bias.
	assert.Len(t, stateDict, 10)
	assert.Contains(t, stateDict, "features.0.weight")
	assert.Contains(t, stateDict, "features.9.bias")
	assert.Contains(t, stateDict, "classifier.weight")
	assert.Contains(t, stateDict, "classifier.bias")
}

func TestChestNet_Forward(t *testing.T) {
	backend := cpu.New()
	m := model.New(backend)

	input := tensor.Zeros[float32](tensor.Shape{1, 3, model.InputSize, model.InputSize}, backend)
	logits := m.Forward(input)

	assert.Equal(t, tensor.Shape{1, 14}, logits.Shape())

	predictions := m.Predict(input)
	require.Len(t, predictions, 14)
	for _, p := range predictions {
		assert.Greater(t, p.Score, float32(0))
		assert.Less(t, p.Score, float32(1))
	}
}

func TestLoadStateDict_StripsModulePrefix(t *testing.T) {
	backend := cpu.New()
	m := model.New(backend)

	source := model.New(backend)
	prefixed := make(map[string]*tensor.RawTensor)
	for key, raw := range source.StateDict() {
		prefixed["module."+key] = raw
	}

	require.NoError(t, m.LoadStateDict(prefixed))

	want := source.StateDict()["classifier.bias"].AsFloat32()
	got := m.StateDict()["classifier.bias"].AsFloat32()
	assert.Equal(t, want, got)
}

func TestLoadStateDict_CollectsAllShapeMismatches(t *testing.T) {
	backend := cpu.New()
	m := model.New(backend)

	bad := func(shape tensor.Shape) *tensor.RawTensor {
		raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
		require.NoError(t, err)
		return raw
	}

	err := m.LoadStateDict(map[string]*tensor.RawTensor{
		"features.0.bias": bad(tensor.Shape{99}),
		"classifier.bias": bad(tensor.Shape{7}),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "features.0.bias")
	assert.Contains(t, err.Error(), "classifier.bias")
	assert.Contains(t, err.Error(), "expected")
}

func TestLoadStateDict_IgnoresUnexpectedKeys(t *testing.T) {
	backend := cpu.New()
	m := model.New(backend)

	extra, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	assert.NoError(t, m.LoadStateDict(map[string]*tensor.RawTensor{
		"optimizer.momentum": extra,
	}))
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	backend := cpu.New()
	original := model.New(backend)

	path := filepath.Join(t.TempDir(), "chestnet.sght")
	require.NoError(t, model.SaveCheckpoint(original, path))

	restored := model.New(backend)
	require.NoError(t, model.LoadCheckpoint(restored, path))

	for key, want := range original.StateDict() {
		got := restored.StateDict()[key]
		require.NotNil(t, got, "missing tensor %s", key)
		assert.Equal(t, want.AsFloat32(), got.AsFloat32(), "tensor %s differs", key)
	}
}

func TestLoadCheckpoint_MissingFile(t *testing.T) {
	m := model.New(cpu.New())

	err := model.LoadCheckpoint(m, filepath.Join(t.TempDir(), "absent.sght"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to read checkpoint"))
}
