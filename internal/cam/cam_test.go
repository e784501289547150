package cam_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightline-ml/sightline/internal/autodiff"
	"github.com/sightline-ml/sightline/internal/backend/cpu"
	"github.com/sightline-ml/sightline/internal/cam"
	"github.com/sightline-ml/sightline/internal/nn"
	"github.com/sightline-ml/sightline/internal/tensor"
)

type camB = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// testNet is a minimal classifier with the conventional features/classifier
// layout: two 2x2 convolution filters over a single channel, flattened into
// a linear head.
type testNet struct {
	features   *nn.Sequential[camB]
	flatten    *nn.Flatten[camB]
	classifier *nn.Linear[camB]
}

func (m *testNet) Forward(input *tensor.Tensor[float32, camB]) *tensor.Tensor[float32, camB] {
	out := m.features.Forward(input)
	out = m.flatten.Forward(out)
	return m.classifier.Forward(out)
}

func (m *testNet) Parameters() []*nn.Parameter[camB] {
	params := m.features.Parameters()
	return append(params, m.classifier.Parameters()...)
}

func (m *testNet) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

func (m *testNet) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return nil
}

func (m *testNet) Children() []nn.NamedChild[camB] {
	return []nn.NamedChild[camB]{
		{Name: "features", Module: m.features},
		{Name: "flatten", Module: m.flatten},
		{Name: "classifier", Module: m.classifier},
	}
}

// newTestNet builds a testNet with hand-set weights so heatmaps are exactly
// predictable:
//   - conv channel 0 picks the top-left of each 2x2 window
//   - conv channel 1 picks the bottom-right
//   - class 0 sums channel 0, class 1 sums channel 1, class 2 negates channel 0
func newTestNet(backend camB) *testNet {
	conv := nn.NewConv2D(1, 2, 2, 2, 1, 0, false, backend)
	copy(conv.Parameters()[0].Tensor().Data(), []float32{
		1, 0,
		0, 0,

		0, 0,
		0, 1,
	})

	classifier := nn.NewLinear(8, 3, backend)
	copy(classifier.Weight().Tensor().Data(), []float32{
		1, 1, 1, 1, 0, 0, 0, 0,
		0, 0, 0, 0, 1, 1, 1, 1,
		-1, -1, -1, -1, 0, 0, 0, 0,
	})
	copy(classifier.Bias().Tensor().Data(), []float32{0, 0, 0})

	return &testNet{
		features:   nn.NewSequential[camB](conv),
		flatten:    nn.NewFlatten[camB](),
		classifier: classifier,
	}
}

func testInput(backend camB) *tensor.Tensor[float32, camB] {
	input, err := tensor.FromSlice([]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3}, backend)
	if err != nil {
		panic(err)
	}
	return input
}

func TestComputeHeatmap_KnownValues(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	// Class 0 attends channel 0, whose activation is the top-left of each
	// window: [[1,2],[4,5]]. Normalized by its max of 5.
	heatmap, err := engine.ComputeHeatmap(testInput(backend), 0)
	require.NoError(t, err)

	require.Equal(t, 2, heatmap.Height)
	require.Equal(t, 2, heatmap.Width)

	expected := []float64{1.0 / 5, 2.0 / 5, 4.0 / 5, 5.0 / 5}
	for i, v := range expected {
		assert.InDelta(t, v, heatmap.Data[i], 1e-6, "heatmap[%d]", i)
	}
}

func TestComputeHeatmap_ValuesInUnitRange(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	heatmap, err := engine.ComputeHeatmap(testInput(backend), 1)
	require.NoError(t, err)

	for i, v := range heatmap.Data {
		assert.GreaterOrEqual(t, v, 0.0, "heatmap[%d]", i)
		assert.LessOrEqual(t, v, 1.0, "heatmap[%d]", i)
	}
}

func TestComputeHeatmap_Deterministic(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	input := testInput(backend)

	first, err := engine.ComputeHeatmap(input, 0)
	require.NoError(t, err)
	second, err := engine.ComputeHeatmap(input, 0)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

func TestComputeHeatmap_ClassSensitivity(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	input := testInput(backend)

	class0, err := engine.ComputeHeatmap(input, 0)
	require.NoError(t, err)
	class1, err := engine.ComputeHeatmap(input, 1)
	require.NoError(t, err)

	// Channel 1 activation is [[5,6],[8,9]]: a different spatial profile.
	assert.NotEqual(t, class0.Data, class1.Data)
}

func TestComputeHeatmap_TopClassWhenNegative(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	input := testInput(backend)

	// Logits: class0 = 1+2+4+5 = 12, class1 = 5+6+8+9 = 28, class2 = -12.
	// The top prediction is class 1.
	auto, err := engine.ComputeHeatmap(input, -1)
	require.NoError(t, err)
	explicit, err := engine.ComputeHeatmap(input, 1)
	require.NoError(t, err)

	assert.Equal(t, explicit.Data, auto.Data)
}

func TestComputeHeatmap_DegenerateMapIsZero(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	// Class 2 only suppresses channel 0: the weighted sum is negative
	// everywhere and the ReLU floor leaves nothing to normalize.
	heatmap, err := engine.ComputeHeatmap(testInput(backend), 2)
	require.NoError(t, err)

	assert.True(t, heatmap.IsZero())
}

func TestNew_AutoSelectsLastConvUnderFeatures(t *testing.T) {
	backend := autodiff.New(cpu.New())

	conv1 := nn.NewConv2D(1, 2, 2, 2, 1, 0, false, backend)
	conv2 := nn.NewConv2D(2, 2, 1, 1, 1, 0, false, backend)
	model := &testNet{
		features:   nn.NewSequential[camB](conv1, nn.NewReLU[camB](), conv2),
		flatten:    nn.NewFlatten[camB](),
		classifier: nn.NewLinear(8, 3, backend),
	}

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	assert.Equal(t, "features.2", engine.TargetPath())
	assert.Same(t, conv2, engine.TargetLayer())
}

func TestNew_ExplicitPath(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "features.0")
	require.NoError(t, err)
	assert.Equal(t, "features.0", engine.TargetPath())
}

func TestNew_MissingLayerIsError(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	// An explicit path never falls back to auto-selection.
	_, err := cam.New[camB](model, backend, "features.99")
	require.Error(t, err)

	var notFound *cam.LayerNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "features.99", notFound.Path)
}

func TestNew_NonConvPathIsError(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	_, err := cam.New[camB](model, backend, "classifier")
	require.Error(t, err)

	var notFound *cam.LayerNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestNew_NoConvolutionsIsError(t *testing.T) {
	backend := autodiff.New(cpu.New())

	model := &testNet{
		features:   nn.NewSequential[camB](nn.NewReLU[camB]()),
		flatten:    nn.NewFlatten[camB](),
		classifier: nn.NewLinear(8, 3, backend),
	}

	_, err := cam.New[camB](model, backend, "")
	require.Error(t, err)

	var noTarget *cam.NoTargetLayerError
	require.ErrorAs(t, err, &noTarget)
}

func TestComputeHeatmap_ReleasesInstrumentation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	input := testInput(backend)

	_, err = engine.ComputeHeatmap(input, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, engine.TargetLayer().ForwardHookCount(), "forward observers must be released")
	assert.Equal(t, 0, backend.Tape().GradientHookCount(), "gradient observers must be released")

	// Error paths release too.
	_, err = engine.ComputeHeatmap(input, 99)
	require.Error(t, err)

	assert.Equal(t, 0, engine.TargetLayer().ForwardHookCount())
	assert.Equal(t, 0, backend.Tape().GradientHookCount())
}

func TestComputeHeatmap_InputRankError(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := newTestNet(backend)

	engine, err := cam.New[camB](model, backend, "")
	require.NoError(t, err)

	flat, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	_, err = engine.ComputeHeatmap(flat, 0)
	require.Error(t, err)

	var rankErr *cam.TensorRankError
	require.ErrorAs(t, err, &rankErr)
	assert.Equal(t, 2, rankErr.Got)
	assert.Equal(t, 4, rankErr.Want)
}

func TestComputeHeatmap_CaptureMissingWhenLayerSkipped(t *testing.T) {
	backend := autodiff.New(cpu.New())

	// The skipped conv is registered as a child but never executed by
	// Forward, so the forward observer cannot fire.
	model := newTestNet(backend)
	skipped := &skippedConvNet{
		inner:   model,
		orphan:  nn.NewConv2D(1, 1, 1, 1, 1, 0, false, backend),
		backend: backend,
	}

	engine, err := cam.New[camB](skipped, backend, "orphan")
	require.NoError(t, err)

	_, err = engine.ComputeHeatmap(testInput(backend), 0)
	require.Error(t, err)

	var missing *cam.CaptureMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "activation", missing.What)

	// Instrumentation is still released on this exit path.
	assert.Equal(t, 0, engine.TargetLayer().ForwardHookCount())
	assert.Equal(t, 0, backend.Tape().GradientHookCount())
}

// skippedConvNet wraps testNet and registers an extra conv child that
// Forward never calls.
type skippedConvNet struct {
	inner   *testNet
	orphan  *nn.Conv2D[camB]
	backend camB
}

func (m *skippedConvNet) Forward(input *tensor.Tensor[float32, camB]) *tensor.Tensor[float32, camB] {
	return m.inner.Forward(input)
}

func (m *skippedConvNet) Parameters() []*nn.Parameter[camB] {
	return m.inner.Parameters()
}

func (m *skippedConvNet) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

func (m *skippedConvNet) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return nil
}

func (m *skippedConvNet) Children() []nn.NamedChild[camB] {
	children := m.inner.Children()
	return append(children, nn.NamedChild[camB]{Name: "orphan", Module: m.orphan})
}

func TestErrors_Messages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&cam.LayerNotFoundError{Path: "features.9", Reason: "no module at this path"},
			`cam: layer "features.9" not found: no module at this path`},
		{&cam.NoTargetLayerError{Detail: "model contains no Conv2D layers"},
			"cam: no target layer found: model contains no Conv2D layers"},
		{&cam.CaptureMissingError{What: "gradient"},
			"cam: gradient capture missing after forward/backward pass"},
		{&cam.TensorRankError{What: "activation", Got: 3, Want: 4},
			"cam: unexpected activation tensor rank: got 3D, want 4D"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.Error())
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	var notFound *cam.LayerNotFoundError
	err := error(&cam.CaptureMissingError{What: "activation"})
	assert.False(t, errors.As(err, &notFound))
}
