package imaging_test

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightline-ml/sightline/internal/backend/cpu"
	"github.com/sightline-ml/sightline/internal/imaging"
	"github.com/sightline-ml/sightline/internal/tensor"
)

func solidImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocess_OutputShape(t *testing.T) {
	backend := cpu.New()
	img := solidImage(640, 480, color.Gray{Y: 128})

	input, err := imaging.Preprocess(img, backend)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{1, 3, 224, 224}, input.Shape())
}

func TestPreprocess_NormalizesWithImageNetStats(t *testing.T) {
	backend := cpu.New()
	// A pure white image: every channel is 1.0 before normalization.
	img := solidImage(256, 256, color.White)

	input, err := imaging.Preprocess(img, backend)
	require.NoError(t, err)

	data := input.Data()
	plane := 224 * 224
	assert.InDelta(t, (1.0-0.485)/0.229, float64(data[0]), 1e-3, "red channel")
	assert.InDelta(t, (1.0-0.456)/0.224, float64(data[plane]), 1e-3, "green channel")
	assert.InDelta(t, (1.0-0.406)/0.225, float64(data[2*plane]), 1e-3, "blue channel")
}

func TestPreprocess_BlackImage(t *testing.T) {
	backend := cpu.New()
	img := solidImage(300, 300, color.Black)

	input, err := imaging.Preprocess(img, backend)
	require.NoError(t, err)

	data := input.Data()
	plane := 224 * 224
	assert.InDelta(t, -0.485/0.229, float64(data[0]), 1e-3)
	assert.InDelta(t, -0.456/0.224, float64(data[plane]), 1e-3)
	assert.InDelta(t, -0.406/0.225, float64(data[2*plane]), 1e-3)
}

func TestPreprocess_SmallImageUpscales(t *testing.T) {
	backend := cpu.New()
	img := solidImage(50, 80, color.Gray{Y: 200})

	input, err := imaging.Preprocess(img, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 224, 224}, input.Shape())
}

func TestPreprocess_NilImage(t *testing.T) {
	_, err := imaging.Preprocess[*cpu.CPUBackend](nil, cpu.New())
	require.Error(t, err)
}

func TestDataURI_Prefix(t *testing.T) {
	img := solidImage(4, 4, color.White)

	uri, err := imaging.DataURI(img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Greater(t, len(uri), len("data:image/png;base64,"))
}
