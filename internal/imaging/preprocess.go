// Package imaging converts between image files and model tensors: decoding,
// resizing, ImageNet normalization, and encoding rendered results.
package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"

	"github.com/sightline-ml/sightline/internal/tensor"
)

// ImageNet channel statistics, applied after scaling pixels to [0, 1].
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

const (
	// resizeShortSide is the target for the shorter image dimension before
	// cropping.
	resizeShortSide = 256

	// cropSize is the square center-crop fed to the model.
	cropSize = 224
)

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for image loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imaging: failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("imaging: failed to decode image: %w", err)
	}
	return img, nil
}

// Preprocess converts an image into a [1, 3, 224, 224] float32 tensor.
//
// The pipeline mirrors standard ImageNet inference preprocessing: resize so
// the shorter side is 256 pixels, center-crop 224x224, scale to [0, 1], then
// normalize each channel with the ImageNet mean and standard deviation.
func Preprocess[B tensor.Backend](img image.Image, backend B) (*tensor.Tensor[float32, B], error) {
	if img == nil {
		return nil, fmt.Errorf("imaging: nil image")
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("imaging: empty image %dx%d", bounds.Dx(), bounds.Dy())
	}

	resized := resizeShortestSide(img, resizeShortSide)
	cropped := centerCrop(resized, cropSize)

	data := make([]float32, 3*cropSize*cropSize)
	cropBounds := cropped.Bounds()
	plane := cropSize * cropSize
	for y := 0; y < cropSize; y++ {
		for x := 0; x < cropSize; x++ {
			r, g, b, _ := cropped.At(cropBounds.Min.X+x, cropBounds.Min.Y+y).RGBA()
			idx := y*cropSize + x
			data[0*plane+idx] = (float32(r)/65535.0 - imagenetMean[0]) / imagenetStd[0]
			data[1*plane+idx] = (float32(g)/65535.0 - imagenetMean[1]) / imagenetStd[1]
			data[2*plane+idx] = (float32(b)/65535.0 - imagenetMean[2]) / imagenetStd[2]
		}
	}

	return tensor.FromSlice(data, tensor.Shape{1, 3, cropSize, cropSize}, backend)
}

// resizeShortestSide scales the image so its shorter dimension equals target,
// preserving aspect ratio.
func resizeShortestSide(img image.Image, target int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width <= height {
		if width == target {
			return img
		}
		newHeight := uint(float64(height) * float64(target) / float64(width))
		return resize.Resize(uint(target), newHeight, img, resize.Bilinear)
	}
	if height == target {
		return img
	}
	newWidth := uint(float64(width) * float64(target) / float64(height))
	return resize.Resize(newWidth, uint(target), img, resize.Bilinear)
}

// centerCrop extracts a centered size x size window. Images smaller than the
// crop are scaled up first.
func centerCrop(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() < size || bounds.Dy() < size {
		img = resize.Resize(uint(size), uint(size), img, resize.Bilinear)
		bounds = img.Bounds()
	}

	x0 := bounds.Min.X + (bounds.Dx()-size)/2
	y0 := bounds.Min.Y + (bounds.Dy()-size)/2

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	rect := image.Rect(x0, y0, x0+size, y0+size)
	if sub, ok := img.(subImager); ok {
		return sub.SubImage(rect)
	}

	out := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			out.Set(x, y, img.At(x0+x, y0+y))
		}
	}
	return out
}
