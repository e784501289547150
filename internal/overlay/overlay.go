// Package overlay renders saliency heatmaps as translucent tints over a
// base image.
//
// The heatmap is clamped to [0, 1], quantized to 8 bits, bilinearly
// upsampled to the base image dimensions, and alpha-composited as a red
// tint whose opacity scales with saliency.
package overlay

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"

	"github.com/sightline-ml/sightline/internal/cam"
)

// DefaultMaxAlpha is the opacity of a fully saturated heatmap pixel.
const DefaultMaxAlpha = 192

// Options controls heatmap rendering.
type Options struct {
	// MaxAlpha is the tint opacity at heatmap value 1.0. Lower values show
	// more of the base image through hot regions.
	MaxAlpha uint8

	// Tint is the overlay color. Alpha is ignored; opacity comes from the
	// heatmap and MaxAlpha.
	Tint color.RGBA
}

// DefaultOptions returns the standard red tint at DefaultMaxAlpha.
func DefaultOptions() Options {
	return Options{
		MaxAlpha: DefaultMaxAlpha,
		Tint:     color.RGBA{R: 255},
	}
}

// Render composites the heatmap over the base image and returns the result.
//
// The heatmap is upsampled to the base image dimensions with bilinear
// interpolation. Each pixel's tint opacity is its saliency scaled by
// opts.MaxAlpha, so cold regions leave the base image untouched.
func Render(base image.Image, heatmap *cam.Heatmap, opts Options) (*image.RGBA, error) {
	if base == nil {
		return nil, errors.New("overlay: nil base image")
	}
	if heatmap == nil || heatmap.Height <= 0 || heatmap.Width <= 0 {
		return nil, errors.New("overlay: nil or empty heatmap")
	}
	if len(heatmap.Data) != heatmap.Height*heatmap.Width {
		return nil, errors.New("overlay: heatmap data does not match its dimensions")
	}

	bounds := base.Bounds()

	// Clamp and quantize to an 8-bit grayscale intensity image.
	gray := image.NewGray(image.Rect(0, 0, heatmap.Width, heatmap.Height))
	for i, v := range heatmap.Data {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		gray.Pix[i] = uint8(v*255 + 0.5)
	}

	upsampled := resize.Resize(uint(bounds.Dx()), uint(bounds.Dy()), gray, resize.Bilinear)

	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, base, bounds.Min, draw.Src)

	tint := buildTint(upsampled, opts)
	draw.Draw(out, bounds, tint, image.Point{}, draw.Over)

	return out, nil
}

// buildTint converts the upsampled intensity image into a premultiplied
// tint layer ready for Over compositing.
func buildTint(intensity image.Image, opts Options) *image.RGBA {
	bounds := intensity.Bounds()
	tint := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			value := color.GrayModel.Convert(intensity.At(x, y)).(color.Gray).Y
			alpha := uint32(value) * uint32(opts.MaxAlpha) / 255

			// Premultiplied color components.
			tint.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{
				R: uint8(uint32(opts.Tint.R) * alpha / 255),
				G: uint8(uint32(opts.Tint.G) * alpha / 255),
				B: uint8(uint32(opts.Tint.B) * alpha / 255),
				A: uint8(alpha),
			})
		}
	}

	return tint
}
