package cam

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Heatmap is a single-channel saliency map in row-major order.
//
// Values are in [0, 1] after normalization. A degenerate map (no positive
// evidence for the target class) is all zeros.
type Heatmap struct {
	Data   []float64
	Height int
	Width  int
}

// NewHeatmap creates a zero-filled heatmap.
func NewHeatmap(height, width int) *Heatmap {
	return &Heatmap{
		Data:   make([]float64, height*width),
		Height: height,
		Width:  width,
	}
}

// At returns the value at row h, column w.
func (h *Heatmap) At(row, col int) float64 {
	return h.Data[row*h.Width+col]
}

// Max returns the maximum value in the map, or 0 for an empty map.
func (h *Heatmap) Max() float64 {
	if len(h.Data) == 0 {
		return 0
	}
	return floats.Max(h.Data)
}

// IsZero reports whether every value in the map is exactly zero.
func (h *Heatmap) IsZero() bool {
	for _, v := range h.Data {
		if v != 0 {
			return false
		}
	}
	return true
}

// normalize scales the map into [0, 1] by its maximum. A map whose maximum
// is non-positive or non-finite carries no usable evidence and is zeroed
// instead of amplifying noise.
func (h *Heatmap) normalize() {
	maxVal := h.Max()
	if maxVal <= 0 || floats.HasNaN(h.Data) || math.IsInf(maxVal, 0) {
		for i := range h.Data {
			h.Data[i] = 0
		}
		return
	}
	floats.Scale(1.0/(maxVal+1e-12), h.Data)
}
