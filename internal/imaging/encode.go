package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
)

// DataURI encodes an image as a base64 PNG data URI, suitable for embedding
// directly in an HTML img tag or JSON response.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("imaging: failed to encode PNG: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SavePNG writes an image to disk as PNG.
func SavePNG(path string, img image.Image) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for saving output
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imaging: failed to create file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("imaging: failed to encode PNG: %w", err)
	}
	return file.Close()
}
