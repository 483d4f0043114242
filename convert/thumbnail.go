package convert

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ThumbnailWidth is the width of grid previews in pixels
const ThumbnailWidth = 320

// EncodePNG encodes a rendered page losslessly
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail scales a page PNG down to width, keeping the aspect ratio.
// Pages narrower than width are re-encoded unchanged.
func Thumbnail(pngData []byte, width int) ([]byte, error) {
	if width <= 0 {
		width = ThumbnailWidth
	}
	img, err := decodePNG(pngData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	return EncodePNG(img)
}

func decodePNG(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data))
}
