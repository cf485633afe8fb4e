package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// MaxImageWidth is the widest product image kept after processing.
const MaxImageWidth = 2000

// ProcessImage decodes an uploaded product image, shrinks it to
// MaxImageWidth and re-encodes it as WebP, falling back to JPEG.
// Returns the encoded bytes and their content type.
func ProcessImage(r io.Reader) ([]byte, string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: 85}); err == nil {
		return buf.Bytes(), "image/webp", nil
	}

	buf.Reset()
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
