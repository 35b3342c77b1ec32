// Package thumbnail generates preview images for uploaded pictures.
package thumbnail

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// Edge length of generated thumbnails, in pixels.
const size = 200

// Supported reports whether a thumbnail can be generated for the given
// MIME type.
func Supported(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// Generate decodes an image and produces a square JPEG thumbnail,
// center-cropped and scaled to 200x200.
func Generate(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	thumb := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
