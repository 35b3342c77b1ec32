package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("image/png"))
	assert.True(t, Supported("image/jpeg"))
	assert.False(t, Supported("application/pdf"))
	assert.False(t, Supported("text/plain"))
}

func TestGenerate(t *testing.T) {
	t.Run("SquareOutput", func(t *testing.T) {
		data, err := Generate(testImage(t, 800, 600))
		require.NoError(t, err)

		decoded, format, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 200, decoded.Bounds().Dx())
		assert.Equal(t, 200, decoded.Bounds().Dy())
	})

	t.Run("UpscalesSmallImages", func(t *testing.T) {
		data, err := Generate(testImage(t, 50, 50))
		require.NoError(t, err)

		decoded, _, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 200, decoded.Bounds().Dx())
	})

	t.Run("GarbageInputFails", func(t *testing.T) {
		_, err := Generate(bytes.NewReader([]byte("not an image")))
		assert.Error(t, err)
	})
}
