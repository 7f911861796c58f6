package records

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizePhotoDownscales(t *testing.T) {
	data, ct, ext, err := normalizePhoto(bytes.NewReader(pngOf(t, 3200, 800)), "image/png", ".png")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, ".jpg", ext)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, maxPhotoEdge, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestNormalizePhotoKeepsSmallImages(t *testing.T) {
	data, _, _, err := normalizePhoto(bytes.NewReader(pngOf(t, 120, 90)), "image/png", ".png")
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 90, cfg.Height)
}

func TestNormalizePhotoRejectsGarbage(t *testing.T) {
	_, _, _, err := normalizePhoto(strings.NewReader("not an image"), "image/jpeg", ".jpg")
	assert.Error(t, err)
}

func TestSniffPhoto(t *testing.T) {
	ct, ext, ok := sniffPhoto(pngOf(t, 4, 4))
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	ct, ext, ok = sniffPhoto([]byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00"))
	require.True(t, ok)
	assert.Equal(t, "image/webp", ct)
	assert.Equal(t, ".webp", ext)

	for _, raw := range [][]byte{
		[]byte("<html><script>alert(1)</script></html>"),
		[]byte("GIF89a\x01\x00\x01\x00"),
		[]byte("%PDF-1.7"),
		nil,
	} {
		_, _, ok := sniffPhoto(raw)
		assert.False(t, ok, "%q", raw)
	}
}

func TestNormalizePhotoPassesWebPThrough(t *testing.T) {
	raw := []byte("RIFF....WEBPVP8 ")
	data, ct, ext, err := normalizePhoto(bytes.NewReader(raw), "image/webp", ".webp")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "image/webp", ct)
	assert.Equal(t, ".webp", ext)
}
