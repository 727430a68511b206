package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_DownscalesLargeImages(t *testing.T) {
	out, ct := Normalize(pngOf(t, 3200, 800))
	assert.Equal(t, "image/png", ct)
	img, _, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())

	small := pngOf(t, 10, 10)
	same, _ := Normalize(small)
	assert.Equal(t, small, same)

	raw := []byte("%PDF-1.4 not an image")
	kept, _ := Normalize(raw)
	assert.Equal(t, raw, kept)
}

func TestKeyFromURL(t *testing.T) {
	key, err := KeyFromURL("https://bucket.oss-ap-south-1.aliyuncs.com/eventhub/posters/a.png")
	require.NoError(t, err)
	assert.Equal(t, "eventhub/posters/a.png", key)

	_, err = KeyFromURL("https://bucket.example.com")
	assert.Error(t, err)
}

func TestMemoryHost_UploadDelete(t *testing.T) {
	h := NewMemoryHost()
	ctx := context.Background()
	url, err := h.Upload(ctx, "posters", "Poster.PNG", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"))
	assert.Equal(t, 1, h.Len())

	require.NoError(t, h.Delete(ctx, url))
	assert.Equal(t, 0, h.Len())
	assert.Error(t, h.Delete(ctx, url))
}
