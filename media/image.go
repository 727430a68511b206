package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const maxSide = 1600

// Decode sniffs jpeg, png or webp.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty file")
	}
	ct := http.DetectContentType(data)
	var (
		img image.Image
		err error
	)
	switch {
	case strings.Contains(ct, "jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "png"):
		img, err = png.Decode(bytes.NewReader(data))
	case strings.Contains(ct, "webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, ct, fmt.Errorf("unsupported image type %s", ct)
	}
	return img, ct, err
}

// Downscale keeps the aspect ratio and fits src inside maxW x maxH.
func Downscale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return src
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(int(math.Round(float64(w)*scale)), 1)
	nh := max(int(math.Round(float64(h)*scale)), 1)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// Normalize shrinks oversized images before upload. Images already within
// bounds are returned untouched, as is anything that is not a decodable image.
func Normalize(data []byte) ([]byte, string) {
	img, ct, err := Decode(data)
	if err != nil {
		return data, ct
	}
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return data, ct
	}
	img = Downscale(img, maxSide, maxSide)

	var buf bytes.Buffer
	if strings.Contains(ct, "png") {
		if err := png.Encode(&buf, img); err != nil {
			return data, ct
		}
		return buf.Bytes(), "image/png"
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return data, ct
	}
	return buf.Bytes(), "image/jpeg"
}
