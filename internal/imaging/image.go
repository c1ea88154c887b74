// Package imaging holds the immutable image value passed through the
// inspection pipeline and the face detection result types.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/mask-sentry/internal/constants"
)

// ErrEmpty is returned when no image bytes were supplied.
var ErrEmpty = errors.New("empty image")

// Image is a single still picture in its original encoding.
// The original bytes are never modified; every accessor returns a copy.
type Image struct {
	data   []byte
	format string
	width  int
	height int
}

// Decode validates data as a supported image and records its format and size.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{
		data:   bytes.Clone(data),
		format: format,
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}

// Bytes returns a copy of the original encoded bytes.
func (i *Image) Bytes() []byte {
	return bytes.Clone(i.data)
}

// Format is the decoder name: jpeg, png, gif, bmp or webp.
func (i *Image) Format() string {
	return i.format
}

func (i *Image) Width() int  { return i.width }
func (i *Image) Height() int { return i.height }

// JPEG returns the image as JPEG bytes, re-encoding only when the original is
// in a different format.
func (i *Image) JPEG() ([]byte, error) {
	if i.format == "jpeg" {
		return i.Bytes(), nil
	}
	img, _, err := image.Decode(bytes.NewReader(i.data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Resize resizes an image to fit within maxSize (width or height) while keeping aspect ratio.
// The result is always JPEG.
func Resize(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	out := img
	if width > maxSize || height > maxSize {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxSize
			newHeight = int(float64(height) * float64(maxSize) / float64(width))
		} else {
			newHeight = maxSize
			newWidth = int(float64(width) * float64(maxSize) / float64(height))
		}
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		out = resized
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
