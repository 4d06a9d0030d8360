// Package imaging normalizes photos of found items: it checks the format,
// limits the size and produces a small thumbnail for item lists.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// Defaults used when Options fields are zero.
const (
	DefaultMaxDimension   = 1280
	DefaultThumbDimension = 240
	DefaultQuality        = 85
	DefaultMaxBytes       = 8 << 20
)

// ErrTooLarge is returned when the upload exceeds Options.MaxBytes.
var ErrTooLarge = errors.New("image too large")

// allowedMIME lists the accepted input types, sniffed from the bytes.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Options controls photo processing.
type Options struct {
	MaxDimension   int
	ThumbDimension int
	Quality        int
	MaxBytes       int64
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.ThumbDimension <= 0 {
		o.ThumbDimension = DefaultThumbDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	return o
}

// Photo is a processed item photo. Both images are JPEG.
type Photo struct {
	Data      []byte
	Thumbnail []byte
	MIME      string
	Width     int
	Height    int
}

// Process reads a JPEG or PNG photo, downscales it to fit opts.MaxDimension
// and renders a thumbnail. The client's content type is not trusted.
func Process(r io.Reader, opts Options) (*Photo, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, ErrTooLarge
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	full := fit(img, opts.MaxDimension, draw.CatmullRom)
	fullData, err := encode(full, opts.Quality)
	if err != nil {
		return nil, err
	}

	thumbData, err := encode(fit(full, opts.ThumbDimension, draw.ApproxBiLinear), opts.Quality)
	if err != nil {
		return nil, err
	}

	return &Photo{
		Data:      fullData,
		Thumbnail: thumbData,
		MIME:      "image/jpeg",
		Width:     full.Bounds().Dx(),
		Height:    full.Bounds().Dy(),
	}, nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so neither side exceeds maxDim, keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func fit(img image.Image, maxDim int, scaler draw.Scaler) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	scaler.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
