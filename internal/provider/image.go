package provider

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

var (
	// ErrInvalidImage indicates the buffer is empty or its header cannot be decoded
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnsupportedFormat indicates the buffer is not a JPEG, PNG or WebP image
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

var supportedMIMETypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Image is an encoded photograph owned by the caller. The pipeline never mutates Data.
type Image struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

// NewImage sniffs and decodes the header of data. Pixels are not decoded.
func NewImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}

	mtype := mimetype.Detect(data)
	format, ok := supportedMIMETypes[mtype.String()]
	if !ok {
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: decode %s header: %v", ErrInvalidImage, format, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, fmt.Errorf("%w: %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	return Image{
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}

// Size returns the encoded size in bytes.
func (i Image) Size() int {
	return len(i.Data)
}
