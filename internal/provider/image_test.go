package provider

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestNewImage(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantErr    error
		wantFormat string
		wantWidth  int
		wantHeight int
	}{
		{
			name:       "png",
			data:       encodePNG(t, 64, 48),
			wantFormat: "png",
			wantWidth:  64,
			wantHeight: 48,
		},
		{
			name:       "jpeg",
			data:       encodeJPEG(t, 32, 40),
			wantFormat: "jpeg",
			wantWidth:  32,
			wantHeight: 40,
		},
		{
			name:    "empty buffer",
			data:    nil,
			wantErr: ErrInvalidImage,
		},
		{
			name:    "plain text",
			data:    []byte("definitely not an image"),
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "truncated png",
			data:    encodePNG(t, 10, 10)[:12],
			wantErr: ErrInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewImage(tt.data)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, img.Format)
			assert.Equal(t, tt.wantWidth, img.Width)
			assert.Equal(t, tt.wantHeight, img.Height)
			assert.Equal(t, len(tt.data), img.Size())
		})
	}
}

func TestNewImage_DoesNotMutate(t *testing.T) {
	data := encodePNG(t, 8, 8)
	original := append([]byte(nil), data...)

	_, err := NewImage(data)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}
