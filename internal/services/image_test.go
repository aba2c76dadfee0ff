package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"inpaint-masker/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadImagePNG(t *testing.T) {
	svc := NewImageService(logger.NewNop())
	data := encodePNG(t, 100, 100)

	img, err := svc.LoadImage(context.Background(), bytes.NewReader(data), "photo.png")
	require.NoError(t, err)
	assert.Equal(t, 100, img.Width)
	assert.Equal(t, 100, img.Height)
	assert.Equal(t, "png", img.Format)
	assert.True(t, strings.HasPrefix(img.DataURL, "data:image/png;base64,"))

	raw, err := DecodeDataURL(img.DataURL)
	require.NoError(t, err)
	assert.Equal(t, data, raw, "the data URL carries the original file bytes")
}

func TestLoadImageJPEG(t *testing.T) {
	svc := NewImageService(logger.NewNop())

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30)), nil))

	img, err := svc.LoadImage(context.Background(), &buf, "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", img.Format)
	assert.Equal(t, 40, img.Width)
	assert.True(t, strings.HasPrefix(img.DataURL, "data:image/jpeg;base64,"))
}

func TestLoadImageRejectsOtherContent(t *testing.T) {
	svc := NewImageService(logger.NewNop())

	_, err := svc.LoadImage(context.Background(), strings.NewReader("GIF89a......"), "anim.gif")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = svc.LoadImage(context.Background(), strings.NewReader("hello"), "photo.png")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "extension alone is not trusted")
}

func TestLoadImageCorruptPNG(t *testing.T) {
	svc := NewImageService(logger.NewNop())
	data := encodePNG(t, 10, 10)[:40]

	_, err := svc.LoadImage(context.Background(), bytes.NewReader(data), "broken.png")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoadImageCancelled(t *testing.T) {
	svc := NewImageService(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.LoadImage(ctx, bytes.NewReader(encodePNG(t, 2, 2)), "a.png")
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelAtEOF cancels its context once the upload has been read completely.
type cancelAtEOF struct {
	r      io.Reader
	cancel context.CancelFunc
}

func (c *cancelAtEOF) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err == io.EOF {
		c.cancel()
	}
	return n, err
}

func TestLoadImageCancelledWhileLoading(t *testing.T) {
	svc := NewImageService(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &cancelAtEOF{r: bytes.NewReader(encodePNG(t, 64, 64)), cancel: cancel}
	img, err := svc.LoadImage(ctx, r, "slow.png")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, img)
}

func TestEncodeMaskAndWriteMask(t *testing.T) {
	svc := NewImageService(logger.NewNop())
	raster := image.NewRGBA(image.Rect(0, 0, 500, 500))
	raster.Set(10, 10, color.White)

	mask, err := svc.EncodeMask(raster)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mask.DataURL, "data:image/png;base64,"))
	assert.Equal(t, MaskDownloadName, mask.Name)

	var out bytes.Buffer
	require.NoError(t, svc.WriteMask(&out, mask))

	want, err := DecodeDataURL(mask.DataURL)
	require.NoError(t, err)
	assert.Equal(t, want, out.Bytes())

	decoded, err := png.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, raster.Bounds(), decoded.Bounds())
}

func TestWriteMaskWithoutMask(t *testing.T) {
	svc := NewImageService(logger.NewNop())
	err := svc.WriteMask(&bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, ErrNoMask)
}

func TestMaskFilename(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "mask_1700000000123", MaskFilename(at))
}
