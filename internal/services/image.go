package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"inpaint-masker/internal/logger"
	"inpaint-masker/internal/models"

	"github.com/disintegration/imaging"
	"github.com/vincent-petithory/dataurl"
)

const (
	// MaskDownloadName is the file name offered when downloading the mask.
	MaskDownloadName = "mask_image.png"

	maxUploadBytes = 64 << 20
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNoMask            = errors.New("no mask image available")
)

// ImageService handles upload decoding, mask encoding and mask downloads
type ImageService struct {
	logger logger.Logger
}

// NewImageService creates a new image service
func NewImageService(log logger.Logger) *ImageService {
	return &ImageService{logger: log}
}

// LoadImage reads a PNG or JPEG upload and returns it as a data URL plus the decoded
// raster. The data URL carries the file's original bytes.
func (is *ImageService) LoadImage(ctx context.Context, reader io.Reader, name string) (*models.ImageData, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	startTime := time.Now()

	data, err := io.ReadAll(io.LimitReader(reader, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxUploadBytes)
	}

	contentType, format, err := detectFormat(data, name)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// a load cancelled while decoding must not be reported as a success
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	imageData := &models.ImageData{
		DataURL:  dataurl.New(data, contentType).String(),
		Image:    img,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   format,
		Name:     name,
		LoadTime: time.Now(),
	}

	is.logger.Debug("ImageService", "image loaded", map[string]interface{}{
		"name":        name,
		"format":      format,
		"width":       imageData.Width,
		"height":      imageData.Height,
		"bytes":       len(data),
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return imageData, nil
}

// EncodeMask turns a surface snapshot into a PNG data URL.
func (is *ImageService) EncodeMask(img image.Image) (*models.ImageData, error) {
	if img == nil {
		return nil, fmt.Errorf("no mask raster to encode")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}

	bounds := img.Bounds()
	return &models.ImageData{
		DataURL:  dataurl.New(buf.Bytes(), "image/png").String(),
		Image:    img,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   "png",
		Name:     MaskDownloadName,
		LoadTime: time.Now(),
	}, nil
}

// WriteMask writes the exact bytes behind the mask's data URL to writer.
func (is *ImageService) WriteMask(writer io.Writer, mask *models.ImageData) error {
	if !mask.Present() {
		return ErrNoMask
	}

	data, err := DecodeDataURL(mask.DataURL)
	if err != nil {
		return err
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write mask: %w", err)
	}

	is.logger.Info("ImageService", "mask downloaded", map[string]interface{}{
		"bytes": len(data),
	})
	return nil
}

// DecodeDataURL returns the payload of a data URL.
func DecodeDataURL(s string) ([]byte, error) {
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid data URL: %w", err)
	}
	return du.Data, nil
}

// MaskFilename names a saved mask after the moment of the change that produced it.
func MaskFilename(at time.Time) string {
	return fmt.Sprintf("mask_%d", at.UnixMilli())
}

// SupportedExtensions lists the file extensions offered by the upload dialog.
func SupportedExtensions() []string {
	return []string{".png", ".jpg", ".jpeg"}
}

// detectFormat sniffs the content type. The file name only appears in the error.
func detectFormat(data []byte, name string) (string, string, error) {
	switch http.DetectContentType(data) {
	case "image/png":
		return "image/png", "png", nil
	case "image/jpeg":
		return "image/jpeg", "jpeg", nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.TrimPrefix(ext, "."))
}
