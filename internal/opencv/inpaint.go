// Package opencv previews inpainting of the source image under the drawn mask.
package opencv

import (
	"context"
	"fmt"
	"image"
	"time"

	"inpaint-masker/internal/logger"
	"inpaint-masker/internal/render"

	"gocv.io/x/gocv"
)

// Inpainter fills masked regions of an image with OpenCV's Telea method.
type Inpainter struct {
	radius float32
	logger logger.Logger
}

func NewInpainter(radius float64, log logger.Logger) *Inpainter {
	if radius <= 0 {
		radius = 3
	}
	return &Inpainter{radius: float32(radius), logger: log}
}

// Inpaint returns source with every pixel painted in mask reconstructed from its
// surroundings. mask is scaled to the source size first.
func (p *Inpainter) Inpaint(ctx context.Context, source, mask image.Image) (image.Image, error) {
	if source == nil || mask == nil {
		return nil, fmt.Errorf("inpaint needs both a source and a mask")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := time.Now()
	bounds := source.Bounds()

	src, err := gocv.ImageToMatRGB(source)
	if err != nil {
		return nil, fmt.Errorf("failed to convert source to Mat: %w", err)
	}
	defer src.Close()

	binary := render.AlphaMask(mask, bounds.Dx(), bounds.Dy())
	maskMat, err := gocv.ImageGrayToMatGray(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask to Mat: %w", err)
	}
	defer maskMat.Close()

	if err := validate(src, "inpaint source"); err != nil {
		return nil, err
	}
	if err := validate(maskMat, "inpaint mask"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Inpaint(src, maskMat, &dst, p.radius, gocv.Telea)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert result to image: %w", err)
	}

	p.logger.Debug("Inpainter", "inpaint preview rendered", map[string]interface{}{
		"width":       bounds.Dx(),
		"height":      bounds.Dy(),
		"coverage":    render.Coverage(binary),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return out, nil
}

func validate(mat gocv.Mat, operation string) error {
	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}
	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}
	return nil
}
