package render

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// CropToImage cuts the part of a surface-sized mask lying over the background image,
// so the result maps onto the source image without letterbox offsets. An empty rect
// returns mask unchanged.
func CropToImage(mask image.Image, rect image.Rectangle) image.Image {
	if mask == nil || rect.Empty() {
		return mask
	}
	return imaging.Crop(mask, rect)
}

// AlphaMask scales mask to width×height and binarises it on alpha: any painted
// pixel becomes 255, everything else 0.
func AlphaMask(mask image.Image, width, height int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, width, height))
	if mask == nil || width <= 0 || height <= 0 {
		return out
	}

	scaled := image.NewRGBA(out.Bounds())
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), xdraw.Src, nil)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if scaled.RGBAAt(x, y).A > 0 {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// Coverage returns the fraction of pixels set in a binary mask.
func Coverage(mask *image.Gray) float64 {
	b := mask.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	set := 0
	for _, v := range mask.Pix {
		if v > 0 {
			set++
		}
	}
	return float64(set) / float64(total)
}
