package models

import (
	"image"
	"time"
)

// ImageData is an image held both as a data URL (what gets saved, downloaded and
// compared) and as a decoded raster (what gets drawn).
type ImageData struct {
	DataURL  string
	Image    image.Image
	Width    int
	Height   int
	Format   string
	Name     string
	LoadTime time.Time
}

// Present reports whether d carries an image.
func (d *ImageData) Present() bool {
	return d != nil && d.DataURL != ""
}
