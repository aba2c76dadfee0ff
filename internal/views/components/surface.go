package components

import (
	"image"
	"image/color"

	"inpaint-masker/internal/render"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// DrawingSurface shows the surface composite and turns pointer drags into strokes.
type DrawingSurface struct {
	widget.BaseWidget

	raster *canvas.Image
	width  int
	height int

	dragging bool
	onStart  func(render.Point)
	onMove   func(render.Point)
	onEnd    func()
}

var (
	_ fyne.Draggable = (*DrawingSurface)(nil)
	_ fyne.Tappable  = (*DrawingSurface)(nil)
)

func NewDrawingSurface(width, height int) *DrawingSurface {
	blank := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}

	s := &DrawingSurface{width: width, height: height}
	s.raster = canvas.NewImageFromImage(blank)
	s.raster.FillMode = canvas.ImageFillStretch
	s.raster.ScaleMode = canvas.ImageScaleFastest
	s.raster.SetMinSize(fyne.NewSize(float32(width), float32(height)))
	s.ExtendBaseWidget(s)
	return s
}

func (s *DrawingSurface) CreateRenderer() fyne.WidgetRenderer {
	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	border.StrokeWidth = 1
	return widget.NewSimpleRenderer(container.NewStack(s.raster, border))
}

func (s *DrawingSurface) MinSize() fyne.Size {
	return fyne.NewSize(float32(s.width), float32(s.height))
}

// SetStrokeHandlers sets the callbacks for stroke start, movement and end.
func (s *DrawingSurface) SetStrokeHandlers(start func(render.Point), move func(render.Point), end func()) {
	s.onStart = start
	s.onMove = move
	s.onEnd = end
}

// SetImage replaces the displayed composite.
func (s *DrawingSurface) SetImage(img image.Image) {
	if img == nil {
		return
	}
	s.raster.Image = img
	s.raster.Refresh()
}

// Image returns the composite currently displayed.
func (s *DrawingSurface) Image() image.Image {
	return s.raster.Image
}

func (s *DrawingSurface) Dragged(ev *fyne.DragEvent) {
	p := s.toSurface(ev.Position)
	if !s.dragging {
		s.dragging = true
		origin := s.toSurface(ev.Position.Subtract(ev.Dragged))
		if s.onStart != nil {
			s.onStart(origin)
		}
	}
	if s.onMove != nil {
		s.onMove(p)
	}
}

func (s *DrawingSurface) DragEnd() {
	if !s.dragging {
		return
	}
	s.dragging = false
	if s.onEnd != nil {
		s.onEnd()
	}
}

// Tapped draws a single dot.
func (s *DrawingSurface) Tapped(ev *fyne.PointEvent) {
	if s.onStart != nil {
		s.onStart(s.toSurface(ev.Position))
	}
	if s.onEnd != nil {
		s.onEnd()
	}
}

// toSurface maps widget coordinates to surface pixels.
func (s *DrawingSurface) toSurface(pos fyne.Position) render.Point {
	size := s.Size()
	sx, sy := float32(1), float32(1)
	if size.Width > 0 && size.Height > 0 {
		sx = float32(s.width) / size.Width
		sy = float32(s.height) / size.Height
	}
	return render.Point{X: float64(pos.X * sx), Y: float64(pos.Y * sy)}
}
