// Package render rasterises freehand mask strokes onto a fixed-size surface.
package render

import (
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

type Point struct {
	X float64
	Y float64
}

// Stroke is one continuous brush movement. Its pattern is fixed when the stroke
// starts, so later gradient changes only affect new strokes.
type Stroke struct {
	Points  []Point
	Radius  float64
	Pattern gg.Pattern
	Bounds  image.Rectangle
}

func (s *Stroke) add(p Point) {
	s.Points = append(s.Points, p)
	r := int(s.Radius) + 1
	pt := image.Rect(int(p.X)-r, int(p.Y)-r, int(p.X)+r, int(p.Y)+r)
	if len(s.Points) == 1 {
		s.Bounds = pt
	} else {
		s.Bounds = s.Bounds.Union(pt)
	}
}

// Brush is the configuration applied to the next stroke.
type Brush struct {
	Radius float64
	Start  string
	End    string
}

// Surface is the drawing area: an optional background image plus the strokes drawn
// over it.
type Surface struct {
	mu         sync.RWMutex
	width      int
	height     int
	background image.Image
	imageRect  image.Rectangle
	strokes    []*Stroke
	active     *Stroke
}

func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

// SetBackground scales img to fit inside the surface, centred, preserving its aspect
// ratio. A nil img removes the background.
func (s *Surface) SetBackground(img image.Image) {
	var bg image.Image
	var rect image.Rectangle
	if img != nil {
		bg, rect = fitInto(img, s.width, s.height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = bg
	s.imageRect = rect
}

// ImageRect is the area of the surface covered by the background image. It is empty
// without a background.
func (s *Surface) ImageRect() image.Rectangle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imageRect
}

func (s *Surface) Background() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// BeginStroke starts a stroke at p using brush. Any unfinished stroke is ended first.
func (s *Surface) BeginStroke(p Point, brush Brush) {
	s.mu.Lock()
	defer s.mu.Unlock()

	radius := brush.Radius
	if radius < 1 {
		radius = 1
	}
	st := &Stroke{
		Radius:  radius,
		Pattern: BrushPattern(brush.Start, brush.End, s.width, s.height),
	}
	st.add(s.clamp(p))
	s.strokes = append(s.strokes, st)
	s.active = st
}

// ExtendStroke appends p to the active stroke. It reports false if no stroke is active.
func (s *Surface) ExtendStroke(p Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return false
	}
	s.active.add(s.clamp(p))
	return true
}

func (s *Surface) EndStroke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

func (s *Surface) Drawing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active != nil
}

// Clear removes every stroke. The background is kept.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = nil
	s.active = nil
}

// Reset removes strokes and background.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = nil
	s.active = nil
	s.background = nil
	s.imageRect = image.Rectangle{}
}

func (s *Surface) StrokeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.strokes)
}

// Snapshot renders the strokes alone on a transparent surface.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dc := gg.NewContext(s.width, s.height)
	s.drawStrokes(dc)
	return dc.Image().(*image.RGBA)
}

// Composite renders the background with the strokes on top, as shown on screen.
func (s *Surface) Composite() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dc := gg.NewContext(s.width, s.height)
	dc.SetColor(color.White)
	dc.Clear()
	if s.background != nil {
		dc.DrawImage(s.background, 0, 0)
	}
	s.drawStrokes(dc)
	return dc.Image().(*image.RGBA)
}

func (s *Surface) drawStrokes(dc *gg.Context) {
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, st := range s.strokes {
		if len(st.Points) == 0 {
			continue
		}
		if len(st.Points) == 1 {
			p := st.Points[0]
			dc.SetFillStyle(st.Pattern)
			dc.DrawCircle(p.X, p.Y, st.Radius)
			dc.Fill()
			continue
		}

		dc.SetStrokeStyle(st.Pattern)
		dc.SetLineWidth(st.Radius * 2)
		dc.MoveTo(st.Points[0].X, st.Points[0].Y)
		for _, p := range st.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	}
}

func (s *Surface) clamp(p Point) Point {
	if p.X < 0 {
		p.X = 0
	} else if p.X > float64(s.width) {
		p.X = float64(s.width)
	}
	if p.Y < 0 {
		p.Y = 0
	} else if p.Y > float64(s.height) {
		p.Y = float64(s.height)
	}
	return p
}

// fitInto scales img to fit width×height, centred on a transparent canvas, and
// returns the canvas together with the rectangle the scaled image occupies.
func fitInto(img image.Image, width, height int) (image.Image, image.Rectangle) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return imaging.New(width, height, color.Transparent), image.Rectangle{}
	}

	scale := float64(width) / float64(b.Dx())
	if sy := float64(height) / float64(b.Dy()); sy < scale {
		scale = sy
	}
	w := int(float64(b.Dx())*scale + 0.5)
	h := int(float64(b.Dy())*scale + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	origin := image.Pt((width-w)/2, (height-h)/2)
	scaled := imaging.Resize(img, w, h, imaging.Lanczos)
	canvas := imaging.New(width, height, color.Transparent)
	return imaging.Paste(canvas, scaled, origin), image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
}
