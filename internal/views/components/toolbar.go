package components

import (
	"image/color"
	"strconv"

	"inpaint-masker/internal/render"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// Toolbar holds the upload control, the clear button, the brush size controls and
// the gradient pickers.
type Toolbar struct {
	container      *fyne.Container
	window         fyne.Window
	upload         *UploadControl
	clearButton    *widget.Button
	decreaseButton *widget.Button
	increaseButton *widget.Button
	brushLabel     *widget.Label
	startButton    *widget.Button
	endButton      *widget.Button
	startSwatch    *canvas.Rectangle
	endSwatch      *canvas.Rectangle

	// Event handlers
	clearHandler    func()
	increaseHandler func()
	decreaseHandler func()
	gradientHandler func(start, end string)

	// State
	brushSize     int
	gradientStart string
	gradientEnd   string
}

// NewToolbar creates a new toolbar component
func NewToolbar(window fyne.Window, extensions []string) *Toolbar {
	toolbar := &Toolbar{window: window}
	toolbar.createComponents(extensions)
	toolbar.buildLayout()
	toolbar.setupEventHandlers()
	return toolbar
}

// createComponents initializes all toolbar components
func (t *Toolbar) createComponents(extensions []string) {
	t.upload = NewUploadControl(t.window, extensions)

	t.clearButton = widget.NewButton("Clear Canvas", nil)
	t.clearButton.Importance = widget.MediumImportance

	t.decreaseButton = widget.NewButton("-", nil)
	t.increaseButton = widget.NewButton("+", nil)
	t.brushLabel = widget.NewLabel("")

	t.startButton = widget.NewButton("Gradient Start", nil)
	t.endButton = widget.NewButton("Gradient End", nil)
	t.startSwatch = newSwatch()
	t.endSwatch = newSwatch()
}

func newSwatch() *canvas.Rectangle {
	r := canvas.NewRectangle(color.White)
	r.StrokeColor = color.NRGBA{R: 160, G: 160, B: 160, A: 255}
	r.StrokeWidth = 1
	r.SetMinSize(fyne.NewSize(24, 24))
	return r
}

// buildLayout constructs the toolbar layout
func (t *Toolbar) buildLayout() {
	brushSection := container.NewVBox(
		widget.NewLabel("Brush Size"),
		container.NewHBox(t.decreaseButton, t.brushLabel, t.increaseButton),
	)

	gradientSection := container.NewVBox(
		widget.NewLabel("Brush Gradient"),
		container.NewHBox(
			t.startSwatch, t.startButton,
			widget.NewSeparator(),
			t.endSwatch, t.endButton,
		),
	)

	t.container = container.NewHBox(
		t.upload.GetButton(),
		widget.NewSeparator(),
		t.clearButton,
		widget.NewSeparator(),
		brushSection,
		widget.NewSeparator(),
		gradientSection,
	)
}

// setupEventHandlers connects button events
func (t *Toolbar) setupEventHandlers() {
	t.clearButton.OnTapped = func() {
		if t.clearHandler != nil {
			t.clearHandler()
		}
	}
	t.decreaseButton.OnTapped = func() {
		if t.decreaseHandler != nil {
			t.decreaseHandler()
		}
	}
	t.increaseButton.OnTapped = func() {
		if t.increaseHandler != nil {
			t.increaseHandler()
		}
	}
	t.startButton.OnTapped = func() {
		t.pickColor("Gradient start", t.gradientStart, func(hex string) {
			t.emitGradient(hex, "")
		})
	}
	t.endButton.OnTapped = func() {
		t.pickColor("Gradient end", t.gradientEnd, func(hex string) {
			t.emitGradient("", hex)
		})
	}
}

func (t *Toolbar) pickColor(title, current string, done func(hex string)) {
	picker := dialog.NewColorPicker(title, "Choose a brush colour", func(c color.Color) {
		done(render.Hex(c))
	}, t.window)
	picker.Advanced = true
	if c, err := render.ParseHex(current); err == nil {
		picker.SetColor(c)
	}
	picker.Show()
}

func (t *Toolbar) emitGradient(start, end string) {
	if t.gradientHandler != nil {
		t.gradientHandler(start, end)
	}
}

// Event handler setters

func (t *Toolbar) SetUploadHandler(handler func(fyne.URIReadCloser)) {
	t.upload.SetHandler(handler)
}

func (t *Toolbar) SetClearHandler(handler func()) {
	t.clearHandler = handler
}

func (t *Toolbar) SetIncreaseBrushHandler(handler func()) {
	t.increaseHandler = handler
}

func (t *Toolbar) SetDecreaseBrushHandler(handler func()) {
	t.decreaseHandler = handler
}

func (t *Toolbar) SetGradientHandler(handler func(start, end string)) {
	t.gradientHandler = handler
}

// State management methods

// SetBrushSize updates the displayed brush size
func (t *Toolbar) SetBrushSize(size int) {
	t.brushSize = size
	t.brushLabel.SetText(strconv.Itoa(size))
}

// BrushSize returns the displayed brush size
func (t *Toolbar) BrushSize() int {
	return t.brushSize
}

// SetGradient updates the swatches
func (t *Toolbar) SetGradient(start, end string) {
	t.gradientStart = start
	t.gradientEnd = end
	if c, err := render.ParseHex(start); err == nil {
		t.startSwatch.FillColor = c
		t.startSwatch.Refresh()
	}
	if c, err := render.ParseHex(end); err == nil {
		t.endSwatch.FillColor = c
		t.endSwatch.Refresh()
	}
}

// EnableImageOperations enables/disables image-dependent operations
func (t *Toolbar) EnableImageOperations(enabled bool) {
	if enabled {
		t.clearButton.Enable()
	} else {
		t.clearButton.Disable()
	}
}

// GetContainer returns the toolbar container
func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}
