package views

import (
	"image"

	"inpaint-masker/internal/models"
	"inpaint-masker/internal/render"
	"inpaint-masker/internal/services"
	"inpaint-masker/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// MainView lays out the editor: toolbar, drawing surface, comparison section and
// status bar. It renders EditorState snapshots and forwards user events.
type MainView struct {
	// UI Components
	window        fyne.Window
	mainContainer *fyne.Container
	toolbar       *components.Toolbar
	surface       *components.DrawingSurface
	surfaceBox    *fyne.Container
	imageDisplay  *components.ImageDisplay
	statusBar     *components.StatusBar

	// Event handlers - connected to controller
	downloadHandler func(fyne.URIWriteCloser)
}

// NewMainView creates the main view with a drawing surface of the given pixel size.
func NewMainView(window fyne.Window, surfaceWidth, surfaceHeight int) *MainView {
	view := &MainView{
		window: window,
	}

	view.initializeComponents(surfaceWidth, surfaceHeight)
	view.buildLayout()
	view.setupEventHandlers()

	return view
}

// initializeComponents creates all UI components
func (mv *MainView) initializeComponents(surfaceWidth, surfaceHeight int) {
	mv.toolbar = components.NewToolbar(mv.window, services.SupportedExtensions())
	mv.surface = components.NewDrawingSurface(surfaceWidth, surfaceHeight)
	mv.imageDisplay = components.NewImageDisplay()
	mv.statusBar = components.NewStatusBar()
}

// buildLayout constructs the main layout
func (mv *MainView) buildLayout() {
	mv.surfaceBox = container.NewCenter(mv.surface)
	mv.surfaceBox.Hide()

	contentArea := container.NewVBox(
		mv.surfaceBox,
		mv.imageDisplay.GetContainer(),
	)

	topArea := container.NewVBox(
		widget.NewRichTextFromMarkdown("# Image Inpainting Widget"),
		mv.toolbar.GetContainer(),
		widget.NewSeparator(),
	)

	mv.mainContainer = container.NewBorder(
		topArea,
		mv.statusBar.GetContainer(),
		nil,
		nil,
		container.NewVScroll(contentArea),
	)

	mv.window.SetContent(mv.mainContainer)
}

// setupEventHandlers connects internal component events
func (mv *MainView) setupEventHandlers() {
	mv.imageDisplay.SetDownloadHandler(mv.showDownloadDialog)
}

func (mv *MainView) showDownloadDialog() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mv.ShowError("Download failed", err)
			return
		}
		if writer == nil || mv.downloadHandler == nil {
			if writer != nil {
				writer.Close()
			}
			return
		}
		mv.downloadHandler(writer)
	}, mv.window)
	d.SetFileName(services.MaskDownloadName)
	d.Show()
}

// Event handler setters - called by controller

func (mv *MainView) SetUploadHandler(handler func(fyne.URIReadCloser)) {
	mv.toolbar.SetUploadHandler(handler)
}

func (mv *MainView) SetClearHandler(handler func()) {
	mv.toolbar.SetClearHandler(handler)
}

func (mv *MainView) SetIncreaseBrushHandler(handler func()) {
	mv.toolbar.SetIncreaseBrushHandler(handler)
}

func (mv *MainView) SetDecreaseBrushHandler(handler func()) {
	mv.toolbar.SetDecreaseBrushHandler(handler)
}

func (mv *MainView) SetGradientHandler(handler func(start, end string)) {
	mv.toolbar.SetGradientHandler(handler)
}

func (mv *MainView) SetStrokeHandlers(start func(render.Point), move func(render.Point), end func()) {
	mv.surface.SetStrokeHandlers(start, move, end)
}

func (mv *MainView) SetDownloadHandler(handler func(fyne.URIWriteCloser)) {
	mv.downloadHandler = handler
}

func (mv *MainView) SetInpaintHandler(handler func()) {
	mv.imageDisplay.SetInpaintHandler(handler)
}

// UI update methods - called by controller

// Render brings every component in line with state.
func (mv *MainView) Render(state models.EditorState) {
	fyne.Do(func() {
		mv.toolbar.SetBrushSize(state.BrushSize)
		mv.toolbar.SetGradient(state.Gradient.Start, state.Gradient.End)
		mv.toolbar.EnableImageOperations(state.ShowsSurface())

		if state.ShowsSurface() {
			mv.surfaceBox.Show()
		} else {
			mv.surfaceBox.Hide()
		}

		var original, mask image.Image
		if state.ShowsComparison() {
			original = state.Source.Image
			mask = state.Mask.Image
		}
		mv.imageDisplay.SetImages(original, mask)

		mv.statusBar.SetImageInfo(state.Source)
		mv.statusBar.SetSaveState(state.Save)
	})
}

// RefreshSurface shows a new surface composite.
func (mv *MainView) RefreshSurface(img image.Image) {
	fyne.Do(func() {
		mv.surface.SetImage(img)
	})
}

// SetInpaintPreview shows or hides the inpaint preview.
func (mv *MainView) SetInpaintPreview(img image.Image) {
	fyne.Do(func() {
		mv.imageDisplay.SetPreview(img)
	})
}

// UpdateStatus updates the status bar message
func (mv *MainView) UpdateStatus(status string) {
	fyne.Do(func() {
		mv.statusBar.SetStatus(status)
	})
}

// ShowError displays an error dialog
func (mv *MainView) ShowError(title string, err error) {
	fyne.Do(func() {
		mv.statusBar.SetStatus(title)
		dialog.ShowError(err, mv.window)
	})
}

// ShowConfirm displays a confirmation dialog
func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

// Show displays the view
func (mv *MainView) Show() {
	mv.window.Show()
}

// ViewState is what the user currently sees.
type ViewState struct {
	SurfaceVisible    bool
	ComparisonVisible bool
	DownloadVisible   bool
	PreviewVisible    bool
	BrushSize         int
	StatusMessage     string
	SaveMessage       string
}

// GetViewState returns the current view state
func (mv *MainView) GetViewState() ViewState {
	return ViewState{
		SurfaceVisible:    mv.surfaceBox.Visible(),
		ComparisonVisible: mv.imageDisplay.Visible(),
		DownloadVisible:   mv.imageDisplay.Visible() && mv.imageDisplay.GetDownloadButton().Visible(),
		PreviewVisible:    mv.imageDisplay.HasPreview(),
		BrushSize:         mv.toolbar.BrushSize(),
		StatusMessage:     mv.statusBar.GetStatus(),
		SaveMessage:       mv.statusBar.GetSaveInfo(),
	}
}

// GetSurface returns the drawing surface widget
func (mv *MainView) GetSurface() *components.DrawingSurface {
	return mv.surface
}
