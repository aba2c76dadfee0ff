package components

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 300
	ImageAreaHeight = 300
)

// ImageDisplay shows the original image next to the mask, the download button and
// the optional inpaint preview.
type ImageDisplay struct {
	container      *fyne.Container
	originalImage  *canvas.Image
	maskImage      *canvas.Image
	previewImage   *canvas.Image
	previewBox     *fyne.Container
	downloadButton *widget.Button
	inpaintButton  *widget.Button

	downloadHandler func()
	inpaintHandler  func()

	// State
	hasOriginal bool
	hasMask     bool
	hasPreview  bool
}

// NewImageDisplay creates a new image display component
func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{}
	display.createComponents()
	display.setupLayout()
	return display
}

func newImageCanvas() *canvas.Image {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	return img
}

// createComponents initializes the image display components
func (id *ImageDisplay) createComponents() {
	id.originalImage = newImageCanvas()
	id.maskImage = newImageCanvas()
	id.previewImage = newImageCanvas()

	id.downloadButton = widget.NewButton("Download Mask Image", func() {
		if id.downloadHandler != nil {
			id.downloadHandler()
		}
	})
	id.downloadButton.Importance = widget.HighImportance

	id.inpaintButton = widget.NewButton("Inpaint Preview", func() {
		if id.inpaintHandler != nil {
			id.inpaintHandler()
		}
	})
}

func labelled(title string, img *canvas.Image) *fyne.Container {
	return container.NewBorder(
		widget.NewRichTextFromMarkdown("#### "+title),
		nil, nil, nil,
		container.NewStack(
			canvas.NewRectangle(color.NRGBA{R: 60, G: 60, B: 60, A: 255}),
			img,
		),
	)
}

// setupLayout builds the pair plus the action row
func (id *ImageDisplay) setupLayout() {
	id.previewBox = labelled("Inpaint Preview", id.previewImage)
	id.previewBox.Hide()

	pair := container.NewHBox(
		labelled("Original Image", id.originalImage),
		labelled("Mask Image", id.maskImage),
		id.previewBox,
	)

	id.container = container.NewVBox(
		widget.NewRichTextFromMarkdown("## Images"),
		pair,
		container.NewHBox(id.downloadButton, id.inpaintButton),
	)
	id.container.Hide()
}

// SetDownloadHandler sets the handler for the download button
func (id *ImageDisplay) SetDownloadHandler(handler func()) {
	id.downloadHandler = handler
}

// SetInpaintHandler sets the handler for the inpaint preview button
func (id *ImageDisplay) SetInpaintHandler(handler func()) {
	id.inpaintHandler = handler
}

// SetImages updates both sides of the comparison. The section is visible only
// while both images are present.
func (id *ImageDisplay) SetImages(original, mask image.Image) {
	id.hasOriginal = original != nil
	id.hasMask = mask != nil

	if original != nil {
		id.originalImage.Image = original
		id.originalImage.Refresh()
	}
	if mask != nil {
		id.maskImage.Image = mask
		id.maskImage.Refresh()
	}

	if id.hasOriginal && id.hasMask {
		id.container.Show()
	} else {
		id.container.Hide()
		id.SetPreview(nil)
	}
}

// SetPreview shows or hides the inpaint preview
func (id *ImageDisplay) SetPreview(img image.Image) {
	id.hasPreview = img != nil
	if img == nil {
		id.previewBox.Hide()
		return
	}
	id.previewImage.Image = img
	id.previewImage.Refresh()
	id.previewBox.Show()
}

// Visible reports whether the comparison section is shown
func (id *ImageDisplay) Visible() bool {
	return id.container.Visible()
}

// HasPreview reports whether an inpaint preview is shown
func (id *ImageDisplay) HasPreview() bool {
	return id.hasPreview
}

// GetDownloadButton returns the download button
func (id *ImageDisplay) GetDownloadButton() *widget.Button {
	return id.downloadButton
}

// GetContainer returns the main container
func (id *ImageDisplay) GetContainer() *fyne.Container {
	return id.container
}
