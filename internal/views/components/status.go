package components

import (
	"fmt"

	"inpaint-masker/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar displays application status and information
type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	imageInfo   *widget.Label
	saveInfo    *widget.Label
}

// NewStatusBar creates a new status bar component
func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel("Ready")
	sb.imageInfo = widget.NewLabel("No image loaded")
	sb.saveInfo = widget.NewLabel("Save: --")
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewHBox(
		sb.statusLabel,
		widget.NewSeparator(),
		sb.imageInfo,
		widget.NewSeparator(),
		sb.saveInfo,
	)
}

// SetStatus updates the main status message
func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

// GetStatus returns the current status message
func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetImageInfo updates the image information display
func (sb *StatusBar) SetImageInfo(img *models.ImageData) {
	if !img.Present() {
		sb.imageInfo.SetText("No image loaded")
		return
	}
	sb.imageInfo.SetText(fmt.Sprintf("Image: %dx%d %s", img.Width, img.Height, img.Format))
}

// SetSaveState shows the latest save outcome
func (sb *StatusBar) SetSaveState(save models.SaveState) {
	switch save.Status {
	case models.SaveIdle:
		sb.saveInfo.SetText("Save: --")
	case models.SavePending:
		sb.saveInfo.SetText("Saving " + save.Filename + "...")
	default:
		if save.Message != "" {
			sb.saveInfo.SetText(save.Message)
		} else {
			sb.saveInfo.SetText("Save: " + save.Status.String())
		}
	}
}

// GetSaveInfo returns the save message shown
func (sb *StatusBar) GetSaveInfo() string {
	return sb.saveInfo.Text
}

// GetContainer returns the status bar container
func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}
