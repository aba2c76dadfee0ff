package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// UploadControl is a button opening a PNG/JPEG file picker. It keeps no state; the
// chosen reader goes straight to the handler.
type UploadControl struct {
	button     *widget.Button
	window     fyne.Window
	extensions []string
	handler    func(fyne.URIReadCloser)
}

func NewUploadControl(window fyne.Window, extensions []string) *UploadControl {
	u := &UploadControl{window: window, extensions: extensions}
	u.button = widget.NewButton("Choose Image", u.open)
	u.button.Importance = widget.HighImportance
	return u
}

// SetHandler sets the callback receiving the chosen file.
func (u *UploadControl) SetHandler(handler func(fyne.URIReadCloser)) {
	u.handler = handler
}

func (u *UploadControl) open() {
	d := dialog.NewFileOpen(u.onChosen, u.window)
	d.SetFilter(storage.NewExtensionFileFilter(u.extensions))
	d.Show()
}

// onChosen forwards a picked file. Cancelling the dialog yields a nil reader and
// nothing is reported.
func (u *UploadControl) onChosen(reader fyne.URIReadCloser, err error) {
	if err != nil {
		if u.window != nil {
			dialog.ShowError(err, u.window)
		}
		return
	}
	if reader == nil || u.handler == nil {
		if reader != nil {
			reader.Close()
		}
		return
	}
	u.handler(reader)
}

// GetButton returns the upload button
func (u *UploadControl) GetButton() *widget.Button {
	return u.button
}
