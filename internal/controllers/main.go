package controllers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"inpaint-masker/internal/logger"
	"inpaint-masker/internal/models"
	"inpaint-masker/internal/render"
	"inpaint-masker/internal/services"
	"inpaint-masker/internal/views"

	"fyne.io/fyne/v2"
	"github.com/google/uuid"
)

// MaskSubmitter accepts save requests without blocking.
type MaskSubmitter interface {
	Submit(req services.SaveRequest)
}

// Inpainter renders an inpainting preview of source under mask.
type Inpainter interface {
	Inpaint(ctx context.Context, source, mask image.Image) (image.Image, error)
}

// EditorView is what the controller needs from the main view.
type EditorView interface {
	Render(state models.EditorState)
	RefreshSurface(img image.Image)
	SetInpaintPreview(img image.Image)
	UpdateStatus(status string)
	ShowError(title string, err error)
}

type Options struct {
	LoadTimeout time.Duration
}

// MainController turns view events into store actions and service calls.
type MainController struct {
	store        *models.EditorStore
	imageService *services.ImageService
	saver        MaskSubmitter
	inpainter    Inpainter
	surface      *render.Surface
	logger       logger.Logger

	view        EditorView
	loadTimeout time.Duration
	now         func() time.Time

	// editMu keeps surface changes and the matching store dispatch together
	editMu     sync.Mutex
	mu         sync.Mutex
	loadCancel context.CancelFunc
	wg         sync.WaitGroup
}

func NewMainController(
	store *models.EditorStore,
	imageService *services.ImageService,
	saver MaskSubmitter,
	inpainter Inpainter,
	surface *render.Surface,
	log logger.Logger,
	opts Options,
) *MainController {
	timeout := opts.LoadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &MainController{
		store:        store,
		imageService: imageService,
		saver:        saver,
		inpainter:    inpainter,
		surface:      surface,
		logger:       log,
		loadTimeout:  timeout,
		now:          time.Now,
	}
}

// SetMainView connects the view's events to this controller and keeps the view
// rendering every new state.
func (mc *MainController) SetMainView(view *views.MainView) {
	view.SetUploadHandler(mc.HandleUpload)
	view.SetClearHandler(mc.Clear)
	view.SetIncreaseBrushHandler(mc.IncreaseBrush)
	view.SetDecreaseBrushHandler(mc.DecreaseBrush)
	view.SetGradientHandler(mc.SetGradient)
	view.SetStrokeHandlers(mc.BeginStroke, mc.ExtendStroke, mc.EndStroke)
	view.SetDownloadHandler(mc.HandleDownload)
	view.SetInpaintHandler(mc.HandleInpaint)

	mc.attachView(view)
}

func (mc *MainController) attachView(view EditorView) {
	mc.view = view
	mc.store.Subscribe(func(state models.EditorState, _ models.Action) {
		view.Render(state)
	})
	view.Render(mc.store.State())
}

// HandleUpload loads the chosen file in the background. Failures leave the current
// state untouched, and picking another file cancels a load still in progress.
func (mc *MainController) HandleUpload(reader fyne.URIReadCloser) {
	if reader == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mc.loadTimeout)
	mc.mu.Lock()
	if mc.loadCancel != nil {
		mc.loadCancel()
	}
	mc.loadCancel = cancel
	mc.mu.Unlock()

	mc.wg.Add(1)
	go func() {
		defer mc.wg.Done()
		defer reader.Close()
		defer cancel()

		err := mc.LoadImage(ctx, reader, reader.URI().Name())
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			mc.logger.Debug("MainController", "image load cancelled", map[string]interface{}{
				"name": reader.URI().Name(),
			})
		default:
			mc.handleError("Image load failed", err)
		}
	}()
}

// LoadImage decodes an upload, starts a new session and puts the image on the surface.
// Nothing changes if ctx is done before the image is committed.
func (mc *MainController) LoadImage(ctx context.Context, r io.Reader, name string) error {
	mc.updateStatus("Loading image...")

	img, err := mc.imageService.LoadImage(ctx, r, name)
	if err != nil {
		mc.updateStatus("Ready")
		return err
	}

	sessionID := uuid.New().String()

	mc.editMu.Lock()
	if err := ctx.Err(); err != nil {
		mc.editMu.Unlock()
		return err
	}
	mc.surface.Reset()
	mc.surface.SetBackground(img.Image)
	mc.store.Dispatch(models.UploadImage{SessionID: sessionID, Image: img})
	mc.editMu.Unlock()

	mc.logger.Info("MainController", "image uploaded", map[string]interface{}{
		"session": sessionID,
		"name":    name,
		"width":   img.Width,
		"height":  img.Height,
		"format":  img.Format,
	})

	mc.refreshSurface()
	mc.setInpaintPreview(nil)
	mc.updateStatus(fmt.Sprintf("Loaded %s (%dx%d)", name, img.Width, img.Height))
	return nil
}

// BeginStroke starts a stroke with the current brush. Ignored without an image.
func (mc *MainController) BeginStroke(p render.Point) {
	mc.editMu.Lock()
	defer mc.editMu.Unlock()

	state := mc.store.State()
	if !state.ShowsSurface() {
		return
	}

	mc.surface.BeginStroke(p, render.Brush{
		Radius: float64(state.BrushSize),
		Start:  state.Gradient.Start,
		End:    state.Gradient.End,
	})
	mc.maskChanged()
}

// ExtendStroke continues the active stroke; each call is one drawing change.
func (mc *MainController) ExtendStroke(p render.Point) {
	mc.editMu.Lock()
	defer mc.editMu.Unlock()

	if !mc.surface.ExtendStroke(p) {
		return
	}
	mc.maskChanged()
}

func (mc *MainController) EndStroke() {
	mc.surface.EndStroke()
}

// maskChanged snapshots the surface, stores it as the mask and submits exactly one
// save request for it. Callers hold editMu.
func (mc *MainController) maskChanged() {
	at := mc.now()

	mask, err := mc.imageService.EncodeMask(mc.surface.Snapshot())
	if err != nil {
		mc.handleError("Mask update failed", err)
		return
	}

	state := mc.store.Dispatch(models.StrokeChanged{Mask: mask, At: at})
	mc.refreshSurface()

	req := services.SaveRequest{
		SessionID: state.SessionID,
		Filename:  services.MaskFilename(at),
		MaskData:  mask.DataURL,
		CreatedAt: at,
	}
	mc.store.Dispatch(models.SaveStatusChanged{State: models.SaveState{
		Status:   models.SavePending,
		Filename: req.Filename,
		At:       at,
	}})
	mc.saver.Submit(req)
}

// HandleSaveResult records the outcome of a save for the current session.
func (mc *MainController) HandleSaveResult(result services.SaveResult) {
	state := mc.store.State()
	if result.Request.SessionID != state.SessionID {
		mc.logger.Debug("MainController", "save result for a previous session", map[string]interface{}{
			"session":  result.Request.SessionID,
			"filename": result.Request.Filename,
			"status":   result.Status.String(),
		})
		return
	}

	if result.Status == models.SaveSuperseded {
		return
	}

	save := models.SaveState{
		Status:   result.Status,
		Filename: result.Request.Filename,
		At:       mc.now(),
	}
	switch result.Status {
	case models.SaveSucceeded:
		save.Message = "Mask saved as " + result.Request.Filename
	case models.SaveFailed:
		save.Message = "Mask save failed"
		if result.Err != nil {
			save.Message += ": " + result.Err.Error()
		}
	}
	mc.store.Dispatch(models.SaveStatusChanged{State: save})
}

// Clear wipes the strokes and the mask; the source image stays.
func (mc *MainController) Clear() {
	mc.editMu.Lock()
	mc.surface.Clear()
	mc.store.Dispatch(models.Clear{})
	mc.editMu.Unlock()
	mc.refreshSurface()
	mc.setInpaintPreview(nil)
	mc.updateStatus("Canvas cleared")
}

func (mc *MainController) IncreaseBrush() {
	mc.store.Dispatch(models.IncreaseBrush{})
}

func (mc *MainController) DecreaseBrush() {
	mc.store.Dispatch(models.DecreaseBrush{})
}

// SetGradient changes the brush gradient for subsequent strokes. Empty values keep
// the current stop.
func (mc *MainController) SetGradient(start, end string) {
	for _, c := range []string{start, end} {
		if c == "" {
			continue
		}
		if _, err := render.ParseHex(c); err != nil {
			mc.handleError("Invalid colour", err)
			return
		}
	}
	mc.store.Dispatch(models.SetGradient{Colors: models.GradientColors{Start: start, End: end}})
}

// HandleDownload writes the mask to the writer picked in the save dialog.
func (mc *MainController) HandleDownload(writer fyne.URIWriteCloser) {
	if writer == nil {
		return
	}
	if err := mc.DownloadMask(writer); err != nil {
		mc.handleError("Download failed", err)
		return
	}
	mc.updateStatus("Mask downloaded to " + writer.URI().Name())
}

// DownloadMask writes the current mask's PNG bytes to w and closes it.
func (mc *MainController) DownloadMask(w io.WriteCloser) error {
	err := mc.imageService.WriteMask(w, mc.store.State().Mask)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close download: %w", cerr)
	}
	return err
}

// HandleInpaint renders the inpaint preview in the background.
func (mc *MainController) HandleInpaint() {
	mc.wg.Add(1)
	go func() {
		defer mc.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		mc.updateStatus("Rendering inpaint preview...")
		img, err := mc.RenderInpaintPreview(ctx)
		if err != nil {
			mc.handleError("Inpaint preview failed", err)
			mc.updateStatus("Ready")
			return
		}
		mc.setInpaintPreview(img)
		mc.updateStatus("Inpaint preview ready")
	}()
}

// RenderInpaintPreview inpaints the source under the current mask.
func (mc *MainController) RenderInpaintPreview(ctx context.Context) (image.Image, error) {
	if mc.inpainter == nil {
		return nil, errors.New("inpainting is not available")
	}

	state := mc.store.State()
	if !state.Source.Present() {
		return nil, models.ErrNoImage
	}
	if !state.Mask.Present() {
		return nil, services.ErrNoMask
	}

	// the mask covers the whole surface; only the part over the letterboxed image
	// corresponds to source pixels
	mask := render.CropToImage(state.Mask.Image, mc.surface.ImageRect())
	return mc.inpainter.Inpaint(ctx, state.Source.Image, mask)
}

func (mc *MainController) refreshSurface() {
	if mc.view != nil {
		mc.view.RefreshSurface(mc.surface.Composite())
	}
}

func (mc *MainController) setInpaintPreview(img image.Image) {
	if mc.view != nil {
		mc.view.SetInpaintPreview(img)
	}
}

func (mc *MainController) updateStatus(status string) {
	if mc.view != nil {
		mc.view.UpdateStatus(status)
	}
}

// handleError logs err and shows it to the user.
func (mc *MainController) handleError(title string, err error) {
	mc.logger.Error("MainController", title, err, map[string]interface{}{
		"context": title,
	})
	if mc.view != nil {
		mc.view.ShowError(title, err)
	}
}

// Shutdown cancels a pending upload and waits for background work.
func (mc *MainController) Shutdown() {
	mc.mu.Lock()
	if mc.loadCancel != nil {
		mc.loadCancel()
	}
	mc.mu.Unlock()

	mc.wg.Wait()
}
