package controllers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"inpaint-masker/internal/logger"
	"inpaint-masker/internal/models"
	"inpaint-masker/internal/render"
	"inpaint-masker/internal/services"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu       sync.Mutex
	requests []services.SaveRequest
}

func (r *recordingSubmitter) Submit(req services.SaveRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recordingSubmitter) Requests() []services.SaveRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]services.SaveRequest(nil), r.requests...)
}

type fakeView struct {
	mu      sync.Mutex
	states  []models.EditorState
	surface image.Image
	preview image.Image
	status  string
	errs    []error
}

func (v *fakeView) Render(state models.EditorState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states = append(v.states, state)
}

func (v *fakeView) RefreshSurface(img image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.surface = img
}

func (v *fakeView) SetInpaintPreview(img image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.preview = img
}

func (v *fakeView) UpdateStatus(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

func (v *fakeView) ShowError(title string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

func (v *fakeView) errCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.errs)
}

func (v *fakeView) last() models.EditorState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.states[len(v.states)-1]
}

type fakeInpainter struct {
	calls int
	mask  image.Image
	err   error
}

func (f *fakeInpainter) Inpaint(ctx context.Context, source, mask image.Image) (image.Image, error) {
	f.calls++
	f.mask = mask
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(source.Bounds()), nil
}

// gatedFile is an upload whose reads block until gate is closed.
type gatedFile struct {
	gate chan struct{}
	r    io.Reader
	name string
}

func (f *gatedFile) Read(p []byte) (int, error) {
	<-f.gate
	return f.r.Read(p)
}

func (f *gatedFile) Close() error  { return nil }
func (f *gatedFile) URI() fyne.URI { return storage.NewFileURI("/tmp/" + f.name) }

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

type harness struct {
	mc        *MainController
	store     *models.EditorStore
	surface   *render.Surface
	saver     *recordingSubmitter
	view      *fakeView
	inpainter *fakeInpainter
	clock     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:     models.NewEditorStore(logger.NewNop()),
		surface:   render.NewSurface(500, 500),
		saver:     &recordingSubmitter{},
		view:      &fakeView{},
		inpainter: &fakeInpainter{},
		clock:     time.UnixMilli(1700000000000),
	}
	log := logger.NewNop()
	h.mc = NewMainController(h.store, services.NewImageService(log), h.saver, h.inpainter, h.surface, log, Options{})
	h.mc.now = func() time.Time {
		h.clock = h.clock.Add(time.Millisecond)
		return h.clock
	}
	h.mc.attachView(h.view)
	return h
}

func pngBytes(t *testing.T, w, hgt int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for y := 0; y < hgt; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (h *harness) upload(t *testing.T) {
	t.Helper()
	require.NoError(t, h.mc.LoadImage(context.Background(), bytes.NewReader(pngBytes(t, 100, 100)), "photo.png"))
}

func TestUploadStrokeClearScenario(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, models.PhaseEmpty, h.view.last().Phase())

	h.upload(t)
	state := h.view.last()
	assert.Equal(t, models.PhaseImage, state.Phase())
	assert.True(t, state.ShowsSurface())
	assert.False(t, state.ShowsComparison())
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, image.Rect(0, 0, 500, 500), h.surface.Background().Bounds())

	h.mc.BeginStroke(render.Point{X: 100, Y: 100})
	h.mc.ExtendStroke(render.Point{X: 200, Y: 200})
	h.mc.EndStroke()

	state = h.view.last()
	assert.Equal(t, models.PhaseMasked, state.Phase())
	assert.True(t, state.ShowsComparison())
	require.True(t, state.Mask.Present())

	reqs := h.saver.Requests()
	require.Len(t, reqs, 2)
	last := reqs[len(reqs)-1]
	assert.Equal(t, state.SessionID, last.SessionID)
	assert.Equal(t, state.Mask.DataURL, last.MaskData)
	assert.True(t, strings.HasPrefix(last.MaskData, "data:image/png;base64,"))
	assert.Equal(t, services.MaskFilename(last.CreatedAt), last.Filename)
	assert.Equal(t, models.SavePending, state.Save.Status)

	h.mc.Clear()
	state = h.view.last()
	assert.Nil(t, state.Mask)
	assert.True(t, state.Source.Present())
	assert.False(t, state.ShowsComparison())
	assert.Equal(t, 0, h.surface.StrokeCount())
	assert.NotNil(t, h.surface.Background())
}

func TestEveryChangeSubmitsOneRequest(t *testing.T) {
	h := newHarness(t)
	h.upload(t)

	h.mc.BeginStroke(render.Point{X: 10, Y: 10})
	for i := 1; i <= 9; i++ {
		h.mc.ExtendStroke(render.Point{X: 10 + float64(i)*5, Y: 10})
	}
	h.mc.EndStroke()

	reqs := h.saver.Requests()
	require.Len(t, reqs, 10)

	seen := make(map[string]bool)
	for _, req := range reqs {
		assert.Contains(t, req.Filename, "mask_")
		assert.NotEmpty(t, req.MaskData)
		assert.False(t, seen[req.Filename], "duplicate filename %s", req.Filename)
		seen[req.Filename] = true
	}
	assert.Equal(t, h.store.State().Mask.DataURL, reqs[len(reqs)-1].MaskData)
}

func TestStrokeWithoutImageIsIgnored(t *testing.T) {
	h := newHarness(t)

	h.mc.BeginStroke(render.Point{X: 10, Y: 10})
	h.mc.ExtendStroke(render.Point{X: 20, Y: 20})
	h.mc.EndStroke()

	assert.Empty(t, h.saver.Requests())
	assert.Equal(t, 0, h.surface.StrokeCount())
	assert.Equal(t, models.PhaseEmpty, h.store.State().Phase())
}

func TestStrokeUsesCurrentBrush(t *testing.T) {
	h := newHarness(t)
	h.upload(t)

	h.mc.IncreaseBrush()
	h.mc.IncreaseBrush()
	h.mc.SetGradient("#ff0000", "#0000ff")
	assert.Equal(t, 7, h.store.State().BrushSize)

	h.mc.BeginStroke(render.Point{X: 250, Y: 250})
	h.mc.EndStroke()

	snap := h.surface.Snapshot()
	assert.NotZero(t, snap.RGBAAt(256, 250).A)
	assert.Zero(t, snap.RGBAAt(260, 250).A)
}

func TestUploadFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.upload(t)
	before := h.store.State()

	err := h.mc.LoadImage(context.Background(), strings.NewReader("not an image"), "notes.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrUnsupportedFormat))
	assert.Equal(t, before.Revision, h.store.State().Revision)
	assert.Equal(t, before.SessionID, h.store.State().SessionID)
}

func TestNewUploadStartsNewSession(t *testing.T) {
	h := newHarness(t)
	h.upload(t)
	h.mc.BeginStroke(render.Point{X: 10, Y: 10})
	h.mc.EndStroke()
	first := h.store.State().SessionID

	h.upload(t)
	state := h.store.State()
	assert.NotEqual(t, first, state.SessionID)
	assert.Nil(t, state.Mask)
	assert.Equal(t, 0, h.surface.StrokeCount())
}

func TestDownloadWritesSnapshotBytes(t *testing.T) {
	h := newHarness(t)

	var empty bufferCloser
	assert.ErrorIs(t, h.mc.DownloadMask(&empty), services.ErrNoMask)
	assert.True(t, empty.closed)

	h.upload(t)
	h.mc.BeginStroke(render.Point{X: 50, Y: 50})
	h.mc.ExtendStroke(render.Point{X: 300, Y: 120})
	h.mc.EndStroke()

	var out bufferCloser
	require.NoError(t, h.mc.DownloadMask(&out))
	assert.True(t, out.closed)

	want, err := services.DecodeDataURL(h.store.State().Mask.DataURL)
	require.NoError(t, err)
	assert.Equal(t, want, out.Bytes())

	decoded, err := png.Decode(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 500, 500), decoded.Bounds())
}

func TestSetGradientRejectsInvalidColour(t *testing.T) {
	h := newHarness(t)

	h.mc.SetGradient("#ff0000", "")
	assert.Equal(t, models.GradientColors{Start: "#ff0000", End: "#ffffff"}, h.store.State().Gradient)

	h.mc.SetGradient("", "purple")
	assert.Equal(t, models.GradientColors{Start: "#ff0000", End: "#ffffff"}, h.store.State().Gradient)
	assert.Len(t, h.view.errs, 1)
}

func TestHandleSaveResult(t *testing.T) {
	h := newHarness(t)
	h.upload(t)
	h.mc.BeginStroke(render.Point{X: 10, Y: 10})
	h.mc.EndStroke()

	req := h.saver.Requests()[0]

	h.mc.HandleSaveResult(services.SaveResult{Request: req, Status: models.SaveSuperseded})
	assert.Equal(t, models.SavePending, h.store.State().Save.Status)

	stale := req
	stale.SessionID = "previous"
	h.mc.HandleSaveResult(services.SaveResult{Request: stale, Status: models.SaveFailed, Err: errors.New("boom")})
	assert.Equal(t, models.SavePending, h.store.State().Save.Status)

	h.mc.HandleSaveResult(services.SaveResult{Request: req, Status: models.SaveFailed, Err: errors.New("connection refused")})
	save := h.store.State().Save
	assert.Equal(t, models.SaveFailed, save.Status)
	assert.Contains(t, save.Message, "connection refused")

	h.mc.HandleSaveResult(services.SaveResult{Request: req, Status: models.SaveSucceeded})
	save = h.store.State().Save
	assert.Equal(t, models.SaveSucceeded, save.Status)
	assert.Equal(t, req.Filename, save.Filename)
}

func TestRenderInpaintPreview(t *testing.T) {
	h := newHarness(t)

	_, err := h.mc.RenderInpaintPreview(context.Background())
	assert.ErrorIs(t, err, models.ErrNoImage)

	h.upload(t)
	_, err = h.mc.RenderInpaintPreview(context.Background())
	assert.ErrorIs(t, err, services.ErrNoMask)

	h.mc.BeginStroke(render.Point{X: 10, Y: 10})
	h.mc.EndStroke()

	img, err := h.mc.RenderInpaintPreview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
	assert.Equal(t, 1, h.inpainter.calls)

	h.inpainter.err = errors.New("opencv unavailable")
	_, err = h.mc.RenderInpaintPreview(context.Background())
	assert.Error(t, err)
}

func TestLaterUploadWinsOverSlowerEarlierOne(t *testing.T) {
	h := newHarness(t)

	slow := &gatedFile{gate: make(chan struct{}), r: bytes.NewReader(pngBytes(t, 100, 100)), name: "slow.png"}
	ready := make(chan struct{})
	close(ready)
	fast := &gatedFile{gate: ready, r: bytes.NewReader(pngBytes(t, 50, 50)), name: "fast.png"}

	h.mc.HandleUpload(slow)
	h.mc.HandleUpload(fast)

	require.Eventually(t, func() bool {
		src := h.store.State().Source
		return src.Present() && src.Width == 50
	}, 2*time.Second, 5*time.Millisecond)
	session := h.store.State().SessionID

	close(slow.gate)
	h.mc.Shutdown()

	state := h.store.State()
	assert.Equal(t, 50, state.Source.Width)
	assert.Equal(t, session, state.SessionID)
	assert.Equal(t, "fast.png", state.Source.Name)
	assert.Zero(t, h.view.errCount(), "a superseded load is not an error")
}

func TestCancelledLoadDoesNotCommit(t *testing.T) {
	h := newHarness(t)
	h.upload(t)
	before := h.store.State()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.mc.LoadImage(ctx, bytes.NewReader(pngBytes(t, 30, 30)), "late.png")
	assert.ErrorIs(t, err, context.Canceled)

	after := h.store.State()
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, before.SessionID, after.SessionID)
	assert.Equal(t, image.Rect(0, 0, 500, 500), h.surface.ImageRect())
}

func TestInpaintMaskFollowsLetterboxedImage(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mc.LoadImage(context.Background(), bytes.NewReader(pngBytes(t, 200, 100)), "wide.png"))
	assert.Equal(t, image.Rect(0, 125, 500, 375), h.surface.ImageRect())

	// surface (250,150) lies over source pixel (100,10)
	h.mc.BeginStroke(render.Point{X: 250, Y: 150})
	h.mc.EndStroke()

	_, err := h.mc.RenderInpaintPreview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, h.inpainter.mask)
	assert.Equal(t, image.Rect(0, 0, 500, 250), h.inpainter.mask.Bounds())

	m := render.AlphaMask(h.inpainter.mask, 200, 100)
	assert.Equal(t, uint8(255), m.GrayAt(100, 10).Y)
	assert.Equal(t, uint8(0), m.GrayAt(100, 30).Y)
}
