package models

import (
	"errors"
	"time"
)

const (
	MinBrushSize     = 1
	MaxBrushSize     = 20
	DefaultBrushSize = 5

	DefaultGradientColor = "#ffffff"
)

var ErrNoImage = errors.New("no image loaded")

// Phase is the observable stage of an editing session.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseImage
	PhaseMasked
)

func (p Phase) String() string {
	switch p {
	case PhaseImage:
		return "image"
	case PhaseMasked:
		return "masked"
	default:
		return "empty"
	}
}

// GradientColors are the two stops of the brush gradient, as hex strings.
type GradientColors struct {
	Start string
	End   string
}

func DefaultGradient() GradientColors {
	return GradientColors{Start: DefaultGradientColor, End: DefaultGradientColor}
}

type SaveStatus int

const (
	SaveIdle SaveStatus = iota
	SavePending
	SaveSucceeded
	SaveFailed
	SaveSuperseded
)

func (s SaveStatus) String() string {
	switch s {
	case SavePending:
		return "pending"
	case SaveSucceeded:
		return "saved"
	case SaveFailed:
		return "failed"
	case SaveSuperseded:
		return "superseded"
	default:
		return "idle"
	}
}

// SaveState is the last save outcome shown to the user.
type SaveState struct {
	Status   SaveStatus
	Filename string
	Message  string
	At       time.Time
}

// EditorState is the whole editing session. Values are snapshots; Reduce never
// mutates its input.
type EditorState struct {
	SessionID string
	Source    *ImageData
	Mask      *ImageData
	BrushSize int
	Gradient  GradientColors
	Save      SaveState
	Revision  uint64
}

// NewEditorState returns the state of a fresh editor with no image.
func NewEditorState() EditorState {
	return EditorState{
		BrushSize: DefaultBrushSize,
		Gradient:  DefaultGradient(),
	}
}

func (s EditorState) Phase() Phase {
	switch {
	case !s.Source.Present():
		return PhaseEmpty
	case !s.Mask.Present():
		return PhaseImage
	default:
		return PhaseMasked
	}
}

// ShowsSurface reports whether the drawing surface is rendered.
func (s EditorState) ShowsSurface() bool {
	return s.Source.Present()
}

// ShowsComparison reports whether the original/mask pair and the download
// control are rendered.
func (s EditorState) ShowsComparison() bool {
	return s.Source.Present() && s.Mask.Present()
}

// Action is a state transition request handled by Reduce.
type Action interface {
	actionName() string
}

type UploadImage struct {
	SessionID string
	Image     *ImageData
}

type StrokeChanged struct {
	Mask *ImageData
	At   time.Time
}

type Clear struct{}

type IncreaseBrush struct{}

type DecreaseBrush struct{}

type SetBrushSize struct {
	Size int
}

type SetGradient struct {
	Colors GradientColors
}

type SaveStatusChanged struct {
	State SaveState
}

func (UploadImage) actionName() string       { return "upload_image" }
func (StrokeChanged) actionName() string     { return "stroke_changed" }
func (Clear) actionName() string             { return "clear" }
func (IncreaseBrush) actionName() string     { return "increase_brush" }
func (DecreaseBrush) actionName() string     { return "decrease_brush" }
func (SetBrushSize) actionName() string      { return "set_brush_size" }
func (SetGradient) actionName() string       { return "set_gradient" }
func (SaveStatusChanged) actionName() string { return "save_status_changed" }

// ActionName returns the stable name of a, as logged by EditorStore.
func ActionName(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.actionName()
}

// ClampBrushSize forces size into [MinBrushSize, MaxBrushSize].
func ClampBrushSize(size int) int {
	if size < MinBrushSize {
		return MinBrushSize
	}
	if size > MaxBrushSize {
		return MaxBrushSize
	}
	return size
}

// resizeBrush leaves state untouched when the clamped size is already current.
func resizeBrush(state EditorState, size int) EditorState {
	size = ClampBrushSize(size)
	if size == state.BrushSize {
		return state
	}
	state.BrushSize = size
	state.Revision++
	return state
}

// Reduce applies action to state and returns the next state. Actions that do not
// apply in the current phase return state unchanged.
func Reduce(state EditorState, action Action) EditorState {
	next := state

	switch a := action.(type) {
	case UploadImage:
		if !a.Image.Present() {
			return state
		}
		next.SessionID = a.SessionID
		next.Source = a.Image
		next.Mask = nil
		next.Save = SaveState{}
	case StrokeChanged:
		if !state.Source.Present() || !a.Mask.Present() {
			return state
		}
		next.Mask = a.Mask
	case Clear:
		next.Mask = nil
	case IncreaseBrush:
		return resizeBrush(state, state.BrushSize+1)
	case DecreaseBrush:
		return resizeBrush(state, state.BrushSize-1)
	case SetBrushSize:
		return resizeBrush(state, a.Size)
	case SetGradient:
		colors := a.Colors
		if colors.Start == "" {
			colors.Start = state.Gradient.Start
		}
		if colors.End == "" {
			colors.End = state.Gradient.End
		}
		next.Gradient = colors
	case SaveStatusChanged:
		next.Save = a.State
	default:
		return state
	}

	next.Revision = state.Revision + 1
	return next
}
