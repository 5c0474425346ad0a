package ime

import (
	"image"
	"time"
)

// EditMode selects single-line or wrapping multi-line editing.
type EditMode int

const (
	SingleLine EditMode = iota
	MultiLine
)

func (m EditMode) String() string {
	if m == MultiLine {
		return "multiline"
	}
	return "singleline"
}

// Layouter turns the text shown by a widget into styled runs.
// It is called by the backend with the widget's wrap width.
type Layouter func(text string, wrapWidth float32) LayoutJob

// EditRequest is what a field asks the GUI text-edit widget to draw.
type EditRequest struct {
	Text     string
	Width    float32
	Mode     EditMode
	Layouter Layouter
}

// CursorRange is a selection in character offsets.
// Primary is the caret; Secondary is the selection anchor.
type CursorRange struct {
	Primary   int
	Secondary int
}

// Collapsed returns a range with both ends at pos.
func Collapsed(pos int) CursorRange {
	return CursorRange{Primary: pos, Secondary: pos}
}

// EditState is the widget's retained per-field state.
//
// Backends may carry their own undo or scroll data in Extra; the core only
// reads and overrides the cursor.
type EditState struct {
	Cursor *CursorRange
	Extra  any
}

// SetCursor overrides the retained cursor range.
func (s *EditState) SetCursor(r CursorRange) {
	s.Cursor = &r
}

// EditOutput is what the widget reports after drawing.
type EditOutput struct {
	// ID is the widget's own identifier for this draw call. It keys the
	// retained state store and becomes the field identity.
	ID string

	// Text is the widget's edited copy of the request text.
	Text string

	Focused bool
	Changed bool

	// Cursor is nil when the widget has no caret this frame.
	Cursor *CursorRange

	State EditState
}

// Backend is the immediate-mode GUI text-edit widget plus its retained
// state store.
type Backend interface {
	// TextEdit draws a text-edit widget for req and reports the result.
	TextEdit(req EditRequest) EditOutput

	// StoreState persists st as the retained state of widget id.
	StoreState(id string, st EditState)
}

// EditOutcome is returned to callers of Registry.Edit.
type EditOutcome struct {
	EditOutput

	// Identity can be passed to Registry.SetText to replace the field text
	// between frames.
	Identity string
}

// CandidateWindow receives the screen position the input method should
// place its candidate window at.
type CandidateWindow interface {
	SetIMEPosition(p image.Point)
}

// CommitRecord describes one commit spliced into a field.
type CommitRecord struct {
	Identity string
	Value    string
	Text     string
	Cursor   int
	Time     time.Time
}

// CommitObserver is notified about every applied commit.
type CommitObserver interface {
	Record(rec CommitRecord) error
}

// CommitObserverFunc adapts a function to CommitObserver.
type CommitObserverFunc func(rec CommitRecord) error

func (f CommitObserverFunc) Record(rec CommitRecord) error { return f(rec) }
