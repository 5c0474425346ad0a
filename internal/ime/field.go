package ime

import (
	"time"

	"imecompose/internal/logging"
)

// Field is the composition state of one text field.
//
// The committed text never contains the preedit. While composing, the
// preedit is only shown to the widget, spliced in at the cursor.
type Field struct {
	identity string

	committed string
	cursor    int // character offset into committed

	preedit string
	// preeditLen is the length of the last preedit. It is only replaced
	// by the next preedit, so every non-empty commit advances by it.
	preeditLen int

	pendingCommit   bool
	suppressAdvance bool // one-shot, set by an empty commit

	focused    bool
	imeEnabled bool

	mode  EditMode
	width float32

	// synced is the text last written back to the caller's buffer.
	synced  string
	touched bool

	style    Style
	log      *logging.Logger
	observer CommitObserver
	now      func() time.Time
}

func newField(text string, style Style, log *logging.Logger, observer CommitObserver) *Field {
	return &Field{
		committed: text,
		cursor:    runeCount(text),
		synced:    text,
		style:     style,
		log:       log,
		observer:  observer,
		now:       time.Now,
	}
}

// Identity returns the widget identifier captured on the last draw.
func (f *Field) Identity() string { return f.identity }

// Text returns the committed text.
func (f *Field) Text() string { return f.committed }

// Cursor returns the caret as a character offset into Text.
func (f *Field) Cursor() int { return f.cursor }

// PreeditText returns the in-progress composition string.
func (f *Field) PreeditText() string { return f.preedit }

// Focused reports the focus state last reported by the widget.
func (f *Field) Focused() bool { return f.focused }

// IMEEnabled reports whether the input method is active for this field.
func (f *Field) IMEEnabled() bool { return f.imeEnabled }

// State reports whether the field is composing.
func (f *Field) State() CompositionState {
	if f.preedit == "" {
		return Idle
	}
	return Composing
}

// HandleEvent applies ev and reports whether it changed the field.
//
// Enabled and Disabled always apply. Preedit and Commit are ignored unless
// the field has focus, so composition never leaks into other fields.
func (f *Field) HandleEvent(ev Event) bool {
	switch e := ev.(type) {
	case Enabled:
		f.imeEnabled = true
		return true
	case Disabled:
		// The input method will not finish a composition it no longer
		// owns, so drop it and hand editing back to the widget.
		f.imeEnabled = false
		f.preedit = ""
		f.preeditLen = 0
		return true
	case Preedit:
		if !f.focused {
			return false
		}
		// An empty preedit clears the composition even without a caret.
		if !e.HasCursor && e.Value != "" {
			return false
		}
		f.preedit = e.Value
		f.preeditLen = runeCount(e.Value)
		return true
	case Commit:
		if !f.focused {
			return false
		}
		f.commit(e.Value)
		return true
	}
	return false
}

func (f *Field) commit(value string) {
	if value == "" {
		f.suppressAdvance = true
	}
	f.committed = spliceRunes(f.committed, f.cursor, value)
	f.pendingCommit = true
	f.preedit = ""

	f.log.Debug("commit applied",
		"identity", f.identity,
		"inserted", runeCount(value),
		"cursor", f.cursor,
		"text", f.committed,
	)
	if f.observer == nil || value == "" {
		return
	}
	rec := CommitRecord{
		Identity: f.identity,
		Value:    value,
		Text:     f.committed,
		Cursor:   f.advanced(),
		Time:     f.now(),
	}
	if err := f.observer.Record(rec); err != nil {
		f.log.Warn("commit observer failed", "identity", f.identity, "error", err)
	}
}

// advanced is the caret position once the pending commit is shown.
func (f *Field) advanced() int {
	if f.suppressAdvance {
		return f.cursor
	}
	return clampCursor(f.committed, f.cursor+f.preeditLen)
}

// SetText replaces the committed text. The cursor is clamped to the new text.
func (f *Field) SetText(text string) {
	f.committed = text
	f.cursor = clampCursor(text, f.cursor)
}

// displayed is the text handed to the widget: the committed text with the
// preedit inserted at the cursor.
func (f *Field) displayed() string {
	if f.preedit == "" {
		return f.committed
	}
	front, back := splitRunes(f.committed, f.cursor)
	return front + f.preedit + back
}

// Layout builds the styled runs for text. While composing, the preedit is
// highlighted between the plain front and back runs.
func (f *Field) Layout(text string, wrapWidth float32) LayoutJob {
	multiline := f.mode == MultiLine
	if f.preedit == "" {
		return simpleJob(text, f.style.plain(), wrapWidth, multiline)
	}
	front, back := splitRunes(f.committed, f.cursor)
	return composedJob(front, f.preedit, back, f.style, wrapWidth, multiline)
}

// show draws the field through ui and reconciles the widget result with the
// composition state. buf is the caller's text buffer.
func (f *Field) show(ui Backend, buf *string) EditOutput {
	// The caller's buffer wins when it was changed outside the widget and
	// nothing is being composed.
	if *buf != f.synced && f.preedit == "" && !f.pendingCommit {
		f.SetText(*buf)
	}

	out := ui.TextEdit(EditRequest{
		Text:     f.displayed(),
		Width:    f.width,
		Mode:     f.mode,
		Layouter: f.Layout,
	})
	f.focused = out.Focused

	// Without an input method the widget edits the text directly.
	if !f.imeEnabled {
		f.committed = out.Text
	}
	if out.Cursor != nil {
		f.cursor = clampCursor(f.committed, out.Cursor.Primary)
	}

	if f.pendingCommit {
		out.Changed = true
		f.pendingCommit = false
		if !f.suppressAdvance {
			// The preedit was shown before the caret; the real caret lands
			// after the inserted text.
			f.cursor = f.advanced()
			out.State.SetCursor(Collapsed(f.cursor))
		}
	}
	f.suppressAdvance = false

	f.identity = out.ID
	ui.StoreState(out.ID, out.State)

	*buf = f.committed
	f.synced = f.committed
	return out
}
