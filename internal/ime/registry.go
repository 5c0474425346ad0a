package ime

import (
	"image"

	"imecompose/internal/logging"
)

// Registry multiplexes composition state across the text fields drawn in a
// frame.
//
// Immediate-mode fields have no identity before their first draw, so slots
// are assigned by draw order: the n-th Edit call of a frame uses the n-th
// slot. Slots not used during a frame are dropped by EndFrame.
//
// A Registry is owned by the GUI thread and is not safe for concurrent use.
type Registry struct {
	slots []*Field
	count int

	style    Style
	log      *logging.Logger
	observer CommitObserver
}

// Option configures a Registry.
type Option func(*Registry)

// WithStyle sets the layout colors.
func WithStyle(s Style) Option {
	return func(r *Registry) { r.style = s }
}

// WithLogger sets the logger used for slot lifecycle and commit messages.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithObserver registers an observer for applied commits.
func WithObserver(o CommitObserver) Option {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{style: DefaultStyle()}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logging.Default().WithComponent("ime")
	}
	return r
}

// BeginFrame marks every slot unused and restarts slot assignment.
// It must run before events are dispatched and fields drawn.
func (r *Registry) BeginFrame() {
	for _, f := range r.slots {
		f.touched = false
	}
	r.count = 0
}

// Dispatch forwards ev to every tracked field. Only the focused field
// reacts to preedit and commit events.
func (r *Registry) Dispatch(ev Event) {
	if ev == nil {
		return
	}
	applied := 0
	for _, f := range r.slots {
		if f.HandleEvent(ev) {
			applied++
		}
	}
	r.log.Debug("event dispatched", "event", ev.String(), "fields", len(r.slots), "applied", applied)
}

// Edit draws the next field of the frame. buf holds the caller's text and
// receives the committed text after the edit.
func (r *Registry) Edit(ui Backend, buf *string, width float32, mode EditMode) EditOutcome {
	if r.count >= len(r.slots) {
		r.slots = append(r.slots, newField(*buf, r.style, r.log, r.observer))
		r.log.Debug("slot created", "slot", r.count)
	}
	f := r.slots[r.count]
	r.count++

	f.touched = true
	f.mode = mode
	f.width = width

	out := f.show(ui, buf)
	return EditOutcome{EditOutput: out, Identity: f.identity}
}

// SingleLine draws a single-line field.
func (r *Registry) SingleLine(ui Backend, buf *string, width float32) EditOutcome {
	return r.Edit(ui, buf, width, SingleLine)
}

// MultiLine draws a wrapping multi-line field.
func (r *Registry) MultiLine(ui Backend, buf *string, width float32) EditOutcome {
	return r.Edit(ui, buf, width, MultiLine)
}

// EndFrame drops the state of every field that was not drawn this frame.
func (r *Registry) EndFrame() {
	kept := r.slots[:0]
	for _, f := range r.slots {
		if f.touched {
			kept = append(kept, f)
		}
	}
	if dropped := len(r.slots) - len(kept); dropped > 0 {
		r.log.Debug("slots reclaimed", "dropped", dropped, "kept", len(kept))
	}
	for i := len(kept); i < len(r.slots); i++ {
		r.slots[i] = nil
	}
	r.slots = kept
}

// SetText replaces the committed text of the field with the given identity.
// Unknown identities are ignored. Call it between frames.
func (r *Registry) SetText(identity, text string) {
	for _, f := range r.slots {
		if f.identity == identity {
			f.SetText(text)
			return
		}
	}
	r.log.Debug("set text: no field", "identity", identity)
}

// SetStyle changes the layout colors of current and future fields.
func (r *Registry) SetStyle(s Style) {
	r.style = s
	for _, f := range r.slots {
		f.style = s
	}
}

// Frame runs one frame in the required order: reset, dispatch events, draw,
// reclaim.
func (r *Registry) Frame(events []Event, draw func()) {
	r.BeginFrame()
	for _, ev := range events {
		r.Dispatch(ev)
	}
	draw()
	r.EndFrame()
}

// PlaceCandidateWindow moves the input method's candidate window to pos.
// When the windowing layer has no cursor position (ok is false) nothing is
// updated.
func (r *Registry) PlaceCandidateWindow(win CandidateWindow, pos image.Point, ok bool) {
	if !ok || win == nil {
		return
	}
	win.SetIMEPosition(pos)
}

// Len returns the number of tracked fields.
func (r *Registry) Len() int { return len(r.slots) }

// Field returns the i-th slot, or nil when out of range.
func (r *Registry) Field(i int) *Field {
	if i < 0 || i >= len(r.slots) {
		return nil
	}
	return r.slots[i]
}

// Focused returns the field that had focus when last drawn, or nil.
func (r *Registry) Focused() *Field {
	for _, f := range r.slots {
		if f.focused {
			return f
		}
	}
	return nil
}

// Identities lists the identities of the tracked fields in slot order.
func (r *Registry) Identities() []string {
	ids := make([]string, len(r.slots))
	for i, f := range r.slots {
		ids[i] = f.identity
	}
	return ids
}
