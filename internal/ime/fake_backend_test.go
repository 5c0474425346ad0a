package ime

import (
	"fmt"
)

// fakeBackend is an in-memory text-edit widget. Widgets are identified by
// draw order within a frame, like an immediate-mode auto ID.
type fakeBackend struct {
	next int

	focused string
	states  map[string]EditState

	// Per-frame user input, consumed by the next draw of that widget.
	typed   map[string]string
	carets  map[string]int
	noCaret map[string]bool

	requests map[string]EditRequest
	layouts  map[string]LayoutJob
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		states:   make(map[string]EditState),
		typed:    make(map[string]string),
		carets:   make(map[string]int),
		noCaret:  make(map[string]bool),
		requests: make(map[string]EditRequest),
		layouts:  make(map[string]LayoutJob),
	}
}

// begin restarts ID assignment for a new frame.
func (b *fakeBackend) begin() { b.next = 0 }

func (b *fakeBackend) TextEdit(req EditRequest) EditOutput {
	id := fmt.Sprintf("w%d", b.next)
	b.next++
	b.requests[id] = req

	text := req.Text
	if typed, ok := b.typed[id]; ok {
		text = typed
		delete(b.typed, id)
	}

	st := b.states[id]
	if pos, ok := b.carets[id]; ok {
		st.SetCursor(Collapsed(pos))
		delete(b.carets, id)
	}

	out := EditOutput{
		ID:      id,
		Text:    text,
		Focused: b.focused == id,
		Changed: text != req.Text,
		State:   st,
	}
	if st.Cursor != nil && !b.noCaret[id] {
		c := *st.Cursor
		out.Cursor = &c
	}
	if req.Layouter != nil {
		b.layouts[id] = req.Layouter(text, req.Width)
	}
	return out
}

func (b *fakeBackend) StoreState(id string, st EditState) {
	b.states[id] = st
}

func (b *fakeBackend) storedCursor(id string) (int, bool) {
	st, ok := b.states[id]
	if !ok || st.Cursor == nil {
		return 0, false
	}
	return st.Cursor.Primary, true
}
