// Package gioedit implements the ime text-edit widget contract with gio
// editors.
//
// gio widgets keep their own state, so the backend retains one
// widget.Editor per auto ID. IDs are assigned by call order within a frame,
// the same way the ime registry assigns slots, and editors not drawn during
// a frame are released by End.
package gioedit

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"imecompose/internal/ime"
)

// Backend owns the retained editors of one window.
type Backend struct {
	theme *material.Theme
	salt  string

	editors map[string]*editor
	next    int

	// Hint is shown in empty editors.
	Hint string

	// HighlightAlpha scales the preedit background so the text stays
	// readable under it.
	HighlightAlpha uint8

	// Keys, if set, sees the keyboard input of the focused editor first.
	Keys KeyRouter
}

type editor struct {
	w    widget.Editor
	seen bool
}

// New creates a backend drawing with th. salt prefixes the IDs it hands
// out, so two backends never share identities.
func New(th *material.Theme, salt string) *Backend {
	return &Backend{
		theme:          th,
		salt:           salt,
		editors:        make(map[string]*editor),
		HighlightAlpha: 0x90,
	}
}

// Begin starts a frame.
func (b *Backend) Begin() {
	b.next = 0
	for _, e := range b.editors {
		e.seen = false
	}
}

// End releases editors that were not drawn during the frame.
func (b *Backend) End() {
	for id, e := range b.editors {
		if !e.seen {
			delete(b.editors, id)
		}
	}
}

// Len returns the number of retained editors.
func (b *Backend) Len() int { return len(b.editors) }

// Surface binds the backend to a layout context. The returned surface
// implements ime.Backend for the widgets drawn inside gtx.
func (b *Backend) Surface(gtx layout.Context) *Surface {
	return &Surface{b: b, gtx: gtx}
}

// Surface draws editors into one layout cell.
type Surface struct {
	b   *Backend
	gtx layout.Context

	// Dims accumulates the dimensions of the editors drawn so far,
	// stacked vertically.
	Dims layout.Dimensions
}

func (b *Backend) acquire(mode ime.EditMode) (string, *editor) {
	id := fmt.Sprintf("%s#%d", b.salt, b.next)
	b.next++
	e, ok := b.editors[id]
	if !ok {
		e = &editor{}
		b.editors[id] = e
	}
	e.seen = true
	e.w.SingleLine = mode == ime.SingleLine
	e.w.Submit = false
	return id, e
}

// TextEdit implements ime.Backend.
func (s *Surface) TextEdit(req ime.EditRequest) ime.EditOutput {
	id, e := s.b.acquire(req.Mode)
	ed := &e.w

	if ed.Text() != req.Text {
		start, end := ed.Selection()
		ed.SetText(req.Text)
		ed.SetCaret(start, end)
	}

	gtx := s.gtx
	gtx.Constraints.Min.Y = 0
	if req.Width > 0 {
		w := gtx.Dp(unit.Dp(req.Width))
		if w < gtx.Constraints.Max.X {
			gtx.Constraints.Max.X = w
		}
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
	}

	if s.b.Keys != nil && gtx.Focused(ed) {
		s.b.route(gtx, ed)
	}

	changed := false
	for {
		ev, ok := ed.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.ChangeEvent); ok {
			changed = true
		}
	}

	// Editors drawn into the same surface are stacked.
	offset := op.Offset(image.Pt(0, s.Dims.Size.Y)).Push(gtx.Ops)
	// The editor is recorded first so its regions are known, then drawn
	// over the section backgrounds.
	macro := op.Record(gtx.Ops)
	dims := material.Editor(s.b.theme, ed, s.b.Hint).Layout(gtx)
	call := macro.Stop()
	if req.Layouter != nil {
		job := req.Layouter(ed.Text(), float32(gtx.Metric.PxToDp(gtx.Constraints.Max.X)))
		s.b.paintSections(gtx, ed, job)
	}
	call.Add(gtx.Ops)
	offset.Pop()

	s.Dims.Size.Y += dims.Size.Y
	if dims.Size.X > s.Dims.Size.X {
		s.Dims.Size.X = dims.Size.X
	}

	start, end := ed.Selection()
	cursor := ime.CursorRange{Primary: start, Secondary: end}
	out := ime.EditOutput{
		ID:      id,
		Text:    ed.Text(),
		Focused: gtx.Focused(ed),
		Changed: changed,
		State:   ime.EditState{Cursor: &cursor},
	}
	if out.Focused {
		c := cursor
		out.Cursor = &c
	}
	return out
}

// StoreState implements ime.Backend. gio editors are retained already; only
// the cursor override has to be applied.
func (s *Surface) StoreState(id string, st ime.EditState) {
	e, ok := s.b.editors[id]
	if !ok || st.Cursor == nil {
		return
	}
	e.w.SetCaret(st.Cursor.Primary, st.Cursor.Secondary)
}

// paintSections fills the background of every section that has one and
// underlines it in the section color.
func (b *Backend) paintSections(gtx layout.Context, ed *widget.Editor, job ime.LayoutJob) {
	var regions []widget.Region
	for _, sec := range job.Sections {
		if sec.Format.Background.A == 0 || sec.End <= sec.Start {
			continue
		}
		start, end := runeRange(job.Text, sec.Start, sec.End)
		regions = ed.Regions(start, end, regions[:0])

		bg := sec.Format.Background
		bg.A = scaleAlpha(bg.A, b.HighlightAlpha)
		underline := gtx.Dp(1)
		for _, r := range regions {
			fill(gtx, r.Bounds, bg)
			line := image.Rect(r.Bounds.Min.X, r.Bounds.Max.Y-underline, r.Bounds.Max.X, r.Bounds.Max.Y)
			fill(gtx, line, sec.Format.Color)
		}
	}
}

func fill(gtx layout.Context, r image.Rectangle, c color.NRGBA) {
	paint.FillShape(gtx.Ops, c, clip.Rect(r).Op())
}

func scaleAlpha(a, by uint8) uint8 {
	return uint8(uint16(a) * uint16(by) / 0xff)
}

// runeRange converts the byte range [start, end) of s to rune offsets.
func runeRange(s string, start, end int) (int, int) {
	rs, re := -1, -1
	i := 0
	for off := range s {
		if off == start {
			rs = i
		}
		if off == end {
			re = i
		}
		i++
	}
	if rs < 0 {
		rs = i
	}
	if re < 0 {
		re = i
	}
	return rs, re
}

var _ ime.Backend = (*Surface)(nil)
