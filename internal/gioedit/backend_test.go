package gioedit

import (
	"image"
	"testing"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/widget/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imecompose/internal/ime"
)

func TestRuneRange(t *testing.T) {
	tests := []struct {
		s          string
		start, end int
		rs, re     int
	}{
		{"abc", 0, 3, 0, 3},
		{"aあb", 1, 4, 1, 2},
		{"日😀x本", 3, 8, 1, 3},
		{"", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		rs, re := runeRange(tt.s, tt.start, tt.end)
		assert.Equal(t, tt.rs, rs, "%q start", tt.s)
		assert.Equal(t, tt.re, re, "%q end", tt.s)
	}
}

func TestScaleAlpha(t *testing.T) {
	assert.Equal(t, uint8(0xff), scaleAlpha(0xff, 0xff))
	assert.Equal(t, uint8(0), scaleAlpha(0xff, 0))
	assert.Equal(t, uint8(0x7f), scaleAlpha(0xff, 0x7f))
}

func TestBackendReleasesUndrawnEditors(t *testing.T) {
	b := New(nil, "win")

	b.Begin()
	id0, _ := b.acquire(ime.SingleLine)
	id1, e1 := b.acquire(ime.MultiLine)
	b.End()

	assert.Equal(t, "win#0", id0)
	assert.Equal(t, "win#1", id1)
	assert.False(t, e1.w.SingleLine)
	assert.Equal(t, 2, b.Len())

	b.Begin()
	again, _ := b.acquire(ime.SingleLine)
	b.End()

	assert.Equal(t, "win#0", again, "IDs restart every frame")
	assert.Equal(t, 1, b.Len())
}

func TestTextEditPaintsPreeditUnderText(t *testing.T) {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	b := New(th, "win")

	var sectionsPainted bool
	layouter := func(s string, wrap float32) ime.LayoutJob {
		sectionsPainted = true
		return ime.LayoutJob{
			Text: s,
			Sections: []ime.LayoutSection{
				{Start: 0, End: 1, Format: ime.TextFormat{Color: ime.DefaultStyle().Plain}},
				{Start: 1, End: len(s), Format: ime.TextFormat{Color: ime.DefaultStyle().PreeditFG, Background: ime.DefaultStyle().PreeditBG}},
			},
		}
	}

	gtx := layout.Context{
		Ops:         new(op.Ops),
		Constraints: layout.Exact(image.Pt(300, 100)),
	}
	b.Begin()
	s := b.Surface(gtx)
	out := s.TextEdit(ime.EditRequest{Text: "aか", Width: 200, Mode: ime.SingleLine, Layouter: layouter})
	b.End()

	require.True(t, sectionsPainted)
	assert.Equal(t, "win#0", out.ID)
	assert.Equal(t, "aか", out.Text)
	assert.False(t, out.Focused)
	assert.Nil(t, out.Cursor, "unfocused editors report no caret")
	assert.Positive(t, s.Dims.Size.Y)
}
