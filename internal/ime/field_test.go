package ime

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imecompose/internal/logging"
)

// harness drives a registry with a single field through frames.
type harness struct {
	t    *testing.T
	reg  *Registry
	ui   *fakeBackend
	text string
	mode EditMode
}

func newHarness(t *testing.T, text string, opts ...Option) *harness {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	return &harness{
		t:    t,
		reg:  NewRegistry(opts...),
		ui:   newFakeBackend(),
		text: text,
	}
}

func (h *harness) frame(events ...Event) EditOutcome {
	var out EditOutcome
	h.ui.begin()
	h.reg.Frame(events, func() {
		out = h.reg.Edit(h.ui, &h.text, 200, h.mode)
	})
	return out
}

func (h *harness) field() *Field {
	f := h.reg.Field(0)
	require.NotNil(h.t, f)
	return f
}

// focusedAt creates a focused field with the caret at cursor and the input
// method enabled.
func focusedAt(t *testing.T, text string, cursor int, opts ...Option) *harness {
	h := newHarness(t, text, opts...)
	h.ui.focused = "w0"
	h.ui.carets["w0"] = cursor
	h.frame()
	h.frame(Enabled{})
	require.Equal(t, cursor, h.field().Cursor())
	require.True(t, h.field().IMEEnabled())
	return h
}

func TestPreeditThenCommitScenario(t *testing.T) {
	h := focusedAt(t, "ab", 1)

	h.frame(Preedit{Value: "あ", HasCursor: true})
	assert.Equal(t, Composing, h.field().State())
	assert.Equal(t, "aあb", h.ui.requests["w0"].Text, "preedit shown at the cursor")
	assert.Equal(t, "ab", h.text, "preedit is not committed")

	job := h.ui.layouts["w0"]
	require.Len(t, job.Sections, 3)
	assert.Equal(t, "aあb", job.Text)
	assert.Equal(t, LayoutSection{Start: 0, End: 1, Format: DefaultStyle().plain()}, job.Sections[0])
	assert.Equal(t, LayoutSection{Start: 1, End: 4, Format: DefaultStyle().preedit()}, job.Sections[1])
	assert.Equal(t, LayoutSection{Start: 4, End: 5, Format: DefaultStyle().plain()}, job.Sections[2])

	out := h.frame(Commit{Value: "あ"})
	assert.True(t, out.Changed)
	assert.Equal(t, "aあb", h.text)
	assert.Equal(t, "aあb", h.field().Text())
	assert.Equal(t, 2, h.field().Cursor())
	assert.Equal(t, Idle, h.field().State())

	cursor, ok := h.ui.storedCursor("w0")
	require.True(t, ok)
	assert.Equal(t, 2, cursor, "advanced caret pushed into retained state")

	out = h.frame()
	assert.False(t, out.Changed)
	assert.Equal(t, 2, h.field().Cursor())
}

func TestCommitAdvancesByPreeditLength(t *testing.T) {
	h := focusedAt(t, "xy", 1)

	h.frame(Preedit{Value: "かな", HasCursor: true})
	h.frame(Commit{Value: "仮名"})

	assert.Equal(t, "x仮名y", h.text)
	assert.Equal(t, 3, h.field().Cursor())
}

func TestCommitsWithoutPreeditAdvanceByLastPreedit(t *testing.T) {
	h := focusedAt(t, "", 0)

	h.frame(Preedit{Value: "か", HasCursor: true})
	h.frame(Commit{Value: "か"})
	h.frame(Commit{Value: "。"})
	h.frame(Commit{Value: "x"})

	assert.Equal(t, "か。x", h.text)
	assert.Equal(t, 3, h.field().Cursor())
}

func TestCommitAtEndAppends(t *testing.T) {
	h := focusedAt(t, "日本", 2)

	h.frame(Preedit{Value: "ご", HasCursor: true}, Commit{Value: "語"})

	assert.Equal(t, "日本語", h.text)
	assert.Equal(t, 3, h.field().Cursor())
}

func TestEmptyCommitCancelsWithoutAdvance(t *testing.T) {
	h := focusedAt(t, "ab", 1)

	h.frame(Preedit{Value: "あい", HasCursor: true})
	out := h.frame(Commit{Value: ""})

	assert.True(t, out.Changed, "a commit always reports changed")
	assert.Equal(t, "ab", h.text)
	assert.Equal(t, 1, h.field().Cursor())
	assert.Equal(t, Idle, h.field().State())
}

func TestEmptyCommitSuppressesAdvanceOnce(t *testing.T) {
	h := focusedAt(t, "ab", 1)

	h.frame(Preedit{Value: "あ", HasCursor: true})
	h.frame(Commit{Value: ""}, Commit{Value: "あ"})
	assert.Equal(t, "aあb", h.text)
	assert.Equal(t, 1, h.field().Cursor(), "advance skipped in the frame of the empty commit")

	h.frame(Preedit{Value: "い", HasCursor: true})
	h.frame(Commit{Value: "い"})
	assert.Equal(t, "aいあb", h.text)
	assert.Equal(t, 2, h.field().Cursor(), "suppression is consumed after one frame")
}

func TestPreeditWithoutCursorIgnored(t *testing.T) {
	h := focusedAt(t, "ab", 2)

	h.frame(Preedit{Value: "x", HasCursor: false})
	assert.Equal(t, Idle, h.field().State())

	h.frame(Preedit{Value: "x", HasCursor: true})
	assert.Equal(t, Composing, h.field().State())

	h.frame(Preedit{Value: ""})
	assert.Equal(t, Idle, h.field().State(), "empty preedit clears the composition")
	assert.Equal(t, "ab", h.text)
}

func TestUnfocusedFieldIgnoresComposition(t *testing.T) {
	h := newHarness(t, "ab")
	h.frame()
	h.frame(Enabled{})

	f := h.field()
	assert.False(t, f.HandleEvent(Preedit{Value: "あ", HasCursor: true}))
	assert.False(t, f.HandleEvent(Commit{Value: "あ"}))
	assert.True(t, f.HandleEvent(Disabled{}), "enable state applies without focus")
	assert.False(t, f.IMEEnabled())

	h.frame()
	assert.Equal(t, "ab", h.text)
}

func TestDisabledIMEPassesWidgetEditsThrough(t *testing.T) {
	h := newHarness(t, "ab")
	h.ui.focused = "w0"
	h.frame()

	h.ui.typed["w0"] = "abc"
	h.ui.carets["w0"] = 3
	out := h.frame()

	assert.True(t, out.Changed)
	assert.Equal(t, "abc", h.text)
	assert.Equal(t, 3, h.field().Cursor())
}

func TestDisabledDropsComposition(t *testing.T) {
	h := focusedAt(t, "ab", 2)

	h.frame(Preedit{Value: "か", HasCursor: true})
	require.Equal(t, Composing, h.field().State())

	h.frame(Disabled{})
	assert.Equal(t, Idle, h.field().State())
	assert.Empty(t, h.field().PreeditText())
	assert.Equal(t, "ab", h.ui.requests["w0"].Text, "stale preedit is not drawn")
	assert.Equal(t, "ab", h.text)

	for _, typed := range []string{"abか", "abかx", "abかxyz"} {
		h.ui.typed["w0"] = typed
		h.ui.carets["w0"] = len([]rune(typed))
		h.frame()
		assert.Equal(t, typed, h.text, "widget edits apply after the input method is disabled")
	}
	assert.Equal(t, 6, h.field().Cursor())
	assert.False(t, h.field().IMEEnabled())
}

func TestEnabledIMEIgnoresWidgetText(t *testing.T) {
	h := focusedAt(t, "ab", 2)

	h.ui.typed["w0"] = "zzz"
	h.frame()
	assert.Equal(t, "ab", h.text)
}

func TestCursorRetainedWhenWidgetReportsNone(t *testing.T) {
	h := focusedAt(t, "abcd", 2)

	h.ui.noCaret["w0"] = true
	h.frame()
	assert.Equal(t, 2, h.field().Cursor())

	h.frame(Preedit{Value: "x", HasCursor: true}, Commit{Value: "x"})
	assert.Equal(t, "abxcd", h.text)
	assert.Equal(t, 3, h.field().Cursor())
}

func TestCallerBufferAuthoritativeWhenIdle(t *testing.T) {
	h := focusedAt(t, "ab", 1)

	h.text = "replaced"
	h.frame()
	assert.Equal(t, "replaced", h.field().Text())
	assert.Equal(t, "replaced", h.ui.requests["w0"].Text)

	h.frame(Preedit{Value: "あ", HasCursor: true})
	h.text = "ignored while composing"
	h.frame()
	assert.Equal(t, "replaced", h.text)
}

func TestCommitObserver(t *testing.T) {
	var recs []CommitRecord
	obs := CommitObserverFunc(func(rec CommitRecord) error {
		recs = append(recs, rec)
		return nil
	})
	h := focusedAt(t, "ab", 1, WithObserver(obs))

	h.frame(Preedit{Value: "あ", HasCursor: true}, Commit{Value: "あ"})
	h.frame(Commit{Value: ""})

	require.Len(t, recs, 1, "empty commits are not recorded")
	assert.Equal(t, "w0", recs[0].Identity)
	assert.Equal(t, "あ", recs[0].Value)
	assert.Equal(t, "aあb", recs[0].Text)
	assert.Equal(t, 2, recs[0].Cursor, "caret after the inserted text")
	assert.False(t, recs[0].Time.IsZero())
}

func TestLayoutIdle(t *testing.T) {
	f := newField("héllo", DefaultStyle(), logging.Discard(), nil)

	f.mode = SingleLine
	job := f.Layout("héllo", 120)
	assert.Equal(t, float32(0), job.WrapWidth)
	assert.False(t, job.BreakOnNewline)
	assert.Equal(t, []LayoutSection{{Start: 0, End: 6, Format: DefaultStyle().plain()}}, job.Sections)

	f.mode = MultiLine
	job = f.Layout("héllo", 120)
	assert.Equal(t, float32(120), job.WrapWidth)
	assert.True(t, job.BreakOnNewline)
}

func TestLayoutComposingByteRanges(t *testing.T) {
	style := Style{
		Plain:     color.NRGBA{R: 1, A: 0xff},
		PreeditFG: color.NRGBA{G: 2, A: 0xff},
		PreeditBG: color.NRGBA{B: 3, A: 0xff},
	}
	f := newField("日本", style, logging.Discard(), nil)
	f.mode = MultiLine
	f.cursor = 1
	f.preedit = "😀x"

	job := f.Layout(f.displayed(), 80)

	assert.Equal(t, "日😀x本", job.Text)
	assert.Equal(t, float32(80), job.WrapWidth)
	assert.True(t, job.BreakOnNewline)
	require.Len(t, job.Sections, 3)
	assert.Equal(t, 0, job.Sections[0].Start)
	assert.Equal(t, 3, job.Sections[0].End)
	assert.Equal(t, 3, job.Sections[1].Start)
	assert.Equal(t, 8, job.Sections[1].End)
	assert.Equal(t, 8, job.Sections[2].Start)
	assert.Equal(t, 11, job.Sections[2].End)
	assert.Equal(t, style.PreeditBG, job.Sections[1].Format.Background)
	assert.Equal(t, style.Plain, job.Sections[2].Format.Color)
}

func TestSetTextClampsCursor(t *testing.T) {
	f := newField("abcdef", DefaultStyle(), logging.Discard(), nil)
	require.Equal(t, 6, f.Cursor())

	f.SetText("ab")
	assert.Equal(t, "ab", f.Text())
	assert.Equal(t, 2, f.Cursor())
}
