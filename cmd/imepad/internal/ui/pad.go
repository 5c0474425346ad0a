package ui

import (
	"fmt"
	"image"
	"sync"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"imecompose/cmd/imepad/internal/theme"
	"imecompose/internal/config"
	"imecompose/internal/gioedit"
	"imecompose/internal/ibus"
	"imecompose/internal/ime"
	"imecompose/internal/logging"
)

// Source yields the composition events that arrived since the last frame.
type Source interface {
	Pending() []ime.Event
}

// Journal is the part of the commit journal the pad uses.
type Journal interface {
	ime.CommitObserver
	Count() (int64, error)
}

// Counters reports the traffic of the input method connection.
type Counters interface {
	Stats() ibus.Stats
}

// Options configures a Pad.
type Options struct {
	Source Source
	// SourceName is shown in the sidebar.
	SourceName string

	// Window, if set, receives the candidate window position.
	Window ime.CandidateWindow

	// Keys, if set, is offered the keys typed into the focused field
	// before the field applies them.
	Keys gioedit.KeyRouter

	// Counters, if set, is shown in the sidebar.
	Counters Counters

	// Journal, if set, records every commit.
	Journal Journal

	// Focus is called when keyboard focus enters or leaves the fields.
	Focus func(focused bool)

	Logger *logging.Logger
}

type fieldSpec struct {
	label string
	mode  ime.EditMode
	text  string
}

// Pad is a form of text fields driven by an ime registry.
type Pad struct {
	theme   *theme.Theme
	reg     *ime.Registry
	backend *gioedit.Backend
	opts    Options
	log     *logging.Logger

	fields []fieldSpec
	editor config.EditorConfig

	mu      sync.Mutex
	pending *config.Config

	pointer    image.Point
	hasPointer bool
	hadFocus   bool
	commits    int
	lastCommit string
	journaled  int64
}

// NewPad creates a pad with the fields of the demo form.
func NewPad(t *theme.Theme, cfg *config.Config, opts Options) *Pad {
	log := opts.Logger
	if log == nil {
		log = logging.Default().WithComponent("pad")
	}
	p := &Pad{
		theme:   t,
		backend: gioedit.New(t.Theme, "pad"),
		opts:    opts,
		log:     log,
		fields: []fieldSpec{
			{label: "Name", mode: ime.SingleLine},
			{label: "Subject", mode: ime.SingleLine},
			{label: "Message", mode: ime.MultiLine},
		},
	}
	p.backend.Keys = opts.Keys
	p.reg = ime.NewRegistry(
		ime.WithLogger(log.WithComponent("ime")),
		ime.WithObserver(ime.CommitObserverFunc(p.record)),
	)
	if opts.Journal != nil {
		n, err := opts.Journal.Count()
		if err != nil {
			log.Warn("count journal", "error", err)
		}
		p.journaled = n
	}
	p.configure(cfg)
	return p
}

// ApplyConfig schedules cfg to take effect at the start of the next frame.
// It may be called from any goroutine.
func (p *Pad) ApplyConfig(cfg *config.Config) {
	p.mu.Lock()
	p.pending = cfg
	p.mu.Unlock()
}

func (p *Pad) configure(cfg *config.Config) {
	style, err := cfg.Style.Style()
	if err != nil {
		p.log.Warn("invalid style, keeping previous", "error", err)
	} else {
		p.reg.SetStyle(style)
		p.theme.ApplyStyle(style)
	}
	p.backend.HighlightAlpha = cfg.Style.Alpha()
	p.backend.Hint = cfg.Editor.Hint
	p.editor = cfg.Editor
}

func (p *Pad) record(rec ime.CommitRecord) error {
	p.commits++
	p.lastCommit = rec.Value
	if p.opts.Journal == nil {
		return nil
	}
	if err := p.opts.Journal.Record(rec); err != nil {
		return err
	}
	p.journaled++
	return nil
}

// Layout draws one frame.
func (p *Pad) Layout(gtx layout.Context) layout.Dimensions {
	p.mu.Lock()
	cfg := p.pending
	p.pending = nil
	p.mu.Unlock()
	if cfg != nil {
		p.configure(cfg)
	}

	paint.Fill(gtx.Ops, p.theme.Palette.Background)

	// Track the pointer over the whole window; the candidate window
	// follows the last press or move.
	area := clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops)
	event.Op(gtx.Ops, p)
	for {
		ev, ok := gtx.Event(pointer.Filter{Target: p, Kinds: pointer.Press | pointer.Move})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			p.pointer = pe.Position.Round()
			p.hasPointer = true
		}
	}

	var events []ime.Event
	if p.opts.Source != nil {
		events = p.opts.Source.Pending()
	}

	var dims layout.Dimensions
	p.backend.Begin()
	p.reg.Frame(events, func() {
		dims = layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				w := gtx.Dp(p.theme.Config.SidebarWidth)
				gtx.Constraints.Min.X, gtx.Constraints.Max.X = w, w
				return p.layoutSidebar(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				size := image.Pt(gtx.Dp(1), gtx.Constraints.Max.Y)
				paint.FillShape(gtx.Ops, p.theme.Palette.Border, clip.Rect{Max: size}.Op())
				return layout.Dimensions{Size: size}
			}),
			layout.Flexed(1, p.layoutForm),
		)
	})
	p.backend.End()
	area.Pop()

	focused := p.reg.Focused() != nil
	if focused != p.hadFocus {
		p.hadFocus = focused
		if p.opts.Focus != nil {
			p.opts.Focus(focused)
		}
	}
	p.reg.PlaceCandidateWindow(p.opts.Window, p.pointer, focused && p.hasPointer)
	return dims
}

func (p *Pad) layoutForm(gtx layout.Context) layout.Dimensions {
	children := make([]layout.FlexChild, 0, 2*len(p.fields))
	for i := range p.fields {
		f := &p.fields[i]
		children = append(children,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return p.layoutField(gtx, f)
			}),
			layout.Rigid(layout.Spacer{Height: p.theme.Config.Spacing}.Layout),
		)
	}
	return layout.UniformInset(p.theme.Config.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
	})
}

func (p *Pad) layoutField(gtx layout.Context, f *fieldSpec) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			l := material.Caption(p.theme.Theme, f.label)
			l.Color = p.theme.Palette.TextMuted
			return l.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return p.surface(gtx, func(gtx layout.Context) layout.Dimensions {
				s := p.backend.Surface(gtx)
				width := p.editor.SingleLineWidth
				if f.mode == ime.MultiLine {
					width = p.editor.MultiLineWidth
				}
				p.reg.Edit(s, &f.text, width, f.mode)
				return s.Dims
			})
		}),
	)
}

// surface draws w on a rounded panel.
func (p *Pad) surface(gtx layout.Context, w layout.Widget) layout.Dimensions {
	inset := layout.UniformInset(p.theme.Config.Spacing)
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			r := gtx.Dp(p.theme.Config.CornerRadius)
			rect := clip.UniformRRect(image.Rectangle{Max: gtx.Constraints.Min}, r)
			paint.FillShape(gtx.Ops, p.theme.Palette.Surface, rect.Op(gtx.Ops))
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			return inset.Layout(gtx, w)
		},
	)
}

func (p *Pad) layoutSidebar(gtx layout.Context) layout.Dimensions {
	lines := p.status()
	children := []layout.FlexChild{
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			title := material.H6(p.theme.Theme, "IMEPAD")
			title.Color = p.theme.Palette.Primary
			title.TextSize = p.theme.Config.FontTitle
			return title.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(24)}.Layout),
	}
	for _, line := range lines {
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			l := material.Body2(p.theme.Theme, line.text)
			l.Color = p.theme.Palette.TextMuted
			if line.highlight {
				l.Color = p.theme.Palette.Composing
			}
			return l.Layout(gtx)
		}))
	}
	return layout.UniformInset(p.theme.Config.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
	})
}

type statusLine struct {
	text      string
	highlight bool
}

// status describes the input source and the focused field. It reflects
// the previous frame, since the sidebar is drawn before the form.
func (p *Pad) status() []statusLine {
	source := p.opts.SourceName
	if source == "" {
		source = "none"
	}
	lines := []statusLine{
		{text: "Input: " + source},
		{text: fmt.Sprintf("Fields: %d", p.reg.Len())},
	}

	if f := p.reg.Focused(); f != nil {
		lines = append(lines,
			statusLine{text: "Focus: " + f.Identity()},
			statusLine{text: "State: " + f.State().String(), highlight: f.State() == ime.Composing},
		)
		if !f.IMEEnabled() {
			lines = append(lines, statusLine{text: "IME disabled"})
		}
	} else {
		lines = append(lines, statusLine{text: "Focus: none"})
	}

	lines = append(lines, statusLine{text: fmt.Sprintf("Commits: %d", p.commits)})
	if p.lastCommit != "" {
		lines = append(lines, statusLine{text: "Last: " + p.lastCommit})
	}
	if p.opts.Journal != nil {
		lines = append(lines, statusLine{text: fmt.Sprintf("Journal: %d", p.journaled)})
	}
	if p.opts.Counters != nil {
		st := p.opts.Counters.Stats()
		lines = append(lines,
			statusLine{text: fmt.Sprintf("Keys: %d (%d to IME)", st.Keys, st.Consumed)},
			statusLine{text: fmt.Sprintf("Events: %d", st.Events)},
		)
		if st.Dropped > 0 {
			lines = append(lines, statusLine{text: fmt.Sprintf("Dropped: %d", st.Dropped), highlight: true})
		}
	}
	return lines
}

// Texts returns the committed text of every field in form order.
func (p *Pad) Texts() []string {
	out := make([]string, len(p.fields))
	for i, f := range p.fields {
		out[i] = f.text
	}
	return out
}
