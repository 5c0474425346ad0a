package gioedit

import (
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/widget"
)

// KeyRouter offers keyboard input to an input method before the focused
// editor applies it. ProcessKey takes an X keysym and modifier state and
// reports whether the input method consumed the key.
type KeyRouter interface {
	ProcessKey(keysym, state uint32) bool
}

// routedKeys are the named keys an input method may claim. Other keys,
// shortcuts and modified arrows included, go straight to the editor.
var routedKeys = []key.Name{
	key.NameDeleteBackward,
	key.NameDeleteForward,
	key.NameReturn,
	key.NameEnter,
	key.NameEscape,
	key.NameLeftArrow,
	key.NameRightArrow,
}

var namedKeysyms = map[key.Name]uint32{
	key.NameDeleteBackward: 0xff08,
	key.NameDeleteForward:  0xffff,
	key.NameReturn:         0xff0d,
	key.NameEnter:          0xff8d,
	key.NameEscape:         0xff1b,
	key.NameLeftArrow:      0xff51,
	key.NameRightArrow:     0xff53,
}

// runeKeysym returns the X keysym typing r produces. Latin-1 characters
// map to themselves, everything else to the Unicode keysym range.
func runeKeysym(r rune) uint32 {
	if (r >= 0x20 && r <= 0x7e) || (r >= 0xa0 && r <= 0xff) {
		return uint32(r)
	}
	return 0x01000000 | uint32(r)
}

// offer hands ev to r and reports whether the input method consumed it.
// Only single typed characters and presses of routed keys are offered;
// text from a platform input method is already composed.
func offer(r KeyRouter, ev event.Event) bool {
	switch ev := ev.(type) {
	case key.EditEvent:
		runes := []rune(ev.Text)
		if len(runes) != 1 {
			return false
		}
		return r.ProcessKey(runeKeysym(runes[0]), 0)
	case key.Event:
		if ev.State != key.Press {
			return false
		}
		sym, ok := namedKeysyms[ev.Name]
		if !ok {
			return false
		}
		return r.ProcessKey(sym, 0)
	}
	return false
}

// apply performs the edit ev stands for when the input method passed on it.
func apply(ed *widget.Editor, ev event.Event) {
	switch ev := ev.(type) {
	case key.EditEvent:
		ed.SetCaret(ev.Range.Start, ev.Range.End)
		ed.Insert(ev.Text)
	case key.SelectionEvent:
		ed.SetCaret(ev.Start, ev.End)
	case key.Event:
		if ev.State != key.Press {
			return
		}
		switch ev.Name {
		case key.NameDeleteBackward:
			ed.Delete(-1)
		case key.NameDeleteForward:
			ed.Delete(1)
		case key.NameReturn, key.NameEnter:
			if !ed.SingleLine {
				ed.Insert("\n")
			}
		case key.NameLeftArrow:
			ed.MoveCaret(-1, -1)
		case key.NameRightArrow:
			ed.MoveCaret(1, 1)
		}
	}
}

// route drains the key input of the focused editor ed through b.Keys. It
// runs before the editor processes its own events, so keys the input
// method consumes never reach the editor.
func (b *Backend) route(gtx layout.Context, ed *widget.Editor) {
	filters := []event.Filter{key.FocusFilter{Target: ed}}
	for _, name := range routedKeys {
		filters = append(filters, key.Filter{Focus: ed, Name: name})
	}
	for {
		ev, ok := gtx.Event(filters...)
		if !ok {
			return
		}
		if !offer(b.Keys, ev) {
			apply(ed, ev)
		}
	}
}
