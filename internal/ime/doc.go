// Package ime tracks Input Method Editor composition for the text fields of
// an immediate-mode GUI.
//
// # Architecture Overview
//
// Input methods deliver text as a stream of events rather than keystrokes:
// a preedit string that changes while the user types, then a commit of the
// chosen text. The package splices that stream into each field's buffer and
// keeps the cursor, the highlighted layout and the widget's retained state
// consistent from frame to frame.
//
//	┌──────────────┬──────────────────────────────────────────────────┐
//	│ Type         │ Role                                             │
//	├──────────────┼──────────────────────────────────────────────────┤
//	│ Registry     │ Slots assigned by draw order, reclaimed per frame│
//	│ Field        │ Preedit, commit splicing, cursor repositioning   │
//	│ Backend      │ GUI text-edit widget and its retained state      │
//	│ LayoutJob    │ Styled runs handed to the renderer               │
//	└──────────────┴──────────────────────────────────────────────────┘
//
// # Frame Model
//
// All calls happen on the GUI thread, in this order each frame:
//
//	BeginFrame
//	     ↓
//	Dispatch(event) ... for every event the windowing layer reported
//	     ↓
//	SingleLine / MultiLine ... once per field drawn, in draw order
//	     ↓
//	EndFrame  (fields not drawn lose their state)
//
// Registry.Frame runs the sequence for a batch of events and a draw
// function.
//
// # Composition
//
// A field is Idle while its preedit is empty and Composing otherwise. The
// preedit is shown to the widget at the cursor but never stored in the
// committed text:
//
//	committed "ab", cursor 1
//	Preedit("あ")  → widget shows "aあb", middle run highlighted
//	Commit("あ")   → committed "aあb", cursor 2
//
// An empty commit cancels the composition and leaves the cursor where it
// was. All cursor and splice arithmetic counts characters; bytes only
// appear in LayoutJob section ranges.
package ime
