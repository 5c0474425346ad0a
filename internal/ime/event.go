package ime

import "fmt"

// Event is a composition event reported by the windowing layer.
//
// The set of implementations is closed: Preedit, Commit, Enabled and Disabled.
type Event interface {
	imeEvent()
	fmt.Stringer
}

// Preedit replaces the in-progress composition string.
type Preedit struct {
	// Value is the candidate text. Empty means the composition was cleared.
	Value string

	// HasCursor reports whether the windowing layer supplied a caret
	// position inside Value. Updates without one are ignored.
	HasCursor bool
}

// Commit finalizes composed text into the focused field.
// An empty Value cancels the composition without inserting anything.
type Commit struct {
	Value string
}

// Enabled reports that the input method was switched on.
type Enabled struct{}

// Disabled reports that the input method was switched off.
type Disabled struct{}

func (Preedit) imeEvent()  {}
func (Commit) imeEvent()   {}
func (Enabled) imeEvent()  {}
func (Disabled) imeEvent() {}

func (e Preedit) String() string {
	return fmt.Sprintf("Preedit(%q, cursor=%t)", e.Value, e.HasCursor)
}

func (e Commit) String() string { return fmt.Sprintf("Commit(%q)", e.Value) }

func (Enabled) String() string { return "Enabled" }

func (Disabled) String() string { return "Disabled" }

// CompositionState is the explicit form of a field's composition phase.
type CompositionState int

const (
	// Idle means no preedit is being shown.
	Idle CompositionState = iota
	// Composing means a non-empty preedit is displayed at the cursor.
	Composing
)

func (s CompositionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	default:
		return fmt.Sprintf("CompositionState(%d)", int(s))
	}
}
