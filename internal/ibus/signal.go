package ibus

import (
	"github.com/godbus/dbus/v5"

	"imecompose/internal/ime"
)

// IBus D-Bus names used by an input-context client.
const (
	Service               = "org.freedesktop.IBus"
	Path                  = "/org/freedesktop/IBus"
	Interface             = "org.freedesktop.IBus"
	InputContextInterface = "org.freedesktop.IBus.InputContext"
)

// Input context capability bits.
const (
	CapPreeditText     uint32 = 1 << 0
	CapAuxiliaryText   uint32 = 1 << 1
	CapLookupTable     uint32 = 1 << 2
	CapFocus           uint32 = 1 << 3
	CapProperty        uint32 = 1 << 4
	CapSurroundingText uint32 = 1 << 5
)

// Signal names emitted on an input context.
const (
	sigCommitText        = InputContextInterface + ".CommitText"
	sigUpdatePreeditText = InputContextInterface + ".UpdatePreeditText"
	sigHidePreeditText   = InputContextInterface + ".HidePreeditText"
	sigEnabled           = InputContextInterface + ".Enabled"
	sigDisabled          = InputContextInterface + ".Disabled"
)

// decodeText extracts the string of a serialized IBusText.
//
// IBusText travels as a variant holding the struct
// (name string, attachments a{sv}, text string, attrs variant).
func decodeText(v interface{}) (string, bool) {
	if variant, ok := v.(dbus.Variant); ok {
		v = variant.Value()
	}
	fields, ok := v.([]interface{})
	if !ok || len(fields) < 3 {
		return "", false
	}
	if name, ok := fields[0].(string); !ok || name != "IBusText" {
		return "", false
	}
	text, ok := fields[2].(string)
	return text, ok
}

// translate converts an input-context signal into a composition event.
func translate(sig *dbus.Signal) (ime.Event, bool) {
	if sig == nil {
		return nil, false
	}
	switch sig.Name {
	case sigCommitText:
		if len(sig.Body) < 1 {
			return nil, false
		}
		text, ok := decodeText(sig.Body[0])
		if !ok {
			return nil, false
		}
		return ime.Commit{Value: text}, true

	case sigUpdatePreeditText:
		if len(sig.Body) < 3 {
			return nil, false
		}
		text, ok := decodeText(sig.Body[0])
		if !ok {
			return nil, false
		}
		visible, _ := sig.Body[2].(bool)
		if !visible {
			return ime.Preedit{}, true
		}
		return ime.Preedit{Value: text, HasCursor: true}, true

	case sigHidePreeditText:
		return ime.Preedit{}, true

	case sigEnabled:
		return ime.Enabled{}, true

	case sigDisabled:
		return ime.Disabled{}, true
	}
	return nil, false
}
