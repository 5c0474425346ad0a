package theme

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"

	"imecompose/internal/ime"
)

// Palette defines the window colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Primary    color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Border     color.NRGBA
	Composing  color.NRGBA
	Error      color.NRGBA
}

// Config defines the window metrics.
type Config struct {
	CornerRadius unit.Dp
	Spacing      unit.Dp
	Padding      unit.Dp
	SidebarWidth unit.Dp
	FontTitle    unit.Sp
	FontBody     unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with pad-specific styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates a theme for the current OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{Theme: mtheme}

	switch runtime.GOOS {
	case "darwin":
		setupMacOSTheme(t)
	default:
		setupDefaultTheme(t)
	}
	t.sync()
	return t
}

// ApplyStyle takes the text colors from the composition style so plain
// editor text matches the plain layout section.
func (t *Theme) ApplyStyle(s ime.Style) {
	t.Palette.Text = s.Plain
	t.Palette.Composing = s.PreeditFG
	t.sync()
}

func (t *Theme) sync() {
	t.Theme.Palette.Fg = t.Palette.Text
	t.Theme.Palette.Bg = t.Palette.Background
	t.Theme.Palette.ContrastBg = t.Palette.Primary
	t.Theme.TextSize = t.Config.FontBody
}

func setupDefaultTheme(t *Theme) {
	t.Palette = Palette{
		Background: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
		Surface:    color.NRGBA{R: 0x2C, G: 0x2C, B: 0x2C, A: 0xFF},
		Primary:    color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF},
		Text:       color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF},
		Border:     color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xFF},
		Composing:  color.NRGBA{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF},
		Error:      color.NRGBA{R: 0xE8, G: 0x11, B: 0x23, A: 0xFF},
	}

	t.Config = Config{
		CornerRadius: unit.Dp(4),
		Spacing:      unit.Dp(8),
		Padding:      unit.Dp(16),
		SidebarWidth: unit.Dp(200),
		FontTitle:    unit.Sp(20),
		FontBody:     unit.Sp(16),
		FontCaption:  unit.Sp(12),
	}
}

func setupMacOSTheme(t *Theme) {
	setupDefaultTheme(t)
	t.Palette.Background = color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF}
	t.Palette.Surface = color.NRGBA{R: 0x26, G: 0x26, B: 0x26, A: 0xFF}
	t.Palette.Primary = color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0xFF}
	t.Palette.TextMuted = color.NRGBA{R: 0x86, G: 0x86, B: 0x8B, A: 0xFF}

	// macOS corners and spacing run larger.
	t.Config.CornerRadius = unit.Dp(10)
	t.Config.Spacing = unit.Dp(10)
	t.Config.Padding = unit.Dp(20)
	t.Config.FontBody = unit.Sp(15)
}
