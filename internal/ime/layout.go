package ime

import "image/color"

// TextFormat is the visual style of one section of a LayoutJob.
// A zero Background means no fill.
type TextFormat struct {
	Color      color.NRGBA
	Background color.NRGBA
}

// LayoutSection styles the bytes [Start, End) of LayoutJob.Text.
type LayoutSection struct {
	Start  int
	End    int
	Format TextFormat
}

// LayoutJob is a styled run of text handed to the renderer.
type LayoutJob struct {
	Text     string
	Sections []LayoutSection

	// WrapWidth is the maximum line width; 0 disables wrapping.
	WrapWidth float32

	BreakOnNewline bool
}

// Style holds the colors used for field layout.
type Style struct {
	Plain     color.NRGBA
	PreeditFG color.NRGBA
	PreeditBG color.NRGBA
}

// DefaultStyle is white text with the preedit in green on dark green.
func DefaultStyle() Style {
	return Style{
		Plain:     color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		PreeditFG: color.NRGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff},
		PreeditBG: color.NRGBA{R: 0x00, G: 0x80, B: 0x40, A: 0xff},
	}
}

func (s Style) plain() TextFormat   { return TextFormat{Color: s.Plain} }
func (s Style) preedit() TextFormat { return TextFormat{Color: s.PreeditFG, Background: s.PreeditBG} }

// simpleJob lays out text in a single plain section.
func simpleJob(text string, format TextFormat, wrapWidth float32, multiline bool) LayoutJob {
	job := LayoutJob{
		Text:           text,
		Sections:       []LayoutSection{{Start: 0, End: len(text), Format: format}},
		BreakOnNewline: multiline,
	}
	if multiline {
		job.WrapWidth = wrapWidth
	}
	return job
}

// composedJob lays out front, preedit and back as three consecutive
// sections with the preedit highlighted.
func composedJob(front, preedit, back string, style Style, wrapWidth float32, multiline bool) LayoutJob {
	sections := make([]LayoutSection, 0, 3)
	start := 0
	for _, part := range []struct {
		text   string
		format TextFormat
	}{
		{front, style.plain()},
		{preedit, style.preedit()},
		{back, style.plain()},
	} {
		end := start + len(part.text)
		sections = append(sections, LayoutSection{Start: start, End: end, Format: part.format})
		start = end
	}
	return LayoutJob{
		Text:           front + preedit + back,
		Sections:       sections,
		WrapWidth:      wrapWidth,
		BreakOnNewline: multiline,
	}
}
