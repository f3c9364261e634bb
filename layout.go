package fable

// StyleSet is the set of styles active for a glyph, keyed by style name.
// Flag styles ("+shk") map to an empty value; assignment styles ("clr=#fff")
// map to the assigned value. Unknown names are carried verbatim and simply
// have no rendering effect.
type StyleSet map[string]string

// Has reports whether the named flag or assignment style is active.
func (s StyleSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// clone returns an independent copy, or nil for an empty set.
func (s StyleSet) clone() StyleSet {
	if len(s) == 0 {
		return nil
	}
	c := make(StyleSet, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// applyStyle mutates the active style set for one directive: a leading '+'
// adds a flag, a leading '-' removes one, "key=value" sets an entry, and
// anything else is stored verbatim as a flag.
func applyStyle(styles StyleSet, directive string) {
	if directive == "" {
		return
	}
	switch directive[0] {
	case '+':
		styles[directive[1:]] = ""
	case '-':
		delete(styles, directive[1:])
	default:
		for i := 0; i < len(directive); i++ {
			if directive[i] == '=' {
				styles[directive[:i]] = directive[i+1:]
				return
			}
		}
		styles[directive] = ""
	}
}

// Glyph is one laid-out visible character. Position is fixed at layout time;
// Offset, Hidden, and Fill are mutated every frame by playback to apply
// dynamic styles and timed reveal.
type Glyph struct {
	Char     rune
	Rect     Rect // source region within the font page image
	Position Vec2 // page-local pixel position
	Offset   Vec2 // runtime animation jitter
	Hidden   bool
	Fill     Color
	Styles   StyleSet // snapshot of active styles at layout time
	Line     int      // line index within the page, always < LineCount
}

// Page is the ordered glyph sequence for one fixed-height block of lines.
// A page always spans exactly LineCount lines; under-filled trailing lines
// simply have no glyphs.
type Page []Glyph

// LayoutConfig parameterizes Paginate.
type LayoutConfig struct {
	Font      *Font
	LineWidth float64 // maximum advance per line in pixels
	LineCount int     // lines per page
	LineGap   float64 // extra pixels between lines
}

// Paginate lays out a command stream into pages: greedy word wrap with
// backtracking to the nearest breakable glyph, explicit break commands, and
// long-unbreakable-span splitting. Empty input produces one empty page.
func Paginate(commands []Command, cfg LayoutConfig) []Page {
	commands = markLongSpans(commands, cfg)

	l := &layouter{cfg: cfg, styles: make(StyleSet)}

	for len(commands) > 0 {
		idx := findBreakPoint(commands, cfg)
		if idx == -1 {
			// No break point in the remainder: flush it as the final line.
			l.emitLine(commands)
			break
		}

		l.emitLine(commands[:idx])
		bp := commands[idx]
		switch {
		case bp.Kind == CommandBreak && bp.Target == BreakPage:
			l.endPage()
			commands = commands[idx+1:]
		case bp.Kind == CommandBreak:
			l.endLine()
			commands = commands[idx+1:]
		case bp.Char == ' ':
			// A space at a wrap point is consumed silently: no trailing
			// space glyph on the ended line.
			l.endLine()
			commands = commands[idx+1:]
		default:
			// A breakable non-space glyph (from a split long span) starts
			// the next line rather than being consumed.
			if idx == 0 {
				// A single glyph wider than the line overflows alone on
				// its own line, so layout always makes progress.
				l.emitLine(commands[:1])
				l.endLine()
				commands = commands[1:]
				break
			}
			l.endLine()
			commands = commands[idx:]
		}
	}

	// Pad and flush whatever is pending. The guard keeps a script ending
	// exactly on a consumed page break from growing a trailing blank page,
	// while an entirely empty script still yields one empty page.
	if l.line > 0 || len(l.page) > 0 || len(l.pages) == 0 {
		l.endPage()
	}
	return l.pages
}

// findBreakPoint scans forward accumulating glyph advance. It returns the
// index of the first explicit break command, or, on overflow, the index of
// the nearest breakable glyph at or before the overflowing one. -1 means the
// remainder fits with no break.
func findBreakPoint(commands []Command, cfg LayoutConfig) int {
	var width float64
	for i, c := range commands {
		switch c.Kind {
		case CommandBreak:
			return i
		case CommandStyle:
			// zero width
		case CommandGlyph:
			width += cfg.Font.Advance(c.Char)
			if width > cfg.LineWidth {
				for j := i; j >= 0; j-- {
					if commands[j].Kind == CommandGlyph && commands[j].Breakable {
						return j
					}
				}
				// Defensive: cannot happen after markLongSpans, which makes
				// every glyph of an over-wide span breakable.
				return i
			}
		}
	}
	return -1
}

// markLongSpans splits the commands into maximal runs containing no
// break-eligible command. Any run whose summed glyph advance exceeds the
// line width gets every glyph marked breakable, so a single over-wide "word"
// wraps mid-span instead of stalling the layout. Returns a copy when any
// marking occurs; the caller's slice is never mutated.
func markLongSpans(commands []Command, cfg LayoutConfig) []Command {
	copied := false
	mark := func(start, end int) {
		var width float64
		for i := start; i < end; i++ {
			if commands[i].Kind == CommandGlyph {
				width += cfg.Font.Advance(commands[i].Char)
			}
		}
		if width <= cfg.LineWidth {
			return
		}
		if !copied {
			commands = append([]Command(nil), commands...)
			copied = true
		}
		for i := start; i < end; i++ {
			if commands[i].Kind == CommandGlyph {
				commands[i].Breakable = true
			}
		}
	}

	runStart := 0
	for i, c := range commands {
		if c.Kind == CommandBreak || (c.Kind == CommandGlyph && c.Breakable) {
			mark(runStart, i)
			runStart = i + 1
		}
	}
	mark(runStart, len(commands))
	return commands
}

// layouter accumulates glyphs into lines and pages.
type layouter struct {
	cfg    LayoutConfig
	styles StyleSet

	pages   []Page
	page    Page
	line    int // current line index within the page
	cursorX float64
}

// emitLine walks commands in order, appending one glyph per glyph command at
// the running horizontal offset and applying style commands to the active
// style set. It does not end the line; the caller decides that.
func (l *layouter) emitLine(commands []Command) {
	lineY := float64(l.line) * (l.cfg.Font.LineHeight() + l.cfg.LineGap)
	for _, c := range commands {
		switch c.Kind {
		case CommandStyle:
			applyStyle(l.styles, c.Style)
		case CommandGlyph:
			m, ok := l.cfg.Font.Glyph(c.Char)
			if !ok {
				debugf("font has no glyph for %q", c.Char)
			}
			l.page = append(l.page, Glyph{
				Char:     c.Char,
				Rect:     m.Rect,
				Position: Vec2{X: l.cursorX + m.Offset.X, Y: lineY + m.Offset.Y},
				Hidden:   true,
				Fill:     ColorWhite,
				Styles:   l.styles.clone(),
				Line:     l.line,
			})
			l.cursorX += m.Spacing
		}
	}
}

// endLine advances to the next line, flushing the page when the line counter
// wraps at LineCount.
func (l *layouter) endLine() {
	l.line++
	l.cursorX = 0
	if l.line >= l.cfg.LineCount {
		l.pages = append(l.pages, l.page)
		l.page = nil
		l.line = 0
	}
}

// endPage force-advances lines until the page boundary, padding with blank
// lines. Always ends at least one line, so a leading page break produces a
// whole blank page.
func (l *layouter) endPage() {
	for {
		l.endLine()
		if l.line == 0 {
			return
		}
	}
}
