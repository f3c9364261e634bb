package fable

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// GlyphMetric describes one character of a bitmap font: its source region in
// the font page image, its advance width, and an optional draw offset.
type GlyphMetric struct {
	Rect    Rect    // source region within the font page image
	Spacing float64 // horizontal advance
	Offset  Vec2    // draw offset applied at layout time
}

// Font maps codepoints to glyph metrics. Immutable once loaded; the layout
// engine only reads it. The font page image itself is supplied separately at
// render time.
type Font struct {
	lineHeight float64
	glyphs     map[rune]GlyphMetric
}

// NewFont creates a Font from already-computed metrics. The glyphs map is
// used directly; callers must not mutate it afterward.
func NewFont(lineHeight float64, glyphs map[rune]GlyphMetric) *Font {
	return &Font{lineHeight: lineHeight, glyphs: glyphs}
}

// LineHeight returns the vertical distance between lines in pixels.
func (f *Font) LineHeight() float64 {
	return f.lineHeight
}

// Glyph returns the metric for the given rune. ok is false when the font has
// no entry for it; the layout engine then lays out a zero-width placeholder.
func (f *Font) Glyph(r rune) (GlyphMetric, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// Advance returns the advance width for the given rune, or 0 if the font has
// no glyph for it.
func (f *Font) Advance(r rune) float64 {
	return f.glyphs[r].Spacing
}

// MeasureString returns the summed advance of s as a single line. Newlines
// are measured like any other missing glyph; use the layout engine for
// multi-line text.
func (f *Font) MeasureString(s string) float64 {
	var w float64
	for _, r := range s {
		w += f.glyphs[r].Spacing
	}
	return w
}

// LoadFont parses BMFont .fnt text-format data into a Font. Only the metric
// surface the layout engine consumes is read: lineHeight from the common
// block, and per-char source rect, offsets, and xadvance.
func LoadFont(fntData []byte) (*Font, error) {
	f := &Font{glyphs: make(map[rune]GlyphMetric)}

	scanner := bufio.NewScanner(bytes.NewReader(fntData))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tag, rest := splitTag(line)
		fields := parseFields(rest)

		switch tag {
		case "common":
			if v, ok := fields["lineHeight"]; ok {
				f.lineHeight, _ = strconv.ParseFloat(v, 64)
			}

		case "char":
			var id int
			var g GlyphMetric
			if v, ok := fields["id"]; ok {
				id, _ = strconv.Atoi(v)
			}
			g.Rect.X = floatField(fields, "x")
			g.Rect.Y = floatField(fields, "y")
			g.Rect.Width = floatField(fields, "width")
			g.Rect.Height = floatField(fields, "height")
			g.Offset.X = floatField(fields, "xoffset")
			g.Offset.Y = floatField(fields, "yoffset")
			g.Spacing = floatField(fields, "xadvance")
			f.glyphs[rune(id)] = g
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fable: error reading .fnt data: %w", err)
	}

	if f.lineHeight == 0 {
		return nil, fmt.Errorf("fable: .fnt data missing common lineHeight")
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("fable: .fnt data has no char definitions")
	}

	return f, nil
}

// splitTag splits a BMFont line into its tag and the rest of the line.
func splitTag(line string) (string, string) {
	idx := strings.IndexByte(line, ' ')
	if idx == -1 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

// parseFields parses "key=value key=value ..." into a map.
func parseFields(s string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Fields(s) {
		eq := strings.IndexByte(part, '=')
		if eq == -1 {
			continue
		}
		key := part[:eq]
		val := part[eq+1:]
		// Strip quotes from values like face="Arial"
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		fields[key] = val
	}
	return fields
}

func floatField(fields map[string]string, key string) float64 {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	n, _ := strconv.ParseFloat(v, 64)
	return n
}
