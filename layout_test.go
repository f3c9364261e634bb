package fable

import (
	"strings"
	"testing"
)

// monoFont builds a monospaced font covering printable ASCII with the given
// advance, for layout math in whole units.
func monoFont(advance float64) *Font {
	glyphs := make(map[rune]GlyphMetric)
	for r := rune(32); r < 127; r++ {
		glyphs[r] = GlyphMetric{
			Rect:    Rect{X: float64(r-32) * advance, Y: 0, Width: advance, Height: 8},
			Spacing: advance,
		}
	}
	return NewFont(8, glyphs)
}

func layoutScript(t *testing.T, script string, cfg LayoutConfig) []Page {
	t.Helper()
	return Paginate(Tokenize(ParseFakedown(script)), cfg)
}

func pageText(page Page) string {
	var sb strings.Builder
	for _, g := range page {
		sb.WriteRune(g.Char)
	}
	return sb.String()
}

func lineText(page Page, line int) string {
	var sb strings.Builder
	for _, g := range page {
		if g.Line == line {
			sb.WriteRune(g.Char)
		}
	}
	return sb.String()
}

func countGlyphs(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	return n
}

func TestPaginate_Empty(t *testing.T) {
	pages := layoutScript(t, "", LayoutConfig{Font: monoFont(1), LineWidth: 10, LineCount: 2})
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if len(pages[0]) != 0 {
		t.Errorf("expected empty page, got %d glyphs", len(pages[0]))
	}
}

func TestPaginate_RoundTrip(t *testing.T) {
	// With no markup and no wrapping, glyph count equals code point count.
	script := "hello world"
	pages := layoutScript(t, script, LayoutConfig{Font: monoFont(1), LineWidth: 100, LineCount: 2})
	if got := countGlyphs(pages); got != len([]rune(script)) {
		t.Errorf("glyph count = %d, want %d", got, len([]rune(script)))
	}
}

func TestPaginate_GreedyWrap(t *testing.T) {
	// 5 words of 4 chars, width 9: "aaaa bbbb" fits per line (9 units),
	// the wrap space is consumed.
	script := "aaaa bbbb cccc dddd eeee"
	pages := layoutScript(t, script, LayoutConfig{Font: monoFont(1), LineWidth: 9, LineCount: 3})
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	wantLines := []string{"aaaa bbbb", "cccc dddd", "eeee"}
	for i, want := range wantLines {
		if got := lineText(pages[0], i); got != want {
			t.Errorf("line %d = %q, want %q", i, got, want)
		}
	}
	// No line's advance exceeds the line width.
	for _, g := range pages[0] {
		if g.Position.X >= 9 {
			t.Errorf("glyph %q at x=%v exceeds line width", g.Char, g.Position.X)
		}
	}
}

func TestPaginate_WrapSpaceConsumed(t *testing.T) {
	script := "aa bb"
	pages := layoutScript(t, script, LayoutConfig{Font: monoFont(1), LineWidth: 3, LineCount: 2})
	// The space at the wrap point is dropped: 4 glyphs, not 5.
	if got := countGlyphs(pages); got != 4 {
		t.Errorf("glyph count = %d, want 4", got)
	}
	if got := lineText(pages[0], 0); got != "aa" {
		t.Errorf("line 0 = %q, want %q", got, "aa")
	}
	if got := lineText(pages[0], 1); got != "bb" {
		t.Errorf("line 1 = %q, want %q", got, "bb")
	}
}

func TestPaginate_LongSpanFallback(t *testing.T) {
	// A single unbreakable "word" wider than the line must split across
	// lines rather than stall.
	script := strings.Repeat("x", 25)
	pages := layoutScript(t, script, LayoutConfig{Font: monoFont(1), LineWidth: 10, LineCount: 2})
	if got := countGlyphs(pages); got != 25 {
		t.Fatalf("glyph count = %d, want 25", got)
	}
	for _, p := range pages {
		for _, g := range p {
			if g.Position.X >= 10 {
				t.Errorf("glyph at x=%v exceeds line width", g.Position.X)
			}
		}
	}
	// 25 chars at width 10: lines of 10, 10, 5 over two 2-line pages.
	if len(pages) != 2 {
		t.Errorf("expected 2 pages, got %d", len(pages))
	}
	if got := lineText(pages[0], 0); len(got) != 10 {
		t.Errorf("line 0 holds %d glyphs, want 10", len(got))
	}
	if got := lineText(pages[1], 0); len(got) != 5 {
		t.Errorf("page 2 line 0 holds %d glyphs, want 5", len(got))
	}
}

func TestPaginate_OversizeGlyph(t *testing.T) {
	// A single glyph wider than the whole line must still land on a line
	// of its own instead of stalling the layout.
	font := monoFont(12)
	pages := layoutScript(t, "W", LayoutConfig{Font: font, LineWidth: 10, LineCount: 2})
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if got := countGlyphs(pages); got != 1 {
		t.Fatalf("glyph count = %d, want 1", got)
	}
	if g := pages[0][0]; g.Line != 0 || g.Position.X != 0 {
		t.Errorf("glyph landed at line %d x=%v, want line 0 x=0", g.Line, g.Position.X)
	}

	// A run of such glyphs takes one line each.
	pages = layoutScript(t, "WWW", LayoutConfig{Font: font, LineWidth: 10, LineCount: 2})
	if got := countGlyphs(pages); got != 3 {
		t.Fatalf("glyph count = %d, want 3", got)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	for _, p := range pages {
		for _, g := range p {
			if g.Position.X != 0 {
				t.Errorf("glyph at x=%v, each oversize glyph starts its own line", g.Position.X)
			}
		}
	}
}

func TestPaginate_LineIndexInvariant(t *testing.T) {
	script := strings.Repeat("word ", 30)
	lineCount := 3
	pages := layoutScript(t, script, LayoutConfig{Font: monoFont(1), LineWidth: 12, LineCount: lineCount})
	for pi, p := range pages {
		for _, g := range p {
			if g.Line < 0 || g.Line >= lineCount {
				t.Fatalf("page %d glyph %q on line %d, want < %d", pi, g.Char, g.Line, lineCount)
			}
		}
	}
}

func TestPaginate_StyleScoping(t *testing.T) {
	pages := layoutScript(t, "{+shk}ab{-shk}c", LayoutConfig{Font: monoFont(1), LineWidth: 100, LineCount: 2})
	page := pages[0]
	if len(page) != 3 {
		t.Fatalf("expected 3 glyphs, got %d", len(page))
	}
	if !page[0].Styles.Has("shk") || !page[1].Styles.Has("shk") {
		t.Error("glyphs 'a','b' should carry shk")
	}
	if page[2].Styles.Has("shk") {
		t.Error("glyph 'c' should not carry shk")
	}
}

func TestPaginate_StyleAssignment(t *testing.T) {
	pages := layoutScript(t, "{clr=#f00}a{-clr}b", LayoutConfig{Font: monoFont(1), LineWidth: 100, LineCount: 2})
	page := pages[0]
	if v, ok := page[0].Styles["clr"]; !ok || v != "#f00" {
		t.Errorf("glyph 'a' clr = %q, %v; want \"#f00\", true", v, ok)
	}
	if page[1].Styles.Has("clr") {
		t.Error("glyph 'b' should not carry clr")
	}
}

func TestPaginate_ExplicitBreaks(t *testing.T) {
	pages := layoutScript(t, "a{br}b{pg}c", LayoutConfig{Font: monoFont(1), LineWidth: 100, LineCount: 2})
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if got := lineText(pages[0], 0); got != "a" {
		t.Errorf("page 0 line 0 = %q, want %q", got, "a")
	}
	if got := lineText(pages[0], 1); got != "b" {
		t.Errorf("page 0 line 1 = %q, want %q", got, "b")
	}
	if got := lineText(pages[1], 0); got != "c" {
		t.Errorf("page 1 line 0 = %q, want %q", got, "c")
	}
}

func TestPaginate_VerticalPositions(t *testing.T) {
	font := monoFont(1) // lineHeight 8
	pages := layoutScript(t, "a\nb", LayoutConfig{Font: font, LineWidth: 100, LineCount: 2, LineGap: 4})
	page := pages[0]
	if page[0].Position.Y != 0 {
		t.Errorf("line 0 glyph y = %v, want 0", page[0].Position.Y)
	}
	if page[1].Position.Y != 12 {
		t.Errorf("line 1 glyph y = %v, want 12 (lineHeight+lineGap)", page[1].Position.Y)
	}
}

func TestPaginate_EndToEnd(t *testing.T) {
	pages := layoutScript(t, "hello {+rbw}world{-rbw}{pg}second page",
		LayoutConfig{Font: monoFont(1), LineWidth: 100, LineCount: 2})

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if got := lineText(pages[0], 0); got != "hello world" {
		t.Errorf("page 1 line 0 = %q, want %q", got, "hello world")
	}
	if got := lineText(pages[0], 1); got != "" {
		t.Errorf("page 1 line 1 = %q, want empty", got)
	}
	// "hello " unstyled, "world" rainbow.
	for i, g := range pages[0] {
		wantRbw := i >= 6
		if g.Styles.Has("rbw") != wantRbw {
			t.Errorf("glyph %d (%q) rbw = %v, want %v", i, g.Char, g.Styles.Has("rbw"), wantRbw)
		}
	}
	if got := lineText(pages[1], 0); got != "second page" {
		t.Errorf("page 2 line 0 = %q, want %q", got, "second page")
	}
	if got := lineText(pages[1], 1); got != "" {
		t.Errorf("page 2 line 1 = %q, want empty", got)
	}
}

func TestApplyStyle(t *testing.T) {
	styles := make(StyleSet)
	applyStyle(styles, "+shk")
	if !styles.Has("shk") {
		t.Error("+shk should add shk")
	}
	applyStyle(styles, "clr=#fff")
	if styles["clr"] != "#fff" {
		t.Errorf("clr = %q, want #fff", styles["clr"])
	}
	applyStyle(styles, "-shk")
	if styles.Has("shk") {
		t.Error("-shk should remove shk")
	}
	// Unknown bare directives are stored verbatim as flags.
	applyStyle(styles, "mystery")
	if !styles.Has("mystery") {
		t.Error("bare directive should be stored as a flag")
	}
}

func TestPaginate_StyleSnapshotsIndependent(t *testing.T) {
	// Each glyph snapshots the active set; later directives must not leak
	// into earlier glyphs.
	pages := layoutScript(t, "{+shk}a{+wvy}b", LayoutConfig{Font: monoFont(1), LineWidth: 100, LineCount: 2})
	page := pages[0]
	if page[0].Styles.Has("wvy") {
		t.Error("glyph 'a' should not see the later wvy directive")
	}
	if !page[1].Styles.Has("shk") || !page[1].Styles.Has("wvy") {
		t.Error("glyph 'b' should carry both shk and wvy")
	}
}
