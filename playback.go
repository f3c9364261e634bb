package fable

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Options configures dialogue presentation. A zero field inherits its value
// from the next level down: per-call options inherit from the playback's
// Options, which inherit from DefaultOptions.
type Options struct {
	AnchorX float64 // 0..1 horizontal panel placement within the display area
	AnchorY float64 // 0..1 vertical panel placement
	Lines   int     // lines per page
	LineGap float64 // pixels between lines
	Padding float64 // pixels around the text inside the panel

	// GlyphRevealDelay is the seconds between glyph reveals. Values <= 0
	// inherit; use RevealInstant for instant reveal.
	GlyphRevealDelay float64

	// RevealInstant shows each page fully revealed immediately.
	RevealInstant bool

	// BackgroundColor dims the whole display behind the panel when set.
	BackgroundColor *Color

	PanelColor *Color
	TextColor  *Color
}

// DefaultOptions returns the built-in presentation defaults.
func DefaultOptions() Options {
	panel := ColorBlack
	text := ColorWhite
	return Options{
		AnchorX:          0.5,
		AnchorY:          0.5,
		Lines:            2,
		LineGap:          4,
		Padding:          8,
		GlyphRevealDelay: 0.05,
		PanelColor:       &panel,
		TextColor:        &text,
	}
}

// merged returns o with zero fields filled from base.
func (o Options) merged(base Options) Options {
	if o.AnchorX == 0 {
		o.AnchorX = base.AnchorX
	}
	if o.AnchorY == 0 {
		o.AnchorY = base.AnchorY
	}
	if o.Lines == 0 {
		o.Lines = base.Lines
	}
	if o.LineGap == 0 {
		o.LineGap = base.LineGap
	}
	if o.Padding == 0 {
		o.Padding = base.Padding
	}
	if o.GlyphRevealDelay <= 0 {
		o.GlyphRevealDelay = base.GlyphRevealDelay
	}
	o.RevealInstant = o.RevealInstant || base.RevealInstant
	if o.BackgroundColor == nil {
		o.BackgroundColor = base.BackgroundColor
	}
	if o.PanelColor == nil {
		o.PanelColor = base.PanelColor
	}
	if o.TextColor == nil {
		o.TextColor = base.TextColor
	}
	return o
}

// entranceDuration is the panel slide-in time in seconds on a page change.
const entranceDuration = 0.1

// queuedPage pairs a laid-out page with its merged presentation options.
// dismissed is non-nil only on the last page of a Queue call; it is closed
// when that page transitions away.
type queuedPage struct {
	glyphs    Page
	options   Options
	dismissed chan struct{}
}

// Playback is the dialogue playback state machine. It holds the page queue,
// reveals the current page's glyphs over time, and applies dynamic per-glyph
// styles (shake, wave, rainbow) every tick.
//
// Playback is safe for use from the frame loop and one script goroutine at a
// time; all exported methods lock internally.
type Playback struct {
	// Options are this playback's defaults, merged over DefaultOptions.
	// Set before the first Queue call.
	Options Options

	// OnPageChange fires on every page transition, including into empty
	// (next is nil). Called with the mutex held; do not call back into the
	// Playback from it.
	OnPageChange func(next Page)

	font      *Font
	lineWidth float64

	mu               sync.Mutex
	queued           []queuedPage
	current          *queuedPage // nil means the Empty state
	pagesSeen        int
	pageTime         float64
	showGlyphCount   int
	showGlyphElapsed float64
	revealDelay      float64 // delay before the next reveal; re-read per glyph
	emptyWaiters     []chan struct{}
	entrance         *gween.Tween
	entranceT        float32
	epoch            time.Time // wall-clock origin for the rainbow style
	rng              *rand.Rand
}

// NewPlayback creates a dialogue playback for the given font and line width
// in pixels.
func NewPlayback(font *Font, lineWidth float64) *Playback {
	return &Playback{
		Options:   DefaultOptions(),
		font:      font,
		lineWidth: lineWidth,
		epoch:     time.Now(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Font returns the font the playback lays out text with.
func (p *Playback) Font() *Font {
	return p.font
}

// LineWidth returns the maximum text advance per line in pixels.
func (p *Playback) LineWidth() float64 {
	return p.lineWidth
}

// Queue tokenizes and paginates script, appends the resulting pages to the
// queue, and returns a channel that is closed once the last page produced by
// this call has been dismissed. If the playback is empty, the first page is
// shown immediately.
//
// Queue calls are FIFO: pages from an earlier call are always shown before
// pages from a later one.
func (p *Playback) Queue(script string, opts *Options) <-chan struct{} {
	merged := p.Options.merged(DefaultOptions())
	if opts != nil {
		merged = opts.merged(merged)
	}

	commands := Tokenize(ParseFakedown(script))
	pages := Paginate(commands, LayoutConfig{
		Font:      p.font,
		LineWidth: p.lineWidth,
		LineCount: merged.Lines,
		LineGap:   merged.LineGap,
	})

	done := make(chan struct{})

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, page := range pages {
		qp := queuedPage{glyphs: page, options: merged}
		if i == len(pages)-1 {
			qp.dismissed = done
		}
		p.queued = append(p.queued, qp)
	}
	if p.current == nil {
		p.moveToNextPage()
	}
	return done
}

// Update advances reveal timers by dt seconds and recomputes dynamic glyph
// presentation. No-op while empty.
func (p *Playback) Update(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}

	p.pageTime += dt
	if p.entrance != nil {
		v, done := p.entrance.Update(float32(dt))
		p.entranceT = v
		if done {
			p.entrance = nil
		}
	}

	p.applyGlyphStyles()

	page := p.current.glyphs
	if p.current.options.RevealInstant {
		p.showGlyphCount = len(page)
	} else {
		p.showGlyphElapsed += dt
		for p.showGlyphElapsed > p.revealDelay && p.showGlyphCount < len(page) {
			p.showGlyphElapsed -= p.revealDelay
			p.showGlyphCount++
			// Re-read the delay: a revealed glyph's delay style overrides
			// the configured cadence for the glyph after it.
			p.revealDelay = p.current.options.GlyphRevealDelay
			if v, ok := page[p.showGlyphCount-1].Styles["delay"]; ok {
				if d, err := strconv.ParseFloat(v, 64); err == nil && d > 0 {
					p.revealDelay = d
				}
			}
			p.applyGlyphStyles()
		}
	}

	p.applyGlyphStyles()
}

// applyGlyphStyles recomputes hidden state, fill color, and animation offset
// for every glyph of the current page. Caller holds the mutex.
func (p *Playback) applyGlyphStyles() {
	opts := p.current.options
	page := p.current.glyphs
	now := time.Since(p.epoch).Seconds()

	for i := range page {
		g := &page[i]

		g.Hidden = i >= p.showGlyphCount
		if g.Styles.Has("r") {
			// "reveal always": shown even before its natural turn.
			g.Hidden = false
		}

		g.Fill = *opts.TextColor
		if v, ok := g.Styles["clr"]; ok {
			if c, ok := ParseHexColor(v); ok {
				g.Fill = c
			}
		}

		g.Offset = Vec2{}
		if g.Styles.Has("shk") {
			g.Offset = Vec2{
				X: float64(p.rng.Intn(3) - 1),
				Y: float64(p.rng.Intn(3) - 1),
			}
		}
		if g.Styles.Has("wvy") {
			g.Offset.Y += math.Sin(float64(i)+p.pageTime*5) * 3
		}
		if g.Styles.Has("rbw") {
			// Hue cycles on wall-clock time, independent of pageTime, so
			// rainbow text keeps moving across page changes.
			g.Fill = HueColor(float64(i)*0.1 + now)
		}
	}
}

// FullyRevealed reports whether every glyph of the current page is shown.
// True while empty.
func (p *Playback) FullyRevealed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == nil || p.showGlyphCount >= len(p.current.glyphs)
}

// IsEmpty reports whether there is no current page.
func (p *Playback) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == nil
}

// MorePages reports whether further pages are queued behind the current one.
func (p *Playback) MorePages() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queued) > 0
}

// PagesSeen returns how many page transitions have occurred since the last
// Clear.
func (p *Playback) PagesSeen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pagesSeen
}

// CurrentPage returns the glyphs of the page being shown, or nil while
// empty. The slice is live: playback mutates Hidden, Offset, and Fill every
// tick.
func (p *Playback) CurrentPage() Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	return p.current.glyphs
}

// CurrentOptions returns the merged presentation options for the page being
// shown, or the playback defaults while empty.
func (p *Playback) CurrentOptions() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return p.Options.merged(DefaultOptions())
	}
	return p.current.options
}

// EntranceProgress returns the panel slide-in progress in [0, 1] for the
// current page.
func (p *Playback) EntranceProgress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return 0
	}
	return float64(p.entranceT)
}

// Skip reveals the rest of a partially-revealed page without advancing.
// On a fully-revealed page it advances to the next page instead.
func (p *Playback) Skip() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	if p.showGlyphCount < len(p.current.glyphs) {
		p.showGlyphCount = len(p.current.glyphs)
		p.applyGlyphStyles()
		return
	}
	p.moveToNextPage()
}

// MoveToNextPage shifts the queue, making its head the current page (or
// entering the Empty state when the queue is exhausted).
func (p *Playback) MoveToNextPage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moveToNextPage()
}

// moveToNextPage is the locked implementation shared by Queue, Skip, and
// MoveToNextPage.
func (p *Playback) moveToNextPage() {
	prev := p.current
	if len(p.queued) > 0 {
		head := p.queued[0]
		p.queued[0] = queuedPage{}
		p.queued = p.queued[1:]
		p.current = &head
	} else {
		p.current = nil
	}
	p.pagesSeen++
	p.pageTime = 0
	p.showGlyphCount = 0
	p.showGlyphElapsed = 0
	p.entrance = gween.New(0, 1, entranceDuration, ease.OutQuad)
	p.entranceT = 0

	if p.current != nil {
		p.revealDelay = p.current.options.GlyphRevealDelay
		p.applyGlyphStyles()
	}

	if prev != nil && prev.dismissed != nil {
		close(prev.dismissed)
	}
	if p.current == nil {
		p.signalEmpty()
	}
	if p.OnPageChange != nil {
		if p.current != nil {
			p.OnPageChange(p.current.glyphs)
		} else {
			p.OnPageChange(nil)
		}
	}
}

// Clear discards the queue and the current page and resets the page counter.
// Pending Queue channels and empty waiters for the discarded content are
// closed immediately: a Go caller blocked on a channel that will never close
// is a leak, so discard resolves rather than abandons.
func (p *Playback) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.dismissed != nil {
		close(p.current.dismissed)
	}
	for _, qp := range p.queued {
		if qp.dismissed != nil {
			close(qp.dismissed)
		}
	}
	p.queued = nil
	p.current = nil
	p.pagesSeen = 0
	p.pageTime = 0
	p.showGlyphCount = 0
	p.showGlyphElapsed = 0
	p.signalEmpty()
}

// Empty returns a channel closed when the playback is empty: immediately if
// it already is, otherwise on the next transition into the Empty state.
// Scripts use this to wait for dialogue dismissal without polling.
func (p *Playback) Empty() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan struct{})
	if p.current == nil {
		close(ch)
		return ch
	}
	p.emptyWaiters = append(p.emptyWaiters, ch)
	return ch
}

// signalEmpty closes all pending empty waiters. Caller holds the mutex.
func (p *Playback) signalEmpty() {
	for _, ch := range p.emptyWaiters {
		close(ch)
	}
	p.emptyWaiters = nil
}
