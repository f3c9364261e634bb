package fable

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// WhitePixel is a 1x1 white image used for solid-color fills (panel
// backgrounds, the advance marker).
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(ColorWhite)
}

// advance marker pixel art, drawn in the panel's bottom-right corner once a
// page is fully revealed. 5x5 cells, 1 = filled.
var (
	continueMarker = [5][5]int{
		{1, 0, 0, 0, 0},
		{1, 1, 0, 0, 0},
		{1, 1, 1, 0, 0},
		{1, 1, 0, 0, 0},
		{1, 0, 0, 0, 0},
	}
	endMarker = [5][5]int{
		{1, 1, 1, 1, 1},
		{1, 0, 0, 0, 1},
		{1, 0, 1, 0, 1},
		{1, 0, 0, 0, 1},
		{1, 1, 1, 1, 1},
	}
)

// DialogueRenderer composes a Playback's current page into a panel on an
// Ebitengine surface. The renderer holds no per-page state; everything it
// needs is read from the playback each call.
type DialogueRenderer struct {
	// FontPage is the bitmap image glyph source rects refer to.
	FontPage *ebiten.Image
}

// NewDialogueRenderer creates a renderer that reads glyph bitmaps from the
// given font page image.
func NewDialogueRenderer(fontPage *ebiten.Image) *DialogueRenderer {
	return &DialogueRenderer{FontPage: fontPage}
}

// Draw renders the playback's current page onto dst: optional background
// dim, panel rect placed by the anchor options, every non-hidden glyph at
// its laid-out position plus live offset and fill, and an advance marker
// once fully revealed. Draws nothing while the playback is empty.
func (r *DialogueRenderer) Draw(dst *ebiten.Image, p *Playback) {
	page := p.CurrentPage()
	if page == nil {
		return
	}
	opts := p.CurrentOptions()

	bounds := dst.Bounds()
	displayW := float64(bounds.Dx())
	displayH := float64(bounds.Dy())

	lineHeight := p.Font().LineHeight() + opts.LineGap
	panelW := p.LineWidth() + 2*opts.Padding
	panelH := float64(opts.Lines)*lineHeight - opts.LineGap + 2*opts.Padding

	// Anchor interpolation between the extreme top-left positions that keep
	// the panel in bounds, inset by an auto margin from the smaller axis
	// slack.
	slackX := displayW - panelW
	slackY := displayH - panelH
	margin := math.Min(slackX, slackY) / 4
	if margin < 0 {
		margin = 0
	}
	panelX := math.Round(margin + opts.AnchorX*(slackX-2*margin))
	panelY := math.Round(margin + opts.AnchorY*(slackY-2*margin))

	entrance := p.EntranceProgress()
	panelY += (1 - entrance) * 4

	if opts.BackgroundColor != nil {
		fillRect(dst, 0, 0, displayW, displayH, *opts.BackgroundColor)
	}
	fillRect(dst, panelX, panelY, panelW, panelH, *opts.PanelColor)

	textX := panelX + opts.Padding
	textY := panelY + opts.Padding

	for i := range page {
		g := &page[i]
		if g.Hidden || g.Rect.Width == 0 || g.Rect.Height == 0 {
			continue
		}
		src := r.FontPage.SubImage(image.Rect(
			int(g.Rect.X), int(g.Rect.Y),
			int(g.Rect.X+g.Rect.Width), int(g.Rect.Y+g.Rect.Height),
		)).(*ebiten.Image)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(textX+g.Position.X+g.Offset.X, textY+g.Position.Y+g.Offset.Y)
		op.ColorScale.Scale(
			float32(g.Fill.R), float32(g.Fill.G), float32(g.Fill.B), float32(g.Fill.A),
		)
		dst.DrawImage(src, op)
	}

	if p.FullyRevealed() {
		marker := &endMarker
		if p.MorePages() {
			marker = &continueMarker
		}
		drawMarker(dst, marker, panelX+panelW-8, panelY+panelH-8, *opts.TextColor)
	}
}

// fillRect draws a solid rectangle by scaling WhitePixel, the engine's
// solid-color sprite idiom.
func fillRect(dst *ebiten.Image, x, y, w, h float64, c Color) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	dst.DrawImage(WhitePixel, op)
}

// drawMarker draws a 5x5 pixel-art marker cell by cell.
func drawMarker(dst *ebiten.Image, marker *[5][5]int, x, y float64, c Color) {
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			if marker[row][col] == 1 {
				fillRect(dst, x+float64(col), y+float64(row), 1, 1, c)
			}
		}
	}
}
