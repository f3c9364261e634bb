package fable

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// RoomRenderer draws a session's current room: background fill from the
// room's palette, the tile grid, events with graphic fields, and the
// overlay grid on top. Rooms are fixed RoomSize x RoomSize, so there is no
// viewport or camera; the room draws at the given origin.
type RoomRenderer struct {
	Tiles *Tileset
	// Sheet is the tile sheet image Tileset regions refer to.
	Sheet *ebiten.Image
}

// NewRoomRenderer creates a renderer over the given tileset and sheet
// image.
func NewRoomRenderer(tiles *Tileset, sheet *ebiten.Image) *RoomRenderer {
	return &RoomRenderer{Tiles: tiles, Sheet: sheet}
}

// palette color roles within Room palettes.
const (
	paletteBackground = 0
	paletteTile       = 1
	paletteHigh       = 2
)

// Draw renders the room at origin (ox, oy) on dst. Layer order: background,
// tilemap, events, highmap. The session's page color, when set, overrides
// the palette background.
func (r *RoomRenderer) Draw(dst *ebiten.Image, s *Session, ox, oy float64) {
	room := s.Room()
	if room == nil {
		return
	}

	project := s.Project()
	size := float64(r.Tiles.TileSize())

	background := ColorBlack
	tileColor := ColorWhite
	highColor := ColorWhite
	if room.Palette >= 0 && room.Palette < len(project.Palettes) {
		colors := project.Palettes[room.Palette].Colors
		if len(colors) > paletteBackground {
			background = colors[paletteBackground]
		}
		if len(colors) > paletteTile {
			tileColor = colors[paletteTile]
		}
		if len(colors) > paletteHigh {
			highColor = colors[paletteHigh]
		}
	}
	if c, ok := s.PageColor(); ok {
		background = c
	}

	fillRect(dst, ox, oy, size*RoomSize, size*RoomSize, background)
	r.drawGrid(dst, &room.Tilemap, tileColor, ox, oy)
	for _, e := range room.Events {
		f, ok := OneField(e, "graphic", FieldTile)
		if !ok {
			continue
		}
		tile, ok := f.Data.(int)
		if !ok {
			continue
		}
		x := ox + float64(e.Position[0])*size
		y := oy + float64(e.Position[1])*size
		r.drawTile(dst, tile, tileColor, x, y)
	}
	r.drawGrid(dst, &room.Highmap, highColor, ox, oy)
}

// drawGrid draws one RoomSize x RoomSize tile layer. Id 0 cells are empty.
func (r *RoomRenderer) drawGrid(dst *ebiten.Image, grid *[RoomSize][RoomSize]int, tint Color, ox, oy float64) {
	size := float64(r.Tiles.TileSize())
	for y := 0; y < RoomSize; y++ {
		for x := 0; x < RoomSize; x++ {
			id := grid[y][x]
			if id == 0 {
				continue
			}
			r.drawTile(dst, id, tint, ox+float64(x)*size, oy+float64(y)*size)
		}
	}
}

// drawTile draws a single tile by id at (x, y), tinted.
func (r *RoomRenderer) drawTile(dst *ebiten.Image, id int, tint Color, x, y float64) {
	rect, ok := r.Tiles.Region(id)
	if !ok {
		debugf("tileset has no tile %d", id)
		return
	}
	src := r.Sheet.SubImage(image.Rect(
		int(rect.X), int(rect.Y),
		int(rect.X+rect.Width), int(rect.Y+rect.Height),
	)).(*ebiten.Image)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.Scale(float32(tint.R), float32(tint.G), float32(tint.B), float32(tint.A))
	dst.DrawImage(src, op)
}
