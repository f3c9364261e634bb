package fable

import (
	"encoding/json"
	"fmt"
)

// Tileset maps tile ids to source regions within a single sheet image laid
// out as a fixed grid. Tile id 0 is "empty" and is never drawn; ids count
// from 1 in reading order.
type Tileset struct {
	tileSize int
	columns  int
	count    int
	names    map[string]int
}

// TileSize returns the width and height of one tile in pixels.
func (t *Tileset) TileSize() int {
	return t.tileSize
}

// Count returns the number of tiles in the set.
func (t *Tileset) Count() int {
	return t.count
}

// Region returns the source rect for the given tile id, or ok=false for id
// 0 and out-of-range ids.
func (t *Tileset) Region(id int) (Rect, bool) {
	if id <= 0 || id > t.count {
		return Rect{}, false
	}
	col := (id - 1) % t.columns
	row := (id - 1) / t.columns
	size := float64(t.tileSize)
	return Rect{
		X:      float64(col) * size,
		Y:      float64(row) * size,
		Width:  size,
		Height: size,
	}, true
}

// Named returns the tile id registered under the given name, or ok=false.
// Names let project data refer to avatar graphics and the like
// symbolically.
func (t *Tileset) Named(name string) (int, bool) {
	id, ok := t.names[name]
	return id, ok
}

// jsonTileset is the on-disk tileset description.
type jsonTileset struct {
	TileSize int            `json:"tileSize"`
	Columns  int            `json:"columns"`
	Count    int            `json:"count"`
	Names    map[string]int `json:"names"`
}

// LoadTileset parses tileset JSON. The sheet image itself is supplied
// separately at render time, like font pages.
func LoadTileset(jsonData []byte) (*Tileset, error) {
	var jt jsonTileset
	if err := json.Unmarshal(jsonData, &jt); err != nil {
		return nil, fmt.Errorf("fable: failed to parse tileset JSON: %w", err)
	}
	if jt.TileSize <= 0 {
		return nil, fmt.Errorf("fable: tileset JSON missing tileSize")
	}
	if jt.Columns <= 0 {
		return nil, fmt.Errorf("fable: tileset JSON missing columns")
	}
	if jt.Count <= 0 {
		return nil, fmt.Errorf("fable: tileset JSON missing count")
	}
	for name, id := range jt.Names {
		if id <= 0 || id > jt.Count {
			return nil, fmt.Errorf("fable: tileset name %q refers to invalid tile %d", name, id)
		}
	}
	return &Tileset{
		tileSize: jt.TileSize,
		columns:  jt.Columns,
		count:    jt.Count,
		names:    jt.Names,
	}, nil
}
