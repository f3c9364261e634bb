package fable

import (
	"encoding/json"
	"fmt"
)

// RoomSize is the fixed width and height of every room in tiles.
const RoomSize = 16

// FieldType is the closed set of field payload types. The string values are
// the on-disk names used by project JSON.
type FieldType string

const (
	FieldTag      FieldType = "tag"      // presence flag; Data is ignored
	FieldTile     FieldType = "tile"     // Data is an int tile id
	FieldDialogue FieldType = "dialogue" // Data is a markup script string
	FieldLocation FieldType = "location" // Data is a Location
	FieldJSON     FieldType = "json"     // Data is arbitrary decoded JSON
	FieldText     FieldType = "text"     // Data is a plain string
	FieldScript   FieldType = "script"   // Data is user script source
	FieldColors   FieldType = "colors"   // Data is a []string of hex colors
)

// normalizeFieldType maps legacy on-disk type names onto the closed set.
// Older project files store script fields as "javascript".
func normalizeFieldType(t FieldType) FieldType {
	if t == "javascript" {
		return FieldScript
	}
	return t
}

// Location identifies a cell in a specific room.
type Location struct {
	Room int
	X, Y int
}

// UnmarshalJSON decodes the on-disk form {"room": n, "position": [x, y]}.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Room     int    `json:"room"`
		Position [2]int `json:"position"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Room = raw.Room
	l.X, l.Y = raw.Position[0], raw.Position[1]
	return nil
}

// Field is one typed key/value entry on an event. Keys are not required to
// be unique; queries find-first or filter-all.
type Field struct {
	Key  string
	Type FieldType
	Data any
}

// Event is a positioned entity within a room, described entirely by its
// fields. IDs are unique across the whole project.
type Event struct {
	ID       int
	Position [2]int
	Fields   []Field
}

// Room is a fixed-size tile grid with events. The three grids are row-major
// [RoomSize][RoomSize] int layers: tile art, overlay art, and walls (nonzero
// blocks movement).
type Room struct {
	Palette int
	Tilemap [RoomSize][RoomSize]int
	Highmap [RoomSize][RoomSize]int
	Wallmap [RoomSize][RoomSize]int
	Events  []*Event
}

// Palette is a set of colors rooms draw with: background, tile, and overlay.
type Palette struct {
	Colors []Color
}

// Project is the in-memory room/event/field object graph the runtime reads
// and mutates. Persistence and editing are external concerns.
type Project struct {
	Rooms    []*Room
	Palettes []Palette
}

// --- Queries (no mutation) ---

// AllFields returns every field on the event with the given key, in order.
// An empty fieldType matches any type.
func AllFields(event *Event, key string, fieldType FieldType) []Field {
	var out []Field
	for _, f := range event.Fields {
		if f.Key == key && (fieldType == "" || f.Type == fieldType) {
			out = append(out, f)
		}
	}
	return out
}

// OneField returns the first field on the event with the given key, or
// ok=false. An empty fieldType matches any type.
func OneField(event *Event, key string, fieldType FieldType) (Field, bool) {
	for _, f := range event.Fields {
		if f.Key == key && (fieldType == "" || f.Type == fieldType) {
			return f, true
		}
	}
	return Field{}, false
}

// EventIsTagged reports whether the event carries a tag-type field with the
// given key.
func EventIsTagged(event *Event, key string) bool {
	_, ok := OneField(event, key, FieldTag)
	return ok
}

// AllEvents returns every event in the project, flattened room by room.
func AllEvents(p *Project) []*Event {
	var out []*Event
	for _, room := range p.Rooms {
		out = append(out, room.Events...)
	}
	return out
}

// RoomFromEvent returns the room containing the event, or nil.
func RoomFromEvent(p *Project, event *Event) *Room {
	for _, room := range p.Rooms {
		for _, e := range room.Events {
			if e == event {
				return room
			}
		}
	}
	return nil
}

// EventByID returns the event with the given id, or nil.
func EventByID(p *Project, id int) *Event {
	for _, room := range p.Rooms {
		for _, e := range room.Events {
			if e.ID == id {
				return e
			}
		}
	}
	return nil
}

// EventsAt returns the events occupying cell (x, y), skipping any events in
// excluding.
func EventsAt(events []*Event, x, y int, excluding ...*Event) []*Event {
	var out []*Event
	for _, e := range events {
		if e.Position[0] != x || e.Position[1] != y {
			continue
		}
		skip := false
		for _, ex := range excluding {
			if e == ex {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, e)
		}
	}
	return out
}

// NextEventID returns an id one past the highest currently assigned,
// guaranteeing project-wide uniqueness.
func NextEventID(p *Project) int {
	max := -1
	for _, e := range AllEvents(p) {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}

// --- Mutators ---

// ReplaceFields deletes every field with the given key and type, then
// appends one new field per value, in call order.
func ReplaceFields(event *Event, key string, fieldType FieldType, values ...any) {
	ClearFields(event, key, fieldType)
	for _, v := range values {
		event.Fields = append(event.Fields, Field{Key: key, Type: fieldType, Data: v})
	}
}

// ClearFields deletes every field with the given key and type. An empty
// fieldType matches any type.
func ClearFields(event *Event, key string, fieldType FieldType) {
	kept := event.Fields[:0]
	for _, f := range event.Fields {
		if f.Key == key && (fieldType == "" || f.Type == fieldType) {
			continue
		}
		kept = append(kept, f)
	}
	event.Fields = kept
}

// MoveEvent relocates the event to the given location: removed from its
// source room's event list, appended to the destination room's, position
// overwritten.
func MoveEvent(p *Project, event *Event, loc Location) {
	if src := RoomFromEvent(p, event); src != nil {
		kept := src.Events[:0]
		for _, e := range src.Events {
			if e != event {
				kept = append(kept, e)
			}
		}
		src.Events = kept
	}
	if loc.Room >= 0 && loc.Room < len(p.Rooms) {
		dst := p.Rooms[loc.Room]
		dst.Events = append(dst.Events, event)
	}
	event.Position = [2]int{loc.X, loc.Y}
}

// Copy returns a deep copy of the project. The runtime snapshots the loaded
// project so Restart can rewind all play-session mutations.
func (p *Project) Copy() *Project {
	c := &Project{Palettes: append([]Palette(nil), p.Palettes...)}
	for i := range c.Palettes {
		c.Palettes[i].Colors = append([]Color(nil), c.Palettes[i].Colors...)
	}
	for _, room := range p.Rooms {
		r := &Room{
			Palette: room.Palette,
			Tilemap: room.Tilemap,
			Highmap: room.Highmap,
			Wallmap: room.Wallmap,
		}
		for _, e := range room.Events {
			ev := &Event{ID: e.ID, Position: e.Position}
			ev.Fields = append(ev.Fields, e.Fields...)
			r.Events = append(r.Events, ev)
		}
		c.Rooms = append(c.Rooms, r)
	}
	return c
}

// --- JSON loading ---

type jsonProject struct {
	Rooms    []jsonRoom `json:"rooms"`
	Palettes [][]string `json:"palettes"`
}

type jsonRoom struct {
	Palette int         `json:"palette"`
	Tilemap [][]int     `json:"tilemap"`
	Highmap [][]int     `json:"highmap"`
	Wallmap [][]int     `json:"wallmap"`
	Events  []jsonEvent `json:"events"`
}

type jsonEvent struct {
	ID       int         `json:"id"`
	Position [2]int      `json:"position"`
	Fields   []jsonField `json:"fields"`
}

type jsonField struct {
	Key  string          `json:"key"`
	Type FieldType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// LoadProject parses project JSON into a Project. Field data is decoded
// per declared type; a field whose data does not match its type is an error.
func LoadProject(jsonData []byte) (*Project, error) {
	var jp jsonProject
	if err := json.Unmarshal(jsonData, &jp); err != nil {
		return nil, fmt.Errorf("fable: failed to parse project JSON: %w", err)
	}

	p := &Project{}
	for _, colors := range jp.Palettes {
		var pal Palette
		for _, hex := range colors {
			c, ok := ParseHexColor(hex)
			if !ok {
				return nil, fmt.Errorf("fable: palette has invalid color %q", hex)
			}
			pal.Colors = append(pal.Colors, c)
		}
		p.Palettes = append(p.Palettes, pal)
	}

	for ri, jr := range jp.Rooms {
		room := &Room{Palette: jr.Palette}
		if err := copyGrid(&room.Tilemap, jr.Tilemap); err != nil {
			return nil, fmt.Errorf("fable: room %d tilemap: %w", ri, err)
		}
		if err := copyGrid(&room.Highmap, jr.Highmap); err != nil {
			return nil, fmt.Errorf("fable: room %d highmap: %w", ri, err)
		}
		if err := copyGrid(&room.Wallmap, jr.Wallmap); err != nil {
			return nil, fmt.Errorf("fable: room %d wallmap: %w", ri, err)
		}
		for _, je := range jr.Events {
			ev := &Event{ID: je.ID, Position: je.Position}
			for _, jf := range je.Fields {
				ft := normalizeFieldType(jf.Type)
				data, err := decodeFieldData(ft, jf.Data)
				if err != nil {
					return nil, fmt.Errorf("fable: event %d field %q: %w", je.ID, jf.Key, err)
				}
				ev.Fields = append(ev.Fields, Field{Key: jf.Key, Type: ft, Data: data})
			}
			room.Events = append(room.Events, ev)
		}
		p.Rooms = append(p.Rooms, room)
	}

	return p, nil
}

// copyGrid copies row-major JSON rows into a fixed room grid. Missing rows
// or cells stay zero; excess ones are an error.
func copyGrid(dst *[RoomSize][RoomSize]int, rows [][]int) error {
	if len(rows) > RoomSize {
		return fmt.Errorf("has %d rows, max %d", len(rows), RoomSize)
	}
	for y, row := range rows {
		if len(row) > RoomSize {
			return fmt.Errorf("row %d has %d cells, max %d", y, len(row), RoomSize)
		}
		for x, v := range row {
			dst[y][x] = v
		}
	}
	return nil
}

// decodeFieldData decodes raw field JSON per the declared field type.
func decodeFieldData(t FieldType, raw json.RawMessage) (any, error) {
	switch t {
	case FieldTag:
		return true, nil
	case FieldTile:
		var v int
		err := json.Unmarshal(raw, &v)
		return v, err
	case FieldDialogue, FieldText, FieldScript:
		var v string
		err := json.Unmarshal(raw, &v)
		return v, err
	case FieldLocation:
		var v Location
		err := json.Unmarshal(raw, &v)
		return v, err
	case FieldColors:
		var v []string
		err := json.Unmarshal(raw, &v)
		return v, err
	case FieldJSON:
		var v any
		err := json.Unmarshal(raw, &v)
		return v, err
	default:
		return nil, fmt.Errorf("unknown field type %q", t)
	}
}
