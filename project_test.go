package fable

import "testing"

const testProjectData = `{
	"palettes": [["#000", "#fff", "#f00"]],
	"rooms": [
		{
			"palette": 0,
			"tilemap": [[1, 2], [3]],
			"wallmap": [[0, 0], [0, 9]],
			"events": [
				{
					"id": 0,
					"position": [4, 4],
					"fields": [
						{"key": "is-player", "type": "tag", "data": true},
						{"key": "graphic", "type": "tile", "data": 3}
					]
				},
				{
					"id": 1,
					"position": [5, 4],
					"fields": [
						{"key": "say", "type": "dialogue", "data": "hello"},
						{"key": "touch", "type": "javascript", "data": "Say(\"hi\")"},
						{"key": "exit", "type": "location", "data": {"room": 1, "position": [2, 3]}}
					]
				}
			]
		},
		{"palette": 0, "events": []}
	]
}`

func loadTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := LoadProject([]byte(testProjectData))
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	return p
}

func TestLoadProject(t *testing.T) {
	p := loadTestProject(t)

	if len(p.Rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(p.Rooms))
	}
	if len(p.Palettes) != 1 || len(p.Palettes[0].Colors) != 3 {
		t.Fatal("palette not decoded")
	}
	if p.Palettes[0].Colors[2] != (Color{R: 1, G: 0, B: 0, A: 1}) {
		t.Errorf("palette color 2 = %+v, want red", p.Palettes[0].Colors[2])
	}

	room := p.Rooms[0]
	if room.Tilemap[0][1] != 2 || room.Tilemap[1][0] != 3 {
		t.Error("tilemap rows not copied")
	}
	if room.Tilemap[1][1] != 0 || room.Tilemap[15][15] != 0 {
		t.Error("missing cells should stay zero")
	}
	if room.Wallmap[1][1] != 9 {
		t.Error("wallmap not copied")
	}
	if len(room.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(room.Events))
	}
}

func TestLoadProject_FieldDecoding(t *testing.T) {
	p := loadTestProject(t)
	ev := p.Rooms[0].Events[1]

	f, ok := OneField(ev, "say", FieldDialogue)
	if !ok || f.Data != "hello" {
		t.Errorf("say field = %+v, %v", f, ok)
	}

	// Legacy "javascript" normalizes to the script type.
	f, ok = OneField(ev, "touch", FieldScript)
	if !ok {
		t.Fatal("touch field should decode as a script field")
	}
	if f.Data != `Say("hi")` {
		t.Errorf("script data = %q", f.Data)
	}

	f, ok = OneField(ev, "exit", FieldLocation)
	if !ok {
		t.Fatal("exit field missing")
	}
	if loc := f.Data.(Location); loc != (Location{Room: 1, X: 2, Y: 3}) {
		t.Errorf("exit location = %+v", loc)
	}
}

func TestLoadProject_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"bad palette color", `{"palettes": [["#zzz"]]}`},
		{"oversized grid row", `{"rooms": [{"tilemap": [[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]]}]}`},
		{"mistyped field", `{"rooms": [{"events": [{"id": 0, "fields": [{"key": "graphic", "type": "tile", "data": "nope"}]}]}]}`},
		{"unknown field type", `{"rooms": [{"events": [{"id": 0, "fields": [{"key": "x", "type": "mystery", "data": 1}]}]}]}`},
	}
	for _, tc := range cases {
		if _, err := LoadProject([]byte(tc.data)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestFieldQueries(t *testing.T) {
	ev := &Event{Fields: []Field{
		{Key: "color", Type: FieldText, Data: "red"},
		{Key: "color", Type: FieldText, Data: "blue"},
		{Key: "color", Type: FieldTag, Data: true},
		{Key: "other", Type: FieldText, Data: "x"},
	}}

	if got := AllFields(ev, "color", FieldText); len(got) != 2 {
		t.Errorf("AllFields text = %d fields, want 2", len(got))
	}
	if got := AllFields(ev, "color", ""); len(got) != 3 {
		t.Errorf("AllFields any = %d fields, want 3", len(got))
	}
	f, ok := OneField(ev, "color", FieldText)
	if !ok || f.Data != "red" {
		t.Errorf("OneField should find-first, got %+v", f)
	}
	if _, ok := OneField(ev, "missing", ""); ok {
		t.Error("OneField on a missing key should report false")
	}
	if !EventIsTagged(ev, "color") {
		t.Error("event carries a color tag")
	}
	if EventIsTagged(ev, "other") {
		t.Error("other is text, not a tag")
	}
}

func TestFieldMutators(t *testing.T) {
	ev := &Event{Fields: []Field{
		{Key: "color", Type: FieldText, Data: "red"},
		{Key: "color", Type: FieldText, Data: "blue"},
		{Key: "keep", Type: FieldTag, Data: true},
	}}

	ReplaceFields(ev, "color", FieldText, "green")
	if got := AllFields(ev, "color", FieldText); len(got) != 1 || got[0].Data != "green" {
		t.Errorf("ReplaceFields left %+v", got)
	}
	if !EventIsTagged(ev, "keep") {
		t.Error("unrelated fields must survive ReplaceFields")
	}

	ClearFields(ev, "color", "")
	if got := AllFields(ev, "color", ""); len(got) != 0 {
		t.Errorf("ClearFields left %d fields", len(got))
	}
}

func TestProjectQueries(t *testing.T) {
	p := loadTestProject(t)

	if got := len(AllEvents(p)); got != 2 {
		t.Errorf("AllEvents = %d, want 2", got)
	}
	ev := EventByID(p, 1)
	if ev == nil {
		t.Fatal("EventByID(1) should find the event")
	}
	if EventByID(p, 99) != nil {
		t.Error("EventByID on an unknown id should return nil")
	}
	if room := RoomFromEvent(p, ev); room != p.Rooms[0] {
		t.Error("RoomFromEvent should find room 0")
	}
	if RoomFromEvent(p, &Event{}) != nil {
		t.Error("RoomFromEvent on a foreign event should return nil")
	}
	if got := NextEventID(p); got != 2 {
		t.Errorf("NextEventID = %d, want 2", got)
	}
}

func TestEventsAt(t *testing.T) {
	a := &Event{ID: 0, Position: [2]int{3, 3}}
	b := &Event{ID: 1, Position: [2]int{3, 3}}
	c := &Event{ID: 2, Position: [2]int{4, 3}}
	events := []*Event{a, b, c}

	if got := EventsAt(events, 3, 3); len(got) != 2 {
		t.Errorf("EventsAt(3,3) = %d events, want 2", len(got))
	}
	if got := EventsAt(events, 3, 3, a); len(got) != 1 || got[0] != b {
		t.Error("EventsAt should skip excluded events")
	}
	if got := EventsAt(events, 9, 9); len(got) != 0 {
		t.Errorf("EventsAt(9,9) = %d events, want 0", len(got))
	}
}

func TestMoveEvent(t *testing.T) {
	p := loadTestProject(t)
	ev := EventByID(p, 1)

	MoveEvent(p, ev, Location{Room: 1, X: 7, Y: 8})
	if RoomFromEvent(p, ev) != p.Rooms[1] {
		t.Error("event should now live in room 1")
	}
	if len(p.Rooms[0].Events) != 1 {
		t.Error("event should be removed from room 0")
	}
	if ev.Position != [2]int{7, 8} {
		t.Errorf("position = %v, want [7 8]", ev.Position)
	}

	// An out-of-range room drops the event from every room but still
	// updates the position.
	MoveEvent(p, ev, Location{Room: 99, X: 1, Y: 1})
	if RoomFromEvent(p, ev) != nil {
		t.Error("event should be in no room")
	}
	if ev.Position != [2]int{1, 1} {
		t.Errorf("position = %v, want [1 1]", ev.Position)
	}
}

func TestProjectCopy(t *testing.T) {
	p := loadTestProject(t)
	snap := p.Copy()

	ev := EventByID(p, 0)
	ReplaceFields(ev, "graphic", FieldTile, 9)
	MoveEvent(p, ev, Location{Room: 1, X: 0, Y: 0})
	p.Rooms[0].Tilemap[0][0] = 42

	sev := EventByID(snap, 0)
	if sev == nil {
		t.Fatal("snapshot should contain the event")
	}
	f, _ := OneField(sev, "graphic", FieldTile)
	if f.Data != 3 {
		t.Errorf("snapshot graphic = %v, want 3", f.Data)
	}
	if RoomFromEvent(snap, sev) != snap.Rooms[0] {
		t.Error("snapshot event should remain in room 0")
	}
	if snap.Rooms[0].Tilemap[0][0] != 1 {
		t.Error("snapshot grids must be independent")
	}
}
