package fable

import "log"

// Namespace builds the fixed command surface a touch script may call,
// bound to this session and to target, the event whose script is running.
// The same set backs the built-in behaviors, so anything the engine can do
// a script can do.
func (s *Session) Namespace(target *Event) map[string]any {
	return map[string]any{
		// Dialogue. Say and Title enqueue without blocking; WaitDialogue
		// suspends the script until the player dismisses everything queued.
		"Say":          func(text string) { s.Say(text) },
		"Title":        func(text string) { s.Title(text) },
		"WaitDialogue": func() { <-s.Playback.Empty() },

		// The touched event and the player.
		"Event":  func() *Event { return target },
		"Avatar": func() *Event { return s.Avatar() },

		// Field access.
		"Field": func(e *Event, key, fieldType string) any {
			f, ok := OneField(e, key, FieldType(fieldType))
			if !ok {
				return nil
			}
			return f.Data
		},
		"Fields": func(e *Event, key, fieldType string) []any {
			var out []any
			for _, f := range AllFields(e, key, FieldType(fieldType)) {
				out = append(out, f.Data)
			}
			return out
		},
		"SetFields": func(e *Event, key, fieldType string, values ...any) {
			ReplaceFields(e, key, FieldType(fieldType), values...)
		},
		"ClearFields": func(e *Event, key, fieldType string) {
			ClearFields(e, key, FieldType(fieldType))
		},

		// Tags.
		"Tagged": func(e *Event, key string) bool { return EventIsTagged(e, key) },
		"Tag":    func(e *Event, key string) { ReplaceFields(e, key, FieldTag, true) },
		"Untag":  func(e *Event, key string) { ClearFields(e, key, FieldTag) },

		// Lookup.
		"FindEvent": func(tag string) *Event {
			for _, e := range AllEvents(s.Project()) {
				if EventIsTagged(e, tag) {
					return e
				}
			}
			return nil
		},
		"EventByID": func(id int) *Event { return EventByID(s.Project(), id) },

		// World mutation.
		"Exit":      func(room, x, y int) { s.Exit(Location{Room: room, X: x, Y: y}) },
		"Remove":    func() { s.RemoveEvent(target) },
		"SetAvatar": func(tile int) { s.SetAvatarGraphic(tile) },
		"PageColor": func(hex string) { s.setPageColor(hex) },

		// Nested dispatch: run another event's touch behavior from here.
		"Touch": func(e *Event) {
			if e != nil {
				s.dispatch(e)
			}
		},

		// Variables.
		"Sample": func(id, mode string, values ...string) string {
			return s.Sample(id, mode, values...)
		},

		// Misc.
		"Log":     func(args ...any) { log.Println(append([]any{"fable: script:"}, args...)...) },
		"Restart": func() { s.Restart() },
	}
}
