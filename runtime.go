package fable

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"
)

// SignalKind identifies a kind of runtime happening.
type SignalKind uint8

const (
	SignalTouch      SignalKind = iota // an event was touched
	SignalRoomChange                   // the avatar entered another room
	SignalRestart                      // the session restarted from its snapshot
	SignalError                        // a script failed or the session errored
)

// Signal carries runtime data for an EventSink.
type Signal struct {
	Kind  SignalKind
	Event *Event // the touched event (SignalTouch)
	Room  int    // destination room index (SignalRoomChange)
	Text  string // error text (SignalError)
}

// EventSink is the interface for optional ECS integration. When set on a
// Session, runtime signals are forwarded to it.
type EventSink interface {
	EmitSignal(signal Signal)
}

// Session is the event scripting runtime for one game session: the live
// project graph, the avatar, dialogue playback, and the sandboxed script
// surface. All per-session state lives here; there are no package globals.
type Session struct {
	// Playback is the dialogue playback driven by say/title behaviors.
	Playback *Playback

	// Invoker runs user-authored touch scripts. nil disables them; events
	// with script fields then fall back to the built-in behaviors.
	Invoker Invoker

	// Sink receives runtime signals when set.
	Sink EventSink

	ctx      context.Context
	snapshot *Project // pristine copy for Restart

	// mu guards everything below. Held briefly; never across a dialogue
	// wait or a script invocation.
	mu        sync.Mutex
	project   *Project
	avatar    *Event
	busy      bool
	errored   bool
	pageColor *Color
	samples   map[string]*sampler
	rng       *rand.Rand
}

// NewSession creates a session over the given project. The project graph is
// mutated during play; a pristine deep copy is kept for Restart. Call Start
// before feeding input.
func NewSession(project *Project, playback *Playback, invoker Invoker) *Session {
	return &Session{
		Playback: playback,
		Invoker:  invoker,
		ctx:      context.Background(),
		snapshot: project.Copy(),
		project:  project,
		samples:  make(map[string]*sampler),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start locates the avatar and begins the session. A project with no event
// tagged "is-player" is fatal: the session enters a persistent error state,
// shows an error dialogue, and ignores input until restarted.
func (s *Session) Start() {
	s.mu.Lock()
	s.avatar = s.findAvatar()
	missing := s.avatar == nil
	s.errored = missing
	s.mu.Unlock()

	if missing {
		s.fail(`no event is tagged "is-player"`)
	}
}

// findAvatar returns the first event tagged "is-player". Caller holds mu.
func (s *Session) findAvatar() *Event {
	for _, e := range AllEvents(s.project) {
		if EventIsTagged(e, "is-player") {
			return e
		}
	}
	return nil
}

// Avatar returns the player event, or nil before Start or in the error
// state.
func (s *Session) Avatar() *Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avatar
}

// Project returns the live (mutated-during-play) project graph.
func (s *Session) Project() *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Room returns the room currently containing the avatar, or nil.
func (s *Session) Room() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.avatar == nil {
		return nil
	}
	return RoomFromEvent(s.project, s.avatar)
}

// Busy reports whether a movement/touch sequence is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Errored reports whether the session is in the persistent error state.
func (s *Session) Errored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errored
}

// PageColor returns the display background color set by the page-color
// behavior, or ok=false if none has been set.
func (s *Session) PageColor() (Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageColor == nil {
		return Color{}, false
	}
	return *s.pageColor, true
}

// Move attempts to step the avatar by (dx, dy). It is a no-op while
// dialogue is showing, while another move or touch is in flight
// (single-flight: the call is dropped, not queued), and in the error state.
//
// The destination is blocked when out of room bounds, a wall, or occupied
// by a solid-tagged event; a blocked move leaves the avatar in place.
// Whether or not the step succeeds, the avatar touches an event at the
// destination cell, or failing that one at its own (possibly unchanged)
// cell, so "standing on" triggers still fire when movement is blocked.
func (s *Session) Move(dx, dy int) {
	s.mu.Lock()
	if s.errored || s.busy || s.avatar == nil || !s.Playback.IsEmpty() {
		s.mu.Unlock()
		return
	}

	room := RoomFromEvent(s.project, s.avatar)
	if room == nil {
		s.mu.Unlock()
		return
	}

	x, y := s.avatar.Position[0], s.avatar.Position[1]
	tx, ty := x+dx, y+dy

	blocked := tx < 0 || ty < 0 || tx >= RoomSize || ty >= RoomSize
	if !blocked && room.Wallmap[ty][tx] != 0 {
		blocked = true
	}
	if !blocked {
		for _, e := range EventsAt(room.Events, tx, ty, s.avatar) {
			if EventIsTagged(e, "solid") {
				blocked = true
				break
			}
		}
	}

	if !blocked {
		s.avatar.Position = [2]int{tx, ty}
	}

	var target *Event
	if evs := EventsAt(room.Events, tx, ty, s.avatar); len(evs) > 0 {
		target = evs[0]
	} else if evs := EventsAt(room.Events, s.avatar.Position[0], s.avatar.Position[1], s.avatar); len(evs) > 0 {
		target = evs[0]
	}

	if target == nil {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		}()
		s.dispatch(target)
	}()
}

// Advance forwards an input tap to the dialogue: reveal the rest of a
// partially-revealed page, or move on from a fully-revealed one. Ignored in
// the error state so the error dialogue stays up.
func (s *Session) Advance() {
	if s.Errored() {
		return
	}
	s.Playback.Skip()
}

// Update advances the dialogue playback by dt seconds.
func (s *Session) Update(dt float64) {
	s.Playback.Update(dt)
}

// dispatch runs an event's touch handling: its script field through the
// Invoker when present, the built-in behavior chain otherwise. Runs off the
// frame goroutine; behaviors may block on dialogue dismissal.
func (s *Session) dispatch(target *Event) {
	s.emit(Signal{Kind: SignalTouch, Event: target})

	if src, ok := fieldString(target, "touch", FieldScript); ok && s.Invoker != nil {
		if err := s.Invoker.Run(s.ctx, src, s.Namespace(target)); err != nil {
			s.scriptError(err)
		}
		return
	}

	s.runBehaviors(target)
}

// runBehaviors is the fixed built-in behavior chain. Each step is skipped
// silently when its triggering field is absent.
func (s *Session) runBehaviors(target *Event) {
	if hex, ok := fieldString(target, "page-color", FieldText); ok {
		s.setPageColor(hex)
	}
	if text, ok := fieldString(target, "title", FieldDialogue); ok {
		s.Title(text)
	}
	if text, ok := fieldString(target, "say", FieldDialogue); ok {
		s.Say(text)
	}
	if f, ok := OneField(target, "exit", FieldLocation); ok {
		if loc, ok := f.Data.(Location); ok {
			s.Exit(loc)
		}
	}
	if EventIsTagged(target, "one-time") {
		s.RemoveEvent(target)
	}
	if text, ok := fieldString(target, "ending", FieldDialogue); ok {
		s.runEnding(text)
		return
	}
	if f, ok := OneField(target, "set-avatar", FieldTile); ok {
		if tile, ok := f.Data.(int); ok {
			s.SetAvatarGraphic(tile)
		}
	}
}

// Say queues dialogue text with the playback defaults.
func (s *Session) Say(text string) {
	s.Playback.Queue(text, nil)
}

// Title queues dialogue centered on the display over a dimmed background,
// used for chapter titles and similar.
func (s *Session) Title(text string) {
	dim := Color{0, 0, 0, 0.75}
	s.Playback.Queue(text, &Options{
		AnchorY:         0.5,
		BackgroundColor: &dim,
	})
}

// Exit teleports the avatar to the given location, crossing rooms when
// needed.
func (s *Session) Exit(loc Location) {
	s.mu.Lock()
	if s.avatar == nil {
		s.mu.Unlock()
		return
	}
	MoveEvent(s.project, s.avatar, loc)
	s.mu.Unlock()
	s.emit(Signal{Kind: SignalRoomChange, Room: loc.Room})
}

// RemoveEvent deletes the event from its room.
func (s *Session) RemoveEvent(target *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := RoomFromEvent(s.project, target)
	if room == nil {
		return
	}
	kept := room.Events[:0]
	for _, e := range room.Events {
		if e != target {
			kept = append(kept, e)
		}
	}
	room.Events = kept
}

// SetAvatarGraphic replaces the avatar's graphic field with the given tile.
func (s *Session) SetAvatarGraphic(tile int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.avatar != nil {
		ReplaceFields(s.avatar, "graphic", FieldTile, tile)
	}
}

// runEnding shows the final text over a dimmed background, waits for it to
// be dismissed, and restarts the game.
func (s *Session) runEnding(text string) {
	dim := Color{0, 0, 0, 0.9}
	done := s.Playback.Queue(text, &Options{
		AnchorY:         0.5,
		BackgroundColor: &dim,
	})
	<-done
	s.Restart()
}

// setPageColor records the display background color behavior. Invalid hex
// is ignored.
func (s *Session) setPageColor(hex string) {
	c, ok := ParseHexColor(hex)
	if !ok {
		debugf("page-color %q is not a valid hex color", hex)
		return
	}
	s.mu.Lock()
	s.pageColor = &c
	s.mu.Unlock()
}

// Sample pulls the next value from the memoized generator for id, creating
// it on first use with the given mode ("shuffle", "cycle", or "sequence")
// and values. Later calls for the same id reuse the original mode and
// values.
func (s *Session) Sample(id, mode string, values ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.samples[id]
	if !ok {
		sm = newSampler(ParseSampleMode(mode), values, s.rng)
		s.samples[id] = sm
	}
	return sm.next()
}

// Restart rewinds the session to its loaded snapshot: dialogue cleared,
// sample generators forgotten, project graph restored, avatar relocated.
func (s *Session) Restart() {
	s.Playback.Clear()

	s.mu.Lock()
	s.project = s.snapshot.Copy()
	s.samples = make(map[string]*sampler)
	s.pageColor = nil
	s.avatar = s.findAvatar()
	s.errored = s.avatar == nil
	missing := s.errored
	s.mu.Unlock()

	if missing {
		s.fail(`no event is tagged "is-player"`)
		return
	}
	s.emit(Signal{Kind: SignalRestart})
}

// scriptError surfaces a failed script invocation as a one-shot error
// dialogue. It does not set the persistent error state; later touches and
// scripts run normally.
func (s *Session) scriptError(err error) {
	debugf("script failed: %v", err)
	s.errorDialogue(err.Error())
	s.emit(Signal{Kind: SignalError, Text: err.Error()})
}

// fail reports a fatal session error. The caller has already set the
// errored flag; this surfaces the persistent dialogue.
func (s *Session) fail(text string) {
	log.Printf("fable: session error: %s", text)
	s.errorDialogue(text)
	s.emit(Signal{Kind: SignalError, Text: text})
}

// errorDialogue queues text in the distinct error styling: red panel,
// instant reveal.
func (s *Session) errorDialogue(text string) {
	red := Color{0.5, 0, 0, 1}
	s.Playback.Queue(text, &Options{
		Lines:         4,
		PanelColor:    &red,
		RevealInstant: true,
	})
}

// emit forwards a signal to the sink, if any. Never called with mu held.
func (s *Session) emit(signal Signal) {
	if s.Sink != nil {
		s.Sink.EmitSignal(signal)
	}
}

// fieldString returns the string payload of the first matching field.
func fieldString(event *Event, key string, fieldType FieldType) (string, bool) {
	f, ok := OneField(event, key, fieldType)
	if !ok {
		return "", false
	}
	str, ok := f.Data.(string)
	return str, ok
}
