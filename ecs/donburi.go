// Package ecs provides ECS adapters for fable.
package ecs

import (
	"github.com/phanxgames/fable"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SignalEventType is the Donburi event type for fable runtime signals.
// Subscribe to this in your ECS systems to receive touch, room-change,
// restart, and error signals.
var SignalEventType = events.NewEventType[fable.Signal]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Runtime
// signals are published to SignalEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) fable.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitSignal(signal fable.Signal) {
	SignalEventType.Publish(s.world, signal)
}
