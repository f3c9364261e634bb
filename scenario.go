package fable

import (
	"encoding/json"
	"fmt"
)

// scenarioStep represents a single action in a scenario script.
type scenarioStep struct {
	Action string `json:"action"`
	DX     int    `json:"dx,omitempty"`
	DY     int    `json:"dy,omitempty"`
	Text   string `json:"text,omitempty"`
	Ticks  int    `json:"ticks,omitempty"`
}

// scenarioScript is the top-level JSON structure for a scenario.
type scenarioScript struct {
	Steps []scenarioStep `json:"steps"`
}

// Scenario sequences session input across ticks for automated end-to-end
// testing: moves, dialogue advances, waits. Call Step once per tick.
type Scenario struct {
	steps     []scenarioStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScenario parses a JSON scenario script.
//
// Supported actions: "move" (dx/dy), "advance", "say" (text), "wait"
// (ticks), "restart".
func LoadScenario(jsonData []byte) (*Scenario, error) {
	var script scenarioScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("fable: parse scenario: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("fable: parse scenario: no steps")
	}
	return &Scenario{steps: script.Steps}, nil
}

// Done reports whether all steps have been executed and the session has
// gone idle.
func (r *Scenario) Done() bool {
	return r.done
}

// Step advances the scenario by one tick against the given session.
func (r *Scenario) Step(s *Session) {
	if r.done {
		return
	}
	// Let an in-flight touch sequence drain before issuing more input.
	if s.Busy() {
		return
	}
	// Count down wait ticks.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "move":
		s.Move(st.DX, st.DY)
	case "advance":
		s.Advance()
	case "say":
		s.Say(st.Text)
	case "wait":
		r.waitCount = st.Ticks
	case "restart":
		s.Restart()
	default:
		debugf("scenario: unknown action %q", st.Action)
	}
}
