// Package input models the controller's input surface: momentary directional
// controls and edge-triggered toggles (lights, turbo, donut). The hardware
// original samples debounced GPIO lines; here the same logical state is fed
// from keyboard events with the same toggle semantics: a rising edge flips
// the flag, levels drive the directions every tick.
package input

import (
	"sync"

	"github.com/chaz8081/carctl/internal/car"
)

// Source yields the current input state once per control tick.
type Source interface {
	Snapshot() car.Snapshot
}

// Toggle flips its output on each rising edge of an already-debounced button
// level, mirroring the firmware's turbo/lights buttons.
type Toggle struct {
	last bool
	on   bool
}

// Update feeds the current button level and reports whether the flag flipped.
func (t *Toggle) Update(pressed bool) bool {
	edge := pressed && !t.last
	t.last = pressed
	if edge {
		t.on = !t.on
	}
	return edge
}

// On returns the toggle's current value.
func (t *Toggle) On() bool {
	return t.on
}

// Set forces the toggle value without generating an edge.
func (t *Toggle) Set(on bool) {
	t.on = on
}

// State is a mutable input state shared between an event producer (the TUI)
// and the control loop, which snapshots it once per tick.
type State struct {
	mu sync.Mutex

	forward, backward, left, right bool // logical pressed state

	lights, turbo, donut Toggle
}

// SetDirections sets the momentary directional controls from their logical
// pressed state.
func (s *State) SetDirections(forward, backward, left, right bool) {
	s.mu.Lock()
	s.forward, s.backward, s.left, s.right = forward, backward, left, right
	s.mu.Unlock()
}

// PressLights feeds one press-release edge into the lights toggle and
// returns the new value.
func (s *State) PressLights() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights.Update(true)
	s.lights.Update(false)
	return s.lights.On()
}

// PressTurbo feeds one press-release edge into the turbo toggle and returns
// the new value.
func (s *State) PressTurbo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turbo.Update(true)
	s.turbo.Update(false)
	return s.turbo.On()
}

// PressDonut feeds one press-release edge into the donut toggle and returns
// the new value.
func (s *State) PressDonut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donut.Update(true)
	s.donut.Update(false)
	return s.donut.On()
}

// Snapshot converts the logical state into the wire-facing snapshot. The
// vehicle's switch lines are active low, so a pressed direction reads as a
// low line level.
func (s *State) Snapshot() car.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return car.Snapshot{
		Forward:  !s.forward,
		Backward: !s.backward,
		Left:     !s.left,
		Right:    !s.right,
		Lights:   s.lights.On(),
		Turbo:    s.turbo.On(),
		Donut:    s.donut.On(),
	}
}

// Fixed is a Source that always returns the same snapshot. Used by one-shot
// sends and the headless monitor (neutral frames).
type Fixed car.Snapshot

func (f Fixed) Snapshot() car.Snapshot {
	return car.Snapshot(f)
}

// Neutral returns the all-released snapshot: no direction pressed (lines
// high), all toggles off.
func Neutral() car.Snapshot {
	return car.Snapshot{Forward: true, Backward: true, Left: true, Right: true}
}
