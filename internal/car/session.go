package car

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chaz8081/carctl/internal/ble"
)

// State is the pairing state of the session. Exactly one session exists per
// process; the control loop reads the state to pick its branch.
type State int

const (
	// StateScanning is the initial and recovery state: no target, no link.
	StateScanning State = iota
	// StateConnecting means a connect request for the target is in flight.
	StateConnecting
	// StateResolving means the link is up and GATT resolution is running.
	StateResolving
	// StateSubscribing means notification registration is in progress.
	StateSubscribing
	// StatePaired is the steady state: frames may be written.
	StatePaired
	// StateDisconnecting is the abrupt recovery path through a radio restart.
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateResolving:
		return "resolving"
	case StateSubscribing:
		return "subscribing"
	case StatePaired:
		return "paired"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotPaired is returned by WriteFrame outside the paired state.
var ErrNotPaired = errors.New("car: not paired")

// Handles are the characteristic endpoints resolved during pairing. Control
// is mandatory; Telemetry and Battery are nil when the vehicle does not
// expose them.
type Handles struct {
	Control   ble.Characteristic
	Telemetry ble.Characteristic
	Battery   ble.Characteristic
}

// Session owns the connection lifecycle for a single vehicle: the pairing
// state, the latched target address, and the resolved characteristic handles.
// The tinygo stack fires advertisement and disconnect callbacks on its own
// goroutines, so every transition runs under one mutex covering state, target
// and handles as a unit. Handles are non-zero exactly while the state is
// subscribing or paired.
type Session struct {
	adapter ble.Adapter
	matcher Matcher
	sink    *Telemetry

	mu      sync.Mutex
	state   State
	target  string // "" = unset
	conn    ble.Connection
	handles Handles
}

// NewSession creates a session in the scanning state. sink may be nil when no
// telemetry consumer exists (one-shot sends).
func NewSession(adapter ble.Adapter, matcher Matcher, sink *Telemetry) *Session {
	return &Session{
		adapter: adapter,
		matcher: matcher,
		sink:    sink,
	}
}

// State returns the current pairing state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Target returns the latched target address, or "" when unset.
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SetTarget latches an explicit target address, bypassing discovery. Used by
// one-shot commands where the operator supplies the address.
func (s *Session) SetTarget(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScanning {
		return fmt.Errorf("car: cannot set target while %s", s.state)
	}
	s.target = address
	return nil
}

// HandleAdvertisement feeds one observed advertisement through the matcher.
// While scanning, the first match is latched as the target and true is
// returned so the scanner can stop early; later advertisements are ignored
// until the next disconnect. An advertisement for another peripheral while
// paired is treated as connection loss (the vehicle went out of range and
// something else is shouting on the band) and triggers a radio restart.
func (s *Session) HandleAdvertisement(adv ble.Advertisement) bool {
	s.mu.Lock()
	switch {
	case s.state == StateScanning && s.target == "":
		if !s.matcher.Matches(adv) {
			s.mu.Unlock()
			return false
		}
		s.target = adv.Address
		s.mu.Unlock()
		slog.Info("[car] vehicle found", "addr", adv.Address, "name", adv.Name, "rssi", adv.RSSI)
		return true
	case s.state == StatePaired && adv.Address != s.target:
		s.mu.Unlock()
		slog.Warn("[car] foreign advertisement while paired, assuming vehicle out of range", "addr", adv.Address)
		s.lose()
		return false
	default:
		s.mu.Unlock()
		return false
	}
}

// Pair drives one connection attempt against the latched target:
// connect, resolve the control service, subscribe to optional telemetry and
// battery notifications. Any failure before the paired state clears the
// target and returns the session to scanning; a future advertisement may
// retry the same address.
func (s *Session) Pair(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateScanning || s.target == "" {
		state, target := s.state, s.target
		s.mu.Unlock()
		return fmt.Errorf("car: pair requires a scanned target (state=%s target=%q)", state, target)
	}
	addr := s.target
	s.state = StateConnecting
	s.mu.Unlock()

	slog.Info("[car] connecting", "addr", addr)
	conn, err := s.adapter.Connect(ctx, addr)
	if err != nil {
		s.abortAttempt(nil)
		return fmt.Errorf("car: connect: %w", err)
	}

	// The disconnect callback is registered before any GATT traffic so a link
	// drop at any later point lands in reset(); the staged race checks below
	// notice it and unwind the attempt.
	conn.OnDisconnect(func() {
		slog.Warn("[car] link lost", "addr", addr)
		s.reset()
	})

	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		s.abortAttempt(conn)
		return fmt.Errorf("car: link lost during connect")
	}
	s.state = StateResolving
	s.mu.Unlock()

	handles, err := s.resolve(conn)
	if err != nil {
		s.abortAttempt(conn)
		return err
	}

	// Handles become visible together with the subscribing state.
	s.mu.Lock()
	if s.state != StateResolving {
		// A disconnect callback raced the resolution.
		s.mu.Unlock()
		s.abortAttempt(conn)
		return fmt.Errorf("car: link lost during resolution")
	}
	s.conn = conn
	s.handles = handles
	s.state = StateSubscribing
	s.mu.Unlock()

	s.subscribe(handles)

	s.mu.Lock()
	if s.state != StateSubscribing {
		s.mu.Unlock()
		return fmt.Errorf("car: link lost during subscription")
	}
	s.state = StatePaired
	s.mu.Unlock()

	slog.Info("[car] paired", "addr", addr)
	return nil
}

// resolve enumerates the control service. The control characteristic is
// mandatory; telemetry and battery are optional and their absence degrades to
// a drivable vehicle with no readouts.
func (s *Session) resolve(conn ble.Connection) (Handles, error) {
	var h Handles

	control, err := conn.DiscoverCharacteristic(ble.ControlServiceUUID, ble.ControlCharUUID)
	if err != nil {
		return Handles{}, fmt.Errorf("car: control characteristic: %w", err)
	}
	h.Control = control

	if telemetry, err := conn.DiscoverCharacteristic(ble.ControlServiceUUID, ble.TelemetryCharUUID); err == nil {
		h.Telemetry = telemetry
	} else {
		slog.Debug("[car] no telemetry characteristic", "err", err)
	}

	if battery, err := conn.DiscoverCharacteristic(ble.BatteryServiceUUID, ble.BatteryCharUUID); err == nil {
		h.Battery = battery
	} else {
		slog.Debug("[car] no battery characteristic", "err", err)
	}

	return h, nil
}

// subscribe registers notification callbacks for whichever optional
// characteristics were found, and reads the battery level once if the
// characteristic is readable. Subscription failures degrade silently.
func (s *Session) subscribe(h Handles) {
	if s.sink == nil {
		return
	}
	if h.Telemetry != nil {
		if err := h.Telemetry.Subscribe(s.sink.HandleTelemetry); err != nil {
			slog.Warn("[car] telemetry subscribe failed", "err", err)
		}
	}
	if h.Battery != nil {
		if err := h.Battery.Subscribe(s.sink.HandleBattery); err != nil {
			slog.Warn("[car] battery subscribe failed", "err", err)
		}
		buf := make([]byte, 16)
		if n, err := h.Battery.Read(buf); err == nil && n > 0 {
			s.sink.HandleBattery(buf[:n])
		}
	}
}

// WriteFrame writes one control frame without waiting for a response. A
// failed write is not retried; the next tick's frame supersedes it.
func (s *Session) WriteFrame(frame []byte) error {
	s.mu.Lock()
	if s.state != StatePaired || s.handles.Control == nil {
		s.mu.Unlock()
		return ErrNotPaired
	}
	control := s.handles.Control
	s.mu.Unlock()

	if err := control.Write(frame); err != nil {
		return fmt.Errorf("car: write frame: %w", err)
	}
	return nil
}

// Close disconnects the link if one is up and returns the session to
// scanning.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.handles = Handles{}
	s.target = ""
	s.state = StateScanning
	s.mu.Unlock()

	if conn != nil {
		return conn.Disconnect()
	}
	return nil
}

// reset is the unexpected-disconnect path: invalidate handles and target
// atomically and fall back to scanning. Firing mid-pairing is fine; the
// staged checks in Pair observe the state change and abort.
func (s *Session) reset() {
	s.mu.Lock()
	s.conn = nil
	s.handles = Handles{}
	s.target = ""
	s.state = StateScanning
	s.mu.Unlock()
	slog.Info("[car] state", "state", StateScanning)
}

// lose is the abrupt recovery path: tear the link down, restart the host
// radio to clear stale link state, and fall back to scanning.
func (s *Session) lose() {
	s.mu.Lock()
	s.state = StateDisconnecting
	conn := s.conn
	s.conn = nil
	s.handles = Handles{}
	s.target = ""
	s.mu.Unlock()

	if conn != nil {
		conn.Disconnect()
	}
	if err := s.adapter.Restart(); err != nil {
		slog.Warn("[car] radio restart failed", "err", err)
	}

	s.mu.Lock()
	s.state = StateScanning
	s.mu.Unlock()
	slog.Info("[car] state", "state", StateScanning)
}

// abortAttempt unwinds a failed pairing attempt: the target is cleared so the
// next scan cycle starts fresh, and the half-open link, if any, is dropped.
func (s *Session) abortAttempt(conn ble.Connection) {
	if conn != nil {
		conn.Disconnect()
	}
	s.mu.Lock()
	s.conn = nil
	s.handles = Handles{}
	s.target = ""
	s.state = StateScanning
	s.mu.Unlock()
}
