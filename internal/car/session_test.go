package car

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chaz8081/carctl/internal/ble"
)

var testMatcher = Matcher{NamePrefix: "SL-"}

func TestDiscoverLatchesFirstMatch(t *testing.T) {
	adapter := newMockAdapter(
		ble.Advertisement{Address: "AA:00:00:00:00:01", Name: "JBL Flip"},
		ble.Advertisement{Address: "AA:00:00:00:00:02", Name: "SL-993TURBO"},
		ble.Advertisement{Address: "AA:00:00:00:00:03", Name: "SL-GT500"},
	)
	s := NewSession(adapter, testMatcher, nil)

	addr, err := s.Discover(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if addr != "AA:00:00:00:00:02" {
		t.Errorf("Discover() = %q, want the first matching address", addr)
	}
	if s.Target() != "AA:00:00:00:00:02" {
		t.Errorf("Target() = %q after discover", s.Target())
	}
}

func TestDiscoverMissIsNotAnError(t *testing.T) {
	adapter := newMockAdapter(
		ble.Advertisement{Address: "AA:00:00:00:00:01", Name: "JBL Flip"},
	)
	s := NewSession(adapter, testMatcher, nil)

	addr, err := s.Discover(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if addr != "" {
		t.Errorf("Discover() = %q, want empty on miss", addr)
	}
	if s.State() != StateScanning {
		t.Errorf("State() = %v after miss, want scanning", s.State())
	}
}

func pairedSession(t *testing.T, adapter *mockAdapter) *Session {
	t.Helper()
	s := NewSession(adapter, testMatcher, NewTelemetry(nil))
	if err := s.SetTarget("AA:00:00:00:00:02"); err != nil {
		t.Fatalf("SetTarget() error = %v", err)
	}
	if err := s.Pair(context.Background()); err != nil {
		t.Fatalf("Pair() error = %v", err)
	}
	return s
}

func TestPairReachesPaired(t *testing.T) {
	adapter := newMockAdapter()
	s := pairedSession(t, adapter)

	if s.State() != StatePaired {
		t.Fatalf("State() = %v, want paired", s.State())
	}
	if err := s.WriteFrame([]byte{1, 0, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	if got := adapter.latestConnection().control().writeCount(); got != 1 {
		t.Errorf("control characteristic writes = %d, want 1", got)
	}
}

func TestPairWithoutTargetFails(t *testing.T) {
	s := NewSession(newMockAdapter(), testMatcher, nil)
	if err := s.Pair(context.Background()); err == nil {
		t.Error("Pair() without target: want error, got nil")
	}
}

func TestConnectFailureReturnsToScanning(t *testing.T) {
	adapter := newMockAdapter()
	adapter.connectErr = errors.New("link rejected")
	s := NewSession(adapter, testMatcher, nil)
	s.SetTarget("AA:00:00:00:00:02")

	if err := s.Pair(context.Background()); err == nil {
		t.Fatal("Pair() with rejected connect: want error, got nil")
	}
	if s.State() != StateScanning {
		t.Errorf("State() = %v, want scanning", s.State())
	}
	if s.Target() != "" {
		t.Errorf("Target() = %q, want cleared", s.Target())
	}
}

func TestMissingControlCharacteristicAbortsPairing(t *testing.T) {
	// Telemetry is present but the mandatory control characteristic is not:
	// optional success must not rescue the attempt.
	adapter := newMockAdapter()
	adapter.missing = []string{ble.ControlCharUUID}
	s := NewSession(adapter, testMatcher, NewTelemetry(nil))
	s.SetTarget("AA:00:00:00:00:02")

	if err := s.Pair(context.Background()); err == nil {
		t.Fatal("Pair() without control characteristic: want error, got nil")
	}
	if s.State() != StateScanning {
		t.Errorf("State() = %v, want scanning", s.State())
	}
	if s.Target() != "" {
		t.Errorf("Target() = %q, want cleared", s.Target())
	}
	if !adapter.latestConnection().disconnected {
		t.Error("failed attempt should drop the half-open link")
	}
}

func TestMissingOptionalCharacteristicsDegrade(t *testing.T) {
	adapter := newMockAdapter()
	adapter.missing = []string{ble.TelemetryCharUUID, ble.BatteryCharUUID}
	s := NewSession(adapter, testMatcher, NewTelemetry(nil))
	s.SetTarget("AA:00:00:00:00:02")

	if err := s.Pair(context.Background()); err != nil {
		t.Fatalf("Pair() error = %v, optional characteristics must degrade silently", err)
	}
	if s.State() != StatePaired {
		t.Errorf("State() = %v, want paired", s.State())
	}
}

func TestDisconnectDuringPairingReturnsToScanning(t *testing.T) {
	// The link drops while the connection is still being established, before
	// any GATT traffic. The attempt must unwind instead of reaching a dead
	// paired state no disconnect callback can ever leave.
	adapter := newMockAdapter()
	adapter.dropEarly = true
	s := NewSession(adapter, testMatcher, NewTelemetry(nil))
	s.SetTarget("AA:00:00:00:00:02")

	if err := s.Pair(context.Background()); err == nil {
		t.Fatal("Pair() on a link that dropped during establishment: want error, got nil")
	}
	if s.State() != StateScanning {
		t.Errorf("State() = %v, want scanning", s.State())
	}
	if s.Target() != "" {
		t.Errorf("Target() = %q, want cleared", s.Target())
	}
	if err := s.WriteFrame([]byte{1}); !errors.Is(err, ErrNotPaired) {
		t.Errorf("WriteFrame() = %v, want ErrNotPaired", err)
	}
}

func TestDisconnectClearsStateAndHandles(t *testing.T) {
	adapter := newMockAdapter()
	s := pairedSession(t, adapter)

	adapter.latestConnection().SimulateDisconnect()

	if s.State() != StateScanning {
		t.Errorf("State() = %v after disconnect, want scanning", s.State())
	}
	if s.Target() != "" {
		t.Errorf("Target() = %q after disconnect, want cleared", s.Target())
	}
	if err := s.WriteFrame([]byte{1}); !errors.Is(err, ErrNotPaired) {
		t.Errorf("WriteFrame() after disconnect = %v, want ErrNotPaired", err)
	}
}

func TestRepairAfterDisconnect(t *testing.T) {
	adapter := newMockAdapter(
		ble.Advertisement{Address: "AA:00:00:00:00:02", Name: "SL-993TURBO"},
	)
	s := pairedSession(t, adapter)

	adapter.latestConnection().SimulateDisconnect()

	// The same vehicle advertising again is a fresh discovery cycle.
	addr, err := s.Discover(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if addr == "" {
		t.Fatal("Discover() found nothing after disconnect")
	}
	if err := s.Pair(context.Background()); err != nil {
		t.Fatalf("Pair() after disconnect error = %v", err)
	}
	if s.State() != StatePaired {
		t.Errorf("State() = %v, want paired again", s.State())
	}
}

func TestForeignAdvertisementWhilePairedRestartsRadio(t *testing.T) {
	adapter := newMockAdapter()
	s := pairedSession(t, adapter)

	s.HandleAdvertisement(ble.Advertisement{Address: "BB:00:00:00:00:09", Name: "SL-OTHER"})

	if got := adapter.restartCount(); got != 1 {
		t.Errorf("radio restarts = %d, want 1", got)
	}
	if s.State() != StateScanning {
		t.Errorf("State() = %v, want scanning after restart", s.State())
	}
	if s.Target() != "" {
		t.Errorf("Target() = %q, want cleared", s.Target())
	}
}

func TestOwnAdvertisementWhilePairedIsIgnored(t *testing.T) {
	adapter := newMockAdapter()
	s := pairedSession(t, adapter)

	s.HandleAdvertisement(ble.Advertisement{Address: "AA:00:00:00:00:02", Name: "SL-993TURBO"})

	if got := adapter.restartCount(); got != 0 {
		t.Errorf("radio restarts = %d, want 0 for the paired vehicle's own advertisement", got)
	}
	if s.State() != StatePaired {
		t.Errorf("State() = %v, want still paired", s.State())
	}
}

func TestInitialBatteryRead(t *testing.T) {
	adapter := newMockAdapter()
	sink := NewTelemetry(nil)
	s := NewSession(adapter, testMatcher, sink)
	s.SetTarget("AA:00:00:00:00:02")

	if err := s.Pair(context.Background()); err != nil {
		t.Fatalf("Pair() error = %v", err)
	}
	// The mock battery characteristic is not readable, so the initial read
	// after subscribing yields nothing.
	if got := sink.Battery(); got != -1 {
		t.Errorf("Battery() = %d, want -1 before any notification", got)
	}

	adapter.latestConnection().battery().SimulateNotification([]byte{87})
	if got := sink.Battery(); got != 87 {
		t.Errorf("Battery() = %d, want 87", got)
	}
}
