package car

import (
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/chaz8081/carctl/internal/car/crypto"
)

// batteryStatusOffset is where the status byte sits in a decrypted battery
// block on encrypted-protocol vehicles.
const batteryStatusOffset = 4

// Telemetry receives raw notification payloads pushed by the vehicle. Each
// payload is handled independently and discarded; only the most recent
// battery level is retained for display. The telemetry characteristic's
// layout is unspecified, so its payloads are surfaced as hex dumps only.
type Telemetry struct {
	block *crypto.Block // nil for the plaintext protocol

	mu        sync.Mutex
	battery   int
	onBattery func(level int)
}

// NewTelemetry creates a sink. block decrypts battery notifications on
// encrypted-protocol vehicles and is nil for the plaintext protocol.
func NewTelemetry(block *crypto.Block) *Telemetry {
	return &Telemetry{block: block, battery: -1}
}

// SetOnBattery registers an observer invoked with each decoded battery
// level, from the BLE stack's goroutine. Safe to call while notifications
// are already arriving.
func (t *Telemetry) SetOnBattery(fn func(level int)) {
	t.mu.Lock()
	t.onBattery = fn
	t.mu.Unlock()
}

// Battery returns the last seen battery level, or -1 if none arrived yet.
func (t *Telemetry) Battery() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.battery
}

// HandleTelemetry logs one telemetry notification.
func (t *Telemetry) HandleTelemetry(data []byte) {
	slog.Info("[car] telemetry", "payload", hex.EncodeToString(data))
}

// HandleBattery decodes one battery notification. Plaintext vehicles notify a
// single percentage byte; encrypted vehicles notify one cipher block holding
// the status byte.
func (t *Telemetry) HandleBattery(data []byte) {
	level, ok := t.decodeBattery(data)
	if !ok {
		slog.Warn("[car] undecodable battery payload", "payload", hex.EncodeToString(data))
		return
	}

	t.mu.Lock()
	t.battery = level
	cb := t.onBattery
	t.mu.Unlock()

	slog.Info("[car] battery", "percent", level)
	if cb != nil {
		cb(level)
	}
}

func (t *Telemetry) decodeBattery(data []byte) (int, bool) {
	if t.block == nil {
		if len(data) < 1 {
			return 0, false
		}
		return int(data[0]), true
	}
	plain, err := t.block.Decrypt(data)
	if err != nil {
		return 0, false
	}
	return int(plain[batteryStatusOffset]), true
}
