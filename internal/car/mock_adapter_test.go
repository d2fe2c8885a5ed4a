package car

import (
	"context"
	"fmt"
	"sync"

	"github.com/chaz8081/carctl/internal/ble"
)

// mockCharacteristic records writes and allows subscribing.
type mockCharacteristic struct {
	mu        sync.Mutex
	writes    [][]byte
	callback  func([]byte)
	readValue []byte
	writeErr  error
}

func (c *mockCharacteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *mockCharacteristic) Read(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readValue == nil {
		return 0, fmt.Errorf("mock: not readable")
	}
	return copy(buf, c.readValue), nil
}

func (c *mockCharacteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
	return nil
}

// SimulateNotification sends a notification to the subscriber.
func (c *mockCharacteristic) SimulateNotification(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

func (c *mockCharacteristic) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// mockConnection simulates a BLE connection exposing the car's GATT layout.
// Characteristics listed in missing resolve to errors.
type mockConnection struct {
	mu             sync.Mutex
	chars          map[string]*mockCharacteristic // keyed by charUUID
	missing        map[string]bool
	disconnectCb   func()
	disconnected   bool
	dropOnRegister bool // fire the disconnect as soon as the callback lands
}

func newMockConnection(missing ...string) *mockConnection {
	conn := &mockConnection{
		chars: map[string]*mockCharacteristic{
			ble.ControlCharUUID:   {},
			ble.TelemetryCharUUID: {},
			ble.BatteryCharUUID:   {},
		},
		missing: make(map[string]bool),
	}
	for _, uuid := range missing {
		conn.missing[uuid] = true
	}
	return conn
}

func (c *mockConnection) DiscoverCharacteristic(serviceUUID, charUUID string) (ble.Characteristic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.missing[charUUID] {
		return nil, fmt.Errorf("mock: characteristic %s not found", charUUID)
	}
	char, ok := c.chars[charUUID]
	if !ok {
		return nil, fmt.Errorf("mock: unknown characteristic UUID %q", charUUID)
	}
	return char, nil
}

func (c *mockConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *mockConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	c.disconnectCb = cb
	drop := c.dropOnRegister
	c.dropOnRegister = false
	c.mu.Unlock()
	if drop {
		cb()
	}
}

// SimulateDisconnect triggers the disconnect callback.
func (c *mockConnection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (c *mockConnection) control() *mockCharacteristic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chars[ble.ControlCharUUID]
}

func (c *mockConnection) battery() *mockCharacteristic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chars[ble.BatteryCharUUID]
}

// mockAdapter simulates the BLE adapter. Each scan delivers the configured
// advertisements once, in order.
type mockAdapter struct {
	mu             sync.Mutex
	advertisements []ble.Advertisement
	connectErr     error
	missing        []string
	dropEarly      bool            // new connections drop during establishment
	connection     *mockConnection // most recent connection for test assertions
	restarts       int
}

func newMockAdapter(advertisements ...ble.Advertisement) *mockAdapter {
	return &mockAdapter{advertisements: advertisements}
}

func (a *mockAdapter) Enable() error { return nil }

func (a *mockAdapter) Scan(ctx context.Context, found func(ble.Advertisement)) error {
	a.mu.Lock()
	advs := a.advertisements
	a.mu.Unlock()
	for _, adv := range advs {
		if ctx.Err() != nil {
			return nil
		}
		found(adv)
	}
	return nil
}

func (a *mockAdapter) Connect(_ context.Context, _ string) (ble.Connection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connectErr != nil {
		return nil, a.connectErr
	}
	conn := newMockConnection(a.missing...)
	conn.dropOnRegister = a.dropEarly
	a.connection = conn
	return conn, nil
}

func (a *mockAdapter) Restart() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.restarts++
	return nil
}

// latestConnection returns the most recently created connection.
func (a *mockAdapter) latestConnection() *mockConnection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connection
}

func (a *mockAdapter) restartCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.restarts
}

// Compile-time interface checks.
var (
	_ ble.Adapter        = (*mockAdapter)(nil)
	_ ble.Connection     = (*mockConnection)(nil)
	_ ble.Characteristic = (*mockCharacteristic)(nil)
)
