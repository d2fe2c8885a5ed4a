// Package ble provides the BLE central capability set used to drive a Shell
// Racing Legends style RC car: bounded scan windows with per-advertisement
// callbacks, connect-by-address, GATT characteristic resolution,
// write-without-response, and notification subscriptions.
package ble

import "context"

// Car GATT identifiers (fixed by the vehicle firmware).
const (
	ControlServiceUUID = "0000fff0-0000-1000-8000-00805f9b34fb"
	ControlCharUUID    = "0000fff1-0000-1000-8000-00805f9b34fb"
	TelemetryCharUUID  = "0000fff2-0000-1000-8000-00805f9b34fb"
	BatteryServiceUUID = "0000180f-0000-1000-8000-00805f9b34fb"
	BatteryCharUUID    = "00002a19-0000-1000-8000-00805f9b34fb"
)

// Advertisement is one observed advertisement record. It is produced once per
// scan callback and not retained.
type Advertisement struct {
	Address string // textual hardware address
	Name    string // advertised local name, may be empty
	RSSI    int
}

// Characteristic represents a resolved BLE GATT characteristic.
type Characteristic interface {
	// Write sends data without waiting for a response from the peer.
	Write(data []byte) error
	// Read reads the current value into buf, returning the number of bytes.
	Read(buf []byte) (int, error)
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan streams advertisements to found until ctx is cancelled. It blocks
	// for the life of the scan; cancel ctx to stop early.
	Scan(ctx context.Context, found func(Advertisement)) error
	// Connect establishes a connection to the device with the given address.
	Connect(ctx context.Context, address string) (Connection, error)
	// Restart resets the host radio after an unrecoverable link state. Best
	// effort; a failed restart leaves the adapter usable for a fresh scan.
	Restart() error
}
