package car

import (
	"fmt"

	"github.com/chaz8081/carctl/internal/car/crypto"
)

// Snapshot is the logical input state sampled once per control tick. The
// directional fields carry raw input line levels: the vehicle's switches are
// active low, so a pressed switch reads false and the encoded wire bit is the
// negation of the level. The flag fields are plain logical toggles.
type Snapshot struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool

	Lights bool
	Turbo  bool
	Donut  bool
}

// Codec encodes a Snapshot into one wire frame. Frames are built fresh every
// tick and never reused; encoding the same snapshot twice yields identical
// bytes.
type Codec interface {
	Encode(s Snapshot) ([]byte, error)
}

// Plain frame layout (8 bytes, unencrypted):
// [mode, !fwd, !back, !left, !right, lights, turbo, donut].
const (
	PlainFrameLen = 8

	// DriveModeNormal and DriveModeAlternate are the known values for the
	// drive-mode byte at offset 0.
	DriveModeNormal    = 1
	DriveModeAlternate = 2
)

// PlainCodec produces the 8-byte plaintext frame.
type PlainCodec struct {
	Mode byte // drive-mode byte, DriveModeNormal if zero
}

func (c PlainCodec) Encode(s Snapshot) ([]byte, error) {
	mode := c.Mode
	if mode == 0 {
		mode = DriveModeNormal
	}
	return []byte{
		mode,
		negate(s.Forward),
		negate(s.Backward),
		negate(s.Left),
		negate(s.Right),
		level(s.Lights),
		level(s.Turbo),
		level(s.Donut),
	}, nil
}

// Encrypted frame layout (16-byte plaintext block, then one AES-ECB block
// operation). Any change to field order or the constants breaks peripheral
// compatibility.
const (
	cryptHeader0 = 0x00
	cryptHeader1 = 0x43
	cryptHeader2 = 0x54
	cryptHeader3 = 0x4c

	speedNormal = 0x50
	speedTurbo  = 0x64
)

// CryptCodec produces the 16-byte encrypted frame.
type CryptCodec struct {
	block *crypto.Block
}

// NewCryptCodec builds the codec from the pre-shared 16-byte key.
func NewCryptCodec(key []byte) (*CryptCodec, error) {
	block, err := crypto.New(key)
	if err != nil {
		return nil, fmt.Errorf("car: crypt codec: %w", err)
	}
	return &CryptCodec{block: block}, nil
}

func (c *CryptCodec) Encode(s Snapshot) ([]byte, error) {
	speed := byte(speedNormal)
	if s.Turbo {
		speed = speedTurbo
	}
	plain := []byte{
		cryptHeader0, cryptHeader1, cryptHeader2, cryptHeader3,
		negate(s.Forward),
		negate(s.Backward),
		negate(s.Left),
		negate(s.Right),
		level(s.Lights), // raw level, not inverted
		speed,
		0, 0, 0, 0, 0, 0,
	}
	return c.block.Encrypt(plain)
}

// Block exposes the cipher for the telemetry sink, which decrypts battery
// notifications with the same key.
func (c *CryptCodec) Block() *crypto.Block {
	return c.block
}

func negate(lineLevel bool) byte {
	if lineLevel {
		return 0
	}
	return 1
}

func level(on bool) byte {
	if on {
		return 1
	}
	return 0
}
