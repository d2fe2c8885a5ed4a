package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := hex.DecodeString("34522a5b7a6e492c08090a9d8d2a23f8")
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestNewRejectsBadKeyLength(t *testing.T) {
	for _, n := range []int{0, 15, 17, 32} {
		if _, err := New(make([]byte, n)); err == nil {
			t.Errorf("New() with %d-byte key: want error, got nil", n)
		}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	b, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	blocks := [][]byte{
		make([]byte, BlockSize),
		{0x00, 0x43, 0x54, 0x4c, 1, 1, 1, 1, 0, 0x50, 0, 0, 0, 0, 0, 0},
		bytes.Repeat([]byte{0xff}, BlockSize),
	}
	for _, plain := range blocks {
		enc, err := b.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if bytes.Equal(enc, plain) {
			t.Errorf("Encrypt(%x) returned the plaintext", plain)
		}
		dec, err := b.Decrypt(enc)
		if err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if !bytes.Equal(dec, plain) {
			t.Errorf("Decrypt(Encrypt(%x)) = %x, want original", plain, dec)
		}
	}
}

func TestEncryptIsStateless(t *testing.T) {
	b, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	plain := []byte("sixteen byte blk")
	first, _ := b.Encrypt(plain)
	second, _ := b.Encrypt(plain)
	if !bytes.Equal(first, second) {
		t.Errorf("same block encrypted twice differs: %x vs %x", first, second)
	}
}

func TestBlockLengthChecks(t *testing.T) {
	b, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := b.Encrypt(make([]byte, 8)); err == nil {
		t.Error("Encrypt() with 8-byte block: want error, got nil")
	}
	if _, err := b.Decrypt(make([]byte, 24)); err == nil {
		t.Error("Decrypt() with 24-byte block: want error, got nil")
	}
}
