// Package crypto provides the block cipher used by the encrypted car
// protocol: AES-128 in electronic-codebook mode over independent 16-byte
// blocks with a pre-shared key. Every frame is a single stateless block
// operation; there is no IV and no chaining.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// BlockSize is the fixed frame and cipher block size in bytes.
const BlockSize = aes.BlockSize

// Block wraps an AES key schedule for per-frame encrypt/decrypt operations.
type Block struct {
	c cipher.Block
}

// New builds the key schedule from a pre-shared 16-byte key.
func New(key []byte) (*Block, error) {
	if len(key) != BlockSize {
		return nil, fmt.Errorf("car/crypto: key must be %d bytes, got %d", BlockSize, len(key))
	}
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("car/crypto: new cipher: %w", err)
	}
	return &Block{c: c}, nil
}

// Encrypt encrypts a single 16-byte block, returning a fresh slice.
func (b *Block) Encrypt(block []byte) ([]byte, error) {
	if len(block) != BlockSize {
		return nil, fmt.Errorf("car/crypto: block must be %d bytes, got %d", BlockSize, len(block))
	}
	out := make([]byte, BlockSize)
	b.c.Encrypt(out, block)
	return out, nil
}

// Decrypt decrypts a single 16-byte block, returning a fresh slice.
func (b *Block) Decrypt(block []byte) ([]byte, error) {
	if len(block) != BlockSize {
		return nil, fmt.Errorf("car/crypto: block must be %d bytes, got %d", BlockSize, len(block))
	}
	out := make([]byte, BlockSize)
	b.c.Decrypt(out, block)
	return out, nil
}
