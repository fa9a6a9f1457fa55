// Package seal provides a reference gbz.Cipher for GBZ components.
//
// Keys are derived with HKDF-SHA256 from a shared secret. Components are
// sealed with XChaCha20-Poly1305 under a random 24-byte nonce, which is
// sent in front of the sealed payload:
//
//	Nonce:24 Ciphertext Tag:16
//
// The component identity, sequence number and frame counter are
// authenticated as additional data, so a ciphertext cannot be replayed
// under another component header.
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
)

const (
	// KeySize is the derived XChaCha20-Poly1305 key length.
	KeySize = chacha20poly1305.KeySize

	// NonceSize is the length of the random nonce prefix.
	NonceSize = chacha20poly1305.NonceSizeX

	// Overhead is the number of bytes sealing adds to a payload.
	Overhead = NonceSize + chacha20poly1305.Overhead

	// MinSecretSize is the shortest accepted shared secret.
	MinSecretSize = 16
)

var keyInfo = []byte("GBZ component key")

// Errors.
var (
	ErrSecretTooShort = errors.New("seal: shared secret too short")
	ErrOpen           = errors.New("seal: message authentication failed")
)

// Config configures key derivation.
type Config struct {
	// Secret is the shared secret both ends hold.
	Secret []byte

	// Salt is the optional HKDF salt.
	Salt []byte

	// Epoch is authenticated with every component. Both ends must agree
	// on it; bump it to retire ciphertexts of an earlier key generation.
	Epoch uint32

	// Rand is the nonce source. If nil, crypto/rand is used.
	Rand io.Reader
}

// Cipher seals GBZ components. It implements gbz.Cipher and is safe for
// concurrent use when Rand is.
type Cipher struct {
	aead  cipher.AEAD
	epoch uint32
	rand  io.Reader
}

var _ gbz.Cipher = (*Cipher)(nil)

// New derives a key from config.Secret and returns a Cipher.
func New(config Config) (*Cipher, error) {
	if len(config.Secret) < MinSecretSize {
		return nil, fmt.Errorf("%w: %d < %d bytes", ErrSecretTooShort, len(config.Secret), MinSecretSize)
	}
	key, err := DeriveKey(config.Secret, config.Salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating aead: %w", err)
	}
	r := config.Rand
	if r == nil {
		r = rand.Reader
	}
	return &Cipher{aead: aead, epoch: config.Epoch, rand: r}, nil
}

// DeriveKey returns the HKDF-SHA256 component key for secret and salt.
func DeriveKey(secret, salt []byte) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, keyInfo), key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// AdditionalData returns the authenticated component fields:
//
//	Epoch:4 MessageCode:2 ClusterID:2 FrameControl:1 CommandID:1 SequenceNumber:1 FrameCounter:1
func AdditionalData(epoch uint32, info gbz.ComponentInfo) []byte {
	ad := make([]byte, 12)
	binary.BigEndian.PutUint32(ad[0:4], epoch)
	binary.BigEndian.PutUint16(ad[4:6], info.MessageCode)
	binary.BigEndian.PutUint16(ad[6:8], info.ClusterID)
	ad[8] = uint8(info.FrameControl)
	ad[9] = info.CommandID
	ad[10] = info.SequenceNumber
	ad[11] = info.FrameCounter
	return ad
}

// Encrypt implements gbz.Cipher. The result is the nonce followed by the
// sealed payload.
func (c *Cipher) Encrypt(info gbz.ComponentInfo, plain []byte) ([]byte, error) {
	if len(plain)+Overhead > gbz.MaxComponentLength {
		return nil, fmt.Errorf("seal: payload of %d bytes too large", len(plain))
	}
	out := make([]byte, NonceSize, len(plain)+Overhead)
	if _, err := io.ReadFull(c.rand, out); err != nil {
		return nil, fmt.Errorf("seal: reading nonce: %w", err)
	}
	return c.aead.Seal(out, out[:NonceSize], plain, AdditionalData(c.epoch, info)), nil
}

// Decrypt implements gbz.Cipher.
func (c *Cipher) Decrypt(info gbz.ComponentInfo, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < Overhead {
		return nil, fmt.Errorf("%w: %d bytes is shorter than nonce and tag", ErrOpen, len(ciphertext))
	}
	nonce, sealed := ciphertext[:NonceSize], ciphertext[NonceSize:]
	plain, err := c.aead.Open(nil, nonce, sealed, AdditionalData(c.epoch, info))
	if err != nil {
		return nil, fmt.Errorf("%w: cluster 0x%04X frame counter %d", ErrOpen, info.ClusterID, info.FrameCounter)
	}
	return plain, nil
}
