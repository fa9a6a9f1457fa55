package gbz

import "github.com/mash-protocol/gbz-go/pkg/zcl"

// ComponentInfo describes the component being encrypted or decrypted. Both
// ends see the same values, so ciphers can authenticate them. Counters
// restart with every Creator and must not be used as a nonce on their own.
type ComponentInfo struct {
	MessageCode    uint16
	ClusterID      uint16
	CommandID      uint8
	FrameControl   zcl.FrameControl
	SequenceNumber uint8
	FrameCounter   uint8
}

// Cipher encrypts and decrypts component payloads. The GBZ codec never
// implements cryptography itself.
type Cipher interface {
	// Encrypt returns the ciphertext for plain. The returned length becomes
	// the CipheredLength field.
	Encrypt(info ComponentInfo, plain []byte) ([]byte, error)

	// Decrypt returns the plaintext for ciphertext.
	Decrypt(info ComponentInfo, ciphertext []byte) ([]byte, error)
}

// CipherFuncs adapts a pair of functions to the Cipher interface.
// A nil function fails the corresponding operation.
type CipherFuncs struct {
	EncryptFunc func(info ComponentInfo, plain []byte) ([]byte, error)
	DecryptFunc func(info ComponentInfo, ciphertext []byte) ([]byte, error)
}

// Encrypt calls EncryptFunc.
func (f CipherFuncs) Encrypt(info ComponentInfo, plain []byte) ([]byte, error) {
	if f.EncryptFunc == nil {
		return nil, ErrEncryptionFailure
	}
	return f.EncryptFunc(info, plain)
}

// Decrypt calls DecryptFunc.
func (f CipherFuncs) Decrypt(info ComponentInfo, ciphertext []byte) ([]byte, error) {
	if f.DecryptFunc == nil {
		return nil, ErrDecryptionFailure
	}
	return f.DecryptFunc(info, ciphertext)
}

var _ Cipher = CipherFuncs{}

// EncryptionPolicy decides whether a component must be encrypted.
// pkg/policy provides the table-driven implementation.
type EncryptionPolicy interface {
	ShouldEncrypt(messageCode, clusterID uint16, commandID uint8, frameControl zcl.FrameControl, payload []byte) bool
}

// PolicyFunc adapts a function to the EncryptionPolicy interface.
type PolicyFunc func(messageCode, clusterID uint16, commandID uint8, frameControl zcl.FrameControl, payload []byte) bool

// ShouldEncrypt calls f.
func (f PolicyFunc) ShouldEncrypt(messageCode, clusterID uint16, commandID uint8, frameControl zcl.FrameControl, payload []byte) bool {
	return f(messageCode, clusterID, commandID, frameControl, payload)
}
