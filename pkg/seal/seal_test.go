package seal

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

var secret = bytes.Repeat([]byte{0x42}, 32)

func testInfo() gbz.ComponentInfo {
	return gbz.ComponentInfo{
		MessageCode:    0x0045,
		ClusterID:      zcl.ClusterPrepayment,
		CommandID:      0x04,
		FrameControl:   zcl.NewFrameControl(true, false, false),
		SequenceNumber: 3,
		FrameCounter:   9,
	}
}

func TestNewRejectsShortSecret(t *testing.T) {
	_, err := New(Config{Secret: []byte("short")})
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestSealOpen(t *testing.T) {
	c, err := New(Config{Secret: secret})
	require.NoError(t, err)

	plain := []byte{0x01, 0x02, 0x03, 0x04}
	ct, err := c.Encrypt(testInfo(), plain)
	require.NoError(t, err)
	assert.Len(t, ct, len(plain)+Overhead)
	assert.NotEqual(t, plain, ct[NonceSize:NonceSize+len(plain)])

	got, err := c.Decrypt(testInfo(), ct)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestOpenFailures(t *testing.T) {
	c, err := New(Config{Secret: secret})
	require.NoError(t, err)
	ct, err := c.Encrypt(testInfo(), []byte("top up"))
	require.NoError(t, err)

	t.Run("frame counter", func(t *testing.T) {
		info := testInfo()
		info.FrameCounter++
		_, err := c.Decrypt(info, ct)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("frame control", func(t *testing.T) {
		info := testInfo()
		info.FrameControl = zcl.NewFrameControl(true, true, false)
		_, err := c.Decrypt(info, ct)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("sequence number", func(t *testing.T) {
		info := testInfo()
		info.SequenceNumber++
		_, err := c.Decrypt(info, ct)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("tampered nonce", func(t *testing.T) {
		bad := append([]byte(nil), ct...)
		bad[0] ^= 0x01
		_, err := c.Decrypt(testInfo(), bad)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("tampered payload", func(t *testing.T) {
		bad := append([]byte(nil), ct...)
		bad[NonceSize] ^= 0x01
		_, err := c.Decrypt(testInfo(), bad)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("other epoch", func(t *testing.T) {
		other, err := New(Config{Secret: secret, Epoch: 1})
		require.NoError(t, err)
		_, err = other.Decrypt(testInfo(), ct)
		assert.ErrorIs(t, err, ErrOpen)
	})

	t.Run("other salt", func(t *testing.T) {
		other, err := New(Config{Secret: secret, Salt: []byte("site-2")})
		require.NoError(t, err)
		_, err = other.Decrypt(testInfo(), ct)
		assert.ErrorIs(t, err, ErrOpen)
	})
}

func TestAdditionalDataLayout(t *testing.T) {
	ad := AdditionalData(0x01020304, testInfo())
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x45, 0x07, 0x05, 0x01, 0x04, 0x03, 0x09}, ad)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c, err := New(Config{Secret: secret})
	require.NoError(t, err)

	// Same key, same component header, same counters.
	p1 := []byte("top up 0000000001")
	p2 := []byte("top up 9999999999")
	ct1, err := c.Encrypt(testInfo(), p1)
	require.NoError(t, err)
	ct2, err := c.Encrypt(testInfo(), p2)
	require.NoError(t, err)

	assert.NotEqual(t, ct1[:NonceSize], ct2[:NonceSize])

	// With a shared keystream, ct1 ^ ct2 ^ p1 would yield p2.
	recovered := make([]byte, len(p1))
	for i := range recovered {
		recovered[i] = ct1[NonceSize+i] ^ ct2[NonceSize+i] ^ p1[i]
	}
	assert.NotEqual(t, p2, recovered)

	again, err := c.Encrypt(testInfo(), p1)
	require.NoError(t, err)
	assert.NotEqual(t, ct1, again)

	for _, tc := range []struct{ ct, want []byte }{{ct1, p1}, {ct2, p2}, {again, p1}} {
		got, err := c.Decrypt(testInfo(), tc.ct)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestEncryptNonceSource(t *testing.T) {
	t.Run("fixed source", func(t *testing.T) {
		c, err := New(Config{Secret: secret, Rand: bytes.NewReader(bytes.Repeat([]byte{0xA5}, NonceSize))})
		require.NoError(t, err)
		ct, err := c.Encrypt(testInfo(), []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{0xA5}, NonceSize), ct[:NonceSize])
	})

	t.Run("source fails", func(t *testing.T) {
		c, err := New(Config{Secret: secret, Rand: failingReader{}})
		require.NoError(t, err)
		_, err = c.Encrypt(testInfo(), []byte{0x01})
		assert.Error(t, err)
	})
}

func TestDecryptShortInput(t *testing.T) {
	c, err := New(Config{Secret: secret})
	require.NoError(t, err)
	_, err = c.Decrypt(testInfo(), make([]byte, Overhead-1))
	assert.ErrorIs(t, err, ErrOpen)
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a, err := DeriveKey(secret, nil)
	require.NoError(t, err)
	b, err := DeriveKey(secret, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, KeySize)

	c, err := DeriveKey(secret, []byte("salt"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestWithCodec(t *testing.T) {
	c, err := New(Config{Secret: secret})
	require.NoError(t, err)

	cfg := gbz.DefaultCreatorConfig()
	cfg.MessageCode = 0x0045
	cfg.Cipher = c
	creator, err := gbz.NewCreator(cfg)
	require.NoError(t, err)
	defer creator.Cleanup()

	_, err = creator.AppendCommand(&zcl.Command{
		ClusterID:    zcl.ClusterPrepayment,
		FrameControl: zcl.NewFrameControl(true, false, false),
		CommandID:    0x04,
		Payload:      []byte{0x10, 0x27, 0x00, 0x00},
	})
	require.NoError(t, err)
	msg, err := creator.Assemble()
	require.NoError(t, err)

	pcfg := gbz.DefaultParserConfig()
	pcfg.MessageCode = 0x0045
	pcfg.Cipher = c
	_, cmds, err := gbz.ParseAll(msg.Payload, pcfg)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.True(t, cmds[0].Encrypted)
	assert.Equal(t, gbz.DecryptionSucceeded, cmds[0].Decryption)
	assert.Equal(t, 4+Overhead, cmds[0].CipheredLength)
	payload, err := cmds[0].Payload.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x27, 0x00, 0x00}, payload)
}
