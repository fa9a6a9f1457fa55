package gbz

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/gbz-go/pkg/log"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// ---------------------------------------------------------------------------
// Ciphers
// ---------------------------------------------------------------------------

var testTag = []byte{0xC0, 0xFF, 0xEE, 0x00}

// tagCipher XORs the payload with the frame counter and appends a tag, so
// ciphertext is longer than plaintext.
func tagCipher() CipherFuncs {
	return CipherFuncs{
		EncryptFunc: func(info ComponentInfo, plain []byte) ([]byte, error) {
			out := make([]byte, 0, len(plain)+len(testTag))
			for _, b := range plain {
				out = append(out, b^info.FrameCounter^0x5A)
			}
			return append(out, testTag...), nil
		},
		DecryptFunc: func(info ComponentInfo, ct []byte) ([]byte, error) {
			if len(ct) < len(testTag) || !bytes.Equal(ct[len(ct)-len(testTag):], testTag) {
				return nil, errors.New("bad tag")
			}
			body := ct[:len(ct)-len(testTag)]
			out := make([]byte, len(body))
			for i, b := range body {
				out[i] = b ^ info.FrameCounter ^ 0x5A
			}
			return out, nil
		},
	}
}

type MockCipher struct{ mock.Mock }

func (c *MockCipher) Encrypt(info ComponentInfo, plain []byte) ([]byte, error) {
	ret := c.Called(info, plain)
	var out []byte
	if ret.Get(0) != nil {
		out = ret.Get(0).([]byte)
	}
	return out, ret.Error(1)
}

func (c *MockCipher) Decrypt(info ComponentInfo, ct []byte) ([]byte, error) {
	ret := c.Called(info, ct)
	var out []byte
	if ret.Get(0) != nil {
		out = ret.Get(0).([]byte)
	}
	return out, ret.Error(1)
}

// ---------------------------------------------------------------------------
// Policies
// ---------------------------------------------------------------------------

var (
	encryptAll  = PolicyFunc(func(uint16, uint16, uint8, zcl.FrameControl, []byte) bool { return true })
	encryptNone = PolicyFunc(func(uint16, uint16, uint8, zcl.FrameControl, []byte) bool { return false })
)

// encryptCluster encrypts components of a single cluster.
func encryptCluster(id uint16) PolicyFunc {
	return func(_ uint16, clusterID uint16, _ uint8, _ zcl.FrameControl, _ []byte) bool {
		return clusterID == id
	}
}

// ---------------------------------------------------------------------------
// Protocol logger
// ---------------------------------------------------------------------------

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *recordingLogger) Log(e log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *recordingLogger) byCategory(c log.Category) []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []log.Event
	for _, e := range l.events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Builders
// ---------------------------------------------------------------------------

func clusterCommand(clusterID uint16, commandID uint8, payload ...byte) *zcl.Command {
	return &zcl.Command{
		ClusterID:    clusterID,
		FrameControl: zcl.NewFrameControl(true, false, false),
		CommandID:    commandID,
		Payload:      payload,
	}
}

func plainConfig() CreatorConfig {
	cfg := DefaultCreatorConfig()
	cfg.Policy = encryptNone
	return cfg
}

func mustCreator(t interface {
	Helper()
	Fatalf(string, ...any)
}, cfg CreatorConfig) *Creator {
	t.Helper()
	c, err := NewCreator(cfg)
	if err != nil {
		t.Fatalf("NewCreator: %v", err)
	}
	return c
}

// lastBits returns the last-component bit of every component in msg.
func lastBits(msg []byte, t MessageType) []bool {
	var out []bool
	off := t.headerSize()
	for off < len(msg) {
		size, err := componentSize(msg[off:])
		if err != nil {
			return out
		}
		out = append(out, msg[off]&ControlLastComponent != 0)
		off += size
	}
	return out
}

func mustBytes(t *testing.T, s Span) []byte {
	t.Helper()
	b, err := s.Bytes()
	require.NoError(t, err)
	return b
}
