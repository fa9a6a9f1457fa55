package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/gbz-go/pkg/gbz"
	"github.com/mash-protocol/gbz-go/pkg/policy"
)

const alertDoc = `
type: alert
messageCode: 0x0080
alertCode: 0x1234
alertTimestamp: 0xAABBCCDD
commands:
  - cluster: 0x0009
    frameControl: 0x09
    command: 0x00
    payload: "01 02"
  - cluster: 0x0700
    frameControl: 0x09
    command: 0x01
    payload: "10:20:30"
  - cluster: 0x0702
    frameControl: 0x09
    command: 0x02
    fromDateTime: 0x5F5E1000
`

func TestParseAndBuild(t *testing.T) {
	m, err := Parse([]byte(alertDoc))
	require.NoError(t, err)
	require.Len(t, m.Commands, 3)
	assert.Equal(t, HexBytes{0x10, 0x20, 0x30}, m.Commands[1].Payload)

	res, err := m.Build(BuildOptions{Base: gbz.DefaultCreatorConfig()})
	require.NoError(t, err)
	assert.Equal(t, uint8(3), res.SequenceNumber)
	assert.Zero(t, res.FrameCounter)
	assert.Equal(t, []byte{0x01, 0x09, 0x03, 0x12, 0x34, 0xAA, 0xBB, 0xCC, 0xDD}, res.Payload[:9])

	cfg := gbz.DefaultParserConfig()
	cfg.Type = gbz.MessageTypeAlert
	cfg.MessageCode = 0x0080
	back, err := Describe(res.Payload, cfg)
	require.NoError(t, err)
	assert.Equal(t, "alert", back.Type)
	assert.Equal(t, uint16(0x1234), back.AlertCode)
	assert.Equal(t, uint32(0xAABBCCDD), back.AlertTimestamp)
	require.Len(t, back.Commands, 3)
	for i, want := range m.Commands {
		got := back.Commands[i]
		assert.Equal(t, want.Cluster, got.Cluster)
		assert.Equal(t, want.FrameControl, got.FrameControl)
		assert.Equal(t, want.Command, got.Command)
		assert.Equal(t, []byte(want.Payload), []byte(got.Payload))
		assert.Equal(t, want.FromDateTime, got.FromDateTime)
		require.NotNil(t, got.Sequence)
		assert.Equal(t, uint8(i), *got.Sequence)
	}
}

func TestBuildWithFixedBuffer(t *testing.T) {
	m, err := Parse([]byte(alertDoc))
	require.NoError(t, err)

	base := gbz.DefaultCreatorConfig()
	base.Buffer = make([]byte, 128)
	res, err := m.Build(BuildOptions{Base: base})
	require.NoError(t, err)

	// The result is detached from the caller's buffer.
	base.Buffer[0] = 0xFF
	assert.Equal(t, byte(0x01), res.Payload[0])
}

func TestBuildErrors(t *testing.T) {
	t.Run("no commands", func(t *testing.T) {
		m := &Message{Type: "command"}
		_, err := m.Build(BuildOptions{Base: gbz.DefaultCreatorConfig()})
		assert.ErrorIs(t, err, ErrNoCommands)

		res, err := m.Build(BuildOptions{Base: gbz.DefaultCreatorConfig(), AllowEmpty: true})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x09, 0x00}, res.Payload)
	})

	t.Run("encrypted without cipher", func(t *testing.T) {
		m := &Message{
			MessageCode: policy.TestCodeEncrypt,
			Commands:    []Command{{Cluster: 0x0705, FrameControl: 0x01}},
		}
		_, err := m.Build(BuildOptions{Base: gbz.DefaultCreatorConfig()})
		assert.ErrorIs(t, err, gbz.ErrEncryptionFailure)
	})

	t.Run("bad type", func(t *testing.T) {
		_, err := Parse([]byte("type: broadcast\n"))
		assert.ErrorIs(t, err, gbz.ErrInvalidMessageType)
	})

	t.Run("bad hex", func(t *testing.T) {
		_, err := Parse([]byte("commands:\n  - cluster: 1\n    payload: \"0G\"\n"))
		assert.Error(t, err)
	})
}

func TestDescribeEncrypted(t *testing.T) {
	m := &Message{
		Type:        "command",
		MessageCode: policy.TestCodeEncrypt,
		Commands:    []Command{{Cluster: 0x0705, FrameControl: 0x01, Command: 0x04, Payload: HexBytes{0x01}}},
	}
	base := gbz.DefaultCreatorConfig()
	base.Cipher = gbz.CipherFuncs{
		EncryptFunc: func(_ gbz.ComponentInfo, p []byte) ([]byte, error) { return append([]byte{0xEE}, p...), nil },
	}
	res, err := m.Build(BuildOptions{Base: base})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), res.FrameCounter)

	back, err := Describe(res.Payload, gbz.DefaultParserConfig())
	require.NoError(t, err)
	require.Len(t, back.Commands, 1)
	c := back.Commands[0]
	assert.True(t, c.Encrypted)
	assert.Equal(t, "failed", c.Decryption)
	require.NotNil(t, c.FrameCounter)
	assert.Zero(t, *c.FrameCounter)
	assert.Equal(t, HexBytes{0xEE, 0x01}, c.Payload)
}

func TestDescribeInvalidHeader(t *testing.T) {
	_, err := Describe([]byte{0x00, 0x00, 0x00}, gbz.DefaultParserConfig())
	assert.ErrorIs(t, err, gbz.ErrInvalidProfileID)
}

func TestMarshalRoundTrip(t *testing.T) {
	m, err := Parse([]byte(alertDoc))
	require.NoError(t, err)
	out, err := m.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "0102")

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(alertDoc), 0o644))
	m, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0080), m.MessageCode)
}
