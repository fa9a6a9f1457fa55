package gbz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/gbz-go/pkg/log"
	"github.com/mash-protocol/gbz-go/pkg/policy"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

func TestCreatorEncodesPlainComponent(t *testing.T) {
	c := mustCreator(t, plainConfig())
	defer c.Cleanup()

	n, err := c.AppendCommand(clusterCommand(0x0700, 0x00, 0xAA, 0xBB))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	msg, err := c.Assemble()
	require.NoError(t, err)
	assert.True(t, msg.OwnershipTransferred)
	assert.Equal(t, []byte{
		0x01, 0x09, 0x01, // profile, count
		0x01, 0x07, 0x00, 0x00, 0x05, // control, cluster, length
		0x01, 0x00, 0x00, // fc, tsn, cmd
		0xAA, 0xBB,
	}, msg.Payload)
}

func TestCreatorEncodesFromDateTime(t *testing.T) {
	c := mustCreator(t, plainConfig())
	defer c.Cleanup()

	cmd := clusterCommand(0x0702, 0x01, 0x42)
	cmd.HasFromDateTime = true
	cmd.FromDateTime = 0x11223344

	n, err := c.AppendCommand(cmd)
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	msg, err := c.Assemble()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, 0x09, 0x01,
		0x11, 0x07, 0x02, 0x00, 0x08,
		0x11, 0x22, 0x33, 0x44,
		0x01, 0x00, 0x01,
		0x42,
	}, msg.Payload)
}

func TestCreatorEncodesEncryptedComponent(t *testing.T) {
	cfg := DefaultCreatorConfig()
	cfg.Policy = encryptAll
	cfg.Cipher = tagCipher()
	cfg.FrameCounter = 7
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	n, err := c.AppendCommand(clusterCommand(0x0705, 0x04, 0x10, 0x20))
	require.NoError(t, err)
	// 5 + 2 + 3 + 2 + (2 payload + 4 tag)
	assert.Equal(t, 18, n)

	msg, err := c.Assemble()
	require.NoError(t, err)
	want := []byte{
		0x01, 0x09, 0x01,
		0x03, 0x07, 0x05, 0x00, 0x0D,
		0x00, 0x07, // additional header control, frame counter
		0x01, 0x00, 0x04,
		0x00, 0x06, // ciphered length
		0x10 ^ 7 ^ 0x5A, 0x20 ^ 7 ^ 0x5A,
	}
	want = append(want, testTag...)
	assert.Equal(t, want, msg.Payload)
}

func TestCreatorAlertHeader(t *testing.T) {
	cfg := plainConfig()
	cfg.Type = MessageTypeAlert
	cfg.AlertCode = 0x8F01
	cfg.AlertTimestamp = 0x01020304
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	msg, err := c.Assemble()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x09, 0x00, 0x8F, 0x01, 0x01, 0x02, 0x03, 0x04}, msg.Payload)
}

func TestCreatorEmptyAssemble(t *testing.T) {
	tests := []struct {
		name string
		typ  MessageType
		size int
	}{
		{"command", MessageTypeCommand, HeaderSize},
		{"response", MessageTypeResponse, HeaderSize},
		{"alert", MessageTypeAlert, HeaderSize + AlertHeaderSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := plainConfig()
			cfg.Type = tt.typ
			c := mustCreator(t, cfg)
			defer c.Cleanup()

			msg, err := c.Assemble()
			require.NoError(t, err)
			require.Len(t, msg.Payload, tt.size)
			assert.Equal(t, []byte{0x01, 0x09, 0x00}, msg.Payload[:3])
		})
	}
}

func TestCreatorSingleLastComponent(t *testing.T) {
	for _, fixed := range []bool{false, true} {
		name := "list"
		if fixed {
			name = "fixed"
		}
		t.Run(name, func(t *testing.T) {
			cfg := plainConfig()
			if fixed {
				cfg.Buffer = make([]byte, 256)
			}
			c := mustCreator(t, cfg)
			defer c.Cleanup()

			for k := 1; k <= 5; k++ {
				_, err := c.AppendCommand(clusterCommand(0x0700, uint8(k), byte(k)))
				require.NoError(t, err)

				var buf []byte
				if fixed {
					buf = cfg.Buffer[:c.Len()]
				} else {
					ls := c.sink.(*ListSink)
					buf = append([]byte(nil), ls.Header()...)
					for i := 0; i < ls.Nodes(); i++ {
						buf = append(buf, ls.Component(Handle(i))...)
					}
				}

				bits := lastBits(buf, MessageTypeCommand)
				require.Len(t, bits, k)
				for i, last := range bits {
					assert.Equal(t, i == k-1, last, "component %d after %d appends", i, k)
				}
			}
		})
	}
}

func TestCreatorCountAndCounters(t *testing.T) {
	cfg := DefaultCreatorConfig()
	cfg.Policy = encryptCluster(zcl.ClusterPrepayment)
	cfg.Cipher = tagCipher()
	cfg.SequenceNumber = 0xFE
	cfg.FrameCounter = 3
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	steps := []struct {
		cluster   uint16
		wantSeq   uint8
		wantFrame uint8
	}{
		{zcl.ClusterPrice, 0xFF, 3},
		{zcl.ClusterPrepayment, 0x00, 4},
		{zcl.ClusterMetering, 0x01, 4},
		{zcl.ClusterPrepayment, 0x02, 5},
	}
	for i, s := range steps {
		_, err := c.AppendCommand(clusterCommand(s.cluster, 0x00, 0x01))
		require.NoError(t, err)
		assert.Equal(t, i+1, c.ComponentCount())
		assert.Equal(t, s.wantSeq, c.SequenceNumber(), "step %d", i)
		assert.Equal(t, s.wantFrame, c.FrameCounter(), "step %d", i)
	}

	msg, err := c.Assemble()
	require.NoError(t, err)
	assert.Equal(t, uint8(len(steps)), msg.Payload[componentCountOffset])
}

func TestCreatorRejectsFromDateTimeWithEncryption(t *testing.T) {
	cipher := &MockCipher{}
	cfg := DefaultCreatorConfig()
	cfg.Policy = encryptAll
	cfg.Cipher = cipher
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	cmd := clusterCommand(0x0705, 0x00, 0x01)
	cmd.HasFromDateTime = true

	n, err := c.AppendCommand(cmd)
	assert.ErrorIs(t, err, ErrInvalidFieldCombination)
	assert.Zero(t, n)
	assert.Zero(t, c.ComponentCount())
	assert.Equal(t, HeaderSize, c.Len())
	assert.Zero(t, c.SequenceNumber())
	cipher.AssertNotCalled(t, "Encrypt", mock.Anything, mock.Anything)
}

func TestCreatorEncryptionFailureIsAtomic(t *testing.T) {
	cipher := &MockCipher{}
	cipher.On("Encrypt", mock.Anything, []byte{0x01}).Return(nil, errors.New("hsm offline")).Once()

	cfg := DefaultCreatorConfig()
	cfg.Policy = encryptCluster(zcl.ClusterPrepayment)
	cfg.Cipher = cipher
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	_, err := c.AppendCommand(clusterCommand(zcl.ClusterPrice, 0x00, 0x00))
	require.NoError(t, err)
	before := c.Len()

	n, err := c.AppendCommand(clusterCommand(zcl.ClusterPrepayment, 0x00, 0x01))
	assert.ErrorIs(t, err, ErrEncryptionFailure)
	assert.Zero(t, n)
	assert.Equal(t, 1, c.ComponentCount())
	assert.Equal(t, before, c.Len())
	assert.Equal(t, uint8(1), c.SequenceNumber())
	assert.Zero(t, c.FrameCounter())
	cipher.AssertExpectations(t)

	msg, err := c.Assemble()
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, lastBits(msg.Payload, MessageTypeCommand))
}

func TestCreatorEncryptWithoutCipher(t *testing.T) {
	cfg := DefaultCreatorConfig()
	cfg.Policy = encryptAll
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	_, err := c.AppendCommand(clusterCommand(0x0705, 0x00))
	assert.ErrorIs(t, err, ErrEncryptionFailure)
}

func TestCreatorPassesComponentInfo(t *testing.T) {
	cipher := &MockCipher{}
	want := ComponentInfo{
		MessageCode:    0x0045,
		ClusterID:      zcl.ClusterPrepayment,
		CommandID:      0x04,
		FrameControl:   zcl.NewFrameControl(true, false, false),
		SequenceNumber: 9,
		FrameCounter:   2,
	}
	cipher.On("Encrypt", want, []byte{0xAB}).Return([]byte{1, 2, 3}, nil).Once()

	cfg := DefaultCreatorConfig()
	cfg.MessageCode = 0x0045
	cfg.Policy = encryptAll
	cfg.Cipher = cipher
	cfg.SequenceNumber = 9
	cfg.FrameCounter = 2
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	n, err := c.AppendCommand(clusterCommand(zcl.ClusterPrepayment, 0x04, 0xAB))
	require.NoError(t, err)
	// Ciphered length is the length the cipher returned.
	assert.Equal(t, ExtendedHeaderSize+AdditionalHeaderSize+zcl.HeaderSize+CipheredLengthSize+3, n)
	cipher.AssertExpectations(t)
}

func TestCreatorDefaultPolicy(t *testing.T) {
	cfg := DefaultCreatorConfig()
	cfg.MessageCode = policy.TestCodeEncrypt
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	_, err := c.AppendCommand(clusterCommand(zcl.ClusterAlarms, 0x00))
	assert.ErrorIs(t, err, ErrEncryptionFailure)
}

func TestCreatorFixedBuffer(t *testing.T) {
	t.Run("advances by component size", func(t *testing.T) {
		buf := make([]byte, 64)
		cfg := plainConfig()
		cfg.Buffer = buf
		c := mustCreator(t, cfg)
		defer c.Cleanup()

		cmd := clusterCommand(0x0700, 0x00, 1, 2, 3)
		size, err := ComponentSize(cmd, false, 0)
		require.NoError(t, err)

		before := c.Len()
		n, err := c.AppendCommand(cmd)
		require.NoError(t, err)
		assert.Equal(t, size, n)
		assert.Equal(t, before+size, c.Len())

		msg, err := c.Assemble()
		require.NoError(t, err)
		assert.False(t, msg.OwnershipTransferred)
		assert.Equal(t, buf[:before+size], msg.Payload)
		assert.Same(t, &buf[0], &msg.Payload[0])
	})

	t.Run("insufficient space leaves buffer untouched", func(t *testing.T) {
		buf := make([]byte, HeaderSize+12)
		cfg := plainConfig()
		cfg.Buffer = buf
		c := mustCreator(t, cfg)
		defer c.Cleanup()

		_, err := c.AppendCommand(clusterCommand(0x0700, 0x00, 1)) // 9 bytes
		require.NoError(t, err)
		snapshot := append([]byte(nil), buf...)

		n, err := c.AppendCommand(clusterCommand(0x0701, 0x00, 1, 2)) // 10 bytes
		assert.ErrorIs(t, err, ErrInsufficientSpace)
		assert.Zero(t, n)
		assert.Equal(t, snapshot, buf)
		assert.Equal(t, 1, c.ComponentCount())
	})

	t.Run("header does not fit", func(t *testing.T) {
		cfg := plainConfig()
		cfg.Type = MessageTypeAlert
		cfg.Buffer = make([]byte, 4)
		_, err := NewCreator(cfg)
		assert.ErrorIs(t, err, ErrInsufficientSpace)
	})
}

func TestCreatorListSinkLimit(t *testing.T) {
	cfg := plainConfig()
	cfg.MaxMessageSize = HeaderSize + 10
	c := mustCreator(t, cfg)
	defer c.Cleanup()

	_, err := c.AppendCommand(clusterCommand(0x0700, 0x00, 1, 2))
	require.NoError(t, err)

	_, err = c.AppendCommand(clusterCommand(0x0700, 0x00))
	assert.ErrorIs(t, err, ErrAllocationFailure)
	assert.Equal(t, 1, c.ComponentCount())
}

func TestCreatorLimits(t *testing.T) {
	t.Run("too many components", func(t *testing.T) {
		cfg := plainConfig()
		cfg.MaxMessageSize = 0
		c := mustCreator(t, cfg)
		defer c.Cleanup()

		for i := 0; i < MaxComponents; i++ {
			_, err := c.AppendCommand(clusterCommand(0x0700, 0x00))
			require.NoError(t, err)
		}
		_, err := c.AppendCommand(clusterCommand(0x0700, 0x00))
		assert.ErrorIs(t, err, ErrTooManyComponents)
	})

	t.Run("payload too large", func(t *testing.T) {
		cfg := plainConfig()
		cfg.MaxMessageSize = 0
		c := mustCreator(t, cfg)
		defer c.Cleanup()

		_, err := c.AppendCommand(clusterCommand(0x0700, 0x00, make([]byte, MaxComponentLength)...))
		assert.ErrorIs(t, err, ErrPayloadTooLarge)
	})

	t.Run("nil command", func(t *testing.T) {
		c := mustCreator(t, plainConfig())
		defer c.Cleanup()

		_, err := c.AppendCommand(nil)
		assert.ErrorIs(t, err, ErrNilCommand)
	})
}

func TestCreatorLifecycle(t *testing.T) {
	t.Run("append after assemble", func(t *testing.T) {
		c := mustCreator(t, plainConfig())
		defer c.Cleanup()

		_, err := c.Assemble()
		require.NoError(t, err)
		_, err = c.AppendCommand(clusterCommand(0x0700, 0x00))
		assert.ErrorIs(t, err, ErrAlreadyAssembled)
		_, err = c.Assemble()
		assert.ErrorIs(t, err, ErrAlreadyAssembled)
	})

	t.Run("use after cleanup", func(t *testing.T) {
		c := mustCreator(t, plainConfig())
		c.Cleanup()
		c.Cleanup()

		_, err := c.AppendCommand(clusterCommand(0x0700, 0x00))
		assert.ErrorIs(t, err, ErrHeaderNotInitialized)
		_, err = c.Assemble()
		assert.ErrorIs(t, err, ErrHeaderNotInitialized)
		assert.Zero(t, c.Len())
	})

	t.Run("zero value", func(t *testing.T) {
		var c Creator
		_, err := c.Assemble()
		assert.ErrorIs(t, err, ErrHeaderNotInitialized)
		_, err = c.AppendCommand(clusterCommand(0x0700, 0x00))
		assert.ErrorIs(t, err, ErrHeaderNotInitialized)
		c.Cleanup()
	})

	t.Run("result survives cleanup", func(t *testing.T) {
		c := mustCreator(t, plainConfig())
		_, err := c.AppendCommand(clusterCommand(0x0700, 0x00, 0x01))
		require.NoError(t, err)
		msg, err := c.Assemble()
		require.NoError(t, err)
		want := append([]byte(nil), msg.Payload...)
		c.Cleanup()
		assert.Equal(t, want, msg.Payload)
	})

	t.Run("invalid type", func(t *testing.T) {
		cfg := plainConfig()
		cfg.Type = MessageType(9)
		_, err := NewCreator(cfg)
		assert.ErrorIs(t, err, ErrInvalidMessageType)
	})
}

func TestCreatorProtocolEvents(t *testing.T) {
	rec := &recordingLogger{}
	cfg := plainConfig()
	cfg.Type = MessageTypeAlert
	cfg.AlertCode = 0x1234
	cfg.MessageCode = 0x0080
	cfg.ProtocolLogger = rec
	cfg.SessionID = "creator-1"
	c := mustCreator(t, cfg)

	_, err := c.AppendCommand(clusterCommand(zcl.ClusterAlarms, 0x00, 0x01))
	require.NoError(t, err)
	cmd := clusterCommand(zcl.ClusterPrice, 0x01)
	cmd.HasFromDateTime = true
	cmd.FromDateTime = 99
	_, err = c.AppendCommand(cmd)
	require.NoError(t, err)
	_, err = c.Assemble()
	require.NoError(t, err)
	c.Cleanup()

	for _, e := range rec.events {
		assert.Equal(t, "creator-1", e.SessionID)
		assert.Equal(t, log.DirectionOut, e.Direction)
		assert.Equal(t, log.MessageTypeAlert, e.MessageType)
		assert.Equal(t, uint16(0x0080), e.MessageCode)
	}

	msgs := rec.byCategory(log.CategoryMessage)
	require.Len(t, msgs, 3)
	require.NotNil(t, msgs[0].Component)
	assert.Equal(t, zcl.ClusterAlarms, msgs[0].Component.ClusterID)
	require.NotNil(t, msgs[1].Component.FromDateTime)
	assert.Equal(t, uint32(99), *msgs[1].Component.FromDateTime)
	require.NotNil(t, msgs[2].Header)
	assert.Equal(t, uint8(2), msgs[2].Header.ComponentCount)
	require.NotNil(t, msgs[2].Header.AlertCode)
	assert.Equal(t, uint16(0x1234), *msgs[2].Header.AlertCode)

	states := rec.byCategory(log.CategoryState)
	require.Len(t, states, 3)
	assert.Equal(t, "created", states[0].StateChange.NewState)
	assert.Equal(t, "assembled", states[1].StateChange.NewState)
	assert.Equal(t, "released", states[2].StateChange.NewState)
}
