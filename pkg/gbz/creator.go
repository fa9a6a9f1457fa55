package gbz

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mash-protocol/gbz-go/pkg/log"
	"github.com/mash-protocol/gbz-go/pkg/policy"
	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// Creator builds a GBZ message one ZCL command at a time.
//
// A Creator is not safe for concurrent use. Every AppendCommand is atomic:
// on error neither the sink nor any counter is changed.
type Creator struct {
	config CreatorConfig
	sink   Sink
	policy EncryptionPolicy

	count        int
	seq          uint8
	frameCounter uint8

	// last is the handle of the component holding the last-component bit.
	last    Handle
	hasLast bool

	assembled bool
	result    *Message

	logger *slog.Logger
	events protocolLog
}

// NewCreator writes the message header and selects the sink: a
// FixedBufferSink over config.Buffer when set, a ListSink otherwise.
func NewCreator(config CreatorConfig) (*Creator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pol := config.Policy
	if pol == nil {
		table, err := policy.Default()
		if err != nil {
			return nil, fmt.Errorf("loading encryption policy: %w", err)
		}
		pol = table
	}

	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}

	header := (&Header{
		Type:           config.Type,
		AlertCode:      config.AlertCode,
		AlertTimestamp: config.AlertTimestamp,
	}).Encode()

	var (
		sink Sink
		err  error
	)
	if config.Buffer != nil {
		sink, err = NewFixedBufferSink(config.Buffer, header)
	} else {
		sink, err = NewListSink(header, config.MaxMessageSize)
	}
	if err != nil {
		return nil, err
	}

	c := &Creator{
		config:       config,
		sink:         sink,
		policy:       pol,
		seq:          config.SequenceNumber,
		frameCounter: config.FrameCounter,
		logger:       config.Logger,
		events: protocolLog{
			logger:      config.ProtocolLogger,
			sessionID:   config.SessionID,
			direction:   log.DirectionOut,
			messageType: config.Type.logType(),
			messageCode: config.MessageCode,
		},
	}
	c.events.state(log.StateEntityCreator, "", "created", sinkName(sink))
	return c, nil
}

func sinkName(s Sink) string {
	switch s.(type) {
	case *FixedBufferSink:
		return "fixed buffer"
	case *ListSink:
		return "list"
	default:
		return fmt.Sprintf("%T", s)
	}
}

// AppendCommand encodes cmd as the new last component and returns the
// number of bytes it occupies. On error it returns 0 and the message is
// unchanged.
func (c *Creator) AppendCommand(cmd *zcl.Command) (int, error) {
	n, err := c.appendCommand(cmd)
	if err != nil {
		c.debug("append rejected", "error", err)
		c.events.error(log.LayerComponent, err)
		return 0, err
	}
	return n, nil
}

func (c *Creator) appendCommand(cmd *zcl.Command) (int, error) {
	if cmd == nil {
		return 0, ErrNilCommand
	}
	if c.sink == nil || c.sink.Header() == nil {
		return 0, ErrHeaderNotInitialized
	}
	if c.assembled {
		return 0, ErrAlreadyAssembled
	}
	if c.count >= MaxComponents {
		return 0, fmt.Errorf("%w: %d", ErrTooManyComponents, c.count)
	}

	fields := componentFields{
		cmd:          cmd,
		last:         true,
		encrypted:    c.policy.ShouldEncrypt(c.config.MessageCode, cmd.ClusterID, cmd.CommandID, cmd.FrameControl, cmd.Payload),
		seq:          c.seq,
		frameCounter: c.frameCounter,
	}

	if fields.encrypted {
		if cmd.HasFromDateTime {
			return 0, ErrInvalidFieldCombination
		}
		ct, err := c.encrypt(cmd)
		if err != nil {
			return 0, err
		}
		if len(ct) > MaxComponentLength {
			return 0, fmt.Errorf("%w: ciphertext of %d bytes", ErrPayloadTooLarge, len(ct))
		}
		fields.ciphertext = ct
	}

	size, err := ComponentSize(cmd, fields.encrypted, len(fields.ciphertext))
	if err != nil {
		return 0, err
	}
	if componentLength(size) > MaxComponentLength {
		return 0, fmt.Errorf("%w: component length %d", ErrPayloadTooLarge, componentLength(size))
	}

	h, region, err := c.sink.Reserve(size)
	if err != nil {
		return 0, err
	}

	if c.hasLast {
		if prev := c.sink.Component(c.last); len(prev) > 0 {
			prev[0] &^= ControlLastComponent
		}
	}
	fields.encodeTo(region)

	c.last, c.hasLast = h, true
	c.count++
	c.sink.Header()[componentCountOffset] = uint8(c.count)
	c.seq++
	if fields.encrypted {
		c.frameCounter++
	}

	c.logComponent(&fields, size)
	return size, nil
}

func (c *Creator) encrypt(cmd *zcl.Command) ([]byte, error) {
	if c.config.Cipher == nil {
		return nil, fmt.Errorf("%w: no cipher configured", ErrEncryptionFailure)
	}
	info := ComponentInfo{
		MessageCode:    c.config.MessageCode,
		ClusterID:      cmd.ClusterID,
		CommandID:      cmd.CommandID,
		FrameControl:   cmd.FrameControl,
		SequenceNumber: c.seq,
		FrameCounter:   c.frameCounter,
	}
	ct, err := c.config.Cipher.Encrypt(info, cmd.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailure, err)
	}
	return ct, nil
}

func (c *Creator) logComponent(f *componentFields, size int) {
	if c.events.logger == nil {
		return
	}
	ev := &log.ComponentEvent{
		Index:          c.count - 1,
		ClusterID:      f.cmd.ClusterID,
		CommandID:      f.cmd.CommandID,
		FrameControl:   uint8(f.cmd.FrameControl),
		SequenceNumber: f.seq,
		Length:         size,
		PayloadSize:    len(f.cmd.Payload),
		Encrypted:      f.encrypted,
	}
	if f.encrypted {
		fc := f.frameCounter
		ev.FrameCounter = &fc
	}
	if f.cmd.HasFromDateTime {
		fdt := f.cmd.FromDateTime
		ev.FromDateTime = &fdt
	}
	c.events.component(ev)
}

// Assemble finalizes the message. It may be called once; the returned
// Message stays valid after Cleanup.
func (c *Creator) Assemble() (*Message, error) {
	if c.sink == nil || c.sink.Header() == nil {
		return nil, ErrHeaderNotInitialized
	}
	if c.assembled {
		return nil, ErrAlreadyAssembled
	}

	header := append([]byte(nil), c.sink.Header()...)
	msg, err := c.sink.Assemble()
	if err != nil {
		c.events.error(log.LayerMessage, err)
		return nil, err
	}
	c.assembled = true
	c.result = msg

	c.events.header(header, uint8(c.count), msg.Len())
	c.events.state(log.StateEntityCreator, "created", "assembled", "")
	c.debug("message assembled", "components", c.count, "size", msg.Len())
	return msg, nil
}

// Cleanup releases the sink and drops the reference to any assembled
// result. It is safe to call more than once, with or without Assemble.
func (c *Creator) Cleanup() {
	if c.sink == nil {
		return
	}
	old := "created"
	if c.assembled {
		old = "assembled"
	}
	c.sink.Release()
	c.sink = nil
	c.result = nil
	c.hasLast = false
	c.events.state(log.StateEntityCreator, old, "released", "")
}

// ComponentCount returns the number of appended components.
func (c *Creator) ComponentCount() int {
	return c.count
}

// SequenceNumber returns the transaction sequence number the next
// component will carry.
func (c *Creator) SequenceNumber() uint8 {
	return c.seq
}

// FrameCounter returns the frame counter the next encrypted component will
// carry.
func (c *Creator) FrameCounter() uint8 {
	return c.frameCounter
}

// Len returns the size of the message built so far.
func (c *Creator) Len() int {
	if c.sink == nil {
		return 0
	}
	return c.sink.Len()
}

// SessionID returns the identifier used in protocol events.
func (c *Creator) SessionID() string {
	return c.config.SessionID
}

func (c *Creator) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, append([]any{"session", c.config.SessionID}, args...)...)
	}
}
