package gbz

import (
	"log/slog"

	"github.com/mash-protocol/gbz-go/pkg/log"
)

// CreatorConfig configures a Creator.
type CreatorConfig struct {
	// Type selects the header layout.
	Type MessageType

	// AlertCode and AlertTimestamp are written for alert messages only.
	AlertCode      uint16
	AlertTimestamp uint32

	// MessageCode is the use case message code passed to the encryption
	// policy and the cipher.
	MessageCode uint16

	// Buffer selects the fixed buffer sink when non-nil. The message is
	// written in place and Assemble returns a prefix of Buffer.
	Buffer []byte

	// MaxMessageSize bounds the list sink (0 = unbounded).
	MaxMessageSize int

	// Cipher encrypts components selected by Policy. Appending a component
	// that needs encryption fails when Cipher is nil.
	Cipher Cipher

	// Policy decides which components are encrypted.
	// If nil, the embedded policy table is used.
	Policy EncryptionPolicy

	// SequenceNumber is the first ZCL transaction sequence number.
	SequenceNumber uint8

	// FrameCounter is the first encrypted component frame counter.
	FrameCounter uint8

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives codec events (optional).
	ProtocolLogger log.Logger

	// SessionID tags protocol events. Generated when empty.
	SessionID string
}

// DefaultCreatorConfig returns a CreatorConfig for a command message built
// with the list sink.
func DefaultCreatorConfig() CreatorConfig {
	return CreatorConfig{
		Type:           MessageTypeCommand,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// Validate checks if the creator config is valid.
func (c *CreatorConfig) Validate() error {
	if !c.Type.IsValid() {
		return ErrInvalidMessageType
	}
	if c.MaxMessageSize < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ParserConfig configures a Parser.
type ParserConfig struct {
	// Type selects the expected header layout.
	Type MessageType

	// MessageCode is passed to the cipher for encrypted components.
	MessageCode uint16

	// CopyInput makes the parser own a private copy of the input, so the
	// caller may reuse its buffer. Otherwise payload spans alias the input.
	CopyInput bool

	// MaxMessageSize bounds the input copy (0 = unbounded).
	MaxMessageSize int

	// Cipher decrypts encrypted components. Without one, encrypted
	// payloads are exposed as ciphertext.
	Cipher Cipher

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives codec events (optional).
	ProtocolLogger log.Logger

	// SessionID tags protocol events. Generated when empty.
	SessionID string
}

// DefaultParserConfig returns a ParserConfig for command messages that
// borrows its input.
func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		Type:           MessageTypeCommand,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// Validate checks if the parser config is valid.
func (c *ParserConfig) Validate() error {
	if !c.Type.IsValid() {
		return ErrInvalidMessageType
	}
	if c.MaxMessageSize < 0 {
		return ErrInvalidConfig
	}
	return nil
}
