package gbz

import "github.com/mash-protocol/gbz-go/pkg/log"

// ProfileID is the GBZ profile identifier carried in every message header.
const ProfileID uint16 = 0x0109

// Header sizes.
const (
	// HeaderSize is ProfileId (2) + ComponentCount (1).
	HeaderSize = 3

	// AlertHeaderSize is the additional AlertCode (2) + AlertTimestamp (4).
	AlertHeaderSize = 6

	// componentCountOffset is the offset of ComponentCount in the header.
	componentCountOffset = 2
)

// Component field sizes.
const (
	// ExtendedHeaderSize is Control (1) + ClusterId (2) + ComponentLength (2).
	ExtendedHeaderSize = 5

	// FromDateTimeSize is the optional From Date Time field.
	FromDateTimeSize = 4

	// AdditionalHeaderSize is AdditionalHeaderControl (1) + FrameCounter (1).
	AdditionalHeaderSize = 2

	// CipheredLengthSize prefixes the ciphertext of encrypted components.
	CipheredLengthSize = 2

	// MaxComponentLength is the largest value the ComponentLength field holds.
	MaxComponentLength = 0xFFFF

	// MaxComponents is the largest value the ComponentCount field holds.
	MaxComponents = 0xFF
)

// Extended header control field bits.
const (
	ControlLastComponent uint8 = 0x01
	ControlEncrypted     uint8 = 0x02
	ControlFromDateTime  uint8 = 0x10
)

// AdditionalHeaderControl is the value written in the additional header of
// encrypted components.
const AdditionalHeaderControl uint8 = 0x00

// DefaultMaxMessageSize bounds the List sink and parser input copies.
const DefaultMaxMessageSize = 65536

// MessageType selects the header layout of a GBZ message.
type MessageType uint8

const (
	MessageTypeCommand  MessageType = 0
	MessageTypeResponse MessageType = 1
	MessageTypeAlert    MessageType = 2
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case MessageTypeCommand:
		return "COMMAND"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeAlert:
		return "ALERT"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether t is a defined message type.
func (t MessageType) IsValid() bool {
	return t <= MessageTypeAlert
}

// ParseMessageType parses "command", "response" or "alert".
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case "command", "COMMAND":
		return MessageTypeCommand, nil
	case "response", "RESPONSE":
		return MessageTypeResponse, nil
	case "alert", "ALERT":
		return MessageTypeAlert, nil
	}
	return 0, ErrInvalidMessageType
}

// headerSize returns the header length for t.
func (t MessageType) headerSize() int {
	if t == MessageTypeAlert {
		return HeaderSize + AlertHeaderSize
	}
	return HeaderSize
}

func (t MessageType) logType() log.MessageType {
	return log.MessageType(t)
}
