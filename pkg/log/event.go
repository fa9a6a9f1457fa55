package log

import (
	"time"
)

// Event represents a codec log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the parser, creator or spool that emitted the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates whether the message was being decoded or encoded.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// MessageType is the GBZ message type of the session.
	MessageType MessageType `cbor:"6,keyasint,omitempty"`

	// MessageCode is the use case message code of the session (0 if unknown).
	MessageCode uint16 `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Spool layer
	Header      *HeaderEvent      `cbor:"11,keyasint,omitempty"` // Message layer
	Component   *ComponentEvent   `cbor:"12,keyasint,omitempty"` // Component layer
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"` // Parser/creator lifecycle
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an inbound message being decoded.
	DirectionIn Direction = 0
	// DirectionOut indicates an outbound message being encoded.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which codec layer captured the event.
type Layer uint8

const (
	// LayerSpool is the store-and-forward framing layer (raw bytes).
	LayerSpool Layer = 0
	// LayerMessage is the GBZ header layer.
	LayerMessage Layer = 1
	// LayerComponent is the per-component layer.
	LayerComponent Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerSpool:
		return "SPOOL"
	case LayerMessage:
		return "MESSAGE"
	case LayerComponent:
		return "COMPONENT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates encoded or decoded message content.
	CategoryMessage Category = 0
	// CategoryState indicates a lifecycle state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageType mirrors the GBZ message type.
type MessageType uint8

const (
	// MessageTypeCommand indicates a command message.
	MessageTypeCommand MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
	// MessageTypeAlert indicates an alert message.
	MessageTypeAlert MessageType = 2
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
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

// FrameEvent captures raw frame data at the spool layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// HeaderEvent captures a GBZ message header.
type HeaderEvent struct {
	ProfileID      uint16 `cbor:"1,keyasint"`
	ComponentCount uint8  `cbor:"2,keyasint"`

	// Alert fields, present for alert messages only.
	AlertCode      *uint16 `cbor:"3,keyasint,omitempty"`
	AlertTimestamp *uint32 `cbor:"4,keyasint,omitempty"`

	// Size is the total message size in bytes when known (assembled or parsed).
	Size int `cbor:"5,keyasint,omitempty"`
}

// ComponentEvent captures one encoded or decoded component.
type ComponentEvent struct {
	// Index is the zero-based position of the component in its message.
	Index int `cbor:"1,keyasint"`

	ClusterID      uint16 `cbor:"2,keyasint"`
	CommandID      uint8  `cbor:"3,keyasint"`
	FrameControl   uint8  `cbor:"4,keyasint"`
	SequenceNumber uint8  `cbor:"5,keyasint"`

	// Length is the wire size of the whole component.
	Length int `cbor:"6,keyasint"`

	// PayloadSize is the plaintext payload size when known.
	PayloadSize int `cbor:"7,keyasint"`

	Encrypted    bool    `cbor:"8,keyasint,omitempty"`
	FrameCounter *uint8  `cbor:"9,keyasint,omitempty"`
	FromDateTime *uint32 `cbor:"10,keyasint,omitempty"`

	// Decrypted reports the outcome of decryption for inbound encrypted
	// components; nil otherwise.
	Decrypted *bool `cbor:"11,keyasint,omitempty"`
}

// StateChangeEvent captures parser and creator lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityParser indicates a parser state change.
	StateEntityParser StateEntity = 0
	// StateEntityCreator indicates a creator state change.
	StateEntityCreator StateEntity = 1
	// StateEntitySpool indicates a spool state change.
	StateEntitySpool StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityParser:
		return "PARSER"
	case StateEntityCreator:
		return "CREATOR"
	case StateEntitySpool:
		return "SPOOL"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
