package gbz

import (
	"encoding/binary"
	"fmt"
)

// Header is the GBZ message header.
// All multi-byte fields are big-endian on the wire.
type Header struct {
	Type           MessageType
	ComponentCount uint8

	// AlertCode and AlertTimestamp are present for alert messages only.
	AlertCode      uint16
	AlertTimestamp uint32
}

// Size returns the encoded size of the header in bytes.
func (h *Header) Size() int {
	return h.Type.headerSize()
}

// Encode serializes the header to bytes.
func (h *Header) Encode() []byte {
	buf := make([]byte, h.Size())
	h.EncodeTo(buf)
	return buf
}

// EncodeTo serializes the header into buf, which must be at least Size()
// bytes long. Returns the number of bytes written.
func (h *Header) EncodeTo(buf []byte) int {
	binary.BigEndian.PutUint16(buf[0:2], ProfileID)
	buf[componentCountOffset] = h.ComponentCount
	if h.Type != MessageTypeAlert {
		return HeaderSize
	}
	binary.BigEndian.PutUint16(buf[3:5], h.AlertCode)
	binary.BigEndian.PutUint32(buf[5:9], h.AlertTimestamp)
	return HeaderSize + AlertHeaderSize
}

// DecodeHeader parses the header of a message of type t.
func DecodeHeader(data []byte, t MessageType) (Header, error) {
	h := Header{Type: t}
	if !t.IsValid() {
		return h, ErrInvalidMessageType
	}
	if len(data) < h.Size() {
		return h, fmt.Errorf("%w: need %d header bytes, have %d", ErrMessageTooShort, h.Size(), len(data))
	}
	if id := binary.BigEndian.Uint16(data[0:2]); id != ProfileID {
		return h, fmt.Errorf("%w: 0x%04X", ErrInvalidProfileID, id)
	}
	h.ComponentCount = data[componentCountOffset]
	if t == MessageTypeAlert {
		h.AlertCode, h.AlertTimestamp = readAlertHeader(data)
	}
	return h, nil
}

func readAlertHeader(data []byte) (uint16, uint32) {
	return binary.BigEndian.Uint16(data[3:5]), binary.BigEndian.Uint32(data[5:9])
}
