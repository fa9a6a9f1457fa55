package gbz

import (
	"fmt"

	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// DecryptionStatus records what happened to an encrypted payload.
type DecryptionStatus uint8

const (
	// DecryptionNotApplicable marks unencrypted components.
	DecryptionNotApplicable DecryptionStatus = iota
	// DecryptionSucceeded marks components whose payload is plaintext.
	DecryptionSucceeded
	// DecryptionFailed marks components whose payload is still ciphertext.
	DecryptionFailed
)

// String returns the status name.
func (s DecryptionStatus) String() string {
	switch s {
	case DecryptionNotApplicable:
		return "n/a"
	case DecryptionSucceeded:
		return "decrypted"
	case DecryptionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParsedCommand is a ZCL command decoded from a GBZ component.
type ParsedCommand struct {
	// Index is the zero-based position of the component in the message.
	Index int

	// Last reports the last-component bit of the control field.
	Last bool

	ClusterID                 uint16
	FrameControl              zcl.FrameControl
	CommandID                 uint8
	TransactionSequenceNumber uint8

	HasFromDateTime bool
	FromDateTime    uint32

	Encrypted               bool
	AdditionalHeaderControl uint8
	FrameCounter            uint8

	// CipheredLength is the ciphertext length of encrypted components.
	CipheredLength int

	// Decryption tells whether Payload holds plaintext or the original
	// ciphertext. DecryptionErr carries the cause of a failure.
	Decryption    DecryptionStatus
	DecryptionErr error

	// Payload is the plaintext payload, or the ciphertext when decryption
	// failed.
	Payload Span
}

// ClusterSpecific reports the frame type bit of the frame control.
func (c *ParsedCommand) ClusterSpecific() bool {
	return c.FrameControl.ClusterSpecific()
}

// ManufacturerSpecific reports the manufacturer specific bit.
func (c *ParsedCommand) ManufacturerSpecific() bool {
	return c.FrameControl.ManufacturerSpecific()
}

// Direction reports the direction bit of the frame control.
func (c *ParsedCommand) Direction() zcl.Direction {
	return c.FrameControl.Direction()
}

// PlaintextLength returns the payload length when the payload is plaintext,
// and 0 when decryption failed.
func (c *ParsedCommand) PlaintextLength() int {
	if c.Decryption == DecryptionFailed {
		return 0
	}
	return c.Payload.Len()
}

// IsDefaultResponse reports whether the command is a ZCL Default Response.
func (c *ParsedCommand) IsDefaultResponse() bool {
	return zcl.IsDefaultResponse(c.FrameControl, c.CommandID)
}

// DefaultResponse decodes the command as a ZCL Default Response.
func (c *ParsedCommand) DefaultResponse() (zcl.DefaultResponse, error) {
	payload, err := c.Payload.Bytes()
	if err != nil {
		return zcl.DefaultResponse{}, err
	}
	return zcl.DecodeDefaultResponse(c.FrameControl, c.CommandID, payload)
}

// Command converts the view back into an outgoing command with a copied
// payload, e.g. to forward it in another message. It fails with
// ErrDecryptionFailure when the payload is still ciphertext.
func (c *ParsedCommand) Command() (*zcl.Command, error) {
	if c.Decryption == DecryptionFailed {
		return nil, fmt.Errorf("%w: component %d still encrypted", ErrDecryptionFailure, c.Index)
	}
	payload, err := c.Payload.Clone()
	if err != nil {
		return nil, err
	}
	return &zcl.Command{
		ClusterID:       c.ClusterID,
		FrameControl:    c.FrameControl,
		CommandID:       c.CommandID,
		Payload:         payload,
		HasFromDateTime: c.HasFromDateTime,
		FromDateTime:    c.FromDateTime,
	}, nil
}
