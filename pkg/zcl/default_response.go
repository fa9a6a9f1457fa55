package zcl

import "errors"

// ErrNotDefaultResponse is returned when decoding a command that is not a
// Default Response.
var ErrNotDefaultResponse = errors.New("zcl: not a default response")

// DefaultResponse is the payload of a ZCL Default Response.
type DefaultResponse struct {
	CommandID uint8
	Status    uint8
}

// DecodeDefaultResponse decodes the payload of a Default Response command.
func DecodeDefaultResponse(fc FrameControl, commandID uint8, payload []byte) (DefaultResponse, error) {
	if !IsDefaultResponse(fc, commandID) || len(payload) < 2 {
		return DefaultResponse{}, ErrNotDefaultResponse
	}
	return DefaultResponse{CommandID: payload[0], Status: payload[1]}, nil
}

// Encode returns the two-byte Default Response payload.
func (d DefaultResponse) Encode() []byte {
	return []byte{d.CommandID, d.Status}
}
