package zcl

import "fmt"

// HeaderSize is the size of the ZCL header carried in a GBZ component:
// frame control, transaction sequence number and command id.
const HeaderSize = 3

// Frame control bits (ZCL 2.4.1.1).
const (
	frameTypeMask              uint8 = 0x03
	frameTypeGlobal            uint8 = 0x00
	frameTypeClusterSpecific   uint8 = 0x01
	frameManufacturerSpecific  uint8 = 0x04
	frameDirectionServerClient uint8 = 0x08
	frameDisableDefaultResp    uint8 = 0x10
)

// FrameControl is the first byte of a ZCL header.
type FrameControl uint8

// NewFrameControl builds a frame control byte.
func NewFrameControl(clusterSpecific, serverToClient, disableDefaultResponse bool) FrameControl {
	var fc uint8
	if clusterSpecific {
		fc |= frameTypeClusterSpecific
	}
	if serverToClient {
		fc |= frameDirectionServerClient
	}
	if disableDefaultResponse {
		fc |= frameDisableDefaultResp
	}
	return FrameControl(fc)
}

// ClusterSpecific reports whether the command is cluster specific rather
// than a global (foundation) command.
func (f FrameControl) ClusterSpecific() bool {
	return uint8(f)&frameTypeMask == frameTypeClusterSpecific
}

// Global reports whether the command is a foundation command.
func (f FrameControl) Global() bool {
	return uint8(f)&frameTypeMask == frameTypeGlobal
}

// ManufacturerSpecific reports the manufacturer specific bit.
func (f FrameControl) ManufacturerSpecific() bool {
	return uint8(f)&frameManufacturerSpecific != 0
}

// Direction returns the direction encoded in the frame control.
func (f FrameControl) Direction() Direction {
	if uint8(f)&frameDirectionServerClient != 0 {
		return DirectionServerToClient
	}
	return DirectionClientToServer
}

// DisableDefaultResponse reports the disable default response bit.
func (f FrameControl) DisableDefaultResponse() bool {
	return uint8(f)&frameDisableDefaultResp != 0
}

// String returns a compact description, e.g. "0x09(cluster,s->c)".
func (f FrameControl) String() string {
	kind := "global"
	if f.ClusterSpecific() {
		kind = "cluster"
	}
	s := fmt.Sprintf("0x%02X(%s,%s", uint8(f), kind, f.Direction())
	if f.ManufacturerSpecific() {
		s += ",mfg"
	}
	if f.DisableDefaultResponse() {
		s += ",no-dr"
	}
	return s + ")"
}

// Direction is the ZCL command direction.
type Direction uint8

const (
	// DirectionClientToServer is a command sent to a cluster server.
	DirectionClientToServer Direction = 0
	// DirectionServerToClient is a command sent by a cluster server.
	DirectionServerToClient Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	if d == DirectionServerToClient {
		return "s->c"
	}
	return "c->s"
}

// Command is an outgoing ZCL command to be carried in a GBZ component.
// The transaction sequence number is assigned by the GBZ creator.
type Command struct {
	ClusterID    uint16
	FrameControl FrameControl
	CommandID    uint8
	Payload      []byte

	// HasFromDateTime requests the optional From Date Time field.
	// It cannot be combined with an encrypted component.
	HasFromDateTime bool
	FromDateTime    uint32
}

// IsDefaultResponse reports whether the command is a ZCL Default Response.
func (c *Command) IsDefaultResponse() bool {
	return IsDefaultResponse(c.FrameControl, c.CommandID)
}

// IsDefaultResponse reports whether a frame control / command id pair is a
// ZCL Default Response.
func IsDefaultResponse(fc FrameControl, commandID uint8) bool {
	return fc.Global() && commandID == CommandDefaultResponse
}
