package gbz

import (
	"encoding/binary"
	"fmt"

	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

// componentFields holds everything written for one component.
type componentFields struct {
	cmd          *zcl.Command
	last         bool
	encrypted    bool
	seq          uint8
	frameCounter uint8
	ciphertext   []byte
}

func (f *componentFields) control() uint8 {
	var c uint8
	if f.last {
		c |= ControlLastComponent
	}
	if f.encrypted {
		c |= ControlEncrypted
	}
	if f.cmd.HasFromDateTime {
		c |= ControlFromDateTime
	}
	return c
}

// encodeTo writes the component into buf, which must be exactly the size
// returned by ComponentSize.
func (f *componentFields) encodeTo(buf []byte) {
	buf[0] = f.control()
	binary.BigEndian.PutUint16(buf[1:3], f.cmd.ClusterID)
	binary.BigEndian.PutUint16(buf[3:5], uint16(componentLength(len(buf))))
	offset := ExtendedHeaderSize

	if f.cmd.HasFromDateTime {
		binary.BigEndian.PutUint32(buf[offset:], f.cmd.FromDateTime)
		offset += FromDateTimeSize
	}
	if f.encrypted {
		buf[offset] = AdditionalHeaderControl
		buf[offset+1] = f.frameCounter
		offset += AdditionalHeaderSize
	}

	buf[offset] = uint8(f.cmd.FrameControl)
	buf[offset+1] = f.seq
	buf[offset+2] = f.cmd.CommandID
	offset += zcl.HeaderSize

	if f.encrypted {
		binary.BigEndian.PutUint16(buf[offset:], uint16(len(f.ciphertext)))
		offset += CipheredLengthSize
		copy(buf[offset:], f.ciphertext)
		return
	}
	copy(buf[offset:], f.cmd.Payload)
}

// rawComponent is a component located in a message but not yet decrypted.
type rawComponent struct {
	control      uint8
	clusterID    uint16
	size         int
	fromDateTime uint32
	addlControl  uint8
	frameCounter uint8
	frameControl zcl.FrameControl
	seq          uint8
	commandID    uint8

	// body is the plaintext payload or the ciphertext.
	body []byte
}

func (r *rawComponent) encrypted() bool       { return r.control&ControlEncrypted != 0 }
func (r *rawComponent) hasFromDateTime() bool { return r.control&ControlFromDateTime != 0 }
func (r *rawComponent) last() bool            { return r.control&ControlLastComponent != 0 }

// componentSize returns the total size of the component starting at data[0]
// as announced by its ComponentLength field.
func componentSize(data []byte) (int, error) {
	if len(data) < ExtendedHeaderSize {
		return 0, fmt.Errorf("%w: %d bytes left for extended header", ErrMalformedComponent, len(data))
	}
	size := ExtendedHeaderSize + int(binary.BigEndian.Uint16(data[3:5]))
	if size > len(data) {
		return 0, fmt.Errorf("%w: component of %d bytes, %d left", ErrMalformedComponent, size, len(data))
	}
	return size, nil
}

// decodeComponent parses the component occupying all of data.
func decodeComponent(data []byte) (rawComponent, error) {
	r := rawComponent{
		control:   data[0],
		clusterID: binary.BigEndian.Uint16(data[1:3]),
		size:      len(data),
	}
	if r.encrypted() && r.hasFromDateTime() {
		return r, ErrInvalidFieldCombination
	}

	offset := ExtendedHeaderSize
	need := func(n int) error {
		if offset+n > len(data) {
			return fmt.Errorf("%w: cluster 0x%04X truncated at offset %d", ErrMalformedComponent, r.clusterID, offset)
		}
		return nil
	}

	if r.hasFromDateTime() {
		if err := need(FromDateTimeSize); err != nil {
			return r, err
		}
		r.fromDateTime = binary.BigEndian.Uint32(data[offset:])
		offset += FromDateTimeSize
	}
	if r.encrypted() {
		if err := need(AdditionalHeaderSize); err != nil {
			return r, err
		}
		r.addlControl = data[offset]
		r.frameCounter = data[offset+1]
		offset += AdditionalHeaderSize
	}

	if err := need(zcl.HeaderSize); err != nil {
		return r, err
	}
	r.frameControl = zcl.FrameControl(data[offset])
	r.seq = data[offset+1]
	r.commandID = data[offset+2]
	offset += zcl.HeaderSize

	if !r.encrypted() {
		r.body = data[offset:]
		return r, nil
	}

	if err := need(CipheredLengthSize); err != nil {
		return r, err
	}
	cipherLen := int(binary.BigEndian.Uint16(data[offset:]))
	offset += CipheredLengthSize
	if err := need(cipherLen); err != nil {
		return r, err
	}
	r.body = data[offset : offset+cipherLen]
	return r, nil
}
