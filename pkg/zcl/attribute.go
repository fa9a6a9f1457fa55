package zcl

import (
	"encoding/binary"
	"errors"
)

// ErrTruncatedRecord is returned when an attribute record runs past the end
// of the payload or uses an unknown data type.
var ErrTruncatedRecord = errors.New("zcl: truncated attribute record")

// AttributeRecord is one record of a Read Attributes Response:
// attribute id, status and, on success, type and value.
type AttributeRecord struct {
	AttributeID uint16
	Status      uint8
	Type        DataType
	Value       []byte
}

// AttributeReader walks the record stream of a Read Attributes Response
// payload without copying it.
type AttributeReader struct {
	data []byte
	off  int
	err  error
}

// NewAttributeReader returns a reader over a Read Attributes Response payload.
func NewAttributeReader(payload []byte) *AttributeReader {
	return &AttributeReader{data: payload}
}

// Next returns the next record. It returns false at the end of the stream or
// on a malformed record; Err distinguishes the two.
func (r *AttributeReader) Next() (AttributeRecord, bool) {
	if r.err != nil || r.off >= len(r.data) {
		return AttributeRecord{}, false
	}
	rest := r.data[r.off:]
	if len(rest) < 3 {
		r.err = ErrTruncatedRecord
		return AttributeRecord{}, false
	}
	rec := AttributeRecord{
		AttributeID: binary.LittleEndian.Uint16(rest),
		Status:      rest[2],
	}
	r.off += 3
	if rec.Status != StatusSuccess {
		return rec, true
	}

	rest = r.data[r.off:]
	if len(rest) < 1 {
		r.err = ErrTruncatedRecord
		return AttributeRecord{}, false
	}
	rec.Type = DataType(rest[0])
	n, ok := rec.Type.ValueSize(rest[1:])
	if !ok {
		r.err = ErrTruncatedRecord
		return AttributeRecord{}, false
	}
	rec.Value = rest[1 : 1+n]
	r.off += 1 + n
	return rec, true
}

// Err returns the error that stopped iteration, if any.
func (r *AttributeReader) Err() error {
	return r.err
}

// ContainsSuccess reports whether payload holds a successful record for any
// of the given attribute ids. Records after a malformed one are not seen.
func ContainsSuccess(payload []byte, ids ...uint16) bool {
	r := NewAttributeReader(payload)
	for {
		rec, ok := r.Next()
		if !ok {
			return false
		}
		if rec.Status != StatusSuccess {
			continue
		}
		for _, id := range ids {
			if rec.AttributeID == id {
				return true
			}
		}
	}
}

// AppendAttributeRecord encodes rec onto dst in Read Attributes Response
// layout.
func AppendAttributeRecord(dst []byte, rec AttributeRecord) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, rec.AttributeID)
	dst = append(dst, rec.Status)
	if rec.Status != StatusSuccess {
		return dst
	}
	dst = append(dst, uint8(rec.Type))
	return append(dst, rec.Value...)
}
