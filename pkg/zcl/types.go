package zcl

import "encoding/binary"

// DataType is a ZCL attribute data type id.
type DataType uint8

// Common fixed size data types.
const (
	TypeBool    DataType = 0x10
	TypeUint8   DataType = 0x20
	TypeUint16  DataType = 0x21
	TypeUint24  DataType = 0x22
	TypeUint32  DataType = 0x23
	TypeUint48  DataType = 0x25
	TypeInt32   DataType = 0x2B
	TypeEnum8   DataType = 0x30
	TypeUTCTime DataType = 0xE2
)

// Data types with a length prefix rather than a fixed size.
const (
	TypeOctetString     DataType = 0x41
	TypeCharString      DataType = 0x42
	TypeLongOctetString DataType = 0x43
	TypeLongCharString  DataType = 0x44
)

const (
	sizeVariable8  = -1
	sizeVariable16 = -2
	sizeUnknown    = -3
)

// fixedSize returns the value size of t, or one of the size* markers.
func (t DataType) fixedSize() int {
	switch {
	case t >= 0x08 && t <= 0x0F: // data8..data64
		return int(t-0x08) + 1
	case t == 0x10: // bool
		return 1
	case t >= 0x18 && t <= 0x1F: // map8..map64
		return int(t-0x18) + 1
	case t >= 0x20 && t <= 0x27: // uint8..uint64
		return int(t-0x20) + 1
	case t >= 0x28 && t <= 0x2F: // int8..int64
		return int(t-0x28) + 1
	case t == 0x30: // enum8
		return 1
	case t == 0x31: // enum16
		return 2
	case t == 0x38: // semi
		return 2
	case t == 0x39: // single
		return 4
	case t == 0x3A: // double
		return 8
	case t == 0xE0, t == 0xE1, t == 0xE2: // ToD, date, UTC
		return 4
	case t == 0xE8, t == 0xE9: // cluster id, attribute id
		return 2
	case t == 0xEA: // BACnet OID
		return 4
	case t == 0xF0: // EUI64
		return 8
	case t == 0xF1: // key128
		return 16
	case t == TypeOctetString, t == TypeCharString:
		return sizeVariable8
	case t == TypeLongOctetString, t == TypeLongCharString:
		return sizeVariable16
	}
	return sizeUnknown
}

// ValueSize returns the number of bytes the value of type t occupies at the
// start of data, including any length prefix. ok is false for unknown types
// or when data is too short.
func (t DataType) ValueSize(data []byte) (n int, ok bool) {
	switch size := t.fixedSize(); size {
	case sizeUnknown:
		return 0, false
	case sizeVariable8:
		if len(data) < 1 {
			return 0, false
		}
		n = 1 + int(data[0])
		if data[0] == 0xFF { // invalid / absent string
			n = 1
		}
	case sizeVariable16:
		if len(data) < 2 {
			return 0, false
		}
		l := binary.LittleEndian.Uint16(data)
		n = 2 + int(l)
		if l == 0xFFFF {
			n = 2
		}
	default:
		n = size
	}
	if len(data) < n {
		return 0, false
	}
	return n, true
}
