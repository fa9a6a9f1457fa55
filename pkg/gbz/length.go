package gbz

import "github.com/mash-protocol/gbz-go/pkg/zcl"

// ComponentSize returns the wire size of the component that carries cmd.
// For encrypted components cipherLen is the ciphertext length returned by
// the cipher; otherwise the plaintext payload length is used.
//
// It returns 0 and ErrInvalidFieldCombination when cmd requests a From Date
// Time field on an encrypted component.
func ComponentSize(cmd *zcl.Command, encrypted bool, cipherLen int) (int, error) {
	if cmd.HasFromDateTime && encrypted {
		return 0, ErrInvalidFieldCombination
	}

	size := ExtendedHeaderSize
	if cmd.HasFromDateTime {
		size += FromDateTimeSize
	}
	if encrypted {
		size += AdditionalHeaderSize
	}
	size += zcl.HeaderSize
	if encrypted {
		size += CipheredLengthSize + cipherLen
	} else {
		size += len(cmd.Payload)
	}
	return size, nil
}

// componentLength is the ComponentLength field value of a component of the
// given total size.
func componentLength(size int) int {
	return size - ExtendedHeaderSize
}
