package gbz

import (
	"testing"

	"github.com/mash-protocol/gbz-go/pkg/zcl"
)

func TestComponentSize(t *testing.T) {
	tests := []struct {
		name      string
		payload   int
		fdt       bool
		encrypted bool
		cipherLen int
		want      int
		wantErr   error
	}{
		{name: "empty plain", want: 8},
		{name: "plain", payload: 10, want: 18},
		{name: "from date time", payload: 10, fdt: true, want: 22},
		{name: "encrypted", payload: 10, encrypted: true, cipherLen: 14, want: 26},
		{name: "encrypted uses cipher length", payload: 100, encrypted: true, cipherLen: 0, want: 12},
		{name: "both", payload: 1, fdt: true, encrypted: true, cipherLen: 1, wantErr: ErrInvalidFieldCombination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &zcl.Command{
				Payload:         make([]byte, tt.payload),
				HasFromDateTime: tt.fdt,
			}
			got, err := ComponentSize(cmd, tt.encrypted, tt.cipherLen)
			if err != tt.wantErr {
				t.Fatalf("ComponentSize() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ComponentSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHeaderEncodeDecode(t *testing.T) {
	h := Header{Type: MessageTypeAlert, ComponentCount: 2, AlertCode: 0x1234, AlertTimestamp: 0xAABBCCDD}
	data := h.Encode()
	want := []byte{0x01, 0x09, 0x02, 0x12, 0x34, 0xAA, 0xBB, 0xCC, 0xDD}
	if string(data) != string(want) {
		t.Fatalf("Encode() = % X, want % X", data, want)
	}

	got, err := DecodeHeader(data, MessageTypeAlert)
	if err != nil {
		t.Fatalf("DecodeHeader() error = %v", err)
	}
	if got != h {
		t.Errorf("DecodeHeader() = %+v, want %+v", got, h)
	}

	// The same bytes read as a command message ignore the alert fields.
	got, err = DecodeHeader(data, MessageTypeCommand)
	if err != nil {
		t.Fatalf("DecodeHeader() error = %v", err)
	}
	if got.AlertCode != 0 || got.ComponentCount != 2 {
		t.Errorf("DecodeHeader() = %+v", got)
	}
}

func TestMessageTypeParse(t *testing.T) {
	for _, typ := range []MessageType{MessageTypeCommand, MessageTypeResponse, MessageTypeAlert} {
		got, err := ParseMessageType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseMessageType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := ParseMessageType("notify"); err != ErrInvalidMessageType {
		t.Errorf("ParseMessageType(notify) error = %v", err)
	}
}
