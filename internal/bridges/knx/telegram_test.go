package knx

import (
	"bytes"
	"testing"
)

func TestTelegramEncode(t *testing.T) {
	tests := []struct {
		name     string
		telegram Telegram
		want     []byte
	}{
		{
			name:     "short frame small value",
			telegram: NewWriteTelegram(GroupAddress{Main: 2, Middle: 1, Sub: 5}, []byte{0x01}),
			want:     []byte{0x11, 0x05, 0x00, 0x81},
		},
		{
			name:     "long frame large value",
			telegram: NewWriteTelegram(GroupAddress{Main: 2, Middle: 1, Sub: 5}, []byte{0xFF}),
			want:     []byte{0x11, 0x05, 0x00, 0x80, 0xFF},
		},
		{
			name:     "read request",
			telegram: Telegram{Destination: GroupAddress{Main: 1, Middle: 0, Sub: 1}, APCI: APCIRead},
			want:     []byte{0x08, 0x01, 0x00, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.telegram.Encode()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestParseTelegram(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantDest GroupAddress
		wantAPCI byte
		wantData []byte
		wantErr  bool
	}{
		{
			name:     "short frame write",
			data:     []byte{0x11, 0x05, 0x11, 0x05, 0x00, 0x81},
			wantDest: GroupAddress{Main: 2, Middle: 1, Sub: 5},
			wantAPCI: APCIWrite,
			wantData: []byte{0x01},
		},
		{
			name:     "long frame write",
			data:     []byte{0x11, 0x05, 0x11, 0x05, 0x00, 0x80, 0xFF},
			wantDest: GroupAddress{Main: 2, Middle: 1, Sub: 5},
			wantAPCI: APCIWrite,
			wantData: []byte{0xFF},
		},
		{
			name:     "read request",
			data:     []byte{0x11, 0x05, 0x08, 0x01, 0x00, 0x00},
			wantDest: GroupAddress{Main: 1, Middle: 0, Sub: 1},
			wantAPCI: APCIRead,
			wantData: nil,
		},
		{
			name:    "too short",
			data:    []byte{0x11, 0x05, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTelegram(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTelegram() error: %v", err)
			}
			if got.Destination != tt.wantDest {
				t.Errorf("Destination = %v, want %v", got.Destination, tt.wantDest)
			}
			if got.APCI != tt.wantAPCI {
				t.Errorf("APCI = 0x%02X, want 0x%02X", got.APCI, tt.wantAPCI)
			}
			if !bytes.Equal(got.Data, tt.wantData) {
				t.Errorf("Data = %X, want %X", got.Data, tt.wantData)
			}
		})
	}
}

func TestParseTelegramSource(t *testing.T) {
	// Source 1.1.5 = 0x1105
	data := []byte{0x11, 0x05, 0x08, 0x01, 0x00, 0x81}
	got, err := ParseTelegram(data)
	if err != nil {
		t.Fatalf("ParseTelegram() error: %v", err)
	}
	if got.Source != "1.1.5" {
		t.Errorf("Source = %q, want %q", got.Source, "1.1.5")
	}
}

func TestEncodeMessageFraming(t *testing.T) {
	msg := EncodeMessage(EIBGroupPacket, []byte{0xAA, 0xBB})
	want := []byte{0x00, 0x04, 0x00, 0x27, 0xAA, 0xBB}
	if !bytes.Equal(msg, want) {
		t.Errorf("EncodeMessage() = %X, want %X", msg, want)
	}
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		wantType    uint16
		wantPayload []byte
		wantErr     bool
	}{
		{
			name:        "group packet",
			data:        []byte{0x00, 0x04, 0x00, 0x27, 0xAA, 0xBB},
			wantType:    EIBGroupPacket,
			wantPayload: []byte{0xAA, 0xBB},
		},
		{
			name:     "open groupcon ack",
			data:     []byte{0x00, 0x02, 0x00, 0x26},
			wantType: EIBOpenGroupCon,
		},
		{
			name:    "size mismatch",
			data:    []byte{0x00, 0x10, 0x00, 0x27, 0xAA},
			wantErr: true,
		},
		{
			name:    "too short",
			data:    []byte{0x00, 0x02},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgType, payload, err := ParseMessage(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMessage() error: %v", err)
			}
			if msgType != tt.wantType {
				t.Errorf("msgType = 0x%04X, want 0x%04X", msgType, tt.wantType)
			}
			if !bytes.Equal(payload, tt.wantPayload) {
				t.Errorf("payload = %X, want %X", payload, tt.wantPayload)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	original := NewWriteTelegram(GroupAddress{Main: 5, Middle: 0, Sub: 1}, EncodeDPT5(75))
	framed := EncodeMessage(EIBGroupPacket, original.Encode())

	msgType, payload, err := ParseMessage(framed)
	if err != nil {
		t.Fatalf("ParseMessage() error: %v", err)
	}
	if msgType != EIBGroupPacket {
		t.Errorf("msgType = 0x%04X, want EIBGroupPacket", msgType)
	}
	if len(payload) != 5 {
		t.Errorf("payload length = %d, want 5", len(payload))
	}
}
