package knx

import (
	"errors"
	"testing"
)

func TestParseGroupAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GroupAddress
		wantErr bool
	}{
		{name: "simple", input: "1/2/3", want: GroupAddress{Main: 1, Middle: 2, Sub: 3}},
		{name: "zero", input: "0/0/0", want: GroupAddress{}},
		{name: "max values", input: "31/7/255", want: GroupAddress{Main: 31, Middle: 7, Sub: 255}},
		{name: "main too large", input: "32/0/0", wantErr: true},
		{name: "middle too large", input: "0/8/0", wantErr: true},
		{name: "sub too large", input: "0/0/256", wantErr: true},
		{name: "negative", input: "-1/0/0", wantErr: true},
		{name: "two levels", input: "1/2", wantErr: true},
		{name: "four levels", input: "1/2/3/4", wantErr: true},
		{name: "not a number", input: "a/b/c", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGroupAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseGroupAddress(%q) expected error, got nil", tt.input)
				}
				if !errors.Is(err, ErrInvalidGroupAddress) {
					t.Errorf("error = %v, want ErrInvalidGroupAddress", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGroupAddress(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseGroupAddress(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGroupAddressRoundTrip(t *testing.T) {
	tests := []GroupAddress{
		{Main: 0, Middle: 0, Sub: 0},
		{Main: 1, Middle: 2, Sub: 3},
		{Main: 31, Middle: 7, Sub: 255},
		{Main: 15, Middle: 4, Sub: 128},
	}

	for _, ga := range tests {
		t.Run(ga.String(), func(t *testing.T) {
			got := GroupAddressFromUint16(ga.ToUint16())
			if got != ga {
				t.Errorf("round trip = %v, want %v", got, ga)
			}
		})
	}
}

func TestGroupAddressToUint16(t *testing.T) {
	// 2/1/5 → 0b00010_001_00000101 = 0x1105
	ga := GroupAddress{Main: 2, Middle: 1, Sub: 5}
	if got := ga.ToUint16(); got != 0x1105 {
		t.Errorf("ToUint16() = 0x%04X, want 0x1105", got)
	}
}

func TestGroupAddressString(t *testing.T) {
	ga := GroupAddress{Main: 2, Middle: 1, Sub: 5}
	if got := ga.String(); got != "2/1/5" {
		t.Errorf("String() = %q, want %q", got, "2/1/5")
	}
}

func TestGroupAddressIsZero(t *testing.T) {
	if !(GroupAddress{}).IsZero() {
		t.Error("IsZero() = false for 0/0/0")
	}
	if (GroupAddress{Main: 1}).IsZero() {
		t.Error("IsZero() = true for 1/0/0")
	}
}
