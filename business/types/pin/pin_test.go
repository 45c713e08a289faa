package pin_test

import (
	"errors"
	"testing"

	"github.com/jcpaschoal/tenantcrm/business/types/pin"
)

func TestParse(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"1234", true},
		{"0000", true},
		{"12AB", false},
		{"123", false},
		{"12345", false},
		{"123456", false},
		{"", false},
		{" 1234", false},
	}

	for _, tt := range tests {
		_, err := pin.Parse(tt.value)
		if tt.valid && err != nil {
			t.Errorf("Parse(%q): unexpected error %s", tt.value, err)
		}
		if !tt.valid && !errors.Is(err, pin.ErrInvalidFormat) {
			t.Errorf("Parse(%q): expected ErrInvalidFormat, got %v", tt.value, err)
		}
	}
}

func TestGenerateOTP(t *testing.T) {
	for range 50 {
		otp, err := pin.GenerateOTP()
		if err != nil {
			t.Fatalf("generate: %s", err)
		}

		if _, err := pin.ParseOTP(otp.String()); err != nil {
			t.Fatalf("generated otp %q does not parse: %s", otp, err)
		}
	}
}

func TestOTPHash(t *testing.T) {
	otp, err := pin.ParseOTP("123456")
	if err != nil {
		t.Fatalf("parse: %s", err)
	}

	const want = "8d969eef6ecad3c29a3a629280e686cf0c3f5d5a86aff3ca12020c923adc6c92"
	if got := otp.Hash(); got != want {
		t.Errorf("hash: got %s want %s", got, want)
	}
}
