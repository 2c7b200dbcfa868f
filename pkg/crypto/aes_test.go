package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestFieldCipher_RoundTrip(t *testing.T) {
	c, err := NewFieldCipher(testKey)
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}

	sealed, err := c.Seal("+998901234567")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(sealed, "998901234567") {
		t.Fatalf("sealed value leaks plaintext: %q", sealed)
	}

	opened, err := c.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened != "+998901234567" {
		t.Errorf("expected round trip, got %q", opened)
	}
}

func TestFieldCipher_NilPassthrough(t *testing.T) {
	c, err := NewFieldCipher("")
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil cipher for empty key")
	}
	v, err := c.Seal("+1555")
	if err != nil || v != "+1555" {
		t.Fatalf("expected passthrough, got %q, %v", v, err)
	}
}

func TestKeyFromHex(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "valid", key: testKey},
		{name: "short", key: "0011", wantErr: ErrInvalidKey},
		{name: "not hex", key: "zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KeyFromHex(tt.key)
			switch {
			case tt.name == "valid" && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case tt.wantErr != nil && !errors.Is(err, tt.wantErr):
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			case tt.name == "not hex" && err == nil:
				t.Fatal("expected error for non-hex key")
			}
		})
	}
}
