package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   string
		err    bool
	}{
		{name: "e164 passthrough", raw: "+998912345678", region: "UZ", want: "+998912345678"},
		{name: "telegram bare digits", raw: "998912345678", region: "UZ", want: "+998912345678"},
		{name: "national in default region", raw: "91 234 56 78", region: "UZ", want: "+998912345678"},
		{name: "us number", raw: "+1 201-555-0123", region: "UZ", want: "+12015550123"},
		{name: "lowercase region", raw: "(201) 555-0123", region: "us", want: "+12015550123"},
		{name: "empty", raw: "  ", region: "UZ", err: true},
		{name: "too short", raw: "12345", region: "UZ", err: true},
		{name: "letters", raw: "call me", region: "UZ", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			if tt.err {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("expected ErrInvalid, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
