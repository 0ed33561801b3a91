package observability

import (
	"testing"
	"time"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"7d", false},
		{"30d", false},
		{"24h", false},
		{"", true},
		{"x", true},
		{"7x", true},
		{"-3d", true},
		{" 2h ", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParseSince_Window(t *testing.T) {
	before := time.Now().UTC()
	got, err := ParseSince("2d")
	if err != nil {
		t.Fatalf("ParseSince: %v", err)
	}
	want := before.AddDate(0, 0, -2)
	if d := got.Sub(want); d < 0 || d > time.Minute {
		t.Errorf("ParseSince(2d) = %v, want about %v", got, want)
	}
}
