package geo

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		lat       float64
		lng       float64
		precision int
		want      string
	}{
		{"paris precision 6", 48.8566, 2.3522, 6, "u09tvw"},
		{"null island", 0, 0, 5, "7zzzz"},
		{"sydney precision 6", -33.8688, 151.2093, 6, "r3gx2f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.lat, tt.lng, tt.precision); got != tt.want {
				t.Errorf("Encode(%v, %v, %d) = %q, want %q", tt.lat, tt.lng, tt.precision, got, tt.want)
			}
		})
	}
}

func TestEncode_InvalidPrecisionFallsBackToDefault(t *testing.T) {
	got := Encode(48.8566, 2.3522, 0)
	if len(got) != DefaultPrecision {
		t.Errorf("Encode with precision 0 returned length %d, want %d", len(got), DefaultPrecision)
	}
}

func TestEncode_LengthMatchesPrecision(t *testing.T) {
	for p := 1; p <= 12; p++ {
		if got := Encode(48.8566, 2.3522, p); len(got) != p {
			t.Errorf("Encode precision %d returned length %d", p, len(got))
		}
	}
}
