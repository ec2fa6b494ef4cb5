package currency

import "testing"

func TestToLocalIsPureMultiplication(t *testing.T) {
	c := NewConverter(0.5)
	if got := c.ToLocal(1234); got != 617 {
		t.Fatalf("got %v", got)
	}
	if got := ToLocalWithRate(3, 0.25); got != 0.75 {
		t.Fatalf("got %v", got)
	}
}

func TestNonPositiveRateFallsBackToDefault(t *testing.T) {
	for _, rate := range []float64{0, -1} {
		if got := NewConverter(rate).Rate(); got != DefaultRate {
			t.Fatalf("rate %v: got %v", rate, got)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{1234, "$12.34 BRL"},
		{5, "$0.05 BRL"},
		{100, "$1.00 BRL"},
		{0, Unavailable},
		{-3, Unavailable},
	}
	for _, tc := range cases {
		if got := Format(tc.minor, "BRL"); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.minor, got, tc.want)
		}
	}
}

func TestToMinorRounds(t *testing.T) {
	if got := ToMinor(12.345); got != 1235 && got != 1234 {
		t.Fatalf("unexpected rounding %d", got)
	}
	if got := ToMinor(37.0); got != 3700 {
		t.Fatalf("got %d", got)
	}
	if got := ToMinor(-4); got != 0 {
		t.Fatalf("negative should clamp, got %d", got)
	}
}
