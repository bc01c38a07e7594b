package report

import "testing"

func TestConvertIdentity(t *testing.T) {
	// Same-currency conversion returns the input unchanged regardless of
	// what the rates map contains.
	rates := NewRates("EUR", map[string]float64{"USD": 1.08, "EUR": 99.0})
	for _, amount := range []int64{0, 1, -1, 12345, -99999} {
		for _, code := range []string{"EUR", "USD", "ZZZ"} {
			if got := Convert(amount, code, code, rates); got != amount {
				t.Fatalf("Convert(%d, %s, %s) = %d, want identity", amount, code, code, got)
			}
		}
	}
}

func TestConvert(t *testing.T) {
	rates := NewRates("EUR", map[string]float64{"USD": 1.08, "GBP": 0.85})
	cases := []struct {
		amount   int64
		from, to string
		want     int64
	}{
		{10000, "EUR", "USD", 10800},
		{10800, "USD", "EUR", 10000},
		{10000, "USD", "GBP", 7870},  // 10000 * 0.85 / 1.08 = 7870.37
		{-10000, "EUR", "USD", -10800},
		{1, "EUR", "GBP", 1}, // 0.85 rounds to 1
	}
	for _, tc := range cases {
		if got := Convert(tc.amount, tc.from, tc.to, rates); got != tc.want {
			t.Fatalf("Convert(%d, %s, %s) = %d, want %d", tc.amount, tc.from, tc.to, got, tc.want)
		}
	}
}

func TestConvertUnknownCurrencyIsNoOp(t *testing.T) {
	// Fail-open: a currency with no recorded rate converts at parity.
	rates := NewRates("EUR", nil)
	if got := Convert(100, "ZZZ", "EUR", rates); got != 100 {
		t.Fatalf("expected 100 unchanged, got %d", got)
	}
}

func TestRoundHalfAway(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0.5, 1},
		{-0.5, -1},
		{1.4, 1},
		{1.5, 2},
		{2.5, 3},
		{-2.5, -3},
		{-1.4, -1},
	}
	for _, tc := range cases {
		if got := roundHalfAway(tc.in); got != tc.want {
			t.Fatalf("roundHalfAway(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
