package money

import "testing"

func TestParseAmountCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"3000.50", 300050, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up on the third digit
		{" 2.50 ", 250, true},
		{"$40", 4000, true},
		{"$ 40.25", 4025, true},
		{".5", 50, true},
		{"", 0, false},
		{"0", 0, false},
		{"0.00", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"12a", 0, false},
		{"$", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error, got %d", tc.in, got)
			}
		}
	}
}

func TestDollarsRoundTrip(t *testing.T) {
	if got := Dollars(300050); got != 3000.50 {
		t.Fatalf("Dollars(300050) = %v, want 3000.50", got)
	}
	if got := FormatAmount(3000.5); got != "3000.50" {
		t.Fatalf("FormatAmount(3000.5) = %q, want \"3000.50\"", got)
	}
}
