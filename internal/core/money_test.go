package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.005", true}, // no rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"1e3", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"3796.5": "3796.50",
		"1200":   "1200.00",
		"0.01":   "0.01",
		"1.005":  "1.005",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s: got %s want %s", in, got, want)
		}
	}
}

func TestSumAmountsIsExact(t *testing.T) {
	var xs []decimal.Decimal
	for i := 0; i < 10; i++ {
		xs = append(xs, decimal.RequireFromString("0.1"))
	}
	if got := SumAmounts(xs); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("got %s", got)
	}
	if got := SumAmounts(nil); !got.IsZero() {
		t.Fatalf("empty sum should be zero, got %s", got)
	}
}
