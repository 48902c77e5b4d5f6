package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"2.675", "2.68"},
		{"10", "10"},
		{"0.125", "0.13"},
	}
	for _, tc := range cases {
		got := Round2(dec(tc.in))
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("Round2(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestLineTax(t *testing.T) {
	got := LineTax(dec("180"), dec("12"))
	if !got.Equal(dec("21.6")) {
		t.Fatalf("LineTax(180, 12%%) = %s, want 21.60", got)
	}

	got = LineTax(dec("33.33"), dec("18"))
	if !got.Equal(dec("6")) {
		t.Fatalf("LineTax(33.33, 18%%) = %s, want 6.00", got)
	}
}

func TestGrandTotal(t *testing.T) {
	subs := []decimal.Decimal{dec("180"), dec("50")}
	taxes := []decimal.Decimal{dec("21.6"), dec("2.5")}
	got := GrandTotal(subs, taxes)
	if !got.Equal(dec("254.1")) {
		t.Fatalf("GrandTotal = %s, want 254.10", got)
	}
}

func TestClampZero(t *testing.T) {
	if got := ClampZero(dec("-3.50")); !got.IsZero() {
		t.Fatalf("ClampZero(-3.50) = %s, want 0", got)
	}
	if got := ClampZero(dec("2.25")); !got.Equal(dec("2.25")) {
		t.Fatalf("ClampZero(2.25) = %s, want 2.25", got)
	}
}
