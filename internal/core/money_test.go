package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		err error
	}{
		{"1", "1", nil},
		{"12.5", "12.5", nil},
		{"12,5", "12.5", nil},
		{" 2.50 ", "2.5", nil},
		{"0.01", "0.01", nil},
		{"0", "", ErrNonPositiveAmount},
		{"-5", "", ErrNonPositiveAmount},
		{"abc", "", ErrNotNumeric},
		{"1.2.3", "", ErrNotNumeric},
		{"", "", ErrNotNumeric},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q: expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got.String() != tc.out {
			t.Fatalf("%q: expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestConvertRounding(t *testing.T) {
	amount := decimal.RequireFromString("12.5")
	rate := decimal.RequireFromString("0.9137")
	if got := Convert(amount, rate); got.String() != "11.42" {
		t.Fatalf("expected 11.42, got %s", got)
	}
	// Identity rate reproduces the amount within rounding.
	if got := Convert(amount, decimal.NewFromInt(1)); got.String() != "12.5" {
		t.Fatalf("identity conversion changed amount: %s", got)
	}
}

func TestPerMemberShare(t *testing.T) {
	g := Group{Name: "trip", Size: 3, TotalSpent: decimal.NewFromInt(50)}
	if got := g.PerMemberShare(); got.String() != "16.67" {
		t.Fatalf("expected 16.67, got %s", got)
	}
	g = Group{Name: "pair", Size: 2, TotalSpent: decimal.RequireFromString("0.03")}
	if got := g.PerMemberShare(); got.String() != "0.02" {
		t.Fatalf("expected 0.02 (half-up), got %s", got)
	}
}
