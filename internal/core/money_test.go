package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"1.005", 101, true}, // half away from zero
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"1500000", 150000000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%q expected validation error, got %v", tc.in, err)
			}
		}
	}
}

func TestFromFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
	}{
		{0.1, 10},
		{0.2, 20},
		{1000, 100000},
		{19.99, 1999},
		{2.675, 268},
	}
	for _, tc := range cases {
		got, err := FromFloat(tc.in)
		if err != nil || got.Cents != tc.out {
			t.Fatalf("%v expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
		}
	}
	if _, err := FromFloat(-0.5); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyFormatting(t *testing.T) {
	m := Money{Cents: 123456789}
	if got := m.String(); got != "1234567.89" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Money{Cents: 150000000}).Rupiah(); got != "Rp 1.500.000" {
		t.Fatalf("Rupiah() = %q", got)
	}
	if got := (Money{Cents: 50000}).Rupiah(); got != "Rp 500" {
		t.Fatalf("Rupiah() = %q", got)
	}
	if got := (Money{Cents: -2000000}).Rupiah(); got != "-Rp 20.000" {
		t.Fatalf("Rupiah() = %q", got)
	}
	if got := (Money{Cents: 1999}).Float(); got != 19.99 {
		t.Fatalf("Float() = %v", got)
	}
}
