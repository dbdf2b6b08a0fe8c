package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != NewDate(2025, 3, 15) {
		t.Fatalf("got %v", d)
	}
	for _, bad := range []string{"", "15/03/2025", "2025-13-01", "2025-02-30"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", bad, err)
		}
	}
}

func TestMonthArithmetic(t *testing.T) {
	d := NewDate(2025, 12, 17)
	if got := d.MonthStart(); got != NewDate(2025, 12, 1) {
		t.Fatalf("MonthStart = %v", got)
	}
	if got := d.NextMonth(); got != NewDate(2026, 1, 1) {
		t.Fatalf("NextMonth = %v", got)
	}
	if got := d.Period(); got != "2025-12" {
		t.Fatalf("Period = %q", got)
	}
	p, err := ParsePeriod("2025-02")
	if err != nil || p != NewDate(2025, 2, 1) {
		t.Fatalf("ParsePeriod = %v, %v", p, err)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
	if err := (Money{Cents: 0}).Positive(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{
		CategoryID:  "operational_hardware",
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Direction:   Out,
		Amount:      Money{Cents: 100},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Entry{
		{CategoryID: "", Date: NewDate(2025, 1, 1), Direction: In, Amount: Money{Cents: 1}},
		{CategoryID: "c", Date: Date{}, Direction: In, Amount: Money{Cents: 1}},
		{CategoryID: "c", Date: NewDate(2025, 1, 1), Direction: "sideways", Amount: Money{Cents: 1}},
		{CategoryID: "c", Date: NewDate(2025, 1, 1), Direction: In, Amount: Money{Cents: -1}},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("case %d expected *ValidationError, got %T", i, err)
		}
	}
}

func TestEntryApplyKeepsIdentity(t *testing.T) {
	e := Entry{ID: "e1", CategoryID: "c1", TransferID: "t1", Direction: In, Amount: Money{Cents: 5}}
	got := e.Apply(EntryPatch{Date: NewDate(2025, 5, 1), Direction: Out, Amount: Money{Cents: 7}, Tag: "x"})
	if got.ID != "e1" || got.CategoryID != "c1" || got.TransferID != "t1" {
		t.Fatalf("identity fields changed: %+v", got)
	}
	if got.Signed() != -7 {
		t.Fatalf("Signed = %d", got.Signed())
	}
}

func TestErrorTaxonomy(t *testing.T) {
	if !errors.Is(NotFound("entry", "x"), ErrNotFound) {
		t.Fatalf("NotFound should match ErrNotFound")
	}
	inner := errors.New("disk full")
	pe := &PartialTransferError{TransferID: "t", Written: Entry{ID: "e"}, Compensated: true, Err: inner}
	if !errors.Is(pe, ErrPartialTransfer) || !errors.Is(pe, inner) {
		t.Fatalf("PartialTransferError should match both sentinel and cause")
	}
}
