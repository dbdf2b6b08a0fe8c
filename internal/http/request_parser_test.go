package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"laporan/internal/core"
)

func TestAmountField(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{`1500000`, 150_000_000, false},
		{`"1500000"`, 150_000_000, false},
		{`"12,50"`, 1250, false},
		{`12.345`, 1235, false},
		{`-1`, 0, true},
		{`"abc"`, 0, true},
		{`null`, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			var a amountField
			if err := a.UnmarshalJSON([]byte(tc.in)); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			m, err := a.money()
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if err == nil && m.Cents != tc.want {
				t.Fatalf("cents=%d want %d", m.Cents, tc.want)
			}
		})
	}

	var a amountField
	if err := a.UnmarshalJSON([]byte(`true`)); err == nil {
		t.Fatal("expected error for boolean amount")
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"label":"Kas"}`, ""},
		{"empty", ``, "empty"},
		{"malformed", `{"label":`, "malformed"},
		{"trailing object", `{"label":"a"}{"label":"b"}`, "single"},
		{"too large", `{"label":"` + strings.Repeat("x", maxBodyBytes) + `"}`, "exceeds"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var dst sectionRequest
			err := decodeJSON(httptest.NewRecorder(), req, &dst)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if dst.Label != "Kas" {
					t.Fatalf("label=%q", dst.Label)
				}
				return
			}
			var bad *badRequestError
			if !errors.As(err, &bad) {
				t.Fatalf("err=%v, want bad request", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err=%q want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestEntryRequest(t *testing.T) {
	req := entryRequest{
		MenuID:      " " + core.MenuHardware + " ",
		Date:        "2026-03-01",
		Description: "  Beli\x00 kabel ",
		Direction:   " OUT ",
		Amount:      "75000",
	}
	e, err := req.entry()
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if e.CategoryID != core.MenuHardware || e.Direction != core.Out || e.Description != "Beli kabel" || e.Amount.Cents != 7_500_000 {
		t.Fatalf("entry=%+v", e)
	}

	req.MenuID = ""
	if _, err := req.entry(); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("missing menu err=%v", err)
	}
	req.Date = "yesterday"
	if _, err := req.patch(); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("bad date err=%v", err)
	}
}

func TestParsePeriodParam(t *testing.T) {
	now := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)

	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	p, err := parsePeriodParam(r, "period", now)
	if err != nil || p.Period() != "2026-07" || p.Day() != 1 {
		t.Fatalf("default=%v err=%v", p, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/x?period=2025-12", nil)
	if p, err := parsePeriodParam(r, "period", now); err != nil || p.Period() != "2025-12" {
		t.Fatalf("explicit=%v err=%v", p, err)
	}

	r = httptest.NewRequest(http.MethodGet, "/x?period=2025-13", nil)
	if _, err := parsePeriodParam(r, "period", now); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("invalid err=%v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  hello  ":      "hello",
		"a\x00b\x07c":    "abc",
		"line1\nline2\t": "line1\nline2",
		"":               "",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q)=%q want %q", in, got, want)
		}
	}
}
