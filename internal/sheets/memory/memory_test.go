package memory

import (
	"context"
	"testing"

	"laporan/internal/core"
)

func TestMirrorUpsertReplacesRow(t *testing.T) {
	m := New()
	ctx := context.Background()
	e := core.Entry{ID: "e1", CategoryID: "operational_si", Date: core.NewDate(2026, 1, 2), Direction: core.Out, Amount: core.Money{Cents: 150_050}, Description: "ATK"}

	if err := m.Upsert(ctx, e, "Sistem Informasi"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	e.Description = "ATK kantor"
	if err := m.Upsert(ctx, e, "Sistem Informasi"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows := m.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0][3] != "ATK kantor" || rows[0][4] != "" || rows[0][5] != 1500.5 {
		t.Fatalf("unexpected row: %v", rows[0])
	}
}

func TestMirrorRemove(t *testing.T) {
	m := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := m.Upsert(ctx, core.Entry{ID: id, CategoryID: "m", Date: core.NewDate(2026, 1, 1), Direction: core.In}, "M"); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if err := m.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := m.Remove(ctx, "missing"); err != nil {
		t.Fatalf("Remove of missing row should be a no-op: %v", err)
	}
	rows := m.Rows()
	if len(rows) != 2 || rows[0][0] != "a" || rows[1][0] != "c" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if _, ok := m.Row("b"); ok {
		t.Fatal("removed row still present")
	}
	ids, err := m.EntryIDs(ctx)
	if err != nil {
		t.Fatalf("EntryIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("EntryIDs = %v, want [a c]", ids)
	}
}

func TestMirrorRejectsInvalidEntry(t *testing.T) {
	if err := New().Upsert(context.Background(), core.Entry{ID: "x"}, ""); err == nil {
		t.Fatal("expected validation error")
	}
}
