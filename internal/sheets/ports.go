package sheets

import (
	"context"

	"laporan/internal/core"
)

// EntryMirror keeps an external copy of ledger entries, one row per entry
// keyed by entry id.
type EntryMirror interface {
	// Upsert writes e, replacing an existing row with the same id.
	Upsert(ctx context.Context, e core.Entry, menuLabel string) error
	// Remove drops the row of entryID. A missing row is not an error.
	Remove(ctx context.Context, entryID string) error
	// EntryIDs lists the ids currently mirrored.
	EntryIDs(ctx context.Context) ([]string, error)
}

// Header is the first row of the mirror sheet.
var Header = []any{"ID", "Tanggal", "Menu", "Keterangan", "Masuk", "Keluar", "Tag", "Bukti", "Transfer"}

// EntryRow renders e in Header column order. Amounts are decimal Rupiah.
func EntryRow(e core.Entry, menuLabel string) []any {
	var in, out any = "", ""
	if e.Direction == core.In {
		in = e.Amount.Float()
	} else {
		out = e.Amount.Float()
	}
	return []any{e.ID, e.Date.String(), menuLabel, e.Description, in, out, e.Tag, e.Proof, e.TransferID}
}
