package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laporan/internal/core"
)

func tagged(cat, date string, dir core.Direction, cents int64, tag, desc string) core.Entry {
	e := entry(date, dir, cents)
	e.CategoryID = cat
	e.Tag = tag
	e.Description = desc
	return e
}

func TestSavingAllocation(t *testing.T) {
	input := AllocationInput{
		Divisions: []core.Category{
			{ID: "operational_hardware", Label: "Bagian Hardware", Kind: core.Operational},
			{ID: "operational_si", Label: "Sistem Informasi", Kind: core.Operational},
			{ID: "operational_saving", Label: "Saving - Operasional", Kind: core.Operational},
		},
		ChecklistID: "operational_division",
		SavingID:    "operational_saving",
		Entries: map[string][]core.Entry{
			"operational_hardware": {
				tagged("operational_hardware", "2026-01-05", core.Out, 40_000, "Saving", "sisihkan"),
				tagged("operational_hardware", "2026-01-06", core.In, 5_000, "saving", "koreksi"),
				tagged("operational_hardware", "2026-01-07", core.Out, 99_000, "ATK", "kertas"),
			},
			"operational_division": {
				tagged("operational_division", "2026-01-03", core.Out, 20_000, "Sistem Informasi", "Dialihkan ke Saving"),
				tagged("operational_division", "2026-01-03", core.Out, 70_000, "Sistem Informasi", "Dialihkan ke Dana Taktis (Sistem Informasi)"),
			},
			"operational_saving": {
				tagged("operational_saving", "2026-01-10", core.In, 10_000, "Bagian Hardware", "Transfer from Bagian Hardware"),
				tagged("operational_saving", "2026-01-11", core.In, 30_000, "Sistem Informasi", "Transfer from Sistem Informasi"),
				tagged("operational_saving", "2026-01-12", core.In, 1_000, "Divisi Lama", "Transfer dari Divisi Lama"),
				tagged("operational_saving", "2026-01-20", core.Out, 500, "", "biaya admin"),
			},
		},
	}

	got := SavingAllocation(input)
	require.Len(t, got.Divisions, 3)

	hw := got.Divisions[0]
	assert.Equal(t, "Bagian Hardware", hw.Label)
	assert.Equal(t, "operational_hardware", hw.CategoryID)
	assert.Equal(t, money(35_000), hw.Allocated)
	assert.Equal(t, money(10_000), hw.Transferred)
	assert.Equal(t, money(25_000), hw.Available)
	assert.Equal(t, 1, hw.TransferCount)

	legacy := got.Divisions[1]
	assert.Equal(t, "Divisi Lama", legacy.Label)
	assert.Empty(t, legacy.CategoryID)
	assert.Equal(t, money(0), legacy.Available)

	si := got.Divisions[2]
	assert.Equal(t, money(20_000), si.Allocated)
	assert.Equal(t, money(30_000), si.Transferred)
	assert.Equal(t, money(0), si.Available, "available never negative")

	assert.Equal(t, money(25_000), got.TotalAvailable)
	assert.Equal(t, money(40_500), got.SavingBalance)
}

func TestSavingAllocation_Empty(t *testing.T) {
	got := SavingAllocation(AllocationInput{SavingID: "operational_saving"})
	assert.Empty(t, got.Divisions)
	assert.Equal(t, money(0), got.TotalAvailable)
}
