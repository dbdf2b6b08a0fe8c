package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laporan/internal/core"
)

func entry(date string, dir core.Direction, cents int64) core.Entry {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Entry{CategoryID: "operational_hardware", Date: d, Direction: dir, Amount: core.Money{Cents: cents}}
}

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func TestComputePeriodSummary_HardwareScenario(t *testing.T) {
	entries := []core.Entry{
		entry("2026-01-15", core.In, 500),
		entry("2026-02-10", core.Out, 200),
	}

	got := ComputePeriodSummary(entries, core.NewDate(2026, 2, 1))

	assert.Equal(t, PeriodSummary{
		Opening:      money(500),
		IncomeTotal:  money(0),
		ExpenseTotal: money(200),
		Closing:      money(300),
	}, got)
}

func TestComputePeriodSummary_Empty(t *testing.T) {
	assert.Equal(t, PeriodSummary{}, ComputePeriodSummary(nil, core.NewDate(2026, 1, 1)))
	assert.Equal(t, PeriodSummary{}, ComputePeriodSummary([]core.Entry{}, core.NewDate(2026, 1, 1)))
}

func TestComputePeriodSummary_CarriesWholeHistory(t *testing.T) {
	entries := []core.Entry{
		entry("2019-06-01", core.In, 10_000),
		entry("2023-11-30", core.Out, 2_500),
		entry("2026-02-28", core.Out, 100),
		entry("2026-03-01", core.In, 999), // after the period, ignored
	}

	got := ComputePeriodSummary(entries, core.NewDate(2026, 2, 1))

	assert.Equal(t, money(7_500), got.Opening)
	assert.Equal(t, money(100), got.ExpenseTotal)
	assert.Equal(t, money(7_400), got.Closing)
}

func TestComputePeriodSummary_NormalizesPeriodStart(t *testing.T) {
	entries := []core.Entry{
		entry("2026-02-01", core.In, 300),
		entry("2026-02-20", core.Out, 100),
	}
	assert.Equal(t,
		ComputePeriodSummary(entries, core.NewDate(2026, 2, 1)),
		ComputePeriodSummary(entries, core.NewDate(2026, 2, 17)),
	)
}

func TestComputePeriodSummary_MonthBoundaries(t *testing.T) {
	entries := []core.Entry{
		entry("2026-01-31", core.In, 1),
		entry("2026-02-01", core.In, 10),
		entry("2026-02-28", core.In, 100),
		entry("2026-03-01", core.In, 1000),
	}
	got := ComputePeriodSummary(entries, core.NewDate(2026, 2, 1))
	assert.Equal(t, money(1), got.Opening)
	assert.Equal(t, money(110), got.IncomeTotal)
	assert.Equal(t, money(111), got.Closing)
}

func randomEntries(r *rand.Rand, n int) []core.Entry {
	out := make([]core.Entry, n)
	for i := range out {
		dir := core.In
		if r.Intn(2) == 0 {
			dir = core.Out
		}
		d := core.NewDate(2024+r.Intn(3), 1+r.Intn(12), 1+r.Intn(28))
		out[i] = core.Entry{Date: d, Direction: dir, Amount: money(r.Int63n(10_000_000))}
	}
	return out
}

func TestComputePeriodSummary_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		entries := randomEntries(r, r.Intn(50))
		period := core.NewDate(2024+r.Intn(3), 1+r.Intn(12), 1)

		first := ComputePeriodSummary(entries, period)
		second := ComputePeriodSummary(entries, period)
		require.Equal(t, first, second, "idempotent")

		require.Equal(t, first.Opening.Cents+first.IncomeTotal.Cents-first.ExpenseTotal.Cents, first.Closing.Cents,
			"closing identity")

		added := core.Entry{Date: core.Date{Time: period.AddDate(0, 0, r.Intn(28))}, Direction: core.In, Amount: money(1 + r.Int63n(1000))}
		after := ComputePeriodSummary(append(append([]core.Entry(nil), entries...), added), period)
		require.Equal(t, first.Opening, after.Opening, "opening unchanged")
		require.Equal(t, first.IncomeTotal.Cents+added.Amount.Cents, after.IncomeTotal.Cents)
		require.Equal(t, first.Closing.Cents+added.Amount.Cents, after.Closing.Cents)
	}
}

func TestComputePeriodSummary_CarryForward(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		entries := randomEntries(r, 1+r.Intn(60))
		last := entries[0].Date
		for _, e := range entries {
			if last.Before(e.Date) {
				last = e.Date
			}
		}
		monthN := last.MonthStart()
		this := ComputePeriodSummary(entries, monthN)
		next := ComputePeriodSummary(entries, monthN.NextMonth())
		require.Equal(t, this.Closing, next.Opening)
	}
}

func TestMonthlySeries(t *testing.T) {
	entries := []core.Entry{
		entry("2025-11-05", core.In, 1_000),
		entry("2025-12-10", core.Out, 300),
		entry("2026-02-01", core.In, 50),
	}

	series := MonthlySeries(entries, core.NewDate(2025, 11, 1), core.NewDate(2026, 2, 14))
	require.Len(t, series, 4)

	assert.Equal(t, core.NewDate(2025, 11, 1), series[0].Period)
	assert.Equal(t, core.NewDate(2026, 1, 1), series[2].Period)
	assert.Equal(t, money(0), series[2].IncomeTotal)
	for i := 1; i < len(series); i++ {
		assert.Equal(t, series[i-1].Closing, series[i].Opening, "month %d", i)
	}
	assert.Equal(t, money(750), series[3].Closing)

	assert.Nil(t, MonthlySeries(entries, core.NewDate(2026, 2, 1), core.NewDate(2025, 1, 1)))
}

func TestTotals(t *testing.T) {
	entries := []core.Entry{
		entry("2025-01-01", core.In, 700),
		entry("2026-01-01", core.Out, 200),
		entry("2026-03-01", core.Out, 600),
	}
	assert.Equal(t, PeriodSummary{
		IncomeTotal:  money(700),
		ExpenseTotal: money(800),
		Closing:      money(-100),
	}, Totals(entries))
}

func TestInPeriod(t *testing.T) {
	entries := []core.Entry{
		entry("2026-01-31", core.In, 1),
		entry("2026-02-15", core.In, 2),
		entry("2026-03-01", core.In, 3),
	}
	got := InPeriod(entries, core.NewDate(2026, 2, 1))
	require.Len(t, got, 1)
	assert.Equal(t, money(2), got[0].Amount)
}
