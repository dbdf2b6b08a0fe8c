// Package ledger computes balance figures over a category's entries.
//
// Every function here is a pure computation over the slice it receives: no
// storage access, no shared state. Callers may invoke them from any number of
// goroutines.
package ledger

import "laporan/internal/core"

// PeriodSummary is the balance view of one category for one month.
type PeriodSummary struct {
	Opening      core.Money
	IncomeTotal  core.Money
	ExpenseTotal core.Money
	Closing      core.Money
}

// MonthSummary is a PeriodSummary tagged with the month it covers.
type MonthSummary struct {
	Period core.Date
	PeriodSummary
}

// ComputePeriodSummary returns the opening balance (every entry dated before
// the month of periodStart), the month's in and out totals, and the closing
// balance. periodStart is normalized to the first day of its month.
func ComputePeriodSummary(entries []core.Entry, periodStart core.Date) PeriodSummary {
	start := periodStart.MonthStart()
	end := start.NextMonth()

	var opening, income, expense int64
	for _, e := range entries {
		switch {
		case e.Date.Before(start):
			opening += e.Signed()
		case e.Date.Before(end):
			if e.Direction == core.In {
				income += e.Amount.Cents
			} else {
				expense += e.Amount.Cents
			}
		}
	}

	return PeriodSummary{
		Opening:      core.Money{Cents: opening},
		IncomeTotal:  core.Money{Cents: income},
		ExpenseTotal: core.Money{Cents: expense},
		Closing:      core.Money{Cents: opening + income - expense},
	}
}

// Totals summarizes the whole history as one period with a zero opening balance.
func Totals(entries []core.Entry) PeriodSummary {
	var income, expense int64
	for _, e := range entries {
		if e.Direction == core.In {
			income += e.Amount.Cents
		} else {
			expense += e.Amount.Cents
		}
	}
	return PeriodSummary{
		IncomeTotal:  core.Money{Cents: income},
		ExpenseTotal: core.Money{Cents: expense},
		Closing:      core.Money{Cents: income - expense},
	}
}

// MonthlySeries returns one summary per month from the month of from to the
// month of to, both inclusive. It returns nil when to precedes from.
func MonthlySeries(entries []core.Entry, from, to core.Date) []MonthSummary {
	first, last := from.MonthStart(), to.MonthStart()
	if last.Before(first) {
		return nil
	}

	var series []MonthSummary
	for m := first; !last.Before(m); m = m.NextMonth() {
		series = append(series, MonthSummary{Period: m, PeriodSummary: ComputePeriodSummary(entries, m)})
	}
	return series
}

// InPeriod returns the entries dated within the month of periodStart, in input order.
func InPeriod(entries []core.Entry, periodStart core.Date) []core.Entry {
	start := periodStart.MonthStart()
	end := start.NextMonth()
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Date.Before(start) && e.Date.Before(end) {
			out = append(out, e)
		}
	}
	return out
}
