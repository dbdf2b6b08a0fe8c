package ledger

import (
	"sort"
	"strings"

	"laporan/internal/core"
)

const savingTag = "saving"

// Phrases identifying a checklist line that moved a division's allowance to saving.
var checklistSavingMarkers = []string{"dialihkan ke saving", "transferred to saving"}

// AllocationInput collects what SavingAllocation reads.
type AllocationInput struct {
	// Divisions are the dedicated division menus.
	Divisions []core.Category
	// Entries holds every entry keyed by category id.
	Entries map[string][]core.Entry
	// ChecklistID is the shared operational menu whose entries are tagged with a division name.
	ChecklistID string
	// SavingID is the operational saving pool.
	SavingID string
}

// DivisionAllocation is the saving position of one division.
type DivisionAllocation struct {
	Label         string
	CategoryID    string // empty when the division only appears in checklist or saving tags
	Allocated     core.Money
	Transferred   core.Money
	Available     core.Money
	TransferCount int
}

// Allocation is the "ready to transfer" view over every division.
type Allocation struct {
	Divisions      []DivisionAllocation
	TotalAvailable core.Money
	SavingBalance  core.Money
}

// SavingAllocation computes, per division, how much was earmarked for saving
// and how much of it already reached the saving pool.
//
// Allocated is the out-minus-in of the division menu's entries tagged Saving
// plus checklist entries tagged with the division that carry a saving marker.
// Transferred is the sum of saving pool "in" entries tagged with the division.
// Available never goes below zero.
func SavingAllocation(in AllocationInput) Allocation {
	savingEntries := in.Entries[in.SavingID]

	byLabel := make(map[string]core.Category)
	names := make(map[string]struct{})
	for _, c := range in.Divisions {
		if c.ID == in.SavingID || c.ID == in.ChecklistID {
			continue
		}
		byLabel[c.Label] = c
		names[c.Label] = struct{}{}
	}
	for _, e := range savingEntries {
		if tag := strings.TrimSpace(e.Tag); tag != "" {
			names[tag] = struct{}{}
		}
	}

	labels := make([]string, 0, len(names))
	for n := range names {
		labels = append(labels, n)
	}
	sort.Strings(labels)

	var result Allocation
	for _, label := range labels {
		da := DivisionAllocation{Label: label}

		var allocated int64
		if c, ok := byLabel[label]; ok {
			da.CategoryID = c.ID
			for _, e := range in.Entries[c.ID] {
				if strings.EqualFold(strings.TrimSpace(e.Tag), savingTag) {
					allocated -= e.Signed()
				}
			}
		}
		for _, e := range in.Entries[in.ChecklistID] {
			if strings.TrimSpace(e.Tag) == label && hasAny(e.Description, checklistSavingMarkers) {
				allocated += e.Amount.Cents
			}
		}

		var transferred int64
		for _, e := range savingEntries {
			if e.Direction == core.In && strings.TrimSpace(e.Tag) == label {
				transferred += e.Amount.Cents
				da.TransferCount++
			}
		}

		da.Allocated = core.Money{Cents: allocated}
		da.Transferred = core.Money{Cents: transferred}
		da.Available = core.Money{Cents: max(0, allocated-transferred)}
		result.TotalAvailable = result.TotalAvailable.Add(da.Available)
		result.Divisions = append(result.Divisions, da)
	}

	for _, e := range savingEntries {
		result.SavingBalance.Cents += e.Signed()
	}
	return result
}

func hasAny(s string, markers []string) bool {
	s = strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
