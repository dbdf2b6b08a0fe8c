package core

// System menu ids. These rows are created by the schema migrations and
// seeded into the memory backend.
const (
	MenuDivision = "operational_division"
	MenuHardware = "operational_hardware"
	MenuSI       = "operational_si"
	MenuTaktis   = "operational_taktis"
	MenuSaving   = "operational_saving"
	MenuSavings  = "savings_main"
	MenuOthers   = "savings_others"
)

// SystemCategories returns the built-in menus in display order.
func SystemCategories() []Category {
	return []Category{
		{ID: MenuDivision, Label: "Operasional Divisi", Kind: Operational, IconName: "Briefcase"},
		{ID: MenuHardware, Label: "Bagian Hardware", Kind: Operational, IconName: "Cpu"},
		{ID: MenuSI, Label: "Sistem Informasi", Kind: Operational, IconName: "Database"},
		{ID: MenuTaktis, Label: "Dana Taktis", Kind: Operational, IconName: "Layers"},
		{ID: MenuSaving, Label: "Saving - Operasional", Kind: Operational, IconName: "PiggyBank"},
		{ID: MenuSavings, Label: "Tabungan Utama", Kind: Savings, IconName: "Landmark"},
		{ID: MenuOthers, Label: "Tabungan Lainnya", Kind: Savings, IconName: "Coins"},
	}
}

// IsSystemCategory reports whether id is one of the built-in menus.
func IsSystemCategory(id string) bool {
	for _, c := range SystemCategories() {
		if c.ID == id {
			return true
		}
	}
	return false
}
