package core

import (
	"strings"
	"time"
)

const (
	In  Direction = "in"
	Out Direction = "out"

	Operational CategoryKind = "operational"
	Savings     CategoryKind = "savings"
	Custom      CategoryKind = "custom"

	RoleAdmin = "admin"
	RoleUser  = "user"

	// DateLayout is the only accepted wire and storage format for dates.
	DateLayout = "2006-01-02"

	maxDescriptionLen = 500
	maxLabelLen       = 120
)

type (
	Direction    string
	CategoryKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is a single dated ledger movement inside one category (menu).
	Entry struct {
		ID          string
		CategoryID  string
		Date        Date
		Description string
		Direction   Direction
		Amount      Money
		Tag         string // sub-classification, also carries the transfer label
		Proof       string // opaque attachment reference, never inspected
		TransferID  string // empty for entries not created as a transfer half
		CreatedAt   time.Time
	}

	// EntryPatch holds the editable fields of an Entry.
	EntryPatch struct {
		Date        Date
		Description string
		Direction   Direction
		Amount      Money
		Tag         string
		Proof       string
	}

	Category struct {
		ID        string
		Label     string
		Kind      CategoryKind
		IconName  string
		SectionID string
		UserID    string
	}

	Section struct {
		ID     string
		Label  string
		UserID string
	}

	// DivisionSetting is the fixed monthly allowance of an operational division.
	DivisionSetting struct {
		ID           string
		Name         string
		Nominal      Money
		DisplayOrder int
		CreatedAt    time.Time
	}

	User struct {
		ID           string
		Username     string
		PasswordHash string
		FullName     string
		Role         string
		CreatedAt    time.Time
	}

	// TransferRecord links the two halves of a transfer.
	TransferRecord struct {
		ID               string
		OutEntryID       string
		InEntryID        string
		SourceCategoryID string
		DestCategoryID   string
		Amount           Money
		Date             Date
		Label            string
		CreatedAt        time.Time
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: "expected YYYY-MM-DD, got " + quote(s)}
	}
	return Date{Time: t}, nil
}

// ParsePeriod parses a YYYY-MM month and returns its first day.
func ParsePeriod(s string) (Date, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "period", Message: "expected YYYY-MM, got " + quote(s)}
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Period returns the YYYY-MM form of the date's month.
func (d Date) Period() string {
	return d.Format("2006-01")
}

// MonthStart returns the first day of the date's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// NextMonth returns the first day of the following month.
func (d Date) NextMonth() Date {
	return Date{Time: d.MonthStart().AddDate(0, 1, 0)}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Message: "date cannot be zero"}
	}
	return nil
}

func (dir Direction) Validate() error {
	switch dir {
	case In, Out:
		return nil
	default:
		return &ValidationError{Field: "direction", Message: "must be 'in' or 'out', got " + quote(string(dir))}
	}
}

// Sign returns +1 for in and -1 for out.
func (dir Direction) Sign() int64 {
	if dir == Out {
		return -1
	}
	return 1
}

func (k CategoryKind) Validate() error {
	switch k {
	case Operational, Savings, Custom:
		return nil
	default:
		return &ValidationError{Field: "type", Message: "unknown menu type " + quote(string(k))}
	}
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.CategoryID) == "" {
		return &ValidationError{Field: "menu_id", Message: "menu is required"}
	}
	return e.Patch().Validate()
}

// Patch returns the editable fields of the entry.
func (e Entry) Patch() EntryPatch {
	return EntryPatch{
		Date:        e.Date,
		Description: e.Description,
		Direction:   e.Direction,
		Amount:      e.Amount,
		Tag:         e.Tag,
		Proof:       e.Proof,
	}
}

// Apply returns a copy of e with the patch fields replaced. ID, CategoryID
// and TransferID are never touched.
func (e Entry) Apply(p EntryPatch) Entry {
	e.Date = p.Date
	e.Description = p.Description
	e.Direction = p.Direction
	e.Amount = p.Amount
	e.Tag = p.Tag
	e.Proof = p.Proof
	return e
}

// Signed returns the amount with the direction's sign applied.
func (e Entry) Signed() int64 {
	return e.Direction.Sign() * e.Amount.Cents
}

func (p EntryPatch) Validate() error {
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if err := p.Direction.Validate(); err != nil {
		return err
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if len(p.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Message: "description too long (max 500 characters)"}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return &ValidationError{Field: "label", Message: "label is required"}
	}
	if len(c.Label) > maxLabelLen {
		return &ValidationError{Field: "label", Message: "label too long (max 120 characters)"}
	}
	return c.Kind.Validate()
}

func (s Section) Validate() error {
	if strings.TrimSpace(s.Label) == "" {
		return &ValidationError{Field: "label", Message: "label is required"}
	}
	return nil
}

func (s DivisionSetting) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return s.Nominal.Validate()
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	switch u.Role {
	case RoleAdmin, RoleUser:
	default:
		return &ValidationError{Field: "role", Message: "role must be 'admin' or 'user'"}
	}
	return nil
}

func quote(s string) string {
	return "'" + s + "'"
}
