package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"laporan/internal/auth"
	"laporan/internal/core"
	"laporan/internal/ledger"
	"laporan/internal/log"
	"laporan/internal/reconcile"
	"laporan/internal/services"
)

var errForbidden = errors.New("forbidden")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		validation *core.ValidationError
		notFound   *core.NotFoundError
		partial    *core.PartialTransferError
		bad        *badRequestError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.As(err, &partial):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {"error": ...}. Unexpected failures are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		msg = "internal server error"
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="laporan"`)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

type entryDTO struct {
	ID          string  `json:"id"`
	MenuID      string  `json:"menu_id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Direction   string  `json:"direction"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Tag         string  `json:"tag,omitempty"`
	Proof       string  `json:"proof,omitempty"`
	TransferID  string  `json:"transfer_id,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func newEntryDTO(e core.Entry) entryDTO {
	dto := entryDTO{
		ID:          e.ID,
		MenuID:      e.CategoryID,
		Date:        e.Date.String(),
		Description: e.Description,
		Direction:   string(e.Direction),
		Amount:      e.Amount.Float(),
		AmountCents: e.Amount.Cents,
		Tag:         e.Tag,
		Proof:       e.Proof,
		TransferID:  e.TransferID,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func newEntryDTOs(entries []core.Entry) []entryDTO {
	out := make([]entryDTO, len(entries))
	for i, e := range entries {
		out[i] = newEntryDTO(e)
	}
	return out
}

type categoryDTO struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	Icon      string `json:"icon,omitempty"`
	SectionID string `json:"section_id,omitempty"`
	System    bool   `json:"system"`
}

func newCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:        c.ID,
		Label:     c.Label,
		Type:      string(c.Kind),
		Icon:      c.IconName,
		SectionID: c.SectionID,
		System:    core.IsSystemCategory(c.ID),
	}
}

type sectionDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type divisionDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Nominal      float64 `json:"nominal"`
	DisplayOrder int     `json:"display_order"`
}

func newDivisionDTO(d core.DivisionSetting) divisionDTO {
	return divisionDTO{ID: d.ID, Name: d.Name, Nominal: d.Nominal.Float(), DisplayOrder: d.DisplayOrder}
}

type userDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

func newUserDTO(u core.User) userDTO {
	dto := userDTO{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: u.Role}
	if !u.CreatedAt.IsZero() {
		dto.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

type summaryDTO struct {
	Opening      float64 `json:"opening_balance"`
	IncomeTotal  float64 `json:"income_total"`
	ExpenseTotal float64 `json:"expense_total"`
	Closing      float64 `json:"closing_balance"`
}

func newSummaryDTO(s ledger.PeriodSummary) summaryDTO {
	return summaryDTO{
		Opening:      s.Opening.Float(),
		IncomeTotal:  s.IncomeTotal.Float(),
		ExpenseTotal: s.ExpenseTotal.Float(),
		Closing:      s.Closing.Float(),
	}
}

type periodSummaryDTO struct {
	MenuID string `json:"menu_id,omitempty"`
	Period string `json:"period"`
	summaryDTO
}

type dashboardDTO struct {
	Period string             `json:"period"`
	Menus  []dashboardMenuDTO `json:"menus"`
	Total  summaryDTO         `json:"total"`
}

type dashboardMenuDTO struct {
	Menu    categoryDTO `json:"menu"`
	Summary summaryDTO  `json:"summary"`
}

func newDashboardDTO(d services.Dashboard) dashboardDTO {
	dto := dashboardDTO{Period: d.Period.Period(), Total: newSummaryDTO(d.Total), Menus: make([]dashboardMenuDTO, len(d.Categories))}
	for i, cs := range d.Categories {
		dto.Menus[i] = dashboardMenuDTO{Menu: newCategoryDTO(cs.Category), Summary: newSummaryDTO(cs.Summary)}
	}
	return dto
}

type allocationDTO struct {
	Divisions      []divisionAllocationDTO `json:"divisions"`
	TotalAvailable float64                 `json:"total_available"`
	SavingBalance  float64                 `json:"saving_balance"`
}

type divisionAllocationDTO struct {
	Label         string  `json:"label"`
	MenuID        string  `json:"menu_id,omitempty"`
	Allocated     float64 `json:"allocated"`
	Transferred   float64 `json:"transferred"`
	Available     float64 `json:"available"`
	TransferCount int     `json:"transfer_count"`
}

func newAllocationDTO(a ledger.Allocation) allocationDTO {
	dto := allocationDTO{
		Divisions:      make([]divisionAllocationDTO, len(a.Divisions)),
		TotalAvailable: a.TotalAvailable.Float(),
		SavingBalance:  a.SavingBalance.Float(),
	}
	for i, d := range a.Divisions {
		dto.Divisions[i] = divisionAllocationDTO{
			Label:         d.Label,
			MenuID:        d.CategoryID,
			Allocated:     d.Allocated.Float(),
			Transferred:   d.Transferred.Float(),
			Available:     d.Available.Float(),
			TransferCount: d.TransferCount,
		}
	}
	return dto
}

type transferDTO struct {
	TransferID string   `json:"transfer_id"`
	Out        entryDTO `json:"out"`
	In         entryDTO `json:"in"`
}

func newTransferDTO(t reconcile.Transfer) transferDTO {
	return transferDTO{TransferID: t.Record.ID, Out: newEntryDTO(t.Out), In: newEntryDTO(t.In)}
}

type deletedDTO struct {
	Deleted      string   `json:"deleted"`
	Counterparts []string `json:"counterparts"`
}

type sessionDTO struct {
	Token     string  `json:"token"`
	ExpiresAt int64   `json:"expires_at"`
	User      userDTO `json:"user"`
}
