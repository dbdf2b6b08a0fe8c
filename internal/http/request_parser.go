package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"laporan/internal/core"
)

const maxBodyBytes = 1 << 20

// badRequestError marks malformed request bodies and parameters.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads one JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		default:
			return badRequest("malformed JSON: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

// amountField accepts a JSON number or a decimal string ("1500000", "12,50").
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = amountField(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or a decimal string")
	}
	*a = amountField(n.String())
	return nil
}

func (a amountField) money() (core.Money, error) {
	return core.ParseAmount(string(a))
}

type entryRequest struct {
	MenuID      string      `json:"menu_id"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Direction   string      `json:"direction"`
	Amount      amountField `json:"amount"`
	Tag         string      `json:"tag"`
	Proof       string      `json:"proof"`
}

func (req entryRequest) patch() (core.EntryPatch, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.EntryPatch{}, err
	}
	amount, err := req.Amount.money()
	if err != nil {
		return core.EntryPatch{}, err
	}
	p := core.EntryPatch{
		Date:        date,
		Description: sanitizeInput(req.Description),
		Direction:   core.Direction(strings.ToLower(strings.TrimSpace(req.Direction))),
		Amount:      amount,
		Tag:         sanitizeInput(req.Tag),
		Proof:       strings.TrimSpace(req.Proof),
	}
	return p, p.Validate()
}

func (req entryRequest) entry() (core.Entry, error) {
	p, err := req.patch()
	if err != nil {
		return core.Entry{}, err
	}
	e := core.Entry{CategoryID: strings.TrimSpace(req.MenuID)}.Apply(p)
	return e, e.Validate()
}

type transferRequest struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Amount      amountField `json:"amount"`
	Date        string      `json:"date"`
	Label       string      `json:"label"`
}

type categoryRequest struct {
	Label     string `json:"label"`
	Type      string `json:"type"`
	Icon      string `json:"icon"`
	SectionID string `json:"section_id"`
}

func (req categoryRequest) category(id string) core.Category {
	return core.Category{
		ID:        id,
		Label:     sanitizeInput(req.Label),
		Kind:      core.CategoryKind(strings.TrimSpace(req.Type)),
		IconName:  strings.TrimSpace(req.Icon),
		SectionID: strings.TrimSpace(req.SectionID),
	}
}

type sectionRequest struct {
	Label string `json:"label"`
}

type divisionRequest struct {
	Name         string      `json:"name"`
	Nominal      amountField `json:"nominal"`
	DisplayOrder int         `json:"display_order"`
}

func (req divisionRequest) setting(id string) (core.DivisionSetting, error) {
	nominal, err := req.Nominal.money()
	if err != nil {
		return core.DivisionSetting{}, err
	}
	return core.DivisionSetting{
		ID:           id,
		Name:         sanitizeInput(req.Name),
		Nominal:      nominal,
		DisplayOrder: req.DisplayOrder,
	}, nil
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// parsePeriodParam reads a YYYY-MM query parameter, defaulting to the
// current month when absent.
func parsePeriodParam(r *http.Request, key string, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return core.NewDate(now.Year(), int(now.Month()), 1), nil
	}
	return core.ParsePeriod(v)
}

// sanitizeInput removes control characters except tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
