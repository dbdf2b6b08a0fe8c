package http

import (
	"net/http"
	"strconv"
	"strings"

	"laporan/internal/core"
	"laporan/internal/ledger"
	"laporan/internal/log"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries(r.Context(), r.PathValue("menuId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryDTOs(entries))
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := req.entry()
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.ledger.CreateEntry(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.appMetrics.totalEntries.Add(1)
	s.invalidate(saved.CategoryID)
	writeJSON(w, http.StatusCreated, newEntryDTO(saved))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateEntry(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate(updated.CategoryID)
	writeJSON(w, http.StatusOK, newEntryDTO(updated))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.ledger.DeleteEntry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Counterparts may live in any menu.
	s.invalidate()
	writeJSON(w, http.StatusOK, deletedDTO{Deleted: id, Counterparts: nonNil(removed)})
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := req.Amount.money()
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	source, dest := strings.TrimSpace(req.Source), strings.TrimSpace(req.Destination)
	t, err := s.ledger.RecordTransfer(r.Context(), source, dest, amount, date, sanitizeInput(req.Label))
	// A half-written transfer still changed the store.
	s.invalidate(source, dest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransferDTO(t))
}

func (s *Server) handleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("entryId")
	removed, err := s.ledger.CancelTransfer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate()
	writeJSON(w, http.StatusOK, deletedDTO{Deleted: id, Counterparts: nonNil(removed)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	menuID := r.PathValue("menuId")
	period, err := parsePeriodParam(r, "period", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.entries(r.Context(), menuID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, periodSummaryDTO{
		MenuID:     menuID,
		Period:     period.Period(),
		summaryDTO: newSummaryDTO(ledger.ComputePeriodSummary(entries, period)),
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	menuID := r.PathValue("menuId")
	to, err := parsePeriodParam(r, "to", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	from := core.Date{Time: to.AddDate(0, -11, 0)}
	if r.URL.Query().Get("from") != "" {
		if from, err = parsePeriodParam(r, "from", s.now()); err != nil {
			writeError(w, r, err)
			return
		}
	}

	series, err := s.ledger.Series(r.Context(), menuID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]periodSummaryDTO, len(series))
	for i, m := range series {
		out[i] = periodSummaryDTO{Period: m.Period.Period(), summaryDTO: newSummaryDTO(m.PeriodSummary)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodParam(r, "period", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.ledger.Dashboard(r.Context(), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardDTO(d))
}

func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	a, err := s.ledger.Allocation(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAllocationDTO(a))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodParam(r, "period", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.ledger.Export(r.Context(), r.PathValue("menuId"), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := report.Bytes()
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Export write interrupted", log.FieldError, err)
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
