package http

import (
	"net/http"
	"strings"

	"laporan/internal/core"
)

func (s *Server) handleListMenus(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryDTO, len(cats))
	for i, c := range cats {
		out[i] = newCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateMenu(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.CreateCategory(r.Context(), req.category(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryDTO(c))
}

func (s *Server) handleUpdateMenu(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.ledger.UpdateCategory(r.Context(), req.category(r.PathValue("id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryDTO(c))
}

func (s *Server) handleDeleteMenu(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.ledger.Sections(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]sectionDTO, len(sections))
	for i, sec := range sections {
		out[i] = sectionDTO{ID: sec.ID, Label: sec.Label}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sec, err := s.ledger.CreateSection(r.Context(), core.Section{Label: sanitizeInput(req.Label)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sectionDTO{ID: sec.ID, Label: sec.Label})
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sec, err := s.ledger.UpdateSection(r.Context(), core.Section{ID: r.PathValue("id"), Label: sanitizeInput(req.Label)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sectionDTO{ID: sec.ID, Label: sec.Label})
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteSection(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDivisions(w http.ResponseWriter, r *http.Request) {
	settings, err := s.ledger.DivisionSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]divisionDTO, len(settings))
	for i, d := range settings {
		out[i] = newDivisionDTO(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDivision(w http.ResponseWriter, r *http.Request) {
	var req divisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := req.setting("")
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateDivisionSetting(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDivisionDTO(created))
}

func (s *Server) handleUpdateDivision(w http.ResponseWriter, r *http.Request) {
	var req divisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := req.setting(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.ledger.UpdateDivisionSetting(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDivisionDTO(updated))
}

func (s *Server) handleDeleteDivision(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteDivisionSetting(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// User management needs accounts, so it is only served with authentication on.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "authentication is disabled"})
		return
	}
	users, err := s.auth.Users(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]userDTO, len(users))
	for i, u := range users {
		out[i] = newUserDTO(u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "authentication is disabled"})
		return
	}
	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.auth.CreateUser(r.Context(), core.User{
		Username: req.Username,
		FullName: sanitizeInput(req.FullName),
		Role:     strings.TrimSpace(req.Role),
	}, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserDTO(u))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "authentication is disabled"})
		return
	}
	id := r.PathValue("id")
	if c := claimsFrom(r.Context()); c != nil && c.Subject == id {
		writeError(w, r, &core.ValidationError{Field: "id", Message: "cannot delete the signed-in user"})
		return
	}
	if err := s.auth.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
