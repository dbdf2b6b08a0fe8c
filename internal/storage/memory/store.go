// Package memory is an in-process storage.Store, used by the memory backend and tests.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"laporan/internal/core"
	"laporan/internal/storage"
)

type state struct {
	entries    map[string]core.Entry
	transfers  map[string]core.TransferRecord
	categories map[string]core.Category
	sections   map[string]core.Section
	divisions  map[string]core.DivisionSetting
	users      map[string]core.User
}

func newState() *state {
	return &state{
		entries:    map[string]core.Entry{},
		transfers:  map[string]core.TransferRecord{},
		categories: map[string]core.Category{},
		sections:   map[string]core.Section{},
		divisions:  map[string]core.DivisionSetting{},
		users:      map[string]core.User{},
	}
}

func (st *state) clone() *state {
	return &state{
		entries:    maps.Clone(st.entries),
		transfers:  maps.Clone(st.transfers),
		categories: maps.Clone(st.categories),
		sections:   maps.Clone(st.sections),
		divisions:  maps.Clone(st.divisions),
		users:      maps.Clone(st.users),
	}
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) Close() error { return nil }

// InTx runs fn on a snapshot and publishes it only when fn succeeds. Other
// callers block until the transaction ends.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{st: s.st.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) ListEntries(_ context.Context, categoryID string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	for _, e := range s.st.entries {
		if e.CategoryID == categoryID {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *Store) EntriesOn(_ context.Context, d core.Date) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := d.String()
	var out []core.Entry
	for _, e := range s.st.entries {
		if e.Date.String() == key {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (s *Store) GetEntry(_ context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.entries[id]
	if !ok {
		return core.Entry{}, core.NotFound("entry", id)
	}
	return e, nil
}

func (s *Store) CreateEntry(_ context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, exists := s.st.entries[e.ID]; exists {
		return core.Entry{}, &core.ValidationError{Field: "id", Message: "entry " + e.ID + " already exists"}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.st.entries[e.ID] = e
	return e, nil
}

func (s *Store) UpdateEntry(_ context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	if err := p.Validate(); err != nil {
		return core.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.entries[id]
	if !ok {
		return core.Entry{}, core.NotFound("entry", id)
	}
	e = e.Apply(p)
	s.st.entries[id] = e
	return e, nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.entries[id]; !ok {
		return core.NotFound("entry", id)
	}
	delete(s.st.entries, id)
	return nil
}

func (s *Store) CreateTransfer(_ context.Context, r core.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	s.st.transfers[r.ID] = r
	return nil
}

func (s *Store) GetTransfer(_ context.Context, id string) (core.TransferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.transfers[id]
	if !ok {
		return core.TransferRecord{}, core.NotFound("transfer", id)
	}
	return r, nil
}

func (s *Store) DeleteTransfer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.transfers[id]; !ok {
		return core.NotFound("transfer", id)
	}
	delete(s.st.transfers, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.st.categories))
	for _, c := range s.st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.categories[id]
	if !ok {
		return core.Category{}, core.NotFound("menu", id)
	}
	return c, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := s.st.categories[c.ID]; exists {
		return core.Category{}, &core.ValidationError{Field: "id", Message: "menu " + c.ID + " already exists"}
	}
	s.st.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.categories[c.ID]; !ok {
		return core.Category{}, core.NotFound("menu", c.ID)
	}
	s.st.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.categories[id]; !ok {
		return core.NotFound("menu", id)
	}
	delete(s.st.categories, id)
	for eid, e := range s.st.entries {
		if e.CategoryID == id {
			delete(s.st.entries, eid)
		}
	}
	return nil
}

func (s *Store) ListSections(_ context.Context) ([]core.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Section, 0, len(s.st.sections))
	for _, sec := range s.st.sections {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *Store) CreateSection(_ context.Context, sec core.Section) (core.Section, error) {
	if err := sec.Validate(); err != nil {
		return core.Section{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sec.ID == "" {
		sec.ID = uuid.NewString()
	}
	s.st.sections[sec.ID] = sec
	return sec, nil
}

func (s *Store) UpdateSection(_ context.Context, sec core.Section) (core.Section, error) {
	if err := sec.Validate(); err != nil {
		return core.Section{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.sections[sec.ID]; !ok {
		return core.Section{}, core.NotFound("section", sec.ID)
	}
	s.st.sections[sec.ID] = sec
	return sec, nil
}

func (s *Store) DeleteSection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.sections[id]; !ok {
		return core.NotFound("section", id)
	}
	delete(s.st.sections, id)
	for cid, c := range s.st.categories {
		if c.SectionID == id {
			c.SectionID = ""
			s.st.categories[cid] = c
		}
	}
	return nil
}

func (s *Store) ListDivisionSettings(_ context.Context) ([]core.DivisionSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.DivisionSetting, 0, len(s.st.divisions))
	for _, d := range s.st.divisions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) CreateDivisionSetting(_ context.Context, d core.DivisionSetting) (core.DivisionSetting, error) {
	if err := d.Validate(); err != nil {
		return core.DivisionSetting{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	s.st.divisions[d.ID] = d
	return d, nil
}

func (s *Store) UpdateDivisionSetting(_ context.Context, d core.DivisionSetting) (core.DivisionSetting, error) {
	if err := d.Validate(); err != nil {
		return core.DivisionSetting{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.st.divisions[d.ID]
	if !ok {
		return core.DivisionSetting{}, core.NotFound("division setting", d.ID)
	}
	d.CreatedAt = prev.CreatedAt
	s.st.divisions[d.ID] = d
	return d, nil
}

func (s *Store) DeleteDivisionSetting(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.divisions[id]; !ok {
		return core.NotFound("division setting", id)
	}
	delete(s.st.divisions, id)
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.st.users))
	for _, u := range s.st.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return core.User{}, core.NotFound("user", username)
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return core.User{}, &core.ValidationError{Field: "username", Message: "username already taken"}
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.st.users[u.ID] = u
	return u, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.users[id]; !ok {
		return core.NotFound("user", id)
	}
	delete(s.st.users, id)
	return nil
}

// sortEntries orders newest first: date, then creation time, then id.
func sortEntries(es []core.Entry) {
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if !a.Date.Equal(b.Date.Time) {
			return b.Date.Before(a.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
