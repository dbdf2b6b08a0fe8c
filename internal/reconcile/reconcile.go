// Package reconcile keeps the two halves of a transfer together.
//
// A transfer is an "out" entry in the source category and an "in" entry in the
// destination category sharing amount, date, tag and a transfer id. Entries
// written before transfer ids existed are paired on cancel by a matching
// predicate over amount, date, tag and description markers.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"laporan/internal/core"
	"laporan/internal/storage"
)

// Amounts closer than this many minor units are considered equal.
const matchToleranceCents = 1

// Markers are the lowercase description substrings that identify a transfer half.
var Markers = []string{"transfer", "alih", "saving", "reallocated", "dana taktis"}

// TransferRequest describes a movement of funds between two categories.
type TransferRequest struct {
	Source core.Category
	Dest   core.Category
	Amount core.Money
	Date   core.Date
	// Label becomes the tag of both halves. Defaults to the source label.
	Label string
}

// Transfer is the result of a recorded transfer.
type Transfer struct {
	Record core.TransferRecord
	Out    core.Entry
	In     core.Entry
}

// Reconciler records and cancels transfers against an EntryStore.
type Reconciler struct {
	store storage.EntryStore
	links map[string][]string
	newID func() string
	now   func() time.Time
}

type Option func(*Reconciler)

// WithLinks restricts counterpart search. links maps a category id to the
// categories its legacy transfers may have a counterpart in. Categories absent
// from the map search every other category.
func WithLinks(links map[string][]string) Option {
	return func(r *Reconciler) {
		r.links = links
	}
}

// WithIDGenerator replaces uuid generation, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(r *Reconciler) {
		r.newID = fn
	}
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(r *Reconciler) {
		r.now = fn
	}
}

func New(store storage.EntryStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate checks the request before anything is written.
func (req TransferRequest) Validate() error {
	if strings.TrimSpace(req.Source.ID) == "" {
		return &core.ValidationError{Field: "source", Message: "source menu is required"}
	}
	if strings.TrimSpace(req.Dest.ID) == "" {
		return &core.ValidationError{Field: "destination", Message: "destination menu is required"}
	}
	if req.Source.ID == req.Dest.ID {
		return &core.ValidationError{Field: "destination", Message: "source and destination must differ"}
	}
	if err := req.Amount.Positive(); err != nil {
		return err
	}
	return req.Date.Validate()
}

// RecordTransfer writes both halves and the linking record. When the store
// supports transactions the three writes commit together; otherwise a failure
// after the first write is reported as *core.PartialTransferError once the
// written half has been compensated.
func (r *Reconciler) RecordTransfer(ctx context.Context, req TransferRequest) (Transfer, error) {
	if err := req.Validate(); err != nil {
		return Transfer{}, err
	}

	t := r.build(req)

	if tx, ok := r.store.(storage.Transactor); ok {
		err := tx.InTx(ctx, func(s storage.Store) error {
			return persist(ctx, s, &t)
		})
		if err != nil {
			return Transfer{}, fmt.Errorf("record transfer: %w", err)
		}
		return t, nil
	}

	if err := r.persistSequential(ctx, &t); err != nil {
		return Transfer{}, err
	}
	return t, nil
}

func (r *Reconciler) build(req TransferRequest) Transfer {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = req.Source.Label
	}
	now := r.now().UTC()
	id := r.newID()

	out := core.Entry{
		ID:          r.newID(),
		CategoryID:  req.Source.ID,
		Date:        req.Date,
		Description: "Transferred to " + req.Dest.Label,
		Direction:   core.Out,
		Amount:      req.Amount,
		Tag:         label,
		TransferID:  id,
		CreatedAt:   now,
	}
	in := core.Entry{
		ID:          r.newID(),
		CategoryID:  req.Dest.ID,
		Date:        req.Date,
		Description: "Transfer from " + req.Source.Label,
		Direction:   core.In,
		Amount:      req.Amount,
		Tag:         label,
		TransferID:  id,
		CreatedAt:   now,
	}
	return Transfer{
		Out: out,
		In:  in,
		Record: core.TransferRecord{
			ID:               id,
			OutEntryID:       out.ID,
			InEntryID:        in.ID,
			SourceCategoryID: req.Source.ID,
			DestCategoryID:   req.Dest.ID,
			Amount:           req.Amount,
			Date:             req.Date,
			Label:            label,
			CreatedAt:        now,
		},
	}
}

func persist(ctx context.Context, s storage.EntryStore, t *Transfer) error {
	out, err := s.CreateEntry(ctx, t.Out)
	if err != nil {
		return fmt.Errorf("create out entry: %w", err)
	}
	in, err := s.CreateEntry(ctx, t.In)
	if err != nil {
		return fmt.Errorf("create in entry: %w", err)
	}
	if err := s.CreateTransfer(ctx, t.Record); err != nil {
		return fmt.Errorf("create transfer record: %w", err)
	}
	t.Out, t.In = out, in
	return nil
}

func (r *Reconciler) persistSequential(ctx context.Context, t *Transfer) error {
	out, err := r.store.CreateEntry(ctx, t.Out)
	if err != nil {
		return fmt.Errorf("record transfer: create out entry: %w", err)
	}
	t.Out = out

	in, err := r.store.CreateEntry(ctx, t.In)
	if err != nil {
		return r.compensate(ctx, t.Record.ID, out, fmt.Errorf("create in entry: %w", err), out.ID)
	}
	t.In = in

	if err := r.store.CreateTransfer(ctx, t.Record); err != nil {
		return r.compensate(ctx, t.Record.ID, out, fmt.Errorf("create transfer record: %w", err), out.ID, in.ID)
	}
	return nil
}

func (r *Reconciler) compensate(ctx context.Context, transferID string, written core.Entry, cause error, ids ...string) error {
	compensated := true
	for _, id := range ids {
		if err := r.store.DeleteEntry(ctx, id); err != nil && !errors.Is(err, core.ErrNotFound) {
			compensated = false
			slog.WarnContext(ctx, "Failed to roll back transfer half",
				"transfer_id", transferID,
				"entry_id", id,
				"error", err)
		}
	}
	return &core.PartialTransferError{
		TransferID:  transferID,
		Written:     written,
		Compensated: compensated,
		Err:         cause,
	}
}

// CancelTransfer deletes the entry and every counterpart it belongs with, and
// returns the ids of the removed counterparts. An unknown id is a
// *core.NotFoundError; an entry without counterparts is deleted alone.
func (r *Reconciler) CancelTransfer(ctx context.Context, entryID string) ([]string, error) {
	entry, err := r.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("cancel transfer: %w", err)
	}

	var counterparts []string
	run := func(s storage.EntryStore) error {
		ids, transferID, err := r.Counterparts(ctx, s, entry)
		if err != nil {
			return err
		}
		if err := s.DeleteEntry(ctx, entry.ID); err != nil {
			return fmt.Errorf("delete entry %s: %w", entry.ID, err)
		}
		counterparts = counterparts[:0]
		for _, id := range ids {
			err := s.DeleteEntry(ctx, id)
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("delete counterpart %s: %w", id, err)
			}
			counterparts = append(counterparts, id)
		}
		if transferID != "" {
			if err := s.DeleteTransfer(ctx, transferID); err != nil && !errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("delete transfer record %s: %w", transferID, err)
			}
		}
		return nil
	}

	if tx, ok := r.store.(storage.Transactor); ok {
		err = tx.InTx(ctx, func(s storage.Store) error { return run(s) })
	} else {
		err = run(r.store)
	}
	if err != nil {
		return nil, fmt.Errorf("cancel transfer: %w", err)
	}
	return counterparts, nil
}

// Counterparts lists the entries that belong to the same transfer as e,
// without deleting anything. transferID is set when the pairing came from a
// transfer record.
func (r *Reconciler) Counterparts(ctx context.Context, s storage.EntryStore, e core.Entry) (ids []string, transferID string, err error) {
	if e.TransferID != "" {
		rec, err := s.GetTransfer(ctx, e.TransferID)
		switch {
		case err == nil:
			for _, id := range []string{rec.OutEntryID, rec.InEntryID} {
				if id != e.ID {
					ids = append(ids, id)
				}
			}
			return ids, rec.ID, nil
		case !errors.Is(err, core.ErrNotFound):
			return nil, "", fmt.Errorf("get transfer %s: %w", e.TransferID, err)
		}
	}

	sameDay, err := s.EntriesOn(ctx, e.Date)
	if err != nil {
		return nil, "", fmt.Errorf("list entries on %s: %w", e.Date, err)
	}

	if e.TransferID != "" {
		// Record lost; the shared id still pairs the halves exactly.
		for _, c := range sameDay {
			if c.ID != e.ID && c.TransferID == e.TransferID {
				ids = append(ids, c.ID)
			}
		}
		sort.Strings(ids)
		return ids, e.TransferID, nil
	}

	for _, c := range sameDay {
		if c.TransferID != "" || !r.linked(e.CategoryID, c.CategoryID) {
			continue
		}
		if IsCounterpart(e, c) {
			ids = append(ids, c.ID)
		}
	}
	sort.Strings(ids)
	return ids, "", nil
}

func (r *Reconciler) linked(from, to string) bool {
	if from == to {
		return false
	}
	targets, ok := r.links[from]
	if !ok {
		return true
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// IsCounterpart reports whether candidate matches e as the other half of a
// legacy transfer: amount within tolerance, same date, same tag ignoring case
// and surrounding space, and a marker in the candidate's description.
func IsCounterpart(e, candidate core.Entry) bool {
	if e.ID == candidate.ID {
		return false
	}
	diff := e.Amount.Cents - candidate.Amount.Cents
	if diff < 0 {
		diff = -diff
	}
	if diff >= matchToleranceCents {
		return false
	}
	if e.Date.String() != candidate.Date.String() {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(e.Tag), strings.TrimSpace(candidate.Tag)) {
		return false
	}
	return HasMarker(candidate.Description)
}

// HasMarker reports whether description contains one of Markers, ignoring case.
func HasMarker(description string) bool {
	d := strings.ToLower(description)
	for _, m := range Markers {
		if strings.Contains(d, m) {
			return true
		}
	}
	return false
}
