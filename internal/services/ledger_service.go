package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"laporan/internal/amqp"
	"laporan/internal/core"
	"laporan/internal/export"
	"laporan/internal/ledger"
	"laporan/internal/log"
	"laporan/internal/reconcile"
	"laporan/internal/storage"
)

// LedgerService orchestrates entry writes, transfers and summaries across
// the store, the reconciler and the optional event publisher.
type LedgerService struct {
	store      storage.Store
	reconciler *reconcile.Reconciler
	publisher  amqp.Publisher
	logger     *log.Logger
	// cascade lists the menus whose deletes also remove legacy counterparts.
	cascade map[string]bool
}

// CategorySummary pairs a menu with its period figures.
type CategorySummary struct {
	Category core.Category
	Summary  ledger.PeriodSummary
}

// Dashboard is the period view over every menu.
type Dashboard struct {
	Period     core.Date
	Categories []CategorySummary
	// Total sums every menu; transfers between menus cancel out.
	Total ledger.PeriodSummary
}

// NewLedgerService wires a service. publisher may be nil.
func NewLedgerService(store storage.Store, publisher amqp.Publisher, logger *log.Logger, opts ...reconcile.Option) *LedgerService {
	if logger == nil {
		logger = log.FromSlog(nil)
	}
	return &LedgerService{
		store:      store,
		reconciler: reconcile.New(store, opts...),
		publisher:  publisher,
		logger:     logger.WithComponent(log.ComponentLedger),
		cascade: map[string]bool{
			core.MenuSaving: true,
			core.MenuTaktis: true,
		},
	}
}

func (s *LedgerService) Store() storage.Store {
	return s.store
}

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) Category(ctx context.Context, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// Entries lists a menu's entries newest first.
func (s *LedgerService) Entries(ctx context.Context, categoryID string) ([]core.Entry, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, categoryID)
}

func (s *LedgerService) Entry(ctx context.Context, id string) (core.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// CreateEntry saves e and publishes entry.created
func (s *LedgerService) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if _, err := s.store.GetCategory(ctx, e.CategoryID); err != nil {
		return core.Entry{}, err
	}
	saved, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	s.logger.InfoContext(ctx, "Entry created", log.NewFields().WithEntry(saved).WithOperation(log.OpCreate).ToSlice()...)
	s.publish(ctx, amqp.EntryCreated, saved)
	return saved, nil
}

// UpdateEntry applies the editable fields of p to entry id
func (s *LedgerService) UpdateEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	if err := p.Validate(); err != nil {
		return core.Entry{}, err
	}
	updated, err := s.store.UpdateEntry(ctx, id, p)
	if err != nil {
		return core.Entry{}, err
	}

	s.logger.InfoContext(ctx, "Entry updated", log.NewFields().WithEntry(updated).WithOperation(log.OpUpdate).ToSlice()...)
	s.publish(ctx, amqp.EntryUpdated, updated)
	return updated, nil
}

// DeleteEntry removes an entry. Transfer halves and entries in saving or
// taktis menus take their counterparts with them; the removed counterpart ids
// are returned.
func (s *LedgerService) DeleteEntry(ctx context.Context, id string) ([]string, error) {
	e, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	if e.TransferID == "" && !s.cascade[e.CategoryID] {
		if err := s.store.DeleteEntry(ctx, id); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "Entry deleted", log.NewFields().WithEntry(e).WithOperation(log.OpDelete).ToSlice()...)
		s.publish(ctx, amqp.EntryDeleted, e)
		return nil, nil
	}
	return s.cancel(ctx, e)
}

// RecordTransfer moves amount from source to dest as a linked pair of entries
func (s *LedgerService) RecordTransfer(ctx context.Context, sourceID, destID string, amount core.Money, date core.Date, label string) (reconcile.Transfer, error) {
	if sourceID == destID {
		return reconcile.Transfer{}, &core.ValidationError{Field: "destination", Message: "source and destination must differ"}
	}
	source, err := s.store.GetCategory(ctx, sourceID)
	if err != nil {
		return reconcile.Transfer{}, err
	}
	dest, err := s.store.GetCategory(ctx, destID)
	if err != nil {
		return reconcile.Transfer{}, err
	}

	t, err := s.reconciler.RecordTransfer(ctx, reconcile.TransferRequest{
		Source: source,
		Dest:   dest,
		Amount: amount,
		Date:   date,
		Label:  label,
	})
	if err != nil {
		var partial *core.PartialTransferError
		if errors.As(err, &partial) {
			s.logger.ErrorContext(ctx, "Transfer half-written",
				log.FieldTransferID, partial.TransferID,
				log.FieldEntryID, partial.Written.ID,
				"compensated", partial.Compensated,
				log.FieldError, partial.Err)
		}
		return reconcile.Transfer{}, err
	}

	s.logger.InfoContext(ctx, "Transfer recorded",
		log.FieldOperation, log.OpTransfer,
		log.FieldTransferID, t.Record.ID,
		"source", source.ID,
		"destination", dest.ID,
		log.FieldAmountCents, amount.Cents)
	s.publish(ctx, amqp.EntryCreated, t.Out)
	s.publish(ctx, amqp.EntryCreated, t.In)
	return t, nil
}

// CancelTransfer deletes entryID with every counterpart
func (s *LedgerService) CancelTransfer(ctx context.Context, entryID string) ([]string, error) {
	e, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, e)
}

func (s *LedgerService) cancel(ctx context.Context, e core.Entry) ([]string, error) {
	// Resolve counterpart menus before they are gone, for the events.
	candidates, _, err := s.reconciler.Counterparts(ctx, s.store, e)
	if err != nil {
		return nil, err
	}
	menus := make(map[string]string, len(candidates))
	for _, id := range candidates {
		if c, err := s.store.GetEntry(ctx, id); err == nil {
			menus[id] = c.CategoryID
		}
	}

	removed, err := s.reconciler.CancelTransfer(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Transfer cancelled",
		log.FieldOperation, log.OpCancel,
		log.FieldEntryID, e.ID,
		log.FieldMenuID, e.CategoryID,
		log.FieldCounterparts, removed)
	s.publish(ctx, amqp.EntryDeleted, e)
	for _, id := range removed {
		s.publish(ctx, amqp.EntryDeleted, core.Entry{ID: id, CategoryID: menus[id], TransferID: e.TransferID})
	}
	return removed, nil
}

// Summary computes the period figures of one menu
func (s *LedgerService) Summary(ctx context.Context, categoryID string, period core.Date) (ledger.PeriodSummary, error) {
	entries, err := s.Entries(ctx, categoryID)
	if err != nil {
		return ledger.PeriodSummary{}, err
	}
	return ledger.ComputePeriodSummary(entries, period), nil
}

// Series returns one summary per month in [from, to]
func (s *LedgerService) Series(ctx context.Context, categoryID string, from, to core.Date) ([]ledger.MonthSummary, error) {
	if to.MonthStart().Before(from.MonthStart()) {
		return nil, &core.ValidationError{Field: "to", Message: "must not be before from"}
	}
	entries, err := s.Entries(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return ledger.MonthlySeries(entries, from, to), nil
}

// Dashboard summarizes every menu for period, one goroutine per menu.
func (s *LedgerService) Dashboard(ctx context.Context, period core.Date) (Dashboard, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list menus: %w", err)
	}

	out := make([]CategorySummary, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cats {
		g.Go(func() error {
			entries, err := s.store.ListEntries(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("list entries for %s: %w", c.ID, err)
			}
			out[i] = CategorySummary{Category: c, Summary: ledger.ComputePeriodSummary(entries, period)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Period: period.MonthStart(), Categories: out}
	for _, cs := range out {
		d.Total.Opening = d.Total.Opening.Add(cs.Summary.Opening)
		d.Total.IncomeTotal = d.Total.IncomeTotal.Add(cs.Summary.IncomeTotal)
		d.Total.ExpenseTotal = d.Total.ExpenseTotal.Add(cs.Summary.ExpenseTotal)
		d.Total.Closing = d.Total.Closing.Add(cs.Summary.Closing)
	}
	return d, nil
}

// Allocation computes the saving allocation view over the operational menus
func (s *LedgerService) Allocation(ctx context.Context) (ledger.Allocation, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return ledger.Allocation{}, fmt.Errorf("list menus: %w", err)
	}

	in := ledger.AllocationInput{
		Entries:     make(map[string][]core.Entry),
		ChecklistID: core.MenuDivision,
		SavingID:    core.MenuSaving,
	}
	for _, c := range cats {
		if c.Kind != core.Operational {
			continue
		}
		entries, err := s.store.ListEntries(ctx, c.ID)
		if err != nil {
			return ledger.Allocation{}, fmt.Errorf("list entries for %s: %w", c.ID, err)
		}
		in.Entries[c.ID] = entries
		if c.ID != core.MenuTaktis {
			in.Divisions = append(in.Divisions, c)
		}
	}
	sort.Slice(in.Divisions, func(i, j int) bool { return in.Divisions[i].Label < in.Divisions[j].Label })
	return ledger.SavingAllocation(in), nil
}

// Export builds the period report of one menu
func (s *LedgerService) Export(ctx context.Context, categoryID string, period core.Date) (export.Report, error) {
	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return export.Report{}, err
	}
	entries, err := s.store.ListEntries(ctx, categoryID)
	if err != nil {
		return export.Report{}, fmt.Errorf("list entries for %s: %w", categoryID, err)
	}
	r := export.BuildReport(cat, entries, period)
	s.logger.InfoContext(ctx, "Report built",
		log.FieldOperation, log.OpExport,
		log.FieldMenuID, categoryID,
		log.FieldPeriod, r.Period.Period(),
		"rows", len(r.Entries))
	return r, nil
}

func (s *LedgerService) publish(ctx context.Context, t amqp.EventType, e core.Entry) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping event", log.FieldEvent, t)
		return
	}
	ev := amqp.NewLedgerEvent(t, e.ID, e.CategoryID)
	ev.TransferID = e.TransferID
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The write already succeeded; the mirror catches up on the next event.
		s.logger.Fail(ctx, "Failed to publish ledger event", log.OpPublish, err,
			log.FieldEvent, t,
			log.FieldEntryID, e.ID)
	}
}

// Close releases the store
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
