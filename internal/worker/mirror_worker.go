package worker

import (
	"context"
	"errors"
	"fmt"

	"laporan/internal/amqp"
	"laporan/internal/core"
	"laporan/internal/log"
	"laporan/internal/sheets"
	"laporan/internal/storage"
)

// Consumer delivers ledger events to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// MirrorWorker keeps an EntryMirror in step with the store, driven by
// ledger events.
type MirrorWorker struct {
	store  storage.Store
	mirror sheets.EntryMirror
	logger *log.Logger
}

type SyncStats struct {
	Total   int
	Synced  int
	Removed int
	Errors  int
}

func NewMirrorWorker(store storage.Store, mirror sheets.EntryMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.FromSlog(nil)
	}
	return &MirrorWorker{
		store:  store,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Handle applies one event. The entry is re-read from the store, so an
// out-of-order or repeated event converges on the current state.
func (w *MirrorWorker) Handle(ctx context.Context, ev amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEvent, ev.Type,
		log.FieldEntryID, ev.EntryID,
		log.FieldMenuID, ev.CategoryID)

	switch ev.Type {
	case amqp.EntryCreated, amqp.EntryUpdated:
		e, err := w.store.GetEntry(ctx, ev.EntryID)
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before we got here.
			return w.remove(ctx, ev.EntryID)
		}
		if err != nil {
			return fmt.Errorf("get entry %s: %w", ev.EntryID, err)
		}
		return w.upsert(ctx, e)
	case amqp.EntryDeleted:
		return w.remove(ctx, ev.EntryID)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown ledger event", log.FieldEvent, ev.Type)
		return nil
	}
}

// Run consumes events until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.Consume(ctx, w.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume ledger events: %w", err)
	}
	return nil
}

// Resync writes every stored entry to the mirror and removes mirrored rows
// whose entry no longer exists. It recovers from events lost while the
// worker was down.
func (w *MirrorWorker) Resync(ctx context.Context) (SyncStats, error) {
	cats, err := w.store.ListCategories(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("list menus: %w", err)
	}

	var stats SyncStats
	stored := make(map[string]bool)
	for _, c := range cats {
		entries, err := w.store.ListEntries(ctx, c.ID)
		if err != nil {
			return stats, fmt.Errorf("list entries for %s: %w", c.ID, err)
		}
		for _, e := range entries {
			stats.Total++
			stored[e.ID] = true
			if err := w.mirror.Upsert(ctx, e, c.Label); err != nil {
				w.logger.Fail(ctx, "Failed to mirror entry during resync", log.OpMirror, err, log.FieldEntryID, e.ID)
				stats.Errors++
				continue
			}
			stats.Synced++
		}
	}

	mirrored, err := w.mirror.EntryIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list mirrored entries: %w", err)
	}
	for _, id := range mirrored {
		if stored[id] {
			continue
		}
		if err := w.mirror.Remove(ctx, id); err != nil {
			w.logger.Fail(ctx, "Failed to remove stale mirrored entry", log.OpMirror, err, log.FieldEntryID, id)
			stats.Errors++
			continue
		}
		stats.Removed++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		"total", stats.Total,
		"synced", stats.Synced,
		"removed", stats.Removed,
		"errors", stats.Errors)
	return stats, nil
}

func (w *MirrorWorker) upsert(ctx context.Context, e core.Entry) error {
	label := e.CategoryID
	if c, err := w.store.GetCategory(ctx, e.CategoryID); err == nil {
		label = c.Label
	}
	if err := w.mirror.Upsert(ctx, e, label); err != nil {
		return fmt.Errorf("mirror entry %s: %w", e.ID, err)
	}
	w.logger.InfoContext(ctx, "Entry mirrored", log.NewFields().WithEntry(e).WithOperation(log.OpMirror).ToSlice()...)
	return nil
}

func (w *MirrorWorker) remove(ctx context.Context, id string) error {
	if err := w.mirror.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove mirrored entry %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Mirrored entry removed", log.FieldEntryID, id)
	return nil
}
