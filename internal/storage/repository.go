package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"laporan/internal/core"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements Store over database/sql for SQLite and Postgres.
type Repository struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	inTx    bool
	now     func() time.Time
}

var _ Store = (*Repository)(nil)

// OpenSQLite opens (creating if needed) the database file at path and migrates it.
func OpenSQLite(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := path + "?_pragma=busy_timeout(5000)"
	return open(SQLite, dsn)
}

// OpenPostgres connects to dsn through the pgx stdlib driver and migrates the schema.
func OpenPostgres(dsn string) (*Repository, error) {
	return open(Postgres, dsn)
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer at a time; concurrent writers on one file fail with SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, q: db, dialect: dialect, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil && !r.inTx {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// DB exposes the pool for maintenance commands.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// InTx runs fn inside one database transaction. Nested calls join the outer one.
func (r *Repository) InTx(ctx context.Context, fn func(tx Store) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	scoped := &Repository{db: r.db, q: tx, dialect: r.dialect, inTx: true, now: r.now}

	if err := fn(scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.WarnContext(ctx, "Transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.rebind(query), args...)
}

// execAffecting runs a write and maps zero affected rows to NotFoundError.
func (r *Repository) execAffecting(ctx context.Context, kind, id, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFound(kind, id)
	}
	return nil
}

const entryColumns = `id, menu_id, date, description, type, amount_cents, category, proof, transfer_id, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (core.Entry, error) {
	var (
		e         core.Entry
		date      string
		direction string
		createdAt int64
	)
	if err := s.Scan(&e.ID, &e.CategoryID, &date, &e.Description, &direction,
		&e.Amount.Cents, &e.Tag, &e.Proof, &e.TransferID, &createdAt); err != nil {
		return core.Entry{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.Date = d
	e.Direction = core.Direction(direction)
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	return e, nil
}

func (r *Repository) listEntries(ctx context.Context, where string, args ...any) ([]core.Entry, error) {
	rows, err := r.query(ctx, `SELECT `+entryColumns+` FROM transactions WHERE `+where+
		` ORDER BY date DESC, created_at DESC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) ListEntries(ctx context.Context, categoryID string) ([]core.Entry, error) {
	out, err := r.listEntries(ctx, `menu_id = ?`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list entries for menu %s: %w", categoryID, err)
	}
	return out, nil
}

func (r *Repository) EntriesOn(ctx context.Context, d core.Date) ([]core.Entry, error) {
	out, err := r.listEntries(ctx, `date = ?`, d.String())
	if err != nil {
		return nil, fmt.Errorf("list entries on %s: %w", d, err)
	}
	return out, nil
}

func (r *Repository) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	e, err := scanEntry(r.queryRow(ctx, `SELECT `+entryColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, core.NotFound("entry", id)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *Repository) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}

	_, err := r.exec(ctx, `INSERT INTO transactions (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CategoryID, e.Date.String(), e.Description, string(e.Direction),
		e.Amount.Cents, e.Tag, e.Proof, e.TransferID, e.CreatedAt.UnixNano())
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved",
		"id", e.ID,
		"menu_id", e.CategoryID,
		"date", e.Date.String(),
		"direction", e.Direction,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

func (r *Repository) UpdateEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error) {
	if err := p.Validate(); err != nil {
		return core.Entry{}, err
	}
	err := r.execAffecting(ctx, "entry", id,
		`UPDATE transactions SET date = ?, description = ?, type = ?, amount_cents = ?, category = ?, proof = ? WHERE id = ?`,
		p.Date.String(), p.Description, string(p.Direction), p.Amount.Cents, p.Tag, p.Proof, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Entry{}, err
		}
		return core.Entry{}, fmt.Errorf("update entry %s: %w", id, err)
	}
	return r.GetEntry(ctx, id)
}

func (r *Repository) DeleteEntry(ctx context.Context, id string) error {
	err := r.execAffecting(ctx, "entry", id, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if err == nil {
		slog.InfoContext(ctx, "Entry deleted", "id", id)
	}
	return err
}

func (r *Repository) CreateTransfer(ctx context.Context, t core.TransferRecord) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now().UTC()
	}
	_, err := r.exec(ctx, `INSERT INTO transfers (id, out_entry_id, in_entry_id, source_menu_id, dest_menu_id, amount_cents, date, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OutEntryID, t.InEntryID, t.SourceCategoryID, t.DestCategoryID,
		t.Amount.Cents, t.Date.String(), t.Label, t.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("create transfer %s: %w", t.ID, err)
	}
	return nil
}

func (r *Repository) GetTransfer(ctx context.Context, id string) (core.TransferRecord, error) {
	var (
		t         core.TransferRecord
		date      string
		createdAt int64
	)
	err := r.queryRow(ctx, `SELECT id, out_entry_id, in_entry_id, source_menu_id, dest_menu_id, amount_cents, date, label, created_at
		FROM transfers WHERE id = ?`, id).
		Scan(&t.ID, &t.OutEntryID, &t.InEntryID, &t.SourceCategoryID, &t.DestCategoryID, &t.Amount.Cents, &date, &t.Label, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.TransferRecord{}, core.NotFound("transfer", id)
	}
	if err != nil {
		return core.TransferRecord{}, fmt.Errorf("get transfer %s: %w", id, err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.TransferRecord{}, fmt.Errorf("transfer %s: %w", id, err)
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return t, nil
}

func (r *Repository) DeleteTransfer(ctx context.Context, id string) error {
	err := r.execAffecting(ctx, "transfer", id, `DELETE FROM transfers WHERE id = ?`, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("delete transfer %s: %w", id, err)
	}
	return err
}
