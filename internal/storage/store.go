package storage

import (
	"context"

	"laporan/internal/core"
)

// EntryStore is the persistence boundary of the ledger.
type EntryStore interface {
	ListEntries(ctx context.Context, categoryID string) ([]core.Entry, error)
	// EntriesOn returns every entry of every category dated d.
	EntriesOn(ctx context.Context, d core.Date) ([]core.Entry, error)
	GetEntry(ctx context.Context, id string) (core.Entry, error)
	CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	UpdateEntry(ctx context.Context, id string, p core.EntryPatch) (core.Entry, error)
	DeleteEntry(ctx context.Context, id string) error

	CreateTransfer(ctx context.Context, r core.TransferRecord) error
	GetTransfer(ctx context.Context, id string) (core.TransferRecord, error)
	DeleteTransfer(ctx context.Context, id string) error
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	// DeleteCategory removes the category together with its entries.
	DeleteCategory(ctx context.Context, id string) error
}

type SectionStore interface {
	ListSections(ctx context.Context) ([]core.Section, error)
	CreateSection(ctx context.Context, s core.Section) (core.Section, error)
	UpdateSection(ctx context.Context, s core.Section) (core.Section, error)
	// DeleteSection detaches the section's categories before removing it.
	DeleteSection(ctx context.Context, id string) error
}

type DivisionSettingStore interface {
	ListDivisionSettings(ctx context.Context) ([]core.DivisionSetting, error)
	CreateDivisionSetting(ctx context.Context, s core.DivisionSetting) (core.DivisionSetting, error)
	UpdateDivisionSetting(ctx context.Context, s core.DivisionSetting) (core.DivisionSetting, error)
	DeleteDivisionSetting(ctx context.Context, id string) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Transactor runs fn against a store whose writes commit together or not at all.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// Store is the full persistence surface used by the service layer.
type Store interface {
	EntryStore
	CategoryStore
	SectionStore
	DivisionSettingStore
	UserStore
	Transactor
	Close() error
}
