package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laporan/internal/core"
	"laporan/internal/storage"
)

func TestEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	e, err := s.CreateEntry(ctx, core.Entry{
		CategoryID: "operational_si",
		Date:       core.NewDate(2026, 1, 2),
		Direction:  core.Out,
		Amount:     core.Money{Cents: 1500},
		Tag:        "Server",
	})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.False(t, e.CreatedAt.IsZero())

	got, err := s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	updated, err := s.UpdateEntry(ctx, e.ID, core.EntryPatch{
		Date:      core.NewDate(2026, 1, 3),
		Direction: core.In,
		Amount:    core.Money{Cents: 99},
	})
	require.NoError(t, err)
	assert.Equal(t, "operational_si", updated.CategoryID)
	assert.Equal(t, core.In, updated.Direction)

	require.NoError(t, s.DeleteEntry(ctx, e.ID))
	_, err = s.GetEntry(ctx, e.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	assert.True(t, errors.Is(s.DeleteEntry(ctx, e.ID), core.ErrNotFound))
	_, err = s.UpdateEntry(ctx, "missing", core.EntryPatch{Date: core.NewDate(2026, 1, 1), Direction: core.In})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestCreateEntryRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.CreateEntry(context.Background(), core.Entry{CategoryID: "x", Date: core.NewDate(2026, 1, 1), Direction: core.In, Amount: core.Money{Cents: -1}})
	assert.True(t, errors.Is(err, core.ErrValidation))
}

func TestListEntriesOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, d := range []core.Date{core.NewDate(2026, 1, 5), core.NewDate(2026, 1, 9), core.NewDate(2026, 1, 9)} {
		_, err := s.CreateEntry(ctx, core.Entry{
			ID: string(rune('a' + i)), CategoryID: "c", Date: d, Direction: core.In,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := s.CreateEntry(ctx, core.Entry{ID: "other", CategoryID: "d", Date: core.NewDate(2026, 1, 9), Direction: core.In})
	require.NoError(t, err)

	list, err := s.ListEntries(ctx, "c")
	require.NoError(t, err)
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	assert.Equal(t, []string{"c", "b", "a"}, ids)

	sameDay, err := s.EntriesOn(ctx, core.NewDate(2026, 1, 9))
	require.NoError(t, err)
	assert.Len(t, sameDay, 3)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx storage.Store) error {
		_, err := tx.CreateEntry(ctx, core.Entry{ID: "e1", CategoryID: "c", Date: core.NewDate(2026, 1, 1), Direction: core.In})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.GetEntry(ctx, "e1")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	err = s.InTx(ctx, func(tx storage.Store) error {
		_, err := tx.CreateEntry(ctx, core.Entry{ID: "e2", CategoryID: "c", Date: core.NewDate(2026, 1, 1), Direction: core.In})
		return err
	})
	require.NoError(t, err)
	_, err = s.GetEntry(ctx, "e2")
	assert.NoError(t, err)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreateSection(ctx, core.Section{ID: "sec", Label: "Operasional"})
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, core.Category{ID: "c", Label: "Hardware", Kind: core.Operational, SectionID: "sec"})
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, core.Entry{ID: "e", CategoryID: "c", Date: core.NewDate(2026, 1, 1), Direction: core.In})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSection(ctx, "sec"))
	c, err := s.GetCategory(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, c.SectionID)

	require.NoError(t, s.DeleteCategory(ctx, "c"))
	_, err = s.GetEntry(ctx, "e")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestUsersUniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreateUser(ctx, core.User{Username: "admin", Role: core.RoleAdmin})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, core.User{Username: "ADMIN", Role: core.RoleUser})
	assert.True(t, errors.Is(err, core.ErrValidation))

	u, err := s.GetUserByUsername(ctx, "Admin")
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, u.Role)
}
