package repository_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todolist/backend/internal/model"
	"todolist/backend/internal/repository"
	"todolist/backend/internal/repository/testutil"
)

func newGormRepo(t *testing.T) (repository.EntryRepository, *gorm.DB) {
	t.Helper()
	gdb := testutil.NewTestGormDB(t)
	require.NoError(t, repository.MigrateGorm(gdb))
	return repository.NewGormEntryRepository(gdb), gdb
}

// backdate rewrites updated_at so retention and delta tests need no sleeps.
func backdate(t *testing.T, gdb *gorm.DB, id int64, at time.Time) {
	t.Helper()
	err := gdb.Table("entries").Where("id = ?", id).Update("updated_at", at.UTC()).Error
	require.NoError(t, err)
}

func TestGormEntryRepository_CRUD(t *testing.T) {
	repo, _ := newGormRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Entry{Title: "Write report"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Nil(t, created.Notes)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Write report", fetched.Title)
	require.False(t, fetched.Complete)

	updated, err := repo.Update(ctx, created.ID, model.EntryPatch{Notes: stringPtr("by friday"), Complete: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, "Write report", updated.Title)
	require.Equal(t, "by friday", *updated.Notes)
	require.True(t, updated.Complete)
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = repo.Update(ctx, 999, model.EntryPatch{Title: stringPtr("x")})
	require.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.GetByID(ctx, 999)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGormEntryRepository_SoftDeleteAndList(t *testing.T) {
	repo, _ := newGormRepo(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, model.Entry{Title: "a"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, model.Entry{Title: "b"})
	require.NoError(t, err)

	deleted, err := repo.SoftDelete(ctx, []int64{a.ID, 777})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.Equal(t, a.ID, deleted[0].ID)
	require.True(t, deleted[0].Deleted)

	deleted, err = repo.SoftDelete(ctx, []int64{a.ID})
	require.NoError(t, err)
	require.Empty(t, deleted)

	live, err := repo.List(ctx, repository.EntryListFilter{})
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.Equal(t, b.ID, live[0].ID)

	all, err := repo.List(ctx, repository.EntryListFilter{IncludeDeleted: true, IDs: []int64{a.ID, b.ID}})
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = repo.Update(ctx, a.ID, model.EntryPatch{Title: stringPtr("again")})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGormEntryRepository_ModifiedAfterAndPurge(t *testing.T) {
	repo, gdb := newGormRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old, err := repo.Create(ctx, model.Entry{Title: "old"})
	require.NoError(t, err)
	fresh, err := repo.Create(ctx, model.Entry{Title: "fresh"})
	require.NoError(t, err)

	_, err = repo.SoftDelete(ctx, []int64{old.ID})
	require.NoError(t, err)
	backdate(t, gdb, old.ID, now.Add(-48*time.Hour))

	cutoff := now.Add(-time.Hour)
	changed, err := repo.List(ctx, repository.EntryListFilter{ModifiedAfter: &cutoff, IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, changed, 1)
	require.Equal(t, fresh.ID, changed[0].ID)

	purged, err := repo.PurgeDeleted(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	_, err = repo.GetByID(ctx, old.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGormEntryRepository_UpdateLosesToConcurrentDelete(t *testing.T) {
	repo, gdb := newGormRepo(t)
	ctx := context.Background()

	entry, err := repo.Create(ctx, model.Entry{Title: "contested"})
	require.NoError(t, err)

	// soft-delete the row inside the update's transaction, just before its write
	var once sync.Once
	err = gdb.Callback().Update().Before("gorm:update").Register("test:delete_first", func(tx *gorm.DB) {
		once.Do(func() {
			res := tx.Session(&gorm.Session{NewDB: true}).
				Exec(`UPDATE entries SET deleted = ? WHERE id = ?`, true, entry.ID)
			require.NoError(t, res.Error)
		})
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, entry.ID, model.EntryPatch{Title: stringPtr("revived")})
	require.ErrorIs(t, err, sql.ErrNoRows)

	rows, err := repo.List(ctx, repository.EntryListFilter{IDs: []int64{entry.ID}, IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "contested", rows[0].Title)
	require.True(t, rows[0].Deleted)
}
