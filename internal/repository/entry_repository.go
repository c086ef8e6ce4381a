package repository

//go:generate mockgen -source=entry_repository.go -destination=mock/mock_entry_repository.go -package=mock

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"todolist/backend/internal/model"
	"todolist/backend/internal/snowflake"
)

type EntryListFilter struct {
	IDs []int64
	// ModifiedAfter keeps entries whose updated_at is strictly later.
	ModifiedAfter  *time.Time
	IncludeDeleted bool
}

// EntryRepository persists todo entries. Lookups that match no row return
// sql.ErrNoRows from every implementation.
type EntryRepository interface {
	GetByID(ctx context.Context, id int64) (model.Entry, error)
	List(ctx context.Context, filter EntryListFilter) ([]model.Entry, error)
	Create(ctx context.Context, entry model.Entry) (model.Entry, error)
	// Update applies patch to a live entry and bumps its modified time.
	Update(ctx context.Context, id int64, patch model.EntryPatch) (model.Entry, error)
	// SoftDelete marks the live entries among ids deleted and returns them.
	SoftDelete(ctx context.Context, ids []int64) ([]model.Entry, error)
	// PurgeDeleted removes soft-deleted entries last modified before cutoff.
	PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error)
}

const entryColumns = `id, title, notes, complete, deleted, created_at, updated_at`

type entryRepository struct {
	db dbtx
}

func NewEntryRepository(db dbtx) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) GetByID(ctx context.Context, id int64) (model.Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`,
		id,
	)
	return scanEntry(row)
}

func (r *entryRepository) List(ctx context.Context, filter EntryListFilter) ([]model.Entry, error) {
	var args []any
	query := `SELECT ` + entryColumns + ` FROM entries`

	var conditions []string

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted = 0")
	}

	if len(filter.IDs) > 0 {
		conditions = append(conditions, "id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}

	if filter.ModifiedAfter != nil {
		conditions = append(conditions, "updated_at > ?")
		args = append(args, formatTime(*filter.ModifiedAfter))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *entryRepository) Create(ctx context.Context, entry model.Entry) (model.Entry, error) {
	ts := formatTime(now())

	row := r.db.QueryRowContext(
		ctx,
		`INSERT INTO entries (id, title, notes, complete, deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)
		 RETURNING `+entryColumns,
		snowflake.NextID(),
		entry.Title,
		nullableString(entry.Notes),
		boolToInt(entry.Complete),
		ts,
		ts,
	)
	return scanEntry(row)
}

func (r *entryRepository) Update(ctx context.Context, id int64, patch model.EntryPatch) (model.Entry, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(now())}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullableString(patch.Notes))
	}
	if patch.Complete != nil {
		sets = append(sets, "complete = ?")
		args = append(args, boolToInt(*patch.Complete))
	}
	args = append(args, id)

	row := r.db.QueryRowContext(
		ctx,
		`UPDATE entries SET `+strings.Join(sets, ", ")+`
		 WHERE id = ? AND deleted = 0
		 RETURNING `+entryColumns,
		args...,
	)
	return scanEntry(row)
}

func (r *entryRepository) SoftDelete(ctx context.Context, ids []int64) ([]model.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := []any{formatTime(now())}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(
		ctx,
		`UPDATE entries SET deleted = 1, updated_at = ?
		 WHERE deleted = 0 AND id IN (`+placeholders(len(ids))+`)
		 RETURNING `+entryColumns,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (r *entryRepository) PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(
		ctx,
		`DELETE FROM entries WHERE deleted = 1 AND updated_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (model.Entry, error) {
	var e model.Entry
	var notes sql.NullString
	var createdAt, updatedAt string
	var completeInt, deletedInt int

	err := row.Scan(&e.ID, &e.Title, &notes, &completeInt, &deletedInt, &createdAt, &updatedAt)
	if err != nil {
		return model.Entry{}, err
	}

	if notes.Valid {
		e.Notes = &notes.String
	}
	e.Complete = completeInt == 1
	e.Deleted = deletedInt == 1
	e.CreatedAt, _ = parseTime(createdAt)
	e.UpdatedAt, _ = parseTime(updatedAt)

	return e, nil
}

func collectEntries(rows *sql.Rows) ([]model.Entry, error) {
	entries := []model.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableString stores empty notes as NULL.
func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
