package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"todolist/backend/internal/model"
	"todolist/backend/internal/snowflake"
)

// gormEntry maps the entries table for the ORM-backed store. The schema
// matches the hand-written SQLite one so either store can serve the API.
type gormEntry struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Title     string `gorm:"not null"`
	Notes     *string
	Complete  bool      `gorm:"not null;default:false"`
	Deleted   bool      `gorm:"not null;default:false;index:idx_entries_deleted_updated,priority:1"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false;index:idx_entries_updated_at;index:idx_entries_deleted_updated,priority:2"`
}

func (gormEntry) TableName() string {
	return "entries"
}

func (g gormEntry) toModel() model.Entry {
	return model.Entry{
		ID:        g.ID,
		Title:     g.Title,
		Notes:     g.Notes,
		Complete:  g.Complete,
		Deleted:   g.Deleted,
		CreatedAt: g.CreatedAt.UTC(),
		UpdatedAt: g.UpdatedAt.UTC(),
	}
}

type gormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository returns an EntryRepository over any GORM dialect.
func NewGormEntryRepository(db *gorm.DB) EntryRepository {
	return &gormEntryRepository{db: db}
}

// MigrateGorm creates or updates the entries table through GORM.
func MigrateGorm(db *gorm.DB) error {
	return db.AutoMigrate(&gormEntry{})
}

func (r *gormEntryRepository) GetByID(ctx context.Context, id int64) (model.Entry, error) {
	var row gormEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return model.Entry{}, notFound(err)
	}
	return row.toModel(), nil
}

func (r *gormEntryRepository) List(ctx context.Context, filter EntryListFilter) ([]model.Entry, error) {
	q := r.db.WithContext(ctx).Model(&gormEntry{})

	if !filter.IncludeDeleted {
		q = q.Where("deleted = ?", false)
	}
	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.ModifiedAfter != nil {
		q = q.Where("updated_at > ?", filter.ModifiedAfter.UTC())
	}

	var rows []gormEntry
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

func (r *gormEntryRepository) Create(ctx context.Context, entry model.Entry) (model.Entry, error) {
	ts := now()
	row := gormEntry{
		ID:        snowflake.NextID(),
		Title:     entry.Title,
		Notes:     emptyToNil(entry.Notes),
		Complete:  entry.Complete,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Entry{}, err
	}
	return row.toModel(), nil
}

func (r *gormEntryRepository) Update(ctx context.Context, id int64, patch model.EntryPatch) (model.Entry, error) {
	var updated gormEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		values := map[string]any{"updated_at": now()}
		if patch.Title != nil {
			values["title"] = *patch.Title
		}
		if patch.Notes != nil {
			values["notes"] = emptyToNil(patch.Notes)
		}
		if patch.Complete != nil {
			values["complete"] = *patch.Complete
		}

		// the deleted guard sits on the write itself, so a concurrent soft
		// delete wins and the patch reports not found
		res := tx.Model(&gormEntry{}).Where("id = ? AND deleted = ?", id, false).Updates(values)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).Take(&updated).Error
	})
	if err != nil {
		return model.Entry{}, notFound(err)
	}
	return updated.toModel(), nil
}

func (r *gormEntryRepository) SoftDelete(ctx context.Context, ids []int64) ([]model.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []gormEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var live []int64
		if err := tx.Model(&gormEntry{}).
			Where("deleted = ? AND id IN ?", false, ids).
			Pluck("id", &live).Error; err != nil {
			return err
		}
		if len(live) == 0 {
			return nil
		}

		if err := tx.Model(&gormEntry{}).
			Where("id IN ?", live).
			Updates(map[string]any{"deleted": true, "updated_at": now()}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", live).Order("id").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

func (r *gormEntryRepository) PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("deleted = ? AND updated_at < ?", true, cutoff.UTC()).
		Delete(&gormEntry{})
	return res.RowsAffected, res.Error
}

// notFound keeps the repository contract driver independent.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sql.ErrNoRows
	}
	return err
}

func toModels(rows []gormEntry) []model.Entry {
	entries := make([]model.Entry, len(rows))
	for i, row := range rows {
		entries[i] = row.toModel()
	}
	return entries
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
