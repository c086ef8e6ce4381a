package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todolist/backend/internal/logger"
	"todolist/backend/internal/metrics"
	"todolist/backend/internal/model"
	"todolist/backend/internal/repository"
)

type EntryListParams struct {
	IDs []int64
	// ModifiedSince switches the listing to delta mode: entries changed
	// strictly after it, deleted ones included.
	ModifiedSince *time.Time
}

type EntryListResult struct {
	// Timestamp trails every write still in flight when the list started,
	// so echoing it back as ModifiedSince may repeat an entry but never
	// skips one.
	Timestamp time.Time
	Entries   []model.Entry
}

type EntryInput struct {
	Title    string
	Notes    *string
	Complete bool
}

type EntryService interface {
	List(ctx context.Context, params EntryListParams) (EntryListResult, error)
	GetByID(ctx context.Context, id int64) (model.Entry, error)
	Create(ctx context.Context, input EntryInput) (model.Entry, error)
	Update(ctx context.Context, id int64, patch model.EntryPatch) (model.Entry, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) ([]int64, error)
}

type entryService struct {
	entries  repository.EntryRepository
	notifier Notifier
	writes   *writeHorizon
	now      func() time.Time
}

// NewEntryService wires the entry store to a change notifier. A nil
// notifier discards changes.
func NewEntryService(entries repository.EntryRepository, notifier Notifier) EntryService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &entryService{
		entries:  entries,
		notifier: notifier,
		writes:   newWriteHorizon(),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *entryService) List(ctx context.Context, params EntryListParams) (EntryListResult, error) {
	timestamp := s.writes.cursor(s.now)

	filter := repository.EntryListFilter{IDs: params.IDs}
	if params.ModifiedSince != nil {
		since := params.ModifiedSince.UTC()
		filter.ModifiedAfter = &since
		filter.IncludeDeleted = true
	}

	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return EntryListResult{}, fmt.Errorf("list entries: %w", err)
	}
	return EntryListResult{Timestamp: timestamp, Entries: entries}, nil
}

func (s *entryService) GetByID(ctx context.Context, id int64) (model.Entry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return model.Entry{}, translate(err, "get entry")
	}
	if entry.Deleted {
		return model.Entry{}, ErrGone
	}
	return entry, nil
}

func (s *entryService) Create(ctx context.Context, input EntryInput) (model.Entry, error) {
	title, err := sanitizeTitle(input.Title)
	if err != nil {
		return model.Entry{}, err
	}

	done := s.writes.begin(s.now)
	defer done()

	entry, err := s.entries.Create(ctx, model.Entry{
		Title:    title,
		Notes:    sanitizeNotes(input.Notes),
		Complete: input.Complete,
	})
	if err != nil {
		return model.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	metrics.RecordEntryOperation("create")
	s.publish(model.ChangeCreated, entry)
	logger.Debug("entry created", "module", "service", "action", "create", "resource", "entry", "result", "ok", "entry_id", entry.ID)
	return entry, nil
}

func (s *entryService) Update(ctx context.Context, id int64, patch model.EntryPatch) (model.Entry, error) {
	if patch.IsEmpty() {
		return model.Entry{}, fmt.Errorf("%w: nothing to update", ErrInvalid)
	}
	if patch.Title != nil {
		title, err := sanitizeTitle(*patch.Title)
		if err != nil {
			return model.Entry{}, err
		}
		patch.Title = &title
	}
	if patch.Notes != nil {
		notes := sanitizeText(*patch.Notes)
		patch.Notes = &notes
	}

	done := s.writes.begin(s.now)
	defer done()

	entry, err := s.entries.Update(ctx, id, patch)
	if err != nil {
		return model.Entry{}, translate(err, "update entry")
	}

	metrics.RecordEntryOperation("update")
	s.publish(model.ChangeUpdated, entry)
	logger.Debug("entry updated", "module", "service", "action", "update", "resource", "entry", "result", "ok", "entry_id", id)
	return entry, nil
}

// Delete is idempotent: deleting a missing or already deleted entry succeeds
// without publishing anything.
func (s *entryService) Delete(ctx context.Context, id int64) error {
	_, err := s.delete(ctx, []int64{id})
	return err
}

func (s *entryService) DeleteMany(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: id is required", ErrInvalid)
	}
	return s.delete(ctx, ids)
}

func (s *entryService) delete(ctx context.Context, ids []int64) ([]int64, error) {
	done := s.writes.begin(s.now)
	defer done()

	deleted, err := s.entries.SoftDelete(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("delete entries: %w", err)
	}

	marked := make([]int64, len(deleted))
	for i, entry := range deleted {
		marked[i] = entry.ID
	}
	if len(deleted) == 0 {
		return marked, nil
	}

	metrics.RecordEntryOperation("delete")
	s.publish(model.ChangeDeleted, deleted...)
	logger.Debug("entries deleted", "module", "service", "action", "delete", "resource", "entry", "result", "ok", "count", len(deleted))
	return marked, nil
}

func (s *entryService) publish(action model.ChangeAction, entries ...model.Entry) {
	s.notifier.Publish(model.Change{Action: action, Entries: entries, At: s.now()})
}

func sanitizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	clean := sanitizeText(*notes)
	if clean == "" {
		return nil
	}
	return &clean
}

func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrGone
	}
	return fmt.Errorf("%s: %w", op, err)
}
