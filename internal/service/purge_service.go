package service

import (
	"context"
	"fmt"
	"time"

	"todolist/backend/internal/logger"
	"todolist/backend/internal/metrics"
	"todolist/backend/internal/repository"
)

// PurgeService physically removes entries that have stayed soft-deleted for
// longer than the retention window.
type PurgeService interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type purgeService struct {
	entries   repository.EntryRepository
	retention time.Duration
	now       func() time.Time
}

func NewPurgeService(entries repository.EntryRepository, retention time.Duration) PurgeService {
	return &purgeService{
		entries:   entries,
		retention: retention,
		now:       time.Now,
	}
}

func (s *purgeService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)

	purged, err := s.entries.PurgeDeleted(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge deleted entries: %w", err)
	}

	metrics.RecordEntriesPurged(purged)
	if purged > 0 {
		logger.Info("deleted entries purged", "module", "service", "action", "purge", "resource", "entry", "result", "ok", "count", purged, "cutoff", cutoff.Format(time.RFC3339))
	}
	return purged, nil
}
