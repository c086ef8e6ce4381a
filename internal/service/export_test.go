package service

import "time"

// SetEntryClock pins the clock used for list timestamps and change times.
func SetEntryClock(svc EntryService, now func() time.Time) {
	svc.(*entryService).now = now
}

// SetPurgeClock pins the clock the retention cutoff is computed from.
func SetPurgeClock(svc PurgeService, now func() time.Time) {
	svc.(*purgeService).now = now
}
