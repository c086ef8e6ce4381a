package model

import "time"

type Entry struct {
	ID        int64
	Title     string
	Notes     *string
	Complete  bool
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryPatch carries the fields an update touches; nil means unchanged.
// A non-nil empty Notes clears the notes.
type EntryPatch struct {
	Title    *string
	Notes    *string
	Complete *bool
}

func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.Notes == nil && p.Complete == nil
}
