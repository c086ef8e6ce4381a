package model

import "time"

type ChangeAction string

const (
	ChangeCreated ChangeAction = "created"
	ChangeUpdated ChangeAction = "updated"
	ChangeDeleted ChangeAction = "deleted"
)

// Change is published to connected update clients after a write commits.
type Change struct {
	Action  ChangeAction
	Entries []Entry
	At      time.Time
}
