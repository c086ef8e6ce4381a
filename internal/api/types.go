// Package api holds the JSON wire format shared by the HTTP handlers, the
// update channel and the Go client.
//
// Timestamps travel as float unix seconds with microsecond precision; clients
// echo the list timestamp back as the next "modified" filter.
package api

import (
	"math"
	"strconv"
	"time"

	"todolist/backend/internal/model"
)

// Query-string parameter names.
const (
	ParamID       = "id"
	ParamTitle    = "title"
	ParamNotes    = "notes"
	ParamComplete = "complete"
	ParamModified = "modified"
	ParamToken    = "token"
)

// Entry ids are snowflakes wider than a float64 mantissa, so they travel as
// decimal strings.
type Entry struct {
	ID       int64   `json:"id,string"`
	Title    string  `json:"title"`
	Notes    *string `json:"notes"`
	Complete bool    `json:"complete"`
	Deleted  bool    `json:"deleted"`
	Created  float64 `json:"created"`
	Modified float64 `json:"modified"`
}

type EntryList struct {
	Timestamp float64 `json:"timestamp"`
	Entries   []Entry `json:"entries"`
}

// Update is the message pushed over the update channel.
type Update struct {
	Action    string  `json:"action"`
	Entries   []Entry `json:"entries"`
	Timestamp float64 `json:"timestamp"`
}

type Channel struct {
	ClientID string `json:"clientId"`
	Token    string `json:"token"`
}

type Error struct {
	Error string `json:"error"`
}

func FromEntry(e model.Entry) Entry {
	return Entry{
		ID:       e.ID,
		Title:    e.Title,
		Notes:    e.Notes,
		Complete: e.Complete,
		Deleted:  e.Deleted,
		Created:  UnixSeconds(e.CreatedAt),
		Modified: UnixSeconds(e.UpdatedAt),
	}
}

func FromEntries(entries []model.Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = FromEntry(e)
	}
	return out
}

func FromChange(c model.Change) Update {
	return Update{
		Action:    string(c.Action),
		Entries:   FromEntries(c.Entries),
		Timestamp: UnixSeconds(c.At),
	}
}

// FormatIDs renders ids the way Entry.ID travels.
func FormatIDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

// ParseIDs is the inverse of FormatIDs.
func ParseIDs(raw []string) ([]int64, error) {
	out := make([]int64, len(raw))
	for i, s := range raw {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// UnixSeconds converts t to float seconds, truncated to microseconds.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// FromUnixSeconds is the inverse of UnixSeconds.
func FromUnixSeconds(secs float64) time.Time {
	return time.UnixMicro(int64(math.Round(secs * 1e6))).UTC()
}
