package handler_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"todolist/backend/internal/api"
	"todolist/backend/internal/handler"
	"todolist/backend/internal/model"
	"todolist/backend/internal/repository"
	"todolist/backend/internal/repository/testutil"
	"todolist/backend/internal/service"
)

type changeRecorder struct {
	mu      sync.Mutex
	changes []model.Change
}

func (r *changeRecorder) Publish(change model.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func (r *changeRecorder) actions() []model.ChangeAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ChangeAction, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Action
	}
	return out
}

func newEntryServer(t *testing.T) (*echo.Echo, *changeRecorder) {
	t.Helper()
	e, rec, _ := newEntryServerWithDB(t)
	return e, rec
}

func newEntryServerWithDB(t *testing.T) (*echo.Echo, *changeRecorder, *sql.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	rec := &changeRecorder{}
	svc := service.NewEntryService(repository.NewEntryRepository(db), rec)

	e := echo.New()
	handler.NewEntryHandler(svc).RegisterRoutes(e.Group("/todolist"))
	return e, rec, db
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createEntry(t *testing.T, e *echo.Echo, query string) api.Entry {
	t.Helper()
	rec := do(e, http.MethodPost, "/todolist/entries?"+query)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry api.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	return entry
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) api.EntryList {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list api.EntryList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	return list
}

func TestEntryHandler_Create(t *testing.T) {
	e, changes := newEntryServer(t)

	entry := createEntry(t, e, "title=Buy%20milk;notes=two%20litres;complete=0")
	require.NotZero(t, entry.ID)
	require.Equal(t, "Buy milk", entry.Title)
	require.Equal(t, "two litres", *entry.Notes)
	require.False(t, entry.Complete)
	require.False(t, entry.Deleted)
	require.Equal(t, entry.Created, entry.Modified)

	require.Equal(t, []model.ChangeAction{model.ChangeCreated}, changes.actions())
}

func TestEntryHandler_Create_FormBody(t *testing.T) {
	e, _ := newEntryServer(t)

	req := httptest.NewRequest(http.MethodPost, "/todolist/entries", strings.NewReader("title=From+form&complete=true"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry api.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	require.Equal(t, "From form", entry.Title)
	require.True(t, entry.Complete)
	require.Nil(t, entry.Notes)
}

func TestEntryHandler_Create_BadRequests(t *testing.T) {
	e, changes := newEntryServer(t)

	for _, query := range []string{
		"",
		"notes=no+title",
		"title=",
		"title=%3Cb%3E%3C%2Fb%3E",
		"title=x;priority=high",
		"title=x;complete=maybe",
		"title=%zz",
	} {
		rec := do(e, http.MethodPost, "/todolist/entries?"+query)
		require.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)

		var body api.Error
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body.Error)
	}
	require.Empty(t, changes.actions())
}

func TestEntryHandler_GetByID(t *testing.T) {
	e, _ := newEntryServer(t)
	entry := createEntry(t, e, "title=Read")

	rec := do(e, http.MethodGet, fmt.Sprintf("/todolist/entries/%d", entry.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var got api.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, entry, got)

	require.Equal(t, http.StatusGone, do(e, http.MethodGet, "/todolist/entries/12345").Code)
	require.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/todolist/entries/abc").Code)
	require.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, fmt.Sprintf("/todolist/entries/%d?x=1", entry.ID)).Code)
}

func TestEntryHandler_List_IDFilter(t *testing.T) {
	e, _ := newEntryServer(t)
	a := createEntry(t, e, "title=a")
	createEntry(t, e, "title=b")
	c := createEntry(t, e, "title=c")

	list := decodeList(t, do(e, http.MethodGet, fmt.Sprintf("/todolist/entries?id=%d+%d", a.ID, c.ID)))
	require.Len(t, list.Entries, 2)
	require.Equal(t, a.ID, list.Entries[0].ID)
	require.Equal(t, c.ID, list.Entries[1].ID)
	require.NotZero(t, list.Timestamp)

	all := decodeList(t, do(e, http.MethodGet, "/todolist/entries"))
	require.Len(t, all.Entries, 3)

	require.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/todolist/entries?id=one").Code)
	require.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/todolist/entries?title=a").Code)
	require.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/todolist/entries?modified=yesterday").Code)
}

func TestEntryHandler_List_Delta(t *testing.T) {
	e, _ := newEntryServer(t)
	keep := createEntry(t, e, "title=keep")
	drop := createEntry(t, e, "title=drop")

	first := decodeList(t, do(e, http.MethodGet, "/todolist/entries"))
	require.Len(t, first.Entries, 2)

	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, fmt.Sprintf("/todolist/entries/%d", drop.ID)).Code)

	delta := decodeList(t, do(e, http.MethodGet, fmt.Sprintf("/todolist/entries?modified=%f", first.Timestamp)))
	require.Len(t, delta.Entries, 1)
	require.Equal(t, drop.ID, delta.Entries[0].ID)
	require.True(t, delta.Entries[0].Deleted)
	require.GreaterOrEqual(t, delta.Timestamp, first.Timestamp)

	live := decodeList(t, do(e, http.MethodGet, "/todolist/entries"))
	require.Len(t, live.Entries, 1)
	require.Equal(t, keep.ID, live.Entries[0].ID)
}

func TestEntryHandler_Update(t *testing.T) {
	e, changes, db := newEntryServerWithDB(t)
	entry := createEntry(t, e, "title=Draft;notes=keep+me")

	_, err := db.Exec(`UPDATE entries SET updated_at = ? WHERE id = ?`, "2020-01-01T00:00:00.000000Z", entry.ID)
	require.NoError(t, err)
	stale := api.UnixSeconds(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	rec := do(e, http.MethodPut, fmt.Sprintf("/todolist/entries/%d?complete=1", entry.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated api.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "Draft", updated.Title)
	require.Equal(t, "keep me", *updated.Notes)
	require.True(t, updated.Complete)
	require.Equal(t, entry.Created, updated.Created)
	require.Greater(t, updated.Modified, stale)
	require.GreaterOrEqual(t, updated.Modified, entry.Modified)

	rec = do(e, http.MethodPut, fmt.Sprintf("/todolist/entries/%d?notes=", entry.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Nil(t, updated.Notes)

	require.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, fmt.Sprintf("/todolist/entries/%d", entry.ID)).Code)
	require.Equal(t, http.StatusBadRequest, do(e, http.MethodPut, fmt.Sprintf("/todolist/entries/%d?done=1", entry.ID)).Code)
	require.Equal(t, http.StatusGone, do(e, http.MethodPut, "/todolist/entries/99?title=x").Code)

	require.Equal(t, []model.ChangeAction{model.ChangeCreated, model.ChangeUpdated, model.ChangeUpdated}, changes.actions())
}

func TestEntryHandler_Delete(t *testing.T) {
	e, changes := newEntryServer(t)
	entry := createEntry(t, e, "title=Gone+soon")
	target := fmt.Sprintf("/todolist/entries/%d", entry.ID)

	rec := do(e, http.MethodDelete, target)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, target).Code)
	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/todolist/entries/424242").Code)
	require.Equal(t, http.StatusGone, do(e, http.MethodGet, target).Code)
	require.Equal(t, http.StatusGone, do(e, http.MethodPut, target+"?title=back").Code)

	require.Equal(t, []model.ChangeAction{model.ChangeCreated, model.ChangeDeleted}, changes.actions())
}

func TestEntryHandler_DeleteMany(t *testing.T) {
	e, _ := newEntryServer(t)
	a := createEntry(t, e, "title=a")
	b := createEntry(t, e, "title=b")

	require.Equal(t, http.StatusOK, do(e, http.MethodDelete, fmt.Sprintf("/todolist/entries/%d", b.ID)).Code)

	rec := do(e, http.MethodDelete, fmt.Sprintf("/todolist/entries?id=%d+%d+77", a.ID, b.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ids))
	require.Equal(t, []string{strconv.FormatInt(a.ID, 10)}, ids)

	require.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/todolist/entries").Code)
	require.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/todolist/entries?id=").Code)
}

func TestEntryHandler_LegacyPaths(t *testing.T) {
	e, _ := newEntryServer(t)

	rec := do(e, http.MethodPost, "/todolist/api/entrylist?title=Old+client")
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry api.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))

	rec = do(e, http.MethodGet, fmt.Sprintf("/todolist/api/entry/%d", entry.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeList(t, do(e, http.MethodGet, "/todolist/api/entrylist"))
	require.Len(t, list.Entries, 1)
}

func TestEntryHandler_IDsSurviveLooseJSONDecoders(t *testing.T) {
	e, _ := newEntryServer(t)
	titles := map[string]bool{}
	for i := 0; i < 20; i++ {
		title := fmt.Sprintf("entry-%d", i)
		titles[title] = true
		createEntry(t, e, "title="+title)
	}

	rec := do(e, http.MethodGet, "/todolist/entries")
	require.Equal(t, http.StatusOK, rec.Code)

	var loose struct {
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loose))
	require.Len(t, loose.Entries, 20)

	for _, raw := range loose.Entries {
		id, ok := raw["id"].(string)
		require.True(t, ok, "id should be a JSON string, got %T", raw["id"])

		got := do(e, http.MethodGet, "/todolist/entries/"+id)
		require.Equal(t, http.StatusOK, got.Code)
		var entry api.Entry
		require.NoError(t, json.Unmarshal(got.Body.Bytes(), &entry))
		require.Equal(t, raw["title"], entry.Title)
		require.Equal(t, id, strconv.FormatInt(entry.ID, 10))
	}
}
