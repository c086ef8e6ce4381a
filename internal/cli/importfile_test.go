package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseImport_Array(t *testing.T) {
	entries, err := ParseImport([]byte(`[
		{"title": "Buy milk", "notes": "2 litres"},
		{"title": "Call mum", "complete": true, "id": "2111059974292508673", "modified": 1700000000.5},
		{"title": "Nothing else", "notes": null}
	]`))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "Buy milk", entries[0].Title)
	require.Equal(t, "2 litres", *entries[0].Notes)
	require.True(t, entries[1].Complete)
	require.Nil(t, entries[2].Notes)
}

func TestParseImport_KeepsDeletedFlag(t *testing.T) {
	entries, err := ParseImport([]byte(`{"entries": [{"title": "gone", "deleted": true, "id": 17}, {"title": "here"}]}`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].Deleted)
	require.False(t, entries[1].Deleted)
}

func TestParseImport_ListResponse(t *testing.T) {
	entries, err := ParseImport([]byte(`{"timestamp": 1700000000.1, "entries": [{"title": "exported"}]}`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "exported", entries[0].Title)
}

func TestParseImport_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"not json":        `[{`,
		"missing title":   `[{"notes": "x"}]`,
		"empty title":     `[{"title": ""}]`,
		"complete string": `[{"title": "a", "complete": "yes"}]`,
		"scalar":          `"hello"`,
		"object no list":  `{"title": "a"}`,
		"deleted string":  `[{"title": "a", "deleted": "no"}]`,
	} {
		_, err := ParseImport([]byte(doc))
		require.Error(t, err, name)
	}
}
