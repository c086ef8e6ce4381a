package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"todolist/backend/internal/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, logger.ParseLevel(in), "level %q", in)
	}
}

func TestInitWriter_LowercasesLevelAndFilters(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWriter(&buf, slog.LevelWarn)
	t.Cleanup(func() { logger.InitWriter(&bytes.Buffer{}, slog.LevelInfo) })

	logger.Info("hidden", "module", "test")
	logger.Warn("shown", "module", "test")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "level=warn")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "module=test")
}
