package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLoggerTo(&buf, "debug")
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "two")
	log.Warn(ctx, "wrn", "err", errors.New("boom"))
	log.Error(ctx, "err", "odd")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, float64(1), lines[0]["a"])
	assert.Equal(t, "two", lines[1]["b"])
	assert.Equal(t, "boom", lines[2]["err"])
	assert.Equal(t, "odd", lines[3]["!BADKEY"])
	assert.Equal(t, "err", lines[3]["message"])
}

func TestZerologLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLoggerTo(&buf, "warn")

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLoggerTo(&buf, "info").With("module", "settlement")

	log.Info(context.Background(), "tick", "batch", 3)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "settlement", lines[0]["module"])
	assert.Equal(t, float64(3), lines[0]["batch"])
}
