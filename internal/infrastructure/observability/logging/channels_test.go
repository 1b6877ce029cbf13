package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelAttributeAndLevels(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.Writer = &buf
	cfg.ChannelLevels[ChannelPreview] = slog.LevelDebug

	logger, err := NewChanneledLogger(cfg)
	require.NoError(t, err)

	logger.Catalog().Debug("hidden")
	logger.Preview().Debug("shown", "vendorId", "v1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "preview", entry["channel"])
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "v1", entry["vendorId"])
}

func TestSetChannelLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig()
	cfg.Writer = &buf
	logger, err := NewChanneledLogger(cfg)
	require.NoError(t, err)

	require.NoError(t, logger.SetChannelLevel(ChannelCache, slog.LevelDebug))
	buf.Reset()
	logger.Cache().Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.Equal(t, "DEBUG", logger.GetChannelLevels()["cache"])

	assert.Error(t, logger.SetChannelLevel(Channel("nope"), slog.LevelDebug))
}

func TestMaskIDAndParseLevel(t *testing.T) {
	assert.Equal(t, "********", MaskID("short"))
	assert.Equal(t, "abcd****6789", MaskID("abcdef0123456789"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
