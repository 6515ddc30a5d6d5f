package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, WarnLevel)

	logger.Info("ignored", String("k", "v"))
	assert.Empty(t, buf.String())

	logger.Warn("kept", Int("n", 1))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "kept", line["msg"])
}

func TestWithMergesFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, DebugLevel)
	child := base.With(String("session", "abc"))

	child.Info("hello", Int("n", 7))

	var line struct {
		Fields map[string]interface{} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "abc", line.Fields["session"])
	assert.EqualValues(t, 7, line.Fields["n"])
}

func TestNopDiscardsEverything(t *testing.T) {
	logger := Nop()
	logger.Error("should not panic")
}
