package sinks

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/audit"
)

func TestConsoleWritesOneJSONLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	require.NoError(t, c.Write(audit.Event{
		EventID: "e1", Action: audit.ActionFileTransfer, Result: audit.ResultSuccess,
		Timestamp: time.Unix(1700000000, 0),
	}))
	require.NoError(t, c.Write(audit.Event{
		EventID: "e2", Action: audit.ActionAuthentication, Result: audit.ResultFailure,
		Timestamp: time.Unix(1700000001, 0),
	}))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var decoded eventJSON
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	assert.Equal(t, "e1", decoded.EventID)
	assert.Equal(t, "console", c.Name())
}
