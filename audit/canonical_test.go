package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeIsDeterministicRegardlessOfMetadataInsertionOrder(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	e1 := Event{
		Timestamp: ts, EventID: "e1", Action: ActionFileTransfer, Result: ResultSuccess,
		Metadata: map[string]string{"b": "2", "a": "1"},
	}
	e2 := Event{
		Timestamp: ts, EventID: "e1", Action: ActionFileTransfer, Result: ResultSuccess,
		Metadata: map[string]string{"a": "1", "b": "2"},
	}
	assert.Equal(t, Canonicalize(e1), Canonicalize(e2))
}

func TestCanonicalizeChangesWithFieldValue(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	base := Event{Timestamp: ts, EventID: "e1", Action: ActionFileTransfer, Result: ResultSuccess}
	changed := base
	changed.Result = ResultFailure
	assert.NotEqual(t, Canonicalize(base), Canonicalize(changed))
}
