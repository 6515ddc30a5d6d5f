package audit

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonicalize renders e as a stable byte sequence in the field order
// spec'd for signing: timestamp, event_id, action, result, user_id,
// hardware_id, session_id, file_path, file_hash, bytes_transferred,
// duration_ms, error_code, metadata in key-sorted order. The encoding is
// a simple newline-delimited "key=value" form, not meant for wire
// transport, only for producing deterministic bytes to sign and verify.
func Canonicalize(e Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "timestamp=%d\n", e.Timestamp.UTC().UnixNano())
	fmt.Fprintf(&b, "event_id=%s\n", e.EventID)
	fmt.Fprintf(&b, "action=%s\n", e.Action)
	fmt.Fprintf(&b, "result=%s\n", e.Result)
	fmt.Fprintf(&b, "user_id=%s\n", e.UserID)
	fmt.Fprintf(&b, "hardware_id=%s\n", e.HardwareID)
	fmt.Fprintf(&b, "session_id=%s\n", e.SessionID)
	fmt.Fprintf(&b, "file_path=%s\n", e.FilePath)
	fmt.Fprintf(&b, "file_hash=%s\n", e.FileHash)
	fmt.Fprintf(&b, "bytes_transferred=%s\n", strconv.FormatUint(e.BytesTransferred, 10))
	fmt.Fprintf(&b, "duration_ms=%s\n", strconv.FormatUint(e.DurationMillis, 10))
	fmt.Fprintf(&b, "error_code=%s\n", e.ErrorCode)

	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "metadata.%s=%s\n", k, e.Metadata[k])
	}
	return []byte(b.String())
}
