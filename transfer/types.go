// Package transfer implements the file transfer engine: the client-side
// chunked upload/download loop and the server-side FileSession lifecycle
// that validates, receives, and finalizes transferred files.
package transfer

import "time"

const (
	// DefaultChunkSize is how much of a file one FileData message carries.
	DefaultChunkSize = 1 << 20 // 1 MiB

	// DefaultMaxFileSize bounds a single file's declared size.
	DefaultMaxFileSize = 100 << 30 // 100 GiB

	// DefaultMaxConcurrentFileSessions caps how many FileSessions a single
	// session may have open at once.
	DefaultMaxConcurrentFileSessions = 100

	// MaxSendRetries is how many times the client retries a single
	// FileData send on a transient failure.
	MaxSendRetries = 3

	// RetryBackoffUnit scales the linear retry backoff:
	// RetryBackoffUnit * retryCount.
	RetryBackoffUnit = 100 * time.Millisecond
)
