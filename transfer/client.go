package transfer

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/internal/metrics"
	"github.com/iyotee/LSFTP/wire/message"
)

// FrameSender is the minimal transport capability the transfer engine
// needs: hand a typed payload to the session/wire layers for delivery.
// Concrete wiring (frame tagging, stream selection) lives outside this
// package; the engine only needs to know a send either succeeds or fails.
type FrameSender interface {
	Send(ctx context.Context, payload message.Payload) error
}

// Signer signs a transfer's final hash for the FileClose record. Callers
// typically pass a closure bound to the session's hybrid signer and
// private key.
type Signer func(message []byte) ([]byte, error)

// UploadResult summarizes a finished upload for the caller's audit event.
type UploadResult struct {
	FileID           uuid.UUID
	BytesTransferred uint64
	ChunkCount       uint32
	Duration         time.Duration
}

// Upload reads r in DefaultChunkSize chunks, sending FileOpen, one FileData
// per chunk, and a final FileClose, computing a streaming hash across the
// whole file so corruption is detected at chunk granularity rather than
// only at the end. chunkSize of 0 selects DefaultChunkSize.
func Upload(ctx context.Context, sender FrameSender, hasher cryptosuite.Hash, remotePath string, size uint64, permissions uint32, metadata map[string]string, r io.Reader, sign Signer, chunkSize int) (result *UploadResult, err error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	fileID := uuid.New()
	start := time.Now()

	metrics.TransfersStarted.WithLabelValues("upload").Inc()
	metrics.TransfersActive.Inc()
	defer func() {
		metrics.TransfersActive.Dec()
		if err != nil {
			metrics.TransfersCompleted.WithLabelValues("upload", "failure").Inc()
			return
		}
		metrics.TransfersCompleted.WithLabelValues("upload", "success").Inc()
		metrics.TransferDuration.WithLabelValues("upload").Observe(time.Since(start).Seconds())
	}()

	if err := sendWithRetry(ctx, sender, &message.FileOpen{
		Path:         remotePath,
		DeclaredSize: size,
		Permissions:  permissions,
		Metadata:     metadata,
	}); err != nil {
		return nil, err
	}

	streaming := hasher.New()
	buf := make([]byte, chunkSize)
	var chunkIndex uint32
	var bytesSent uint64

	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			chunk := buf[:n]
			if _, err := streaming.Write(chunk); err != nil {
				return nil, errs.NewFile("hash_write_failed", "failed to update streaming hash", err)
			}
			var chunkHash [32]byte
			copy(chunkHash[:], streaming.Sum(nil))

			data := &message.FileData{
				FileID:     fileID,
				ChunkIndex: chunkIndex,
				Data:       chunk,
				ChunkHash:  chunkHash,
			}
			if sign != nil {
				sig, err := sign(chunk)
				if err != nil {
					return nil, err
				}
				data.ChunkSignature = sig
			}
			if err := sendWithRetry(ctx, sender, data); err != nil {
				return nil, err
			}

			bytesSent += uint64(n)
			metrics.BytesTransferred.WithLabelValues("upload").Add(float64(n))
			chunkIndex++
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, errs.NewFile("read_failed", "failed to read local file", readErr)
		}
	}

	var finalHash [32]byte
	copy(finalHash[:], streaming.Sum(nil))

	stats := message.TransferStatistics{
		BytesTransferred: bytesSent,
		DurationMillis:   uint64(time.Since(start).Milliseconds()),
		ChunkCount:       chunkIndex,
	}

	closeMsg := &message.FileClose{FileID: fileID, FinalHash: finalHash, Statistics: stats}
	if sign != nil {
		sig, err := sign(finalHash[:])
		if err != nil {
			return nil, err
		}
		closeMsg.GlobalSignature = sig
	}
	if err := sendWithRetry(ctx, sender, closeMsg); err != nil {
		return nil, err
	}

	return &UploadResult{FileID: fileID, BytesTransferred: bytesSent, ChunkCount: chunkIndex, Duration: time.Since(start)}, nil
}

// sendWithRetry retries a transient send failure up to MaxSendRetries
// times with linear backoff (RetryBackoffUnit * retryCount).
func sendWithRetry(ctx context.Context, sender FrameSender, payload message.Payload) error {
	var lastErr error
	for attempt := 0; attempt <= MaxSendRetries; attempt++ {
		if attempt > 0 {
			metrics.ChunkRetries.Inc()
			select {
			case <-time.After(RetryBackoffUnit * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := sender.Send(ctx, payload); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return errs.NewTransport("send_retries_exhausted", "failed to send frame after retries", lastErr)
}

// DownloadSink receives verified chunks during a download; the caller
// supplies the concrete file writer.
type DownloadSink interface {
	Write(chunk []byte) error
}

// ApplyDownloadChunk verifies an inbound FileData's chunk_hash against the
// caller's running hasher before writing it, aborting with a file-
// integrity error on mismatch.
func ApplyDownloadChunk(running interface {
	Write([]byte) (int, error)
	Sum([]byte) []byte
}, sink DownloadSink, data *message.FileData) error {
	if _, err := running.Write(data.Data); err != nil {
		return errs.NewFile("hash_write_failed", "failed to update streaming hash", err)
	}
	var got [32]byte
	copy(got[:], running.Sum(nil))
	if got != data.ChunkHash {
		return errs.NewFile("chunk_hash_mismatch", "downloaded chunk failed integrity check", nil)
	}
	return sink.Write(data.Data)
}

// VerifyFinalHash checks a FileClose's claimed final hash against the
// download's running hasher state.
func VerifyFinalHash(running interface{ Sum([]byte) []byte }, close *message.FileClose) error {
	var got [32]byte
	copy(got[:], running.Sum(nil))
	if got != close.FinalHash {
		return errs.NewFile("final_hash_mismatch", "downloaded file failed final integrity check", nil)
	}
	return nil
}
