package transfer

import (
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/internal/metrics"
	"github.com/iyotee/LSFTP/wire/message"
)

// FileSession is the server-side bookkeeping for one open upload, from
// FileOpen through FileClose. Exactly one FileSession exists per
// (session, file_id) at a time; the server refuses a second concurrent
// FileOpen for the same ID.
type FileSession struct {
	FileID         uuid.UUID
	RemotePath     string
	DeclaredSize   uint64
	ChunksReceived uint32
	BytesWritten   uint64
	StartedAt      time.Time

	hasher   hash.Hash
	sink     *os.File
	tmpPath  string
	finalPath string
}

// FileServer validates and applies inbound file-transfer messages against
// a configured root directory, enforcing the per-session concurrent-file
// cap and the path-traversal guard.
type FileServer struct {
	mu       sync.Mutex
	root     string
	maxSize  uint64
	maxOpen  int
	sessions map[uuid.UUID]*FileSession
	hashAlgo cryptosuite.HashAlgorithm
}

// NewFileServer creates a server rooted at root. maxSize and maxOpen of 0
// select their package defaults.
func NewFileServer(root string, hashAlgo cryptosuite.HashAlgorithm, maxSize uint64, maxOpen int) *FileServer {
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	if maxOpen == 0 {
		maxOpen = DefaultMaxConcurrentFileSessions
	}
	return &FileServer{
		root:     root,
		maxSize:  maxSize,
		maxOpen:  maxOpen,
		sessions: make(map[uuid.UUID]*FileSession),
		hashAlgo: hashAlgo,
	}
}

// resolveUnderRoot guards against path traversal: it joins path onto root,
// resolves symlinks, and rejects any result that escapes the root prefix.
func (s *FileServer) resolveUnderRoot(path string) (string, error) {
	joined := filepath.Join(s.root, path)
	if !strings.HasPrefix(joined, filepath.Clean(s.root)+string(filepath.Separator)) && joined != filepath.Clean(s.root) {
		return "", errs.NewFile("path_escapes_root", "requested path escapes the configured root", nil)
	}

	// Resolve as far as the filesystem allows (the final component may not
	// exist yet for a new upload); reject if the resolved prefix escapes root.
	dir := filepath.Dir(joined)
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if os.IsNotExist(err) {
			resolvedDir = dir
		} else {
			return "", errs.NewFile("path_resolution_failed", "failed to resolve parent directory", err)
		}
	}
	cleanRoot, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		cleanRoot = filepath.Clean(s.root)
	}
	if resolvedDir != cleanRoot && !strings.HasPrefix(resolvedDir, cleanRoot+string(filepath.Separator)) {
		return "", errs.NewFile("path_escapes_root", "requested path escapes the configured root after symlink resolution", nil)
	}
	return joined, nil
}

// HandleFileOpen validates and opens a new FileSession for fileID.
func (s *FileServer) HandleFileOpen(fileID uuid.UUID, open *message.FileOpen) (*FileSession, error) {
	if open.DeclaredSize > s.maxSize {
		return nil, errs.NewFile("declared_size_too_large", "declared file size exceeds the configured maximum", nil)
	}

	finalPath, err := s.resolveUnderRoot(open.Path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[fileID]; exists {
		return nil, errs.NewFile("file_session_exists", "a FileSession for this file_id is already open", nil)
	}
	if len(s.sessions) >= s.maxOpen {
		return nil, errs.NewFile("too_many_open_files", "per-session concurrent file transfer cap reached", nil)
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return nil, errs.NewFile("mkdir_failed", "failed to create destination directory", err)
	}

	hasher, err := cryptosuite.NewHash(s.hashAlgo)
	if err != nil {
		return nil, err
	}

	fs := &FileSession{
		FileID:       fileID,
		RemotePath:   open.Path,
		DeclaredSize: open.DeclaredSize,
		StartedAt:    time.Now(),
		hasher:       hasher.New(),
		tmpPath:      finalPath + ".lsftp-partial",
		finalPath:    finalPath,
	}
	s.sessions[fileID] = fs
	metrics.TransfersStarted.WithLabelValues("upload").Inc()
	metrics.TransfersActive.Inc()
	return fs, nil
}

// HandleFileData writes one chunk to the FileSession identified by
// data.FileID, verifying the reported chunk hash against the running
// streaming hasher.
func (s *FileServer) HandleFileData(data *message.FileData) error {
	s.mu.Lock()
	fs, ok := s.sessions[data.FileID]
	s.mu.Unlock()
	if !ok {
		return errs.NewFile("file_session_not_found", "no open FileSession for this file_id", nil)
	}

	if fs.sink == nil {
		sink, err := os.OpenFile(fs.tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return errs.NewFile("open_sink_failed", "failed to open destination file", err)
		}
		fs.sink = sink
	}

	if _, err := fs.sink.Write(data.Data); err != nil {
		return errs.NewFile("write_failed", "failed to write chunk to destination file", err)
	}
	if _, err := fs.hasher.Write(data.Data); err != nil {
		return errs.NewFile("hash_write_failed", "failed to update streaming hash", err)
	}

	var got [32]byte
	copy(got[:], fs.hasher.Sum(nil))
	if got != data.ChunkHash {
		return errs.NewFile("chunk_hash_mismatch", "chunk failed streaming integrity check", nil)
	}

	fs.ChunksReceived++
	fs.BytesWritten += uint64(len(data.Data))
	metrics.BytesTransferred.WithLabelValues("upload").Add(float64(len(data.Data)))
	return nil
}

// CloseResult reports the outcome of HandleFileClose for the caller's
// audit event.
type CloseResult struct {
	BytesWritten uint64
	Duration     time.Duration
	Success      bool
}

// HandleFileClose finalizes the FileSession for close.FileID: flushes the
// sink, compares the finalized hash against the claimed final_hash, and
// either renames the partial file into place or deletes it.
func (s *FileServer) HandleFileClose(close *message.FileClose) (CloseResult, error) {
	s.mu.Lock()
	fs, ok := s.sessions[close.FileID]
	if ok {
		delete(s.sessions, close.FileID)
	}
	s.mu.Unlock()
	if !ok {
		return CloseResult{}, errs.NewFile("file_session_not_found", "no open FileSession for this file_id", nil)
	}

	result := CloseResult{BytesWritten: fs.BytesWritten, Duration: time.Since(fs.StartedAt)}
	metrics.TransfersActive.Dec()

	if fs.sink != nil {
		if err := fs.sink.Sync(); err != nil {
			metrics.TransfersCompleted.WithLabelValues("upload", "failure").Inc()
			return result, errs.NewFile("flush_failed", "failed to flush destination file", err)
		}
		_ = fs.sink.Close()
	}

	var final [32]byte
	copy(final[:], fs.hasher.Sum(nil))
	if final != close.FinalHash {
		_ = os.Remove(fs.tmpPath)
		metrics.TransfersCompleted.WithLabelValues("upload", "failure").Inc()
		return result, errs.NewFile("final_hash_mismatch", "uploaded file failed final integrity check", nil)
	}

	if err := os.Rename(fs.tmpPath, fs.finalPath); err != nil {
		metrics.TransfersCompleted.WithLabelValues("upload", "failure").Inc()
		return result, errs.NewFile("rename_failed", "failed to move completed file into place", err)
	}
	result.Success = true
	metrics.TransfersCompleted.WithLabelValues("upload", "success").Inc()
	metrics.TransferDuration.WithLabelValues("upload").Observe(result.Duration.Seconds())
	return result, nil
}

// ListDir answers a directory-listing request for path, relative to the
// server's root, rejecting any path that escapes it via resolveUnderRoot.
func (s *FileServer) ListDir(path string) ([]message.DirEntry, error) {
	resolved, err := s.resolveUnderRoot(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, errs.NewFile("listdir_failed", "failed to read directory", err)
	}
	out := make([]message.DirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, message.DirEntry{
			Name:    e.Name(),
			IsDir:   e.IsDir(),
			Size:    uint64(info.Size()),
			ModTime: uint64(info.ModTime().Unix()),
		})
	}
	return out, nil
}

// OpenForRead opens path, relative to the server's root, for a download,
// rejecting any path that escapes it via resolveUnderRoot.
func (s *FileServer) OpenForRead(path string) (*os.File, os.FileInfo, error) {
	resolved, err := s.resolveUnderRoot(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(resolved)
	if err != nil {
		return nil, nil, errs.NewFile("open_failed", "failed to open file for download", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errs.NewFile("stat_failed", "failed to stat file for download", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, errs.NewFile("is_directory", "requested download path is a directory", nil)
	}
	return f, info, nil
}

// HashFile computes the whole-file hash of path, relative to the
// server's root, for a client verify request.
func (s *FileServer) HashFile(path string, hasher cryptosuite.Hash) (uint64, [32]byte, error) {
	f, info, err := s.OpenForRead(path)
	if err != nil {
		return 0, [32]byte{}, err
	}
	defer f.Close()

	h := hasher.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, [32]byte{}, errs.NewFile("hash_read_failed", "failed to read file while hashing", err)
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return uint64(info.Size()), sum, nil
}

// AbortAll deletes every open FileSession's partial file and clears the
// session map, used when an EmergencyStop tears down the connection.
func (s *FileServer) AbortAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.sessions)
	for _, fs := range s.sessions {
		if fs.sink != nil {
			_ = fs.sink.Close()
		}
		_ = os.Remove(fs.tmpPath)
		metrics.TransfersActive.Dec()
		metrics.TransfersCompleted.WithLabelValues("upload", "aborted").Inc()
	}
	s.sessions = make(map[uuid.UUID]*FileSession)
	return n
}
