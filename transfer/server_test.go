package transfer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/wire/message"
)

func newTestFileServer(t *testing.T) *FileServer {
	t.Helper()
	root := t.TempDir()
	return NewFileServer(root, cryptosuite.HashSHA3_256, 0, 0)
}

func TestUploadHappyPath(t *testing.T) {
	srv := newTestFileServer(t)
	fileID := uuid.New()

	_, err := srv.HandleFileOpen(fileID, &message.FileOpen{Path: "reports/a.txt", DeclaredSize: 10})
	require.NoError(t, err)

	hasher, err := cryptosuite.NewHash(cryptosuite.HashSHA3_256)
	require.NoError(t, err)
	streaming := hasher.New()

	chunk := []byte("0123456789")
	streaming.Write(chunk)
	var chunkHash [32]byte
	copy(chunkHash[:], streaming.Sum(nil))

	err = srv.HandleFileData(&message.FileData{FileID: fileID, Data: chunk, ChunkHash: chunkHash})
	require.NoError(t, err)

	var finalHash [32]byte
	copy(finalHash[:], streaming.Sum(nil))

	result, err := srv.HandleFileClose(&message.FileClose{FileID: fileID, FinalHash: finalHash})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, uint64(10), result.BytesWritten)
}

func TestFileOpenRejectsOversizedDeclaration(t *testing.T) {
	srv := NewFileServer(t.TempDir(), cryptosuite.HashSHA3_256, 5, 0)
	_, err := srv.HandleFileOpen(uuid.New(), &message.FileOpen{Path: "a.txt", DeclaredSize: 100})
	assert.Error(t, err)
}

func TestFileOpenRejectsPathTraversal(t *testing.T) {
	srv := newTestFileServer(t)
	_, err := srv.HandleFileOpen(uuid.New(), &message.FileOpen{Path: "../../etc/passwd", DeclaredSize: 1})
	assert.Error(t, err)
}

func TestFileOpenRejectsDuplicateFileID(t *testing.T) {
	srv := newTestFileServer(t)
	fileID := uuid.New()
	_, err := srv.HandleFileOpen(fileID, &message.FileOpen{Path: "a.txt", DeclaredSize: 1})
	require.NoError(t, err)
	_, err = srv.HandleFileOpen(fileID, &message.FileOpen{Path: "b.txt", DeclaredSize: 1})
	assert.Error(t, err)
}

func TestFileDataRejectsUnknownFileID(t *testing.T) {
	srv := newTestFileServer(t)
	err := srv.HandleFileData(&message.FileData{FileID: uuid.New(), Data: []byte("x")})
	assert.Error(t, err)
}

func TestFileCloseMismatchDeletesPartialFile(t *testing.T) {
	srv := newTestFileServer(t)
	fileID := uuid.New()

	_, err := srv.HandleFileOpen(fileID, &message.FileOpen{Path: "a.txt", DeclaredSize: 1})
	require.NoError(t, err)

	hasher, err := cryptosuite.NewHash(cryptosuite.HashSHA3_256)
	require.NoError(t, err)
	streaming := hasher.New()
	streaming.Write([]byte("x"))
	var chunkHash [32]byte
	copy(chunkHash[:], streaming.Sum(nil))

	require.NoError(t, srv.HandleFileData(&message.FileData{FileID: fileID, Data: []byte("x"), ChunkHash: chunkHash}))

	var wrongHash [32]byte
	_, err = srv.HandleFileClose(&message.FileClose{FileID: fileID, FinalHash: wrongHash})
	assert.Error(t, err)

	entries, _ := os.ReadDir(filepath.Join(srv.root))
	for _, e := range entries {
		assert.NotEqual(t, "a.txt", e.Name())
	}
}

func TestConcurrentFileSessionCap(t *testing.T) {
	srv := NewFileServer(t.TempDir(), cryptosuite.HashSHA3_256, 0, 1)
	_, err := srv.HandleFileOpen(uuid.New(), &message.FileOpen{Path: "a.txt", DeclaredSize: 1})
	require.NoError(t, err)
	_, err = srv.HandleFileOpen(uuid.New(), &message.FileOpen{Path: "b.txt", DeclaredSize: 1})
	assert.Error(t, err)
}

func TestAbortAllRemovesPartialFiles(t *testing.T) {
	srv := newTestFileServer(t)
	fileID := uuid.New()
	_, err := srv.HandleFileOpen(fileID, &message.FileOpen{Path: "a.txt", DeclaredSize: 1})
	require.NoError(t, err)
	_ = srv.HandleFileData(&message.FileData{FileID: fileID, Data: []byte("x")})

	n := srv.AbortAll()
	assert.Equal(t, 1, n)
	assert.Empty(t, srv.sessions)
}
