package transfer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyotee/LSFTP/cryptosuite"
	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/wire/message"
)

type recordingSender struct {
	sent []message.Payload
}

func (s *recordingSender) Send(ctx context.Context, payload message.Payload) error {
	s.sent = append(s.sent, payload)
	return nil
}

type flakySender struct {
	failuresLeft int
	sent         []message.Payload
}

func (s *flakySender) Send(ctx context.Context, payload message.Payload) error {
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return errs.NewTransport("transient", "simulated transient failure", nil)
	}
	s.sent = append(s.sent, payload)
	return nil
}

func TestUploadSendsOpenDataCloseInOrder(t *testing.T) {
	hasher, err := cryptosuite.NewHash(cryptosuite.HashBLAKE3)
	require.NoError(t, err)

	sender := &recordingSender{}
	data := bytes.Repeat([]byte{0x42}, 2500)

	result, err := Upload(context.Background(), sender, hasher, "f.bin", uint64(len(data)), 0644, nil, bytes.NewReader(data), nil, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(2500), result.BytesTransferred)
	assert.Equal(t, uint32(3), result.ChunkCount)

	require.Len(t, sender.sent, 5) // open + 3 chunks + close
	assert.Equal(t, message.TypeFileOpen, sender.sent[0].Type())
	assert.Equal(t, message.TypeFileData, sender.sent[1].Type())
	assert.Equal(t, message.TypeFileClose, sender.sent[len(sender.sent)-1].Type())
}

func TestUploadRetriesTransientFailures(t *testing.T) {
	hasher, err := cryptosuite.NewHash(cryptosuite.HashBLAKE3)
	require.NoError(t, err)

	sender := &flakySender{failuresLeft: 2}
	data := []byte("small file")

	_, err = Upload(context.Background(), sender, hasher, "f.txt", uint64(len(data)), 0644, nil, bytes.NewReader(data), nil, 0)
	require.NoError(t, err)
	assert.Len(t, sender.sent, 3) // open + 1 chunk + close
}

func TestUploadGivesUpAfterMaxRetries(t *testing.T) {
	hasher, err := cryptosuite.NewHash(cryptosuite.HashBLAKE3)
	require.NoError(t, err)

	sender := &flakySender{failuresLeft: 999}
	_, err = Upload(context.Background(), sender, hasher, "f.txt", 4, 0644, nil, bytes.NewReader([]byte("data")), nil, 0)
	assert.Error(t, err)
}
