package message

import "github.com/google/uuid"

// TransferStatistics summarizes a completed upload or download for the
// FileClose record and the resulting audit event.
type TransferStatistics struct {
	BytesTransferred uint64
	DurationMillis   uint64
	ChunkCount       uint32
}

// FileClose finalizes a FileSession: the sender's claim about the whole
// file's hash and a global signature over the transfer.
type FileClose struct {
	FileID          uuid.UUID
	FinalHash       [32]byte
	GlobalSignature []byte
	Statistics      TransferStatistics
}

func (m *FileClose) Type() Type { return TypeFileClose }

func (m *FileClose) Encode() []byte {
	w := &writer{}
	w.buf = append(w.buf, m.FileID[:]...)
	w.buf = append(w.buf, m.FinalHash[:]...)
	w.bytes(m.GlobalSignature)
	w.u64(m.Statistics.BytesTransferred)
	w.u64(m.Statistics.DurationMillis)
	w.u32(m.Statistics.ChunkCount)
	return w.buf
}

func (m *FileClose) Decode(buf []byte) error {
	r := newReader(buf)
	id, err := r.fixed(16)
	if err != nil {
		return err
	}
	copy(m.FileID[:], id)
	hash, err := r.fixed(32)
	if err != nil {
		return err
	}
	copy(m.FinalHash[:], hash)
	if m.GlobalSignature, err = r.bytes(); err != nil {
		return err
	}
	if m.Statistics.BytesTransferred, err = r.u64(); err != nil {
		return err
	}
	if m.Statistics.DurationMillis, err = r.u64(); err != nil {
		return err
	}
	if m.Statistics.ChunkCount, err = r.u32(); err != nil {
		return err
	}
	return nil
}
