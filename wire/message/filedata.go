package message

import "github.com/google/uuid"

// FileData carries one chunk of an upload or download. ChunkHash is the
// streaming hasher's state after absorbing this chunk's bytes into the
// cumulative stream, not a hash of the chunk in isolation.
type FileData struct {
	FileID         uuid.UUID
	ChunkIndex     uint32
	Data           []byte
	ChunkHash      [32]byte
	ChunkSignature []byte
}

func (m *FileData) Type() Type { return TypeFileData }

func (m *FileData) Encode() []byte {
	w := &writer{}
	w.buf = append(w.buf, m.FileID[:]...)
	w.u32(m.ChunkIndex)
	w.bytes(m.Data)
	w.buf = append(w.buf, m.ChunkHash[:]...)
	w.bytes(m.ChunkSignature)
	return w.buf
}

func (m *FileData) Decode(buf []byte) error {
	r := newReader(buf)
	id, err := r.fixed(16)
	if err != nil {
		return err
	}
	copy(m.FileID[:], id)
	if m.ChunkIndex, err = r.u32(); err != nil {
		return err
	}
	if m.Data, err = r.bytes(); err != nil {
		return err
	}
	hash, err := r.fixed(32)
	if err != nil {
		return err
	}
	copy(m.ChunkHash[:], hash)
	if m.ChunkSignature, err = r.bytes(); err != nil {
		return err
	}
	return nil
}
