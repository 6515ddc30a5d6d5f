package message

// FileOpen requests creation of a server-side FileSession for an upload,
// or is echoed by the server when beginning a download.
type FileOpen struct {
	Path         string
	DeclaredSize uint64
	DeclaredHash [32]byte
	Permissions  uint32
	Metadata     map[string]string
}

func (m *FileOpen) Type() Type { return TypeFileOpen }

func (m *FileOpen) Encode() []byte {
	w := &writer{}
	w.str(m.Path)
	w.u64(m.DeclaredSize)
	w.buf = append(w.buf, m.DeclaredHash[:]...)
	w.u32(m.Permissions)
	writeMetadata(w, m.Metadata)
	return w.buf
}

func (m *FileOpen) Decode(buf []byte) error {
	r := newReader(buf)
	var err error
	if m.Path, err = r.str(); err != nil {
		return err
	}
	if m.DeclaredSize, err = r.u64(); err != nil {
		return err
	}
	hash, err := r.fixed(32)
	if err != nil {
		return err
	}
	copy(m.DeclaredHash[:], hash)
	if m.Permissions, err = r.u32(); err != nil {
		return err
	}
	if m.Metadata, err = readMetadata(r); err != nil {
		return err
	}
	return nil
}

func writeMetadata(w *writer, md map[string]string) {
	w.u32(uint32(len(md)))
	for k, v := range md {
		w.str(k)
		w.str(v)
	}
}

func readMetadata(r *reader) (map[string]string, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	md := make(map[string]string, n)
	for i := uint32(0); i < n; i++ {
		k, err := r.str()
		if err != nil {
			return nil, err
		}
		v, err := r.str()
		if err != nil {
			return nil, err
		}
		md[k] = v
	}
	return md, nil
}
