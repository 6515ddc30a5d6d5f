package message

// DirEntry describes one entry returned by a directory listing request.
// This message type has no counterpart in the original seven; it answers
// the CLI's `client list PATH` with an explicit record instead of
// overloading FileOpen.
type DirEntry struct {
	Name    string
	IsDir   bool
	Size    uint64
	ModTime uint64
}

// DirList carries either a listing request (Path set, Entries empty) or
// its response (Path echoed, Entries populated).
type DirList struct {
	Path    string
	Entries []DirEntry
}

func (m *DirList) Type() Type { return TypeDirList }

func (m *DirList) Encode() []byte {
	w := &writer{}
	w.str(m.Path)
	w.u32(uint32(len(m.Entries)))
	for _, e := range m.Entries {
		w.str(e.Name)
		if e.IsDir {
			w.u8(1)
		} else {
			w.u8(0)
		}
		w.u64(e.Size)
		w.u64(e.ModTime)
	}
	return w.buf
}

func (m *DirList) Decode(buf []byte) error {
	r := newReader(buf)
	var err error
	if m.Path, err = r.str(); err != nil {
		return err
	}
	n, err := r.u32()
	if err != nil {
		return err
	}
	m.Entries = make([]DirEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := r.str()
		if err != nil {
			return err
		}
		isDir, err := r.u8()
		if err != nil {
			return err
		}
		size, err := r.u64()
		if err != nil {
			return err
		}
		modTime, err := r.u64()
		if err != nil {
			return err
		}
		m.Entries = append(m.Entries, DirEntry{Name: name, IsDir: isDir == 1, Size: size, ModTime: modTime})
	}
	return nil
}
