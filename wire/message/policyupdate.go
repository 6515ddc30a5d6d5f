package message

// PolicyKind distinguishes an ordinary policy replacement from the rekey
// marker the session layer emits at a key-rotation boundary.
type PolicyKind uint8

const (
	PolicyKindRules PolicyKind = iota
	PolicyKindRekeyMarker
)

// PolicyRule is one named, opaque rule entry; interpretation belongs to
// the policy store, not the wire format.
type PolicyRule struct {
	Name  string
	Value string
}

// PolicyUpdate either replaces the active policy (Kind ==
// PolicyKindRules) prospectively for new FileSessions, or announces a key
// generation boundary (Kind == PolicyKindRekeyMarker), in which case only
// KeyGeneration and EffectiveAt are meaningful.
type PolicyUpdate struct {
	Kind          PolicyKind
	PolicyID      string
	Version       uint32
	Rules         []PolicyRule
	EffectiveAt   uint64
	KeyGeneration uint64
}

func (m *PolicyUpdate) Type() Type { return TypePolicyUpdate }

func (m *PolicyUpdate) Encode() []byte {
	w := &writer{}
	w.u8(uint8(m.Kind))
	w.str(m.PolicyID)
	w.u32(m.Version)
	w.u32(uint32(len(m.Rules)))
	for _, r := range m.Rules {
		w.str(r.Name)
		w.str(r.Value)
	}
	w.u64(m.EffectiveAt)
	w.u64(m.KeyGeneration)
	return w.buf
}

func (m *PolicyUpdate) Decode(buf []byte) error {
	r := newReader(buf)
	kind, err := r.u8()
	if err != nil {
		return err
	}
	m.Kind = PolicyKind(kind)
	if m.PolicyID, err = r.str(); err != nil {
		return err
	}
	if m.Version, err = r.u32(); err != nil {
		return err
	}
	n, err := r.u32()
	if err != nil {
		return err
	}
	m.Rules = nil
	if n > 0 {
		m.Rules = make([]PolicyRule, 0, n)
	}
	for i := uint32(0); i < n; i++ {
		name, err := r.str()
		if err != nil {
			return err
		}
		value, err := r.str()
		if err != nil {
			return err
		}
		m.Rules = append(m.Rules, PolicyRule{Name: name, Value: value})
	}
	if m.EffectiveAt, err = r.u64(); err != nil {
		return err
	}
	if m.KeyGeneration, err = r.u64(); err != nil {
		return err
	}
	return nil
}
