package message

import (
	"github.com/iyotee/LSFTP/cryptosuite"
)

// Handshake carries the client's or server's half of the 4-flight key
// exchange described by the session layer. Fields not applicable to a
// given flight (e.g. a client message's ChosenSuite) are left zero.
type Handshake struct {
	Random              [32]byte
	OfferedSuites       []cryptosuite.Suite
	ChosenSuite         cryptosuite.Suite
	HasChosenSuite      bool
	HardwareAttestation []byte
	CertChain           [][]byte
	KeyExchangePublic   []byte
	SignedTranscript    []byte
}

func (h *Handshake) Type() Type { return TypeHandshake }

func (h *Handshake) Encode() []byte {
	w := &writer{}
	w.buf = append(w.buf, h.Random[:]...)

	w.u32(uint32(len(h.OfferedSuites)))
	for _, s := range h.OfferedSuites {
		writeSuite(w, s)
	}

	if h.HasChosenSuite {
		w.u8(1)
		writeSuite(w, h.ChosenSuite)
	} else {
		w.u8(0)
	}

	w.bytes(h.HardwareAttestation)

	w.u32(uint32(len(h.CertChain)))
	for _, c := range h.CertChain {
		w.bytes(c)
	}

	w.bytes(h.KeyExchangePublic)
	w.bytes(h.SignedTranscript)
	return w.buf
}

func (h *Handshake) Decode(buf []byte) error {
	r := newReader(buf)
	random, err := r.fixed(32)
	if err != nil {
		return err
	}
	copy(h.Random[:], random)

	n, err := r.u32()
	if err != nil {
		return err
	}
	h.OfferedSuites = make([]cryptosuite.Suite, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := readSuite(r)
		if err != nil {
			return err
		}
		h.OfferedSuites = append(h.OfferedSuites, s)
	}

	hasChosen, err := r.u8()
	if err != nil {
		return err
	}
	if hasChosen == 1 {
		s, err := readSuite(r)
		if err != nil {
			return err
		}
		h.ChosenSuite = s
		h.HasChosenSuite = true
	}

	if h.HardwareAttestation, err = r.bytes(); err != nil {
		return err
	}

	certCount, err := r.u32()
	if err != nil {
		return err
	}
	h.CertChain = make([][]byte, 0, certCount)
	for i := uint32(0); i < certCount; i++ {
		c, err := r.bytes()
		if err != nil {
			return err
		}
		h.CertChain = append(h.CertChain, c)
	}

	if h.KeyExchangePublic, err = r.bytes(); err != nil {
		return err
	}
	if h.SignedTranscript, err = r.bytes(); err != nil {
		return err
	}
	return nil
}

func writeSuite(w *writer, s cryptosuite.Suite) {
	w.u8(uint8(s.Version))
	w.str(string(s.KEM))
	w.str(string(s.Signature))
	w.str(string(s.AEAD))
	w.str(string(s.Hash))
}

func readSuite(r *reader) (cryptosuite.Suite, error) {
	var s cryptosuite.Suite
	version, err := r.u8()
	if err != nil {
		return s, err
	}
	s.Version = version

	kem, err := r.str()
	if err != nil {
		return s, err
	}
	sig, err := r.str()
	if err != nil {
		return s, err
	}
	aead, err := r.str()
	if err != nil {
		return s, err
	}
	hash, err := r.str()
	if err != nil {
		return s, err
	}
	s.KEM = cryptosuite.KEMAlgorithm(kem)
	s.Signature = cryptosuite.SignatureAlgorithm(sig)
	s.AEAD = cryptosuite.AEADAlgorithm(aead)
	s.Hash = cryptosuite.HashAlgorithm(hash)
	return s, nil
}
