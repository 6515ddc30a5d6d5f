package cryptosuite

// KEMScheme resolves the KEM implementation selected by the suite.
func (s Suite) KEMScheme() (KEM, error) { return NewKEM(s.KEM) }

// SignatureScheme resolves the signature implementation selected by the suite.
func (s Suite) SignatureScheme() (Signer, error) { return NewSigner(s.Signature) }

// AEADCipher resolves the AEAD implementation selected by the suite.
func (s Suite) AEADCipher() (AEAD, error) { return NewAEAD(s.AEAD) }

// HashScheme resolves the hash implementation selected by the suite.
func (s Suite) HashScheme() (Hash, error) { return NewHash(s.Hash) }
