package cryptosuite

import (
	"fmt"
	stdhash "hash"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"

	"github.com/iyotee/LSFTP/errs"
)

// DigestSize is the fixed output length of both supported hash choices.
const DigestSize = 32

// Hash abstracts the protocol's general-purpose hash primitive. New returns
// a streaming hash.Hash so the file transfer engine can maintain one
// incremental hasher per open file and snapshot its state per chunk (see
// transfer.Upload and FileServer.HandleFileData).
type Hash interface {
	Algorithm() HashAlgorithm
	Sum(data []byte) [DigestSize]byte
	New() stdhash.Hash
}

// NewHash returns the Hash implementation for algo.
func NewHash(algo HashAlgorithm) (Hash, error) {
	switch algo {
	case HashBLAKE3:
		return blake3Hash{}, nil
	case HashSHA3_256:
		return sha3Hash{}, nil
	default:
		return nil, errs.NewCrypto("unknown_hash", fmt.Sprintf("unknown hash algorithm %q", algo), nil)
	}
}

type blake3Hash struct{}

func (blake3Hash) Algorithm() HashAlgorithm { return HashBLAKE3 }

func (blake3Hash) Sum(data []byte) [DigestSize]byte {
	return blake3.Sum256(data)
}

func (blake3Hash) New() stdhash.Hash {
	return blake3.New(DigestSize, nil)
}

type sha3Hash struct{}

func (sha3Hash) Algorithm() HashAlgorithm { return HashSHA3_256 }

func (sha3Hash) Sum(data []byte) [DigestSize]byte {
	return sha3.Sum256(data)
}

func (sha3Hash) New() stdhash.Hash {
	return sha3.New256()
}
