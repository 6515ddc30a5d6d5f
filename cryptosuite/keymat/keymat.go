// Package keymat implements a zeroizing, memory-locked private-key
// container: private key bytes are pinned against swap, owned by exactly
// one container, and overwritten with zeros before the page is unlocked
// and released. Containers are moved, never copied — callers that need a
// copy must say so explicitly via Clone.
package keymat

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/iyotee/LSFTP/errs"
)

// Algorithm names the key's intended use; it is opaque to this package and
// simply carried alongside the bytes for audit and lifecycle bookkeeping.
type Algorithm string

// PrivateKey owns a byte slice holding key material pinned in
// non-swappable memory. Destroy must be called exactly once, typically via
// defer immediately after construction, to zero and unlock the backing
// page. A PrivateKey whose Destroy has run can no longer be used; every
// accessor returns an error instead of stale or zeroed bytes.
type PrivateKey struct {
	mu        sync.Mutex
	algorithm Algorithm
	secret    []byte
	createdAt time.Time
	locked    bool
	destroyed bool
}

// New pins secret in memory and takes ownership of the slice: callers must
// not retain or mutate it afterwards. On platforms where mlock is
// unavailable, New returns a Config error rather than silently leaving the
// key pageable.
func New(algorithm Algorithm, secret []byte) (*PrivateKey, error) {
	if len(secret) == 0 {
		return nil, errs.NewInvalidInput("empty_secret", "private key secret must not be empty", nil)
	}
	if err := unix.Mlock(secret); err != nil {
		return nil, errs.NewConfig("mlock_unavailable",
			"failed to lock private key memory; this platform or process does not permit mlock", err)
	}
	return &PrivateKey{
		algorithm: algorithm,
		secret:    secret,
		createdAt: time.Now(),
		locked:    true,
	}, nil
}

// Algorithm returns the key's declared algorithm.
func (k *PrivateKey) Algorithm() Algorithm { return k.algorithm }

// CreatedAt returns the construction time.
func (k *PrivateKey) CreatedAt() time.Time { return k.createdAt }

// Use invokes fn with the secret bytes under the container's lock, so a
// concurrent Destroy cannot race a read. fn must not retain the slice
// beyond the call.
func (k *PrivateKey) Use(fn func(secret []byte) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return errs.NewInternal("key_destroyed", "attempted to use a destroyed private key", nil)
	}
	return fn(k.secret)
}

// Clone produces an independent, separately memory-locked copy. Use
// sparingly: it doubles the pinned-memory footprint for the key's lifetime.
func (k *PrivateKey) Clone() (*PrivateKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return nil, errs.NewInternal("key_destroyed", "attempted to clone a destroyed private key", nil)
	}
	cp := make([]byte, len(k.secret))
	copy(cp, k.secret)
	return New(k.algorithm, cp)
}

// Destroy overwrites the secret with zeros and unlocks the backing page.
// Safe to call more than once.
func (k *PrivateKey) Destroy() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return nil
	}
	for i := range k.secret {
		k.secret[i] = 0
	}
	var unlockErr error
	if k.locked {
		unlockErr = unix.Munlock(k.secret)
		k.locked = false
	}
	k.destroyed = true
	k.secret = nil
	if unlockErr != nil {
		return errs.NewSystem("munlock_failed", "failed to unlock private key memory", unlockErr)
	}
	return nil
}
