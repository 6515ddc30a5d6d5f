package keymat

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrInvalidKeyID      = errors.New("invalid key ID")
)

const pbkdf2Iterations = 100000

// encryptedKeyFile is the on-disk representation of a passphrase-wrapped
// private key. Field order is not significant here, unlike audit records.
type encryptedKeyFile struct {
	Version   string    `json:"version"`
	KeyID     string    `json:"key_id"`
	Algorithm string    `json:"algorithm"`
	Salt      string    `json:"salt"`
	Nonce     string    `json:"nonce"`
	Cipher    string    `json:"ciphertext"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vault persists PrivateKey material to disk, passphrase-wrapped with
// AES-256-GCM under a PBKDF2-derived key. It never holds plaintext key
// bytes longer than a single StoreEncrypted/LoadDecrypted call.
type Vault struct {
	basePath string
	mu       sync.RWMutex
}

// NewVault creates a vault rooted at basePath, creating the directory with
// owner-only permissions if it does not already exist.
func NewVault(basePath string) (*Vault, error) {
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}
	return &Vault{basePath: basePath}, nil
}

// StoreEncrypted wraps key under passphrase and writes it to keyID's file
// with 0600 permissions.
func (v *Vault) StoreEncrypted(keyID, algorithm string, key []byte, passphrase string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if keyID == "" {
		return ErrInvalidKeyID
	}

	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	derived := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, 32, sha256.New)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("create gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, key, nil)

	now := time.Now()
	entry := encryptedKeyFile{
		Version:   "1",
		KeyID:     keyID,
		Algorithm: algorithm,
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
		Cipher:    base64.StdEncoding.EncodeToString(ciphertext),
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal encrypted key: %w", err)
	}
	return os.WriteFile(v.keyPath(keyID), data, 0600)
}

// LoadDecrypted reads and unwraps the key stored under keyID. On wrong
// passphrase it returns ErrInvalidPassphrase rather than the underlying
// GCM authentication failure, matching the closed taxonomy used elsewhere.
func (v *Vault) LoadDecrypted(keyID, passphrase string) (algorithm string, key []byte, err error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if keyID == "" {
		return "", nil, ErrInvalidKeyID
	}

	raw, err := os.ReadFile(v.keyPath(keyID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, ErrKeyNotFound
		}
		return "", nil, fmt.Errorf("read encrypted key: %w", err)
	}

	var entry encryptedKeyFile
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", nil, fmt.Errorf("unmarshal encrypted key: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(entry.Salt)
	if err != nil {
		return "", nil, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(entry.Nonce)
	if err != nil {
		return "", nil, fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(entry.Cipher)
	if err != nil {
		return "", nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	derived := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return "", nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", nil, fmt.Errorf("create gcm: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", nil, ErrInvalidPassphrase
	}
	return entry.Algorithm, plaintext, nil
}

// SetPermissions changes the mode bits of keyID's backing file.
func (v *Vault) SetPermissions(keyID string, mode os.FileMode) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if keyID == "" {
		return ErrInvalidKeyID
	}
	if err := os.Chmod(v.keyPath(keyID), mode); err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("set permissions: %w", err)
	}
	return nil
}

// Delete removes keyID's backing file.
func (v *Vault) Delete(keyID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if keyID == "" {
		return ErrInvalidKeyID
	}
	if err := os.Remove(v.keyPath(keyID)); err != nil {
		if os.IsNotExist(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("delete key: %w", err)
	}
	return nil
}

// Exists reports whether keyID has a backing file.
func (v *Vault) Exists(keyID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if keyID == "" {
		return false
	}
	_, err := os.Stat(v.keyPath(keyID))
	return err == nil
}

// ListKeys returns every key ID currently stored in the vault.
func (v *Vault) ListKeys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	entries, err := os.ReadDir(v.basePath)
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			ids = append(ids, e.Name()[:len(e.Name())-len(".json")])
		}
	}
	return ids
}

func (v *Vault) keyPath(keyID string) string {
	return filepath.Join(v.basePath, filepath.Base(keyID)+".json")
}
