package history

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of the history master key.
const KeySize = 32

var (
	// ErrLocked is returned when an encrypted entry is read from a store
	// opened without the key.
	ErrLocked = errors.New("entry is encrypted and no key is loaded")
	// ErrBadKey is returned for key files of the wrong size and for
	// ciphertext that does not authenticate under the loaded key.
	ErrBadKey = errors.New("history key does not match")
)

// LoadKey reads the master key at path, creating a random one with
// owner-only permissions when the file does not exist.
func LoadKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != KeySize {
			return nil, fmt.Errorf("%s: %w: %d bytes", path, ErrBadKey, len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read history key: %w", err)
	}

	key = make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate history key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("write history key: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		f.Close()
		return nil, fmt.Errorf("write history key: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write history key: %w", err)
	}
	return key, nil
}

// sealer encrypts sensitive content with AES-256-GCM and fingerprints it
// with a keyed hash, so neither the text nor a plain digest of it is
// stored. Both keys are derived from the master key.
type sealer struct {
	aead cipher.AEAD
	mac  []byte
}

func newSealer(master []byte) (*sealer, error) {
	if len(master) != KeySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadKey, len(master))
	}
	enc, err := derive(master, "content")
	if err != nil {
		return nil, err
	}
	mac, err := derive(master, "fingerprint")
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(enc)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealer{aead: aead, mac: mac}, nil
}

func derive(master []byte, label string) ([]byte, error) {
	r := hkdf.New(sha256.New, master, nil, []byte("pasta:history:"+label))
	k := make([]byte, KeySize)
	if _, err := io.ReadFull(r, k); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", label, err)
	}
	return k, nil
}

// seal returns base64(nonce || ciphertext).
func (s *sealer) seal(plain string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *sealer) open(stored string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("decode sealed entry: %w", err)
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", ErrBadKey
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", ErrBadKey
	}
	return string(plain), nil
}

func (s *sealer) fingerprint(plain string) string {
	h := hmac.New(sha256.New, s.mac)
	h.Write([]byte(plain))
	return "k:" + hex.EncodeToString(h.Sum(nil))
}
