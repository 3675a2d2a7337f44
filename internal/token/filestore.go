package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/readmark/readmark/internal/domain"
)

// credentialStore is one persistence path for the credential.
// load returns domain.ErrNotFound when nothing is stored; wipe on a
// missing file is not an error.
type credentialStore interface {
	load() (*domain.Credential, error)
	save(cred *domain.Credential) error
	wipe() error
}

// plainStore keeps the credential as plain JSON. It is the fallback
// when the encrypted store cannot be used (no passphrase, bad key).
type plainStore struct {
	path string
}

func newPlainStore(dir string) *plainStore {
	return &plainStore{path: filepath.Join(dir, "auth_tokens.json")}
}

func (s *plainStore) load() (*domain.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var cred domain.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &cred, nil
}

func (s *plainStore) save(cred *domain.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *plainStore) wipe() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// encryptedStore keeps the credential sealed with AES-256-GCM under a
// scrypt-derived key. File layout: base64(salt) + "\n" + "enc:" payload.
type encryptedStore struct {
	path       string
	passphrase []byte
}

func newEncryptedStore(dir string, passphrase []byte) *encryptedStore {
	return &encryptedStore{
		path:       filepath.Join(dir, "auth_tokens.enc"),
		passphrase: passphrase,
	}
}

func (s *encryptedStore) load() (*domain.Credential, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read encrypted token file: %w", err)
	}
	parts := strings.SplitN(string(raw), "\n", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed encrypted token file")
	}
	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed salt in encrypted token file: %w", err)
	}
	key, err := deriveKey(s.passphrase, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := decrypt(parts[1], key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token file: %w", err)
	}
	var cred domain.Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted credential: %w", err)
	}
	return &cred, nil
}

func (s *encryptedStore) save(cred *domain.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	salt, err := newSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	key, err := deriveKey(s.passphrase, salt)
	if err != nil {
		return err
	}
	sealed, err := encrypt(data, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}
	payload := base64.StdEncoding.EncodeToString(salt) + "\n" + sealed
	if err := os.WriteFile(s.path, []byte(payload), 0o600); err != nil {
		return fmt.Errorf("failed to write encrypted token file: %w", err)
	}
	return nil
}

func (s *encryptedStore) wipe() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove encrypted token file: %w", err)
	}
	return nil
}
