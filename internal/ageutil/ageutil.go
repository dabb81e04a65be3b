// Package ageutil wraps filippo.io/age for encrypted config files.
package ageutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// Environment variables consulted by FromEnv.
const (
	EnvIdentity   = "RIGUP_AGE_IDENTITY"
	EnvPassphrase = "RIGUP_AGE_PASSPHRASE"
)

// Key holds the credential needed to encrypt and decrypt age files.
// Exactly one of IdentityFile or Passphrase should be non-empty.
type Key struct {
	IdentityFile string // path to an age identity file (secret key)
	Passphrase   string // scrypt passphrase (used when IdentityFile is empty)
}

// FromEnv returns a Key from identityFile when set, otherwise from the
// environment, or nil when no credential is configured anywhere.
func FromEnv(identityFile string) *Key {
	if identityFile != "" {
		return &Key{IdentityFile: identityFile}
	}
	if id := os.Getenv(EnvIdentity); id != "" {
		return &Key{IdentityFile: id}
	}
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return &Key{Passphrase: pass}
	}
	return nil
}

// Encrypt encrypts plaintext to the key's recipients in age's binary format.
func (k *Key) Encrypt(plaintext []byte) ([]byte, error) {
	recipients, err := k.recipients()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("write ciphertext: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalise ciphertext: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt decrypts an age-encrypted payload.
func (k *Key) Decrypt(ciphertext []byte) ([]byte, error) {
	identities, err := k.identities()
	if err != nil {
		return nil, err
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plaintext: %w", err)
	}
	return plaintext, nil
}

// EncryptFile reads src (plaintext), encrypts it with k, and writes the result to dst.
func (k *Key) EncryptFile(src, dst string) error {
	plaintext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read plaintext: %w", err)
	}
	ciphertext, err := k.Encrypt(plaintext)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, ciphertext, 0o600)
}

// DecryptFile reads src (age-encrypted), decrypts it with k, and writes
// the plaintext to dst.
func (k *Key) DecryptFile(src, dst string) error {
	ciphertext, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read ciphertext: %w", err)
	}
	plaintext, err := k.Decrypt(ciphertext)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, plaintext, 0o600)
}

// recipients returns the age recipients for encryption.
func (k *Key) recipients() ([]age.Recipient, error) {
	if k.Passphrase != "" {
		r, err := age.NewScryptRecipient(k.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create scrypt recipient: %w", err)
		}
		return []age.Recipient{r}, nil
	}

	identities, err := k.parseIdentityFile()
	if err != nil {
		return nil, err
	}
	var recipients []age.Recipient
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			recipients = append(recipients, x.Recipient())
		}
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no X25519 identities found in %s", k.IdentityFile)
	}
	return recipients, nil
}

// identities returns the age identities for decryption.
func (k *Key) identities() ([]age.Identity, error) {
	if k.Passphrase != "" {
		id, err := age.NewScryptIdentity(k.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create scrypt identity: %w", err)
		}
		return []age.Identity{id}, nil
	}
	return k.parseIdentityFile()
}

func (k *Key) parseIdentityFile() ([]age.Identity, error) {
	if k.IdentityFile == "" {
		return nil, fmt.Errorf("no age identity file configured; pass --identity or set %s", EnvIdentity)
	}
	f, err := os.Open(k.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("open identity file: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse identities: %w", err)
	}
	return identities, nil
}

// IsEncrypted reports whether path names an age-encrypted file.
func IsEncrypted(path string) bool {
	return strings.HasSuffix(path, ".age")
}

// EncryptedPath returns path with ".age" appended unless already present.
func EncryptedPath(path string) string {
	if IsEncrypted(path) {
		return path
	}
	return path + ".age"
}

// PlainPath returns path without a trailing ".age".
func PlainPath(path string) string {
	return strings.TrimSuffix(path, ".age")
}
