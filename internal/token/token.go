// Package token stores the GitHub access token encrypted at rest. The token
// is sealed with a passphrase using age's scrypt-based encryption, so a
// leaked config directory does not leak repository access.
package token

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Save encrypts token with the passphrase and writes it to path, creating
// parent directories as needed. An existing file is replaced.
func Save(path, token, passphrase string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is empty")
	}
	if passphrase == "" {
		return fmt.Errorf("passphrase is empty")
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, strings.TrimSpace(token)); err != nil {
		return fmt.Errorf("writing encrypted token: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Load decrypts the token at path with the passphrase.
func Load(path, passphrase string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening token file: %w", err)
	}
	defer f.Close()

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(f, identity)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Exists reports whether an encrypted token file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
