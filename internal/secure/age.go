package secure

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// scryptWorkFactor is the log2 scrypt work parameter for password
// recipients. Tests lower it to keep key derivation fast.
//
//nolint:gochecknoglobals // test hook
var scryptWorkFactor = 18

// SetScryptWorkFactor overrides the scrypt work parameter.
func SetScryptWorkFactor(logN int) {
	scryptWorkFactor = logN
}

// Encrypt seals plaintext with an age scrypt recipient derived from the
// password.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(scryptWorkFactor)

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt opens ciphertext with an age scrypt identity derived from the
// password.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}

// DecryptBuffer decrypts ciphertext into a locked Buffer. The plaintext
// never lives outside the buffer.
func DecryptBuffer(ciphertext []byte, password string) (*Buffer, error) {
	plaintext, err := Decrypt(ciphertext, password)
	if err != nil {
		return nil, err
	}
	return FromBytes(plaintext), nil
}
