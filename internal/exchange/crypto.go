// Package exchange implements the encrypted practitioner-to-practitioner
// export format: a password-sealed JSON package of shareable entities
// with an integrity checksum and import-time conflict resolution.
package exchange

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/osteokit/cabinet/pkg/types"
)

// Export file layout: magic, format version, salt, nonce, ciphertext.
// Salt and nonce travel in clear; the key never leaves the process.
const (
	fileMagic     = "CABX"
	formatVersion = byte(1)
	saltSize      = 16
	nonceSize     = 12
	keySize       = 32
)

// FileExtension is the conventional extension for export files.
const FileExtension = ".cabx"

// deriveKey stretches the password with argon2id. Parameters follow the
// RFC 9106 low-memory recommendation (1 pass, 64 MiB, 4 lanes).
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, keySize)
}

// seal encrypts plaintext under a password-derived key with AES-256-GCM
// and a fresh random salt and nonce, returning the complete export blob.
func seal(plaintext []byte, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(fileMagic)+1+saltSize+nonceSize+len(plaintext)+aead.Overhead())
	out = append(out, fileMagic...)
	out = append(out, formatVersion)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// open decrypts an export blob. Structural problems (wrong magic,
// truncation, unknown version) are ErrBadExportFile; an authentication
// failure is reported as ErrInvalidPassword, since a wrong password and
// a tampered ciphertext are indistinguishable under GCM.
func open(blob []byte, password string) ([]byte, error) {
	header := len(fileMagic) + 1 + saltSize + nonceSize
	if len(blob) < header {
		return nil, fmt.Errorf("%w: truncated", types.ErrBadExportFile)
	}
	if !bytes.Equal(blob[:len(fileMagic)], []byte(fileMagic)) {
		return nil, fmt.Errorf("%w: bad magic", types.ErrBadExportFile)
	}
	if v := blob[len(fileMagic)]; v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", types.ErrBadExportFile, v)
	}
	salt := blob[len(fileMagic)+1 : len(fileMagic)+1+saltSize]
	nonce := blob[len(fileMagic)+1+saltSize : header]

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, blob[header:], nil)
	if err != nil {
		return nil, types.ErrInvalidPassword
	}
	return plaintext, nil
}
