// Package crypto cifra en reposo las API keys de los agentes. Sin
// secreto configurado los valores pasan en claro.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// sealer queda nil mientras no haya secreto; en ese estado Encrypt y
// Decrypt son passthrough.
var sealer cipher.AEAD

var ErrBadCiphertext = errors.New("crypto: stored value failed authentication")

// SetEncryptionKey deriva una clave AES-256 del secreto vía SHA-256 y
// prepara el AEAD. Un secreto vacío desactiva el cifrado.
func SetEncryptionKey(secret string) error {
	if secret == "" {
		sealer = nil
		return nil
	}
	sum := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return err
	}
	sealer, err = cipher.NewGCM(block)
	return err
}

// Encrypt sella el texto con AES-GCM, nonce antepuesto, y lo codifica
// en base64.
func Encrypt(plain string) (string, error) {
	if sealer == nil {
		return plain, nil
	}
	nonce := make([]byte, sealer.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := sealer.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt revierte Encrypt. Un valor que no pudo producir Encrypt
// (base64 inválido o más corto que el nonce) se devuelve tal cual: es
// una clave guardada antes de activar el cifrado.
func Decrypt(stored string) (string, error) {
	if sealer == nil {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(raw) <= sealer.NonceSize() {
		return stored, nil
	}
	nonce, sealed := raw[:sealer.NonceSize()], raw[sealer.NonceSize():]
	plain, err := sealer.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrBadCiphertext
	}
	return string(plain), nil
}
