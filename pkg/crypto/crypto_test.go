package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	require.NoError(t, SetEncryptionKey("un-secreto-cualquiera"))
	defer func() { _ = SetEncryptionKey("") }()

	sealed, err := Encrypt("sk-proj-12345")
	require.NoError(t, err)
	assert.NotEqual(t, "sk-proj-12345", sealed)

	// El valor sellado es base64 válido.
	_, err = base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)

	plain, err := Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-proj-12345", plain)
}

// Sin secreto configurado ambas operaciones son passthrough.
func TestNoKeyIsPassthrough(t *testing.T) {
	require.NoError(t, SetEncryptionKey(""))

	out, err := Encrypt("visible")
	require.NoError(t, err)
	assert.Equal(t, "visible", out)

	out, err = Decrypt("visible")
	require.NoError(t, err)
	assert.Equal(t, "visible", out)
}

// Claves guardadas antes de activar el cifrado se leen tal cual.
func TestDecryptLegacyPlaintext(t *testing.T) {
	require.NoError(t, SetEncryptionKey("otro-secreto"))
	defer func() { _ = SetEncryptionKey("") }()

	plain, err := Decrypt("clave-guardada-en-claro!")
	require.NoError(t, err)
	assert.Equal(t, "clave-guardada-en-claro!", plain)
}

func TestDecryptTamperedValueFails(t *testing.T) {
	require.NoError(t, SetEncryptionKey("secreto"))
	defer func() { _ = SetEncryptionKey("") }()

	sealed, err := Encrypt("dato sensible")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	_, err = Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrBadCiphertext)
}

// El mismo secreto produce la misma clave entre reinicios: lo sellado
// en una corrida se abre en la siguiente.
func TestKeyDerivationIsStable(t *testing.T) {
	require.NoError(t, SetEncryptionKey("estable"))
	sealed, err := Encrypt("persistido")
	require.NoError(t, err)

	require.NoError(t, SetEncryptionKey("estable"))
	defer func() { _ = SetEncryptionKey("") }()
	plain, err := Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "persistido", plain)
}
