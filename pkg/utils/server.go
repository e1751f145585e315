package utils

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

const serverIDFile = ".server_id"

// GetPersistentServerID resuelve el identificador estable de la
// instancia, en orden: override explícito, archivo en storagePath,
// hostname saneado, y como último recurso uno aleatorio que se
// persiste para la siguiente arrancada. El ID distingue instancias en
// el pub/sub de Valkey.
func GetPersistentServerID(override, storagePath string) string {
	if override != "" {
		return override
	}

	path := filepath.Join(storagePath, serverIDFile)
	if id := readStoredID(path); id != "" {
		return id
	}

	if host := sanitizedHostname(); host != "" {
		return "wacrm-" + host
	}

	id := "wacrm-" + randomSuffix()
	persistID(path, id)
	return id
}

func readStoredID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// sanitizedHostname deja solo caracteres seguros para claves de Valkey.
func sanitizedHostname() string {
	host, err := os.Hostname()
	if err != nil || host == "" || host == "localhost" {
		return ""
	}
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "0000"
	}
	return hex.EncodeToString(buf)
}

func persistID(path, id string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, []byte(id), 0o644)
}
