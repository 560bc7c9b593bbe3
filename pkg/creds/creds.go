package creds

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type Storage interface {
	GetValue(name string) (string, bool)
}

var storage Storage

func SetStorage(s Storage) {
	storage = s
}

// GetValue search value in storage, systemd credentials directory and environment.
// Found value is registered as secret.
func GetValue(name string) (value string, ok bool) {
	value, ok = getValue(name)
	AddSecret(value)
	return
}

func getValue(name string) (string, bool) {
	if storage != nil {
		if value, ok := storage.GetValue(name); ok {
			return value, true
		}
	}

	if dir, ok := os.LookupEnv("CREDENTIALS_DIRECTORY"); ok {
		if value, _ := os.ReadFile(filepath.Join(dir, name)); value != nil {
			return strings.TrimSpace(string(value)), true
		}
	}

	return os.LookupEnv(name)
}

var reVar = regexp.MustCompile(`\${([^}{]+)}`)

// ReplaceVars - support format ${CAMERA_PASSWORD} and ${ONVIF_USER:admin}
func ReplaceVars(s string) string {
	return reVar.ReplaceAllStringFunc(s, func(match string) string {
		key := match[2 : len(match)-1]

		var def string
		var defok bool

		if i := strings.IndexByte(key, ':'); i > 0 {
			key, def = key[:i], key[i+1:]
			defok = true
		}

		if value, ok := GetValue(key); ok {
			return value
		}

		if defok {
			return def
		}

		return match
	})
}
