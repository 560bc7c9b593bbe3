package app

import (
	"sync"

	"github.com/vigilcam/ptzd/pkg/creds"
)

// initStorage - `env:` config section as credentials storage for ${NAME} variables in monitors URLs
func initStorage() {
	storage = &envStorage{data: make(map[string]string)}
	storage.load()
	creds.SetStorage(storage)

	OnConfigChange(storage.load)
}

var storage *envStorage

type envStorage struct {
	data map[string]string
	mu   sync.Mutex
}

func (s *envStorage) load() {
	var cfg struct {
		Env map[string]string `yaml:"env"`
	}

	LoadConfig(&cfg)

	s.mu.Lock()
	for name, value := range cfg.Env {
		s.data[name] = value
		creds.AddSecret(value)
	}
	s.mu.Unlock()
}

func (s *envStorage) GetValue(name string) (value string, ok bool) {
	s.mu.Lock()
	value, ok = s.data[name]
	s.mu.Unlock()
	return
}
