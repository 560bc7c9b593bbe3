package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vigilcam/ptzd/pkg/shell"
	"github.com/vigilcam/ptzd/pkg/yaml"
)

var ConfigPath string

func LoadConfig(v any) {
	configsMu.RLock()
	defer configsMu.RUnlock()

	for _, data := range configs {
		if err := yaml.Unmarshal(data, v); err != nil {
			Logger.Warn().Err(err).Msg("[app] read config")
		}
	}
}

// PatchConfig change one key in config file and reload config
func PatchConfig(key string, value any, path ...string) error {
	if ConfigPath == "" {
		return errors.New("config file disabled")
	}

	// empty config is OK
	b, _ := os.ReadFile(ConfigPath)

	b, err := yaml.Patch(b, key, value, path...)
	if err != nil {
		return err
	}

	if err = os.WriteFile(ConfigPath, b, 0644); err != nil {
		return err
	}

	ReloadConfig()
	return nil
}

// OnConfigChange register handler called after each config reload
func OnConfigChange(handler func()) {
	handlersMu.Lock()
	handlers = append(handlers, handler)
	handlersMu.Unlock()
}

// ReloadConfig read all config sources again and notify handlers
func ReloadConfig() {
	data, _ := readConfigs(sources)

	configsMu.Lock()
	configs = data
	configsMu.Unlock()

	handlersMu.Lock()
	fns := append([]func(){}, handlers...)
	handlersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

const watchDelay = 200 * time.Millisecond

// WatchConfig reload config after config file changes until ctx is done.
// Directory is watched because editors often replace file with rename.
func WatchConfig(ctx context.Context) error {
	path := ConfigPath
	if path == "" {
		return errors.New("config file disabled")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err = watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		// editors write file in several steps
		timer := time.NewTimer(watchDelay)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					timer.Reset(watchDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				Logger.Warn().Err(err).Msg("[app] watch config")
			case <-timer.C:
				Logger.Info().Str("path", path).Msg("[app] reload config")
				ReloadConfig()
			}
		}
	}()

	return nil
}

type flagConfig []string

func (c *flagConfig) String() string {
	return strings.Join(*c, " ")
}

func (c *flagConfig) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configs   [][]byte
	configsMu sync.RWMutex
	sources   flagConfig

	handlers   []func()
	handlersMu sync.Mutex
)

func initConfig(confs flagConfig) {
	if confs == nil {
		confs = []string{"ptzd.yaml"}
	}

	var path string
	configs, path = readConfigs(confs)
	sources = confs

	if path != "" {
		if !filepath.IsAbs(path) {
			if cwd, err := os.Getwd(); err == nil {
				path = filepath.Join(cwd, path)
			}
		}
		ConfigPath = filepath.Clean(path)
		Info["config_path"] = ConfigPath
	}
}

// readConfigs return data of each config source and path of first config file
func readConfigs(confs flagConfig) (data [][]byte, path string) {
	for _, conf := range confs {
		if len(conf) == 0 {
			continue
		}
		if conf[0] == '{' {
			// config as raw YAML or JSON
			data = append(data, []byte(conf))
		} else if b := parseConfString(conf); b != nil {
			data = append(data, b)
		} else {
			// config as file
			if path == "" {
				path = conf
			}

			b, _ = os.ReadFile(conf)
			if b == nil {
				continue
			}

			b = []byte(shell.ReplaceEnvVars(string(b)))
			data = append(data, b)
		}
	}
	return
}

func parseConfString(s string) []byte {
	i := strings.IndexByte(s, '=')
	if i < 0 {
		return nil
	}

	items := strings.Split(s[:i], ".")
	if len(items) < 2 {
		return nil
	}

	// `log.level=trace` => `{log: {level: trace}}`
	var pre string
	var suf = s[i+1:]
	for _, item := range items {
		pre += "{" + item + ": "
		suf += "}"
	}

	return []byte(pre + suf)
}
