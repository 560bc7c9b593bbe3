package ptz

import (
	"errors"
	"net/url"
	"sort"
	"sync"

	"github.com/vigilcam/ptzd/pkg/creds"
)

var ErrUnknownMonitor = errors.New("ptz: unknown monitor")

// Monitors - table of monitor id => ONVIF service URL with credentials
type Monitors struct {
	urls map[string]*url.URL
	mu   sync.RWMutex
}

func NewMonitors() *Monitors {
	return &Monitors{urls: map[string]*url.URL{}}
}

// Load replace whole table and return ids with changed or removed URL.
// ${NAME} variables are resolved from env storage, passwords are registered as secrets.
func (m *Monitors) Load(raw map[string]string) (changed []string, errs []error) {
	urls := make(map[string]*url.URL, len(raw))

	for id, rawURL := range raw {
		u, err := url.Parse(creds.ReplaceVars(rawURL))
		if err != nil || u.Host == "" {
			// parse error contains URL with password
			errs = append(errs, errors.New("ptz: monitor "+id+": wrong URL"))
			continue
		}
		if pass, ok := u.User.Password(); ok {
			creds.AddSecret(pass)
		}
		urls[id] = u
	}

	m.mu.Lock()
	for id, u := range m.urls {
		if u2, ok := urls[id]; !ok || u2.String() != u.String() {
			changed = append(changed, id)
		}
	}
	m.urls = urls
	m.mu.Unlock()

	sort.Strings(changed)
	return
}

func (m *Monitors) Get(id string) (*url.URL, error) {
	m.mu.RLock()
	u := m.urls[id]
	m.mu.RUnlock()

	if u == nil {
		return nil, ErrUnknownMonitor
	}

	// caller can't change table
	u2 := *u
	return &u2, nil
}

// IDs return sorted monitor ids
func (m *Monitors) IDs() []string {
	m.mu.RLock()
	ids := make([]string, 0, len(m.urls))
	for id := range m.urls {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// CleanURL return monitor URL without credentials
func (m *Monitors) CleanURL(id string) string {
	u, err := m.Get(id)
	if err != nil {
		return ""
	}
	u.User = nil
	return u.String()
}
