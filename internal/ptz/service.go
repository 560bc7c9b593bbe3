package ptz

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vigilcam/ptzd/pkg/onvif"
)

var ErrBadDirection = errors.New("ptz: unknown direction")

// Service - PTZ commands for configured monitors
type Service struct {
	Commander *onvif.Commander
	Monitors  *Monitors
	Locker    Locker
	Publisher Publisher // optional
	Metrics   *Metrics  // optional

	// Profile - index of media profile with PTZ configuration
	Profile int

	cache *capsCache
}

func NewService(commander *onvif.Commander, monitors *Monitors, cacheSize int, cacheTTL time.Duration) *Service {
	return &Service{
		Commander: commander,
		Monitors:  monitors,
		Locker:    NewLocalLocker(),
		cache:     newCapsCache(cacheSize, cacheTTL),
	}
}

// MoveResult - accepted move command
type MoveResult struct {
	ID        string             `json:"id"`
	Monitor   string             `json:"monitor"`
	Direction onvif.Direction    `json:"direction"`
	Movement  onvif.MovementKind `json:"movement,omitempty"`
}

// Capabilities return capabilities of selected profile, from cache if possible
func (s *Service) Capabilities(ctx context.Context, id string) (*onvif.Capabilities, error) {
	// before URL lookup, so Invalidate after URL change drops result of this fetch
	gen := s.cache.Generation(id)

	u, err := s.Monitors.Get(id)
	if err != nil {
		return nil, err
	}

	caps, ok := s.cache.Get(id)
	if !ok {
		start := time.Now()
		caps, err = s.Commander.Discover(ctx, u)
		if s.Metrics != nil {
			s.Metrics.ObserveDiscovery(time.Since(start))
		}
		if err != nil {
			return nil, err
		}

		cached := s.cache.Add(id, caps, gen)

		log.Debug().Str("monitor", id).Int("profiles", len(caps)).Bool("cached", cached).Msg("[ptz] discover")
	}

	return s.selectProfile(caps), nil
}

// selectProfile fallback to first profile if index out of range
func (s *Service) selectProfile(caps []onvif.Capabilities) *onvif.Capabilities {
	i := s.Profile
	if i < 0 || i >= len(caps) {
		i = 0
	}
	c := caps[i]
	return &c
}

// Move execute one command on monitor. Commands for one monitor are serialized by Locker.
func (s *Service) Move(ctx context.Context, id string, d onvif.Direction) (*MoveResult, error) {
	if d < onvif.Up || d > onvif.ZoomOut {
		return nil, ErrBadDirection
	}

	res := &MoveResult{ID: uuid.NewString(), Monitor: id, Direction: d}

	u, err := s.Monitors.Get(id)
	if err != nil {
		return nil, err
	}

	caps, err := s.Capabilities(ctx, id)
	if err == nil {
		res.Movement, err = s.move(ctx, u, d, caps)
	}

	if s.Metrics != nil && caps != nil {
		s.Metrics.OnMove(res.Movement, err)
	}

	s.publish(res, err)

	if err != nil {
		log.Warn().Err(err).Str("id", res.ID).Str("monitor", id).
			Str("url", s.Monitors.CleanURL(id)).Str("direction", d.String()).Msg("[ptz] move")
		return nil, err
	}

	event := log.Debug().Str("id", res.ID).Str("monitor", id).Str("direction", d.String())
	if res.Movement != 0 {
		event = event.Str("movement", res.Movement.String())
	}
	event.Msg("[ptz] move")

	return res, nil
}

// move lock by camera host, so two monitors of one camera also never interleave
func (s *Service) move(ctx context.Context, u *url.URL, d onvif.Direction, caps *onvif.Capabilities) (onvif.MovementKind, error) {
	unlock, err := s.Locker.Lock(ctx, u.Host)
	if err != nil {
		return 0, &LockError{Err: err}
	}
	defer unlock()

	return s.Commander.Move(ctx, u, d, caps)
}

func (s *Service) publish(res *MoveResult, err error) {
	if s.Publisher == nil {
		return
	}

	event := &Event{
		ID:        res.ID,
		Monitor:   res.Monitor,
		Direction: res.Direction,
		Movement:  res.Movement,
		Time:      time.Now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}

	go func() {
		if err := s.Publisher.Publish(event); err != nil {
			log.Warn().Err(err).Str("id", event.ID).Msg("[ptz] publish event")
		}
	}()
}

// Invalidate drop cached capabilities of monitors
func (s *Service) Invalidate(ids ...string) {
	for _, id := range ids {
		s.cache.Remove(id)
	}
}

// MonitorInfo - one item of monitors list
type MonitorInfo struct {
	URL   string `json:"url"`
	PTZ   bool   `json:"ptz"`
	Error string `json:"error,omitempty"`
}

// MonitorsList return all monitors with credential-free URLs.
// PTZ is true when selected profile has any pan/tilt or zoom controls of any movement kind.
func (s *Service) MonitorsList(ctx context.Context) map[string]*MonitorInfo {
	ids := s.Monitors.IDs()
	list := make(map[string]*MonitorInfo, len(ids))

	for _, id := range ids {
		list[id] = &MonitorInfo{URL: s.Monitors.CleanURL(id)}
	}

	var wg sync.WaitGroup
	for id, info := range list {
		id, info := id, info
		wg.Add(1)
		go func() {
			defer wg.Done()
			caps, err := s.Capabilities(ctx, id)
			if err != nil {
				info.Error = err.Error()
				return
			}
			info.PTZ = caps.HasControls()
		}()
	}
	wg.Wait()

	return list
}

// LockError - camera is busy with other command longer than request allows
type LockError struct {
	Err error
}

func (e *LockError) Error() string {
	return "ptz: lock camera: " + e.Err.Error()
}

func (e *LockError) Unwrap() error {
	return e.Err
}
