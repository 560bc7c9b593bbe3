package onvif

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

var (
	ErrFetchProfiles       = errors.New("onvif: fetch media profiles")
	ErrNoProfiles          = errors.New("onvif: no media profiles")
	ErrAbsoluteUnsupported = errors.New("onvif: absolute movement not supported yet")
)

const (
	OpGetProfiles    = "GetProfiles"
	OpRelativeMove   = "RelativeMove"
	OpContinuousMove = "ContinuousMove"
	OpStop           = "Stop"
)

// MoveError - failed request inside movement sequence
type MoveError struct {
	Operation string
	Err       error
}

func (e *MoveError) Error() string {
	return "onvif: " + e.Operation + ": " + e.Err.Error()
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// Continuous movement windows between start and stop requests
const (
	PanTiltWindow = 500 * time.Millisecond
	ZoomWindow    = 1000 * time.Millisecond
)

// StopTimeout limit stop request when caller context is already cancelled
const StopTimeout = 5 * time.Second

// ContinuousWindow - camera latency is unknown, so zoom gets more time than pan/tilt
func ContinuousWindow(d Direction) time.Duration {
	if d.IsZoom() {
		return ZoomWindow
	}
	return PanTiltWindow
}

// Commander discover PTZ capabilities and execute movements.
// All methods are safe for concurrent use, there is no per camera ordering.
type Commander struct {
	Transport Transport
	Security  *Security

	// OnRequest called after each request with operation name and error
	OnRequest func(operation string, err error)
	// OnAnomaly called for each skipped malformed part of GetProfiles response
	OnAnomaly func(err error)

	// wait between continuous start and stop, replaceable in tests
	wait func(ctx context.Context, d time.Duration) error
}

func NewCommander(transport Transport) *Commander {
	return &Commander{Transport: transport, Security: DefaultSecurity}
}

// Discover return capabilities for each profile with PTZ configuration.
// Parse anomalies never fail discovery, they only go to OnAnomaly.
func (c *Commander) Discover(ctx context.Context, u *url.URL) ([]Capabilities, error) {
	b, err := c.request(ctx, u, OpGetProfiles, func(header string) []byte {
		return GetProfilesBody(header)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchProfiles, err)
	}

	caps, anomalies := ParseCapabilities(b)
	if c.OnAnomaly != nil {
		for _, err = range anomalies {
			c.OnAnomaly(err)
		}
	}

	if len(caps) == 0 {
		return nil, ErrNoProfiles
	}

	return caps, nil
}

// Move execute movement in direction with preferred kind for this profile.
// Returns MovementKind that was used, zero kind means profile can't move in this direction.
func (c *Commander) Move(ctx context.Context, u *url.URL, d Direction, caps *Capabilities) (MovementKind, error) {
	kind, ok := caps.PreferredMovement(d)
	if !ok {
		return 0, nil
	}

	switch kind {
	case Relative:
		return kind, c.moveRelative(ctx, u, caps.ProfileToken, d)
	case Continuous:
		return kind, c.moveContinuous(ctx, u, caps.ProfileToken, d)
	}

	// TODO: absolute move needs GetConfigurations for position space and GetStatus for current position
	return kind, ErrAbsoluteUnsupported
}

func (c *Commander) moveRelative(ctx context.Context, u *url.URL, token string, d Direction) error {
	_, err := c.request(ctx, u, OpRelativeMove, func(header string) []byte {
		return RelativeMoveBody(token, d, header)
	})
	return wrapMove(OpRelativeMove, err)
}

// moveContinuous: start, wait window after start response, stop.
// Stop is sent even if start failed or ctx was cancelled, so camera never keeps moving.
func (c *Commander) moveContinuous(ctx context.Context, u *url.URL, token string, d Direction) error {
	_, startErr := c.request(ctx, u, OpContinuousMove, func(header string) []byte {
		return ContinuousMoveBody(token, d, header)
	})

	if startErr == nil {
		_ = c.sleep(ctx, ContinuousWindow(d))
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), StopTimeout)
	defer cancel()

	_, stopErr := c.request(stopCtx, u, OpStop, func(header string) []byte {
		return StopBody(token, header)
	})

	if startErr != nil {
		return wrapMove(OpContinuousMove, startErr)
	}
	return wrapMove(OpStop, stopErr)
}

// request build new security header for each request, nonce can't be reused
func (c *Commander) request(ctx context.Context, u *url.URL, op string, body func(header string) []byte) ([]byte, error) {
	security := c.Security
	if security == nil {
		security = DefaultSecurity
	}

	clean, header := security.ExtractCredentials(u)

	b, err := c.Transport.Post(ctx, clean.String(), body(header))

	if c.OnRequest != nil {
		c.OnRequest(op, err)
	}

	return b, err
}

func (c *Commander) sleep(ctx context.Context, d time.Duration) error {
	if c.wait != nil {
		return c.wait(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func wrapMove(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MoveError{Operation: op, Err: err}
}
