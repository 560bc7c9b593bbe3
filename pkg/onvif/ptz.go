package onvif

import (
	"encoding/json"
	"errors"
)

type MovementKind byte

const (
	Continuous MovementKind = iota + 1
	Relative
	Absolute
)

func (k MovementKind) String() string {
	switch k {
	case Continuous:
		return "Continuous"
	case Relative:
		return "Relative"
	case Absolute:
		return "Absolute"
	}
	return "Unknown"
}

func (k MovementKind) MarshalText() ([]byte, error) {
	if k < Continuous || k > Absolute {
		return nil, errors.New("onvif: unknown movement kind")
	}
	return []byte(k.String()), nil
}

type Direction byte

const (
	Up Direction = iota + 1
	Down
	Left
	Right
	ZoomIn
	ZoomOut
)

var directions = map[string]Direction{
	"Up":      Up,
	"Down":    Down,
	"Left":    Left,
	"Right":   Right,
	"ZoomIn":  ZoomIn,
	"ZoomOut": ZoomOut,
}

// ParseDirection accepts the names used by the web UI: Up, Down, Left, Right, ZoomIn, ZoomOut
func ParseDirection(s string) (Direction, error) {
	if d, ok := directions[s]; ok {
		return d, nil
	}
	return 0, errors.New("onvif: unknown direction " + s)
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Left:
		return "Left"
	case Right:
		return "Right"
	case ZoomIn:
		return "ZoomIn"
	case ZoomOut:
		return "ZoomOut"
	}
	return "Unknown"
}

func (d Direction) IsZoom() bool {
	return d == ZoomIn || d == ZoomOut
}

func (d Direction) MarshalText() ([]byte, error) {
	if d < Up || d > ZoomOut {
		return nil, errors.New("onvif: unknown direction")
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) (err error) {
	*d, err = ParseDirection(string(b))
	return
}

// MovementSet - bit set of supported movement kinds, each kind present at most once
type MovementSet byte

func NewMovementSet(kinds ...MovementKind) (s MovementSet) {
	for _, k := range kinds {
		s = s.Add(k)
	}
	return
}

func (s MovementSet) Add(k MovementKind) MovementSet {
	return s | 1<<k
}

func (s MovementSet) Has(k MovementKind) bool {
	return s&(1<<k) != 0
}

func (s MovementSet) Empty() bool {
	return s == 0
}

// Kinds return kinds in declaration order: Continuous, Relative, Absolute
func (s MovementSet) Kinds() []MovementKind {
	kinds := make([]MovementKind, 0, 3)
	for k := Continuous; k <= Absolute; k++ {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s MovementSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Kinds())
}

// Capabilities - PTZ abilities of one media profile
type Capabilities struct {
	ProfileToken       string      `json:"profile_token"`
	SupportedMovements MovementSet `json:"supported_movements"`
	SupportedZoom      MovementSet `json:"supported_zoom"`
}

// HasControls - profile has at least one controllable axis
func (c *Capabilities) HasControls() bool {
	return !c.SupportedMovements.Empty() || !c.SupportedZoom.Empty()
}

// PreferredMovement select movement kind for direction with priority Relative > Absolute > Continuous.
// Relative is a single bounded command, Absolute needs a coordinate space lookup,
// Continuous needs open-loop timing.
func (c *Capabilities) PreferredMovement(d Direction) (MovementKind, bool) {
	set := c.SupportedMovements
	if d.IsZoom() {
		set = c.SupportedZoom
	}

	for _, k := range []MovementKind{Relative, Absolute, Continuous} {
		if set.Has(k) {
			return k, true
		}
	}

	return 0, false
}
