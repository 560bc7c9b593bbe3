package onvif

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// spaces - PTZConfiguration default space elements and the movement they unlock
var spaces = map[string]struct {
	zoom bool
	kind MovementKind
}{
	// misspelled name from ONVIF schema, used by most cameras
	"DefaultAbsolutePantTiltPositionSpace":   {false, Absolute},
	"DefaultAbsolutePanTiltPositionSpace":    {false, Absolute},
	"DefaultRelativePanTiltTranslationSpace": {false, Relative},
	"DefaultContinuousPanTiltVelocitySpace":  {false, Continuous},
	"DefaultAbsoluteZoomPositionSpace":       {true, Absolute},
	"DefaultRelativeZoomTranslationSpace":    {true, Relative},
	"DefaultContinuousZoomVelocitySpace":     {true, Continuous},
}

// capsParser - state machine for GetProfiles response, fed one element event at a time
type capsParser struct {
	profileToken string
	inConfig     bool
	movements    MovementSet
	zoom         MovementSet

	result []Capabilities
}

func (p *capsParser) start(el *xml.StartElement) {
	switch name := el.Name.Local; name {
	case "Profiles":
		for _, attr := range el.Attr {
			if attr.Name.Local == "token" {
				p.profileToken = attr.Value
			}
		}
	case "PTZConfiguration":
		p.inConfig = true
		p.movements = 0
		p.zoom = 0
	default:
		if !p.inConfig {
			return
		}
		space, ok := spaces[name]
		if !ok {
			return
		}
		if space.zoom {
			p.zoom = p.zoom.Add(space.kind)
		} else {
			p.movements = p.movements.Add(space.kind)
		}
	}
}

func (p *capsParser) end(el *xml.EndElement) {
	if el.Name.Local != "PTZConfiguration" || !p.inConfig {
		return
	}

	p.result = append(p.result, Capabilities{
		ProfileToken:       p.profileToken,
		SupportedMovements: p.movements,
		SupportedZoom:      p.zoom,
	})

	p.inConfig = false
	p.movements = 0
	p.zoom = 0
}

// ParseError - malformed part of response, skipped by parser
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("onvif: parse at %d: %s", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseCapabilities extract PTZ capabilities for each profile with PTZConfiguration, in document order.
// Malformed XML doesn't stop parsing: broken part is skipped and reported in anomalies.
func ParseCapabilities(b []byte) (caps []Capabilities, anomalies []error) {
	var p capsParser

	for offset := int64(0); offset < int64(len(b)); {
		dec := xml.NewDecoder(bytes.NewReader(b[offset:]))
		dec.Strict = false

		for {
			start := offset + dec.InputOffset()

			// RawToken don't check start/end pairs, so parser can continue from any element
			tok, err := dec.RawToken()
			if err == io.EOF {
				return p.result, anomalies
			}
			if err != nil {
				pos := offset + dec.InputOffset()
				anomalies = append(anomalies, &ParseError{Offset: pos, Err: err})
				offset = resync(b, pos, start)
				break
			}

			switch tok := tok.(type) {
			case xml.StartElement:
				p.start(&tok)
			case xml.EndElement:
				p.end(&tok)
			}
		}
	}

	return p.result, anomalies
}

// resync return position of next element after broken token, always moving forward.
// Decoder can fail on '<' of the next element (unescaped '<' in attribute, end tag without '>'),
// then parsing continues from this element.
func resync(b []byte, pos, start int64) int64 {
	if i := pos - 1; i > start && i < int64(len(b)) && b[i] == '<' {
		return i
	}
	if pos <= start {
		pos = start + 1
	}
	if pos >= int64(len(b)) {
		return int64(len(b))
	}
	if i := bytes.IndexByte(b[pos:], '<'); i >= 0 {
		return pos + int64(i)
	}
	return int64(len(b))
}
