package onvif

import (
	"fmt"
	"html"
)

type Envelope struct {
	buf []byte
}

const (
	prefix = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:tt="http://www.onvif.org/ver10/schema" xmlns:trt="http://www.onvif.org/ver10/media/wsdl" xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl">
`
	suffix = `
</s:Body>
</s:Envelope>`
)

// NewEnvelope start envelope with security header (can be empty)
func NewEnvelope(header string) *Envelope {
	e := &Envelope{buf: make([]byte, 0, 2048)}
	e.Append(prefix)
	if header != "" {
		e.Append("<s:Header>\n", header, "\n</s:Header>\n")
	}
	e.Append("<s:Body>\n")
	return e
}

func (e *Envelope) Append(args ...string) {
	for _, s := range args {
		e.buf = append(e.buf, s...)
	}
}

func (e *Envelope) Appendf(format string, args ...any) {
	e.buf = fmt.Appendf(e.buf, format, args...)
}

func (e *Envelope) Bytes() []byte {
	return append(e.buf, suffix...)
}

const moveStep = 0.1

// Vector - pan/tilt or zoom components of a movement
type Vector struct {
	Pan, Tilt, Zoom float64
}

// MoveVector - Up/Right/ZoomIn positive, Down/Left/ZoomOut negative, 0.1 step on one axis
func MoveVector(d Direction) Vector {
	switch d {
	case Up:
		return Vector{Tilt: moveStep}
	case Down:
		return Vector{Tilt: -moveStep}
	case Left:
		return Vector{Pan: -moveStep}
	case Right:
		return Vector{Pan: moveStep}
	case ZoomIn:
		return Vector{Zoom: moveStep}
	case ZoomOut:
		return Vector{Zoom: -moveStep}
	}
	return Vector{}
}

func (e *Envelope) appendVector(d Direction) {
	v := MoveVector(d)
	if d.IsZoom() {
		e.Appendf(`<tt:Zoom x="%.1f"/>`, v.Zoom)
	} else {
		e.Appendf(`<tt:PanTilt x="%.1f" y="%.1f"/>`, v.Pan, v.Tilt)
	}
}

func GetProfilesBody(header string) []byte {
	e := NewEnvelope(header)
	e.Append(`<trt:GetProfiles/>`)
	return e.Bytes()
}

func RelativeMoveBody(token string, d Direction, header string) []byte {
	e := NewEnvelope(header)
	e.Appendf(`<tptz:RelativeMove>
	<tptz:ProfileToken>%s</tptz:ProfileToken>
	<tptz:Translation>`, html.EscapeString(token))
	e.appendVector(d)
	e.Append(`</tptz:Translation>
</tptz:RelativeMove>`)
	return e.Bytes()
}

// ContinuousMoveBody use the same vector as RelativeMoveBody, but as velocity
func ContinuousMoveBody(token string, d Direction, header string) []byte {
	e := NewEnvelope(header)
	e.Appendf(`<tptz:ContinuousMove>
	<tptz:ProfileToken>%s</tptz:ProfileToken>
	<tptz:Velocity>`, html.EscapeString(token))
	e.appendVector(d)
	e.Append(`</tptz:Velocity>
</tptz:ContinuousMove>`)
	return e.Bytes()
}

// StopBody always stop both axes, whatever was moving
func StopBody(token string, header string) []byte {
	e := NewEnvelope(header)
	e.Appendf(`<tptz:Stop>
	<tptz:ProfileToken>%s</tptz:ProfileToken>
	<tptz:PanTilt>true</tptz:PanTilt>
	<tptz:Zoom>true</tptz:Zoom>
</tptz:Stop>`, html.EscapeString(token))
	return e.Bytes()
}
