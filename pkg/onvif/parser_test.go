package onvif

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const profilesHead = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://www.w3.org/2003/05/soap-envelope" xmlns:tt="http://www.onvif.org/ver10/schema" xmlns:trt="http://www.onvif.org/ver10/media/wsdl">
<SOAP-ENV:Body><trt:GetProfilesResponse>`

const profilesTail = `</trt:GetProfilesResponse></SOAP-ENV:Body></SOAP-ENV:Envelope>`

func profiles(items ...string) []byte {
	return []byte(profilesHead + strings.Join(items, "") + profilesTail)
}

func TestParseCapabilities(t *testing.T) {
	b := profiles(`<trt:Profiles token="14" fixed="true">
	<tt:Name>mainStream</tt:Name>
	<tt:VideoSourceConfiguration token="VideoSourceToken">
		<tt:Name>VideoSourceConfig</tt:Name>
		<tt:Bounds x="0" y="0" width="1920" height="1080"></tt:Bounds>
	</tt:VideoSourceConfiguration>
	<tt:PTZConfiguration token="PTZToken">
		<tt:Name>PTZ</tt:Name>
		<tt:NodeToken>PTZNODETOKEN</tt:NodeToken>
		<tt:DefaultRelativePanTiltTranslationSpace>http://www.onvif.org/ver10/tptz/PanTiltSpaces/TranslationGenericSpace</tt:DefaultRelativePanTiltTranslationSpace>
		<tt:DefaultContinuousZoomVelocitySpace>http://www.onvif.org/ver10/tptz/ZoomSpaces/VelocityGenericSpace</tt:DefaultContinuousZoomVelocitySpace>
		<tt:DefaultPTZSpeed>
			<tt:PanTilt x="0.1" y="0.1" space="http://www.onvif.org/ver10/tptz/PanTiltSpaces/GenericSpeedSpace"></tt:PanTilt>
		</tt:DefaultPTZSpeed>
		<tt:DefaultPTZTimeout>PT5S</tt:DefaultPTZTimeout>
	</tt:PTZConfiguration>
</trt:Profiles>`)

	caps, anomalies := ParseCapabilities(b)
	require.Empty(t, anomalies)
	require.Equal(t, []Capabilities{{
		ProfileToken:       "14",
		SupportedMovements: NewMovementSet(Relative),
		SupportedZoom:      NewMovementSet(Continuous),
	}}, caps)
}

func TestParseCapabilitiesOrder(t *testing.T) {
	b := profiles(
		`<trt:Profiles token="main"><tt:PTZConfiguration>
			<tt:DefaultAbsolutePantTiltPositionSpace>x</tt:DefaultAbsolutePantTiltPositionSpace>
			<tt:DefaultContinuousPanTiltVelocitySpace>x</tt:DefaultContinuousPanTiltVelocitySpace>
			<tt:DefaultAbsoluteZoomPositionSpace>x</tt:DefaultAbsoluteZoomPositionSpace>
		</tt:PTZConfiguration></trt:Profiles>`,
		`<trt:Profiles token="no-ptz"><tt:Name>sub</tt:Name></trt:Profiles>`,
		`<trt:Profiles token="sub"><tt:PTZConfiguration>
			<tt:DefaultRelativeZoomTranslationSpace>x</tt:DefaultRelativeZoomTranslationSpace>
		</tt:PTZConfiguration></trt:Profiles>`,
		`<trt:Profiles token="empty"><tt:PTZConfiguration><tt:Name>PTZ</tt:Name></tt:PTZConfiguration></trt:Profiles>`,
	)

	caps, anomalies := ParseCapabilities(b)
	require.Empty(t, anomalies)
	require.Equal(t, []Capabilities{
		{
			ProfileToken:       "main",
			SupportedMovements: NewMovementSet(Absolute, Continuous),
			SupportedZoom:      NewMovementSet(Absolute),
		},
		{
			ProfileToken:  "sub",
			SupportedZoom: NewMovementSet(Relative),
		},
		{
			// no controllable axis, but profile is still reported
			ProfileToken: "empty",
		},
	}, caps)
	require.False(t, caps[2].HasControls())
}

func TestParseCapabilitiesDuplicates(t *testing.T) {
	b := profiles(`<trt:Profiles token="1"><tt:PTZConfiguration>
		<tt:DefaultRelativePanTiltTranslationSpace>a</tt:DefaultRelativePanTiltTranslationSpace>
		<tt:DefaultRelativePanTiltTranslationSpace>b</tt:DefaultRelativePanTiltTranslationSpace>
		<tt:DefaultContinuousZoomVelocitySpace>a</tt:DefaultContinuousZoomVelocitySpace>
		<tt:DefaultContinuousZoomVelocitySpace/>
	</tt:PTZConfiguration></trt:Profiles>`)

	caps, _ := ParseCapabilities(b)
	require.Len(t, caps, 1)
	require.Equal(t, []MovementKind{Relative}, caps[0].SupportedMovements.Kinds())
	require.Equal(t, []MovementKind{Continuous}, caps[0].SupportedZoom.Kinds())
}

func TestParseCapabilitiesEmpty(t *testing.T) {
	caps, anomalies := ParseCapabilities(nil)
	require.Empty(t, caps)
	require.Empty(t, anomalies)

	caps, anomalies = ParseCapabilities(profiles())
	require.Empty(t, caps)
	require.Empty(t, anomalies)

	caps, _ = ParseCapabilities(profiles(`<trt:Profiles token="1"><tt:Name>a</tt:Name></trt:Profiles>`))
	require.Empty(t, caps)
}

func TestParseCapabilitiesOutsideConfig(t *testing.T) {
	// space elements outside PTZConfiguration are not capabilities
	b := profiles(`<trt:Profiles token="1">
		<tt:DefaultRelativePanTiltTranslationSpace>a</tt:DefaultRelativePanTiltTranslationSpace>
		<tt:PTZConfiguration><tt:DefaultContinuousZoomVelocitySpace/></tt:PTZConfiguration>
		<tt:DefaultRelativeZoomTranslationSpace>a</tt:DefaultRelativeZoomTranslationSpace>
	</trt:Profiles>`)

	caps, _ := ParseCapabilities(b)
	require.Equal(t, []Capabilities{{ProfileToken: "1", SupportedZoom: NewMovementSet(Continuous)}}, caps)
}

func TestParseCapabilitiesMalformed(t *testing.T) {
	b := profiles(
		`<trt:Profiles token="1"><tt:PTZConfiguration>
			<tt:Name>< broken</tt:Name>
			<tt:DefaultRelativePanTiltTranslationSpace>a</tt:DefaultRelativePanTiltTranslationSpace>
		</tt:PTZConfiguration></trt:Profiles>`,
		`<trt:Profiles token="2"><tt:PTZConfiguration>
			<tt:DefaultContinuousPanTiltVelocitySpace>a</tt:DefaultContinuousPanTiltVelocitySpace>
		</tt:PTZConfiguration></trt:Profiles>`,
	)

	caps, anomalies := ParseCapabilities(b)
	require.Equal(t, []Capabilities{
		{ProfileToken: "1", SupportedMovements: NewMovementSet(Relative)},
		{ProfileToken: "2", SupportedMovements: NewMovementSet(Continuous)},
	}, caps)

	require.Len(t, anomalies, 1)
	var perr *ParseError
	require.True(t, errors.As(anomalies[0], &perr))
	require.Greater(t, perr.Offset, int64(0))
}

func TestParseCapabilitiesBrokenBeforeElement(t *testing.T) {
	tests := []struct {
		name   string
		config string
		caps   Capabilities
	}{
		{
			name: "unescaped < in attribute",
			config: `<tt:Name x="oops><tt:DefaultRelativeZoomTranslationSpace>a</tt:DefaultRelativeZoomTranslationSpace>
				<tt:DefaultContinuousPanTiltVelocitySpace>a</tt:DefaultContinuousPanTiltVelocitySpace>`,
			caps: Capabilities{
				ProfileToken:       "1",
				SupportedMovements: NewMovementSet(Continuous),
				SupportedZoom:      NewMovementSet(Relative),
			},
		},
		{
			name: "end tag without >",
			config: `<tt:DefaultRelativeZoomTranslationSpace>a</tt:DefaultRelativeZoomTranslationSpace
				<tt:DefaultContinuousPanTiltVelocitySpace>a</tt:DefaultContinuousPanTiltVelocitySpace>`,
			caps: Capabilities{
				ProfileToken:       "1",
				SupportedMovements: NewMovementSet(Continuous),
				SupportedZoom:      NewMovementSet(Relative),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := profiles(`<trt:Profiles token="1"><tt:PTZConfiguration>` + test.config + `</tt:PTZConfiguration></trt:Profiles>`)

			caps, anomalies := ParseCapabilities(b)
			require.Equal(t, []Capabilities{test.caps}, caps)
			require.NotEmpty(t, anomalies)
		})
	}
}

func TestParseCapabilitiesTruncated(t *testing.T) {
	b := profiles(`<trt:Profiles token="1"><tt:PTZConfiguration>
		<tt:DefaultRelativePanTiltTranslationSpace>a</tt:DefaultRelativePanTiltTranslationSpace>
	</tt:PTZConfiguration></trt:Profiles><trt:Profiles token="2"><tt:PTZConf`)

	caps, anomalies := ParseCapabilities(b)
	require.Equal(t, []Capabilities{{ProfileToken: "1", SupportedMovements: NewMovementSet(Relative)}}, caps)
	require.NotEmpty(t, anomalies)
}

func TestPreferredMovement(t *testing.T) {
	all := NewMovementSet(Continuous, Relative, Absolute)

	tests := []struct {
		name      string
		movements MovementSet
		zoom      MovementSet
		direction Direction
		kind      MovementKind
		ok        bool
	}{
		{"relative first", all, 0, Left, Relative, true},
		{"relative over continuous", NewMovementSet(Continuous, Relative), 0, Up, Relative, true},
		{"absolute over continuous", NewMovementSet(Continuous, Absolute), 0, Down, Absolute, true},
		{"continuous only", NewMovementSet(Continuous), 0, Right, Continuous, true},
		{"empty", 0, all, Up, 0, false},
		{"zoom group", NewMovementSet(Relative), NewMovementSet(Continuous), ZoomIn, Continuous, true},
		{"zoom relative", 0, all, ZoomOut, Relative, true},
		{"zoom empty", all, 0, ZoomIn, 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			caps := &Capabilities{SupportedMovements: test.movements, SupportedZoom: test.zoom}
			kind, ok := caps.PreferredMovement(test.direction)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.kind, kind)
		})
	}
}
