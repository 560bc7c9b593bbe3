package yaml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatchMonitors(t *testing.T) {
	b := []byte(`# ptzd`)

	b, err := Patch(b, "gate", "http://10.0.0.2/onvif", "monitors")
	require.Nil(t, err)
	require.Equal(t, `# ptzd
monitors:
  gate: http://10.0.0.2/onvif
`, string(b))

	b, err = Patch(b, "yard", "http://10.0.0.3/onvif", "monitors")
	require.Nil(t, err)
	require.Equal(t, `# ptzd
monitors:
  gate: http://10.0.0.2/onvif
  yard: http://10.0.0.3/onvif
`, string(b))

	b, err = Patch(b, "gate", "http://10.0.0.4/onvif", "monitors")
	require.Nil(t, err)
	require.Equal(t, `# ptzd
monitors:
  gate: http://10.0.0.4/onvif
  yard: http://10.0.0.3/onvif
`, string(b))

	b, err = Patch(b, "gate", nil, "monitors")
	require.Nil(t, err)
	require.Equal(t, `# ptzd
monitors:
  yard: http://10.0.0.3/onvif
`, string(b))
}

func TestPatchNested(t *testing.T) {
	b := []byte(`ptz:
  cache_ttl: 5m
monitors:
  gate: http://10.0.0.2/onvif
`)

	b, err := Patch(b, "check_faults", true, "ptz")
	require.Nil(t, err)
	require.Equal(t, `ptz:
  cache_ttl: 5m
  check_faults: true
monitors:
  gate: http://10.0.0.2/onvif
`, string(b))

	_, err = Patch(b, "level", "debug", "log", "ptz")
	require.EqualError(t, err, "config: path not exist")
}
