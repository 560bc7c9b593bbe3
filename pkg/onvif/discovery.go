package onvif

import (
	"context"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DiscoveryTimeout = 3 * time.Second

var discoveryAddr = &net.UDPAddr{IP: net.IP{239, 255, 255, 250}, Port: 3702}

// ProbeMessage - WS-Discovery probe for ONVIF devices with PTZ service
func ProbeMessage(messageID string) []byte {
	return []byte(`<?xml version="1.0" ?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
	<s:Header xmlns:a="http://schemas.xmlsoap.org/ws/2004/08/addressing">
		<a:Action>http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</a:Action>
		<a:MessageID>uuid:` + messageID + `</a:MessageID>
		<a:To>urn:schemas-xmlsoap-org:ws:2005:04:discovery</a:To>
	</s:Header>
	<s:Body>
		<d:Probe xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery">
			<d:Types>tds:Device</d:Types>
		</d:Probe>
	</s:Body>
</s:Envelope>`)
}

var reXAddrs = regexp.MustCompile(`XAddrs[^>]*>([^<]+)`)

// ParseProbeMatch return HTTP service URLs from ProbeMatch response
func ParseProbeMatch(b []byte) []string {
	m := reXAddrs.FindSubmatch(b)
	if len(m) != 2 {
		return nil
	}

	var urls []string
	// one device can announce several addresses
	for _, rawURL := range strings.Fields(string(m[1])) {
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme != "http" || u.Host == "" {
			continue
		}
		urls = append(urls, u.String())
	}
	return urls
}

// DiscoverDevices send multicast probe and collect device service URLs until ctx done or timeout
func DiscoverDevices(ctx context.Context, timeout time.Duration) ([]string, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err = conn.WriteTo(ProbeMessage(uuid.NewString()), discoveryAddr); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = DiscoveryTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	var urls []string
	seen := map[string]bool{}

	b := make([]byte, 8192)
	for {
		n, _, err := conn.ReadFrom(b)
		if err != nil {
			break
		}

		for _, rawURL := range ParseProbeMatch(b[:n]) {
			if !seen[rawURL] {
				seen[rawURL] = true
				urls = append(urls, rawURL)
			}
		}
	}

	return urls, nil
}
