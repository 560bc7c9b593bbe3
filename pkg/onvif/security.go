package onvif

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"net/url"
	"time"
)

// CreatedLayout - WS-Security Created timestamp with milliseconds and literal Z
const CreatedLayout = "2006-01-02T15:04:05.000Z"

const NonceSize = 16

// Security build WS-Security UsernameToken headers (PasswordDigest profile).
// Now and Rand can be replaced for deterministic output.
type Security struct {
	Now  func() time.Time
	Rand io.Reader
}

var DefaultSecurity = &Security{}

// UsernameToken return <wsse:Security> header fragment.
// Elements order Username, Password, Nonce, Created is important for some cameras.
func (s *Security) UsernameToken(username, password string) string {
	nonce := s.nonce()
	created := s.now().UTC().Format(CreatedLayout)
	digest := PasswordDigest(nonce, created, password)

	return fmt.Sprintf(`<wsse:Security xmlns:wsse="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd" xmlns:wsu="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd">
	<wsse:UsernameToken>
		<wsse:Username>%s</wsse:Username>
		<wsse:Password Type="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordDigest">%s</wsse:Password>
		<wsse:Nonce EncodingType="http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary">%s</wsse:Nonce>
		<wsu:Created>%s</wsu:Created>
	</wsse:UsernameToken>
</wsse:Security>`,
		html.EscapeString(username), digest, base64.StdEncoding.EncodeToString(nonce), created,
	)
}

// PasswordDigest - Base64(SHA1(nonce + created + password)), nonce as raw bytes
func PasswordDigest(nonce []byte, created, password string) string {
	h := sha1.New()
	h.Write(nonce)
	h.Write([]byte(created))
	h.Write([]byte(password))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func (s *Security) nonce() []byte {
	r := s.Rand
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, b); err != nil {
		// no entropy means broken system, not a request error
		panic(err)
	}
	return b
}

func (s *Security) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// ExtractCredentials return URL without user info and security header for its credentials.
// Header is empty (unauthenticated request) if username or password is missing.
func (s *Security) ExtractCredentials(u *url.URL) (*url.URL, string) {
	clean := *u
	clean.User = nil

	if u.User == nil {
		return &clean, ""
	}

	username := u.User.Username()
	password, ok := u.User.Password()
	if username == "" || !ok || password == "" {
		return &clean, ""
	}

	return &clean, s.UsernameToken(username, password)
}

func ExtractCredentials(u *url.URL) (*url.URL, string) {
	return DefaultSecurity.ExtractCredentials(u)
}
