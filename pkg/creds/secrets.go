package creds

import (
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// AddSecret register value that will be masked as *** in logs and API responses
func AddSecret(value string) {
	if value == "" {
		return
	}

	secretsMu.Lock()
	defer secretsMu.Unlock()

	if slices.Contains(secrets, value) {
		return
	}

	secrets = append(secrets, value)
	secretsReplacer = nil
}

var secrets []string
var secretsMu sync.Mutex
var secretsReplacer *strings.Replacer

func getReplacer() *strings.Replacer {
	secretsMu.Lock()
	defer secretsMu.Unlock()

	if secretsReplacer == nil {
		oldnew := make([]string, 0, 2*len(secrets))
		for _, s := range secrets {
			oldnew = append(oldnew, s, "***")
		}
		secretsReplacer = strings.NewReplacer(oldnew...)
	}

	return secretsReplacer
}

func SecretString(s string) string {
	re := getReplacer()
	return re.Replace(s)
}

// SecretWriter mask all registered secrets before writing to w
func SecretWriter(w io.Writer) io.Writer {
	return &secretWriter{w}
}

type secretWriter struct {
	w io.Writer
}

// Write report len(b) on success, masked output length may differ
func (s *secretWriter) Write(b []byte) (int, error) {
	re := getReplacer()
	if _, err := re.WriteString(s.w, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

type secretResponse struct {
	w http.ResponseWriter
}

func (s *secretResponse) Header() http.Header {
	return s.w.Header()
}

func (s *secretResponse) Write(b []byte) (int, error) {
	re := getReplacer()
	return re.WriteString(s.w, string(b))
}

func (s *secretResponse) WriteHeader(statusCode int) {
	s.w.WriteHeader(statusCode)
}

func SecretResponse(w http.ResponseWriter) http.ResponseWriter {
	return &secretResponse{w}
}
