package onvif

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

const DefaultTimeout = 5 * time.Second

// Transport send SOAP envelope and return raw response body
type Transport interface {
	Post(ctx context.Context, rawURL string, body []byte) ([]byte, error)
}

// TransportError - camera can't be reached or response can't be read
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return "onvif: transport " + e.URL + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPTransport - POST over HTTP. Status code and SOAP Fault are ignored unless CheckFaults is set.
type HTTPTransport struct {
	Client      *http.Client
	CheckFaults bool
}

func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{Client: &http.Client{Timeout: timeout}}
}

func (t *HTTPTransport) Post(ctx context.Context, rawURL string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	if t.CheckFaults {
		if err = checkResponse(res.StatusCode, b); err != nil {
			return nil, err
		}
	}

	return b, nil
}
