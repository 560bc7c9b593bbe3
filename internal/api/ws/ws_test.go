package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T) *websocket.Conn {
	initWS("")

	srv := httptest.NewServer(http.HandlerFunc(apiWS))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Nil(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	return conn
}

func TestWebSocket(t *testing.T) {
	HandleFunc("echo", func(tr *Transport, msg *Message) error {
		tr.Write(&Message{Type: "echo", Value: msg.String()})
		return nil
	})
	HandleFunc("fail", func(tr *Transport, msg *Message) error {
		return errors.New("boom")
	})

	conn := dial(t)

	var res map[string]any

	require.Nil(t, conn.WriteJSON(map[string]any{"type": "echo", "value": "hello"}))
	require.Nil(t, conn.ReadJSON(&res))
	require.Equal(t, map[string]any{"type": "echo", "value": "hello"}, res)

	require.Nil(t, conn.WriteJSON(map[string]any{"type": "fail"}))
	require.Nil(t, conn.ReadJSON(&res))
	require.Equal(t, map[string]any{"type": "error", "value": "fail: boom"}, res)

	require.Nil(t, conn.WriteJSON(map[string]any{"type": "unknown"}))
	require.Nil(t, conn.ReadJSON(&res))
	require.Equal(t, map[string]any{"type": "error", "value": "unknown message type: unknown"}, res)
}

func TestTransportClose(t *testing.T) {
	tr := NewTransport(httptest.NewRequest("GET", "/api/ws", nil))

	var closed int
	tr.OnClose(func() { closed++ })

	tr.Close()
	require.Equal(t, 1, closed)
	require.ErrorIs(t, tr.Context().Err(), context.Canceled)

	// already closed
	tr.OnClose(func() { closed++ })
	require.Equal(t, 2, closed)

	// no writer
	tr.Write(&Message{Type: "ptz"})
}

func TestCheckOrigin(t *testing.T) {
	initWS("")

	r := httptest.NewRequest("GET", "/api/ws", nil)
	r.Host = "ptzd.local"
	r.Header.Set("Origin", "http://ptzd.local:8080")
	require.True(t, wsUp.CheckOrigin(r))

	r.Header.Set("Origin", "http://evil.example")
	require.False(t, wsUp.CheckOrigin(r))

	initWS("*")
	require.True(t, wsUp.CheckOrigin(r))
}
