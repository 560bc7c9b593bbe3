package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/vigilcam/ptzd/internal/api"
	"github.com/vigilcam/ptzd/internal/app"
)

func Init() {
	var cfg struct {
		Mod struct {
			Origin string `yaml:"origin"`
		} `yaml:"api"`
	}

	app.LoadConfig(&cfg)

	log = app.GetLogger("api")

	initWS(cfg.Mod.Origin)

	api.HandleFunc("api/ws", apiWS)
}

var log zerolog.Logger

// Message - struct for data exchange in Web API
type Message struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
	Raw   []byte `json:"-"`
}

func (m *Message) String() (value string) {
	_ = json.Unmarshal(m.Raw, &value)
	return
}

func (m *Message) Unmarshal(v any) error {
	return json.Unmarshal(m.Raw, v)
}

type WSHandler func(tr *Transport, msg *Message) error

func HandleFunc(msgType string, handler WSHandler) {
	wsHandlers[msgType] = handler
}

var wsHandlers = make(map[string]WSHandler)

func initWS(origin string) {
	wsUp = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}

	switch origin {
	case "":
		// same origin + ignore port
		wsUp.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header["Origin"]
			if len(origin) == 0 {
				return true
			}
			o, err := url.Parse(origin[0])
			if err != nil {
				return false
			}
			if o.Host == r.Host {
				return true
			}
			log.Trace().Msgf("[api] ws origin=%s, host=%s", o.Host, r.Host)
			if i := strings.IndexByte(o.Host, ':'); i > 0 {
				return o.Host[:i] == r.Host
			}
			return false
		}
	case "*":
		// any origin
		wsUp.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

func apiWS(w http.ResponseWriter, r *http.Request) {
	ws, err := wsUp.Upgrade(w, r, nil)
	if err != nil {
		origin := r.Header.Get("Origin")
		log.Error().Err(err).Caller().Msgf("host=%s origin=%s", r.Host, origin)
		return
	}

	tr := NewTransport(r)
	tr.OnWrite(func(msg any) error {
		_ = ws.SetWriteDeadline(time.Now().Add(time.Second * 5))
		return ws.WriteJSON(msg)
	})

	for {
		var raw struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		}
		if err = ws.ReadJSON(&raw); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
				log.Trace().Err(err).Caller().Send()
			}
			_ = ws.Close()
			break
		}

		msg := &Message{Type: raw.Type, Raw: raw.Value}

		log.Trace().Str("type", msg.Type).Msg("[api] ws msg")

		handler := wsHandlers[msg.Type]
		if handler == nil {
			tr.Write(&Message{Type: "error", Value: "unknown message type: " + msg.Type})
			continue
		}

		go func() {
			if err := handler(tr, msg); err != nil {
				tr.Write(&Message{Type: "error", Value: msg.Type + ": " + err.Error()})
			}
		}()
	}

	tr.Close()
}

var wsUp *websocket.Upgrader

// Transport - one WebSocket connection. Context is cancelled when connection closes.
type Transport struct {
	Request *http.Request

	ctx    context.Context
	cancel context.CancelFunc

	closed bool
	mx     sync.Mutex
	wrmx   sync.Mutex

	onWrite func(msg any) error
	onClose []func()
}

func NewTransport(r *http.Request) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{Request: r, ctx: ctx, cancel: cancel}
}

func (t *Transport) Context() context.Context {
	return t.ctx
}

func (t *Transport) OnWrite(f func(msg any) error) {
	t.mx.Lock()
	t.onWrite = f
	t.mx.Unlock()
}

func (t *Transport) Write(msg any) {
	t.mx.Lock()
	f := t.onWrite
	t.mx.Unlock()

	if f == nil {
		return
	}

	t.wrmx.Lock()
	_ = f(msg)
	t.wrmx.Unlock()
}

func (t *Transport) Close() {
	t.mx.Lock()
	fns := t.onClose
	t.onClose = nil
	t.closed = true
	t.mx.Unlock()

	t.cancel()

	for _, f := range fns {
		f()
	}
}

func (t *Transport) OnClose(f func()) {
	t.mx.Lock()
	if t.closed {
		f()
	} else {
		t.onClose = append(t.onClose, f)
	}
	t.mx.Unlock()
}
