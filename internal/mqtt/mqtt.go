package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/vigilcam/ptzd/internal/app"
	"github.com/vigilcam/ptzd/internal/ptz"
	"github.com/vigilcam/ptzd/pkg/creds"
	"github.com/vigilcam/ptzd/pkg/onvif"
)

func Init() {
	var cfg struct {
		Mod struct {
			Broker   string `yaml:"broker"`
			ClientID string `yaml:"client_id"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
			QoS      byte   `yaml:"qos"`
		} `yaml:"mqtt"`
	}

	cfg.Mod.ClientID = "ptzd"
	cfg.Mod.Prefix = "ptzd"

	app.LoadConfig(&cfg)

	if cfg.Mod.Broker == "" {
		return
	}

	log = app.GetLogger("mqtt")

	creds.AddSecret(cfg.Mod.Password)

	h := &handler{prefix: cfg.Mod.Prefix, qos: cfg.Mod.QoS, move: ptz.Move}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Mod.Broker).
		SetClientID(cfg.Mod.ClientID).
		SetUsername(cfg.Mod.Username).
		SetPassword(cfg.Mod.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	// subscription is lost after reconnect with clean session
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		topic := h.prefix + "/+/move"
		if token := client.Subscribe(topic, h.qos, h.onMessage); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("[mqtt] subscribe")
			return
		}
		log.Info().Str("topic", topic).Msg("[mqtt] subscribe")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("[mqtt] connection lost")
	})

	client := mqtt.NewClient(opts)
	h.publish = func(topic string, payload []byte) {
		client.Publish(topic, h.qos, false, payload)
	}

	// with connect retry token completes only after first successful connect
	client.Connect()

	log.Info().Str("broker", cfg.Mod.Broker).Msg("[mqtt] connect")
}

var log zerolog.Logger

// MoveTimeout limit one command from broker
const MoveTimeout = 15 * time.Second

type handler struct {
	prefix  string
	qos     byte
	move    func(ctx context.Context, monitor string, d onvif.Direction) (*ptz.MoveResult, error)
	publish func(topic string, payload []byte)
}

type moveMessage struct {
	Direction onvif.Direction `json:"direction"`
}

type resultMessage struct {
	*ptz.MoveResult
	Error string `json:"error,omitempty"`
}

// onMessage handle `<prefix>/<monitor>/move` and reply to `<prefix>/<monitor>/result`.
// Move runs outside paho router goroutine, camera lock and continuous window can take seconds.
func (h *handler) onMessage(_ mqtt.Client, msg mqtt.Message) {
	monitor, ok := h.monitor(msg.Topic())
	if !ok {
		return
	}

	var req moveMessage
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		h.reply(monitor, &resultMessage{Error: err.Error()})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), MoveTimeout)
		defer cancel()

		var res resultMessage
		var err error
		if res.MoveResult, err = h.move(ctx, monitor, req.Direction); err != nil {
			res.Error = err.Error()
		}
		h.reply(monitor, &res)
	}()
}

func (h *handler) reply(monitor string, res *resultMessage) {
	if res.Error != "" {
		log.Debug().Str("monitor", monitor).Str("error", res.Error).Msg("[mqtt] move")
	}

	b, _ := json.Marshal(res)
	h.publish(h.prefix+"/"+monitor+"/result", []byte(creds.SecretString(string(b))))
}

func (h *handler) monitor(topic string) (string, bool) {
	s, ok := strings.CutPrefix(topic, h.prefix+"/")
	if !ok {
		return "", false
	}
	s, ok = strings.CutSuffix(s, "/move")
	if !ok || s == "" || strings.IndexByte(s, '/') >= 0 {
		return "", false
	}
	return s, true
}
