package ptz

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vigilcam/ptzd/pkg/onvif"
)

// Event - result of one move command
type Event struct {
	ID        string             `json:"id"`
	Monitor   string             `json:"monitor"`
	Direction onvif.Direction    `json:"direction"`
	Movement  onvif.MovementKind `json:"movement,omitempty"`
	Error     string             `json:"error,omitempty"`
	Time      time.Time          `json:"time"`
}

type Publisher interface {
	Publish(event *Event) error
}

// natsConn - part of *nats.Conn used for events
type natsConn interface {
	Publish(subject string, data []byte) error
}

const DefaultSubject = "ptz.events"

type NATSPublisher struct {
	conn       natsConn
	subject    string
	maxRetries int
	backoff    time.Duration
}

func NewNATSPublisher(conn natsConn, subject string, maxRetries int) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{
		conn:       conn,
		subject:    subject,
		maxRetries: maxRetries,
		backoff:    100 * time.Millisecond,
	}
}

func (p *NATSPublisher) Publish(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ptz: marshal event: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * p.backoff)
		}
		if err = p.conn.Publish(p.subject, data); err == nil {
			return nil
		}
	}

	return fmt.Errorf("ptz: publish failed after %d retries: %w", p.maxRetries, err)
}
