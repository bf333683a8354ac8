package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonredis "github.com/smanilla/mindtrack/common/redis"
	"github.com/smanilla/mindtrack/internal/models"

	"github.com/go-redis/redis/v8"
)

// RedAlertEvent published once per crisis submission, after notifications settle.
type RedAlertEvent struct {
	AssessmentID  string                     `json:"assessmentId"`
	UserID        string                     `json:"userId"`
	PatientName   string                     `json:"patientName"`
	Notifications *models.NotificationResult `json:"notifications,omitempty"`
	CreatedAt     time.Time                  `json:"createdAt"`
}

// Publisher downstream sink for red-alert events
type Publisher interface {
	Publish(ctx context.Context, ev RedAlertEvent) error
}

// RedisStreamPublisher appends events to a Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, ev RedAlertEvent) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, p.maxLen, ev); err != nil {
		return fmt.Errorf("publish red alert to stream %s: %w", p.stream, err)
	}
	return nil
}

// MessagePublisher the subset of the MQTT client used here
type MessagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTPublisher sends events as JSON messages on one topic.
type MQTTPublisher struct {
	client MessagePublisher
	topic  string
	qos    byte
}

func NewMQTTPublisher(client MessagePublisher, topic string, qos byte) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, qos: qos}
}

func (p *MQTTPublisher) Publish(_ context.Context, ev RedAlertEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.client.Publish(p.topic, p.qos, false, payload); err != nil {
		return fmt.Errorf("publish red alert to topic %s: %w", p.topic, err)
	}
	return nil
}

// Multi publishes to every sink and joins the errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev RedAlertEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, RedAlertEvent) error { return nil }
