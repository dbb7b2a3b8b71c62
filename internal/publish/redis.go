// Package publish fans session events out to Redis subscribers.
package publish

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PublishTimeout bounds a single PUBLISH call.
const PublishTimeout = time.Second

// Message is the payload published for each event.
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
	At        time.Time   `json:"at"`
}

// RedisSink publishes every session event as JSON on one channel.
// Publish failures are logged and dropped.
type RedisSink struct {
	client    *redis.Client
	channel   string
	sessionID string
	log       logrus.FieldLogger
}

// NewRedisSink connects to addr and verifies the connection with PING.
func NewRedisSink(ctx context.Context, addr, channel, sessionID string, log logrus.FieldLogger) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	log.WithFields(logrus.Fields{"addr": addr, "channel": channel}).Info("publishing events to redis")
	return &RedisSink{
		client:    client,
		channel:   channel,
		sessionID: sessionID,
		log:       log.WithField("component", "publish"),
	}, nil
}

// Encode builds the JSON payload for one event.
func Encode(eventType, sessionID string, data interface{}, at time.Time) ([]byte, error) {
	return json.Marshal(Message{Type: eventType, SessionID: sessionID, Data: data, At: at})
}

func (s *RedisSink) publish(eventType string, data interface{}) {
	payload, err := Encode(eventType, s.sessionID, data, time.Now())
	if err != nil {
		s.log.WithError(err).WithField("type", eventType).Error("failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.log.WithError(err).WithField("type", eventType).Warn("failed to publish event")
	}
}

func (s *RedisSink) OnDetections(r session.Result)     { s.publish("detections", r) }
func (s *RedisSink) OnHandUpdate(u session.HandUpdate) { s.publish("hands", u) }
func (s *RedisSink) OnStatusChange(st session.Status)  { s.publish("status", st) }
func (s *RedisSink) OnMetrics(m session.Metrics)       { s.publish("metrics", m) }

func (s *RedisSink) OnError(err error) {
	s.publish("error", map[string]string{"error": err.Error()})
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
