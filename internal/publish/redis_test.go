package publish

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/cardsight/internal/session"
)

func TestEncode(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	payload, err := Encode("status", "s1", session.StatusDetecting, at)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var msg struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
		Data      string `json:"data"`
		At        string `json:"at"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if msg.Type != "status" || msg.SessionID != "s1" || msg.Data != "detecting" {
		t.Errorf("message = %+v", msg)
	}
	if msg.At != "2024-05-01T12:00:00Z" {
		t.Errorf("at = %s", msg.At)
	}
}

func TestNewRedisSink_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test")
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := NewRedisSink(ctx, "127.0.0.1:1", "cardsight:test", "s1", log); err == nil {
		t.Error("expected error for unreachable redis")
	}
}

func TestRedisSink_Publishes(t *testing.T) {
	addr := os.Getenv("CARDSIGHT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CARDSIGHT_TEST_REDIS_ADDR not set")
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := context.Background()

	sink, err := NewRedisSink(ctx, addr, "cardsight:test", "s1", log)
	if err != nil {
		t.Fatalf("NewRedisSink() error = %v", err)
	}
	defer sink.Close()

	sub := redis.NewClient(&redis.Options{Addr: addr}).Subscribe(ctx, "cardsight:test")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	sink.OnMetrics(session.Metrics{FPS: 2, TotalDetections: 5})

	select {
	case msg := <-sub.Channel():
		var got struct {
			Type string          `json:"type"`
			Data session.Metrics `json:"data"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if got.Type != "metrics" || got.Data.TotalDetections != 5 {
			t.Errorf("message = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
