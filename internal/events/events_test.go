package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestEventJSONShape(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(Event{Type: TypeApproved, Entity: EntityJob, ID: 4, Status: "approved", Actor: "root", At: at})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"approved","entity":"job","id":4,"status":"approved","actor":"root","at":"2024-05-01T12:00:00Z"}`
	if string(payload) != want {
		t.Fatalf("unexpected payload\n got %s\nwant %s", payload, want)
	}
}

func TestRedisPublisherReportsConnectionError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	if err := NewRedisPublisher(client).Publish(context.Background(), Event{Type: TypeSubmitted}); err == nil {
		t.Fatal("expected publish error against unreachable redis")
	}
}
