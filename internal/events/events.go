package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel 是审核事件广播使用的 Redis 频道。
const Channel = "moderation:events"

type Type string

const (
	TypeSubmitted   Type = "submitted"
	TypeApproved    Type = "approved"
	TypeRejected    Type = "rejected"
	TypeDeactivated Type = "deactivated"
	TypeReset       Type = "reset"
	TypeExpired     Type = "expired"
)

// Entity 标识事件所属的记录类型。
const (
	EntityJob       = "job"
	EntityJobSeeker = "job_seeker"
)

// Event 是推送给后台的审核事件。
type Event struct {
	Type   Type      `json:"type"`
	Entity string    `json:"entity"`
	ID     uint      `json:"id,omitempty"`
	Status string    `json:"status,omitempty"`
	Actor  string    `json:"actor,omitempty"`
	Count  int64     `json:"count,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher 发布审核事件。发布失败只记录日志，不影响业务结果。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher 通过 Redis Pub/Sub 广播事件。
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Nop 丢弃所有事件。
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
