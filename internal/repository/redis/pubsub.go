package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityPubSub announces that some tenant's availability for a day
// changed, so interested consumers (UI pushes, cache warmers) can react.
type AvailabilityPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewAvailabilityPubSub(rdb *redis.Client) *AvailabilityPubSub {
	return &AvailabilityPubSub{
		rdb:     rdb,
		channel: ChannelAvailabilityChanged(),
	}
}

type availabilityChangedMsg struct {
	Type     string `json:"type"`
	TenantID int64  `json:"tenant_id"`
	Day      string `json:"day"`
	TsUnix   int64  `json:"ts_unix"`
}

func (p *AvailabilityPubSub) PublishChanged(ctx context.Context, tenantID int64, day string) error {
	msg := availabilityChangedMsg{
		Type:     "availability_changed",
		TenantID: tenantID,
		Day:      day,
		TsUnix:   time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *AvailabilityPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, tenantID int64, day string)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg availabilityChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil &&
				msg.TenantID != 0 {
				handler(ctx, msg.TenantID, msg.Day)
			}
		}
	}
}
