package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// SchedulesPubSub broadcasts seat-map changes so other instances can drop
// their local caches without waiting for the TTL.
type SchedulesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewSchedulesPubSub(rdb *redis.Client) *SchedulesPubSub {
	return &SchedulesPubSub{
		rdb:     rdb,
		channel: ChannelSchedulesChanged(),
	}
}

type scheduleChangedMsg struct {
	Type       string `json:"type"`
	ScheduleID int64  `json:"schedule_id"`
	TsUnix     int64  `json:"ts_unix"`
}

func (p *SchedulesPubSub) PublishScheduleChanged(ctx context.Context, scheduleID int64) error {
	msg := scheduleChangedMsg{
		Type:       "schedule_changed",
		ScheduleID: scheduleID,
		TsUnix:     time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *SchedulesPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, scheduleID int64)) error {
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
			var ev scheduleChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.ScheduleID != 0 {
				handler(ctx, ev.ScheduleID)
			}
		}
	}
}
