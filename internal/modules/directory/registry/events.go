package registry

import (
	"context"
	"encoding/json"
	"fmt"

	pkgredis "github.com/bdp-api/helper/internal/pkg/redis"
	"go.uber.org/zap"
)

// EventType names the two external schema-change events.
type EventType string

const (
	EventFieldSaved   EventType = "field_saved"
	EventFieldDeleted EventType = "field_deleted"

	// EventChannel is the Redis channel schema-management processes publish to.
	EventChannel = "directory:form_fields"
)

// Event announces that a form field was saved or deleted.
type Event struct {
	Type    EventType `json:"type"`
	FieldID uint      `json:"field_id"`
}

// EventBus fans schema-change events out to every serving process.
type EventBus interface {
	Publish(ctx context.Context, ev Event) error
	Listen(ctx context.Context, handle func(context.Context, Event) error) error
}

// RedisBus is an EventBus over Redis pub/sub.
type RedisBus struct {
	rc     *pkgredis.Client
	logger *zap.Logger
}

func NewRedisBus(rc *pkgredis.Client, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{rc: rc, logger: logger.Named("FieldEvents")}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if err := b.rc.PublishJSON(ctx, EventChannel, ev); err != nil {
		return fmt.Errorf("publish field event: %w", err)
	}
	return nil
}

// Listen blocks, dispatching events until ctx is cancelled.
func (b *RedisBus) Listen(ctx context.Context, handle func(context.Context, Event) error) error {
	sub := b.rc.Subscribe(ctx, EventChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				b.logger.Warn("discarding malformed field event", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			if err := handle(ctx, ev); err != nil {
				b.logger.Warn("field event handler failed", zap.Error(err))
			}
		}
	}
}

// DecodeEvent parses and checks an event payload.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	switch ev.Type {
	case EventFieldSaved, EventFieldDeleted:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
}
