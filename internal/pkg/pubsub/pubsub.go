package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelPlanEvents = "plan_events"

	EventPlanUpdated = "plan_updated"
)

// PlanEvent tells connected panels that a user's plan changed.
type PlanEvent struct {
	Type      string     `json:"type"`
	UserID    string     `json:"user_id"`
	Status    string     `json:"status"`
	PlanType  string     `json:"plan_type,omitempty"`
	DaysLeft  int        `json:"days_left"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	PaymentID string     `json:"payment_id,omitempty"`
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishPlanEvent(ctx context.Context, event *PlanEvent) error {
	if event.Type == "" {
		event.Type = EventPlanUpdated
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal plan event: %w", err)
	}

	return p.client.Publish(ctx, ChannelPlanEvents, data).Err()
}

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe calls handler for every plan event until ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*PlanEvent)) error {
	sub := s.client.Subscribe(ctx, ChannelPlanEvents)
	defer sub.Close()

	// wait for the subscription to be confirmed so no event is missed
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", ChannelPlanEvents, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event PlanEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}

			handler(&event)
		}
	}
}
