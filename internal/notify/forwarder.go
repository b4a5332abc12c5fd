package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/steamfolio/portfolio/internal/domain"
)

// Publisher writes a keyed message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Forwarder relays unlock events to a message broker. HandleUnlock only
// enqueues; Run performs the writes so unlocks never wait on the broker.
type Forwarder struct {
	publisher Publisher
	topic     string
	timeout   time.Duration
	queue     chan domain.Event
	logger    *slog.Logger
}

// NewForwarder creates a forwarder publishing to topic.
func NewForwarder(publisher Publisher, topic string, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		publisher: publisher,
		topic:     topic,
		timeout:   5 * time.Second,
		queue:     make(chan domain.Event, 256),
		logger:    logger,
	}
}

// HandleUnlock is an unlock listener that enqueues the event envelope.
func (f *Forwarder) HandleUnlock(a domain.Achievement) {
	f.enqueue(domain.NewAchievementUnlockedEvent(a))
}

// HandleReset enqueues a reset envelope.
func (f *Forwarder) HandleReset() {
	f.enqueue(domain.NewAchievementsResetEvent())
}

func (f *Forwarder) enqueue(evt domain.Event) {
	select {
	case f.queue <- evt:
	default:
		f.logger.Warn("forwarder queue full, dropping event", "event_id", evt.EventID, "event_type", evt.EventType)
	}
}

// Run publishes queued events until ctx is cancelled, then flushes what is
// already queued.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case evt := <-f.queue:
			f.publish(ctx, evt)
		case <-ctx.Done():
			for {
				select {
				case evt := <-f.queue:
					f.publish(context.WithoutCancel(ctx), evt)
				default:
					return
				}
			}
		}
	}
}

func (f *Forwarder) publish(ctx context.Context, evt domain.Event) {
	value, err := json.Marshal(evt)
	if err != nil {
		f.logger.Error("marshal event", "error", err, "event_id", evt.EventID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := f.publisher.Publish(ctx, f.topic, []byte(evt.Key), value); err != nil {
		f.logger.Error("publish event failed", "error", err, "event_id", evt.EventID, "topic", f.topic)
		return
	}
	f.logger.Debug("event published", "event_id", evt.EventID, "event_type", evt.EventType, "topic", f.topic)
}
