package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChangeFeedChannel is the Redis pub/sub channel carrying entity-change
// notices for read-side consumers.
const ChangeFeedChannel = "helpdesk:changes"

// ChangeNotice is the wire form of a change published to the feed. Consumers
// must treat delivery as at-least-once and re-derive aggregates from the
// store rather than patching counters.
type ChangeNotice struct {
	EventID  string    `json:"event_id"`
	Type     EventType `json:"type"`
	TicketID string    `json:"ticket_id"`
}

// ChangeFeed bridges in-process domain events onto Redis pub/sub so that
// read-side workers (possibly in other processes) observe mutations without
// polling.
type ChangeFeed struct {
	client *redis.Client
	logger *zap.Logger
}

// NewChangeFeed constructs the bridge.
func NewChangeFeed(client *redis.Client, logger *zap.Logger) *ChangeFeed {
	return &ChangeFeed{client: client, logger: logger}
}

// Bind subscribes the feed to every mutation event on the dispatcher.
func (f *ChangeFeed) Bind(dispatcher Dispatcher) {
	types := []EventType{
		EventTicketCreated,
		EventTicketAssigned,
		EventTicketResolved,
		EventTicketClosed,
		EventTicketReopened,
		EventTicketDetailsUpdated,
		EventReferralCreated,
		EventReferralResponded,
		EventTicketEscalated,
		EventEscalationResolved,
		EventTicketMessageAdded,
	}
	for _, t := range types {
		dispatcher.Subscribe(t, f.publish)
	}
}

func (f *ChangeFeed) publish(ctx context.Context, event Event) error {
	notice := ChangeNotice{
		EventID:  event.ID,
		Type:     event.Type,
		TicketID: event.TicketID,
	}
	payload, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, ChangeFeedChannel, payload).Err(); err != nil {
		f.logger.Warn("change feed publish failed", zap.Error(err), zap.String("event_id", event.ID))
		return err
	}
	return nil
}

// Listen consumes the feed and invokes handle for each notice until ctx is
// cancelled. Malformed payloads are logged and skipped.
func (f *ChangeFeed) Listen(ctx context.Context, handle func(context.Context, ChangeNotice)) {
	sub := f.client.Subscribe(ctx, ChangeFeedChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var notice ChangeNotice
			if err := json.Unmarshal([]byte(msg.Payload), &notice); err != nil {
				f.logger.Warn("malformed change notice", zap.Error(err))
				continue
			}
			handle(ctx, notice)
		}
	}
}
