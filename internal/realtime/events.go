package realtime

import (
	"context"
	"encoding/json"
)

// TopicDeliveries is the queue topic carrying live-delivery events
const TopicDeliveries = "deliveries"

// Event names emitted to the websocket gateway
const (
	EventMessageReceived      = "message received"
	EventNotificationReceived = "notification received"
	EventGroupJoined          = "joined group"
	EventGroupUpdated         = "group updated"
	EventGroupDeleted         = "group deleted"
	EventMemberRemoved        = "removed from group"
)

// Event one live delivery to one socket
type Event struct {
	SocketID string      `json:"socket_id"`
	Name     string      `json:"name"`
	Payload  interface{} `json:"payload,omitempty"`
}

// Publisher enqueues delivery events for the worker. Enqueueing is
// fire-and-forget from the caller's perspective; a full queue or closed
// queue only surfaces as an error to log.
type Publisher struct {
	queue Queue
}

// NewPublisher creates a publisher on the given queue
func NewPublisher(queue Queue) *Publisher {
	return &Publisher{queue: queue}
}

// Push enqueues a single event
func (p *Publisher) Push(ctx context.Context, event Event) error {
	if event.SocketID == "" {
		// offline recipient, nothing to deliver live
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.queue.Publish(ctx, TopicDeliveries, data)
}

// Broadcast enqueues one event per socket id
func (p *Publisher) Broadcast(ctx context.Context, name string, socketIDs []string, payload interface{}) error {
	for _, id := range socketIDs {
		if err := p.Push(ctx, Event{SocketID: id, Name: name, Payload: payload}); err != nil {
			return err
		}
	}
	return nil
}
