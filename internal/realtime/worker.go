package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gigmarket/internal/monitor"
	"gigmarket/pkg/log"
)

// Worker drains the delivery topic and publishes each event to the
// recipient's per-socket Redis channel. The websocket gateway subscribes to
// those channels; a missed publish only means the client falls back to its
// next fetch.
type Worker struct {
	queue  Queue
	client *redis.Client
}

// NewWorker creates a delivery worker
func NewWorker(queue Queue, client *redis.Client) *Worker {
	return &Worker{queue: queue, client: client}
}

// Start begins consuming deliveries until the context is cancelled
func (w *Worker) Start(ctx context.Context) error {
	return w.queue.Subscribe(ctx, TopicDeliveries, w.handle)
}

func (w *Worker) handle(ctx context.Context, topic string, message []byte) error {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.WithError(err).Error("Failed to decode delivery event")
		return err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"name":    event.Name,
		"payload": event.Payload,
	})
	if err != nil {
		return err
	}

	channel := fmt.Sprintf("socket:%s", event.SocketID)
	if err := w.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.WithFields(map[string]interface{}{
			"socket_id": event.SocketID,
			"event":     event.Name,
			"error":     err.Error(),
		}).Warn("Live delivery failed")
		monitor.DeliveriesFailed.Inc()
		return err
	}

	monitor.DeliveriesPublished.WithLabelValues(event.Name).Inc()
	return nil
}
