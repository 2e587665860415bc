package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("PublishAndSubscribe", func(t *testing.T) {
		mq := NewMemoryQueue(nil)
		defer mq.Close()

		message := []byte("test message")
		received := make(chan []byte, 1)

		handler := func(ctx context.Context, topic string, msg []byte) error {
			received <- msg
			return nil
		}

		require.NoError(t, mq.Subscribe(ctx, TopicDeliveries, handler))

		require.NoError(t, mq.Publish(ctx, TopicDeliveries, message))

		select {
		case receivedMsg := <-received:
			assert.Equal(t, message, receivedMsg)
		case <-time.After(time.Second):
			t.Fatal("Message not received within timeout")
		}
	})

	t.Run("ClosedQueueRejectsPublish", func(t *testing.T) {
		mq := NewMemoryQueue(nil)
		require.NoError(t, mq.Close())

		err := mq.Publish(ctx, TopicDeliveries, []byte("late"))
		assert.ErrorIs(t, err, ErrQueueClosed)
	})

	t.Run("PublishTimesOutWhenFull", func(t *testing.T) {
		mq := NewMemoryQueue(&MemoryQueueConfig{
			BufferSize: 1,
			Timeout:    20 * time.Millisecond,
		})
		defer mq.Close()

		require.NoError(t, mq.Publish(ctx, "full-topic", []byte("one")))

		err := mq.Publish(ctx, "full-topic", []byte("two"))
		assert.ErrorIs(t, err, ErrPublishTimeout)
	})
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("SkipsOfflineRecipients", func(t *testing.T) {
		mq := NewMemoryQueue(&MemoryQueueConfig{BufferSize: 1, Timeout: 20 * time.Millisecond})
		defer mq.Close()

		p := NewPublisher(mq)

		// an empty socket id never reaches the queue, so the buffer stays free
		require.NoError(t, p.Push(ctx, Event{SocketID: "", Name: EventMessageReceived}))
		require.NoError(t, p.Push(ctx, Event{SocketID: "sock-1", Name: EventMessageReceived}))
	})

	t.Run("BroadcastFansOut", func(t *testing.T) {
		mq := NewMemoryQueue(nil)
		defer mq.Close()

		p := NewPublisher(mq)
		received := make(chan Event, 3)

		handler := func(ctx context.Context, topic string, msg []byte) error {
			var event Event
			if err := json.Unmarshal(msg, &event); err != nil {
				return err
			}
			received <- event
			return nil
		}
		require.NoError(t, mq.Subscribe(ctx, TopicDeliveries, handler))

		sockets := []string{"sock-1", "sock-2", "sock-3"}
		require.NoError(t, p.Broadcast(ctx, EventGroupUpdated, sockets, map[string]uint64{"group_id": 7}))

		got := make(map[string]bool)
		for i := 0; i < len(sockets); i++ {
			select {
			case event := <-received:
				assert.Equal(t, EventGroupUpdated, event.Name)
				got[event.SocketID] = true
			case <-time.After(time.Second):
				t.Fatal("Event not received within timeout")
			}
		}
		assert.Len(t, got, 3)
	})
}
