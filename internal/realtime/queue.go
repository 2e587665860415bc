package realtime

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Queue is the transport between the state machines' result bundles and the
// delivery worker. Implementations must be safe for concurrent use.
type Queue interface {
	// Publish publishes a message to the specified topic
	Publish(ctx context.Context, topic string, message []byte) error

	// Subscribe subscribes to messages from the specified topic
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error

	// Close closes the queue
	Close() error
}

// MessageHandler handles incoming messages
type MessageHandler func(ctx context.Context, topic string, message []byte) error

// Common errors
var (
	ErrQueueClosed    = errors.New("queue is closed")
	ErrPublishTimeout = errors.New("publish timeout")
)

// MemoryQueue channel-backed queue implementation
type MemoryQueue struct {
	topics     map[string]chan []byte
	bufferSize int
	timeout    time.Duration
	mu         sync.RWMutex
	closed     bool
}

// MemoryQueueConfig memory queue configuration
type MemoryQueueConfig struct {
	BufferSize int           `json:"buffer_size"`
	Timeout    time.Duration `json:"timeout"`
}

// NewMemoryQueue creates a new memory queue instance
func NewMemoryQueue(config *MemoryQueueConfig) *MemoryQueue {
	if config == nil {
		config = &MemoryQueueConfig{
			BufferSize: 1000,
			Timeout:    30 * time.Second,
		}
	}

	return &MemoryQueue{
		topics:     make(map[string]chan []byte),
		bufferSize: config.BufferSize,
		timeout:    config.Timeout,
	}
}

func (mq *MemoryQueue) topic(name string) (chan []byte, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil, ErrQueueClosed
	}

	ch, ok := mq.topics[name]
	if !ok {
		ch = make(chan []byte, mq.bufferSize)
		mq.topics[name] = ch
	}
	return ch, nil
}

// Publish publishes a message to the queue
func (mq *MemoryQueue) Publish(ctx context.Context, topic string, message []byte) error {
	ch, err := mq.topic(topic)
	if err != nil {
		return err
	}

	select {
	case ch <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mq.timeout):
		return ErrPublishTimeout
	}
}

// Subscribe consumes the topic in a goroutine until the context is cancelled
func (mq *MemoryQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	ch, err := mq.topic(topic)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case message, ok := <-ch:
				if !ok {
					return
				}
				// handler errors are the handler's problem; keep draining
				_ = handler(ctx, topic, message)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Close closes the queue
func (mq *MemoryQueue) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil
	}
	mq.closed = true

	for _, ch := range mq.topics {
		close(ch)
	}
	mq.topics = make(map[string]chan []byte)

	return nil
}
