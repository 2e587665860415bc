package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const hashKey = "presence:sockets"

// Tracker maps users to their live socket connection. The connection
// lifecycle endpoints write it; the core only reads it to decide push
// eligibility. An absent entry means the user is offline.
type Tracker struct {
	client *redis.Client
}

// NewTracker creates a presence tracker
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

// Connect records the user's current socket id
func (t *Tracker) Connect(ctx context.Context, userID uint64, socketID string) error {
	return t.client.HSet(ctx, hashKey, field(userID), socketID).Err()
}

// Disconnect clears the user's socket id
func (t *Tracker) Disconnect(ctx context.Context, userID uint64) error {
	return t.client.HDel(ctx, hashKey, field(userID)).Err()
}

// SocketID returns the user's live socket id, or "" if offline
func (t *Tracker) SocketID(ctx context.Context, userID uint64) (string, error) {
	id, err := t.client.HGet(ctx, hashKey, field(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// SocketIDs resolves a set of users to their socket ids, dropping the ones
// that are offline
func (t *Tracker) SocketIDs(ctx context.Context, userIDs []uint64) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	fields := make([]string, len(userIDs))
	for i, id := range userIDs {
		fields[i] = field(id)
	}

	values, err := t.client.HMGet(ctx, hashKey, fields...).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func field(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}
