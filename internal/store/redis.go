package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// RedisStore persists the chat logs in Redis sorted sets scored by
// timestamp. Unlike the scanning backends it keeps an incrementally
// updated unread counter per recipient, the variant suggested for
// larger volumes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() {
	s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MaxOrdering returns the persisted timestamp and sequence high-water
// mark, zero values when nothing was ever appended.
func (s *RedisStore) MaxOrdering(ctx context.Context) (int64, uint64, error) {
	vals, err := s.client.HMGet(ctx, orderingKey, "ts", "seq").Result()
	if err != nil {
		return 0, 0, err
	}

	var ts int64
	var seq uint64
	if raw, ok := vals[0].(string); ok {
		ts, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("parse ordering ts %q: %w", raw, err)
		}
	}
	if raw, ok := vals[1].(string); ok {
		seq, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("parse ordering seq %q: %w", raw, err)
		}
	}
	return ts, seq, nil
}

// roomMessagesKey returns the key for a room's message sorted set.
func roomMessagesKey(roomID string) string {
	return fmt.Sprintf("room:%s:messages", roomID)
}

// conversationKey returns the key for a pair's conversation sorted set.
func conversationKey(a, b string) string {
	return fmt.Sprintf("conv:%s:messages", models.PairKey(a, b))
}

// unreadKey returns the key for an identity's unread counter.
func unreadKey(id string) string {
	return fmt.Sprintf("unread:%s", id)
}

// orderingKey holds the highest timestamp and sequence ever appended,
// updated alongside every append so the clock can resume after a
// restart.
const orderingKey = "chat:ordering"

// AppendMessage stores a room message.
func (s *RedisStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, roomMessagesKey(msg.RoomID), redis.Z{
		Score:  float64(msg.Timestamp),
		Member: string(data),
	})
	pipe.HSet(ctx, orderingKey, "ts", msg.Timestamp, "seq", msg.Seq)
	_, err = pipe.Exec(ctx)
	return err
}

// MessagesSince retrieves the room's messages newer than since.
func (s *RedisStore) MessagesSince(ctx context.Context, roomID string, since int64) ([]models.Message, error) {
	results, err := s.client.ZRangeByScore(ctx, roomMessagesKey(roomID), &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", since),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(results))
	for _, data := range results {
		var msg models.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	// Same-score members come back in lexical order; restore append
	// order by sequence number.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Seq < messages[j].Seq
	})
	return messages, nil
}

// AppendDM stores a direct message and bumps the recipient's unread
// counter.
func (s *RedisStore) AppendDM(ctx context.Context, dm *models.DirectMessage) error {
	data, err := json.Marshal(dm)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, conversationKey(dm.FromID, dm.ToID), redis.Z{
		Score:  float64(dm.Timestamp),
		Member: string(data),
	})
	if !dm.Read {
		pipe.Incr(ctx, unreadKey(dm.ToID))
	}
	pipe.HSet(ctx, orderingKey, "ts", dm.Timestamp, "seq", dm.Seq)
	_, err = pipe.Exec(ctx)
	return err
}

// ConversationSince retrieves the pair's messages newer than since and
// marks the whole history from otherID to selfID as read. The chat
// service serializes conversation operations per pair, so the
// read-modify-write over the sorted set members is safe.
func (s *RedisStore) ConversationSince(ctx context.Context, selfID, otherID string, since int64) ([]models.DirectMessage, error) {
	key := conversationKey(selfID, otherID)

	results, err := s.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	dms := make([]models.DirectMessage, 0, len(results))
	var marked int64

	pipe := s.client.Pipeline()
	for _, z := range results {
		data, ok := z.Member.(string)
		if !ok {
			continue
		}
		var dm models.DirectMessage
		if err := json.Unmarshal([]byte(data), &dm); err != nil {
			continue
		}

		if dm.ToID == selfID && dm.FromID == otherID && !dm.Read {
			dm.Read = true
			marked++

			updated, err := json.Marshal(&dm)
			if err != nil {
				return nil, err
			}
			pipe.ZRem(ctx, key, data)
			pipe.ZAdd(ctx, key, redis.Z{Score: z.Score, Member: string(updated)})
		}

		if dm.Timestamp > since {
			dms = append(dms, dm)
		}
	}

	if marked > 0 {
		pipe.DecrBy(ctx, unreadKey(selfID), marked)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	sort.Slice(dms, func(i, j int) bool {
		return dms[i].Seq < dms[j].Seq
	})
	return dms, nil
}

// UnreadCount reads the recipient's unread counter.
func (s *RedisStore) UnreadCount(ctx context.Context, selfID string) (int64, error) {
	count, err := s.client.Get(ctx, unreadKey(selfID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}
