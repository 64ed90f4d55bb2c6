package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetpotato0/voyager/archive"
)

// RedisStore implements archive.Store using Redis. Entries are JSON values
// indexed by sorted sets scored by creation time: one for the whole archive
// and one per conversation.
type RedisStore struct {
	client *redis.Client
	prefix string // Key prefix for namespacing
	ttl    time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string        // Redis server address (e.g., "localhost:6379")
	Password string        // Redis password (if any)
	DB       int           // Redis database number
	Prefix   string        // Key prefix for namespacing
	TTL      time.Duration // Time-to-live for entries (0 means no expiration)
}

// NewRedisStore creates a new Redis-based archive
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = &RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "voyager:archive:",
		}
	}
	if config.Prefix == "" {
		config.Prefix = "voyager:archive:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Add stores an entry and indexes it
func (s *RedisStore) Add(ctx context.Context, entry *archive.Entry) error {
	if err := archive.Prepare(entry); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal archive entry: %w", err)
	}

	score := float64(entry.CreatedAt.UnixNano())
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(entry.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.allKey(), redis.Z{Score: score, Member: entry.ID})
	pipe.ZAdd(ctx, s.conversationKey(entry.ConversationID), redis.Z{Score: score, Member: entry.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store archive entry in Redis: %w", err)
	}
	return nil
}

// List returns the entries of a conversation, newest first
func (s *RedisStore) List(ctx context.Context, conversationID string) ([]*archive.Entry, error) {
	index := s.allKey()
	if conversationID != "" {
		index = s.conversationKey(conversationID)
	}
	ids, err := s.client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read archive index: %w", err)
	}

	entries := make([]*archive.Entry, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.entryKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// expired; drop it from the index
				s.client.ZRem(ctx, index, id)
				continue
			}
			return nil, fmt.Errorf("failed to get archive entry: %w", err)
		}
		var e archive.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archive entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

// Count returns the number of indexed entries
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	count, err := s.client.ZCard(ctx, s.allKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count archive entries: %w", err)
	}
	return int(count), nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis connection is alive
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) entryKey(id string) string {
	return s.prefix + "entry:" + id
}

func (s *RedisStore) allKey() string {
	return s.prefix + "all"
}

func (s *RedisStore) conversationKey(id string) string {
	return s.prefix + "conv:" + id
}
