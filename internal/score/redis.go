package score

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the sorted set holding best levels.
const DefaultRedisKey = "ladder:highscores"

// RedisQueueSize is the number of scores that may wait for the writer.
const RedisQueueSize = 64

// ErrStoreClosed is returned by WriteScore after Close.
var ErrStoreClosed = errors.New("redis store closed")

type redisWrite struct {
	level  int
	member string
}

// RedisStore keeps scores in a Redis sorted set (score = level) and
// a history list of every entry, newest first. WriteScore only queues the
// entry; a single writer goroutine stores entries in order.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan redisWrite
	done   chan struct{}
}

// NewRedisStore connects to addr and verifies the connection.
// Every write is bounded by timeout.
func NewRedisStore(addr, password string, db int, key string, timeout time.Duration) (*RedisStore, error) {
	if key == "" {
		key = DefaultRedisKey
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}

	s := &RedisStore{
		client:  client,
		key:     key,
		timeout: timeout,
		queue:   make(chan redisWrite, RedisQueueSize),
		done:    make(chan struct{}),
	}
	go s.writer()
	return s, nil
}

// HistoryKey returns the list key for a highscore key.
func HistoryKey(key string) string {
	return key + ":history"
}

// WriteScore queues e for the highscore set and the history list.
// It never waits on the network; a full queue drops the entry.
func (s *RedisStore) WriteScore(e Entry) error {
	member, err := FormatEntry(e)
	if err != nil {
		return fmt.Errorf("format entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	select {
	case s.queue <- redisWrite{level: e.Level, member: string(member)}:
		return nil
	default:
		return fmt.Errorf("redis queue full, dropping level %d", e.Level)
	}
}

func (s *RedisStore) writer() {
	defer close(s.done)
	for w := range s.queue {
		if err := s.store(w); err != nil {
			log.Printf("redis: %v", err)
		}
	}
}

func (s *RedisStore) store(w redisWrite) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.key, redis.Z{Score: float64(w.level), Member: w.member})
	pipe.LPush(ctx, HistoryKey(s.key), w.member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store score: %w", err)
	}
	return nil
}

// Top returns up to n best entries, highest level first.
func (s *RedisStore) Top(ctx context.Context, n int) ([]EntryJSON, error) {
	members, err := s.client.ZRevRange(ctx, s.key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read highscores: %w", err)
	}

	out := make([]EntryJSON, 0, len(members))
	for _, m := range members {
		var e EntryJSON
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			return nil, fmt.Errorf("decode highscore: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Close stores every queued entry, then closes the client.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	<-s.done
	return s.client.Close()
}
