/*
PURPOSE:
  Optional Redis journal. Each record is pushed onto a capped list so a
  dashboard can show recent estimates.

REQUIREMENTS:
  Implementation-discovered:
  - Journaling must not slow an estimate down. A slow or unreachable Redis
    used to hold Resolve for up to the command timeout, so pushes now run on
    a background goroutine.

ARCHITECTURE INTEGRATION:
  - Created by: OpenJournal (journal.go) when journal.redis.addr is set
  - Uses: github.com/redis/go-redis/v9

ERROR HANDLING:
  - Write only fails when the record cannot be encoded, the queue is full or
    the writer is closed. Push failures are logged and dropped.

IMPLEMENTATION RULES:
  - Write never blocks on the network.
  - Close drains the queue for at most closeTimeout, then closes the pool.

USAGE:
  w := output.NewRedisWriter(addr, "", 0, "load-estimator:journal", 1000)
  defer w.Close()

RELATED FILES:
  - internal/output/journal.go
*/

package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/daryltucker/load-estimator/internal/model"
)

const (
	redisQueueSize    = 256
	redisPushTimeout  = 2 * time.Second
	redisCloseTimeout = 5 * time.Second
)

// ErrJournalBusy is returned when the Redis queue is full and a record is dropped.
var ErrJournalBusy = errors.New("redis journal queue full")

// listClient is the slice of the Redis API the journal needs.
// *redis.Client satisfies it.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Close() error
}

type redisItem struct {
	id   string
	data []byte
}

// RedisWriter pushes records onto a capped Redis list, newest first.
// Pushes happen on a background goroutine.
type RedisWriter struct {
	client  listClient
	key     string
	maxLen  int64
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan redisItem
	done   chan struct{}
	once   sync.Once
}

// NewRedisWriter connects to addr. The connection is lazy; the first push
// surfaces connectivity problems in the log.
func NewRedisWriter(addr, password string, db int, key string, maxLen int64) *RedisWriter {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newRedisWriter(rdb, key, maxLen)
}

func newRedisWriter(client listClient, key string, maxLen int64) *RedisWriter {
	rw := &RedisWriter{
		client:  client,
		key:     key,
		maxLen:  maxLen,
		timeout: redisPushTimeout,
		queue:   make(chan redisItem, redisQueueSize),
		done:    make(chan struct{}),
	}
	go rw.loop()
	return rw
}

func (rw *RedisWriter) loop() {
	defer close(rw.done)
	for item := range rw.queue {
		if err := rw.push(item.data); err != nil {
			Logger.Error("Redis journal write failed", "id", item.id, "key", rw.key, "error", err)
		}
	}
}

func (rw *RedisWriter) push(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), rw.timeout)
	defer cancel()

	if err := rw.client.LPush(ctx, rw.key, data).Err(); err != nil {
		return fmt.Errorf("redis LPUSH %s: %w", rw.key, err)
	}
	if rw.maxLen > 0 {
		if err := rw.client.LTrim(ctx, rw.key, 0, rw.maxLen-1).Err(); err != nil {
			return fmt.Errorf("redis LTRIM %s: %w", rw.key, err)
		}
	}
	return nil
}

// Write queues r for the list. It does not wait for Redis.
func (rw *RedisWriter) Write(r model.Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", r.ID, err)
	}

	rw.mu.RLock()
	defer rw.mu.RUnlock()
	if rw.closed {
		return fmt.Errorf("redis journal closed, dropping record %s", r.ID)
	}
	select {
	case rw.queue <- redisItem{id: r.ID, data: data}:
		return nil
	default:
		return fmt.Errorf("%w, dropping record %s", ErrJournalBusy, r.ID)
	}
}

// Close flushes queued records, waiting at most redisCloseTimeout, and
// releases the connection pool.
func (rw *RedisWriter) Close() error {
	rw.once.Do(func() {
		rw.mu.Lock()
		rw.closed = true
		close(rw.queue)
		rw.mu.Unlock()
	})

	select {
	case <-rw.done:
	case <-time.After(redisCloseTimeout):
		Logger.Warn("Redis journal did not drain before close", "key", rw.key, "pending", len(rw.queue))
	}
	return rw.client.Close()
}
