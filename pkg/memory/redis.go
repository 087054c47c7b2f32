package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a Redis store.
type RedisOptions struct {
	// KeyPrefix namespaces every key. Default: "dialoglens:memory:".
	KeyPrefix string

	// MaxTurns bounds the turns kept per key. Default: DefaultMaxTurns.
	MaxTurns int

	// IdleTTL expires a key this long after its last write. Zero keeps keys
	// until cleared.
	IdleTTL time.Duration

	Logger *slog.Logger
}

// DefaultRedisKeyPrefix is used when RedisOptions.KeyPrefix is empty.
const DefaultRedisKeyPrefix = "dialoglens:memory:"

// Redis stores each conversation's turns as a Redis list of JSON entries.
type Redis struct {
	client   redis.UniversalClient
	prefix   string
	maxTurns int
	idleTTL  time.Duration
	logger   *slog.Logger
}

// NewRedis wraps an existing client. The caller owns the client unless
// Close is called, which closes it.
func NewRedis(client redis.UniversalClient, opts RedisOptions) *Redis {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &Redis{
		client:   client,
		prefix:   prefix,
		maxTurns: turnCap(opts.MaxTurns),
		idleTTL:  opts.IdleTTL,
		logger:   logger.With("component", "memory.redis"),
	}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, password string, db int, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedis(client, opts), nil
}

func (r *Redis) redisKey(key string) string {
	return r.prefix + key
}

// Turns returns the key's turns, oldest first.
func (r *Redis) Turns(ctx context.Context, key string) ([]Turn, error) {
	raw, err := r.client.LRange(ctx, r.redisKey(key), 0, -1).Result()
	if err == redis.Nil {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory %s: %w", key, err)
	}

	turns := make([]Turn, 0, len(raw))
	for _, s := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			return nil, fmt.Errorf("failed to decode memory %s: %w", key, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append pushes turns and trims the list in one MULTI/EXEC.
func (r *Redis) Append(ctx context.Context, key string, turns ...Turn) error {
	if err := validateTurns(turns); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode turn: %w", err)
		}
		values = append(values, data)
	}

	rk := r.redisKey(key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, rk, values...)
		pipe.LTrim(ctx, rk, int64(-r.maxTurns), -1)
		if r.idleTTL > 0 {
			pipe.Expire(ctx, rk, r.idleTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append memory %s: %w", key, err)
	}
	return nil
}

// Clear deletes the key.
func (r *Redis) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to clear memory %s: %w", key, err)
	}
	return nil
}

// ClearAll deletes every key under the prefix.
func (r *Redis) ClearAll(ctx context.Context) error {
	keys, err := r.scan(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}
	r.logger.Debug("cleared all conversation memory", "keys", len(keys))
	return nil
}

// Status reports the keys under the prefix and their list lengths.
func (r *Redis) Status(ctx context.Context) (Status, error) {
	keys, err := r.scan(ctx)
	if err != nil {
		return Status{}, err
	}

	pipe := r.client.Pipeline()
	lens := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		lens[i] = pipe.LLen(ctx, k)
	}
	if len(keys) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return Status{}, fmt.Errorf("failed to read memory status: %w", err)
		}
	}

	counts := make(map[string]int, len(keys))
	for i, k := range keys {
		n := int(lens[i].Val())
		if n == 0 {
			// Expired between SCAN and LLEN.
			continue
		}
		counts[strings.TrimPrefix(k, r.prefix)] = n
	}
	return sortedStatus(counts), nil
}

func (r *Redis) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan memory keys: %w", err)
	}
	return keys, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
