package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultRedisKey = "vibebot:results"

type RedisOptions struct {
	Address  string
	Password string
	DB       int
	// Key is the list records are pushed onto.
	Key string
}

type listPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisSink pushes records as JSON onto a Redis list for downstream consumers.
type RedisSink struct {
	client listPusher
	closer func() error
	key    string
	logger *zap.Logger
}

// NewRedisSink connects and pings the server.
func NewRedisSink(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	sink := newRedisSink(client, opts.Key, logger)
	sink.closer = client.Close
	return sink, nil
}

func newRedisSink(client listPusher, key string, logger *zap.Logger) *RedisSink {
	if key = strings.TrimSpace(key); key == "" {
		key = defaultRedisKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSink{client: client, key: key, logger: logger}
}

func (s *RedisSink) Save(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	length, err := s.client.RPush(ctx, s.key, data).Result()
	if err != nil {
		return fmt.Errorf("push record to redis: %w", err)
	}

	s.logger.Debug("record pushed to redis", zap.String("key", s.key), zap.Int64("length", length))
	return nil
}

func (s *RedisSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
