package feed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gpu-yield/price-feed/pkg/models/store"
)

// Redis stores the feed as a redis stream.
type Redis struct {
	client *redis.Client
	stream string
}

// NewRedis connects to the redis instance at url and verifies the
// connection before returning.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client, leaving its lifecycle to
// the caller's Close.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, stream: StreamName}
}

func (r *Redis) Append(ctx context.Context, rec store.FeedRecord) (string, error) {
	values := make(map[string]interface{}, len(rec.Fields))
	for k, v := range rec.Fields {
		values[k] = v
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to append to stream %s: %w", r.stream, err)
	}
	return id, nil
}

func (r *Redis) Recent(ctx context.Context, count int) ([]store.FeedRecord, error) {
	msgs, err := r.client.XRevRangeN(ctx, r.stream, "+", "-", int64(count)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", r.stream, err)
	}

	records := make([]store.FeedRecord, 0, len(msgs))
	for _, msg := range msgs {
		fields := make(map[string]string, len(msg.Values))
		for k, v := range msg.Values {
			fields[k] = fmt.Sprint(v)
		}
		records = append(records, store.FeedRecord{ID: msg.ID, Fields: fields})
	}
	return records, nil
}

func (r *Redis) Trim(ctx context.Context, maxLen int64) error {
	if err := r.client.XTrimMaxLenApprox(ctx, r.stream, maxLen, 0).Err(); err != nil {
		return fmt.Errorf("failed to trim stream %s: %w", r.stream, err)
	}
	return nil
}

func (r *Redis) Len(ctx context.Context) (int64, error) {
	n, err := r.client.XLen(ctx, r.stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read stream length: %w", err)
	}
	return n, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
