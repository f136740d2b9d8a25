package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/redis/go-redis/v9"

	"github.com/rahulkarmakar28/code-sandbox/models"
)

const (
	// SubmissionQueueKey is the FIFO list workers BRPOP from.
	SubmissionQueueKey = "submission"
	// ResultChannel is the broadcast channel workers publish results on.
	ResultChannel = "submission_result"
	// RateLimitKeyPrefix namespaces per-client rate counters.
	RateLimitKeyPrefix = "rl:"
)

type RedisService struct {
	client *redis.Client
}

// NewRedisService creates a broker client from a redis:// URL.
func NewRedisService(url string) (*RedisService, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisService{client: redis.NewClient(opts)}, nil
}

// PushSubmission appends a serialized job to the tail of the work queue.
// Ownership of the job transfers to the queue on success; a failed push is
// surfaced to the caller, the relay does not retry.
func (r *RedisService) PushSubmission(ctx context.Context, job *models.SubmissionJob) error {
	var err error
	xray.Capture(ctx, "Redis.LPush", func(ctx1 context.Context) error {
		jsonData, marshalErr := json.Marshal(job)
		if marshalErr != nil {
			err = marshalErr
			return marshalErr
		}
		err = r.client.LPush(ctx, SubmissionQueueKey, string(jsonData)).Err()

		if seg := xray.GetSegment(ctx1); seg != nil {
			seg.AddMetadata("redis.queue_key", SubmissionQueueKey)
			seg.AddMetadata("redis.operation", "LPUSH")
		}

		return err
	})
	return err
}

// IncrementRate atomically bumps the counter for key and returns the new
// count together with the counter's remaining lifetime. The first hit arms
// the expiry; a counter found without one (e.g. after a failed EXPIRE) is
// re-armed rather than left to grow forever.
func (r *RedisService) IncrementRate(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var count int64
	var ttl time.Duration
	var err error

	xray.Capture(ctx, "Redis.RateIncr", func(ctx1 context.Context) error {
		pipe := r.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		ttlCmd := pipe.TTL(ctx, key)
		if _, execErr := pipe.Exec(ctx); execErr != nil {
			err = execErr
			return execErr
		}
		count = incr.Val()
		ttl = ttlCmd.Val()

		if count == 1 || ttl < 0 {
			if expErr := r.client.Expire(ctx, key, window).Err(); expErr != nil {
				err = expErr
				return expErr
			}
			ttl = window
		}

		if seg := xray.GetSegment(ctx1); seg != nil {
			seg.AddMetadata("redis.key", key)
			seg.AddMetadata("redis.operation", "INCR")
			seg.AddMetadata("redis.count", count)
		}

		return nil
	})

	return count, ttl, err
}

// SubscribeResults opens the result subscription. The returned PubSub rides
// its own connection and reconnects on failure; callers close it to stop.
func (r *RedisService) SubscribeResults(ctx context.Context) *redis.PubSub {
	return r.client.Subscribe(ctx, ResultChannel)
}

// Ping checks the broker connection
func (r *RedisService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the broker connection
func (r *RedisService) Close() error {
	return r.client.Close()
}
