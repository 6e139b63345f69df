package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const statusTTL = time.Hour

// RedisRepo caches the latest job status so status polling does not hit the
// database on every request.
type RedisRepo struct {
	Client *redis.Client
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{Client: client}
}

func (r *RedisRepo) SetStatus(ctx context.Context, jobID, status string) error {
	return r.Client.Set(ctx, "job_status:"+jobID, status, statusTTL).Err()
}

func (r *RedisRepo) GetStatus(ctx context.Context, jobID string) (string, error) {
	return r.Client.Get(ctx, "job_status:"+jobID).Result()
}
