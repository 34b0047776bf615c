package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProgressCache keeps the rendered progress digests that go into LLM prompt
// context. Digests change only on quiz submission, so they are cached until
// invalidated. Callers treat every miss or error as "recompute"; the cache is
// strictly an optimization.
type ProgressCache struct {
	client *redis.Client
}

const digestTTL = 24 * time.Hour

func NewProgressCache(redisURL string) (*ProgressCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &ProgressCache{client: client}, nil
}

func digestKey(studentID int64, subject string) string {
	return fmt.Sprintf("digest:%d:%s", studentID, subject)
}

func (c *ProgressCache) GetDigest(ctx context.Context, studentID int64, subject string) (string, bool) {
	value, err := c.client.Get(ctx, digestKey(studentID, subject)).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func (c *ProgressCache) SetDigest(ctx context.Context, studentID int64, subject, digest string) error {
	return c.client.Set(ctx, digestKey(studentID, subject), digest, digestTTL).Err()
}

// Invalidate drops every digest for a student. Called after each quiz
// submission; subjects are enumerable so the keys are deleted directly.
func (c *ProgressCache) Invalidate(ctx context.Context, studentID int64, subjects []string) error {
	keys := make([]string, 0, len(subjects)+1)
	for _, s := range subjects {
		keys = append(keys, digestKey(studentID, s))
	}
	keys = append(keys, digestKey(studentID, "all"))
	return c.client.Del(ctx, keys...).Err()
}

func (c *ProgressCache) Close() error {
	return c.client.Close()
}
