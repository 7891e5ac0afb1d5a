package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const answerKeyPrefix = "aira:faq:"

// AnswerCache remembers FAQ answers by normalized question
type AnswerCache interface {
	Get(ctx context.Context, question string) (string, bool, error)
	Set(ctx context.Context, question, answer string) error
	Invalidate(ctx context.Context) error
}

// RedisAnswerCache stores FAQ answers in Redis with a TTL
type RedisAnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAnswerCache connects and pings Redis
func NewRedisAnswerCache(addr string, ttl time.Duration) (*RedisAnswerCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisAnswerCache{client: client, ttl: ttl}, nil
}

// NewRedisAnswerCacheWithClient wraps an existing client
func NewRedisAnswerCacheWithClient(client *redis.Client, ttl time.Duration) *RedisAnswerCache {
	return &RedisAnswerCache{client: client, ttl: ttl}
}

func (r *RedisAnswerCache) Get(ctx context.Context, question string) (string, bool, error) {
	answer, err := r.client.Get(ctx, QuestionKey(question)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return answer, true, nil
}

func (r *RedisAnswerCache) Set(ctx context.Context, question, answer string) error {
	return r.client.Set(ctx, QuestionKey(question), answer, r.ttl).Err()
}

// Invalidate drops every cached answer; called after the FAQ index changes
func (r *RedisAnswerCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, answerKeyPrefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the connection pool
func (r *RedisAnswerCache) Close() error {
	return r.client.Close()
}

// QuestionKey hashes the lowercased, whitespace collapsed question
func QuestionKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return answerKeyPrefix + hex.EncodeToString(sum[:])
}
