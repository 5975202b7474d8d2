package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Akin1234dot/Fifthlasb/internal/config"
)

var Redis *redis.Client
var Ctx = context.Background()

// Channel name for message-collection invalidation events. Every durable
// write to the messages collection publishes here; live feeds re-query the
// full snapshot on each event.
const FeedChannel = "fiveaside:feed"

func InitRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	_, err := Redis.Ping(Ctx).Result()
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Rate limiting, caching and live feeds will be disabled.", err)
	} else {
		log.Println("Connected to Redis successfully")
	}
}

// FeedEvent describes a change to the shared message collection.
type FeedEvent struct {
	ConversationID string `json:"conversationId"`
	Kind           string `json:"kind"` // created, deleted, read
}

// PublishFeedEvent notifies live subscribers that the message collection
// changed. Best-effort: a publish failure only delays the next snapshot.
func PublishFeedEvent(ev FeedEvent) {
	if Redis == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := Redis.Publish(Ctx, FeedChannel, payload).Err(); err != nil {
		log.Printf("Warning: feed publish failed: %v", err)
	}
}

// SubscribeFeed returns a channel of feed events. The subscription is torn
// down when ctx is cancelled.
func SubscribeFeed(ctx context.Context) (<-chan FeedEvent, error) {
	if Redis == nil {
		return nil, fmt.Errorf("redis not initialized")
	}
	sub := Redis.Subscribe(ctx, FeedChannel)
	out := make(chan FeedEvent, 16)

	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Rate Limiting
func CheckRateLimit(key string, limit int, duration time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := Redis.Incr(Ctx, redisKey).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		Redis.Expire(Ctx, redisKey, duration)
	}

	if count > int64(limit) {
		return false, nil
	}
	return true, nil
}

// Token revocation (logout)
func BlacklistToken(jti string, ttl time.Duration) error {
	if Redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	return Redis.Set(Ctx, "token_blacklist:"+jti, "1", ttl).Err()
}

func IsTokenBlacklisted(jti string) bool {
	if Redis == nil || jti == "" {
		return false
	}
	exists, err := Redis.Exists(Ctx, "token_blacklist:"+jti).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// Caching
func CacheSet(key string, value interface{}, expiration time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return Redis.Set(Ctx, key, payload, expiration).Err()
}

func CacheGet(key string, dest interface{}) error {
	val, err := Redis.Get(Ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

func CacheInvalidate(pattern string) error {
	keys, err := Redis.Keys(Ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return Redis.Del(Ctx, keys...).Err()
	}
	return nil
}
