package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/acg-climbing/sessions-api/internal/domain"
)

const (
	redisKeyPrefix     = "acg:identity:"
	redisUserKeyPrefix = "acg:identity-user:"
)

type Redis struct {
	client *redis.Client
}

// NewRedis connects to url (redis://...) and pings it once.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL -> %w", err)
	}

	client := redis.NewClient(opts)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Ping -> %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (domain.Identity, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Identity{}, ErrMiss
		}
		return domain.Identity{}, fmt.Errorf("r.client.Get -> %w", err)
	}

	var identity domain.Identity
	if err = json.Unmarshal(raw, &identity); err != nil {
		return domain.Identity{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return identity, nil
}

func (r *Redis) Set(ctx context.Context, key string, identity domain.Identity, ttl time.Duration) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	userKey := redisUserKeyPrefix + identity.Profile.ID.String()

	// The user index lives at least as long as its longest entry.
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKeyPrefix+key, raw, ttl)
		pipe.SAdd(ctx, userKey, key)
		pipe.ExpireNX(ctx, userKey, ttl)
		pipe.ExpireGT(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("r.client.TxPipelined -> %w", err)
	}

	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("r.client.Del -> %w", err)
	}

	return nil
}

func (r *Redis) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	userKey := redisUserKeyPrefix + userID.String()

	keys, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("r.client.SMembers -> %w", err)
	}

	del := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		del = append(del, redisKeyPrefix+key)
	}
	del = append(del, userKey)

	if err = r.client.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("r.client.Del -> %w", err)
	}

	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
