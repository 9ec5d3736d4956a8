package credstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores the bearer credential under a single key, for deployments
// where the client container has no stable disk. Unlike a cache this store
// must not silently drop the credential, so an unreachable Redis is an
// error at construction time rather than a bypass.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(addr, password, key string) (*Redis, error) {
	if key == "" {
		return nil, errors.New("empty credential key")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Redis{client: client, key: key}, nil
}

func (r *Redis) Load() (string, error) {
	ctx, cancel := r.opCtx()
	defer cancel()

	token, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (r *Redis) Save(token string) error {
	ctx, cancel := r.opCtx()
	defer cancel()
	// No TTL: the credential lives until logout.
	return r.client.Set(ctx, r.key, token, 0).Err()
}

func (r *Redis) Clear() error {
	ctx, cancel := r.opCtx()
	defer cancel()
	return r.client.Del(ctx, r.key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}
