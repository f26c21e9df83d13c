package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"freighterp/billing"
)

const guardPrefix = "freighterp:inflight:"

type RedisDB struct {
	URL    string
	Client *goredis.Client
}

func NewRedisDB(url string) *RedisDB {
	return &RedisDB{URL: url}
}

func (r *RedisDB) Connect(ctx context.Context) error {
	opts, err := goredis.ParseURL(r.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("ping redis: %w", err)
	}
	r.Client = client
	return nil
}

func (r *RedisDB) Disconnect(context.Context) error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Guard is a billing.InFlightGuard shared by every instance using the
// same Redis. Keys expire after TTL so a crashed holder cannot block a
// bill forever.
type Guard struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func NewGuard(client goredis.UniversalClient, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Guard{client: client, ttl: ttl}
}

func (g *Guard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, guardPrefix+key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, billing.ErrBusy
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// on failure the key expires after ttl
		_ = releaseScript.Run(ctx, g.client, []string{guardPrefix + key}, token).Err()
	}, nil
}
