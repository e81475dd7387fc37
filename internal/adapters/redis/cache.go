package redis

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/event-registration/internal/domain"
)

// ErrLocked is returned when another request holds the session lock.
var ErrLocked = errors.Wrap(domain.ErrConflict, "session is busy")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Lock takes the mutation lock of a session. The returned release only
// deletes the lock if it still holds this caller's token.
func (c *Cache) Lock(ctx context.Context, sessionID string, ttl time.Duration) (func(context.Context) error, error) {
	key := "lock:session:" + sessionID
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, c.client, []string{key}, token).Err()
	}, nil
}
