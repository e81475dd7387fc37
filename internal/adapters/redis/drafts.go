package redis

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/event-registration/internal/domain"
)

// Drafts keeps in-progress form values per session.
type Drafts struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDrafts(client *redis.Client, ttl time.Duration) *Drafts {
	return &Drafts{client: client, ttl: ttl}
}

func draftKey(sessionID, key string) string {
	return "draft:" + sessionID + ":" + key
}

func (d *Drafts) SaveDraft(ctx context.Context, sessionID, key string, data []byte) error {
	return d.client.Set(ctx, draftKey(sessionID, key), data, d.ttl).Err()
}

func (d *Drafts) LoadDraft(ctx context.Context, sessionID, key string) ([]byte, error) {
	data, err := d.client.Get(ctx, draftKey(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	return data, err
}

func (d *Drafts) DeleteDraft(ctx context.Context, sessionID, key string) error {
	return d.client.Del(ctx, draftKey(sessionID, key)).Err()
}
