package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/event-registration/internal/wizard"
)

// SessionStore keeps each session's wizard keys under wizard:<id>:<key>.
// Every write refreshes the TTL of all keys of the session.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func sessionKey(sessionID, key string) string {
	return "wizard:" + sessionID + ":" + key
}

// Scope returns the wizard store of one session.
func (s *SessionStore) Scope(sessionID string) wizard.Store {
	return &scopedStore{parent: s, id: sessionID}
}

// Exists reports whether any key of the session is stored.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	keys := make([]string, 0, len(wizard.AllKeys))
	for _, k := range wizard.AllKeys {
		keys = append(keys, sessionKey(sessionID, k))
	}
	n, err := s.client.Exists(ctx, keys...).Result()
	return n > 0, err
}

type scopedStore struct {
	parent *SessionStore
	id     string
}

func (s *scopedStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = sessionKey(s.id, k)
	}
	vals, err := s.parent.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

func (s *scopedStore) Set(ctx context.Context, values map[string]string) error {
	_, err := s.parent.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, sessionKey(s.id, k), v, s.parent.ttl)
		}
		return nil
	})
	return err
}

func (s *scopedStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = sessionKey(s.id, k)
	}
	return s.parent.client.Del(ctx, full...).Err()
}
