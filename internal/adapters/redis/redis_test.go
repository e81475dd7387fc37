package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/event-registration/internal/adapters/redis"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSessionStore_PersistsWizardState(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	sessions := redisadapter.NewSessionStore(client, time.Hour)

	exists, err := sessions.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)

	s := wizard.DefaultState()
	s.View = wizard.ViewWizard
	s.Step = wizard.StepAttendee
	s.Event = &domain.Event{ID: "ldn", City: "London", Status: domain.AvailabilitySellingFast}
	s.Draft.EventID = "ldn"
	require.NoError(t, wizard.Save(ctx, sessions.Scope("s1"), s))

	exists, err = sessions.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, exists)

	got, fallbacks, err := wizard.Load(ctx, sessions.Scope("s1"))
	require.NoError(t, err)
	assert.Empty(t, fallbacks)
	assert.Equal(t, s, got)

	other, _, err := wizard.Load(ctx, sessions.Scope("s2"))
	require.NoError(t, err)
	assert.Equal(t, wizard.ViewLanding, other.View)

	ttl, err := client.TTL(ctx, "wizard:s1:view").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, wizard.Clear(ctx, sessions.Scope("s1")))
	exists, err = sessions.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCache_Lock(t *testing.T) {
	ctx := context.Background()
	cache := redisadapter.NewCache(startRedis(t))

	release, err := cache.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	_, err = cache.Lock(ctx, "s1", time.Minute)
	require.ErrorIs(t, err, redisadapter.ErrLocked)
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, release(ctx))
	release, err = cache.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestIdempotencyAndDrafts(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)

	idem := redisadapter.NewIdempotency(client)
	resp, err := idem.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, resp)

	ok, err := idem.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = idem.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, idem.Set(ctx, "k1", redisadapter.IdempResponse{Status: 200, Result: []byte(`{"ok":true}`)}, time.Minute))
	resp, err = idem.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Result))

	drafts := redisadapter.NewDrafts(client, time.Hour)
	_, err = drafts.LoadDraft(ctx, "s1", "jobAppDraft")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, drafts.SaveDraft(ctx, "s1", "jobAppDraft", []byte(`{"firstName":"Grace"}`)))
	data, err := drafts.LoadDraft(ctx, "s1", "jobAppDraft")
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Grace"}`, string(data))
	require.NoError(t, drafts.DeleteDraft(ctx, "s1", "jobAppDraft"))
}
