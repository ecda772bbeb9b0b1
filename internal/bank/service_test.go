package bank

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaskar601/shikshaoffline/internal/apperr"
	"github.com/bhaskar601/shikshaoffline/internal/db/dbtest"
)

type memCache struct {
	sets        map[TopicKey][]Question
	gets, hits  int
	invalidated []TopicKey
}

func newMemCache() *memCache { return &memCache{sets: map[TopicKey][]Question{}} }

func (m *memCache) Get(_ context.Context, k TopicKey) ([]Question, bool, error) {
	m.gets++
	qs, ok := m.sets[k]
	if ok {
		m.hits++
	}
	return qs, ok, nil
}

func (m *memCache) Set(_ context.Context, k TopicKey, qs []Question) error {
	m.sets[k] = qs
	return nil
}

func (m *memCache) Invalidate(_ context.Context, keys ...TopicKey) error {
	for _, k := range keys {
		delete(m.sets, k)
		m.invalidated = append(m.invalidated, k)
	}
	return nil
}

func TestServiceFetchUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	svc := NewService(NewSQLStore(dbtest.Open(t)), cache)
	light := TopicKey{Class: "8", Subject: "science", Topic: "light"}

	_, err := svc.Create(ctx, sampleQuestion("q1", "light", 0))
	require.NoError(t, err)

	qs, err := svc.FetchQuestions(ctx, light)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, 0, cache.hits)

	qs, err = svc.FetchQuestions(ctx, light)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, 1, cache.hits)

	// moving the question to another topic invalidates both sets
	moved := sampleQuestion("q1", "optics", 0)
	_, err = svc.Update(ctx, "q1", moved)
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, light)
	assert.Contains(t, cache.invalidated, moved.Key())

	qs, err = svc.FetchQuestions(ctx, light)
	require.NoError(t, err)
	assert.Empty(t, qs)

	require.NoError(t, svc.Delete(ctx, "q1"))
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, "q1")))
}

func TestServiceRejectsInvalidQuestion(t *testing.T) {
	svc := NewService(NewSQLStore(dbtest.Open(t)), nil)

	q := sampleQuestion("q1", "light", 0)
	q.CorrectAnswer = "Blue"
	_, err := svc.Create(context.Background(), q)
	assert.True(t, apperr.IsValidation(err))

	q = sampleQuestion("q2", "light", 0)
	q.Options = []string{"Red", "Red"}
	_, err = svc.Create(context.Background(), q)
	assert.True(t, apperr.IsValidation(err))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	c := NewRedisCache(client, time.Minute)
	key := TopicKey{Class: "8", Subject: "science", Topic: "light: refraction"}
	require.NoError(t, c.Invalidate(ctx, key))

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []Question{sampleQuestion("q1", "light", 0)}))
	qs, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "q1", qs[0].ID)

	require.NoError(t, c.Invalidate(ctx, key))
	_, ok, _ = c.Get(ctx, key)
	assert.False(t, ok)
}
