package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/domain/entity"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewFromClient(client, "autoblog-test", ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store, srv := newTestStore(t, 0)

	want := entity.GenerationResult{
		Kind:   entity.OpSEOMetrics,
		SEO:    &entity.SEOMetrics{SearchVolume: 2500, AvgCPC: 2.1, KeywordDifficulty: 33},
		Source: entity.SourceLive,
	}
	require.NoError(t, store.Put(ctx, `["seo-metrics","golang",[]]`, want, 0))

	got, ok, err := store.Get(ctx, `["seo-metrics","golang",[]]`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	assert.True(t, srv.Exists(`autoblog-test:["seo-metrics","golang",[]]`))
	assert.Equal(t, time.Duration(0), srv.TTL(`autoblog-test:["seo-metrics","golang",[]]`))
}

func TestStore_Miss(t *testing.T) {
	store, _ := newTestStore(t, 0)

	_, ok, err := store.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	store, srv := newTestStore(t, time.Hour)

	require.NoError(t, store.Put(ctx, "default", entity.GenerationResult{Title: "a"}, 0))
	require.NoError(t, store.Put(ctx, "explicit", entity.GenerationResult{Title: "b"}, time.Minute))

	assert.Equal(t, time.Hour, srv.TTL("autoblog-test:default"))
	assert.Equal(t, time.Minute, srv.TTL("autoblog-test:explicit"))

	srv.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, "explicit")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ServerDown(t *testing.T) {
	ctx := context.Background()
	store, srv := newTestStore(t, 0)
	require.NoError(t, store.Ping(ctx))

	srv.Close()

	_, ok, err := store.Get(ctx, "k")
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Error(t, store.Put(ctx, "k", entity.GenerationResult{}, 0))
}

func TestStore_CorruptValue(t *testing.T) {
	store, srv := newTestStore(t, 0)
	require.NoError(t, srv.Set("autoblog-test:bad", "{oops"))

	_, ok, err := store.Get(context.Background(), "bad")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestNew_PingFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_Success(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Addr = srv.Addr()

	store, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, "autoblog:k", store.prefixKey("k"))
}
