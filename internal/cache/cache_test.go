package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/domain/entity"
)

func TestEncodeDecode_DropsCachedFlag(t *testing.T) {
	in := entity.GenerationResult{
		Kind:   entity.OpSEOMetrics,
		SEO:    &entity.SEOMetrics{SearchVolume: 100, AvgCPC: 1.25, KeywordDifficulty: 40},
		Source: entity.SourceLive,
		Cached: true,
	}

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)

	want := in
	want.Cached = false
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("decoded result mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

type stubStore struct {
	result entity.GenerationResult
	ok     bool
	err    error
	puts   int
}

func (s *stubStore) Get(context.Context, string) (entity.GenerationResult, bool, error) {
	return s.result, s.ok, s.err
}

func (s *stubStore) Put(context.Context, string, entity.GenerationResult, time.Duration) error {
	s.puts++
	return s.err
}

func TestInstrumented_PassesThrough(t *testing.T) {
	ctx := context.Background()
	stub := &stubStore{result: entity.GenerationResult{Kind: entity.OpTitle, Title: "T"}, ok: true}
	s := NewInstrumented(stub, "memory", nil)

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T", got.Title)

	require.NoError(t, s.Put(ctx, "k", got, 0))
	assert.Equal(t, 1, stub.puts)
	assert.Equal(t, "memory", s.Backend())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Ping(ctx))
}

func TestInstrumented_ReturnsErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := NewInstrumented(&stubStore{err: boom}, "redis", nil)

	_, ok, err := s.Get(ctx, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Put(ctx, "k", entity.GenerationResult{}, time.Minute), boom)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var s Store = Nop{}

	require.NoError(t, s.Put(ctx, "k", entity.GenerationResult{Title: "x"}, 0))
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
