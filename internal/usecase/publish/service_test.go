package publish

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoblog/internal/domain/entity"
)

type fakeArticles struct {
	mu       sync.Mutex
	calls    []string
	failOn   map[string]error
	source   entity.Source
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeArticles) GenerateArticle(ctx context.Context, topic string, keywords []string) (entity.BlogPost, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, topic)
	f.mu.Unlock()

	if err := f.failOn[topic]; err != nil {
		return entity.BlogPost{}, err
	}
	src := f.source
	if src == "" {
		src = entity.SourceLive
	}
	return entity.BlogPost{Topic: topic, Title: topic + " title", Keywords: keywords, Source: src}, nil
}

type fakeSaver struct {
	mu    sync.Mutex
	saved []entity.BlogPost
	err   error
}

func (f *fakeSaver) Save(_ context.Context, post entity.BlogPost) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, post)
	return "blog_storage/blog_" + post.Topic + ".html", nil
}

func TestRun_PublishesEveryTopic(t *testing.T) {
	articles := &fakeArticles{}
	saver := &fakeSaver{}
	svc := &Service{Articles: articles, Store: saver, Parallelism: 2}

	stats, err := svc.Run(context.Background(), []Topic{
		{Name: "Go", Keywords: []string{"goroutines"}},
		{Name: "Rust"},
		{Name: "Zig"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Topics)
	assert.Equal(t, 3, stats.Saved)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Degraded)
	assert.ElementsMatch(t, []string{
		"blog_storage/blog_Go.html", "blog_storage/blog_Rust.html", "blog_storage/blog_Zig.html",
	}, stats.Paths)
	assert.Len(t, saver.saved, 3)
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	articles := &fakeArticles{failOn: map[string]error{"Rust": errors.New("upstream exploded")}}
	svc := &Service{Articles: articles, Store: &fakeSaver{}}

	stats, err := svc.Run(context.Background(), []Topic{{Name: "Go"}, {Name: "Rust"}, {Name: "Zig"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `topic "Rust"`)
	assert.Contains(t, err.Error(), "upstream exploded")
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, articles.calls, 3)
}

func TestRun_SaveFailure(t *testing.T) {
	svc := &Service{Articles: &fakeArticles{}, Store: &fakeSaver{err: errors.New("disk full")}}

	stats, err := svc.Run(context.Background(), []Topic{{Name: "Go"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save: disk full")
	assert.Equal(t, 1, stats.Failed)
}

func TestRun_CountsDegradedPosts(t *testing.T) {
	svc := &Service{Articles: &fakeArticles{source: entity.SourceFallback}, Store: &fakeSaver{}}

	stats, err := svc.Run(context.Background(), []Topic{{Name: "Go"}, {Name: "Rust"}})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 2, stats.Degraded)
}

func TestRun_RespectsParallelism(t *testing.T) {
	articles := &fakeArticles{delay: 20 * time.Millisecond}
	svc := &Service{Articles: articles, Store: &fakeSaver{}, Parallelism: 2}

	topics := make([]Topic, 6)
	for i := range topics {
		topics[i] = Topic{Name: string(rune('A' + i))}
	}
	_, err := svc.Run(context.Background(), topics)

	require.NoError(t, err)
	assert.LessOrEqual(t, articles.peak.Load(), int32(2))
}

func TestRun_NoTopics(t *testing.T) {
	svc := &Service{Articles: &fakeArticles{}, Store: &fakeSaver{}}
	_, err := svc.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTopics)
}

func TestParseTopics(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []Topic
		wantErr bool
	}{
		{name: "empty", in: "", want: nil},
		{name: "single without keywords", in: "AI", want: []Topic{{Name: "AI", Keywords: []string{}}}},
		{
			name: "several",
			in:   "AI: AI, Artificial Intelligence ; Go:goroutines;",
			want: []Topic{
				{Name: "AI", Keywords: []string{"AI", "Artificial Intelligence"}},
				{Name: "Go", Keywords: []string{"goroutines"}},
			},
		},
		{name: "missing name", in: ":keyword", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopics(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
