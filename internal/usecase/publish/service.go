// Package publish runs the scheduled job: generate an article for each
// configured topic and save it to storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"autoblog/internal/domain/entity"
	"autoblog/internal/handler/http/respond"
)

const defaultParallelism = 2

// ArticleGenerator produces a complete post for a topic.
type ArticleGenerator interface {
	GenerateArticle(ctx context.Context, topic string, keywords []string) (entity.BlogPost, error)
}

// Saver persists a post and returns its path.
type Saver interface {
	Save(ctx context.Context, post entity.BlogPost) (string, error)
}

// Topic is one thing to write about on each run.
type Topic struct {
	Name     string
	Keywords []string
}

// Stats summarises a run.
type Stats struct {
	Topics   int
	Saved    int
	Degraded int
	Failed   int
	Paths    []string
	Duration time.Duration
}

// Service publishes posts. Topics are processed concurrently, at most
// Parallelism at a time. One failing topic does not stop the others.
type Service struct {
	Articles    ArticleGenerator
	Store       Saver
	Parallelism int
	Logger      *slog.Logger
}

// ErrNoTopics is returned when Run is given nothing to do.
var ErrNoTopics = errors.New("no topics configured")

// Run publishes one post per topic. The error joins every per-topic failure;
// stats are valid either way.
func (s *Service) Run(ctx context.Context, topics []Topic) (*Stats, error) {
	if len(topics) == 0 {
		return &Stats{}, ErrNoTopics
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := s.Parallelism
	if limit <= 0 {
		limit = defaultParallelism
	}

	start := time.Now()
	stats := &Stats{Topics: len(topics)}
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, topic := range topics {
		g.Go(func() error {
			path, degraded, err := s.publishOne(gctx, topic)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				errs = append(errs, fmt.Errorf("topic %q: %w", topic.Name, err))
				logger.Error("publish failed",
					slog.String("topic", topic.Name),
					slog.String("error", respond.SanitizeError(err)))
				return nil
			}
			stats.Saved++
			if degraded {
				stats.Degraded++
			}
			stats.Paths = append(stats.Paths, path)
			logger.Info("post published",
				slog.String("topic", topic.Name),
				slog.String("path", path),
				slog.Bool("degraded", degraded))
			return nil
		})
	}
	_ = g.Wait()

	stats.Duration = time.Since(start)
	return stats, errors.Join(errs...)
}

func (s *Service) publishOne(ctx context.Context, topic Topic) (string, bool, error) {
	post, err := s.Articles.GenerateArticle(ctx, topic.Name, topic.Keywords)
	if err != nil {
		return "", false, fmt.Errorf("generate: %w", err)
	}
	path, err := s.Store.Save(ctx, post)
	if err != nil {
		return "", false, fmt.Errorf("save: %w", err)
	}
	return path, post.Degraded(), nil
}

// ParseTopics reads "topic:kw1,kw2;other topic:kw3". Keywords are optional.
// An empty string yields no topics.
func ParseTopics(s string) ([]Topic, error) {
	var topics []Topic
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, kws, _ := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid topic entry %q: name is required", part)
		}
		topics = append(topics, Topic{Name: name, Keywords: entity.SplitKeywords(kws)})
	}
	return topics, nil
}
