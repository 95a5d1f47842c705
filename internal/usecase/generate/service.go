package generate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"autoblog/internal/cache"
	"autoblog/internal/domain/entity"
	"autoblog/internal/infra/completion"
	"autoblog/internal/observability/metrics"
	"autoblog/internal/observability/tracing"
	"autoblog/internal/resilience/ratelimit"
	"autoblog/internal/resilience/retry"
)

// ErrEmptyCompletion is returned when the completion text has nothing usable.
var ErrEmptyCompletion = errors.New("completion contained no usable text")

// articleSEOParallelism bounds concurrent SEO lookups for one article.
const articleSEOParallelism = 4

// SEOLookup answers keyword metrics when a completion cannot be parsed.
type SEOLookup interface {
	Lookup(keyword string) entity.SEOMetrics
}

// Config controls the façade. It is fixed at construction.
type Config struct {
	// Offline serves placeholder content without calling the completion service.
	Offline bool

	// FallbackOnFailure substitutes placeholder content (Source=fallback) when the
	// upstream call fails. When false the failure is returned as *GenerationError.
	FallbackOnFailure bool

	// CacheTTL applies to live and offline results. Zero uses the backend default.
	CacheTTL time.Duration

	// FallbackCacheTTL applies to fallback results so a recovered upstream is
	// picked up again. Zero uses the backend default.
	FallbackCacheTTL time.Duration

	Model          string
	TitleMaxTokens int
	PostMaxTokens  int
	BatchMaxTokens int
	SEOMaxTokens   int
	Temperature    float64

	Prompts Prompts
}

// DefaultConfig returns the defaults: fallback on, 64 title tokens, 1024 post
// tokens, temperature 0.5.
func DefaultConfig() Config {
	return Config{
		FallbackOnFailure: true,
		FallbackCacheTTL:  10 * time.Minute,
		TitleMaxTokens:    64,
		PostMaxTokens:     1024,
		BatchMaxTokens:    1280,
		SEOMaxTokens:      128,
		Temperature:       0.5,
		Prompts:           DefaultPrompts(),
	}
}

// Dependencies are the collaborators of the façade. Only Completer is required,
// and only when Config.Offline is false.
type Dependencies struct {
	Completer completion.Completer
	Cache     cache.Store
	Gate      ratelimit.Gate
	Retry     *retry.Policy
	SEO       SEOLookup
	Logger    *slog.Logger
	Now       func() time.Time
}

// Service runs generation requests through the pipeline
// cache → in-flight dedup → mode → rate gate → retry → parse → fallback → store.
type Service struct {
	cfg       Config
	completer completion.Completer
	cache     cache.Store
	gate      ratelimit.Gate
	retry     *retry.Policy
	seo       SEOLookup
	offline   Offline
	logger    *slog.Logger
	now       func() time.Time

	flights singleflight.Group
}

// NewService builds a Service. Missing optional dependencies get no-op or default
// implementations.
func NewService(cfg Config, deps Dependencies) (*Service, error) {
	if deps.Completer == nil && !cfg.Offline {
		return nil, ErrNoCompleter
	}
	cfg.Prompts = cfg.Prompts.merge()

	s := &Service{
		cfg:       cfg,
		completer: deps.Completer,
		cache:     deps.Cache,
		gate:      deps.Gate,
		retry:     deps.Retry,
		seo:       deps.SEO,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.gate == nil {
		s.gate = ratelimit.Unlimited{}
	}
	if s.retry == nil {
		s.retry = retry.NewPolicy(retry.AIAPIConfig())
	}
	if s.seo == nil {
		s.seo = offlineLookup{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// GenerateTitle returns a blog post title for topic.
func (s *Service) GenerateTitle(ctx context.Context, topic string) (entity.GenerationResult, error) {
	return s.generate(ctx, entity.GenerationRequest{
		Operation: entity.OpTitle,
		Topic:     strings.TrimSpace(topic),
	})
}

// GeneratePost returns a blog post body about topic that uses keywords in order.
func (s *Service) GeneratePost(ctx context.Context, topic string, keywords []string) (entity.GenerationResult, error) {
	return s.generate(ctx, entity.GenerationRequest{
		Operation: entity.OpPost,
		Topic:     strings.TrimSpace(topic),
		Keywords:  entity.NormalizeKeywords(keywords),
	})
}

// GenerateBatch returns title and content from a single completion.
func (s *Service) GenerateBatch(ctx context.Context, topic string, keywords []string) (entity.GenerationResult, error) {
	return s.generate(ctx, entity.GenerationRequest{
		Operation: entity.OpBatch,
		Topic:     strings.TrimSpace(topic),
		Keywords:  entity.NormalizeKeywords(keywords),
	})
}

// GenerateSEOMetrics returns search volume, CPC and difficulty for keyword.
func (s *Service) GenerateSEOMetrics(ctx context.Context, keyword string) (entity.GenerationResult, error) {
	return s.generate(ctx, entity.GenerationRequest{
		Operation: entity.OpSEOMetrics,
		Topic:     strings.TrimSpace(keyword),
	})
}

// GenerateArticle assembles a full post: a batch completion plus SEO metrics for
// every distinct keyword. The post is degraded if any part of it is.
func (s *Service) GenerateArticle(ctx context.Context, topic string, keywords []string) (entity.BlogPost, error) {
	keywords = entity.NormalizeKeywords(keywords)

	batch, err := s.GenerateBatch(ctx, topic, keywords)
	if err != nil {
		return entity.BlogPost{}, err
	}

	distinct := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		if !seen[kw] {
			seen[kw] = true
			distinct = append(distinct, kw)
		}
	}

	results := make([]entity.GenerationResult, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(articleSEOParallelism)
	for i, kw := range distinct {
		g.Go(func() error {
			res, err := s.GenerateSEOMetrics(gctx, kw)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entity.BlogPost{}, err
	}

	post := entity.BlogPost{
		Topic:     strings.TrimSpace(topic),
		Title:     batch.Title,
		Content:   batch.Content,
		Keywords:  keywords,
		SEO:       make(map[string]entity.SEOMetrics, len(distinct)),
		Source:    batch.Source,
		CreatedAt: s.now(),
	}
	for i, kw := range distinct {
		if results[i].SEO != nil {
			post.SEO[kw] = *results[i].SEO
		}
		if post.Source == entity.SourceLive && results[i].Source != entity.SourceLive {
			post.Source = results[i].Source
		}
	}
	return post, nil
}

func (s *Service) generate(ctx context.Context, req entity.GenerationRequest) (res entity.GenerationResult, err error) {
	op := string(req.Operation)
	start := time.Now()
	if req.Topic == "" {
		res = s.blank(ctx, req)
		metrics.RecordGeneration(op, string(res.Source), false, time.Since(start))
		return res, nil
	}

	ctx, span := tracing.StartSpan(ctx, "generate."+op,
		attribute.String("generate.operation", op),
		attribute.String("generate.topic", req.Topic),
		attribute.Int("generate.keywords", len(req.Keywords)))
	defer func() {
		if err == nil {
			span.SetAttributes(
				attribute.String("generate.source", string(res.Source)),
				attribute.Bool("generate.cached", res.Cached))
		}
		tracing.EndSpan(span, err)
	}()

	key := req.Key()
	if hit, ok := s.lookup(ctx, key); ok {
		metrics.RecordGeneration(op, string(hit.Source), true, time.Since(start))
		return hit, nil
	}

	res, err = s.shared(ctx, req, key)
	if err != nil {
		metrics.RecordGenerationFailure(op, retry.Classify(err).String(), time.Since(start))
		return entity.GenerationResult{}, err
	}
	metrics.RecordGeneration(op, string(res.Source), false, time.Since(start))
	return res, nil
}

// blank answers a request without a topic with placeholder content. There is
// nothing to ask the completion service, and nothing worth caching.
func (s *Service) blank(ctx context.Context, req entity.GenerationRequest) entity.GenerationResult {
	res := s.offline.Respond(req)
	if s.cfg.Offline {
		return res
	}
	s.logger.WarnContext(ctx, "generation requested without a topic, serving placeholder content",
		slog.String("operation", string(req.Operation)))
	return res.WithSource(entity.SourceFallback)
}

// shared collapses concurrent identical requests into one flight. Each caller
// still honours its own context while waiting.
func (s *Service) shared(ctx context.Context, req entity.GenerationRequest, key string) (entity.GenerationResult, error) {
	ch := s.flights.DoChan(key, func() (any, error) {
		return s.produce(ctx, req, key)
	})

	select {
	case <-ctx.Done():
		return entity.GenerationResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			// The leading caller went away; this caller is still waiting.
			if r.Shared && retry.Classify(r.Err) == retry.ClassCanceled && ctx.Err() == nil {
				return s.produce(ctx, req, key)
			}
			return entity.GenerationResult{}, r.Err
		}
		return r.Val.(entity.GenerationResult), nil
	}
}

func (s *Service) produce(ctx context.Context, req entity.GenerationRequest, key string) (entity.GenerationResult, error) {
	if s.cfg.Offline {
		res := s.offline.Respond(req)
		s.store(ctx, key, res, s.cfg.CacheTTL)
		return res, nil
	}

	res, attempts, err := s.live(ctx, req)
	metrics.RecordCompletionAttempts(string(req.Operation), attempts)
	if err == nil {
		ttl := s.cfg.CacheTTL
		if res.Degraded() {
			ttl = s.cfg.FallbackCacheTTL
		}
		s.store(ctx, key, res, ttl)
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return entity.GenerationResult{}, ctxErr
	}
	class := retry.Classify(err)
	if class == retry.ClassCanceled {
		return entity.GenerationResult{}, err
	}
	if !s.cfg.FallbackOnFailure {
		return entity.GenerationResult{}, &GenerationError{
			Operation: req.Operation,
			Class:     class,
			Attempts:  attempts,
			Err:       err,
		}
	}

	s.logger.WarnContext(ctx, "generation failed, serving fallback content",
		slog.String("operation", string(req.Operation)),
		slog.String("topic", req.Topic),
		slog.String("class", class.String()),
		slog.Int("attempts", attempts),
		slog.Any("error", err))

	res = s.offline.Respond(req).WithSource(entity.SourceFallback)
	s.store(ctx, key, res, s.cfg.FallbackCacheTTL)
	return res, nil
}

// live gates and calls the completion service under the retry policy, then parses.
// Every attempt passes the gate, so retries are paced like first calls.
func (s *Service) live(ctx context.Context, req entity.GenerationRequest) (entity.GenerationResult, int, error) {
	creq := s.completionRequest(req)

	var text string
	attempts, err := s.retry.Do(ctx, func(ctx context.Context) error {
		waitStart := time.Now()
		if err := s.gate.Wait(ctx); err != nil {
			return err
		}
		metrics.RecordRateLimitWait(time.Since(waitStart))

		out, err := s.completer.Complete(ctx, creq)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return entity.GenerationResult{}, attempts, err
	}

	res, err := s.parse(ctx, req, text)
	return res, attempts, err
}

func (s *Service) parse(ctx context.Context, req entity.GenerationRequest, text string) (entity.GenerationResult, error) {
	res := entity.GenerationResult{Kind: req.Operation, Source: entity.SourceLive}

	switch req.Operation {
	case entity.OpTitle:
		res.Title = cleanTitle(text)
		if res.Title == "" {
			return res, retry.WithClass(retry.ClassFatal, ErrEmptyCompletion)
		}
	case entity.OpPost:
		res.Content = strings.TrimSpace(text)
		if res.Content == "" {
			return res, retry.WithClass(retry.ClassFatal, ErrEmptyCompletion)
		}
	case entity.OpBatch:
		res.Title, res.Content = ParseBatch(text, req.Topic)
		if strings.TrimSpace(text) == "" {
			return res, retry.WithClass(retry.ClassFatal, ErrEmptyCompletion)
		}
		if res.Content == "" {
			// Keep the live title; only the body is placeholder.
			s.logger.WarnContext(ctx, "batch completion has no content, using placeholder body",
				slog.String("topic", req.Topic))
			res.Content = offlinePost(req.Topic, req.Keywords)
			res.Source = entity.SourceFallback
		}
	case entity.OpSEOMetrics:
		seo, err := ParseSEO(text)
		if err != nil {
			s.logger.WarnContext(ctx, "seo completion unparseable, using metrics provider",
				slog.String("keyword", req.Topic),
				slog.Any("error", err))
			seo = s.seo.Lookup(req.Topic).Normalize()
			res.Source = entity.SourceFallback
		}
		res.SEO = &seo
	}
	return res, nil
}

func (s *Service) completionRequest(req entity.GenerationRequest) completion.Request {
	maxTokens := s.cfg.SEOMaxTokens
	switch req.Operation {
	case entity.OpTitle:
		maxTokens = s.cfg.TitleMaxTokens
	case entity.OpPost:
		maxTokens = s.cfg.PostMaxTokens
	case entity.OpBatch:
		maxTokens = s.cfg.BatchMaxTokens
	}

	return completion.Request{
		Model: s.cfg.Model,
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: s.cfg.Prompts.System},
			{Role: completion.RoleUser, Content: s.cfg.Prompts.render(req)},
		},
		MaxTokens:   maxTokens,
		Temperature: s.cfg.Temperature,
	}
}

// lookup treats cache errors as misses; the instrumented store logs them.
func (s *Service) lookup(ctx context.Context, key string) (entity.GenerationResult, bool) {
	res, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return entity.GenerationResult{}, false
	}
	res.Cached = true
	return res, true
}

func (s *Service) store(ctx context.Context, key string, res entity.GenerationResult, ttl time.Duration) {
	// A request that ended still fills the cache for the next caller.
	ctx = context.WithoutCancel(ctx)
	if err := s.cache.Put(ctx, key, res, ttl); err != nil {
		s.logger.WarnContext(ctx, "cache store failed",
			slog.String("operation", string(res.Kind)),
			slog.Any("error", err))
	}
}

// offlineLookup is the SEO fallback when no provider is configured.
type offlineLookup struct{}

func (offlineLookup) Lookup(keyword string) entity.SEOMetrics {
	return offlineSEO(keyword)
}
