package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"autoblog/internal/domain/entity"
	"autoblog/internal/handler/http/requestid"
	"autoblog/internal/handler/http/respond"
	"autoblog/internal/resilience/retry"
	genUC "autoblog/internal/usecase/generate"
)

// Generator is the subset of the façade the API needs.
type Generator interface {
	GenerateTitle(ctx context.Context, topic string) (entity.GenerationResult, error)
	GeneratePost(ctx context.Context, topic string, keywords []string) (entity.GenerationResult, error)
	GenerateBatch(ctx context.Context, topic string, keywords []string) (entity.GenerationResult, error)
	GenerateSEOMetrics(ctx context.Context, keyword string) (entity.GenerationResult, error)
	GenerateArticle(ctx context.Context, topic string, keywords []string) (entity.BlogPost, error)
}

// Saver persists an article and returns where it went.
type Saver interface {
	Save(ctx context.Context, post entity.BlogPost) (string, error)
}

// Handler serves the generation endpoints. Saver may be nil, in which case
// batch requests asking to save are rejected.
type Handler struct {
	Svc    Generator
	Saver  Saver
	Logger *slog.Logger
}

// Register mounts the API routes on mux. wrap guards the generation endpoints,
// typically with the per-IP limiter.
func Register(mux *http.ServeMux, h *Handler, wrap func(http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("GET /api/seo", wrap(http.HandlerFunc(h.SEO)))
	mux.Handle("POST /api/generate/title", wrap(http.HandlerFunc(h.Title)))
	mux.Handle("POST /api/generate/post", wrap(http.HandlerFunc(h.Post)))
	mux.Handle("POST /api/generate/batch", wrap(http.HandlerFunc(h.Batch)))
}

// SEO answers GET /api/seo?keyword=.
func (h *Handler) SEO(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if err := (entity.GenerationRequest{Operation: entity.OpSEOMetrics, Topic: keyword}).Validate(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.Svc.GenerateSEOMetrics(r.Context(), keyword)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := SEOResponse{Keyword: keyword, Source: res.Source, Cached: res.Cached}
	if res.SEO != nil {
		out.SEOMetrics = *res.SEO
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) Title(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, entity.OpTitle)
	if !ok {
		return
	}
	res, err := h.Svc.GenerateTitle(r.Context(), req.Topic)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, fromResult(res))
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, entity.OpPost)
	if !ok {
		return
	}
	res, err := h.Svc.GeneratePost(r.Context(), req.Topic, req.Keywords)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, fromResult(res))
}

// Batch generates title and content in one call. With save set, the full
// article including keyword metrics is assembled and stored.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, entity.OpBatch)
	if !ok {
		return
	}

	if !req.Save {
		res, err := h.Svc.GenerateBatch(r.Context(), req.Topic, req.Keywords)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, fromResult(res))
		return
	}

	if h.Saver == nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("saving is disabled"))
		return
	}
	post, err := h.Svc.GenerateArticle(r.Context(), req.Topic, req.Keywords)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	path, err := h.Saver.Save(r.Context(), post)
	if err != nil {
		h.fail(w, r, fmt.Errorf("save article: %w", err))
		return
	}
	respond.JSON(w, http.StatusOK, Response{
		Title:   post.Title,
		Content: post.Content,
		SEO:     post.SEO,
		Source:  post.Source,
		Path:    path,
	})
}

// decode reads the body and applies the API input limits for op.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, op entity.Operation) (Request, bool) {
	var req Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too long"))
			return Request{}, false
		}
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return Request{}, false
	}

	in := entity.GenerationRequest{Operation: op, Topic: strings.TrimSpace(req.Topic), Keywords: req.Keywords}
	if err := in.Validate(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return Request{}, false
	}
	return req, true
}

// fail maps façade errors onto status codes. Upstream detail stays in the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := requestid.Logger(r.Context(), h.logger())

	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		respond.SafeError(w, http.StatusBadRequest, verr)
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("generation abandoned", slog.String("error", err.Error()))
		respond.Fail(w, 0, respond.NewAppError(http.StatusServiceUnavailable, "request canceled", err))
		return
	}

	var genErr *genUC.GenerationError
	if errors.As(err, &genErr) {
		logger.Error("generation failed",
			slog.String("operation", string(genErr.Operation)),
			slog.String("class", genErr.Class.String()),
			slog.Int("attempts", genErr.Attempts),
			slog.String("error", respond.SanitizeError(genErr.Err)))
		code := http.StatusInternalServerError
		if genErr.Class == retry.ClassRateLimited {
			code = http.StatusServiceUnavailable
		}
		respond.Fail(w, 0, respond.NewAppError(code, "generation failed", err))
		return
	}

	respond.SafeError(w, http.StatusInternalServerError, err)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
