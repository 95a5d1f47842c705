package page

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"autoblog/internal/domain/entity"
	"autoblog/internal/handler/http/requestid"
	"autoblog/internal/handler/http/respond"
	"autoblog/internal/infra/storage"
)

// ArticleGenerator produces a full article for the home page.
type ArticleGenerator interface {
	GenerateArticle(ctx context.Context, topic string, keywords []string) (entity.BlogPost, error)
}

// PostStore lists and reads saved posts.
type PostStore interface {
	List(ctx context.Context) ([]storage.StoredPost, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// Handler serves the HTML pages.
type Handler struct {
	Renderer *Renderer
	Articles ArticleGenerator
	Posts    PostStore

	// Home page article.
	DefaultTopic    string
	DefaultKeywords []string

	Logger *slog.Logger
}

// Register mounts the page routes on mux.
func Register(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /about", h.About)
	mux.HandleFunc("GET /posts", h.Index)
	mux.HandleFunc("GET /posts/{name}", h.Post)
}

// Home generates an article for the default topic and renders it.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	post, err := h.Articles.GenerateArticle(r.Context(), h.DefaultTopic, h.DefaultKeywords)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, func(buf io.Writer) error { return h.Renderer.RenderPost(buf, post) })
}

// About renders the static about page.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, h.Renderer.RenderAbout)
}

// Index lists the stored posts, newest first.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Posts.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, func(buf io.Writer) error { return h.Renderer.RenderIndex(buf, posts) })
}

// Post serves one stored file as written.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	data, err := h.Posts.Read(r.Context(), r.PathValue("name"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeHTML(w, data)
}

// render buffers the page so a template error can still become a 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		h.fail(w, r, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var verr *entity.ValidationError
	switch {
	case errors.Is(err, entity.ErrNotFound):
		code = http.StatusNotFound
	case errors.As(err, &verr):
		code = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
	}
	if code >= 500 {
		requestid.Logger(r.Context(), h.logger()).Error("page request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", respond.SanitizeError(err)))
	}
	http.Error(w, http.StatusText(code), code)
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
