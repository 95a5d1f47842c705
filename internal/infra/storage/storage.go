// Package storage persists generated blog posts as standalone HTML files.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gofrs/flock"

	"autoblog/internal/domain/entity"
	"autoblog/internal/observability/metrics"
)

const (
	// DefaultDir is used when BLOG_STORAGE_DIR is unset.
	DefaultDir = "blog_storage"

	filePrefix    = "blog_"
	fileSuffix    = ".html"
	timestampForm = "20060102_150405"
	lockFileName  = ".write.lock"
	lockRetry     = 25 * time.Millisecond
	maxCollisions = 100
)

// Renderer writes a blog post as a complete HTML document.
type Renderer interface {
	RenderPost(w io.Writer, post entity.BlogPost) error
}

// StoredPost describes a saved file.
type StoredPost struct {
	Name    string    `json:"name"`
	Title   string    `json:"title"`
	Size    int64     `json:"size"`
	SavedAt time.Time `json:"saved_at"`
}

// Store writes posts under a directory. Writers in different processes are
// serialised by a lock file in the same directory; mu covers goroutines sharing
// the Store, since a Flock that is already held reports success to its owner.
type Store struct {
	dir      string
	renderer Renderer
	mu       sync.Mutex
	lock     *flock.Flock
	now      func() time.Time
	logger   *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithNow overrides the clock used for file names.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates the directory if needed and returns a Store writing into it.
func New(dir string, renderer Renderer, opts ...Option) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if renderer == nil {
		return nil, errors.New("storage: renderer is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	s := &Store{
		dir:      dir,
		renderer: renderer,
		lock:     flock.New(filepath.Join(dir, lockFileName)),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// SafeFilename replaces every rune outside [A-Za-z0-9_-] with an underscore.
func SafeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// Save renders post and writes it atomically as blog_<topic>_<YYYYMMDD_HHMMSS>.html.
// A name already taken within the same second gets a numeric suffix. It returns
// the path of the new file.
func (s *Store) Save(ctx context.Context, post entity.BlogPost) (path string, err error) {
	defer func() { metrics.RecordPostSaved(err == nil) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderPost(&buf, post); err != nil {
		return "", fmt.Errorf("render post: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return "", fmt.Errorf("acquire storage lock: %w", err)
	}
	if !locked {
		return "", errors.New("acquire storage lock: not acquired")
	}
	defer func() {
		if uerr := s.lock.Unlock(); uerr != nil {
			s.logger.Warn("failed to release storage lock", slog.Any("error", uerr))
		}
	}()

	savedAt := post.CreatedAt
	if savedAt.IsZero() {
		savedAt = s.now()
	}
	path, err = s.freeName(post.Topic, savedAt)
	if err != nil {
		return "", err
	}

	if err := writeAtomic(s.dir, path, buf.Bytes()); err != nil {
		return "", err
	}

	s.logger.Info("blog post saved",
		slog.String("path", path),
		slog.String("topic", post.Topic),
		slog.String("source", string(post.Source)))
	return path, nil
}

func (s *Store) freeName(topic string, at time.Time) (string, error) {
	base := filePrefix + SafeFilename(topic) + "_" + at.Format(timestampForm)
	for i := 0; i < maxCollisions; i++ {
		name := base
		if i > 0 {
			name += "-" + strconv.Itoa(i)
		}
		path := filepath.Join(s.dir, name+fileSuffix)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("no free file name for %q at %s", topic, at.Format(timestampForm))
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".blog-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { // #nosec G302 -- published HTML
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// List returns stored posts newest first. Titles come from each file's <title>.
func (s *Store) List(ctx context.Context) ([]StoredPost, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	posts := make([]StoredPost, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !validName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		title, err := s.readTitle(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.logger.Warn("failed to read stored post title",
				slog.String("name", e.Name()),
				slog.Any("error", err))
		}
		posts = append(posts, StoredPost{
			Name:    e.Name(),
			Title:   title,
			Size:    info.Size(),
			SavedAt: info.ModTime(),
		})
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].SavedAt.Equal(posts[j].SavedAt) {
			return posts[i].SavedAt.After(posts[j].SavedAt)
		}
		return posts[i].Name > posts[j].Name
	})

	metrics.UpdateStoredPosts(len(posts))
	return posts, nil
}

func (s *Store) readTitle(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- name validated by validName
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

// Read returns the stored file called name. Names that could escape the
// directory or are not post files report entity.ErrNotFound.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(name) {
		return nil, entity.ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name)) // #nosec G304 -- name validated
	if errors.Is(err, fs.ErrNotExist) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read stored post: %w", err)
	}
	return data, nil
}

// Ping checks that the directory is writable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return fmt.Errorf("storage not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func validName(name string) bool {
	if name != filepath.Base(name) || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return false
	}
	stem := strings.TrimSuffix(name, fileSuffix)
	return SafeFilename(stem) == stem
}
