// Package seo serves keyword metrics from a JSON table on disk, synthesizing
// plausible values for keywords the table does not know.
package seo

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"autoblog/internal/domain/entity"
)

// DefaultDataFile is used when SEO_DATA_FILE is unset.
const DefaultDataFile = "data/keyword_metrics.json"

// defaultTable seeds a missing data file.
var defaultTable = map[string]entity.SEOMetrics{
	"AI": {SearchVolume: 10000, AvgCPC: 1.5, KeywordDifficulty: 75},
}

// Provider answers keyword metric lookups. Known keywords come from the table
// verbatim; unknown ones are drawn uniformly from entity.SEOBandFor.
type Provider struct {
	table map[string]entity.SEOMetrics

	mu   sync.Mutex
	rand *rand.Rand
}

// Option customizes a Provider.
type Option func(*Provider)

// WithRand overrides the randomness source for synthetic metrics.
func WithRand(r *rand.Rand) Option {
	return func(p *Provider) {
		if r != nil {
			p.rand = r
		}
	}
}

// New creates a provider over an in-memory table. A nil table means every
// keyword is synthetic.
func New(table map[string]entity.SEOMetrics, opts ...Option) *Provider {
	p := &Provider{
		table: make(map[string]entity.SEOMetrics, len(table)),
		// #nosec G404 -- synthetic metrics are placeholders, not secrets
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for k, v := range table {
		p.table[k] = v
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open loads the table at path, writing the default table there first if the
// file does not exist. A file that exists but cannot be parsed is an error;
// callers usually log it and continue with New(nil).
func Open(path string, opts ...Option) (*Provider, error) {
	if path == "" {
		path = DefaultDataFile
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeDefault(path); err != nil {
			return nil, err
		}
		slog.Info("created default seo data file", slog.String("path", path))
		return New(defaultTable, opts...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seo data file: %w", err)
	}

	var table map[string]entity.SEOMetrics
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse seo data file %s: %w", path, err)
	}
	return New(table, opts...), nil
}

func writeDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create seo data dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(defaultTable, "", "  ")
	if err != nil {
		return fmt.Errorf("encode default seo table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write seo data file: %w", err)
	}
	return nil
}

// Known reports whether keyword has a table entry.
func (p *Provider) Known(keyword string) bool {
	_, ok := p.table[keyword]
	return ok
}

// Size returns the number of table entries.
func (p *Provider) Size() int {
	return len(p.table)
}

// Lookup returns all three metrics for keyword. Matching is exact.
func (p *Provider) Lookup(keyword string) entity.SEOMetrics {
	if m, ok := p.table[keyword]; ok {
		return m
	}
	return entity.SEOMetrics{
		SearchVolume:      p.SearchVolume(keyword),
		AvgCPC:            p.AvgCPC(keyword),
		KeywordDifficulty: p.KeywordDifficulty(keyword),
	}
}

// SearchVolume returns the monthly search volume for keyword.
func (p *Provider) SearchVolume(keyword string) int {
	if m, ok := p.table[keyword]; ok {
		return m.SearchVolume
	}
	band := entity.SEOBandFor(keyword)
	return p.intn(band.VolumeMin, band.VolumeMax)
}

// AvgCPC returns the average cost per click for keyword, in dollars.
func (p *Provider) AvgCPC(keyword string) float64 {
	if m, ok := p.table[keyword]; ok {
		return m.AvgCPC
	}
	band := entity.SEOBandFor(keyword)
	p.mu.Lock()
	u := p.rand.Float64()
	p.mu.Unlock()
	cpc := band.CPCMin + u*(band.CPCMax-band.CPCMin)
	return math.Round(cpc*100) / 100
}

// KeywordDifficulty returns a 0-100 ranking difficulty for keyword.
func (p *Provider) KeywordDifficulty(keyword string) int {
	if m, ok := p.table[keyword]; ok {
		return m.KeywordDifficulty
	}
	band := entity.SEOBandFor(keyword)
	return entity.ClampDifficulty(p.intn(band.DifficultyMin, band.DifficultyMax))
}

// intn returns a uniform integer in [lo, hi].
func (p *Provider) intn(lo, hi int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lo + p.rand.Intn(hi-lo+1)
}
