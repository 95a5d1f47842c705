// Package entity defines the core domain entities and validation logic for the application.
// It contains the generation request/result types that flow through the generation pipeline,
// the blog post that is persisted to storage, and domain-specific errors.
package entity

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Operation identifies a generation entry point.
type Operation string

const (
	// OpTitle generates a blog post title for a topic.
	OpTitle Operation = "title"
	// OpPost generates a blog post body for a topic and keywords.
	OpPost Operation = "post"
	// OpBatch generates title and body in a single completion.
	OpBatch Operation = "batch"
	// OpSEOMetrics estimates SEO metrics for a keyword.
	OpSEOMetrics Operation = "seo-metrics"
)

// API input limits. The generation service itself accepts any input.
const (
	// MaxTopicLength is the maximum topic length in runes.
	MaxTopicLength = 200
	// MaxKeywords is the maximum number of keywords accepted per request.
	MaxKeywords = 20
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	switch op {
	case OpTitle, OpPost, OpBatch, OpSEOMetrics:
		return true
	}
	return false
}

// GenerationRequest is the logical identity of a generation call.
// For OpSEOMetrics the keyword is carried in Topic.
type GenerationRequest struct {
	Operation Operation
	Topic     string
	Keywords  []string
}

// Key returns the stable cache key for the request.
// Keywords are order-sensitive: callers wanting reorder-equality must canonicalise first.
func (r GenerationRequest) Key() string {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	// A JSON array keeps separators inside topics or keywords from colliding.
	b, _ := json.Marshal([]any{string(r.Operation), r.Topic, keywords})
	return string(b)
}

// Validate checks client input at the API boundary: required topic or keyword,
// and the MaxTopicLength and MaxKeywords limits.
func (r GenerationRequest) Validate() error {
	if !r.Operation.Valid() {
		return &ValidationError{Field: "operation", Message: fmt.Sprintf("invalid operation %q", r.Operation)}
	}

	field := "topic"
	if r.Operation == OpSEOMetrics {
		field = "keyword"
	}
	if strings.TrimSpace(r.Topic) == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	if utf8.RuneCountInString(r.Topic) > MaxTopicLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must not exceed %d characters", field, MaxTopicLength),
		}
	}

	if len(r.Keywords) > MaxKeywords {
		return &ValidationError{
			Field:   "keywords",
			Message: fmt.Sprintf("keywords must not exceed %d entries", MaxKeywords),
		}
	}
	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return &ValidationError{Field: "keywords", Message: "keywords cannot be empty strings"}
		}
	}
	return nil
}

// Source records where a result came from.
type Source string

const (
	// SourceLive is a genuine answer from the completion service.
	SourceLive Source = "live"
	// SourceOffline is placeholder content produced because offline mode is enabled.
	SourceOffline Source = "offline"
	// SourceFallback is placeholder content substituted for a failed upstream call.
	SourceFallback Source = "fallback"
)

// SEOMetrics is the keyword metric triple.
type SEOMetrics struct {
	SearchVolume      int     `json:"search_volume"`
	AvgCPC            float64 `json:"avg_cpc"`
	KeywordDifficulty int     `json:"keyword_difficulty"`
}

// Normalize clamps difficulty to [0,100], rounds CPC to cents and floors volume at zero.
func (m SEOMetrics) Normalize() SEOMetrics {
	if m.SearchVolume < 0 {
		m.SearchVolume = 0
	}
	if m.AvgCPC < 0 {
		m.AvgCPC = 0
	}
	m.AvgCPC = math.Round(m.AvgCPC*100) / 100
	m.KeywordDifficulty = ClampDifficulty(m.KeywordDifficulty)
	return m
}

// ClampDifficulty limits a difficulty score to [0,100].
func ClampDifficulty(d int) int {
	return min(100, max(0, d))
}

// GenerationResult is the immutable output of a generation operation.
// Which fields are populated depends on Kind: title → Title; post → Content;
// batch → Title and Content; seo-metrics → SEO.
type GenerationResult struct {
	Kind    Operation   `json:"kind"`
	Title   string      `json:"title,omitempty"`
	Content string      `json:"content,omitempty"`
	SEO     *SEOMetrics `json:"seo,omitempty"`
	Source  Source      `json:"source"`

	// Cached is set on the copy returned for a cache hit; it is never persisted.
	Cached bool `json:"-"`
}

// Degraded reports whether the result is placeholder content rather than a live answer.
func (r GenerationResult) Degraded() bool {
	return r.Source != SourceLive
}

// WithSource returns a copy of r with the given source.
func (r GenerationResult) WithSource(s Source) GenerationResult {
	r.Source = s
	return r
}

// SEOBand is the inclusive range a synthetic metric is drawn from.
type SEOBand struct {
	VolumeMin, VolumeMax         int
	CPCMin, CPCMax               float64
	DifficultyMin, DifficultyMax int
}

// shortKeywordLength is the rune count below which a keyword counts as short (more
// searched and more competitive).
const shortKeywordLength = 10

// SEOBandFor returns the synthetic ranges for an unknown keyword. Short keywords use a
// volume base of 5000 and difficulty base of 70; longer ones 2000 and 40. Volume spans
// [base/2, base*2], CPC [0.50, 5.00] and difficulty base±20 clamped to [0,100].
func SEOBandFor(keyword string) SEOBand {
	volumeBase, difficultyBase := 2000, 40
	if utf8.RuneCountInString(keyword) < shortKeywordLength {
		volumeBase, difficultyBase = 5000, 70
	}
	return SEOBand{
		VolumeMin:     volumeBase / 2,
		VolumeMax:     volumeBase * 2,
		CPCMin:        0.50,
		CPCMax:        5.00,
		DifficultyMin: ClampDifficulty(difficultyBase - 20),
		DifficultyMax: ClampDifficulty(difficultyBase + 20),
	}
}

// Contains reports whether m lies within the band.
func (b SEOBand) Contains(m SEOMetrics) bool {
	return m.SearchVolume >= b.VolumeMin && m.SearchVolume <= b.VolumeMax &&
		m.AvgCPC >= b.CPCMin && m.AvgCPC <= b.CPCMax &&
		m.KeywordDifficulty >= b.DifficultyMin && m.KeywordDifficulty <= b.DifficultyMax
}
