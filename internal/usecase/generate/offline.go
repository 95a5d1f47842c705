package generate

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"autoblog/internal/domain/entity"
)

// Offline produces deterministic placeholder results. It performs no I/O.
type Offline struct{}

// DefaultTitle is the templated title used in offline mode and when a batch
// completion carries no TITLE: marker.
func DefaultTitle(topic string) string {
	return topic + ": A Practical Guide"
}

// Respond returns the placeholder result for req with Source set to offline.
func (Offline) Respond(req entity.GenerationRequest) entity.GenerationResult {
	res := entity.GenerationResult{Kind: req.Operation, Source: entity.SourceOffline}
	switch req.Operation {
	case entity.OpTitle:
		res.Title = DefaultTitle(req.Topic)
	case entity.OpPost:
		res.Content = offlinePost(req.Topic, req.Keywords)
	case entity.OpBatch:
		res.Title = DefaultTitle(req.Topic)
		res.Content = offlinePost(req.Topic, req.Keywords)
	case entity.OpSEOMetrics:
		seo := offlineSEO(req.Topic)
		res.SEO = &seo
	}
	return res
}

func offlinePost(topic string, keywords []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is a placeholder article about %s. "+
		"Live generation is unavailable, so this text stands in for the real post.", topic)

	for _, kw := range keywords {
		fmt.Fprintf(&b, "\n\n%s: how %s relates to %s will be covered here once generation is back online.",
			kw, kw, topic)
	}

	fmt.Fprintf(&b, "\n\nIn summary, %s is worth following closely.", topic)
	return b.String()
}

// offlineSEO derives stable metrics from an FNV-1a hash of the keyword, inside the
// band used for unknown keywords.
func offlineSEO(keyword string) entity.SEOMetrics {
	band := entity.SEOBandFor(keyword)

	h := fnv.New64a()
	_, _ = h.Write([]byte(keyword))
	sum := h.Sum64()

	volumeSpan := uint64(band.VolumeMax - band.VolumeMin + 1)
	cpcCents := uint64(math.Round((band.CPCMax-band.CPCMin)*100)) + 1
	diffSpan := uint64(band.DifficultyMax - band.DifficultyMin + 1)

	return entity.SEOMetrics{
		SearchVolume:      band.VolumeMin + int(sum%volumeSpan),
		AvgCPC:            band.CPCMin + float64((sum>>20)%cpcCents)/100,
		KeywordDifficulty: band.DifficultyMin + int((sum>>40)%diffSpan),
	}.Normalize()
}
