package answering

import (
	"github.com/rfpflow/rfpflow-backend/internal/platform/vectorstore"
)

// Source is one deduplicated answer source: the best-matching chunk of
// a single document or knowledge-base pair.
type Source struct {
	SourceID  string
	Filename  string
	Relevance float64
	Text      string
}

// RelevanceFromDistance maps a vector distance to a percentage. A
// distance of 0 is a perfect match (100); anything at or beyond 1 is
// worthless (0).
func RelevanceFromDistance(distance float64) float64 {
	r := (1 - distance) * 100
	if r < 0 {
		return 0
	}
	return r
}

// SelectSources filters matches below minRelevance and deduplicates by
// source document, keeping the highest-relevance chunk of each. Matches
// arrive sorted by ascending distance, so the output preserves
// descending relevance order.
func SelectSources(matches []vectorstore.Match, minRelevance float64) []Source {
	seen := make(map[string]bool, len(matches))
	var sources []Source
	for _, m := range matches {
		relevance := RelevanceFromDistance(m.Distance)
		if relevance < minRelevance {
			continue
		}
		id := sourceID(m.Metadata)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		filename, _ := m.Metadata["filename"].(string)
		sources = append(sources, Source{
			SourceID:  id,
			Filename:  filename,
			Relevance: relevance,
			Text:      m.Text,
		})
	}
	return sources
}

func sourceID(metadata map[string]any) string {
	if id, ok := metadata["document_id"].(string); ok && id != "" {
		return id
	}
	if id, ok := metadata["qa_pair_id"].(string); ok && id != "" {
		return id
	}
	return ""
}
