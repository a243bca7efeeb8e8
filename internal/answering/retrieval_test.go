package answering

import (
	"testing"

	"github.com/rfpflow/rfpflow-backend/internal/platform/vectorstore"
)

func TestRelevanceFromDistance(t *testing.T) {
	cases := []struct {
		distance float64
		want     float64
	}{
		{0, 100},
		{0.25, 75},
		{0.5, 50},
		{1, 0},
		{1.5, 0},
	}
	for _, tc := range cases {
		if got := RelevanceFromDistance(tc.distance); got != tc.want {
			t.Fatalf("RelevanceFromDistance(%v): want=%v got=%v", tc.distance, tc.want, got)
		}
	}
}

func match(docID, filename, text string, distance float64) vectorstore.Match {
	return vectorstore.Match{
		Text:     text,
		Distance: distance,
		Metadata: map[string]any{"document_id": docID, "filename": filename},
	}
}

func TestSelectSourcesFiltersAndDedupes(t *testing.T) {
	matches := []vectorstore.Match{
		match("doc-a", "a.pdf", "best chunk of a", 0.1),
		match("doc-b", "b.pdf", "best chunk of b", 0.2),
		match("doc-a", "a.pdf", "weaker chunk of a", 0.3),
		match("doc-c", "c.pdf", "too weak", 0.9),
	}

	sources := SelectSources(matches, 40)
	if len(sources) != 2 {
		t.Fatalf("sources: want=2 got=%d (%+v)", len(sources), sources)
	}
	if sources[0].SourceID != "doc-a" || sources[0].Relevance != 90 {
		t.Fatalf("first source: %+v", sources[0])
	}
	if sources[1].SourceID != "doc-b" || sources[1].Relevance != 80 {
		t.Fatalf("second source: %+v", sources[1])
	}
	// dedupe kept the higher-relevance chunk
	if sources[0].Text != "best chunk of a" {
		t.Fatalf("kept chunk: %q", sources[0].Text)
	}
}

func TestSelectSourcesQAPairs(t *testing.T) {
	matches := []vectorstore.Match{
		{
			Text:     "Question: SSO?\n\nAnswer: Yes.",
			Distance: 0.15,
			Metadata: map[string]any{"qa_pair_id": "pair-1", "filename": "Knowledge Base Q&A - 12345678"},
		},
	}
	sources := SelectSources(matches, 40)
	if len(sources) != 1 || sources[0].SourceID != "pair-1" {
		t.Fatalf("sources: %+v", sources)
	}
}

func TestSelectSourcesEmptyBelowThreshold(t *testing.T) {
	matches := []vectorstore.Match{match("doc-a", "a.pdf", "irrelevant", 0.95)}
	if sources := SelectSources(matches, 40); len(sources) != 0 {
		t.Fatalf("expected no sources, got=%+v", sources)
	}
}
