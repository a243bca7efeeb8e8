package extractor

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
)

// Chunker splits extracted text into overlapping windows sized for
// embedding.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker reads CHUNK_SIZE and CHUNK_OVERLAP from the environment.
// Separator precedence keeps paragraphs together before falling back to
// sentences, then words, then raw characters.
func NewChunker() *Chunker {
	size := envutil.Int("CHUNK_SIZE", 1000)
	overlap := envutil.Int("CHUNK_OVERLAP", 200)
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
	)
	return &Chunker{splitter: splitter}
}

// Split returns the non-empty chunks of text, in document order.
// Whitespace-only input yields no chunks.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	raw, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	chunks := make([]string, 0, len(raw))
	for _, chunk := range raw {
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}
