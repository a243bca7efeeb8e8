package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractedQuestion is one entry of the model's JSON output. The
// spreadsheet fields are only present for cell-based extraction.
type ExtractedQuestion struct {
	QuestionText        string  `json:"question_text"`
	Confidence          float64 `json:"confidence"`
	Order               int     `json:"order"`
	SheetName           string  `json:"sheet_name,omitempty"`
	AnswerCellReference string  `json:"answer_cell_reference,omitempty"`
	CellConfidence      float64 `json:"cell_confidence,omitempty"`
}

// ParseQuestions decodes the model output into questions. The raw text
// must already have its reasoning segment stripped. Markdown code
// fences around the array are tolerated; anything else that fails to
// decode is the caller's cue to retry with a stricter prompt.
func ParseQuestions(raw string) ([]ExtractedQuestion, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty extraction output")
	}

	var questions []ExtractedQuestion
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("decode extraction output: %w", err)
	}

	kept := questions[:0]
	for _, q := range questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			continue
		}
		kept = append(kept, q)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("extraction output contained no questions")
	}
	return kept, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop a language tag like "json" on the fence line
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "[{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
