package answering

import (
	"strings"

	"github.com/rfpflow/rfpflow-backend/internal/platform/envutil"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

// Thresholds configure answer-status classification. Scores are
// relevance percentages in [0,100].
type Thresholds struct {
	// Min is the floor below which a question counts as not answered.
	Min float64
	// Full is the floor for a fully answered question.
	Full float64
}

func ThresholdsFromEnv() Thresholds {
	return Thresholds{
		Min:  envutil.Float("ANSWER_MIN_RELEVANCE", 40),
		Full: envutil.Float("ANSWER_FULL_RELEVANCE", 70),
	}
}

// Classify derives answer_status from stored fields only, so the status
// can be recomputed at any time and always lands on the same value. No
// history, no hidden state.
func Classify(answerText string, relevance float64, th Thresholds) types.AnswerStatus {
	if strings.TrimSpace(answerText) == "" || relevance < th.Min {
		return types.AnswerStatusNotAnswered
	}
	if relevance >= th.Full {
		return types.AnswerStatusAnswered
	}
	return types.AnswerStatusPartiallyAnswered
}
