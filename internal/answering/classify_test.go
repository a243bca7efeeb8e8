package answering

import (
	"testing"

	"github.com/rfpflow/rfpflow-backend/internal/types"
)

func TestClassify(t *testing.T) {
	th := Thresholds{Min: 40, Full: 70}
	cases := []struct {
		name      string
		answer    string
		relevance float64
		want      types.AnswerStatus
	}{
		{"empty answer", "", 90, types.AnswerStatusNotAnswered},
		{"whitespace answer", "   ", 90, types.AnswerStatusNotAnswered},
		{"below min", "We do.", 39.9, types.AnswerStatusNotAnswered},
		{"at min", "We do.", 40, types.AnswerStatusPartiallyAnswered},
		{"between", "We do.", 55, types.AnswerStatusPartiallyAnswered},
		{"just under full", "We do.", 69.9, types.AnswerStatusPartiallyAnswered},
		{"at full", "We do.", 70, types.AnswerStatusAnswered},
		{"perfect", "We do.", 100, types.AnswerStatusAnswered},
		{"zero relevance", "We do.", 0, types.AnswerStatusNotAnswered},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.answer, tc.relevance, th); got != tc.want {
				t.Fatalf("Classify(%q, %v): want=%q got=%q", tc.answer, tc.relevance, tc.want, got)
			}
		})
	}
}

func TestClassifyRecomputable(t *testing.T) {
	th := Thresholds{Min: 40, Full: 70}
	// same stored fields, same status, every time
	for i := 0; i < 3; i++ {
		if got := Classify("We support SAML.", 72.4, th); got != types.AnswerStatusAnswered {
			t.Fatalf("iteration %d: got=%q", i, got)
		}
	}
}
