package extraction

import "testing"

func TestParseQuestionsPlainArray(t *testing.T) {
	raw := `[{"question_text": "Do you support SSO?", "confidence": 0.95, "order": 1},
	{"question_text": "What is your SLA?", "confidence": 0.9, "order": 2}]`

	got, err := ParseQuestions(raw)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("count: want=2 got=%d", len(got))
	}
	if got[0].QuestionText != "Do you support SSO?" || got[0].Order != 1 {
		t.Fatalf("first: got=%+v", got[0])
	}
}

func TestParseQuestionsCodeFenced(t *testing.T) {
	raw := "```json\n[{\"question_text\": \"Q?\", \"confidence\": 0.8, \"order\": 0}]\n```"
	got, err := ParseQuestions(raw)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(got) != 1 || got[0].QuestionText != "Q?" {
		t.Fatalf("got=%+v", got)
	}
}

func TestParseQuestionsSpreadsheetFields(t *testing.T) {
	raw := `[{"question_text": "Uptime?", "confidence": 0.9, "order": 0,
	"sheet_name": "Security", "answer_cell_reference": "B4", "cell_confidence": 0.85}]`

	got, err := ParseQuestions(raw)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	q := got[0]
	if q.SheetName != "Security" || q.AnswerCellReference != "B4" {
		t.Fatalf("anchors: got=%+v", q)
	}
	if q.CellConfidence != 0.85 {
		t.Fatalf("cell_confidence: got=%v", q.CellConfidence)
	}
}

func TestParseQuestionsDropsBlankEntries(t *testing.T) {
	raw := `[{"question_text": "  ", "confidence": 0.5, "order": 0},
	{"question_text": "Real?", "confidence": 0.5, "order": 1}]`

	got, err := ParseQuestions(raw)
	if err != nil {
		t.Fatalf("ParseQuestions: %v", err)
	}
	if len(got) != 1 || got[0].QuestionText != "Real?" {
		t.Fatalf("got=%+v", got)
	}
}

func TestParseQuestionsRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "Sure! Here are the questions:", `{"not": "an array"}`, "[]"} {
		if _, err := ParseQuestions(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
