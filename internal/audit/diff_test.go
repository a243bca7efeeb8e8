package audit

import (
	"reflect"
	"strings"
	"testing"
)

func TestDiffBothEmpty(t *testing.T) {
	if got := Diff("", ""); got != nil {
		t.Fatalf("want nil, got=%+v", got)
	}
}

func TestDiffEqualTexts(t *testing.T) {
	got := Diff("we support SSO", "we support SSO")
	want := []Segment{{Type: SegmentUnchanged, Text: "we support SSO"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestDiffPureAddition(t *testing.T) {
	got := Diff("", "new answer here")
	want := []Segment{{Type: SegmentAdded, Text: "new answer here"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestDiffPureDeletion(t *testing.T) {
	got := Diff("old answer", "")
	want := []Segment{{Type: SegmentDeleted, Text: "old answer"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestDiffWordReplacement(t *testing.T) {
	got := Diff("uptime is 99.5 percent", "uptime is 99.9 percent")
	want := []Segment{
		{Type: SegmentUnchanged, Text: "uptime is"},
		{Type: SegmentDeleted, Text: "99.5"},
		{Type: SegmentAdded, Text: "99.9"},
		{Type: SegmentUnchanged, Text: "percent"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%+v want=%+v", got, want)
	}
}

func TestDiffReconstructsBothSides(t *testing.T) {
	oldText := "we offer email support during business hours"
	newText := "we offer phone and email support around the clock"
	segments := Diff(oldText, newText)

	var oldSide, newSide []string
	for _, seg := range segments {
		switch seg.Type {
		case SegmentUnchanged:
			oldSide = append(oldSide, seg.Text)
			newSide = append(newSide, seg.Text)
		case SegmentDeleted:
			oldSide = append(oldSide, seg.Text)
		case SegmentAdded:
			newSide = append(newSide, seg.Text)
		}
	}
	if strings.Join(oldSide, " ") != oldText {
		t.Fatalf("old side: got=%q", strings.Join(oldSide, " "))
	}
	if strings.Join(newSide, " ") != newText {
		t.Fatalf("new side: got=%q", strings.Join(newSide, " "))
	}
}

func TestDiffDeterministic(t *testing.T) {
	a := Diff("alpha beta gamma delta", "alpha gamma epsilon delta")
	b := Diff("alpha beta gamma delta", "alpha gamma epsilon delta")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("non-deterministic diff: %+v vs %+v", a, b)
	}
}
