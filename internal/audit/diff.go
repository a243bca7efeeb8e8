package audit

import "strings"

type SegmentType string

const (
	SegmentUnchanged SegmentType = "unchanged"
	SegmentAdded     SegmentType = "added"
	SegmentDeleted   SegmentType = "deleted"
)

// Segment is one run of words sharing a change type. Joining the
// unchanged+deleted segments reproduces the old text; unchanged+added
// reproduces the new one.
type Segment struct {
	Type SegmentType `json:"type"`
	Text string      `json:"text"`
}

// Diff computes a word-level diff between two answers using a longest
// common subsequence. It is pure and deterministic: identical inputs
// always produce identical segments. Equal texts yield a single
// unchanged segment; two empty texts yield no segments.
func Diff(oldText, newText string) []Segment {
	oldWords := strings.Fields(oldText)
	newWords := strings.Fields(newText)

	if len(oldWords) == 0 && len(newWords) == 0 {
		return nil
	}
	if oldText == newText {
		return []Segment{{Type: SegmentUnchanged, Text: strings.Join(newWords, " ")}}
	}
	if len(oldWords) == 0 {
		return []Segment{{Type: SegmentAdded, Text: strings.Join(newWords, " ")}}
	}
	if len(newWords) == 0 {
		return []Segment{{Type: SegmentDeleted, Text: strings.Join(oldWords, " ")}}
	}

	// LCS table over words.
	lcs := make([][]int, len(oldWords)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(newWords)+1)
	}
	for i := len(oldWords) - 1; i >= 0; i-- {
		for j := len(newWords) - 1; j >= 0; j-- {
			if oldWords[i] == newWords[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var segments []Segment
	appendWord := func(segType SegmentType, word string) {
		if n := len(segments); n > 0 && segments[n-1].Type == segType {
			segments[n-1].Text += " " + word
			return
		}
		segments = append(segments, Segment{Type: segType, Text: word})
	}

	i, j := 0, 0
	for i < len(oldWords) && j < len(newWords) {
		switch {
		case oldWords[i] == newWords[j]:
			appendWord(SegmentUnchanged, oldWords[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			appendWord(SegmentDeleted, oldWords[i])
			i++
		default:
			appendWord(SegmentAdded, newWords[j])
			j++
		}
	}
	for ; i < len(oldWords); i++ {
		appendWord(SegmentDeleted, oldWords[i])
	}
	for ; j < len(newWords); j++ {
		appendWord(SegmentAdded, newWords[j])
	}
	return segments
}
