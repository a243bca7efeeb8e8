package llm

import "strings"

const (
	reasoningOpenTag  = "<think>"
	reasoningCloseTag = "</think>"
)

// SplitReasoning separates the model's reasoning segment from the usable
// answer. Models in the qwen family emit zero or more <think>...</think>
// blocks before (or inside) the answer text; the blocks are concatenated
// into the reasoning return and stripped from the answer. An unclosed
// open tag swallows everything after it, so truncated reasoning never
// leaks into an answer. Pure function, no I/O.
func SplitReasoning(raw string) (reasoning, answer string) {
	var reasoningParts []string
	var answerParts []string

	rest := raw
	for {
		start := strings.Index(rest, reasoningOpenTag)
		if start < 0 {
			answerParts = append(answerParts, rest)
			break
		}
		answerParts = append(answerParts, rest[:start])
		rest = rest[start+len(reasoningOpenTag):]

		end := strings.Index(rest, reasoningCloseTag)
		if end < 0 {
			reasoningParts = append(reasoningParts, strings.TrimSpace(rest))
			break
		}
		reasoningParts = append(reasoningParts, strings.TrimSpace(rest[:end]))
		rest = rest[end+len(reasoningCloseTag):]
	}

	reasoning = strings.TrimSpace(strings.Join(nonEmpty(reasoningParts), "\n\n"))
	answer = strings.TrimSpace(strings.Join(answerParts, ""))
	return reasoning, answer
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
