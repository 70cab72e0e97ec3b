package util

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// ScoreCompletions returns the top n fuzzy matches for input, best first.
// An empty input returns the candidates unchanged.
func ScoreCompletions(input string, candidates []string, n int) []string {
	if input == "" {
		return candidates
	}
	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return nil
	}

	limit := n
	if n <= 0 || len(matches) < limit {
		limit = len(matches)
	}

	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = matches[i].Str
	}
	return out
}

// CompleteTagList completes the last entry of a comma separated tag list,
// keeping the entries already typed as a prefix of every suggestion.
func CompleteTagList(typed string, tags []string, n int) []string {
	head, last := "", typed
	if i := strings.LastIndexByte(typed, ','); i >= 0 {
		head, last = typed[:i+1], typed[i+1:]
	}
	trimmed := strings.TrimLeft(last, " ")
	head += last[:len(last)-len(trimmed)]
	used := map[string]bool{}
	for _, t := range strings.Split(head, ",") {
		used[strings.TrimSpace(t)] = true
	}
	pool := make([]string, 0, len(tags))
	for _, t := range tags {
		if !used[t] {
			pool = append(pool, t)
		}
	}
	matches := ScoreCompletions(strings.TrimSpace(trimmed), pool, n)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = head + m
	}
	return out
}
