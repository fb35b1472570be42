package types

import "strings"

// NotFound is the sentinel section index. It is never zero so an absent header cannot
// be confused with a header on the first line.
const NotFound = -1

// StopWords is a set of lines that end a bounded scan.
type StopWords struct {
	words map[string]struct{}
	fold  bool
}

// NewStopWords builds a case-sensitive stop-word set.
func NewStopWords(words ...string) StopWords {
	return newStopWords(false, words)
}

// NewFoldedStopWords builds a stop-word set that matches regardless of case.
func NewFoldedStopWords(words ...string) StopWords {
	return newStopWords(true, words)
}

func newStopWords(fold bool, words []string) StopWords {
	s := StopWords{words: make(map[string]struct{}, len(words)), fold: fold}
	for _, w := range words {
		if fold {
			w = strings.ToLower(w)
		}
		s.words[w] = struct{}{}
	}
	return s
}

// Contains reports whether line is a stop word.
func (s StopWords) Contains(line string) bool {
	if s.fold {
		line = strings.ToLower(line)
	}
	_, ok := s.words[line]
	return ok
}

// Window describes a bounded forward scan over lines.
type Window struct {
	Start int       // first index scanned
	Size  int       // maximum number of lines scanned
	Limit int       // maximum number of kept lines; <= 0 means no cap
	Stop  StopWords // scan ends at the first stop word
}

// TakeUpTo scans lines[w.Start : w.Start+w.Size], stopping at a stop word, and keeps
// transform(line) for every line where it returns ok, up to w.Limit results.
func TakeUpTo(lines []string, w Window, transform func(string) (string, bool)) []string {
	if w.Start < 0 || w.Start >= len(lines) {
		return nil
	}
	end := min(w.Start+w.Size, len(lines))
	var out []string
	for i := w.Start; i < end; i++ {
		line := lines[i]
		if w.Stop.Contains(line) {
			break
		}
		v, ok := transform(line)
		if !ok {
			continue
		}
		out = append(out, v)
		if w.Limit > 0 && len(out) >= w.Limit {
			break
		}
	}
	return out
}

// Keep adapts a predicate to TakeUpTo's transform signature.
func Keep(pred func(string) bool) func(string) (string, bool) {
	return func(s string) (string, bool) { return s, pred(s) }
}
