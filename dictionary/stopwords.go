package dictionary

import (
	"bufio"
	"io"
	"strings"
)

// StopWords is an immutable set of words excluded from keyword extraction.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a set from words.
func NewStopWords(words ...string) StopWords {
	s := StopWords{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			s.words[w] = struct{}{}
		}
	}
	return s
}

// LoadStopWords reads one word per line. A nil reader yields an empty set.
func LoadStopWords(r io.Reader) (StopWords, error) {
	s := StopWords{words: make(map[string]struct{})}
	if r == nil {
		return s, nil
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" {
			continue
		}
		s.words[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return StopWords{}, &LoadError{Source: "stop words", Err: err}
	}
	return s, nil
}

// Contains reports whether w is a stop word.
func (s StopWords) Contains(w string) bool {
	_, ok := s.words[w]
	return ok
}

// Len returns the number of stop words.
func (s StopWords) Len() int {
	return len(s.words)
}
