package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// LoadError reports a malformed line or an unreadable dictionary source.
type LoadError struct {
	Source string
	Line   int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: %s line %d: %v", ErrDictionaryLoad, e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrDictionaryLoad, e.Source, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrDictionaryLoad, e.Err}
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

// parseEntries reads "word freq [tag]" lines. When requireFreq is false a
// missing frequency is reported as 0.
func parseEntries(source string, r io.Reader, requireFreq bool, fn func(Entry)) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := parseLine(line, requireFreq)
		if err != nil {
			return &LoadError{Source: source, Line: lineNo, Err: err}
		}
		fn(e)
	}
	if err := scanner.Err(); err != nil {
		return &LoadError{Source: source, Err: err}
	}
	return nil
}

func parseLine(line string, requireFreq bool) (Entry, error) {
	parts := strings.Fields(line)
	if len(parts) > 3 {
		return Entry{}, fmt.Errorf("expected at most 3 fields, got %d", len(parts))
	}
	e := Entry{Word: strings.TrimPrefix(parts[0], "\ufeff")}
	if e.Word == "" {
		return Entry{}, fmt.Errorf("empty word")
	}

	rest := parts[1:]
	if len(rest) > 0 {
		f, err := strconv.ParseFloat(rest[0], 64)
		switch {
		case err == nil:
			if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
				return Entry{}, fmt.Errorf("frequency of %q must be positive, got %v", e.Word, f)
			}
			e.Freq = f
			rest = rest[1:]
		case requireFreq || len(rest) == 2:
			return Entry{}, fmt.Errorf("invalid frequency %q for %q", rest[0], e.Word)
		}
	} else if requireFreq {
		return Entry{}, fmt.Errorf("missing frequency for %q", e.Word)
	}
	if len(rest) > 0 {
		e.Tag = rest[0]
	}
	return e, nil
}
