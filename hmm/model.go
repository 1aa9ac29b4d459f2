package hmm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tag constants, in the order the model file lists them.
const (
	TagB = 0 // Begin
	TagE = 1 // End
	TagM = 2 // Middle
	TagS = 3 // Single

	numTags = 4
)

// MinLogProb stands in for log(0) wherever a table has no entry.
const MinLogProb = -3.14e100

// ErrModelLoad is wrapped by every error returned while parsing a model source.
var ErrModelLoad = errors.New("hmm model load")

// Model holds the log-probability tables of a 4-state character tagger.
type Model struct {
	// Start[tag] = log P(first tag)
	Start [numTags]float64
	// Trans[from][to] = log P(to | from)
	Trans [numTags][numTags]float64
	// Emit[tag][char] = log P(char | tag); missing chars use MinLogProb
	Emit [numTags]map[rune]float64
}

// NewModel creates a model with every probability at MinLogProb.
func NewModel() *Model {
	m := &Model{}
	for i := 0; i < numTags; i++ {
		m.Start[i] = MinLogProb
		for j := 0; j < numTags; j++ {
			m.Trans[i][j] = MinLogProb
		}
		m.Emit[i] = make(map[rune]float64)
	}
	return m
}

func (m *Model) emit(tag int, r rune) float64 {
	if p, ok := m.Emit[tag][r]; ok {
		return p
	}
	return MinLogProb
}

// Load parses a model in the text format written by Save.
//
// Lines starting with '#' are comments. The remaining nine lines are, in
// order: the four start probabilities, four rows of the transition matrix,
// and one emission list per tag as comma separated "char:logprob" pairs
// ("-" for an empty list). Tags are ordered B E M S throughout.
func Load(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 16*1024*1024)

	m := NewModel()
	section := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isComment(line) {
			continue
		}
		var err error
		switch {
		case section == 0:
			err = parseFloats(line, m.Start[:])
		case section <= numTags:
			err = parseFloats(line, m.Trans[section-1][:])
		case section <= 2*numTags:
			err = parseEmit(line, m.Emit[section-numTags-1])
		default:
			err = fmt.Errorf("unexpected data after emission tables")
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrModelLoad, lineNo, err)
		}
		section++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	if section != 2*numTags+1 {
		return nil, fmt.Errorf("%w: expected %d data lines, got %d", ErrModelLoad, 2*numTags+1, section)
	}
	return m, nil
}

// isComment keeps emission lines whose first character is '#' as data.
func isComment(line string) bool {
	return strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "#:")
}

func parseFloats(line string, dst []float64) error {
	parts := strings.Fields(line)
	if len(parts) != len(dst) {
		return fmt.Errorf("expected %d values, got %d", len(dst), len(parts))
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return err
		}
		dst[i] = f
	}
	return nil
}

func parseEmit(line string, dst map[rune]float64) error {
	if line == "-" {
		return nil
	}
	for _, item := range strings.Split(line, ",") {
		if item == "" {
			continue
		}
		idx := strings.LastIndex(item, ":")
		if idx <= 0 {
			return fmt.Errorf("malformed emission %q", item)
		}
		char := item[:idx]
		r, size := utf8.DecodeRuneInString(char)
		if r == utf8.RuneError || size != len(char) {
			return fmt.Errorf("emission key %q is not a single character", char)
		}
		f, err := strconv.ParseFloat(item[idx+1:], 64)
		if err != nil {
			return err
		}
		dst[r] = f
	}
	return nil
}

// Save writes the model in the format read by Load.
func (m *Model) Save(w io.Writer) error {
	writer := bufio.NewWriter(w)

	fmt.Fprintln(writer, "#prob_start")
	writeFloats(writer, m.Start[:])
	fmt.Fprintln(writer, "#prob_trans")
	for i := 0; i < numTags; i++ {
		writeFloats(writer, m.Trans[i][:])
	}
	fmt.Fprintln(writer, "#prob_emit")
	for i := 0; i < numTags; i++ {
		fmt.Fprintf(writer, "#%s\n", TagStr(i))
		chars := make([]rune, 0, len(m.Emit[i]))
		for r := range m.Emit[i] {
			if r == ',' || unicode.IsSpace(r) {
				continue
			}
			chars = append(chars, r)
		}
		sort.Slice(chars, func(a, b int) bool { return chars[a] < chars[b] })
		items := make([]string, len(chars))
		for k, r := range chars {
			items[k] = string(r) + ":" + formatProb(m.Emit[i][r])
		}
		if len(items) == 0 {
			fmt.Fprintln(writer, "-")
			continue
		}
		fmt.Fprintln(writer, strings.Join(items, ","))
	}
	return writer.Flush()
}

func writeFloats(w io.Writer, vals []float64) {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatProb(v)
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

func formatProb(v float64) string {
	if v <= MinLogProb || math.IsInf(v, -1) {
		return strconv.FormatFloat(MinLogProb, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// TagStr returns the string representation of a tag.
func TagStr(t int) string {
	switch t {
	case TagB:
		return "B"
	case TagM:
		return "M"
	case TagE:
		return "E"
	case TagS:
		return "S"
	}
	return "?"
}
