// Package keyword extracts TF-IDF weighted keywords from text.
package keyword

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrIDFLoad is wrapped by every error returned while parsing an IDF source.
var ErrIDFLoad = errors.New("idf load")

// IDF maps words to inverse document frequency weights. It is read only
// after loading.
type IDF struct {
	weights map[string]float64
	// Average is the weight of words missing from the table.
	Average float64
}

// NewIDF builds a table from weights; Average is their mean.
func NewIDF(weights map[string]float64) *IDF {
	idf := &IDF{weights: make(map[string]float64, len(weights))}
	sum := 0.0
	for w, v := range weights {
		idf.weights[w] = v
		sum += v
	}
	if len(weights) > 0 {
		idf.Average = sum / float64(len(weights))
	}
	return idf
}

// LoadIDF parses "word weight" lines. Blank lines and lines starting with
// '#' are skipped. A repeated word keeps its last weight.
func LoadIDF(r io.Reader) (*IDF, error) {
	weights := make(map[string]float64)
	if r == nil {
		return NewIDF(weights), nil
	}
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 fields, got %d", ErrIDFLoad, lineNo, len(parts))
		}
		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: line %d: invalid weight %q", ErrIDFLoad, lineNo, parts[1])
		}
		weights[parts[0]] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIDFLoad, err)
	}
	return NewIDF(weights), nil
}

// Weight returns the weight of word, or Average when the table lacks it.
func (idf *IDF) Weight(word string) float64 {
	if v, ok := idf.weights[word]; ok {
		return v
	}
	return idf.Average
}

// Len returns the number of words in the table.
func (idf *IDF) Len() int {
	return len(idf.weights)
}
