package keyword

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/teatak/fenci/dictionary"
	"github.com/teatak/fenci/segmenter"
)

// MinWordLen is the shortest candidate, in characters.
const MinWordLen = 2

// WeightedWord is a keyword with its TF-IDF weight.
type WeightedWord struct {
	Word   string  `json:"word" msgpack:"w"`
	Weight float64 `json:"weight" msgpack:"s"`
}

// Extractor ranks the words of a text by term frequency times IDF.
type Extractor struct {
	seg  *segmenter.Segmenter
	idf  *IDF
	stop dictionary.StopWords
}

// NewExtractor creates an extractor. idf may be nil, in which case every
// word weighs 0 and ordering falls back to first occurrence.
func NewExtractor(seg *segmenter.Segmenter, idf *IDF, stop dictionary.StopWords) *Extractor {
	if idf == nil {
		idf = NewIDF(nil)
	}
	return &Extractor{seg: seg, idf: idf, stop: stop}
}

// Extract returns the topK keywords of text.
func (e *Extractor) Extract(text string, topK int) []string {
	weighted := e.ExtractWithWeight(text, topK)
	res := make([]string, len(weighted))
	for i, w := range weighted {
		res[i] = w.Word
	}
	return res
}

// ExtractWithWeight returns the topK keywords of text with their weights,
// heaviest first. Equal weights keep the order of first occurrence.
func (e *Extractor) ExtractWithWeight(text string, topK int) []WeightedWord {
	if topK <= 0 {
		return []WeightedWord{}
	}

	freq := make(map[string]int)
	var order []string
	for _, w := range e.seg.Cut(text, true) {
		if !e.candidate(w) {
			continue
		}
		if _, ok := freq[w]; !ok {
			order = append(order, w)
		}
		freq[w]++
	}

	res := make([]WeightedWord, len(order))
	for i, w := range order {
		res[i] = WeightedWord{Word: w, Weight: float64(freq[w]) * e.idf.Weight(w)}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Weight > res[j].Weight
	})
	if len(res) > topK {
		res = res[:topK]
	}
	return res
}

func (e *Extractor) candidate(w string) bool {
	if strings.TrimSpace(w) == "" {
		return false
	}
	if utf8.RuneCountInString(w) < MinWordLen {
		return false
	}
	return !e.stop.Contains(w)
}
