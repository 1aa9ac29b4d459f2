package hmm

import (
	"bufio"
	"io"
	"math"
	"strings"

	"github.com/teatak/fenci/util"
)

// Sentence represents a training sentence with its golden tags.
type Sentence struct {
	Runes []rune
	Tags  []int
}

// TagWord returns the B/M/E/S tags of a word of n characters.
func TagWord(n int) []int {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []int{TagS}
	}
	tags := make([]int, n)
	tags[0] = TagB
	for k := 1; k < n-1; k++ {
		tags[k] = TagM
	}
	tags[n-1] = TagE
	return tags
}

// LoadCorpus reads a segmented corpus, one sentence per line with words
// separated by whitespace. Punctuation words break nothing and are skipped.
func LoadCorpus(r io.Reader) ([]Sentence, error) {
	var data []Sentence
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		var sent Sentence
		for _, word := range strings.Fields(scanner.Text()) {
			if util.IsPunctuation(word) {
				continue
			}
			wRunes := []rune(word)
			sent.Runes = append(sent.Runes, wRunes...)
			sent.Tags = append(sent.Tags, TagWord(len(wRunes))...)
		}
		if len(sent.Runes) > 0 {
			data = append(data, sent)
		}
	}
	return data, scanner.Err()
}

// Train estimates start, transition and emission probabilities by counting
// tags in the corpus. Events never observed stay at MinLogProb.
func Train(sentences []Sentence) *Model {
	var (
		startCnt [numTags]float64
		transCnt [numTags][numTags]float64
		tagCnt   [numTags]float64
		emitCnt  [numTags]map[rune]float64
	)
	for i := range emitCnt {
		emitCnt[i] = make(map[rune]float64)
	}

	for _, sent := range sentences {
		if len(sent.Tags) == 0 || len(sent.Tags) != len(sent.Runes) {
			continue
		}
		startCnt[sent.Tags[0]]++
		for i, tag := range sent.Tags {
			tagCnt[tag]++
			emitCnt[tag][sent.Runes[i]]++
			if i > 0 {
				transCnt[sent.Tags[i-1]][tag]++
			}
		}
	}

	m := NewModel()
	m.Start = logNormalize(startCnt[:])
	for from := 0; from < numTags; from++ {
		m.Trans[from] = logNormalize(transCnt[from][:])
		if tagCnt[from] == 0 {
			continue
		}
		for r, c := range emitCnt[from] {
			m.Emit[from][r] = math.Log(c / tagCnt[from])
		}
	}
	return m
}

func logNormalize(counts []float64) [numTags]float64 {
	var res [numTags]float64
	total := 0.0
	for _, c := range counts {
		total += c
	}
	for i, c := range counts {
		if c == 0 || total == 0 {
			res[i] = MinLogProb
			continue
		}
		res[i] = math.Log(c / total)
	}
	return res
}
