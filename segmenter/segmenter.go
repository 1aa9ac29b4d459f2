package segmenter

import (
	"math"
	"unicode/utf8"

	"github.com/teatak/fenci/dictionary"
	"github.com/teatak/fenci/hmm"
	"github.com/teatak/fenci/util"
)

// Mode defines the segmentation mode.
type Mode int

const (
	ModePrecise Mode = iota // ModePrecise emits the single most probable segmentation.
	ModeAll                 // ModeAll emits every dictionary word found, overlapping.
	ModeSearch              // ModeSearch is ModePrecise plus dictionary sub-words of long tokens.
)

// DefaultSearchSubLengths are the sub-word lengths emitted in ModeSearch.
var DefaultSearchSubLengths = []int{2, 3}

// Token is a segment of the input. Start and End are byte offsets, End exclusive.
type Token struct {
	Text  string `json:"text" msgpack:"text"`
	Start int    `json:"start" msgpack:"start"`
	End   int    `json:"end" msgpack:"end"`
}

// Segmenter handles the text segmentation.
type Segmenter struct {
	Dict  *dictionary.Store
	Model *hmm.Model

	subLengths []int
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithSearchSubLengths sets the sub-word lengths emitted in ModeSearch.
func WithSearchSubLengths(lengths ...int) Option {
	return func(s *Segmenter) {
		var valid []int
		for _, l := range lengths {
			if l > 1 {
				valid = append(valid, l)
			}
		}
		if len(valid) > 0 {
			s.subLengths = valid
		}
	}
}

// New creates a segmenter. model may be nil, which disables unknown-word detection.
func New(dict *dictionary.Store, model *hmm.Model, opts ...Option) *Segmenter {
	s := &Segmenter{
		Dict:       dict,
		Model:      model,
		subLengths: DefaultSearchSubLengths,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cut segments the text into the most probable word sequence.
func (s *Segmenter) Cut(text string, useHMM bool) []string {
	return Texts(s.Tokenize(text, ModePrecise, useHMM))
}

// CutAll returns every dictionary word in the text, including overlapping ones.
func (s *Segmenter) CutAll(text string) []string {
	return Texts(s.Tokenize(text, ModeAll, false))
}

// CutForSearch segments the text like Cut and adds the dictionary sub-words
// of long tokens right after them. Typical usage: for search engine indexing.
func (s *Segmenter) CutForSearch(text string, useHMM bool) []string {
	return Texts(s.Tokenize(text, ModeSearch, useHMM))
}

// Tokenize segments the text and reports byte offsets for every token.
func (s *Segmenter) Tokenize(text string, mode Mode, useHMM bool) []Token {
	runes, offsets := byteOffsets(text)
	result := make([]Token, 0, len(runes))
	emit := func(start, end int) {
		result = append(result, Token{
			Text:  text[offsets[start]:offsets[end]],
			Start: offsets[start],
			End:   offsets[end],
		})
	}

	s.Dict.View(func(txn *dictionary.Txn) {
		for _, block := range splitTextToBlocks(runes) {
			if block.kind != blockWord {
				emit(block.start, block.end)
				continue
			}
			switch mode {
			case ModeAll:
				s.cutAll(txn, runes, block.start, block.end, emit)
			case ModeSearch:
				for _, sp := range s.cutPrecise(txn, runes, block.start, block.end, useHMM) {
					emit(sp.start, sp.end)
					s.addSubWords(txn, runes, sp, emit)
				}
			default:
				for _, sp := range s.cutPrecise(txn, runes, block.start, block.end, useHMM) {
					emit(sp.start, sp.end)
				}
			}
		}
	})
	return result
}

// Texts returns the text of each token.
func Texts(tokens []Token) []string {
	res := make([]string, len(tokens))
	for i, t := range tokens {
		res[i] = t.Text
	}
	return res
}

// span is a rune range [start, end) of the input.
type span struct {
	start, end int
}

// buildDAG returns, for every position of the block, the dictionary words
// starting there. A position with no word gets a single character edge.
func buildDAG(txn *dictionary.Txn, runes []rune, start, end int) [][]dictionary.Match {
	block := runes[start:end]
	dag := make([][]dictionary.Match, len(block))
	for i := range block {
		dag[i] = txn.WordsStartingAt(block, i)
		if len(dag[i]) == 0 {
			dag[i] = []dictionary.Match{{End: i + 1, Freq: txn.FloorFreq()}}
		}
	}
	return dag
}

type routeNode struct {
	prob float64
	end  int
}

// calcRoute finds the maximum probability path right to left. On equal
// scores the longer word wins.
func calcRoute(txn *dictionary.Txn, dag [][]dictionary.Match) []routeNode {
	n := len(dag)
	logTotal := txn.LogTotal()
	route := make([]routeNode, n+1)
	route[n] = routeNode{prob: 0, end: n}

	for i := n - 1; i >= 0; i-- {
		best := routeNode{prob: math.Inf(-1), end: i + 1}
		for _, m := range dag[i] {
			prob := math.Log(m.Freq) - logTotal + route[m.End].prob
			if prob >= best.prob {
				best = routeNode{prob: prob, end: m.End}
			}
		}
		route[i] = best
	}
	return route
}

// cutPrecise returns absolute spans covering runes[start:end].
func (s *Segmenter) cutPrecise(txn *dictionary.Txn, runes []rune, start, end int, useHMM bool) []span {
	block := runes[start:end]
	route := calcRoute(txn, buildDAG(txn, runes, start, end))
	if useHMM && s.Model != nil {
		return s.cutDAGWithHMM(txn, block, route, start)
	}
	return cutDAGNoHMM(block, route, start)
}

// cutDAGNoHMM follows the route, joining consecutive single letters and
// digits so that "PKU" or "25" are not split.
func cutDAGNoHMM(block []rune, route []routeNode, offset int) []span {
	var res []span
	bufStart := -1
	flush := func(at int) {
		if bufStart >= 0 {
			res = append(res, span{offset + bufStart, offset + at})
			bufStart = -1
		}
	}
	for x := 0; x < len(block); {
		y := route[x].end
		if y-x == 1 && util.IsAlnum(block[x]) {
			if bufStart < 0 {
				bufStart = x
			}
			x = y
			continue
		}
		flush(x)
		res = append(res, span{offset + x, offset + y})
		x = y
	}
	flush(len(block))
	return res
}

// cutDAGWithHMM follows the route and hands runs of single characters,
// the gaps in dictionary coverage, to the HMM.
func (s *Segmenter) cutDAGWithHMM(txn *dictionary.Txn, block []rune, route []routeNode, offset int) []span {
	var res []span
	bufStart := -1
	flush := func(at int) {
		if bufStart < 0 {
			return
		}
		res = append(res, s.cutGap(block[bufStart:at], offset+bufStart)...)
		bufStart = -1
	}
	for x := 0; x < len(block); {
		y := route[x].end
		if y-x == 1 && !txn.IsUserWord(string(block[x])) {
			if bufStart < 0 {
				bufStart = x
			}
			x = y
			continue
		}
		flush(x)
		res = append(res, span{offset + x, offset + y})
		x = y
	}
	flush(len(block))
	return res
}

// cutGap re-segments a run of single characters with the HMM, even when
// the run is itself a dictionary word.
func (s *Segmenter) cutGap(gap []rune, offset int) []span {
	if len(gap) == 1 {
		return []span{{offset, offset + 1}}
	}
	var res []span
	pos := offset
	for _, w := range s.Model.Segment(gap) {
		n := utf8.RuneCountInString(w)
		res = append(res, span{pos, pos + n})
		pos += n
	}
	return res
}

// cutAll emits every multi-character word at each position, shortest
// first. A character is emitted alone only when nothing emitted so far
// covers it. An uncovered letter/digit run such as "PKU" stays whole, as
// jieba's cut_all passes non-Han runs of [a-zA-Z0-9+#] through unsplit.
func (s *Segmenter) cutAll(txn *dictionary.Txn, runes []rune, start, end int, emit func(start, end int)) {
	block := runes[start:end]
	covered := 0
	for i := range block {
		multi := false
		for _, m := range txn.WordsStartingAt(block, i) {
			if m.End-i > 1 {
				emit(start+i, start+m.End)
				multi = true
				if m.End > covered {
					covered = m.End
				}
			}
		}
		if multi || i < covered {
			continue
		}
		j := i + 1
		if util.IsAlnum(block[i]) {
			j = util.ScanAlnum(block, i)
		}
		emit(start+i, start+j)
		covered = j
	}
}

// addSubWords emits the dictionary words of the configured lengths found
// inside a long token, once each, left to right per length.
func (s *Segmenter) addSubWords(txn *dictionary.Txn, runes []rune, sp span, emit func(start, end int)) {
	n := sp.end - sp.start
	if n <= 2 {
		return
	}
	seen := make(map[string]struct{})
	for _, l := range s.subLengths {
		if l >= n {
			continue
		}
		for i := sp.start; i+l <= sp.end; i++ {
			w := string(runes[i : i+l])
			if _, ok := seen[w]; ok {
				continue
			}
			if txn.Contains(w) {
				seen[w] = struct{}{}
				emit(i, i+l)
			}
		}
	}
}
