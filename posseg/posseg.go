// Package posseg assigns part-of-speech tags to segmented words.
package posseg

import (
	"github.com/teatak/fenci/dictionary"
	"github.com/teatak/fenci/segmenter"
	"github.com/teatak/fenci/util"
)

// Tags assigned by shape when the dictionary has none.
const (
	TagNumber  = "m"
	TagEnglish = "eng"
	TagPunct   = "x"
)

// DefaultUnknownTag is given to words that are neither in the dictionary
// nor recognized by shape.
const DefaultUnknownTag = "x"

// Pair is a word and its tag.
type Pair struct {
	Word string `json:"word" msgpack:"w"`
	Tag  string `json:"tag" msgpack:"t"`
}

// Tagger tags the output of a segmenter.
type Tagger struct {
	seg        *segmenter.Segmenter
	dict       *dictionary.Store
	unknownTag string
}

// Option configures a Tagger.
type Option func(*Tagger)

// WithUnknownTag sets the tag used for words with no dictionary tag and no
// recognizable shape.
func WithUnknownTag(tag string) Option {
	return func(t *Tagger) {
		if tag != "" {
			t.unknownTag = tag
		}
	}
}

// New creates a tagger.
func New(seg *segmenter.Segmenter, dict *dictionary.Store, opts ...Option) *Tagger {
	t := &Tagger{
		seg:        seg,
		dict:       dict,
		unknownTag: DefaultUnknownTag,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tag cuts text in precise mode with the HMM and tags every word.
// The words are exactly those of Cut(text, true).
func (t *Tagger) Tag(text string) []Pair {
	words := t.seg.Cut(text, true)
	res := make([]Pair, len(words))
	t.dict.View(func(txn *dictionary.Txn) {
		for i, w := range words {
			res[i] = Pair{Word: w, Tag: t.tagOf(txn, w)}
		}
	})
	return res
}

func (t *Tagger) tagOf(txn *dictionary.Txn, word string) string {
	if e, ok := txn.Lookup(word); ok && e.Tag != "" {
		return e.Tag
	}
	switch util.ShapeOf(word) {
	case util.ShapeNumber:
		return TagNumber
	case util.ShapeLatin:
		return TagEnglish
	case util.ShapePunct:
		return TagPunct
	}
	return t.unknownTag
}

// Words returns the words of pairs.
func Words(pairs []Pair) []string {
	res := make([]string, len(pairs))
	for i, p := range pairs {
		res[i] = p.Word
	}
	return res
}
