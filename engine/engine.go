// Package engine ties the dictionary, HMM model, tagger and keyword
// extractor into a single instance that serves every public operation.
package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/teatak/fenci/dictionary"
	"github.com/teatak/fenci/hmm"
	"github.com/teatak/fenci/internal/logger"
	"github.com/teatak/fenci/keyword"
	"github.com/teatak/fenci/posseg"
	"github.com/teatak/fenci/segmenter"
)

// ErrInvalidHandle is returned by every operation on a nil *Engine.
var ErrInvalidHandle = errors.New("invalid engine handle")

// Sources are the raw data streams an engine is built from. Dict is
// required, the others may be nil: without HMM unknown-word detection is
// off, without IDF every keyword weighs the same.
type Sources struct {
	Dict      io.Reader
	User      io.Reader
	HMM       io.Reader
	IDF       io.Reader
	StopWords io.Reader
}

// Engine is safe for concurrent use. User-word edits are serialized with
// segmentation by the dictionary's lock.
type Engine struct {
	dict     *dictionary.Store
	model    *hmm.Model
	seg      *segmenter.Segmenter
	tagger   *posseg.Tagger
	keywords *keyword.Extractor
	cache    *cache
	logger   *log.Logger

	// mu orders dictionary edits with cache invalidation.
	mu sync.Mutex
}

type options struct {
	logger    *log.Logger
	dictOpts  []dictionary.Option
	segOpts   []segmenter.Option
	tagOpts   []posseg.Option
	cacheSize int
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger. By default the engine is silent.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDictionaryOptions passes options to the dictionary loader.
func WithDictionaryOptions(opts ...dictionary.Option) Option {
	return func(o *options) {
		o.dictOpts = append(o.dictOpts, opts...)
	}
}

// WithSearchSubLengths sets the sub-word lengths of search mode.
func WithSearchSubLengths(lengths ...int) Option {
	return func(o *options) {
		o.segOpts = append(o.segOpts, segmenter.WithSearchSubLengths(lengths...))
	}
}

// WithUnknownTag sets the POS tag of unrecognized words.
func WithUnknownTag(tag string) Option {
	return func(o *options) {
		o.tagOpts = append(o.tagOpts, posseg.WithUnknownTag(tag))
	}
}

// WithCacheSize enables an LRU cache of segmentation results. 0 disables it.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

func buildOptions(opts []Option) *options {
	o := &options{logger: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New loads every source and builds an engine. Any load failure is
// returned and no engine is produced.
func New(src Sources, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)

	dict, err := dictionary.Load(src.Dict, src.User, o.dictOpts...)
	if err != nil {
		return nil, err
	}

	var model *hmm.Model
	if src.HMM != nil {
		if model, err = hmm.Load(src.HMM); err != nil {
			return nil, err
		}
	}

	idf, err := keyword.LoadIDF(src.IDF)
	if err != nil {
		return nil, err
	}
	stop, err := dictionary.LoadStopWords(src.StopWords)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("Loaded sources",
		"words", dict.Len(), "user_words", len(dict.UserWords()), "total_freq", dict.Total(),
		"hmm", model != nil, "idf", idf.Len(), "stop_words", stop.Len())
	return build(dict, model, idf, stop, o)
}

// NewFromParts builds an engine around already loaded parts. model and idf
// may be nil.
func NewFromParts(dict *dictionary.Store, model *hmm.Model, idf *keyword.IDF, stop dictionary.StopWords, opts ...Option) (*Engine, error) {
	if dict == nil {
		return nil, fmt.Errorf("%w: dictionary is nil", dictionary.ErrDictionaryLoad)
	}
	return build(dict, model, idf, stop, buildOptions(opts))
}

func build(dict *dictionary.Store, model *hmm.Model, idf *keyword.IDF, stop dictionary.StopWords, o *options) (*Engine, error) {
	seg := segmenter.New(dict, model, o.segOpts...)
	c, err := newCache(o.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		dict:     dict,
		model:    model,
		seg:      seg,
		tagger:   posseg.New(seg, dict, o.tagOpts...),
		keywords: keyword.NewExtractor(seg, idf, stop),
		cache:    c,
		logger:   o.logger,
	}, nil
}

// Segment cuts text in precise mode.
func (e *Engine) Segment(text string, useHMM bool) ([]string, error) {
	tokens, err := e.Tokenize(text, segmenter.ModePrecise, useHMM)
	if err != nil {
		return nil, err
	}
	return segmenter.Texts(tokens), nil
}

// SegmentAll returns every dictionary word of text.
func (e *Engine) SegmentAll(text string) ([]string, error) {
	tokens, err := e.Tokenize(text, segmenter.ModeAll, false)
	if err != nil {
		return nil, err
	}
	return segmenter.Texts(tokens), nil
}

// SegmentForSearch cuts text in search mode.
func (e *Engine) SegmentForSearch(text string, useHMM bool) ([]string, error) {
	tokens, err := e.Tokenize(text, segmenter.ModeSearch, useHMM)
	if err != nil {
		return nil, err
	}
	return segmenter.Texts(tokens), nil
}

// Tokenize cuts text in the given mode and reports byte offsets.
func (e *Engine) Tokenize(text string, mode segmenter.Mode, useHMM bool) ([]segmenter.Token, error) {
	if e == nil {
		return nil, ErrInvalidHandle
	}
	if mode == segmenter.ModeAll || e.model == nil {
		useHMM = false
	}
	return e.cache.get(mode, useHMM, text, func() []segmenter.Token {
		return e.seg.Tokenize(text, mode, useHMM)
	}), nil
}

// Tag cuts text with the HMM and tags every word.
func (e *Engine) Tag(text string) ([]posseg.Pair, error) {
	if e == nil {
		return nil, ErrInvalidHandle
	}
	return e.tagger.Tag(text), nil
}

// ExtractKeywords returns the topK keywords of text.
func (e *Engine) ExtractKeywords(text string, topK int) ([]string, error) {
	if e == nil {
		return nil, ErrInvalidHandle
	}
	return e.keywords.Extract(text, topK), nil
}

// ExtractKeywordsWithWeight returns the topK keywords of text with weights.
func (e *Engine) ExtractKeywordsWithWeight(text string, topK int) ([]keyword.WeightedWord, error) {
	if e == nil {
		return nil, ErrInvalidHandle
	}
	return e.keywords.ExtractWithWeight(text, topK), nil
}

// InsertUserWord adds or replaces a user word. freq <= 0 uses the default
// user frequency.
func (e *Engine) InsertUserWord(word string, freq float64, tag string) error {
	if e == nil {
		return ErrInvalidHandle
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.dict.InsertUserWord(word, freq, tag); err != nil {
		return err
	}
	e.cache.invalidate()
	e.logger.Debug("Inserted user word", "word", word, "freq", freq, "tag", tag)
	return nil
}

// DeleteUserWord removes a user word. Deleting an unknown word is a no-op.
func (e *Engine) DeleteUserWord(word string) error {
	if e == nil {
		return ErrInvalidHandle
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dict.DeleteUserWord(word)
	e.cache.invalidate()
	e.logger.Debug("Deleted user word", "word", word)
	return nil
}

// Lookup returns the dictionary entry of word.
func (e *Engine) Lookup(word string) (dictionary.Entry, bool, error) {
	if e == nil {
		return dictionary.Entry{}, false, ErrInvalidHandle
	}
	entry, ok := e.dict.Lookup(word)
	return entry, ok, nil
}

// Dictionary returns the underlying store.
func (e *Engine) Dictionary() *dictionary.Store {
	if e == nil {
		return nil
	}
	return e.dict
}

// HasHMM reports whether unknown-word detection is available.
func (e *Engine) HasHMM() bool {
	return e != nil && e.model != nil
}

// Stats describes the loaded data.
type Stats struct {
	Words      int     `json:"words" msgpack:"words"`
	UserWords  int     `json:"user_words" msgpack:"user_words"`
	TotalFreq  float64 `json:"total_freq" msgpack:"total_freq"`
	MaxWordLen int     `json:"max_word_len" msgpack:"max_word_len"`
	HMM        bool    `json:"hmm" msgpack:"hmm"`
	CacheLen   int     `json:"cache_len" msgpack:"cache_len"`
}

// Stats returns a summary of the engine's data.
func (e *Engine) Stats() (Stats, error) {
	if e == nil {
		return Stats{}, ErrInvalidHandle
	}
	return Stats{
		Words:      e.dict.Len(),
		UserWords:  len(e.dict.UserWords()),
		TotalFreq:  e.dict.Total(),
		MaxWordLen: e.dict.MaxLen(),
		HMM:        e.model != nil,
		CacheLen:   e.cache.len(),
	}, nil
}
