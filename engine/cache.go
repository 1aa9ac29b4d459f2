package engine

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/teatak/fenci/segmenter"
)

type cacheKey struct {
	gen    uint64
	mode   segmenter.Mode
	useHMM bool
	text   string
}

// cache memoizes segmentation results. Entries are keyed by the dictionary
// generation, so a result computed before an edit is never served after it.
type cache struct {
	lru *lru.Cache[cacheKey, []segmenter.Token]
	gen atomic.Uint64
}

// newCache returns nil when size is 0; a nil cache computes every time.
func newCache(size int) (*cache, error) {
	if size <= 0 {
		return nil, nil
	}
	l, err := lru.New[cacheKey, []segmenter.Token](size)
	if err != nil {
		return nil, err
	}
	return &cache{lru: l}, nil
}

func (c *cache) get(mode segmenter.Mode, useHMM bool, text string, compute func() []segmenter.Token) []segmenter.Token {
	if c == nil {
		return compute()
	}
	key := cacheKey{gen: c.gen.Load(), mode: mode, useHMM: useHMM, text: text}
	if tokens, ok := c.lru.Get(key); ok {
		return clone(tokens)
	}
	tokens := compute()
	c.lru.Add(key, clone(tokens))
	return tokens
}

func (c *cache) invalidate() {
	if c == nil {
		return
	}
	c.gen.Add(1)
	c.lru.Purge()
}

func (c *cache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func clone(tokens []segmenter.Token) []segmenter.Token {
	res := make([]segmenter.Token, len(tokens))
	copy(res, tokens)
	return res
}
