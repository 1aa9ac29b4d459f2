package segmenter

import (
	"strings"
	"unicode"

	"github.com/teatak/fenci/util"
)

type blockKind int

const (
	blockWord  blockKind = iota // segmented with the dictionary
	blockSpace                  // whitespace run, passed through whole
	blockOther                  // single character passed through
)

type textBlock struct {
	start, end int
	kind       blockKind
}

// splitTextToBlocks groups runes into word runs, whitespace runs and
// single other characters.
func splitTextToBlocks(runes []rune) []textBlock {
	var blocks []textBlock
	n := len(runes)
	for i := 0; i < n; {
		switch {
		case isWordChar(runes[i]):
			j := i + 1
			for j < n && isWordChar(runes[j]) {
				j++
			}
			blocks = append(blocks, textBlock{i, j, blockWord})
			i = j
		case unicode.IsSpace(runes[i]):
			j := i + 1
			for j < n && unicode.IsSpace(runes[j]) {
				j++
			}
			blocks = append(blocks, textBlock{i, j, blockSpace})
			i = j
		default:
			blocks = append(blocks, textBlock{i, i + 1, blockOther})
			i++
		}
	}
	return blocks
}

func isWordChar(r rune) bool {
	return unicode.Is(unicode.Han, r) || util.IsAlnum(r) || strings.ContainsRune("+#&._%-", r)
}

// byteOffsets returns the runes of text and the byte offset of each rune,
// with a final entry equal to len(text).
func byteOffsets(text string) ([]rune, []int) {
	runes := make([]rune, 0, len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		runes = append(runes, r)
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	return runes, offsets
}
