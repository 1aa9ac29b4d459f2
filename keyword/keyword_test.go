package keyword

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teatak/fenci/dictionary"
	"github.com/teatak/fenci/segmenter"
)

const testDict = `南京市 100 ns
长江大桥 100 ns
南京 10 ns
市长 10 n
长江 10 ns
大桥 10 n
江 5 n
大 5 a
桥 5 n
今天 50 t
天 5 n
是 100 v
我 100 r
来到 20 v
北京 60 ns
清华大学 30 nt
清华 20 nz
华大 5 nz
大学 40 n
的 200 uj
`

const testIDF = `南京市 8
长江大桥 10
北京 5
清华大学 9
大学 6
`

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	dict, err := dictionary.Load(strings.NewReader(testDict), nil)
	require.NoError(t, err)
	idf, err := LoadIDF(strings.NewReader(testIDF))
	require.NoError(t, err)
	stop := dictionary.NewStopWords("的", "是", "我")
	return NewExtractor(segmenter.New(dict, nil), idf, stop)
}

func TestLoadIDF(t *testing.T) {
	idf, err := LoadIDF(strings.NewReader("# comment\n\n" + testIDF))
	require.NoError(t, err)
	assert.Equal(t, 5, idf.Len())
	assert.Equal(t, 10.0, idf.Weight("长江大桥"))
	assert.Equal(t, 7.6, idf.Average)
	assert.Equal(t, 7.6, idf.Weight("不存在"))

	empty, err := LoadIDF(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty.Weight("南京"))
}

func TestLoadIDF_Malformed(t *testing.T) {
	for _, content := range []string{"南京\n", "南京 abc\n", "南京 1 2\n", "南京 NaN\n"} {
		_, err := LoadIDF(strings.NewReader(content))
		assert.ErrorIs(t, err, ErrIDFLoad, "content %q", content)
	}
}

func TestExtractWithWeight(t *testing.T) {
	ext := newExtractor(t)

	tests := []struct {
		text     string
		topK     int
		expected []WeightedWord
	}{
		{"我来到北京清华大学", 5, []WeightedWord{{"清华大学", 9}, {"来到", 7.6}, {"北京", 5}}},
		// equal weights keep first occurrence order
		{"今天我来到北京", 5, []WeightedWord{{"今天", 7.6}, {"来到", 7.6}, {"北京", 5}}},
		{"北京北京大学", 5, []WeightedWord{{"北京", 10}, {"大学", 6}}},
		{"南京市的长江大桥", 1, []WeightedWord{{"长江大桥", 10}}},
		{"我的", 5, []WeightedWord{}},
		{"", 5, []WeightedWord{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ext.ExtractWithWeight(tt.text, tt.topK), "ExtractWithWeight(%q, %d)", tt.text, tt.topK)
	}
}

func TestExtract(t *testing.T) {
	ext := newExtractor(t)
	text := "我来到北京清华大学"

	assert.Equal(t, []string{"清华大学", "来到", "北京"}, ext.Extract(text, 10))
	assert.Equal(t, []string{"清华大学", "来到"}, ext.Extract(text, 2))
	assert.Empty(t, ext.Extract(text, 0))
	assert.Empty(t, ext.Extract(text, -1))
	assert.NotNil(t, ext.Extract(text, 0))
}

func TestExtract_NeverReturnsStopWords(t *testing.T) {
	ext := newExtractor(t)
	for _, w := range ext.ExtractWithWeight("今天是南京市的长江大桥，我是来到北京的", 100) {
		assert.False(t, ext.stop.Contains(w.Word), w.Word)
		assert.GreaterOrEqual(t, len([]rune(w.Word)), MinWordLen)
	}
}

func TestExtract_NilIDF(t *testing.T) {
	dict, err := dictionary.Load(strings.NewReader(testDict), nil)
	require.NoError(t, err)
	ext := NewExtractor(segmenter.New(dict, nil), nil, dictionary.NewStopWords())
	assert.Equal(t, []string{"南京市", "长江大桥"}, ext.Extract("南京市长江大桥", 5))
}
