package hmm

import (
	"unicode"

	"github.com/teatak/fenci/util"
)

// Segment splits runes into words. Han runs are decoded with Viterbi,
// letter/number runs such as "iPhone" or "3.14%" stay whole, and any other
// character becomes its own word.
func (m *Model) Segment(runes []rune) []string {
	var res []string
	n := len(runes)
	for i := 0; i < n; {
		switch {
		case unicode.Is(unicode.Han, runes[i]):
			j := i + 1
			for j < n && unicode.Is(unicode.Han, runes[j]) {
				j++
			}
			res = append(res, m.cutHan(runes[i:j])...)
			i = j
		case util.IsAlnum(runes[i]):
			j := util.ScanAlnum(runes, i)
			res = append(res, string(runes[i:j]))
			i = j
		default:
			res = append(res, string(runes[i]))
			i++
		}
	}
	return res
}

func (m *Model) cutHan(runes []rune) []string {
	tags := m.Decode(runes)
	var res []string
	begin := 0
	for i, tag := range tags {
		switch tag {
		case TagB:
			if begin < i {
				res = append(res, string(runes[begin:i]))
			}
			begin = i
		case TagE:
			res = append(res, string(runes[begin:i+1]))
			begin = i + 1
		case TagS:
			if begin < i {
				res = append(res, string(runes[begin:i]))
			}
			res = append(res, string(runes[i]))
			begin = i + 1
		}
	}
	if begin < len(runes) {
		res = append(res, string(runes[begin:]))
	}
	return res
}
