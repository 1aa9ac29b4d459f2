package util

import (
	"unicode"

	"golang.org/x/text/width"
)

// Fold maps full-width ASCII variants such as '２' or 'Ａ' to their narrow form.
func Fold(r rune) rune {
	if n := width.LookupRune(r).Narrow(); n != 0 {
		return n
	}
	return r
}

// IsAlnum reports whether r is an ASCII letter or digit after width folding.
func IsAlnum(r rune) bool {
	r = Fold(r)
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsDigit reports whether r is an ASCII digit after width folding.
func IsDigit(r rune) bool {
	r = Fold(r)
	return r >= '0' && r <= '9'
}

// IsLatin reports whether r is an ASCII letter after width folding.
func IsLatin(r rune) bool {
	r = Fold(r)
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ScanAlnum returns the end of the letter/number run starting at i.
// A decimal point between digits and a trailing percent sign belong to the run.
func ScanAlnum(runes []rune, i int) int {
	n := len(runes)
	j := i
	for j < n {
		switch {
		case IsAlnum(runes[j]):
			j++
		case Fold(runes[j]) == '.' && j > i && IsDigit(runes[j-1]) && j+1 < n && IsDigit(runes[j+1]):
			j++
		default:
			if j > i && Fold(runes[j]) == '%' && IsDigit(runes[j-1]) {
				j++
			}
			return j
		}
	}
	return j
}

// Shape classifies a token by the characters it is made of.
type Shape int

const (
	ShapeOther   Shape = iota // ShapeOther is anything not covered below, e.g. Han text.
	ShapeNumber               // ShapeNumber has digits and no Latin letters, e.g. "3.14%" or "25号".
	ShapeLatin                // ShapeLatin contains Latin letters.
	ShapePunct                // ShapePunct is whitespace, punctuation or symbols only.
)

// ShapeOf classifies s. Like jieba's tagging rule, a token whose ASCII
// characters include digits but no letters counts as a number.
func ShapeOf(s string) Shape {
	if s == "" {
		return ShapeOther
	}
	digits, latin, punct := 0, 0, 0
	total := 0
	for _, r := range s {
		total++
		f := Fold(r)
		if unicode.IsSpace(f) || isPunct(f) {
			punct++
		}
		if f < 0x80 {
			switch {
			case f >= '0' && f <= '9':
				digits++
			case (f >= 'a' && f <= 'z') || (f >= 'A' && f <= 'Z'):
				latin++
			}
		}
	}
	switch {
	case punct == total:
		return ShapePunct
	case latin > 0:
		return ShapeLatin
	case digits > 0:
		return ShapeNumber
	}
	return ShapeOther
}
