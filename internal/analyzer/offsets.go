package analyzer

import "unicode/utf16"

// OffsetIndex converts rune offsets of one text into UTF-16 code unit
// offsets, the unit browsers index strings by.
type OffsetIndex struct {
	prefix []int // prefix[i] is the UTF-16 length of the first i runes
}

// NewOffsetIndex builds the conversion table for text
func NewOffsetIndex(text string) *OffsetIndex {
	prefix := make([]int, 1, len(text)+1)
	units := 0
	for _, r := range text {
		n := utf16.RuneLen(r)
		if n < 0 {
			// invalid code points are encoded as U+FFFD
			n = 1
		}
		units += n
		prefix = append(prefix, units)
	}
	return &OffsetIndex{prefix: prefix}
}

// Len returns the number of runes indexed
func (x *OffsetIndex) Len() int { return len(x.prefix) - 1 }

// At converts a rune offset, clamped to [0, Len()]
func (x *OffsetIndex) At(i int) int {
	switch {
	case i < 0:
		i = 0
	case i > x.Len():
		i = x.Len()
	}
	return x.prefix[i]
}

// Span converts a rune span to a UTF-16 span
func (x *OffsetIndex) Span(start, end int) (int, int) {
	if end < start {
		end = start
	}
	return x.At(start), x.At(end)
}

// UTF16Span converts the rune span [start, end) of text to UTF-16 code units
func UTF16Span(text string, start, end int) (int, int) {
	return NewOffsetIndex(text).Span(start, end)
}
