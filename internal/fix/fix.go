// Package fix implements line-oriented replacement of a range of lines
// inside raw file content. It is pure string manipulation: callers are
// responsible for reading and persisting file content.
package fix

import "strings"

// LineRange is a 0-based half-open [Start, End) range of lines.
type LineRange struct {
	Start int
	End   int
}

// RangeFromLines derives the splice range from the 1-based line numbers a
// discussion points at. A single line n covers [n-1, n); several lines
// cover [min-1, max).
func RangeFromLines(lines []int) LineRange {
	if len(lines) == 0 {
		return LineRange{}
	}
	min, max := lines[0], lines[0]
	for _, l := range lines[1:] {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	return LineRange{Start: min - 1, End: max}
}

// Len returns the number of lines covered by the range.
func (r LineRange) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Apply splices replacement into content over the given range and returns
// the new content. Both inputs are split on "\n"; the result is rejoined
// with "\n". Out-of-range indices are clamped, never an error.
func Apply(content, replacement string, r LineRange) string {
	lines := strings.Split(content, "\n")

	start := r.Start
	if start < 0 {
		start = 0
	}
	if start > len(lines) {
		start = len(lines)
	}
	end := r.End
	if end < start {
		end = start
	}
	if end > len(lines) {
		end = len(lines)
	}

	replLines := strings.Split(replacement, "\n")

	out := make([]string, 0, start+len(replLines)+len(lines)-end)
	out = append(out, lines[:start]...)
	out = append(out, replLines...)
	out = append(out, lines[end:]...)

	return strings.Join(out, "\n")
}

// Extract returns the lines covered by the range, clamped to the content
// length, joined with "\n".
func Extract(content string, r LineRange) string {
	lines := strings.Split(content, "\n")

	start := r.Start
	if start < 0 {
		start = 0
	}
	if start > len(lines) {
		start = len(lines)
	}
	end := r.End
	if end < start {
		end = start
	}
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}
