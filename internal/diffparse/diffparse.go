// Package diffparse maps review-comment line numbers onto unified-diff
// patches and extracts the surrounding lines as plain text context.
package diffparse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ErrLineNotInPatch is returned when the target line does not appear in
// any hunk of the patch. Callers typically fall back to fetching the full
// file and windowing it locally.
var ErrLineNotInPatch = errors.New("target line not found in patch")

// LineType classifies a diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineDeleted
)

// DiffLine is a single line of a hunk body with both side line numbers.
// OldLineNo is 0 for added lines, NewLineNo is 0 for deleted lines.
type DiffLine struct {
	Type      LineType
	Content   string
	OldLineNo int
	NewLineNo int
}

// Hunk is one @@ block of a patch with its body already split into
// numbered lines.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []DiffLine
}

// ParsePatch parses a single-file unified diff fragment into hunks. The
// fragment may or may not carry ---/+++ file headers; a pseudo header is
// prepended when missing so the parser accepts bare @@ fragments the way
// review APIs return them. Hunk headers with omitted counts are accepted
// (a missing count means 1).
func ParsePatch(patch string) ([]Hunk, error) {
	trimmed := strings.TrimSpace(patch)
	if trimmed == "" {
		return nil, fmt.Errorf("empty patch")
	}
	if !strings.HasPrefix(trimmed, "---") && !strings.HasPrefix(trimmed, "diff ") {
		trimmed = "--- a/file\n+++ b/file\n" + trimmed
	}

	fd, err := diff.ParseFileDiff([]byte(trimmed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse patch: %w", err)
	}

	hunks := make([]Hunk, 0, len(fd.Hunks))
	for _, h := range fd.Hunks {
		hunk := Hunk{
			OldStart: int(h.OrigStartLine),
			OldLines: int(h.OrigLines),
			NewStart: int(h.NewStartLine),
			NewLines: int(h.NewLines),
		}

		oldLine := int(h.OrigStartLine)
		newLine := int(h.NewStartLine)

		for _, line := range strings.Split(string(h.Body), "\n") {
			if len(line) == 0 {
				continue
			}

			dl := DiffLine{}
			switch line[0] {
			case '+':
				dl.Type = LineAdded
				dl.Content = line[1:]
				dl.NewLineNo = newLine
				newLine++
			case '-':
				dl.Type = LineDeleted
				dl.Content = line[1:]
				dl.OldLineNo = oldLine
				oldLine++
			default:
				dl.Type = LineContext
				if line[0] == ' ' {
					dl.Content = line[1:]
				} else {
					dl.Content = line
				}
				dl.OldLineNo = oldLine
				dl.NewLineNo = newLine
				oldLine++
				newLine++
			}
			hunk.Lines = append(hunk.Lines, dl)
		}

		hunks = append(hunks, hunk)
	}

	return hunks, nil
}

// ExtractContext locates targetLine inside the patch and returns a window
// of radius lines before and after it, with diff markers stripped.
//
// A line matches when its new-side OR old-side number equals targetLine:
// review comments do not say which side of the diff they refer to, so
// both are tried. When old and new numbering coincidentally align, the
// first match in scan order wins and the scan stops there. That carries
// a known ambiguity: a target valid on both sides of a hunk is resolved
// by scan order, not by any smarter policy.
func ExtractContext(patch string, targetLine, radius int) (string, error) {
	hunks, err := ParsePatch(patch)
	if err != nil {
		return "", err
	}
	if radius < 0 {
		radius = 0
	}

	// Flatten hunk bodies so the window can span hunk boundaries the
	// same way it spans raw patch lines. Only the first match counts.
	var flat []DiffLine
	match := -1
	for _, h := range hunks {
		for _, dl := range h.Lines {
			flat = append(flat, dl)
			if match < 0 && (dl.NewLineNo == targetLine || dl.OldLineNo == targetLine) {
				match = len(flat) - 1
			}
		}
	}

	if match < 0 {
		return "", fmt.Errorf("line %d: %w", targetLine, ErrLineNotInPatch)
	}

	start := match - radius
	if start < 0 {
		start = 0
	}
	end := match + radius + 1
	if end > len(flat) {
		end = len(flat)
	}

	window := make([]string, 0, end-start)
	for _, dl := range flat[start:end] {
		window = append(window, dl.Content)
	}
	return strings.Join(window, "\n"), nil
}
