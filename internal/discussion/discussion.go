// Package discussion holds the review-discussion model and the persisted
// ledger of discussions still pending resolution.
package discussion

import (
	"path/filepath"
	"strings"
)

// Remote identifies where a discussion came from when it was imported
// from a review platform. All three of Owner, Repo and PullNumber must be
// set for the discussion to count as remote.
type Remote struct {
	Owner      string `json:"owner,omitempty"`
	Repo       string `json:"repo,omitempty"`
	PullNumber int64  `json:"pullRequestNumber,omitempty"`
	FullPath   string `json:"fullPath,omitempty"`
}

// IsSet reports whether the provenance is complete enough to reach the
// review platform.
func (r Remote) IsSet() bool {
	return r.Owner != "" && r.Repo != "" && r.PullNumber > 0
}

// Discussion is a single review comment bound to a file and one or more
// 1-based line numbers, waiting to be resolved.
type Discussion struct {
	ID      int64   `json:"id"`
	File    string  `json:"file"`
	Lines   []int   `json:"lines"`
	Comment string  `json:"comment"`
	Remote  *Remote `json:"provenance,omitempty"`
}

// IsRemote reports whether the discussion carries complete remote
// provenance.
func (d Discussion) IsRemote() bool {
	return d.Remote != nil && d.Remote.IsSet()
}

// TargetLine is the first (lowest) line the comment points at.
func (d Discussion) TargetLine() int {
	if len(d.Lines) == 0 {
		return 0
	}
	min := d.Lines[0]
	for _, l := range d.Lines[1:] {
		if l < min {
			min = l
		}
	}
	return min
}

// FileType returns the file extension without the dot, used to hint the
// suggestion prompt about the language.
func (d Discussion) FileType() string {
	ext := filepath.Ext(d.File)
	return strings.TrimPrefix(ext, ".")
}
