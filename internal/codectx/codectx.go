// Package codectx turns a discussion into the code context its comment
// refers to, normalizing two heterogeneous sources — a unified-diff patch
// fetched from the review platform and plain local file content — into a
// single CodeContext shape.
package codectx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sanix-darker/resolv/internal/diffparse"
	"github.com/sanix-darker/resolv/internal/discussion"
	"github.com/sanix-darker/resolv/internal/fix"
	"github.com/sanix-darker/resolv/internal/vcs"
)

// SourceKind tags where a CodeContext came from.
type SourceKind int

const (
	LocalFile SourceKind = iota
	RemoteDiff
)

func (k SourceKind) String() string {
	if k == RemoteDiff {
		return "remote-diff"
	}
	return "local-file"
}

// CodeContext is the window of source lines surrounding the discussion's
// target line. It is recomputed per discussion and never persisted.
type CodeContext struct {
	FileName   string
	AnchorLine int
	Text       string
	Kind       SourceKind

	// Meta keeps the provider-specific artifact the context was cut
	// from (the matched FilePatch for remote contexts), for diagnostics.
	Meta interface{}
}

// OutOfBoundsError reports a requested line past the end of a local file.
type OutOfBoundsError struct {
	File      string
	Line      int
	FileLines int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("line %d is out of bounds for %s (%d lines)", e.Line, e.File, e.FileLines)
}

// source is the per-discussion dispatch decision, made once instead of
// re-checking provenance fields in every helper.
type source interface {
	isSource()
}

type localSource struct {
	path string
}

type remoteSource struct {
	owner string
	repo  string
	pull  int64
	file  string
}

func (localSource) isSource()  {}
func (remoteSource) isSource() {}

// Provider resolves discussions to CodeContexts. client may be nil, in
// which case every discussion is treated as local.
type Provider struct {
	client   vcs.ReviewClient
	repoRoot string
	radius   int
}

// NewProvider creates a context provider. repoRoot anchors relative file
// paths; radius is the number of patch lines collected around the target
// (defaults to 2).
func NewProvider(client vcs.ReviewClient, repoRoot string, radius int) *Provider {
	if radius <= 0 {
		radius = 2
	}
	return &Provider{client: client, repoRoot: repoRoot, radius: radius}
}

// GetContext extracts the code context for a discussion. Remote
// discussions go through the pull request's patch first, then the raw
// file, then the local disk; local discussions read the file directly.
func (p *Provider) GetContext(d discussion.Discussion) (*CodeContext, error) {
	switch src := p.classify(d).(type) {
	case remoteSource:
		ctx, err := p.remoteContext(d, src)
		if err == nil {
			return ctx, nil
		}
		// Remote sources are best-effort: any miss falls back to the
		// local copy of the file.
		local, localErr := p.localContext(d, localSource{path: src.file})
		if localErr != nil {
			return nil, fmt.Errorf("remote context failed (%v), local fallback failed: %w", err, localErr)
		}
		return local, nil
	case localSource:
		return p.localContext(d, src)
	default:
		return nil, fmt.Errorf("discussion %d: unknown context source", d.ID)
	}
}

func (p *Provider) classify(d discussion.Discussion) source {
	if d.IsRemote() && p.client != nil {
		file := d.File
		if d.Remote.FullPath != "" {
			file = d.Remote.FullPath
		}
		return remoteSource{
			owner: d.Remote.Owner,
			repo:  d.Remote.Repo,
			pull:  d.Remote.PullNumber,
			file:  file,
		}
	}
	return localSource{path: d.File}
}

func (p *Provider) remoteContext(d discussion.Discussion, src remoteSource) (*CodeContext, error) {
	files, err := p.client.ListPullFiles(src.owner, src.repo, src.pull)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patches for PR #%d: %w", src.pull, err)
	}

	matched := MatchFilePatch(files, d.File, src.file)
	if matched == nil {
		return nil, fmt.Errorf("no patch for %s in PR #%d", d.File, src.pull)
	}

	target := d.TargetLine()

	if matched.Patch != "" {
		text, err := diffparse.ExtractContext(matched.Patch, target, p.radius)
		if err == nil {
			return &CodeContext{
				FileName:   matched.Path(),
				AnchorLine: target,
				Text:       text,
				Kind:       RemoteDiff,
				Meta:       *matched,
			}, nil
		}
		if !errors.Is(err, diffparse.ErrLineNotInPatch) {
			return nil, err
		}
	}

	// The line lives outside the diff hunks; window the full file
	// instead when the platform gives us its raw content.
	if matched.RawURL == "" {
		return nil, fmt.Errorf("line %d not in patch for %s and no raw content available", target, d.File)
	}
	content, err := p.client.FetchRawFile(matched.RawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch raw content for %s: %w", d.File, err)
	}
	if content == "" {
		return nil, fmt.Errorf("raw content for %s unavailable", d.File)
	}

	return &CodeContext{
		FileName:   matched.Path(),
		AnchorLine: target,
		Text:       windowRawContent(content, target),
		Kind:       RemoteDiff,
		Meta:       *matched,
	}, nil
}

// windowRawContent cuts [target-3, target+2) out of the file as 0-based
// slice bounds. The asymmetry against the patch radius is intentional: it
// mirrors the 1-based line to 0-based slice conversion, and the windows
// must stay diffable against recorded fixtures.
func windowRawContent(content string, target int) string {
	lines := strings.Split(content, "\n")

	start := target - 3
	if start < 0 {
		start = 0
	}
	end := target + 2
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}
	return strings.Join(lines[start:end], "\n")
}

func (p *Provider) localContext(d discussion.Discussion, src localSource) (*CodeContext, error) {
	path := src.path
	if !filepath.IsAbs(path) && p.repoRoot != "" {
		path = filepath.Join(p.repoRoot, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := string(raw)
	lines := strings.Split(content, "\n")
	lineCount := len(lines)
	// a trailing newline is not an extra line
	if lineCount > 0 && lines[lineCount-1] == "" {
		lineCount--
	}
	target := d.TargetLine()

	// Same range convention as the splice in fix.Apply: the extraction
	// window and the replacement boundaries must never drift apart.
	r := fix.RangeFromLines(d.Lines)
	if r.Start >= lineCount {
		return nil, &OutOfBoundsError{File: src.path, Line: target, FileLines: lineCount}
	}

	return &CodeContext{
		FileName:   src.path,
		AnchorLine: target,
		Text:       fix.Extract(content, r),
		Kind:       LocalFile,
	}, nil
}

// MatchFilePatch finds the patch for a file, tolerating mismatched path
// forms: exact match first, then basename, then substring containment
// checked against both names, first hit wins.
func MatchFilePatch(files []vcs.FilePatch, name, fullPath string) *vcs.FilePatch {
	candidates := []string{name}
	if fullPath != "" && fullPath != name {
		candidates = append(candidates, fullPath)
	}

	for _, want := range candidates {
		for i := range files {
			if files[i].NewPath == want || files[i].OldPath == want {
				return &files[i]
			}
		}
	}

	for _, want := range candidates {
		base := filepath.Base(want)
		for i := range files {
			if filepath.Base(files[i].Path()) == base {
				return &files[i]
			}
		}
	}

	for _, want := range candidates {
		for i := range files {
			path := files[i].Path()
			if strings.Contains(path, want) || strings.Contains(want, path) {
				return &files[i]
			}
		}
	}

	return nil
}
