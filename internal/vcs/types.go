// Package vcs abstracts the review-platform operations resolv needs:
// fetching per-file patches of a pull request, fetching raw file content,
// and listing review comments for import.
package vcs

// ReviewClient is implemented by each supported platform. Patch and raw
// fetches are best-effort: a missing patch or raw URL yields zero values,
// not an error, and callers fall back to local file reads.
type ReviewClient interface {
	Info() ProviderInfo
	ListPullFiles(owner, repo string, pull int64) ([]FilePatch, error)
	FetchRawFile(url string) (string, error)
	ListPullComments(owner, repo string, pull int64) ([]ReviewComment, error)
	ListOpenPulls(owner, repo string) ([]PullRequest, error)
	Validate() error
}

// ProviderInfo describes a review platform client.
type ProviderInfo struct {
	Name    string
	BaseURL string
}

// FilePatch is one changed file of a pull request with its unified-diff
// fragment. Patch may be empty for binary or oversized files; RawURL
// points at the post-image content when the platform provides one.
type FilePatch struct {
	OldPath string
	NewPath string
	Patch   string
	RawURL  string
	Status  string
}

// Path returns the file's current path, falling back to the old one for
// deletions.
func (f FilePatch) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// ReviewComment is one inline review comment on a pull request.
type ReviewComment struct {
	ID     int64
	Author string
	Body   string
	Path   string
	Line   int
}

// PullRequest holds platform-agnostic pull request metadata.
type PullRequest struct {
	Number       int64
	Title        string
	Author       string
	SourceBranch string
	TargetBranch string
	State        string
	WebURL       string
}
