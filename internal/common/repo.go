package common

import (
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// DetectRepoSlug opens the repository containing path and derives the
// "owner/repo" slug from the origin remote URL.
func DetectRepoSlug(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("no origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no url")
	}

	slug, err := SlugFromRemoteURL(urls[0])
	if err != nil {
		return "", err
	}
	return slug, nil
}

// SlugFromRemoteURL extracts "owner/repo" from the common remote URL
// shapes, scp-like (git@host:owner/repo.git) and scheme-based
// (https://host/owner/repo.git, ssh://git@host/owner/repo).
func SlugFromRemoteURL(url string) (string, error) {
	s := strings.TrimSuffix(strings.TrimSpace(url), ".git")

	if at := strings.Index(s, "@"); at >= 0 && !strings.Contains(s, "://") {
		// scp-like: git@host:owner/repo
		if colon := strings.Index(s[at:], ":"); colon >= 0 {
			s = s[at+colon+1:]
		}
	} else if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
		// drop user@ and the host
		if at := strings.Index(s, "@"); at >= 0 {
			s = s[at+1:]
		}
		if slash := strings.Index(s, "/"); slash >= 0 {
			s = s[slash+1:]
		}
	}

	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", fmt.Errorf("cannot extract owner/repo from remote url %q", url)
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1], nil
}
