package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sanix-darker/resolv/internal/vcs"
)

// Client implements vcs.ReviewClient for GitHub.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

func init() {
	vcs.Register("github", NewClient)
}

// NewClient creates a GitHub review client.
func NewClient(token, baseURL string) (vcs.ReviewClient, error) {
	if token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}

	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}, nil
}

func (c *Client) Info() vcs.ProviderInfo {
	return vcs.ProviderInfo{Name: "github", BaseURL: c.baseURL}
}

func (c *Client) Validate() error {
	if c.token == "" {
		return fmt.Errorf("github: token is required")
	}
	return nil
}

// ListPullFiles returns every changed file of a pull request with its
// patch fragment and raw-content URL.
func (c *Client) ListPullFiles(owner, repo string, pull int64) ([]vcs.FilePatch, error) {
	type prFile struct {
		Filename         string `json:"filename"`
		PreviousFilename string `json:"previous_filename"`
		Status           string `json:"status"`
		Patch            string `json:"patch"`
		RawURL           string `json:"raw_url"`
	}

	var all []vcs.FilePatch
	page := 1
	for {
		endpoint := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=100&page=%d", owner, repo, pull, page)
		var files []prFile
		resp, err := c.getJSONWithResponse(context.Background(), endpoint, &files)
		if err != nil {
			return nil, fmt.Errorf("github: failed to fetch PR files: %w", err)
		}

		for _, f := range files {
			oldPath := f.PreviousFilename
			if oldPath == "" {
				oldPath = f.Filename
			}
			all = append(all, vcs.FilePatch{
				OldPath: oldPath,
				NewPath: f.Filename,
				Patch:   f.Patch,
				RawURL:  f.RawURL,
				Status:  strings.ToLower(f.Status),
			})
		}

		if !hasNextPage(resp.Header.Get("Link")) {
			break
		}
		page++
	}

	return all, nil
}

// FetchRawFile downloads content from a raw URL previously returned in a
// FilePatch. A 404 yields ("", nil) so callers can fall back locally.
func (c *Client) FetchRawFile(url string) (string, error) {
	if url == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "resolv-cli")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("github: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ListPullComments returns the inline review comments of a pull request.
func (c *Client) ListPullComments(owner, repo string, pull int64) ([]vcs.ReviewComment, error) {
	type reviewComment struct {
		ID           int64  `json:"id"`
		Body         string `json:"body"`
		Path         string `json:"path"`
		Line         int    `json:"line"`
		OriginalLine int    `json:"original_line"`
		User         struct {
			Login string `json:"login"`
		} `json:"user"`
	}

	var out []vcs.ReviewComment
	page := 1
	for {
		endpoint := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments?per_page=100&page=%d", owner, repo, pull, page)
		var comments []reviewComment
		resp, err := c.getJSONWithResponse(context.Background(), endpoint, &comments)
		if err != nil {
			return nil, fmt.Errorf("github: failed to list PR review comments: %w", err)
		}

		for _, rc := range comments {
			line := rc.Line
			if line <= 0 {
				line = rc.OriginalLine
			}
			out = append(out, vcs.ReviewComment{
				ID:     rc.ID,
				Author: rc.User.Login,
				Body:   rc.Body,
				Path:   rc.Path,
				Line:   line,
			})
		}

		if !hasNextPage(resp.Header.Get("Link")) {
			break
		}
		page++
	}

	return out, nil
}

func (c *Client) ListOpenPulls(owner, repo string) ([]vcs.PullRequest, error) {
	var prs []struct {
		Number int64  `json:"number"`
		Title  string `json:"title"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref string `json:"ref"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
		State   string `json:"state"`
		HTMLURL string `json:"html_url"`
	}

	endpoint := fmt.Sprintf("/repos/%s/%s/pulls?state=open&per_page=20", owner, repo)
	if err := c.getJSON(context.Background(), endpoint, &prs); err != nil {
		return nil, fmt.Errorf("github: failed to list PRs: %w", err)
	}

	var result []vcs.PullRequest
	for _, pr := range prs {
		result = append(result, vcs.PullRequest{
			Number:       pr.Number,
			Title:        pr.Title,
			Author:       pr.User.Login,
			SourceBranch: pr.Head.Ref,
			TargetBranch: pr.Base.Ref,
			State:        pr.State,
			WebURL:       pr.HTMLURL,
		})
	}
	return result, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	_, err := c.getJSONWithResponse(ctx, endpoint, out)
	return err
}

func (c *Client) getJSONWithResponse(ctx context.Context, endpoint string, out interface{}) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "resolv-cli")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return resp, fmt.Errorf("github: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, err
		}
	}

	return resp, nil
}

func hasNextPage(linkHeader string) bool {
	if linkHeader == "" {
		return false
	}
	for _, part := range strings.Split(linkHeader, ",") {
		if strings.Contains(part, `rel="next"`) {
			return true
		}
	}
	return false
}
