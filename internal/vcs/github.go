package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const (
	githubAPIBaseURL = "https://api.github.com"
	githubPerPage    = 100
	githubTimeout    = 30 * time.Second
)

// GitHub resolves a pull request's changed files via the REST API instead
// of a local git binary — immune to merge-commit confusion and usable
// against a shallow checkout.
type GitHub struct {
	Token    string
	Owner    string
	Repo     string
	PRNumber int

	// BaseURL overrides the API base URL (used for testing).
	BaseURL string
}

type pullRequestFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// ChangedSince ignores ref: the PR's base is implicit in PRNumber. It
// returns every file changed in the pull request except those removed.
func (p *GitHub) ChangedSince(_ string) ([]string, error) {
	var all []string
	page := 1
	for {
		files, hasMore, err := p.fetchPage(page)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.Status != "removed" {
				all = append(all, f.Filename)
			}
		}
		if !hasMore {
			break
		}
		page++
	}
	return all, nil
}

func (p *GitHub) fetchPage(page int) ([]pullRequestFile, bool, error) {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = githubAPIBaseURL
	}
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
		baseURL, p.Owner, p.Repo, p.PRNumber, githubPerPage, page)

	ctx, cancel := context.WithTimeout(context.Background(), githubTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create GitHub API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("GitHub API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("GitHub API returned status %d: %s", resp.StatusCode, string(body))
	}

	var files []pullRequestFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, false, fmt.Errorf("decode GitHub API response: %w", err)
	}

	return files, hasNextPage(resp.Header.Get("Link")), nil
}

var linkNextRe = regexp.MustCompile(`<[^>]+>;\s*rel="next"`)

func hasNextPage(linkHeader string) bool {
	return linkHeader != "" && linkNextRe.MatchString(linkHeader)
}
