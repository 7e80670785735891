package fileaccess

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// treeCacheSize bounds the number of recursive-tree listings a single Remote
// instance will retain — one entry per (owner/repo@ref) it has listed.
const treeCacheSize = 8

// treeEntry is one row of a Git Trees API recursive listing.
type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

type treeResponse struct {
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type contentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
}

type blobResponse struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
}

type apiError struct {
	Message string `json:"message"`
}

// Remote is a forge-style REST façade over a single repository tree at a
// fixed ref, with an optional sub-path prefix transparently applied to and
// stripped from every result.
type Remote struct {
	owner, repo, ref, prefix string
	token                    string
	baseURL                  string
	httpClient               *http.Client

	mu        sync.Mutex
	treeCache *lru.Cache[string, []treeEntry]
}

// NewRemote constructs a Remote backend for owner/repo at ref. prefix, when
// non-empty, scopes all List/Read/Stat calls to that sub-path.
func NewRemote(owner, repo, ref, token, prefix string) (*Remote, error) {
	cache, err := lru.New[string, []treeEntry](treeCacheSize)
	if err != nil {
		return nil, err
	}
	return &Remote{
		owner:      owner,
		repo:       repo,
		ref:        ref,
		prefix:     strings.Trim(prefix, "/"),
		token:      token,
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		treeCache:  cache,
	}, nil
}

// SetBaseURL overrides the API base URL (used for testing).
func (r *Remote) SetBaseURL(url string) { r.baseURL = url }

func (r *Remote) fullPath(p string) string {
	if r.prefix == "" {
		return p
	}
	if p == "" {
		return r.prefix
	}
	return path.Join(r.prefix, p)
}

func (r *Remote) stripPrefix(p string) string {
	if r.prefix == "" {
		return p
	}
	rel := strings.TrimPrefix(p, r.prefix+"/")
	if rel == p && p == r.prefix {
		return ""
	}
	return rel
}

// tree fetches (and caches for the lifetime of this instance) the recursive
// tree listing for owner/repo@ref. A truncated listing is a hard error:
// a silent undercount would corrupt scope resolution.
func (r *Remote) tree() ([]treeEntry, error) {
	key := r.owner + "/" + r.repo + "@" + r.ref
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.treeCache.Get(key); ok {
		return cached, nil
	}

	p := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", r.owner, r.repo, r.ref)
	resp, err := r.doRequest(context.Background(), http.MethodGet, p, nil)
	if err != nil {
		return nil, newError(ErrNetwork, r.ref, err)
	}
	defer resp.Body.Close()

	if err := checkGitHubResponse(resp); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return nil, newError(ErrNotFound, r.ref, err)
		}
		return nil, newError(ErrReadFailed, r.ref, err)
	}

	var tr treeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, newError(ErrReadFailed, r.ref, err)
	}
	if tr.Truncated {
		return nil, newError(ErrReadFailed, r.ref, fmt.Errorf("tree listing truncated by remote API"))
	}
	r.treeCache.Add(key, tr.Tree)
	return tr.Tree, nil
}

func (r *Remote) List(patterns []string, opts ListOptions) ([]string, error) {
	entries, err := r.tree()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if opts.OnlyFiles && e.Type != "blob" {
			continue
		}
		if r.prefix != "" && !strings.HasPrefix(e.Path, r.prefix+"/") && e.Path != r.prefix {
			continue
		}
		rel := r.stripPrefix(e.Path)
		if rel == "" {
			continue
		}
		if opts.MaxDepth > 0 && strings.Count(rel, "/")+1 > opts.MaxDepth {
			continue
		}
		if matchesAny(rel, opts.Ignore) {
			continue
		}
		if !matchesAny(rel, patterns) {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

func (r *Remote) Exists(p string) (bool, error) {
	entries, err := r.tree()
	if err != nil {
		return false, err
	}
	full := r.fullPath(p)
	for _, e := range entries {
		if e.Path == full {
			return true, nil
		}
	}
	return false, nil
}

func (r *Remote) findEntry(p string) (treeEntry, bool) {
	entries, err := r.tree()
	if err != nil {
		return treeEntry{}, false
	}
	full := r.fullPath(p)
	for _, e := range entries {
		if e.Path == full {
			return e, true
		}
	}
	return treeEntry{}, false
}

func (r *Remote) Read(p string) (string, error) {
	entry, ok := r.findEntry(p)
	if !ok {
		return "", newError(ErrNotFound, p, nil)
	}
	if entry.Type != "blob" {
		return "", newError(ErrReadFailed, p, fmt.Errorf("not a file"))
	}

	full := r.fullPath(p)
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", r.owner, r.repo, full, r.ref)
	resp, err := r.doRequest(context.Background(), http.MethodGet, apiPath, nil)
	if err != nil {
		return "", newError(ErrNetwork, p, err)
	}
	defer resp.Body.Close()

	if err := checkGitHubResponse(resp); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return "", newError(ErrNotFound, p, err)
		}
		return "", newError(ErrReadFailed, p, err)
	}

	var cr contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", newError(ErrReadFailed, p, err)
	}
	if cr.Content != "" {
		return decodeContent(cr.Content, cr.Encoding, p)
	}

	// Content API omits inline content above ~1MB; fall back to the blob endpoint.
	return r.readBlob(entry.SHA, p)
}

func (r *Remote) readBlob(sha, p string) (string, error) {
	apiPath := fmt.Sprintf("/repos/%s/%s/git/blobs/%s", r.owner, r.repo, sha)
	resp, err := r.doRequest(context.Background(), http.MethodGet, apiPath, nil)
	if err != nil {
		return "", newError(ErrNetwork, p, err)
	}
	defer resp.Body.Close()

	if err := checkGitHubResponse(resp); err != nil {
		return "", newError(ErrReadFailed, p, err)
	}

	var br blobResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return "", newError(ErrReadFailed, p, err)
	}
	return decodeContent(br.Content, br.Encoding, p)
}

func decodeContent(content, encoding, p string) (string, error) {
	if encoding != "base64" {
		return content, nil
	}
	cleaned := strings.ReplaceAll(content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", newError(ErrReadFailed, p, err)
	}
	return string(decoded), nil
}

func (r *Remote) Stat(p string) (Info, error) {
	entry, ok := r.findEntry(p)
	if !ok {
		return Info{}, newError(ErrNotFound, p, nil)
	}
	return Info{Size: entry.Size, IsFile: entry.Type == "blob"}, nil
}

func (r *Remote) doRequest(ctx context.Context, method, apiPath string, body any) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+apiPath, nil)
	if err != nil {
		return nil, err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	return r.httpClient.Do(req)
}

func checkGitHubResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Message)
}
