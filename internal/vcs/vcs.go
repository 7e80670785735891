// Package vcs abstracts the VersionControl capability consumed by
// ScopeResolver's changed_since algorithm: the union of a committed diff,
// working-tree modifications, and untracked-but-not-ignored files.
package vcs

// Provider resolves the set of repo-relative paths that have changed since
// a reference point, independent of how that answer is obtained (local git
// binary, GitHub REST API, ...).
type Provider interface {
	// ChangedSince returns relative paths changed between ref and the
	// current working tree, including staged/unstaged modifications and
	// untracked (but not ignored) files.
	ChangedSince(ref string) ([]string, error)
}
