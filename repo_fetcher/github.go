package repo_fetcher

import (
	"fmt"
	"net/url"
	"strings"
)

// GitHubSource is a parsed GitHub repository URL.
type GitHubSource struct {
	Owner  string
	Repo   string
	Branch string
	// Subpath narrows the session to a folder inside the repository,
	// from /tree/<branch>/<path> URLs.
	Subpath string
}

// ArchiveURL returns the zip archive endpoint for the given branch.
func (s GitHubSource) ArchiveURL(branch string) string {
	return fmt.Sprintf("https://github.com/%s/%s/archive/refs/heads/%s.zip", s.Owner, s.Repo, branch)
}

// IsGitHubURL reports whether source looks like a GitHub repository URL.
func IsGitHubURL(source string) bool {
	return strings.HasPrefix(source, "https://github.com/") ||
		strings.HasPrefix(source, "http://github.com/") ||
		strings.HasPrefix(source, "github.com/")
}

// ParseGitHubURL parses the repository URL forms:
//
//	github.com/owner/repo
//	https://github.com/owner/repo.git
//	https://github.com/owner/repo/tree/branch
//	https://github.com/owner/repo/tree/branch/sub/folder
//
// Branch is empty when the URL does not name one; the fetcher then tries
// main and falls back to master.
func ParseGitHubURL(source string) (GitHubSource, error) {
	normalized := source
	if strings.HasPrefix(normalized, "github.com/") {
		normalized = "https://" + normalized
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return GitHubSource{}, fmt.Errorf("invalid GitHub URL %q: %w", source, err)
	}
	if parsed.Host != "github.com" {
		return GitHubSource{}, fmt.Errorf("not a GitHub URL: %q", source)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return GitHubSource{}, fmt.Errorf("GitHub URL %q must name owner and repository", source)
	}

	result := GitHubSource{
		Owner: parts[0],
		Repo:  strings.TrimSuffix(parts[1], ".git"),
	}

	if len(parts) >= 4 && parts[2] == "tree" {
		result.Branch = parts[3]
		if len(parts) > 4 {
			result.Subpath = strings.Join(parts[4:], "/")
		}
	}

	return result, nil
}
