package repo_fetcher

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const downloadTimeout = 120 * time.Second

// Fetcher materializes a codebase source into a local session directory.
// Supported sources: an existing directory, a .zip archive, or a GitHub
// repository URL.
type Fetcher struct {
	// HTTPClient is swappable for tests; nil uses a default with a
	// download timeout.
	HTTPClient *http.Client
}

// NewFetcher creates a fetcher with the default HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{HTTPClient: &http.Client{Timeout: downloadTimeout}}
}

// Prepare resolves source into a directory under targetDir and returns the
// path of the materialized codebase root.
func (f *Fetcher) Prepare(ctx context.Context, source string, targetDir string) (string, error) {
	if IsGitHubURL(source) {
		return f.fetchGitHub(ctx, source, targetDir)
	}

	info, err := os.Stat(source)
	if err != nil {
		return "", fmt.Errorf("source %q is neither a path nor a GitHub URL: %w", source, err)
	}

	if info.IsDir() {
		dest := filepath.Join(targetDir, "codebase")
		if err := copyDir(source, dest); err != nil {
			return "", fmt.Errorf("failed to copy codebase directory: %w", err)
		}
		return dest, nil
	}

	if strings.EqualFold(filepath.Ext(source), ".zip") {
		dest := filepath.Join(targetDir, "codebase")
		if err := extractZip(source, dest); err != nil {
			return "", fmt.Errorf("failed to extract archive: %w", err)
		}
		return dest, nil
	}

	return "", fmt.Errorf("source %q is not a directory, .zip archive, or GitHub URL", source)
}

func (f *Fetcher) fetchGitHub(ctx context.Context, source string, targetDir string) (string, error) {
	repo, err := ParseGitHubURL(source)
	if err != nil {
		return "", err
	}

	branches := []string{repo.Branch}
	if repo.Branch == "" {
		branches = []string{"main", "master"}
	}

	archivePath := filepath.Join(targetDir, "repo.zip")
	var lastErr error
	downloaded := false
	for _, branch := range branches {
		if err := f.downloadFile(ctx, repo.ArchiveURL(branch), archivePath); err != nil {
			lastErr = err
			continue
		}
		downloaded = true
		break
	}
	if !downloaded {
		return "", fmt.Errorf("failed to download %s/%s: %w", repo.Owner, repo.Repo, lastErr)
	}
	defer os.Remove(archivePath)

	dest := filepath.Join(targetDir, "codebase")
	if err := extractZip(archivePath, dest); err != nil {
		return "", fmt.Errorf("failed to extract archive: %w", err)
	}

	if repo.Subpath != "" {
		sub := filepath.Join(dest, filepath.FromSlash(repo.Subpath))
		if info, err := os.Stat(sub); err != nil || !info.IsDir() {
			return "", fmt.Errorf("folder %q not found in %s/%s", repo.Subpath, repo.Owner, repo.Repo)
		}
		return sub, nil
	}
	return dest, nil
}

func (f *Fetcher) downloadFile(ctx context.Context, url string, dest string) error {
	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s failed with status code '%d'", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("error writing %s: %w", dest, err)
	}
	return nil
}

// extractZip extracts archive into dest. When every entry lives under a
// single top-level folder, as GitHub archives do, that folder is stripped.
func extractZip(archivePath string, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("error opening archive: %w", err)
	}
	defer reader.Close()

	prefix := commonTopLevelDir(reader.File)

	for _, file := range reader.File {
		name := strings.TrimPrefix(file.Name, prefix)
		if name == "" {
			continue
		}

		path := filepath.Join(dest, filepath.FromSlash(name))
		// Reject entries escaping the destination.
		if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := extractZipEntry(file, path); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, path string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("error opening archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func commonTopLevelDir(files []*zip.File) string {
	prefix := ""
	for _, file := range files {
		idx := strings.Index(file.Name, "/")
		if idx < 0 {
			return ""
		}
		top := file.Name[:idx+1]
		if prefix == "" {
			prefix = top
		} else if prefix != top {
			return ""
		}
	}
	return prefix
}

func copyDir(src string, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		return copyFile(path, target)
	})
}

func copyFile(src string, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
