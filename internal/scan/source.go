package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/josephgoksu/VeriWing/types"
)

// Directories never worth scanning for tags.
var skipDirs = map[string]bool{
	".git":         true,
	".veriwing":    true,
	"node_modules": true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
}

// SourceTree reads source text for the scanner. It is backed by afero so
// tests can run against an in-memory filesystem.
type SourceTree struct {
	fs   afero.Fs
	root string
}

// NewSourceTree creates a source tree rooted at dir on the given filesystem.
func NewSourceTree(fs afero.Fs, root string) *SourceTree {
	return &SourceTree{fs: fs, root: root}
}

// Read returns the text content for each path. A completely unreadable
// tree (root missing, zero readable paths out of a non-empty set) is a
// fatal scan failure; individually unreadable files inside an otherwise
// readable tree are skipped with a warning by the caller.
func (s *SourceTree) Read(paths []string) (map[string]string, error) {
	if _, err := s.fs.Stat(s.root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFatalScan, s.root, err)
	}

	contents := make(map[string]string, len(paths))
	var firstErr error
	for _, p := range paths {
		data, err := afero.ReadFile(s.fs, s.abs(p))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		contents[p] = string(data)
	}
	if len(paths) > 0 && len(contents) == 0 {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalScan, firstErr)
	}
	return contents, nil
}

// Files walks the tree and returns every scannable file, sorted, relative
// to the root. Patterns are filename globs (e.g. "*.go"); an empty list
// means all regular files.
func (s *SourceTree) Files(patterns []string) ([]string, error) {
	var files []string
	err := afero.Walk(s.fs, s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesAny(info.Name(), patterns) {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrFatalScan, err)
	}
	sort.Strings(files)
	return files, nil
}

func (s *SourceTree) abs(p string) string {
	if filepath.IsAbs(p) || s.root == "" || strings.HasPrefix(p, s.root) {
		return p
	}
	return filepath.Join(s.root, p)
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pat := range patterns {
		if ok, err := filepath.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}
