// Package git provides shell-based wrappers for the git commands the
// changed-files scope needs. It uses os/exec instead of go-git to ensure
// compatibility with the user's shell environment settings.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// Common errors returned by git operations.
var (
	ErrGitNotInstalled  = errors.New("git is not installed or not in PATH")
	ErrNotGitRepository = errors.New("not a git repository")
)

// Commander is an interface for executing commands.
// This allows mocking in tests.
type Commander interface {
	Run(name string, args ...string) (string, error)
	RunInDir(dir, name string, args ...string) (string, error)
}

// ShellCommander executes real shell commands.
type ShellCommander struct{}

// Run executes a command in the current directory.
func (c *ShellCommander) Run(name string, args ...string) (string, error) {
	return c.RunInDir("", name, args...)
}

// RunInDir executes a command in the specified directory.
func (c *ShellCommander) RunInDir(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		// Include stderr in error for debugging
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return "", fmt.Errorf("%w: %s", err, errMsg)
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Client wraps git CLI operations.
type Client struct {
	commander Commander
	workDir   string
}

// NewClient creates a new git client for the given directory.
func NewClient(workDir string) *Client {
	return &Client{
		commander: &ShellCommander{},
		workDir:   workDir,
	}
}

// NewClientWithCommander creates a client with a custom commander (for testing).
func NewClientWithCommander(workDir string, commander Commander) *Client {
	return &Client{
		commander: commander,
		workDir:   workDir,
	}
}

// IsRepository checks whether workDir is inside a git work tree.
func (c *Client) IsRepository() bool {
	out, err := c.commander.RunInDir(c.workDir, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// ChangedFiles lists files modified relative to HEAD plus untracked
// files, sorted and deduplicated, with paths relative to the repo root.
func (c *Client) ChangedFiles() ([]string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrGitNotInstalled
	}
	if !c.IsRepository() {
		return nil, ErrNotGitRepository
	}

	diff, err := c.commander.RunInDir(c.workDir, "git", "diff", "--name-only", "HEAD")
	if err != nil {
		// A repo with no commits has no HEAD; fall back to staged view.
		diff, err = c.commander.RunInDir(c.workDir, "git", "diff", "--name-only", "--cached")
		if err != nil {
			return nil, fmt.Errorf("list changed files: %w", err)
		}
	}
	untracked, err := c.commander.RunInDir(c.workDir, "git", "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("list untracked files: %w", err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, block := range []string{diff, untracked} {
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			files = append(files, line)
		}
	}
	sort.Strings(files)
	return files, nil
}
