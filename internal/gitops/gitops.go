// Package gitops records household ledger changes as git commits.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNothingToCommit is returned when the staged paths have no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies who a commit is attributed to.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor signs commits made by finhouse itself.
var DefaultAuthor = Author{Name: "Finhouse", Email: "finhouse@localhost"}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if out, err := git(dir, Author{}, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// CommitPaths stages paths (relative to dir or absolute inside it) and
// commits them. Returns the short commit hash.
func CommitPaths(dir, message string, author Author, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", ErrNothingToCommit
	}
	rel := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			r, err := filepath.Rel(dir, p)
			if err != nil {
				return "", fmt.Errorf("resolving %s: %w", p, err)
			}
			p = r
		}
		rel[i] = p
	}

	if out, err := git(dir, author, append([]string{"add", "--"}, rel...)...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	// diff --cached --quiet exits 1 when something is staged.
	if _, err := git(dir, author, "diff", "--cached", "--quiet"); err == nil {
		return "", ErrNothingToCommit
	}

	if out, err := git(dir, author, "commit", "--quiet", "-m", message, "--author", author.String()); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := git(dir, author, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func git(dir string, author Author, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	if author.Name != "" {
		cmd.Env = append(cmd.Env,
			"GIT_COMMITTER_NAME="+author.Name,
			"GIT_COMMITTER_EMAIL="+author.Email,
		)
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}
