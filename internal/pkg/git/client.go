// Package git is the boundary to the local version-control repository.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	apperrors "github.com/commitwise/commitwise/internal/pkg/errors"
)

const (
	// GitCommandTimeout is the default timeout for local git commands.
	GitCommandTimeout = 10 * time.Second
	// PushTimeout bounds network operations.
	PushTimeout = 60 * time.Second
)

// Client defines the repository operations used by a session.
type Client interface {
	CheckRepository(ctx context.Context) error
	GetStagedDiff(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context) error
	Status(ctx context.Context) (string, error)
	LastCommit(ctx context.Context) (string, error)
}

// DefaultClient implements Client with the git binary and go-git.
type DefaultClient struct {
	// workDir is the working directory for git commands.
	// If empty, uses the current directory.
	workDir string
}

// NewClient creates a client for the current directory.
func NewClient() *DefaultClient {
	return &DefaultClient{}
}

// NewClientWithWorkDir creates a client rooted at workDir.
func NewClientWithWorkDir(workDir string) *DefaultClient {
	return &DefaultClient{workDir: workDir}
}

func (c *DefaultClient) dir() string {
	if c.workDir == "" {
		return "."
	}
	return c.workDir
}

// open locates the enclosing repository, walking up from the working directory.
func (c *DefaultClient) open() (*gogit.Repository, error) {
	return gogit.PlainOpenWithOptions(c.dir(), &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// CheckRepository verifies that the working directory is inside a work tree.
func (c *DefaultClient) CheckRepository(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo, err := c.open()
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return apperrors.NewRepositoryError(apperrors.RepoNotRepository, "", err)
		}
		return apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "open", err)
	}
	if _, err := repo.Worktree(); err != nil {
		if errors.Is(err, gogit.ErrIsBareRepository) {
			return apperrors.NewRepositoryError(apperrors.RepoNotRepository, "", err)
		}
		return apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "open", err)
	}
	return nil
}

// GetStagedDiff returns the staged diff. An empty diff is reported as
// RepoNoStagedChanges.
func (c *DefaultClient) GetStagedDiff(ctx context.Context) (string, error) {
	out, err := c.run(ctx, GitCommandTimeout, "diff", "diff", "--cached")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", apperrors.NewRepositoryError(apperrors.RepoNoStagedChanges, "diff", nil)
	}
	return out, nil
}

// Commit records the staged changes with message.
func (c *DefaultClient) Commit(ctx context.Context, message string) error {
	_, err := c.run(ctx, GitCommandTimeout, "commit", "commit", "-m", message)
	return err
}

// Push pushes the current branch. A branch without an upstream is pushed to
// origin with tracking set.
func (c *DefaultClient) Push(ctx context.Context) error {
	args := []string{"push"}
	if !c.hasUpstream(ctx) {
		branch, err := c.currentBranch()
		if err != nil {
			return err
		}
		args = append(args, "--set-upstream", "origin", branch)
	}
	_, err := c.run(ctx, PushTimeout, "push", args...)
	return err
}

// Status returns `git status --short --branch`.
func (c *DefaultClient) Status(ctx context.Context) (string, error) {
	return c.run(ctx, GitCommandTimeout, "status", "status", "--short", "--branch")
}

// LastCommit describes HEAD in the same shape as `git log -1`.
func (c *DefaultClient) LastCommit(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo, err := c.open()
	if err != nil {
		return "", apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "log", err)
	}
	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			err = errors.New("no commits yet")
		}
		return "", apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "log", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "log", err)
	}
	return commit.String(), nil
}

func (c *DefaultClient) hasUpstream(ctx context.Context) bool {
	_, err := c.run(ctx, GitCommandTimeout, "rev-parse", "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}")
	return err == nil
}

func (c *DefaultClient) currentBranch() (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "push", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "push", err)
	}
	if !head.Name().IsBranch() {
		return "", apperrors.NewRepositoryError(apperrors.RepoCommandFailed, "push", errors.New("HEAD is detached"))
	}
	return head.Name().Short(), nil
}

// run executes git with args and returns stdout. Failures carry git's
// stderr and stdout in RepositoryError.Output.
func (c *DefaultClient) run(ctx context.Context, timeout time.Duration, op string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	apperrors.Debug("git %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			err = fmt.Errorf("timed out after %v: %w", timeout, ctx.Err())
		case context.Canceled:
			err = fmt.Errorf("interrupted: %w", ctx.Err())
		}
		output := strings.TrimSpace(stderr.String() + "\n" + stdout.String())
		return "", &apperrors.RepositoryError{
			Kind:   apperrors.RepoCommandFailed,
			Op:     op,
			Output: output,
			Err:    err,
		}
	}
	return stdout.String(), nil
}
