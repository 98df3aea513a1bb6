package enum

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/praetorian-inc/matchindex/pkg/types"
)

// GitEnumerator enumerates blobs from a git repository.
type GitEnumerator struct {
	config Config
	// CommitRef is the revision to enumerate (default HEAD).
	CommitRef string
	// AllHistory walks every commit reachable from CommitRef instead of its tree only.
	AllHistory bool
}

// NewGitEnumerator creates a new git enumerator.
func NewGitEnumerator(config Config) *GitEnumerator {
	return &GitEnumerator{
		config:    config,
		CommitRef: "HEAD",
	}
}

// Enumerate yields each unique, non-binary blob once. With AllHistory the
// provenance names the newest commit the blob was seen in.
func (e *GitEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	repo, err := git.PlainOpen(e.config.Root)
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	ref, err := repo.ResolveRevision(plumbing.Revision(e.CommitRef))
	if err != nil {
		return fmt.Errorf("failed to resolve ref %s: %w", e.CommitRef, err)
	}

	seen := make(map[plumbing.Hash]bool)

	if !e.AllHistory {
		commit, err := repo.CommitObject(*ref)
		if err != nil {
			return fmt.Errorf("failed to get commit: %w", err)
		}
		return e.walkCommit(ctx, commit, seen, callback)
	}

	commits, err := repo.Log(&git.LogOptions{From: *ref})
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	defer commits.Close()

	err = commits.ForEach(func(c *object.Commit) error {
		return e.walkCommit(ctx, c, seen, callback)
	})
	if errors.Is(err, storer.ErrStop) {
		return nil
	}
	return err
}

func (e *GitEnumerator) walkCommit(ctx context.Context, commit *object.Commit, seen map[plumbing.Hash]bool, callback Callback) error {
	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to get tree of %s: %w", commit.Hash, err)
	}

	info := &types.CommitInfo{
		CommitID:  commit.Hash.String(),
		Author:    commit.Author.String(),
		Timestamp: commit.Author.When,
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen[f.Hash] {
			return nil
		}
		seen[f.Hash] = true

		if e.config.MaxFileSize > 0 && f.Size > e.config.MaxFileSize {
			return nil
		}

		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to get contents of %s: %w", f.Name, err)
		}
		if isBinary(content) {
			return nil
		}

		prov := types.GitProvenance{
			RepoPath: e.config.Root,
			Commit:   info,
			BlobPath: f.Name,
		}
		return callback(content, types.ComputeTextID(content), prov)
	})
	if err != nil {
		return fmt.Errorf("failed to walk tree: %w", err)
	}
	return nil
}
