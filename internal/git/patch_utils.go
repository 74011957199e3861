package git

// Helpers for commands that replay commits onto the worktree or resolve
// user-supplied revisions.

import (
	"errors"
	"fmt"
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// ApplyCommitChanges writes the changes a commit introduced relative to its first
// parent into the worktree and stages them. Root commits contribute every file.
func ApplyCommitChanges(w *gogit.Worktree, commit *object.Commit) error {
	commitTree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to get commit tree: %w", err)
	}

	if commit.NumParents() == 0 {
		return applyRootCommitFiles(w, commit)
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return fmt.Errorf("failed to get parent commit: %w", err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return fmt.Errorf("failed to get parent tree: %w", err)
	}

	patch, err := parentTree.Patch(commitTree)
	if err != nil {
		return fmt.Errorf("failed to compute patch: %w", err)
	}
	return applyPatchToWorktree(w, commit, patch)
}

func applyRootCommitFiles(w *gogit.Worktree, commit *object.Commit) error {
	files, err := commit.Files()
	if err != nil {
		return fmt.Errorf("failed to get commit files: %w", err)
	}

	return files.ForEach(func(f *object.File) error {
		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", f.Name, err)
		}
		return writeAndStage(w, f.Name, content)
	})
}

func applyPatchToWorktree(w *gogit.Worktree, commit *object.Commit, patch *object.Patch) error {
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()

		if to == nil {
			if from == nil {
				continue
			}
			if _, err := w.Remove(from.Path()); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
				return fmt.Errorf("failed to remove file %s: %w", from.Path(), err)
			}
			continue
		}

		path := to.Path()
		file, err := commit.File(path)
		if err != nil {
			continue
		}
		content, err := file.Contents()
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if err := writeAndStage(w, path, content); err != nil {
			return err
		}
	}
	return nil
}

func writeAndStage(w *gogit.Worktree, path, content string) error {
	if err := writeFile(w, path, content); err != nil {
		return err
	}
	if _, err := w.Add(path); err != nil {
		return fmt.Errorf("failed to stage file %s: %w", path, err)
	}
	return nil
}

func writeFile(w *gogit.Worktree, path, content string) error {
	f, err := w.Filesystem.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write([]byte(content)); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// ResolveRevision resolves a branch, tag, full or abbreviated (>= 4 chars) hash,
// or any revision expression go-git understands, to a commit hash.
func ResolveRevision(repo *gogit.Repository, rev string) (*plumbing.Hash, error) {
	rev = strings.TrimSpace(rev)
	if hash, err := repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
		return hash, nil
	}

	if len(rev) >= 4 && len(rev) < 40 {
		iter, err := repo.CommitObjects()
		if err != nil {
			return nil, err
		}
		var match *plumbing.Hash
		ambiguous := false
		err = iter.ForEach(func(c *object.Commit) error {
			if !strings.HasPrefix(c.Hash.String(), rev) {
				return nil
			}
			if match != nil {
				ambiguous = true
				return storer.ErrStop
			}
			h := c.Hash
			match = &h
			return nil
		})
		if err != nil {
			return nil, err
		}
		if ambiguous {
			return nil, fmt.Errorf("short commit hash '%s' is ambiguous", rev)
		}
		if match != nil {
			return match, nil
		}
	}

	return nil, fmt.Errorf("revision '%s': %w", rev, ErrRefNotFound)
}
