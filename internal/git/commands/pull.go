package commands

import (
	"context"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kurobon/gitgraph/internal/git"
)

func init() {
	git.RegisterCommand("pull", func() git.Command { return &PullCommand{} })
}

// PullCommand fetches and fast-forwards the current branch to its remote-tracking
// branch. Diverged histories are refused; rebase or reset instead.
type PullCommand struct{}

func (c *PullCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	flags, positional := splitFlags(args)
	if flags["-h"] || flags["--help"] {
		return c.Help(), nil
	}

	repo := s.GetRepo()
	head, err := currentBranch(repo)
	if err != nil {
		return "", err
	}

	remoteName := defaultRemote
	if len(positional) > 0 {
		remoteName = positional[0]
	}
	branch := head.Name().Short()
	if len(positional) > 1 {
		branch = positional[1]
	}

	fetchOutput, err := fetchRemote(ctx, s, remoteName, false)
	if err != nil {
		return "", fmt.Errorf("pull (fetch failed): %w", err)
	}

	mergeRef, err := repo.Reference(remoteTrackingName(remoteName, branch), true)
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", remoteName, branch, git.ErrRefNotFound)
	}

	headHash, targetHash := head.Hash(), mergeRef.Hash()
	if headHash == targetHash {
		return joinOutput(fetchOutput, "Already up to date."), nil
	}

	ff, err := git.IsFastForward(repo, headHash, targetHash)
	if err != nil {
		return "", err
	}
	if !ff {
		behind, err := git.IsFastForward(repo, targetHash, headHash)
		if err != nil {
			return "", err
		}
		if behind {
			return joinOutput(fetchOutput, "Already up to date."), nil
		}
		return "", fmt.Errorf("not possible to fast-forward %s: %w", branch, git.ErrNonFastForward)
	}

	if err := repo.Storer.SetReference(plumbing.NewHashReference(head.Name(), targetHash)); err != nil {
		return "", err
	}
	w, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	if err := w.Reset(&gogit.ResetOptions{Commit: targetHash, Mode: gogit.HardReset}); err != nil {
		return "", fmt.Errorf("failed to update worktree: %w", err)
	}

	return joinOutput(fetchOutput, fmt.Sprintf("Updating %s..%s\nFast-forward", short(headHash), short(targetHash))), nil
}

func joinOutput(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}

func (c *PullCommand) Help() string {
	return "usage: pull [<remote>] [<branch>]"
}
