package commands

import (
	"context"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/kurobon/gitgraph/internal/git"
)

func init() {
	git.RegisterCommand("rebase", func() git.Command { return &RebaseCommand{} })
}

// RebaseCommand replays the first-parent commits between the merge base and HEAD
// on top of upstream. Author data is kept; the committer is the local identity.
type RebaseCommand struct{}

func (c *RebaseCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	flags, positional := splitFlags(args)
	if flags["-h"] || flags["--help"] {
		return c.Help(), nil
	}
	if len(positional) != 1 {
		return "", fmt.Errorf("usage: rebase <upstream>")
	}
	upstream := positional[0]

	repo := s.GetRepo()
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}

	upstreamHash, err := git.ResolveRevision(repo, upstream)
	if err != nil {
		return "", fmt.Errorf("invalid upstream '%s': %w", upstream, err)
	}
	upstreamCommit, err := repo.CommitObject(*upstreamHash)
	if err != nil {
		return "", err
	}

	bases, err := upstreamCommit.MergeBase(headCommit)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("no common ancestor between HEAD and %s", upstream)
	}
	base := bases[0]

	if base.Hash == upstreamCommit.Hash {
		return "Current branch is up to date.", nil
	}

	var replay []*object.Commit
	for iter := headCommit; iter.Hash != base.Hash; {
		replay = append(replay, iter)
		if iter.NumParents() == 0 {
			break
		}
		if iter, err = iter.Parent(0); err != nil {
			return "", fmt.Errorf("failed to traverse parents: %w", err)
		}
	}
	for i, j := 0, len(replay)-1; i < j; i, j = i+1, j-1 {
		replay[i], replay[j] = replay[j], replay[i]
	}

	w, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	s.UpdateOrigHead()
	if err := w.Reset(&gogit.ResetOptions{Commit: *upstreamHash, Mode: gogit.HardReset}); err != nil {
		return "", fmt.Errorf("failed to reset to %s: %w", upstream, err)
	}

	committer := git.Signature(repo)
	for i, commit := range replay {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := git.ApplyCommitChanges(w, commit); err != nil {
			return "", fmt.Errorf("failed to apply commit %s: %w", short(commit.Hash), err)
		}
		when := committer.When.Add(time.Duration(i) * time.Second)
		_, err := w.Commit(commit.Message, &gogit.CommitOptions{
			Author:            &commit.Author,
			Committer:         &object.Signature{Name: committer.Name, Email: committer.Email, When: when},
			AllowEmptyCommits: true,
		})
		if err != nil {
			return "", fmt.Errorf("failed to commit replayed change: %w", err)
		}
	}

	name := "HEAD"
	if head.Name().IsBranch() {
		name = head.Name().Short()
	}
	return fmt.Sprintf("Successfully rebased and updated %s onto %s.\nReplayed %d commits.", name, short(*upstreamHash), len(replay)), nil
}

func (c *RebaseCommand) Help() string {
	return `usage: rebase <upstream>

Reapply the commits of the current branch on top of <upstream>.
`
}
