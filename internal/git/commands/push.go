package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kurobon/gitgraph/internal/git"
)

func init() {
	git.RegisterCommand("push", func() git.Command { return &PushCommand{} })
}

// PushCommand publishes a local branch to a local remote and updates the matching
// remote-tracking ref. Non-fast-forward updates are refused unless forced.
type PushCommand struct{}

func (c *PushCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	flags, positional := splitFlags(args)
	if flags["-h"] || flags["--help"] {
		return c.Help(), nil
	}
	force := flags["-f"] || flags["--force"]

	repo := s.GetRepo()
	remoteName := defaultRemote
	if len(positional) > 0 {
		remoteName = positional[0]
	}

	// <src>[:<dst>], defaulting to the current branch on both sides.
	var src, dst string
	if len(positional) > 1 {
		src, dst, _ = strings.Cut(positional[1], ":")
	}
	if src == "" {
		head, err := currentBranch(repo)
		if err != nil {
			return "", err
		}
		src = head.Name().Short()
	}
	if dst == "" {
		dst = src
	}

	local, err := repo.Reference(plumbing.NewBranchReferenceName(src), true)
	if err != nil {
		return "", fmt.Errorf("src refspec %s does not match any: %w", src, git.ErrRefNotFound)
	}

	target, url, err := s.RemoteRepository(remoteName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := git.CopyCommitRecursive(repo, target, local.Hash()); err != nil {
		return "", fmt.Errorf("failed to push objects: %w", err)
	}

	dstRef := plumbing.NewBranchReferenceName(dst)
	summary := fmt.Sprintf(" * [new branch]      %s -> %s", src, dst)
	if existing, err := target.Reference(dstRef, true); err == nil {
		if existing.Hash() == local.Hash() {
			return "Everything up-to-date", nil
		}
		ff, err := git.IsFastForward(target, existing.Hash(), local.Hash())
		if err != nil {
			return "", err
		}
		switch {
		case !ff && !force:
			return "", fmt.Errorf("%s -> %s: %w", src, dst, git.ErrNonFastForward)
		case !ff:
			summary = fmt.Sprintf(" + %s...%s %s -> %s (forced update)", short(existing.Hash()), short(local.Hash()), src, dst)
		default:
			summary = fmt.Sprintf("   %s..%s  %s -> %s", short(existing.Hash()), short(local.Hash()), src, dst)
		}
	}

	if err := target.Storer.SetReference(plumbing.NewHashReference(dstRef, local.Hash())); err != nil {
		return "", err
	}
	tracking := plumbing.NewHashReference(remoteTrackingName(remoteName, dst), local.Hash())
	if err := repo.Storer.SetReference(tracking); err != nil {
		return "", err
	}

	return fmt.Sprintf("To %s\n%s", url, summary), nil
}

func (c *PushCommand) Help() string {
	return "usage: push [-f] [<remote>] [<branch>[:<remote-branch>]]"
}
