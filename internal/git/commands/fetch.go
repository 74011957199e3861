package commands

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kurobon/gitgraph/internal/git"
)

func init() {
	git.RegisterCommand("fetch", func() git.Command { return &FetchCommand{} })
}

// FetchCommand copies every branch of a local remote into refs/remotes/<remote>/*.
// With --prune, remote-tracking refs whose branch is gone are removed.
type FetchCommand struct{}

func (c *FetchCommand) Execute(ctx context.Context, s *git.Session, args []string) (string, error) {
	s.Lock()
	defer s.Unlock()

	flags, positional := splitFlags(args)
	if flags["-h"] || flags["--help"] {
		return c.Help(), nil
	}
	remoteName := defaultRemote
	if len(positional) > 0 {
		remoteName = positional[0]
	}
	return fetchRemote(ctx, s, remoteName, flags["--prune"] || flags["-p"])
}

// fetchRemote must be called with the session lock held.
func fetchRemote(ctx context.Context, s *git.Session, remoteName string, prune bool) (string, error) {
	repo := s.GetRepo()
	src, url, err := s.RemoteRepository(remoteName)
	if err != nil {
		return "", err
	}

	branches, err := src.Branches()
	if err != nil {
		return "", err
	}

	var lines []string
	fetched := make(map[plumbing.ReferenceName]bool)
	err = branches.ForEach(func(r *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := git.CopyCommitRecursive(src, repo, r.Hash()); err != nil {
			return fmt.Errorf("copy %s: %w", r.Name().Short(), err)
		}

		local := remoteTrackingName(remoteName, r.Name().Short())
		fetched[local] = true
		old, oldErr := repo.Reference(local, false)
		if oldErr == nil && old.Hash() == r.Hash() {
			return nil
		}
		if err := repo.Storer.SetReference(plumbing.NewHashReference(local, r.Hash())); err != nil {
			return err
		}
		if oldErr != nil {
			lines = append(lines, fmt.Sprintf(" * [new branch]      %s -> %s", r.Name().Short(), local.Short()))
		} else {
			lines = append(lines, fmt.Sprintf("   %s..%s  %s -> %s", short(old.Hash()), short(r.Hash()), r.Name().Short(), local.Short()))
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if prune {
		pruned, err := pruneRemoteTracking(repo, remoteName, fetched)
		if err != nil {
			return "", err
		}
		lines = append(lines, pruned...)
	}

	if len(lines) == 0 {
		return "", nil
	}
	return fmt.Sprintf("From %s\n%s", url, strings.Join(lines, "\n")), nil
}

func pruneRemoteTracking(repo *gogit.Repository, remoteName string, keep map[plumbing.ReferenceName]bool) ([]string, error) {
	refs, err := repo.References()
	if err != nil {
		return nil, err
	}
	prefix := "refs/remotes/" + remoteName + "/"
	var stale []plumbing.ReferenceName
	err = refs.ForEach(func(r *plumbing.Reference) error {
		name := r.Name()
		if strings.HasPrefix(name.String(), prefix) && r.Type() == plumbing.HashReference && !keep[name] {
			stale = append(stale, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, name := range stale {
		if err := repo.Storer.RemoveReference(name); err != nil {
			return nil, err
		}
		lines = append(lines, fmt.Sprintf(" - [deleted]         (none) -> %s", name.Short()))
	}
	return lines, nil
}

func (c *FetchCommand) Help() string {
	return "usage: fetch [--prune] [<remote>]"
}
